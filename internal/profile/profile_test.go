package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
personal:
  name: Alex Chen
  years_experience: 8
preferences:
  salary_range:
    minimum: 150000
    target: 180000
  work_arrangement: remote
job_criteria:
  auto_decline:
    salary_below: 120000
signature: "Best,\nAlex"
`), 0o644))

	p, err := LoadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, "Alex Chen", p.Personal.Name)
	assert.Equal(t, 8, p.Personal.YearsExperience)
	assert.Equal(t, 150000, p.Preferences.SalaryRange.Minimum)
	assert.Equal(t, "remote", p.Preferences.WorkArrangement)
	assert.Equal(t, 120000, p.JobCriteria.AutoDecline.SalaryBelow)
	assert.Equal(t, "Best,\nAlex", p.Signature)
}

func TestLoadProfileMissingFileIsZero(t *testing.T) {
	p, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, p.Personal.Name)
}

func TestLoadPrompts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
system_prompt: "You respond to recruiters."
stage_prompts:
  screening: "Answer factually."
response_analysis:
  negotiation_keywords: [salary, equity]
  decline_keywords: ["not interested"]
`), 0o644))

	p, err := LoadPrompts(path)
	require.NoError(t, err)

	assert.Equal(t, "You respond to recruiters.", p.SystemPrompt)
	assert.Equal(t, "Answer factually.", p.StagePrompts["screening"])
	assert.Equal(t, []string{"salary", "equity"}, p.ResponseAnalysis.NegotiationKeywords)
	assert.Equal(t, []string{"not interested"}, p.ResponseAnalysis.DeclineKeywords)
}

func TestLoadProfileRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("personal: [unclosed"), 0o644))

	_, err := LoadProfile(path)
	assert.Error(t, err)
}
