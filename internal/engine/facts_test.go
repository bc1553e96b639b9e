package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aria-ai/recruiter-agent/internal/model"
)

func TestMergeFactsAdoptsIntoEmptyFields(t *testing.T) {
	existing := model.Facts{Company: "Acme"}
	extracted := model.Facts{Position: "Staff Engineer", WorkArrangement: "remote"}

	merged, conflicts := MergeFacts(existing, extracted)

	assert.Empty(t, conflicts)
	assert.Equal(t, "Acme", merged.Company)
	assert.Equal(t, "Staff Engineer", merged.Position)
	assert.Equal(t, "remote", merged.WorkArrangement)
}

func TestMergeFactsKeepsExistingOnConflict(t *testing.T) {
	existing := model.Facts{SalaryRange: "$140k - $160k"}
	extracted := model.Facts{SalaryRange: "$120k"}

	merged, conflicts := MergeFacts(existing, extracted)

	assert.Equal(t, "$140k - $160k", merged.SalaryRange)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "salary_range", conflicts[0].Field)
	assert.Equal(t, "$140k - $160k", conflicts[0].Existing)
	assert.Equal(t, "$120k", conflicts[0].Proposed)
}

func TestMergeFactsIgnoresEmptyExtraction(t *testing.T) {
	existing := model.Facts{Company: "Acme", RecruiterName: "Sam"}

	merged, conflicts := MergeFacts(existing, model.Facts{})

	assert.Empty(t, conflicts)
	assert.Equal(t, existing, merged)
}

func TestMergeFactsEqualValueIsNotAConflict(t *testing.T) {
	existing := model.Facts{Company: "Acme"}
	extracted := model.Facts{Company: "Acme"}

	merged, conflicts := MergeFacts(existing, extracted)

	assert.Empty(t, conflicts)
	assert.Equal(t, "Acme", merged.Company)
}

func TestMergeFactsTrimsWhitespace(t *testing.T) {
	merged, conflicts := MergeFacts(model.Facts{}, model.Facts{Company: "  Acme  "})

	assert.Empty(t, conflicts)
	assert.Equal(t, "Acme", merged.Company)
}

func TestMergeFactsIsIdempotent(t *testing.T) {
	extracted := model.Facts{Company: "Acme", Position: "SRE", SalaryRange: "$150k"}

	once, conflicts := MergeFacts(model.Facts{}, extracted)
	require.Empty(t, conflicts)

	twice, conflicts := MergeFacts(once, extracted)
	assert.Empty(t, conflicts)
	assert.Equal(t, once, twice)
}
