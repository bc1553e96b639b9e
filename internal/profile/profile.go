// Package profile loads the candidate profile and prompt configuration from
// YAML files.
package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile describes the person the agent corresponds on behalf of.
type Profile struct {
	Personal struct {
		Name            string `yaml:"name"`
		CurrentTitle    string `yaml:"current_title"`
		YearsExperience int    `yaml:"years_experience"`
	} `yaml:"personal"`

	Skills struct {
		Primary []string `yaml:"primary"`
	} `yaml:"skills"`

	Preferences struct {
		SalaryRange struct {
			Minimum int `yaml:"minimum"`
			Target  int `yaml:"target"`
		} `yaml:"salary_range"`
		WorkArrangement string `yaml:"work_arrangement"`
	} `yaml:"preferences"`

	JobCriteria struct {
		AutoDecline struct {
			SalaryBelow int `yaml:"salary_below"`
		} `yaml:"auto_decline"`
	} `yaml:"job_criteria"`

	Signature string `yaml:"signature"`
}

// Prompts holds the drafter prompt text and analysis keyword sets.
type Prompts struct {
	SystemPrompt string            `yaml:"system_prompt"`
	StagePrompts map[string]string `yaml:"stage_prompts"`

	ResponseAnalysis struct {
		NegotiationKeywords []string `yaml:"negotiation_keywords"`
		DeclineKeywords     []string `yaml:"decline_keywords"`
	} `yaml:"response_analysis"`
}

// LoadProfile reads the profile YAML. A missing file yields a zero profile
// rather than an error; the drafter degrades to generic prompts.
func LoadProfile(path string) (*Profile, error) {
	var p Profile
	if err := loadYAML(path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPrompts reads the prompts YAML with the same missing-file behavior.
func LoadPrompts(path string) (*Prompts, error) {
	var p Prompts
	if err := loadYAML(path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func loadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
