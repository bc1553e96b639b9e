// Package engine implements the conversation orchestration core: fact
// merging, stage transitions, escalation policy and the per-cycle driver.
package engine

import (
	"strings"

	"github.com/aria-ai/recruiter-agent/internal/model"
)

// Conflict reports a field where an extracted value disagreed with an
// already-known one. The existing value is kept.
type Conflict struct {
	Field    string `json:"field"`
	Existing string `json:"existing"`
	Proposed string `json:"proposed"`
}

// MergeFacts merges newly extracted facts into existing ones under a
// non-destructive policy: empty fields adopt extracted values, non-empty
// fields are kept and a conflict is reported when the extracted value
// differs. A later low-confidence guess never clobbers a confirmed detail.
func MergeFacts(existing, extracted model.Facts) (model.Facts, []Conflict) {
	var conflicts []Conflict

	merge := func(field string, cur *string, proposed string) {
		proposed = strings.TrimSpace(proposed)
		if proposed == "" {
			return
		}
		if *cur == "" {
			*cur = proposed
			return
		}
		if *cur != proposed {
			conflicts = append(conflicts, Conflict{
				Field:    field,
				Existing: *cur,
				Proposed: proposed,
			})
		}
	}

	merged := existing
	merge("company", &merged.Company, extracted.Company)
	merge("position", &merged.Position, extracted.Position)
	merge("recruiter_name", &merged.RecruiterName, extracted.RecruiterName)
	merge("work_arrangement", &merged.WorkArrangement, extracted.WorkArrangement)
	merge("salary_range", &merged.SalaryRange, extracted.SalaryRange)

	return merged, conflicts
}
