package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aria-ai/recruiter-agent/internal/model"
)

// highStakesFields are facts where a merge conflict alone warrants human
// review before an automatic reply goes out.
var highStakesFields = map[string]bool{
	"salary_range":     true,
	"work_arrangement": true,
}

// EscalationPolicy decides whether a conversation requires human approval.
type EscalationPolicy struct {
	// SalaryFloor is the auto-decline threshold in whole currency units.
	// Zero disables the check.
	SalaryFloor int
	// Keywords are negotiation/legal terms that always require sign-off.
	Keywords []string
}

// EscalationInput is the snapshot the policy evaluates for one cycle item.
type EscalationInput struct {
	Draft            model.Draft
	Conflicts        []Conflict
	Facts            model.Facts
	FirstNegotiation bool
	MessageBody      string
}

// ShouldEscalate returns the first applicable reason in priority order:
// collaborator hint, high-stakes fact conflict, salary floor or first entry
// into negotiation, then keyword match. No trigger means no escalation.
func (p EscalationPolicy) ShouldEscalate(in EscalationInput) (bool, string) {
	if in.Draft.RequiresEscalation {
		reason := in.Draft.EscalationReason
		if reason == "" {
			reason = "drafter requested human review"
		}
		return true, reason
	}

	for _, c := range in.Conflicts {
		if highStakesFields[c.Field] {
			return true, fmt.Sprintf("conflicting %s: had %q, recruiter now says %q", c.Field, c.Existing, c.Proposed)
		}
	}

	if p.SalaryFloor > 0 && in.Facts.SalaryRange != "" {
		if min, ok := MinSalary(in.Facts.SalaryRange); ok && min < p.SalaryFloor {
			return true, fmt.Sprintf("offered salary $%d below floor $%d", min, p.SalaryFloor)
		}
	}
	if in.FirstNegotiation {
		return true, "entering negotiation, sign-off required before numbers are discussed"
	}

	if matchesAny(in.MessageBody, p.Keywords) {
		return true, "message matched a negotiation/legal keyword"
	}

	return false, ""
}

var salaryNumbers = regexp.MustCompile(`\d[\d,]*`)

// MinSalary extracts the lowest figure from a salary-range string such as
// "$140k", "$120,000 - $150,000" or "120k-140k". Figures of three digits or
// fewer are read as thousands.
func MinSalary(s string) (int, bool) {
	match := salaryNumbers.FindString(s)
	if match == "" {
		return 0, false
	}
	digits := strings.ReplaceAll(match, ",", "")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	if len(digits) <= 3 {
		n *= 1000
	}
	return n, true
}
