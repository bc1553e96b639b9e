package engine

import (
	"strings"

	"github.com/aria-ai/recruiter-agent/internal/transport"
)

// RelevanceFilter discards inbound items that do not look like recruiter
// correspondence. The keyword set is injected configuration so tests can
// exercise it independently of the tuned defaults.
type RelevanceFilter struct {
	Keywords []string
}

// DefaultRecruiterKeywords is the tuned recruiter-detection list.
var DefaultRecruiterKeywords = []string{
	"recruiter", "recruiting", "talent", "opportunity", "position",
	"job", "hiring", "career", "candidate", "interview",
	"resume", "cv", "application",
}

// Relevant reports whether the item looks like recruiter correspondence.
// Subject, body and sender name are matched together, case-insensitively.
func (f RelevanceFilter) Relevant(item transport.InboundItem) bool {
	combined := strings.Join([]string{item.Subject, item.Body, item.SenderName}, " ")
	return matchesAny(combined, f.Keywords)
}
