package engine

import (
	"strings"

	"github.com/aria-ai/recruiter-agent/internal/model"
)

// stageOrder is the canonical forward ordering. Stages outside this map
// (declined, escalated) are not part of the progression.
var stageOrder = map[model.Stage]int{
	model.StageInitialContact:       0,
	model.StageInformationGathering: 1,
	model.StageScreening:            2,
	model.StageNegotiation:          3,
	model.StageScheduling:           4,
}

// Signals carries content-derived inputs to the stage machine.
type Signals struct {
	// ExplicitDecline is true when the inbound message matched a configured
	// decline/withdraw keyword.
	ExplicitDecline bool
}

// NextStage computes the legal next stage. Stage movement is monotonic in the
// canonical ordering; the only way backward is off the board entirely via an
// explicit decline, which can happen at any point and is terminal.
func NextStage(current, suggested model.Stage, signals Signals) model.Stage {
	if current == model.StageDeclined {
		return model.StageDeclined
	}
	if signals.ExplicitDecline {
		return model.StageDeclined
	}
	if suggested == model.StageDeclined {
		return model.StageDeclined
	}

	curRank, curOK := stageOrder[current]
	sugRank, sugOK := stageOrder[suggested]
	if !sugOK {
		// Unknown or escalated suggestion: escalation is a flag, not a
		// stage, so the suggestion is ignored.
		return current
	}
	if !curOK {
		// Externally-set stages (escalated records handed back by a human)
		// resume wherever the drafter suggests.
		return suggested
	}
	if sugRank < curRank {
		// Regression rejected.
		return current
	}
	return suggested
}

// DetectDecline reports whether the message contains one of the configured
// decline keywords (case-insensitive substring match).
func DetectDecline(content string, keywords []string) bool {
	return matchesAny(content, keywords)
}

func matchesAny(content string, keywords []string) bool {
	lower := strings.ToLower(content)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
