package drafter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/aria-ai/recruiter-agent/internal/model"
	"github.com/aria-ai/recruiter-agent/internal/profile"
)

// draftWire is the provider's JSON contract. Every field is optional;
// missing ones are defaulted below.
type draftWire struct {
	Response           string      `json:"response"`
	ExtractedInfo      model.Facts `json:"extracted_info"`
	NextStage          string      `json:"next_stage"`
	RequiresEscalation bool        `json:"requires_escalation"`
	EscalationReason   string      `json:"escalation_reason"`
	Confidence         *float64    `json:"confidence"`
}

// parseDraft turns raw provider output into a Draft. Strategy: strip
// markdown fences, attempt plain JSON, then a repaired parse for malformed
// JSON. Prose with no JSON at all falls back to treating the whole output as
// the reply with keyword-based local extraction. Output that looks like JSON
// but stays unparseable after repair is a drafting failure.
func parseDraft(raw, originalMessage string, currentStage model.Stage, prompts *profile.Prompts) (*model.Draft, error) {
	body := extractJSONBlock(raw)

	var wire draftWire
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(body)
		if repairErr == nil {
			err = json.Unmarshal([]byte(repaired), &wire)
		}
		if err != nil {
			if looksLikeJSON(body) {
				return nil, fmt.Errorf("unparseable draft output: %w", err)
			}
			return fallbackDraft(raw, originalMessage, currentStage, prompts), nil
		}
	}

	draft := &model.Draft{
		Response:           strings.TrimSpace(wire.Response),
		Extracted:          wire.ExtractedInfo,
		SuggestedStage:     model.Stage(wire.NextStage),
		RequiresEscalation: wire.RequiresEscalation,
		EscalationReason:   wire.EscalationReason,
		Confidence:         0.5,
	}
	if wire.Confidence != nil {
		draft.Confidence = *wire.Confidence
	}
	if draft.Response == "" {
		draft.Response = strings.TrimSpace(raw)
	}
	if draft.SuggestedStage == "" {
		draft.SuggestedStage = currentStage
	}
	return draft, nil
}

// extractJSONBlock pulls the payload out of markdown code fences when the
// provider wrapped its JSON.
func extractJSONBlock(raw string) string {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
	} else if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
	} else {
		return s
	}
	if end := strings.Index(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

var salaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\$\s*\d+k`),
	regexp.MustCompile(`\$\s*\d{3},\d{3}`),
	regexp.MustCompile(`(?i)\d+k\s*-\s*\d+k`),
}

// fallbackDraft handles prose output: the whole text becomes the reply and
// basic facts are extracted from the original message by keyword.
func fallbackDraft(raw, originalMessage string, currentStage model.Stage, prompts *profile.Prompts) *model.Draft {
	var facts model.Facts

	lower := strings.ToLower(originalMessage)
	switch {
	case strings.Contains(lower, "remote"):
		facts.WorkArrangement = "remote"
	case strings.Contains(lower, "hybrid"):
		facts.WorkArrangement = "hybrid"
	case strings.Contains(lower, "onsite"), strings.Contains(lower, "on-site"):
		facts.WorkArrangement = "onsite"
	}

	for _, pattern := range salaryPatterns {
		if match := pattern.FindString(originalMessage); match != "" {
			facts.SalaryRange = match
			break
		}
	}

	escalate := false
	if prompts != nil {
		for _, kw := range prompts.ResponseAnalysis.NegotiationKeywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				escalate = true
				break
			}
		}
	}

	return &model.Draft{
		Response:           strings.TrimSpace(raw),
		Extracted:          facts,
		SuggestedStage:     currentStage,
		RequiresEscalation: escalate,
		Confidence:         0.5,
	}
}
