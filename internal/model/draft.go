package model

import (
	"time"
)

// Draft is the structured output of the response drafter for one inbound
// message. All fields besides Response are optional; absent fields are
// defaulted, never fatal.
type Draft struct {
	Response           string  `json:"response"`
	Extracted          Facts   `json:"extracted_info"`
	SuggestedStage     Stage   `json:"next_stage"`
	RequiresEscalation bool    `json:"requires_escalation"`
	EscalationReason   string  `json:"escalation_reason,omitempty"`
	Confidence         float64 `json:"confidence"`
}

// EscalationEvent is published on the operator feed whenever a conversation
// is held for human review.
type EscalationEvent struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Channel   Channel   `json:"channel"`
	Stage     Stage     `json:"stage"`
	Reason    string    `json:"reason"`
	Company   string    `json:"company,omitempty"`
	Position  string    `json:"position,omitempty"`
	DraftText string    `json:"draft_text"`
	CreatedAt time.Time `json:"created_at"`
}
