// Package model defines data structures for the recruiter correspondence engine.
package model

import (
	"time"
)

// Channel identifies the transport a conversation lives on.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Stage represents negotiation progress for a conversation.
type Stage string

const (
	StageInitialContact       Stage = "initial_contact"
	StageInformationGathering Stage = "information_gathering"
	StageScreening            Stage = "screening"
	StageNegotiation          Stage = "negotiation"
	StageScheduling           Stage = "scheduling"
	StageDeclined             Stage = "declined"

	// StageEscalated exists only for records resolved by a human outside the
	// engine. The stage machine never produces it; requires_escalation is the
	// authoritative escalation signal.
	StageEscalated Stage = "escalated"
)

// Facts holds the structured details learned about an opportunity. Each field
// is independently optional; empty string means unknown.
type Facts struct {
	Company         string `json:"company,omitempty"`
	Position        string `json:"position,omitempty"`
	RecruiterName   string `json:"recruiter_name,omitempty"`
	WorkArrangement string `json:"work_arrangement,omitempty"`
	SalaryRange     string `json:"salary_range,omitempty"`
}

// Conversation represents one communication thread with a recruiter.
// Identity is the transport-supplied thread ID.
type Conversation struct {
	ThreadID string  `json:"thread_id"`
	Channel  Channel `json:"channel"`
	Stage    Stage   `json:"stage"`
	Facts    Facts   `json:"facts"`

	RequiresEscalation bool   `json:"requires_escalation"`
	EscalationReason   string `json:"escalation_reason,omitempty"`

	History []Message `json:"history"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversation creates a conversation with default field values.
func NewConversation(threadID string, channel Channel) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ThreadID:  threadID,
		Channel:   channel,
		Stage:     StageInitialContact,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a message to the history and refreshes the update timestamp.
// History is append-only; insertion order is processing order.
func (c *Conversation) Append(msg Message) {
	c.History = append(c.History, msg)
	c.UpdatedAt = time.Now().UTC()
}

// SetEscalation sets the escalation flag and reason together. They are never
// mutated individually.
func (c *Conversation) SetEscalation(required bool, reason string) {
	c.RequiresEscalation = required
	if !required {
		reason = ""
	}
	c.EscalationReason = reason
	c.UpdatedAt = time.Now().UTC()
}

// RecentHistory returns the last n messages, oldest first.
func (c *Conversation) RecentHistory(n int) []Message {
	if n <= 0 || len(c.History) <= n {
		return c.History
	}
	return c.History[len(c.History)-n:]
}

// Clone returns a deep copy. The store hands out clones so that callers can
// mutate a checked-out conversation and either commit or discard it.
func (c *Conversation) Clone() *Conversation {
	cp := *c
	cp.History = make([]Message, len(c.History))
	for i, msg := range c.History {
		cp.History[i] = msg.clone()
	}
	return &cp
}

// ConversationSummary is the listing shape for the status surface.
type ConversationSummary struct {
	ThreadID           string    `json:"thread_id"`
	Channel            Channel   `json:"channel"`
	Company            string    `json:"company,omitempty"`
	Position           string    `json:"position,omitempty"`
	Stage              Stage     `json:"stage"`
	RequiresEscalation bool      `json:"requires_escalation"`
	MessageCount       int       `json:"message_count"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Summary projects the conversation into its listing shape.
func (c *Conversation) Summary() ConversationSummary {
	return ConversationSummary{
		ThreadID:           c.ThreadID,
		Channel:            c.Channel,
		Company:            c.Facts.Company,
		Position:           c.Facts.Position,
		Stage:              c.Stage,
		RequiresEscalation: c.RequiresEscalation,
		MessageCount:       len(c.History),
		UpdatedAt:          c.UpdatedAt,
	}
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
	Total         int                   `json:"total"`
}
