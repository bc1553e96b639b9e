// Package transport defines the narrow boundary between the orchestration
// engine and channel transports (email retrieval/send, SMS gateways).
package transport

import (
	"context"
	"time"

	"github.com/aria-ai/recruiter-agent/internal/model"
)

// InboundItem is one candidate message pulled from a transport.
type InboundItem struct {
	// MessageID is the transport-scoped identifier used for de-duplication.
	MessageID string
	// ThreadID groups all messages with one correspondent.
	ThreadID   string
	Channel    model.Channel
	Sender     string
	SenderName string
	Subject    string
	Body       string
	ReceivedAt time.Time
}

// Outbound is a reply handed to a transport for delivery. ReplyTo is the
// channel-appropriate target extracted from the inbound item's metadata.
type Outbound struct {
	ThreadID string
	ReplyTo  string
	Subject  string
	Body     string
}

// Transport supplies raw inbound messages and accepts outbound sends.
// Implementations must not mark anything consumed on their own; the
// orchestrator calls MarkConsumed only after a successful store commit so a
// crash mid-cycle leaves the message eligible for reprocessing.
type Transport interface {
	// Channel identifies which conversations this transport feeds.
	Channel() model.Channel

	// FetchCandidates returns up to limit unconsumed inbound items.
	// Re-delivery of already-processed items is expected and harmless.
	FetchCandidates(ctx context.Context, limit int) ([]InboundItem, error)

	// Send dispatches a reply on the thread.
	Send(ctx context.Context, out Outbound) error

	// MarkConsumed flags the transport-side message as handled (read,
	// labeled) so it stops appearing in FetchCandidates.
	MarkConsumed(ctx context.Context, messageID string) error
}
