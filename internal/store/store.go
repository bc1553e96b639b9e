// Package store provides durable keyed storage of conversation state with
// atomic read-modify-write per thread.
package store

import (
	"context"
	"errors"

	"github.com/aria-ai/recruiter-agent/internal/model"
)

// ErrNotFound is returned when a thread has no conversation record.
var ErrNotFound = errors.New("conversation not found")

// ProcessedMark identifies a transport message to record as processed in the
// same atomic operation as a conversation commit.
type ProcessedMark struct {
	Channel   model.Channel
	MessageID string
}

// Store is the single shared mutable resource of the engine. Its atomicity
// guarantees are the sole correctness boundary when multiple orchestrator
// instances share one store.
type Store interface {
	// GetOrCreate returns the existing record for the thread or atomically
	// creates a new one with default values. The returned conversation is a
	// checked-out copy; mutations become visible only through Commit.
	GetOrCreate(ctx context.Context, threadID string, channel model.Channel) (*model.Conversation, error)

	// Get returns a checked-out copy of one conversation, or ErrNotFound.
	Get(ctx context.Context, threadID string) (*model.Conversation, error)

	// Commit persists the full record in a single atomic operation. When
	// mark is non-nil the processed marker is written in the same unit:
	// both succeed or neither does.
	Commit(ctx context.Context, conv *model.Conversation, mark *ProcessedMark) error

	// HasProcessed reports whether a transport message was already ingested.
	HasProcessed(ctx context.Context, channel model.Channel, messageID string) (bool, error)

	// MarkProcessed records a message as processed without a conversation
	// mutation. Used for items discarded by the relevance filter.
	MarkProcessed(ctx context.Context, channel model.Channel, messageID string) error

	// ListActive returns all conversations not declined, newest first.
	ListActive(ctx context.Context) ([]*model.Conversation, error)
}
