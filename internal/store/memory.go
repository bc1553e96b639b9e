package store

import (
	"context"
	"sort"
	"sync"

	"github.com/aria-ai/recruiter-agent/internal/model"
)

// MemoryStore is an in-memory Store. It backs tests and single-process runs
// without a configured database.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*model.Conversation
	processed     map[model.Channel]map[string]bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*model.Conversation),
		processed:     make(map[model.Channel]map[string]bool),
	}
}

// GetOrCreate returns a copy of the existing record or creates a new one.
func (s *MemoryStore) GetOrCreate(ctx context.Context, threadID string, channel model.Channel) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[threadID]; ok {
		return conv.Clone(), nil
	}

	conv := model.NewConversation(threadID, channel)
	s.conversations[threadID] = conv
	return conv.Clone(), nil
}

// Get returns a copy of one conversation.
func (s *MemoryStore) Get(ctx context.Context, threadID string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[threadID]
	if !ok {
		return nil, ErrNotFound
	}
	return conv.Clone(), nil
}

// Commit replaces the stored record and, when mark is non-nil, records the
// processed marker under the same lock.
func (s *MemoryStore) Commit(ctx context.Context, conv *model.Conversation, mark *ProcessedMark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[conv.ThreadID] = conv.Clone()
	if mark != nil {
		s.markLocked(mark.Channel, mark.MessageID)
	}
	return nil
}

// HasProcessed reports whether the message id was already ingested.
func (s *MemoryStore) HasProcessed(ctx context.Context, channel model.Channel, messageID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processed[channel][messageID], nil
}

// MarkProcessed records the message id without a conversation mutation.
func (s *MemoryStore) MarkProcessed(ctx context.Context, channel model.Channel, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markLocked(channel, messageID)
	return nil
}

func (s *MemoryStore) markLocked(channel model.Channel, messageID string) {
	ids, ok := s.processed[channel]
	if !ok {
		ids = make(map[string]bool)
		s.processed[channel] = ids
	}
	ids[messageID] = true
}

// ListActive returns all non-declined conversations, newest first.
func (s *MemoryStore) ListActive(ctx context.Context) ([]*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Conversation
	for _, conv := range s.conversations {
		if conv.Stage == model.StageDeclined {
			continue
		}
		out = append(out, conv.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
