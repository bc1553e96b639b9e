package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aria-ai/recruiter-agent/internal/model"
)

func TestMemoryStoreGetOrCreate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	conv, err := s.GetOrCreate(ctx, "T1", model.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, "T1", conv.ThreadID)
	assert.Equal(t, model.StageInitialContact, conv.Stage)

	again, err := s.GetOrCreate(ctx, "T1", model.ChannelSMS)
	require.NoError(t, err)
	assert.Equal(t, model.ChannelEmail, again.Channel, "existing record wins")
}

func TestMemoryStoreGetNotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreCheckoutIsIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	conv, err := s.GetOrCreate(ctx, "T1", model.ChannelEmail)
	require.NoError(t, err)

	// Mutations on a checked-out copy must not leak until Commit.
	conv.Stage = model.StageScreening
	conv.Append(model.Message{ID: "m1", Direction: model.DirectionIncoming, Content: "hi"})

	stored, err := s.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, model.StageInitialContact, stored.Stage)
	assert.Empty(t, stored.History)

	require.NoError(t, s.Commit(ctx, conv, nil))

	stored, err = s.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, model.StageScreening, stored.Stage)
	assert.Len(t, stored.History, 1)
}

func TestMemoryStoreCommitWithMark(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	conv, err := s.GetOrCreate(ctx, "T1", model.ChannelEmail)
	require.NoError(t, err)

	mark := &ProcessedMark{Channel: model.ChannelEmail, MessageID: "m1"}
	require.NoError(t, s.Commit(ctx, conv, mark))

	processed, err := s.HasProcessed(ctx, model.ChannelEmail, "m1")
	require.NoError(t, err)
	assert.True(t, processed)

	// Marks are channel scoped.
	processed, err = s.HasProcessed(ctx, model.ChannelSMS, "m1")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestMemoryStoreMarkProcessedStandalone(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.MarkProcessed(ctx, model.ChannelEmail, "m1"))

	processed, err := s.HasProcessed(ctx, model.ChannelEmail, "m1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestMemoryStoreListActive(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	older, err := s.GetOrCreate(ctx, "T1", model.ChannelEmail)
	require.NoError(t, err)
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, s.Commit(ctx, older, nil))

	_, err = s.GetOrCreate(ctx, "T2", model.ChannelEmail)
	require.NoError(t, err)

	declined, err := s.GetOrCreate(ctx, "T3", model.ChannelEmail)
	require.NoError(t, err)
	declined.Stage = model.StageDeclined
	require.NoError(t, s.Commit(ctx, declined, nil))

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "T2", active[0].ThreadID, "newest first")
	assert.Equal(t, "T1", active[1].ThreadID)
}
