package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aria-ai/recruiter-agent/internal/model"
)

// PostgresStore is the durable Store. Conversation commit and processed
// marking share one transaction so the at-most-once guarantee survives
// crashes between steps.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	thread_id           TEXT PRIMARY KEY,
	channel             TEXT NOT NULL,
	stage               TEXT NOT NULL,
	company             TEXT NOT NULL DEFAULT '',
	position            TEXT NOT NULL DEFAULT '',
	recruiter_name      TEXT NOT NULL DEFAULT '',
	work_arrangement    TEXT NOT NULL DEFAULT '',
	salary_range        TEXT NOT NULL DEFAULT '',
	requires_escalation BOOLEAN NOT NULL DEFAULT FALSE,
	escalation_reason   TEXT NOT NULL DEFAULT '',
	history             JSONB NOT NULL DEFAULT '[]',
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS processed_messages (
	channel      TEXT NOT NULL,
	message_id   TEXT NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (channel, message_id)
);`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// GetOrCreate inserts a default record when the thread is new; a concurrent
// creator wins the insert race and both callers read the same row.
func (s *PostgresStore) GetOrCreate(ctx context.Context, threadID string, channel model.Channel) (*model.Conversation, error) {
	fresh := model.NewConversation(threadID, channel)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO conversations (thread_id, channel, stage, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (thread_id) DO NOTHING`,
		threadID, string(channel), string(fresh.Stage), fresh.CreatedAt, fresh.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return s.Get(ctx, threadID)
}

// Get loads one conversation.
func (s *PostgresStore) Get(ctx context.Context, threadID string) (*model.Conversation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT thread_id, channel, stage, company, position, recruiter_name,
		       work_arrangement, salary_range, requires_escalation,
		       escalation_reason, history, created_at, updated_at
		FROM conversations WHERE thread_id = $1`, threadID)

	conv, err := scanConversation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return conv, nil
}

// Commit replaces the stored record; when mark is non-nil the processed
// marker joins the same transaction.
func (s *PostgresStore) Commit(ctx context.Context, conv *model.Conversation, mark *ProcessedMark) error {
	history, err := json.Marshal(conv.History)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin commit: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE conversations SET
			stage = $2, company = $3, position = $4, recruiter_name = $5,
			work_arrangement = $6, salary_range = $7,
			requires_escalation = $8, escalation_reason = $9,
			history = $10, updated_at = $11
		WHERE thread_id = $1`,
		conv.ThreadID, string(conv.Stage),
		conv.Facts.Company, conv.Facts.Position, conv.Facts.RecruiterName,
		conv.Facts.WorkArrangement, conv.Facts.SalaryRange,
		conv.RequiresEscalation, conv.EscalationReason,
		history, conv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to commit conversation: %w", err)
	}

	if mark != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO processed_messages (channel, message_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			string(mark.Channel), mark.MessageID,
		)
		if err != nil {
			return fmt.Errorf("failed to mark message processed: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// HasProcessed reports whether the message id was already ingested.
func (s *PostgresStore) HasProcessed(ctx context.Context, channel model.Channel, messageID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM processed_messages WHERE channel = $1 AND message_id = $2
		)`, string(channel), messageID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check processed marker: %w", err)
	}
	return exists, nil
}

// MarkProcessed records the message id without touching any conversation.
func (s *PostgresStore) MarkProcessed(ctx context.Context, channel model.Channel, messageID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO processed_messages (channel, message_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		string(channel), messageID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark message processed: %w", err)
	}
	return nil
}

// ListActive returns all non-declined conversations, newest first.
func (s *PostgresStore) ListActive(ctx context.Context) ([]*model.Conversation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT thread_id, channel, stage, company, position, recruiter_name,
		       work_arrangement, salary_range, requires_escalation,
		       escalation_reason, history, created_at, updated_at
		FROM conversations
		WHERE stage <> $1
		ORDER BY created_at DESC`, string(model.StageDeclined))
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var out []*model.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		out = append(out, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read conversations: %w", err)
	}
	return out, nil
}

func scanConversation(row pgx.Row) (*model.Conversation, error) {
	var conv model.Conversation
	var channel, stage string
	var history []byte

	err := row.Scan(
		&conv.ThreadID, &channel, &stage,
		&conv.Facts.Company, &conv.Facts.Position, &conv.Facts.RecruiterName,
		&conv.Facts.WorkArrangement, &conv.Facts.SalaryRange,
		&conv.RequiresEscalation, &conv.EscalationReason,
		&history, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	conv.Channel = model.Channel(channel)
	conv.Stage = model.Stage(stage)
	if len(history) > 0 {
		if err := json.Unmarshal(history, &conv.History); err != nil {
			return nil, fmt.Errorf("failed to decode history: %w", err)
		}
	}
	return &conv, nil
}
