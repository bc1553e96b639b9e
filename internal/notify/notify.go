// Package notify publishes escalation events on the operator-facing NATS
// feed, kept separate from normal status output because escalations require
// a human action.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/aria-ai/recruiter-agent/internal/model"
	"github.com/aria-ai/recruiter-agent/pkg/logger"
)

const (
	// StreamName is the escalation feed stream.
	StreamName = "ESCALATIONS"

	// SubjectPrefix is the prefix for all escalation subjects.
	SubjectPrefix = "escalations"
)

// Config holds NATS connection configuration.
type Config struct {
	URL   string
	Token string
}

// Notifier publishes escalation events to JetStream.
type Notifier struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *logger.Logger
}

// Connect establishes the NATS connection and ensures the stream exists.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Notifier, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	n := &Notifier{conn: nc, js: js, logger: log}
	if err := n.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}
	return n, nil
}

// IsConnected reports whether the NATS connection is up.
func (n *Notifier) IsConnected() bool {
	return n != nil && n.conn != nil && n.conn.IsConnected()
}

func (n *Notifier) ensureStream(ctx context.Context) error {
	_, err := n.js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = n.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Conversations held for human review",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// Subject returns the subject for one escalation event.
func Subject(channel model.Channel, threadID string) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, channel, threadID)
}

// PublishEscalation publishes one escalation event.
func (n *Notifier) PublishEscalation(ctx context.Context, event *model.EscalationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := n.js.Publish(ctx, Subject(event.Channel, event.ThreadID), data); err != nil {
		return fmt.Errorf("failed to publish escalation: %w", err)
	}
	return nil
}

// Close closes the NATS connection.
func (n *Notifier) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
