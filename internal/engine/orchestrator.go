package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aria-ai/recruiter-agent/internal/drafter"
	"github.com/aria-ai/recruiter-agent/internal/model"
	"github.com/aria-ai/recruiter-agent/internal/store"
	"github.com/aria-ai/recruiter-agent/internal/transport"
	"github.com/aria-ai/recruiter-agent/pkg/logger"
	"github.com/aria-ai/recruiter-agent/pkg/metrics"
)

// EscalationSink receives escalation events for the operator feed. Nil sinks
// are allowed; escalations are always logged regardless.
type EscalationSink interface {
	PublishEscalation(ctx context.Context, event *model.EscalationEvent) error
}

// Options configures an Orchestrator.
type Options struct {
	// BatchSize bounds how many candidates are pulled per transport per
	// cycle.
	BatchSize int
	// HistoryWindow bounds how many prior messages the drafter sees.
	HistoryWindow int
	// DeclineKeywords force the declined stage when matched in an inbound
	// message.
	DeclineKeywords []string
}

// Summary is the per-cycle result reported to the caller.
type Summary struct {
	Advanced  int // conversations that received a new appended message
	Sent      int
	Held      int
	Escalated int
	Filtered  int
	Failed    int
}

// Orchestrator drives one processing cycle: pull candidates, deduplicate,
// resolve conversations, draft replies, apply the stage machine, fact merger
// and escalation policy, then commit and dispatch or hold.
type Orchestrator struct {
	transports []transport.Transport
	store      store.Store
	drafter    drafter.Drafter
	policy     EscalationPolicy
	filter     RelevanceFilter
	sink       EscalationSink
	opts       Options
	logger     *logger.Logger
}

// NewOrchestrator wires the engine together. sink may be nil.
func NewOrchestrator(
	transports []transport.Transport,
	st store.Store,
	dr drafter.Drafter,
	policy EscalationPolicy,
	filter RelevanceFilter,
	sink EscalationSink,
	opts Options,
	log *logger.Logger,
) *Orchestrator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 6
	}
	return &Orchestrator{
		transports: transports,
		store:      st,
		drafter:    dr,
		policy:     policy,
		filter:     filter,
		sink:       sink,
		opts:       opts,
		logger:     log,
	}
}

// ProcessNewMessages runs one poll cycle across all transports and returns
// the cycle summary. Per-item failures are counted, not fatal; only a wholly
// unusable cycle returns an error.
func (o *Orchestrator) ProcessNewMessages(ctx context.Context) (Summary, error) {
	metrics.CyclesTotal.Inc()
	var sum Summary

	for _, tr := range o.transports {
		items, err := tr.FetchCandidates(ctx, o.opts.BatchSize)
		if err != nil {
			// Transport fetch failures are retried next cycle.
			o.logger.Warn("transport fetch failed",
				zap.String("channel", string(tr.Channel())),
				zap.Error(err),
			)
			continue
		}

		for _, item := range items {
			o.processItem(ctx, tr, item, &sum)
		}
	}

	return sum, nil
}

func (o *Orchestrator) processItem(ctx context.Context, tr transport.Transport, item transport.InboundItem, sum *Summary) {
	log := o.logger.WithConversation(string(item.Channel), item.ThreadID)

	processed, err := o.store.HasProcessed(ctx, item.Channel, item.MessageID)
	if err != nil {
		log.Error("processed lookup failed", zap.Error(err))
		sum.Failed++
		metrics.MessagesProcessed.WithLabelValues(string(item.Channel), "failed").Inc()
		return
	}
	if processed {
		// Idempotent re-poll: the transport re-delivered an item we have
		// already ingested.
		o.consume(ctx, tr, item.MessageID, log)
		metrics.MessagesProcessed.WithLabelValues(string(item.Channel), "skipped").Inc()
		return
	}

	if !o.filter.Relevant(item) {
		// Non-recruiter noise: marked processed so it is never retried, but
		// no conversation is touched.
		if err := o.store.MarkProcessed(ctx, item.Channel, item.MessageID); err != nil {
			log.Error("failed to mark filtered item processed", zap.Error(err))
			sum.Failed++
			metrics.MessagesProcessed.WithLabelValues(string(item.Channel), "failed").Inc()
			return
		}
		o.consume(ctx, tr, item.MessageID, log)
		sum.Filtered++
		metrics.MessagesProcessed.WithLabelValues(string(item.Channel), "filtered").Inc()
		return
	}

	conv, err := o.store.GetOrCreate(ctx, item.ThreadID, item.Channel)
	if err != nil {
		log.Error("conversation checkout failed", zap.Error(err))
		sum.Failed++
		metrics.MessagesProcessed.WithLabelValues(string(item.Channel), "failed").Inc()
		return
	}

	inbound := model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Direction: model.DirectionIncoming,
		Content:   item.Body,
		Timestamp: item.ReceivedAt,
		Metadata: map[string]string{
			model.MetaSender:    item.Sender,
			model.MetaSubject:   item.Subject,
			model.MetaMessageID: item.MessageID,
		},
	}
	conv.Append(inbound)

	mark := &store.ProcessedMark{Channel: item.Channel, MessageID: item.MessageID}

	if conv.Stage == model.StageDeclined {
		// Declined threads record the inbound message but never get an
		// automatic reply.
		if err := o.store.Commit(ctx, conv, mark); err != nil {
			log.Error("commit failed", zap.Error(err))
			sum.Failed++
			metrics.MessagesProcessed.WithLabelValues(string(item.Channel), "failed").Inc()
			return
		}
		o.consume(ctx, tr, item.MessageID, log)
		sum.Advanced++
		metrics.MessagesProcessed.WithLabelValues(string(item.Channel), "declined").Inc()
		return
	}

	draft, err := o.drafter.Draft(ctx, &drafter.Request{
		Channel:    conv.Channel,
		Stage:      conv.Stage,
		Facts:      conv.Facts,
		History:    conv.RecentHistory(o.opts.HistoryWindow),
		NewMessage: item.Body,
	})
	if err != nil {
		// Drafting failures keep the inbound append but change nothing
		// else; the item is marked processed so a permanently malformed
		// message cannot loop forever.
		log.Warn("drafting failed", zap.Error(err))
		if cerr := o.store.Commit(ctx, conv, mark); cerr != nil {
			log.Error("commit failed after drafting failure", zap.Error(cerr))
		} else {
			o.consume(ctx, tr, item.MessageID, log)
		}
		sum.Failed++
		metrics.MessagesProcessed.WithLabelValues(string(item.Channel), "failed").Inc()
		return
	}

	merged, conflicts := MergeFacts(conv.Facts, draft.Extracted)
	conv.Facts = merged
	for _, c := range conflicts {
		log.Warn("fact conflict",
			zap.String("field", c.Field),
			zap.String("existing", c.Existing),
			zap.String("proposed", c.Proposed),
		)
		metrics.FactConflictsTotal.WithLabelValues(c.Field).Inc()
	}

	signals := Signals{ExplicitDecline: DetectDecline(item.Body, o.opts.DeclineKeywords)}
	next := NextStage(conv.Stage, draft.SuggestedStage, signals)
	firstNegotiation := next == model.StageNegotiation && conv.Stage != model.StageNegotiation
	declinedNow := next == model.StageDeclined
	conv.Stage = next

	escalate := false
	reason := ""
	if !declinedNow {
		// Decline overrides escalation: a declined thread needs no human
		// sign-off on replies that will never be auto-generated again.
		escalate, reason = o.policy.ShouldEscalate(EscalationInput{
			Draft:            *draft,
			Conflicts:        conflicts,
			Facts:            conv.Facts,
			FirstNegotiation: firstNegotiation,
			MessageBody:      item.Body,
		})
	}
	conv.SetEscalation(escalate, reason)

	outgoing := model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Direction: model.DirectionOutgoing,
		Content:   draft.Response,
		Timestamp: time.Now().UTC(),
	}

	if escalate {
		outgoing.Delivery = model.DeliveryHeld
	} else {
		out := transport.Outbound{
			ThreadID: conv.ThreadID,
			ReplyTo:  item.Sender,
			Subject:  replySubject(item.Subject),
			Body:     draft.Response,
		}
		if err := tr.Send(ctx, out); err != nil {
			// Send failure after a good draft: keep the reply visibly held
			// so an operator can retry it, never drop it silently.
			log.Warn("transport send failed, holding reply", zap.Error(err))
			outgoing.Delivery = model.DeliveryHeld
		} else {
			outgoing.Delivery = model.DeliverySent
		}
	}
	conv.Append(outgoing)

	if err := o.store.Commit(ctx, conv, mark); err != nil {
		// Storage failures discard the whole item effect; the message stays
		// unprocessed and is retried next cycle.
		log.Error("commit failed", zap.Error(err))
		sum.Failed++
		metrics.MessagesProcessed.WithLabelValues(string(item.Channel), "failed").Inc()
		return
	}
	o.consume(ctx, tr, item.MessageID, log)

	sum.Advanced++
	switch {
	case escalate:
		sum.Escalated++
		sum.Held++
		metrics.MessagesProcessed.WithLabelValues(string(item.Channel), "escalated").Inc()
		metrics.EscalationsTotal.WithLabelValues(string(item.Channel)).Inc()
		o.reportEscalation(ctx, conv, draft.Response, log)
	case outgoing.Delivery == model.DeliveryHeld:
		sum.Held++
		metrics.MessagesProcessed.WithLabelValues(string(item.Channel), "held").Inc()
	default:
		sum.Sent++
		metrics.MessagesProcessed.WithLabelValues(string(item.Channel), "sent").Inc()
	}
}

// consume flags the transport-side message after a successful commit.
// A failure here is harmless: the processed marker makes the next delivery a
// no-op.
func (o *Orchestrator) consume(ctx context.Context, tr transport.Transport, messageID string, log *logger.Logger) {
	if err := tr.MarkConsumed(ctx, messageID); err != nil {
		log.Warn("failed to mark message consumed", zap.Error(err))
	}
}

func (o *Orchestrator) reportEscalation(ctx context.Context, conv *model.Conversation, draftText string, log *logger.Logger) {
	log.Escalations().Warn("conversation held for review",
		zap.String("reason", conv.EscalationReason),
		zap.String("company", conv.Facts.Company),
		zap.String("position", conv.Facts.Position),
	)

	if o.sink == nil {
		return
	}
	event := &model.EscalationEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ThreadID:  conv.ThreadID,
		Channel:   conv.Channel,
		Stage:     conv.Stage,
		Reason:    conv.EscalationReason,
		Company:   conv.Facts.Company,
		Position:  conv.Facts.Position,
		DraftText: draftText,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.sink.PublishEscalation(ctx, event); err != nil {
		log.Warn("failed to publish escalation event", zap.Error(err))
	}
}

func replySubject(subject string) string {
	if subject == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}
