package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aria-ai/recruiter-agent/internal/drafter"
	"github.com/aria-ai/recruiter-agent/internal/model"
	"github.com/aria-ai/recruiter-agent/internal/store"
	"github.com/aria-ai/recruiter-agent/internal/transport"
	"github.com/aria-ai/recruiter-agent/pkg/logger"
)

type fakeTransport struct {
	channel  model.Channel
	items    []transport.InboundItem
	fetchErr error
	sendErr  error

	sent     []transport.Outbound
	consumed map[string]int
}

func newFakeTransport(channel model.Channel, items ...transport.InboundItem) *fakeTransport {
	return &fakeTransport{
		channel:  channel,
		items:    items,
		consumed: make(map[string]int),
	}
}

func (f *fakeTransport) Channel() model.Channel { return f.channel }

func (f *fakeTransport) FetchCandidates(ctx context.Context, limit int) ([]transport.InboundItem, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if len(f.items) > limit {
		return f.items[:limit], nil
	}
	return f.items, nil
}

func (f *fakeTransport) Send(ctx context.Context, out transport.Outbound) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, out)
	return nil
}

func (f *fakeTransport) MarkConsumed(ctx context.Context, messageID string) error {
	f.consumed[messageID]++
	return nil
}

type fakeDrafter struct {
	draft *model.Draft
	err   error
	calls int
}

func (f *fakeDrafter) Name() string { return "fake" }

func (f *fakeDrafter) Draft(ctx context.Context, req *drafter.Request) (*model.Draft, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	d := *f.draft
	return &d, nil
}

type fakeSink struct {
	events []*model.EscalationEvent
}

func (f *fakeSink) PublishEscalation(ctx context.Context, event *model.EscalationEvent) error {
	f.events = append(f.events, event)
	return nil
}

// brokenCommitStore fails every Commit to exercise the retry path.
type brokenCommitStore struct {
	store.Store
}

func (s *brokenCommitStore) Commit(ctx context.Context, conv *model.Conversation, mark *store.ProcessedMark) error {
	return errors.New("connection reset")
}

func inboundEmail(messageID, threadID, body string) transport.InboundItem {
	return transport.InboundItem{
		MessageID:  messageID,
		ThreadID:   threadID,
		Channel:    model.ChannelEmail,
		Sender:     "sam@acme-recruiting.example",
		SenderName: "Sam Recruiter",
		Subject:    "Senior Engineer opportunity",
		Body:       body,
		ReceivedAt: time.Now().UTC(),
	}
}

func newTestOrchestrator(tr transport.Transport, st store.Store, dr drafter.Drafter, sink EscalationSink) *Orchestrator {
	return NewOrchestrator(
		[]transport.Transport{tr},
		st,
		dr,
		EscalationPolicy{SalaryFloor: 100000, Keywords: []string{"equity"}},
		RelevanceFilter{Keywords: DefaultRecruiterKeywords},
		sink,
		Options{DeclineKeywords: []string{"not interested"}},
		logger.NewNop(),
	)
}

func TestProcessNewMessagesSendsReplyAndRecordsState(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	tr := newFakeTransport(model.ChannelEmail,
		inboundEmail("m1", "T1", "We have a remote role at Acme paying $140k."))
	dr := &fakeDrafter{draft: &model.Draft{
		Response:       "Thanks, could you share more about the team?",
		Extracted:      model.Facts{Company: "Acme", WorkArrangement: "remote", SalaryRange: "$140k"},
		SuggestedStage: model.StageInformationGathering,
		Confidence:     0.9,
	}}

	o := newTestOrchestrator(tr, st, dr, nil)
	sum, err := o.ProcessNewMessages(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Advanced)
	assert.Equal(t, 1, sum.Sent)
	assert.Zero(t, sum.Held)
	assert.Zero(t, sum.Escalated)

	require.Len(t, tr.sent, 1)
	assert.Equal(t, "Re: Senior Engineer opportunity", tr.sent[0].Subject)
	assert.Equal(t, 1, tr.consumed["m1"])

	conv, err := st.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, model.StageInformationGathering, conv.Stage)
	assert.Equal(t, "Acme", conv.Facts.Company)
	assert.Equal(t, "remote", conv.Facts.WorkArrangement)
	require.Len(t, conv.History, 2)
	assert.Equal(t, model.DirectionIncoming, conv.History[0].Direction)
	assert.Equal(t, model.DirectionOutgoing, conv.History[1].Direction)
	assert.Equal(t, model.DeliverySent, conv.History[1].Delivery)
}

func TestProcessNewMessagesIsIdempotentAcrossCycles(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	item := inboundEmail("m1", "T1", "Hiring for a backend position at Acme.")
	tr := newFakeTransport(model.ChannelEmail, item)
	dr := &fakeDrafter{draft: &model.Draft{
		Response:       "Tell me more.",
		SuggestedStage: model.StageInformationGathering,
	}}

	o := newTestOrchestrator(tr, st, dr, nil)

	_, err := o.ProcessNewMessages(ctx)
	require.NoError(t, err)

	// The transport re-delivers the same item next cycle.
	sum, err := o.ProcessNewMessages(ctx)
	require.NoError(t, err)

	assert.Zero(t, sum.Advanced)
	assert.Zero(t, sum.Sent)
	assert.Equal(t, 1, dr.calls)
	assert.Len(t, tr.sent, 1)

	conv, err := st.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Len(t, conv.History, 2)
}

func TestProcessNewMessagesEscalationHoldsReply(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	tr := newFakeTransport(model.ChannelEmail,
		inboundEmail("m1", "T1", "The position pays $90k."))
	dr := &fakeDrafter{draft: &model.Draft{
		Response:       "That is below my range.",
		Extracted:      model.Facts{SalaryRange: "$90k"},
		SuggestedStage: model.StageInformationGathering,
	}}
	sink := &fakeSink{}

	o := newTestOrchestrator(tr, st, dr, sink)
	sum, err := o.ProcessNewMessages(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Escalated)
	assert.Equal(t, 1, sum.Held)
	assert.Zero(t, sum.Sent)
	assert.Empty(t, tr.sent)
	assert.Equal(t, 1, tr.consumed["m1"])

	conv, err := st.Get(ctx, "T1")
	require.NoError(t, err)
	assert.True(t, conv.RequiresEscalation)
	assert.Contains(t, conv.EscalationReason, "below floor")
	require.Len(t, conv.History, 2)
	assert.Equal(t, model.DeliveryHeld, conv.History[1].Delivery)

	require.Len(t, sink.events, 1)
	assert.Equal(t, "T1", sink.events[0].ThreadID)
	assert.Equal(t, conv.EscalationReason, sink.events[0].Reason)
}

func TestProcessNewMessagesFirstNegotiationEscalates(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	tr := newFakeTransport(model.ChannelEmail,
		inboundEmail("m1", "T1", "Great interview feedback, let's talk numbers."))
	dr := &fakeDrafter{draft: &model.Draft{
		Response:       "Happy to discuss.",
		SuggestedStage: model.StageNegotiation,
	}}

	o := newTestOrchestrator(tr, st, dr, nil)
	sum, err := o.ProcessNewMessages(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Escalated)

	conv, err := st.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, model.StageNegotiation, conv.Stage)
	assert.True(t, conv.RequiresEscalation)
}

func TestProcessNewMessagesDeclineSuppressesEscalation(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	tr := newFakeTransport(model.ChannelEmail,
		inboundEmail("m1", "T1", "Thanks for the interview invite but I'm not interested; the equity story worries me."))
	dr := &fakeDrafter{draft: &model.Draft{
		Response:       "Understood, thanks for your time.",
		SuggestedStage: model.StageScreening,
	}}

	o := newTestOrchestrator(tr, st, dr, nil)
	sum, err := o.ProcessNewMessages(ctx)
	require.NoError(t, err)

	assert.Zero(t, sum.Escalated)
	assert.Equal(t, 1, sum.Sent)

	conv, err := st.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, model.StageDeclined, conv.Stage)
	assert.False(t, conv.RequiresEscalation)
}

func TestProcessNewMessagesDeclinedThreadGetsNoReply(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	seed, err := st.GetOrCreate(ctx, "T1", model.ChannelEmail)
	require.NoError(t, err)
	seed.Stage = model.StageDeclined
	require.NoError(t, st.Commit(ctx, seed, nil))

	tr := newFakeTransport(model.ChannelEmail,
		inboundEmail("m2", "T1", "Checking in again about the position!"))
	dr := &fakeDrafter{draft: &model.Draft{Response: "should never be used"}}

	o := newTestOrchestrator(tr, st, dr, nil)
	sum, err := o.ProcessNewMessages(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Advanced)
	assert.Zero(t, sum.Sent)
	assert.Zero(t, dr.calls)
	assert.Empty(t, tr.sent)

	conv, err := st.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, model.StageDeclined, conv.Stage)
	require.Len(t, conv.History, 1)
	assert.Equal(t, model.DirectionIncoming, conv.History[0].Direction)
}

func TestProcessNewMessagesFiltersIrrelevantMail(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	item := transport.InboundItem{
		MessageID:  "m1",
		ThreadID:   "T9",
		Channel:    model.ChannelEmail,
		Sender:     "noreply@shop.example",
		Subject:    "Your order has shipped",
		Body:       "Track your package below.",
		ReceivedAt: time.Now().UTC(),
	}
	tr := newFakeTransport(model.ChannelEmail, item)
	dr := &fakeDrafter{draft: &model.Draft{Response: "x"}}

	o := newTestOrchestrator(tr, st, dr, nil)
	sum, err := o.ProcessNewMessages(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Filtered)
	assert.Zero(t, dr.calls)
	assert.Equal(t, 1, tr.consumed["m1"])

	// No conversation is created for filtered mail, but the item is never
	// retried.
	_, err = st.Get(ctx, "T9")
	assert.ErrorIs(t, err, store.ErrNotFound)

	processed, err := st.HasProcessed(ctx, model.ChannelEmail, "m1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestProcessNewMessagesDraftingFailureKeepsInbound(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	tr := newFakeTransport(model.ChannelEmail,
		inboundEmail("m1", "T2", "Hiring for a role at Initech."))
	dr := &fakeDrafter{err: errors.New("model overloaded")}

	o := newTestOrchestrator(tr, st, dr, nil)
	sum, err := o.ProcessNewMessages(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Failed)
	assert.Zero(t, sum.Sent)
	assert.Equal(t, 1, tr.consumed["m1"])

	conv, err := st.Get(ctx, "T2")
	require.NoError(t, err)
	assert.Equal(t, model.StageInitialContact, conv.Stage)
	require.Len(t, conv.History, 1)
	assert.Equal(t, model.DirectionIncoming, conv.History[0].Direction)

	// The message is marked processed, so the next cycle skips it instead
	// of re-drafting.
	processed, err := st.HasProcessed(ctx, model.ChannelEmail, "m1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestProcessNewMessagesSendFailureHoldsReply(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	tr := newFakeTransport(model.ChannelEmail,
		inboundEmail("m1", "T1", "Interested in a staff engineer position?"))
	tr.sendErr = errors.New("gateway timeout")
	dr := &fakeDrafter{draft: &model.Draft{
		Response:       "Yes, tell me more.",
		SuggestedStage: model.StageInformationGathering,
	}}

	o := newTestOrchestrator(tr, st, dr, nil)
	sum, err := o.ProcessNewMessages(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Held)
	assert.Zero(t, sum.Sent)
	assert.Zero(t, sum.Escalated)

	conv, err := st.Get(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, conv.History, 2)
	assert.Equal(t, model.DeliveryHeld, conv.History[1].Delivery)
	assert.False(t, conv.RequiresEscalation)
}

func TestProcessNewMessagesCommitFailureRetriesNextCycle(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	broken := &brokenCommitStore{Store: mem}
	item := inboundEmail("m1", "T1", "Hiring for a role at Acme.")
	dr := &fakeDrafter{draft: &model.Draft{
		Response:       "Tell me more.",
		SuggestedStage: model.StageInformationGathering,
	}}

	tr := newFakeTransport(model.ChannelEmail, item)
	o := newTestOrchestrator(tr, broken, dr, nil)
	sum, err := o.ProcessNewMessages(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Failed)
	assert.Zero(t, tr.consumed["m1"])

	// Nothing durable happened; a healthy cycle picks the item up cleanly.
	processed, err := mem.HasProcessed(ctx, model.ChannelEmail, "m1")
	require.NoError(t, err)
	assert.False(t, processed)

	tr2 := newFakeTransport(model.ChannelEmail, item)
	o2 := newTestOrchestrator(tr2, mem, dr, nil)
	sum, err = o2.ProcessNewMessages(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Sent)
	conv, err := mem.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Len(t, conv.History, 2)
}

func TestProcessNewMessagesFetchFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	bad := newFakeTransport(model.ChannelEmail)
	bad.fetchErr = errors.New("401 unauthorized")
	good := newFakeTransport(model.ChannelSMS,
		transport.InboundItem{
			MessageID:  "s1",
			ThreadID:   "sms-5551234567",
			Channel:    model.ChannelSMS,
			Sender:     "5551234567@vtext.com",
			SenderName: "5551234567",
			Body:       "Hi, recruiter here about a job, can we talk?",
			ReceivedAt: time.Now().UTC(),
		})
	dr := &fakeDrafter{draft: &model.Draft{
		Response:       "Sure.",
		SuggestedStage: model.StageInformationGathering,
	}}

	o := NewOrchestrator(
		[]transport.Transport{bad, good},
		st,
		dr,
		EscalationPolicy{},
		RelevanceFilter{Keywords: DefaultRecruiterKeywords},
		nil,
		Options{},
		logger.NewNop(),
	)

	sum, err := o.ProcessNewMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Sent)
	assert.Len(t, good.sent, 1)
}
