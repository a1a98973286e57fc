package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replygate/internal/domain/channel"
	"replygate/internal/domain/decision"
	"replygate/internal/domain/delay"
	"replygate/internal/domain/dispatch"
)

type storeFake struct {
	due           *dispatch.Job
	claimErr      error
	dispatchedIDs []string
	failedIDs     []string
	failReasons   []string
	rescheduled   map[string]time.Time
}

func newStoreFake(due *dispatch.Job) *storeFake {
	return &storeFake{due: due, rescheduled: map[string]time.Time{}}
}

func (s *storeFake) Insert(ctx context.Context, job *dispatch.Job) error { return nil }

func (s *storeFake) ClaimDue(ctx context.Context, now time.Time) (*dispatch.Job, error) {
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	job := s.due
	s.due = nil
	return job, nil
}

func (s *storeFake) Cancel(ctx context.Context, messageID string, reason string) (bool, error) {
	return false, nil
}

func (s *storeFake) MarkDispatched(ctx context.Context, jobID string) error {
	s.dispatchedIDs = append(s.dispatchedIDs, jobID)
	return nil
}

func (s *storeFake) MarkFailed(ctx context.Context, jobID string, reason string) error {
	s.failedIDs = append(s.failedIDs, jobID)
	s.failReasons = append(s.failReasons, reason)
	return nil
}

func (s *storeFake) Release(ctx context.Context, jobID string) error { return nil }

func (s *storeFake) Reschedule(ctx context.Context, jobID string, at time.Time) error {
	s.rescheduled[jobID] = at
	return nil
}

func (s *storeFake) ListPending(ctx context.Context) ([]*dispatch.Job, error) { return nil, nil }

func (s *storeFake) Stats(ctx context.Context) (*dispatch.Metrics, error) {
	return &dispatch.Metrics{}, nil
}

func (s *storeFake) ReclaimStuck(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

type messagesFake struct {
	byID   map[string]*dispatch.OutboundMessage
	sent   []string
	failed []string
}

func newMessagesFake(msgs ...*dispatch.OutboundMessage) *messagesFake {
	m := &messagesFake{byID: map[string]*dispatch.OutboundMessage{}}
	for _, msg := range msgs {
		m.byID[msg.ID] = msg
	}
	return m
}

func (m *messagesFake) Create(ctx context.Context, msg *dispatch.OutboundMessage) error {
	m.byID[msg.ID] = msg
	return nil
}

func (m *messagesFake) Get(ctx context.Context, id string) (*dispatch.OutboundMessage, error) {
	return m.byID[id], nil
}

func (m *messagesFake) FindPendingBySuggestion(ctx context.Context, suggestionID string) (*dispatch.OutboundMessage, error) {
	return nil, nil
}

func (m *messagesFake) MarkSent(ctx context.Context, id string, externalMessageID string) (bool, error) {
	msg, ok := m.byID[id]
	if !ok || msg.Status != dispatch.MessagePending {
		return false, nil
	}
	msg.Status = dispatch.MessageSent
	m.sent = append(m.sent, id)
	return true, nil
}

func (m *messagesFake) MarkFailed(ctx context.Context, id string, reason string) (bool, error) {
	msg, ok := m.byID[id]
	if !ok || msg.Status != dispatch.MessagePending {
		return false, nil
	}
	msg.Status = dispatch.MessageFailed
	m.failed = append(m.failed, id)
	return true, nil
}

type adapterFake struct {
	sendErr  error
	rejected bool
	sent     []string
	typed    []string
}

func (a *adapterFake) Send(ctx context.Context, recipientID, text string) (*channel.SendResult, error) {
	if a.sendErr != nil {
		return nil, a.sendErr
	}
	a.sent = append(a.sent, text)
	if a.rejected {
		return &channel.SendResult{Success: false, Error: "bot was blocked"}, nil
	}
	return &channel.SendResult{Success: true, ExternalMessageID: "ext-1"}, nil
}

func (a *adapterFake) Typing(ctx context.Context, recipientID string) error {
	a.typed = append(a.typed, recipientID)
	return nil
}

type registryFake struct {
	adapter *adapterFake
	err     error
}

func (r *registryFake) Adapter(ctx context.Context, tenantID, channelName string) (channel.Adapter, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.adapter, nil
}

func (r *registryFake) State(ctx context.Context, tenantID, channelName string) channel.ConnectionState {
	return channel.ConnectionState{Connected: r.err == nil}
}

type policiesFake struct {
	delay    delay.Policy
	hours    delay.WorkingHours
	delayErr error
}

func (p *policiesFake) DecisionPolicy(ctx context.Context, tenantID string) (decision.Policy, error) {
	return decision.DefaultPolicy(tenantID), nil
}

func (p *policiesFake) DelayPolicy(ctx context.Context, tenantID string) (delay.Policy, error) {
	if p.delayErr != nil {
		return delay.Policy{}, p.delayErr
	}
	return p.delay, nil
}

func (p *policiesFake) WorkingHours(ctx context.Context, tenantID string) (delay.WorkingHours, error) {
	return p.hours, nil
}

func dueJob() *dispatch.Job {
	return &dispatch.Job{
		ID:          "job-1",
		MessageID:   "msg-1",
		TenantID:    "tenant-1",
		Channel:     "telegram",
		RecipientID: "user-9",
		PayloadText: "Your order ships tomorrow.",
		TypingHint:  true,
		Status:      dispatch.StatusDispatching,
	}
}

func pendingMessage() *dispatch.OutboundMessage {
	return &dispatch.OutboundMessage{
		ID:       "msg-1",
		TenantID: "tenant-1",
		Status:   dispatch.MessagePending,
	}
}

// wideOpenHours keeps the current wall clock inside the working window.
func wideOpenHours() delay.WorkingHours {
	return delay.WorkingHours{Start: "00:00", End: "23:59", Timezone: "UTC"}
}

// closedHours puts the current wall clock outside a one-minute window twelve
// hours away.
func closedHours() delay.WorkingHours {
	open := time.Now().UTC().Add(12 * time.Hour)
	closed := open.Add(time.Minute)
	return delay.WorkingHours{
		Start:    open.Format("15:04"),
		End:      closed.Format("15:04"),
		Timezone: "UTC",
	}
}

func newTestWorker(store *storeFake, messages *messagesFake, registry *registryFake, policies *policiesFake) *Worker {
	return NewWorker(1, store, messages, registry, policies, nil, nil,
		10*time.Millisecond, time.Second, zerolog.Nop())
}

func TestProcessNextJob_DispatchesDueJob(t *testing.T) {
	store := newStoreFake(dueJob())
	messages := newMessagesFake(pendingMessage())
	adapter := &adapterFake{}
	policies := &policiesFake{delay: delay.DefaultPolicy("tenant-1"), hours: wideOpenHours()}

	w := newTestWorker(store, messages, &registryFake{adapter: adapter}, policies)
	w.processNextJob(context.Background())

	require.Len(t, adapter.sent, 1)
	assert.Equal(t, "Your order ships tomorrow.", adapter.sent[0])
	assert.Equal(t, []string{"user-9"}, adapter.typed)
	assert.Equal(t, []string{"msg-1"}, messages.sent)
	assert.Equal(t, []string{"job-1"}, store.dispatchedIDs)
	assert.Empty(t, store.failedIDs)
}

func TestProcessNextJob_NothingDue(t *testing.T) {
	store := newStoreFake(nil)
	messages := newMessagesFake()
	adapter := &adapterFake{}
	policies := &policiesFake{delay: delay.DefaultPolicy("tenant-1"), hours: wideOpenHours()}

	w := newTestWorker(store, messages, &registryFake{adapter: adapter}, policies)
	w.processNextJob(context.Background())

	assert.Empty(t, adapter.sent)
	assert.Empty(t, store.dispatchedIDs)
}

func TestProcessNextJob_SkipsFinalizedMessage(t *testing.T) {
	msg := pendingMessage()
	msg.Status = dispatch.MessageSent

	store := newStoreFake(dueJob())
	messages := newMessagesFake(msg)
	adapter := &adapterFake{}
	policies := &policiesFake{delay: delay.DefaultPolicy("tenant-1"), hours: wideOpenHours()}

	w := newTestWorker(store, messages, &registryFake{adapter: adapter}, policies)
	w.processNextJob(context.Background())

	assert.Empty(t, adapter.sent, "a finalized message must never be sent again")
	assert.Equal(t, []string{"job-1"}, store.dispatchedIDs)
}

func TestProcessNextJob_ChannelUnavailable(t *testing.T) {
	store := newStoreFake(dueJob())
	messages := newMessagesFake(pendingMessage())
	policies := &policiesFake{delay: delay.DefaultPolicy("tenant-1"), hours: wideOpenHours()}

	w := newTestWorker(store, messages, &registryFake{err: channel.ErrChannelUnavailable}, policies)
	w.processNextJob(context.Background())

	require.Len(t, store.failedIDs, 1)
	assert.Equal(t, "channel unavailable", store.failReasons[0])
	assert.Equal(t, []string{"msg-1"}, messages.failed)
}

func TestProcessNextJob_ChannelRejection(t *testing.T) {
	store := newStoreFake(dueJob())
	messages := newMessagesFake(pendingMessage())
	adapter := &adapterFake{rejected: true}
	policies := &policiesFake{delay: delay.DefaultPolicy("tenant-1"), hours: wideOpenHours()}

	w := newTestWorker(store, messages, &registryFake{adapter: adapter}, policies)
	w.processNextJob(context.Background())

	require.Len(t, store.failReasons, 1)
	assert.Equal(t, "bot was blocked", store.failReasons[0])
	assert.Empty(t, store.dispatchedIDs)
}

func TestProcessNextJob_TransportError(t *testing.T) {
	store := newStoreFake(dueJob())
	messages := newMessagesFake(pendingMessage())
	adapter := &adapterFake{sendErr: errors.New("gateway timeout")}
	policies := &policiesFake{delay: delay.DefaultPolicy("tenant-1"), hours: wideOpenHours()}

	w := newTestWorker(store, messages, &registryFake{adapter: adapter}, policies)
	w.processNextJob(context.Background())

	require.Len(t, store.failReasons, 1)
	assert.Equal(t, "gateway timeout", store.failReasons[0])
}

func TestProcessNextJob_HoldsForNightDisable(t *testing.T) {
	policy := delay.DefaultPolicy("tenant-1")
	policy.NightMode = delay.NightDisable

	store := newStoreFake(dueJob())
	messages := newMessagesFake(pendingMessage())
	adapter := &adapterFake{}
	policies := &policiesFake{delay: policy, hours: closedHours()}

	w := newTestWorker(store, messages, &registryFake{adapter: adapter}, policies)
	w.processNextJob(context.Background())

	assert.Empty(t, adapter.sent)
	assert.Empty(t, store.failedIDs)
	require.Contains(t, store.rescheduled, "job-1")
	assert.True(t, store.rescheduled["job-1"].After(time.Now()))
}

func TestProcessNextJob_NightDisableDuringDaySends(t *testing.T) {
	policy := delay.DefaultPolicy("tenant-1")
	policy.NightMode = delay.NightDisable

	store := newStoreFake(dueJob())
	messages := newMessagesFake(pendingMessage())
	adapter := &adapterFake{}
	policies := &policiesFake{delay: policy, hours: wideOpenHours()}

	w := newTestWorker(store, messages, &registryFake{adapter: adapter}, policies)
	w.processNextJob(context.Background())

	assert.Len(t, adapter.sent, 1)
	assert.Empty(t, store.rescheduled)
}

func TestProcessNextJob_PolicyOutageDispatchesAnyway(t *testing.T) {
	store := newStoreFake(dueJob())
	messages := newMessagesFake(pendingMessage())
	adapter := &adapterFake{}
	policies := &policiesFake{delayErr: errors.New("policy store down"), hours: closedHours()}

	w := newTestWorker(store, messages, &registryFake{adapter: adapter}, policies)
	w.processNextJob(context.Background())

	assert.Len(t, adapter.sent, 1)
	assert.Empty(t, store.rescheduled)
}
