package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// ErrDuplicateJob is returned when an active job already holds the message slot.
var ErrDuplicateJob = errors.New("active dispatch job already exists for message")

// ErrStoreUnavailable marks a durable store round-trip failure. Schedule
// converts it into the nil-job degradation instead of surfacing it.
var ErrStoreUnavailable = errors.New("dispatch store unavailable")

// Store is the durable backing store shared by scheduler instances and
// worker processes.
type Store interface {
	// Insert persists a new scheduled job; ErrDuplicateJob when the
	// message already has an active job.
	Insert(ctx context.Context, job *Job) error

	// ClaimDue atomically claims one due job, flipping it to dispatching.
	// Returns nil when nothing is due.
	ClaimDue(ctx context.Context, now time.Time) (*Job, error)

	// Cancel removes a still-scheduled job. False means the job was
	// unknown or already claimed; that is not an error.
	Cancel(ctx context.Context, messageID string, reason string) (bool, error)

	// MarkDispatched finalizes a claimed job after a successful send.
	MarkDispatched(ctx context.Context, jobID string) error

	// MarkFailed finalizes a claimed job after a send failure.
	MarkFailed(ctx context.Context, jobID string, reason string) error

	// Release returns a claimed job to the scheduled state.
	Release(ctx context.Context, jobID string) error

	// Reschedule returns a claimed job to the scheduled state with a new
	// due time. Used to hold jobs over a night window.
	Reschedule(ctx context.Context, jobID string, at time.Time) error

	ListPending(ctx context.Context) ([]*Job, error)
	Stats(ctx context.Context) (*Metrics, error)

	// ReclaimStuck releases jobs claimed longer ago than the lease,
	// covering workers that died mid-dispatch. Returns the count released.
	ReclaimStuck(ctx context.Context, olderThan time.Time) (int64, error)
}

// ScheduleRequest describes the job to hold.
type ScheduleRequest struct {
	MessageID      string
	ConversationID string
	SuggestionID   string
	TenantID       string
	Channel        string
	RecipientID    string
	PayloadText    string
	TypingHint     bool
	DelayMs        int
}

// Scheduler is the delayed-send surface used by the suggestion lifecycle.
type Scheduler interface {
	// Schedule holds a dispatch job for its delay. A nil job with a nil
	// error means the scheduler is unavailable and the caller must
	// deliver immediately instead.
	Schedule(ctx context.Context, req ScheduleRequest) (*Job, error)

	// Cancel removes a not-yet-claimed job. Best effort: a job claimed
	// concurrently is a lost race and still goes out.
	Cancel(ctx context.Context, messageID string, reason string) bool

	ListPending(ctx context.Context) ([]*Job, error)
	Metrics(ctx context.Context) (*Metrics, error)
}

// StoreScheduler implements Scheduler over a durable Store.
type StoreScheduler struct {
	store Store
	clock func() time.Time
	log   zerolog.Logger
}

// NewScheduler constructs the scheduler. A nil store is allowed and behaves
// as permanently unavailable.
func NewScheduler(store Store, log zerolog.Logger) *StoreScheduler {
	return &StoreScheduler{
		store: store,
		clock: time.Now,
		log:   log.With().Str("component", "scheduler").Logger(),
	}
}

// Schedule persists a job due DelayMs from now. Duplicate message slots are
// rejected; store outages degrade to the nil-job contract.
func (s *StoreScheduler) Schedule(ctx context.Context, req ScheduleRequest) (*Job, error) {
	if s.store == nil {
		s.log.Warn().Str("message_id", req.MessageID).Msg("dispatch store unconfigured, falling back to immediate delivery")
		return nil, nil
	}

	now := s.clock().UTC()
	job := &Job{
		MessageID:      req.MessageID,
		ConversationID: req.ConversationID,
		SuggestionID:   req.SuggestionID,
		TenantID:       req.TenantID,
		Channel:        req.Channel,
		RecipientID:    req.RecipientID,
		PayloadText:    req.PayloadText,
		TypingHint:     req.TypingHint,
		DelayMs:        req.DelayMs,
		ScheduledAt:    now.Add(time.Duration(req.DelayMs) * time.Millisecond),
		Status:         StatusScheduled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.Insert(ctx, job); err != nil {
		if errors.Is(err, ErrDuplicateJob) {
			return nil, err
		}
		s.log.Warn().Err(err).Str("message_id", req.MessageID).Msg("dispatch store unreachable, falling back to immediate delivery")
		return nil, nil
	}

	s.log.Info().
		Str("message_id", req.MessageID).
		Str("job_id", job.ID).
		Int("delay_ms", req.DelayMs).
		Time("scheduled_at", job.ScheduledAt).
		Msg("dispatch job scheduled")

	return job, nil
}

// Cancel removes a pending job before a worker claims it.
func (s *StoreScheduler) Cancel(ctx context.Context, messageID string, reason string) bool {
	if s.store == nil {
		return false
	}

	cancelled, err := s.store.Cancel(ctx, messageID, reason)
	if err != nil {
		s.log.Error().Err(err).Str("message_id", messageID).Msg("cancel dispatch job")
		return false
	}
	if cancelled {
		s.log.Info().Str("message_id", messageID).Str("reason", reason).Msg("dispatch job cancelled")
	}
	return cancelled
}

// ListPending returns jobs still waiting for their due time.
func (s *StoreScheduler) ListPending(ctx context.Context) ([]*Job, error) {
	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	return s.store.ListPending(ctx)
}

// Metrics returns scheduler counters.
func (s *StoreScheduler) Metrics(ctx context.Context) (*Metrics, error) {
	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	return s.store.Stats(ctx)
}
