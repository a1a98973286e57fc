package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"replygate/internal/domain/channel"
	"replygate/internal/domain/delay"
	"replygate/internal/domain/dispatch"
	"replygate/internal/domain/suggestion"
	"replygate/internal/infrastructure/events"
	"replygate/internal/infrastructure/metrics"
	"replygate/internal/infrastructure/notify"
)

// Worker polls the job store and releases due dispatch jobs.
type Worker struct {
	id           int
	store        dispatch.Store
	messages     dispatch.MessageStore
	channels     channel.Registry
	policies     suggestion.PolicyProvider
	producer     *events.Producer
	notifier     *notify.SlackNotifier
	pollInterval time.Duration
	sendTimeout  time.Duration
	log          zerolog.Logger
	stopChan     chan struct{}
}

// NewWorker creates a new dispatch worker.
func NewWorker(
	id int,
	store dispatch.Store,
	messages dispatch.MessageStore,
	channels channel.Registry,
	policies suggestion.PolicyProvider,
	producer *events.Producer,
	notifier *notify.SlackNotifier,
	pollInterval time.Duration,
	sendTimeout time.Duration,
	log zerolog.Logger,
) *Worker {
	return &Worker{
		id:           id,
		store:        store,
		messages:     messages,
		channels:     channels,
		policies:     policies,
		producer:     producer,
		notifier:     notifier,
		pollInterval: pollInterval,
		sendTimeout:  sendTimeout,
		log:          log.With().Int("worker_id", id).Str("component", "dispatch-worker").Logger(),
		stopChan:     make(chan struct{}),
	}
}

// Start begins claiming due jobs.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info().Msg("worker started")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker stopped by context")
			return
		case <-w.stopChan:
			w.log.Info().Msg("worker stopped")
			return
		case <-ticker.C:
			w.processNextJob(ctx)
		}
	}
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	close(w.stopChan)
}

func (w *Worker) processNextJob(ctx context.Context) {
	now := time.Now().UTC()

	job, err := w.store.ClaimDue(ctx, now)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to claim due job")
		return
	}
	if job == nil {
		return
	}

	w.log.Info().
		Str("job_id", job.ID).
		Str("message_id", job.MessageID).
		Str("tenant_id", job.TenantID).
		Int("delay_ms", job.DelayMs).
		Msg("dispatching job")

	// Night mode may have flipped to disable while the job waited. Push
	// the job past the night window instead of sending into it.
	if held := w.holdForNight(ctx, job, now); held {
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()

	w.dispatch(sendCtx, job)
}

func (w *Worker) holdForNight(ctx context.Context, job *dispatch.Job, now time.Time) bool {
	policy, err := w.policies.DelayPolicy(ctx, job.TenantID)
	if err != nil {
		w.log.Warn().Err(err).Str("job_id", job.ID).Msg("delay policy unavailable, dispatching without night check")
		return false
	}
	if !policy.Enabled || policy.NightMode != delay.NightDisable {
		return false
	}

	hours, err := w.policies.WorkingHours(ctx, job.TenantID)
	if err != nil {
		w.log.Warn().Err(err).Str("job_id", job.ID).Msg("working hours unavailable, dispatching without night check")
		return false
	}
	if !delay.InNightWindow(now, hours) {
		return false
	}

	at := delay.NextWindowStart(now, hours)
	if err := w.store.Reschedule(ctx, job.ID, at); err != nil {
		w.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to hold job for night window")
		return false
	}

	w.log.Info().Str("job_id", job.ID).Time("rescheduled_at", at).Msg("job held for night window")
	return true
}

func (w *Worker) dispatch(ctx context.Context, job *dispatch.Job) {
	msg, err := w.messages.Get(ctx, job.MessageID)
	if err != nil {
		w.fail(ctx, job, "outbound message lookup failed: "+err.Error())
		return
	}
	if msg == nil || msg.Status != dispatch.MessagePending {
		// Already finalized elsewhere, e.g. a redelivered job whose send
		// landed before the crash. Never send twice.
		w.log.Warn().Str("job_id", job.ID).Str("message_id", job.MessageID).Msg("message no longer pending, skipping send")
		if err := w.store.MarkDispatched(ctx, job.ID); err != nil {
			w.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to finalize skipped job")
		}
		return
	}

	adapter, err := w.channels.Adapter(ctx, job.TenantID, job.Channel)
	if err != nil {
		w.fail(ctx, job, "channel unavailable")
		return
	}

	if job.TypingHint {
		if err := adapter.Typing(ctx, job.RecipientID); err != nil {
			w.log.Debug().Err(err).Str("job_id", job.ID).Msg("typing indicator failed")
		}
	}

	start := time.Now()
	result, err := adapter.Send(ctx, job.RecipientID, job.PayloadText)
	metrics.SendDuration.WithLabelValues(job.Channel, sendStatus(result, err)).Observe(time.Since(start).Seconds())
	if err != nil {
		w.fail(ctx, job, err.Error())
		return
	}
	if !result.Success {
		w.fail(ctx, job, result.Error)
		return
	}

	if ok, err := w.messages.MarkSent(ctx, job.MessageID, result.ExternalMessageID); err != nil {
		w.log.Error().Err(err).Str("message_id", job.MessageID).Msg("failed to mark message sent")
	} else if !ok {
		w.log.Warn().Str("message_id", job.MessageID).Msg("message finalized concurrently after send")
	}

	if err := w.store.MarkDispatched(ctx, job.ID); err != nil {
		w.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to mark job dispatched")
		return
	}

	job.Status = dispatch.StatusDispatched
	metrics.DispatchJobsTotal.WithLabelValues(dispatch.StatusDispatched.String()).Inc()
	w.producer.RecordDispatch(ctx, job)

	w.log.Info().
		Str("job_id", job.ID).
		Str("message_id", job.MessageID).
		Str("external_message_id", result.ExternalMessageID).
		Msg("job dispatched")
}

func (w *Worker) fail(ctx context.Context, job *dispatch.Job, reason string) {
	w.log.Error().Str("job_id", job.ID).Str("reason", reason).Msg("dispatch failed")

	if ok, err := w.messages.MarkFailed(ctx, job.MessageID, reason); err != nil {
		w.log.Error().Err(err).Str("message_id", job.MessageID).Msg("failed to mark message failed")
	} else if !ok {
		w.log.Warn().Str("message_id", job.MessageID).Msg("message finalized concurrently")
	}

	if err := w.store.MarkFailed(ctx, job.ID, reason); err != nil {
		w.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to mark job failed")
	}

	job.Status = dispatch.StatusFailed
	job.FailureReason = &reason
	metrics.DispatchJobsTotal.WithLabelValues(dispatch.StatusFailed.String()).Inc()
	w.producer.RecordDispatch(ctx, job)
	w.notifier.NotifyDispatchFailure(ctx, job)
}

func sendStatus(result *channel.SendResult, err error) string {
	if err != nil || result == nil || !result.Success {
		return "error"
	}
	return "ok"
}
