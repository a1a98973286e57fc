// Package jobstore implements the durable dispatch job store on Postgres.
package jobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"replygate/internal/domain/dispatch"
	"replygate/internal/infrastructure/database/entities"
)

// PostgresStore implements dispatch.Store over the dispatch_jobs table.
// Claims use FOR UPDATE SKIP LOCKED so that concurrent workers never grab
// the same job; cancellation is an atomic conditional update.
type PostgresStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewPostgresStore creates a new PostgreSQL-backed job store.
func NewPostgresStore(db *gorm.DB, log zerolog.Logger) *PostgresStore {
	return &PostgresStore{
		db:  db,
		log: log.With().Str("component", "jobstore").Logger(),
	}
}

// Insert persists a new scheduled job. The partial unique index on
// message_id rejects a second active job for the same message.
func (s *PostgresStore) Insert(ctx context.Context, job *dispatch.Job) error {
	entity := jobToEntity(job)
	if entity.PublicID == "" {
		entity.PublicID = uuid.New().String()
	}

	if err := s.db.WithContext(ctx).Create(entity).Error; err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return dispatch.ErrDuplicateJob
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dispatch.ErrDuplicateJob
		}
		return fmt.Errorf("%w: insert job: %v", dispatch.ErrStoreUnavailable, err)
	}

	job.ID = entity.PublicID
	return nil
}

// ClaimDue atomically claims one due scheduled job using
// FOR UPDATE SKIP LOCKED, flipping it to dispatching in the same
// transaction.
func (s *PostgresStore) ClaimDue(ctx context.Context, now time.Time) (*dispatch.Job, error) {
	var entity entities.DispatchJob

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Raw(
			`SELECT * FROM dispatch_jobs
			 WHERE status = ? AND scheduled_at <= ?
			 ORDER BY scheduled_at ASC
			 LIMIT 1
			 FOR UPDATE SKIP LOCKED`,
			dispatch.StatusScheduled.String(), now,
		).Scan(&entity).Error
		if err != nil {
			return err
		}
		if entity.ID == 0 {
			return nil // nothing due
		}

		return tx.Model(&entities.DispatchJob{}).
			Where("id = ?", entity.ID).
			Updates(map[string]interface{}{
				"status":     dispatch.StatusDispatching.String(),
				"claimed_at": now,
				"updated_at": now,
			}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("claim due job: %w", err)
	}

	if entity.ID == 0 {
		return nil, nil
	}

	entity.Status = dispatch.StatusDispatching.String()
	claimed := now
	entity.ClaimedAt = &claimed
	return entityToJob(&entity), nil
}

// Cancel removes a still-scheduled job. Zero rows affected means the job is
// unknown or already claimed; both are the idempotent no-op.
func (s *PostgresStore) Cancel(ctx context.Context, messageID string, reason string) (bool, error) {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).
		Model(&entities.DispatchJob{}).
		Where("message_id = ? AND status = ?", messageID, dispatch.StatusScheduled.String()).
		Updates(map[string]interface{}{
			"status":        dispatch.StatusCancelled.String(),
			"cancel_reason": reason,
			"updated_at":    now,
		})

	if result.Error != nil {
		return false, fmt.Errorf("cancel job: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// MarkDispatched finalizes a claimed job after a successful send.
func (s *PostgresStore) MarkDispatched(ctx context.Context, jobID string) error {
	return s.finalize(ctx, jobID, dispatch.StatusDispatched, nil)
}

// MarkFailed finalizes a claimed job after a send failure.
func (s *PostgresStore) MarkFailed(ctx context.Context, jobID string, reason string) error {
	return s.finalize(ctx, jobID, dispatch.StatusFailed, &reason)
}

func (s *PostgresStore) finalize(ctx context.Context, jobID string, target dispatch.JobStatus, failureReason *string) error {
	updates := map[string]interface{}{
		"status":     target.String(),
		"updated_at": time.Now().UTC(),
	}
	if failureReason != nil {
		updates["failure_reason"] = *failureReason
	}

	result := s.db.WithContext(ctx).
		Model(&entities.DispatchJob{}).
		Where("public_id = ? AND status = ?", jobID, dispatch.StatusDispatching.String()).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("finalize job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job %s not in dispatching state", jobID)
	}
	return nil
}

// Release returns a claimed job to the scheduled state.
func (s *PostgresStore) Release(ctx context.Context, jobID string) error {
	result := s.db.WithContext(ctx).
		Model(&entities.DispatchJob{}).
		Where("public_id = ? AND status = ?", jobID, dispatch.StatusDispatching.String()).
		Updates(map[string]interface{}{
			"status":     dispatch.StatusScheduled.String(),
			"claimed_at": nil,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("release job: %w", result.Error)
	}
	return nil
}

// Reschedule returns a claimed job to the scheduled state with a new due
// time.
func (s *PostgresStore) Reschedule(ctx context.Context, jobID string, at time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&entities.DispatchJob{}).
		Where("public_id = ? AND status = ?", jobID, dispatch.StatusDispatching.String()).
		Updates(map[string]interface{}{
			"status":       dispatch.StatusScheduled.String(),
			"scheduled_at": at,
			"claimed_at":   nil,
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("reschedule job: %w", result.Error)
	}
	return nil
}

// ListPending returns jobs still waiting for their due time.
func (s *PostgresStore) ListPending(ctx context.Context) ([]*dispatch.Job, error) {
	var rows []entities.DispatchJob
	err := s.db.WithContext(ctx).
		Where("status = ?", dispatch.StatusScheduled.String()).
		Order("scheduled_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list pending jobs: %w", err)
	}

	jobs := make([]*dispatch.Job, 0, len(rows))
	for i := range rows {
		jobs = append(jobs, entityToJob(&rows[i]))
	}
	return jobs, nil
}

// Stats aggregates scheduler counters for the metrics surface.
func (s *PostgresStore) Stats(ctx context.Context) (*dispatch.Metrics, error) {
	var out struct {
		Scheduled int64
		Completed int64
		Failed    int64
		Cancelled int64
		AvgDelay  *float64
	}

	err := s.db.WithContext(ctx).Raw(
		`SELECT
			COUNT(*) FILTER (WHERE status IN ('scheduled', 'dispatching')) AS scheduled,
			COUNT(*) FILTER (WHERE status = 'dispatched') AS completed,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed,
			COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled,
			AVG(delay_ms) FILTER (WHERE status = 'dispatched') AS avg_delay
		 FROM dispatch_jobs`,
	).Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}

	metrics := &dispatch.Metrics{
		ScheduledCount: out.Scheduled,
		CompletedCount: out.Completed,
		FailedCount:    out.Failed,
		CancelledCount: out.Cancelled,
	}
	if out.AvgDelay != nil {
		metrics.AvgDelayMs = *out.AvgDelay
	}
	return metrics, nil
}

// ReclaimStuck releases jobs claimed before the lease cutoff back to
// scheduled, covering workers that died mid-dispatch. Redelivery after a
// crash between send and finalize is possible; the message store's
// check-then-set is the second line of defense.
func (s *PostgresStore) ReclaimStuck(ctx context.Context, olderThan time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&entities.DispatchJob{}).
		Where("status = ? AND claimed_at < ?", dispatch.StatusDispatching.String(), olderThan).
		Updates(map[string]interface{}{
			"status":     dispatch.StatusScheduled.String(),
			"claimed_at": nil,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("reclaim stuck jobs: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.log.Warn().Int64("count", result.RowsAffected).Msg("reclaimed stuck dispatch jobs")
	}
	return result.RowsAffected, nil
}

func jobToEntity(job *dispatch.Job) *entities.DispatchJob {
	return &entities.DispatchJob{
		PublicID:       job.ID,
		MessageID:      job.MessageID,
		ConversationID: job.ConversationID,
		SuggestionID:   job.SuggestionID,
		TenantID:       job.TenantID,
		Channel:        job.Channel,
		RecipientID:    job.RecipientID,
		PayloadText:    job.PayloadText,
		TypingHint:     job.TypingHint,
		DelayMs:        job.DelayMs,
		ScheduledAt:    job.ScheduledAt,
		Status:         job.Status.String(),
		ClaimedAt:      job.ClaimedAt,
		CancelReason:   job.CancelReason,
		FailureReason:  job.FailureReason,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
}

func entityToJob(e *entities.DispatchJob) *dispatch.Job {
	return &dispatch.Job{
		ID:             e.PublicID,
		MessageID:      e.MessageID,
		ConversationID: e.ConversationID,
		SuggestionID:   e.SuggestionID,
		TenantID:       e.TenantID,
		Channel:        e.Channel,
		RecipientID:    e.RecipientID,
		PayloadText:    e.PayloadText,
		TypingHint:     e.TypingHint,
		DelayMs:        e.DelayMs,
		ScheduledAt:    e.ScheduledAt,
		Status:         dispatch.JobStatus(e.Status),
		ClaimedAt:      e.ClaimedAt,
		CancelReason:   e.CancelReason,
		FailureReason:  e.FailureReason,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}
