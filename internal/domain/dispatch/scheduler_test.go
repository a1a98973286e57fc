package dispatch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replygate/internal/domain/dispatch"
)

type fakeStore struct {
	insertErr  error
	inserted   *dispatch.Job
	cancelled  bool
	cancelErr  error
	lastCancel string
	pending    []*dispatch.Job
	stats      *dispatch.Metrics
}

func (f *fakeStore) Insert(ctx context.Context, job *dispatch.Job) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = job
	return nil
}

func (f *fakeStore) ClaimDue(ctx context.Context, now time.Time) (*dispatch.Job, error) {
	return nil, nil
}

func (f *fakeStore) Cancel(ctx context.Context, messageID string, reason string) (bool, error) {
	f.lastCancel = reason
	return f.cancelled, f.cancelErr
}

func (f *fakeStore) MarkDispatched(ctx context.Context, jobID string) error { return nil }

func (f *fakeStore) MarkFailed(ctx context.Context, jobID string, reason string) error { return nil }

func (f *fakeStore) Release(ctx context.Context, jobID string) error { return nil }

func (f *fakeStore) Reschedule(ctx context.Context, jobID string, at time.Time) error { return nil }

func (f *fakeStore) ListPending(ctx context.Context) ([]*dispatch.Job, error) {
	return f.pending, nil
}

func (f *fakeStore) Stats(ctx context.Context) (*dispatch.Metrics, error) { return f.stats, nil }

func (f *fakeStore) ReclaimStuck(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

func newRequest() dispatch.ScheduleRequest {
	return dispatch.ScheduleRequest{
		MessageID:      "msg-1",
		ConversationID: "conv-1",
		SuggestionID:   "sug-1",
		TenantID:       "tenant-1",
		Channel:        "telegram",
		RecipientID:    "user-9",
		PayloadText:    "Your order shipped yesterday.",
		TypingHint:     true,
		DelayMs:        4000,
	}
}

func TestSchedule_PersistsJobDueAfterDelay(t *testing.T) {
	store := &fakeStore{}
	scheduler := dispatch.NewScheduler(store, zerolog.Nop())

	before := time.Now().UTC()
	job, err := scheduler.Schedule(context.Background(), newRequest())
	after := time.Now().UTC()

	require.NoError(t, err)
	require.NotNil(t, job)
	require.Same(t, store.inserted, job)

	assert.Equal(t, "msg-1", job.MessageID)
	assert.Equal(t, dispatch.StatusScheduled, job.Status)
	assert.Equal(t, 4000, job.DelayMs)
	assert.True(t, job.TypingHint)
	assert.False(t, job.ScheduledAt.Before(before.Add(4*time.Second)))
	assert.False(t, job.ScheduledAt.After(after.Add(4*time.Second)))
}

func TestSchedule_DuplicateMessageSlot(t *testing.T) {
	store := &fakeStore{insertErr: dispatch.ErrDuplicateJob}
	scheduler := dispatch.NewScheduler(store, zerolog.Nop())

	job, err := scheduler.Schedule(context.Background(), newRequest())

	assert.Nil(t, job)
	assert.ErrorIs(t, err, dispatch.ErrDuplicateJob)
}

func TestSchedule_DegradesWhenStoreUnavailable(t *testing.T) {
	t.Run("nil store", func(t *testing.T) {
		scheduler := dispatch.NewScheduler(nil, zerolog.Nop())

		job, err := scheduler.Schedule(context.Background(), newRequest())

		assert.Nil(t, job)
		assert.NoError(t, err)
	})

	t.Run("store write failure", func(t *testing.T) {
		store := &fakeStore{insertErr: errors.New("connection refused")}
		scheduler := dispatch.NewScheduler(store, zerolog.Nop())

		job, err := scheduler.Schedule(context.Background(), newRequest())

		assert.Nil(t, job)
		assert.NoError(t, err)
	})
}

func TestCancel(t *testing.T) {
	t.Run("pending job cancelled", func(t *testing.T) {
		store := &fakeStore{cancelled: true}
		scheduler := dispatch.NewScheduler(store, zerolog.Nop())

		assert.True(t, scheduler.Cancel(context.Background(), "msg-1", "operator_cancel"))
		assert.Equal(t, "operator_cancel", store.lastCancel)
	})

	t.Run("unknown or already claimed job", func(t *testing.T) {
		store := &fakeStore{cancelled: false}
		scheduler := dispatch.NewScheduler(store, zerolog.Nop())

		assert.False(t, scheduler.Cancel(context.Background(), "msg-unknown", "operator_cancel"))
	})

	t.Run("store error is swallowed", func(t *testing.T) {
		store := &fakeStore{cancelErr: errors.New("timeout")}
		scheduler := dispatch.NewScheduler(store, zerolog.Nop())

		assert.False(t, scheduler.Cancel(context.Background(), "msg-1", "operator_cancel"))
	})

	t.Run("nil store", func(t *testing.T) {
		scheduler := dispatch.NewScheduler(nil, zerolog.Nop())

		assert.False(t, scheduler.Cancel(context.Background(), "msg-1", "operator_cancel"))
	})
}

func TestListPendingAndMetrics_NilStore(t *testing.T) {
	scheduler := dispatch.NewScheduler(nil, zerolog.Nop())

	_, err := scheduler.ListPending(context.Background())
	assert.ErrorIs(t, err, dispatch.ErrStoreUnavailable)

	_, err = scheduler.Metrics(context.Background())
	assert.ErrorIs(t, err, dispatch.ErrStoreUnavailable)
}

func TestListPendingAndMetrics_Passthrough(t *testing.T) {
	store := &fakeStore{
		pending: []*dispatch.Job{{ID: "job-1"}},
		stats:   &dispatch.Metrics{ScheduledCount: 3, CompletedCount: 10},
	}
	scheduler := dispatch.NewScheduler(store, zerolog.Nop())

	jobs, err := scheduler.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	metrics, err := scheduler.Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), metrics.ScheduledCount)
}
