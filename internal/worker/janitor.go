package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"replygate/internal/domain/dispatch"
	"replygate/internal/infrastructure/metrics"
)

// Janitor periodically reclaims jobs whose worker died mid-dispatch and
// refreshes the pending-jobs gauge.
type Janitor struct {
	store      dispatch.Store
	claimLease time.Duration
	cron       *cron.Cron
	log        zerolog.Logger
}

// NewJanitor creates the janitor.
func NewJanitor(store dispatch.Store, claimLease time.Duration, log zerolog.Logger) *Janitor {
	return &Janitor{
		store:      store,
		claimLease: claimLease,
		cron:       cron.New(),
		log:        log.With().Str("component", "dispatch-janitor").Logger(),
	}
}

// Start schedules the sweep at the given interval.
func (j *Janitor) Start(ctx context.Context, interval time.Duration) error {
	spec := fmt.Sprintf("@every %s", interval)
	if _, err := j.cron.AddFunc(spec, func() { j.sweep(ctx) }); err != nil {
		return fmt.Errorf("schedule janitor: %w", err)
	}
	j.cron.Start()
	j.log.Info().Dur("interval", interval).Msg("dispatch janitor started")
	return nil
}

// Stop halts the sweep and waits for a running one to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
	j.log.Info().Msg("dispatch janitor stopped")
}

func (j *Janitor) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-j.claimLease)
	reclaimed, err := j.store.ReclaimStuck(ctx, cutoff)
	if err != nil {
		j.log.Error().Err(err).Msg("reclaim stuck jobs")
	} else if reclaimed > 0 {
		j.log.Warn().Int64("count", reclaimed).Msg("reclaimed stuck dispatch jobs")
	}

	stats, err := j.store.Stats(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("refresh dispatch stats")
		return
	}
	metrics.PendingJobs.Set(float64(stats.ScheduledCount))
}
