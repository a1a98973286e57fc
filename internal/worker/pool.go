// Package worker runs the dispatch pollers that release due jobs.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"replygate/internal/domain/channel"
	"replygate/internal/domain/dispatch"
	"replygate/internal/domain/suggestion"
	"replygate/internal/infrastructure/events"
	"replygate/internal/infrastructure/notify"
)

// Pool manages multiple dispatch workers.
type Pool struct {
	workers  []*Worker
	store    dispatch.Store
	messages dispatch.MessageStore
	channels channel.Registry
	policies suggestion.PolicyProvider
	producer *events.Producer
	notifier *notify.SlackNotifier
	cfg      Config
	log      zerolog.Logger
	wg       sync.WaitGroup
}

// Config contains worker pool configuration.
type Config struct {
	WorkerCount  int
	PollInterval time.Duration
	SendTimeout  time.Duration
}

// NewPool creates a new dispatch worker pool.
func NewPool(
	store dispatch.Store,
	messages dispatch.MessageStore,
	channels channel.Registry,
	policies suggestion.PolicyProvider,
	producer *events.Producer,
	notifier *notify.SlackNotifier,
	cfg Config,
	log zerolog.Logger,
) *Pool {
	return &Pool{
		store:    store,
		messages: messages,
		channels: channels,
		policies: policies,
		producer: producer,
		notifier: notifier,
		cfg:      cfg,
		log:      log.With().Str("component", "worker-pool").Logger(),
	}
}

// Start initializes and starts all workers.
func (p *Pool) Start(ctx context.Context) error {
	p.log.Info().Int("worker_count", p.cfg.WorkerCount).Msg("starting dispatch worker pool")

	p.workers = make([]*Worker, p.cfg.WorkerCount)
	for i := 0; i < p.cfg.WorkerCount; i++ {
		worker := NewWorker(
			i+1,
			p.store,
			p.messages,
			p.channels,
			p.policies,
			p.producer,
			p.notifier,
			p.cfg.PollInterval,
			p.cfg.SendTimeout,
			p.log,
		)
		p.workers[i] = worker

		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Start(ctx)
		}(worker)
	}

	p.log.Info().Msg("dispatch worker pool started")

	return nil
}

// Stop gracefully shuts down all workers.
func (p *Pool) Stop() {
	p.log.Info().Msg("stopping dispatch worker pool")

	for _, worker := range p.workers {
		worker.Stop()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info().Msg("all workers stopped gracefully")
	case <-time.After(30 * time.Second):
		p.log.Warn().Msg("worker pool shutdown timed out")
	}
}
