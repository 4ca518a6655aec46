// Package worker drives a LockAvailable/do-the-work/Complete polling loop
// against a pkg/scheduler.Scheduler: a pool of stateless workers, each
// running a ticker-driven dispatch loop with a bounded goroutine pool and
// graceful drain on context cancellation, calling a fixed per-service
// Handler instead of looking one up from a registry.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pubjobs/scheduler/pkg/job"
	"github.com/pubjobs/scheduler/pkg/scheduler"
	"github.com/pubjobs/scheduler/pkg/scorecard"
)

// Handler performs the external work for a leased job (an analyzer run, a
// dartdoc build, ...) and reports the terminal status Complete should
// record. It must not block past ctx's deadline; the core itself never
// cancels an in-flight job.
type Handler func(ctx context.Context, j *job.Job) job.LastStatus

// Worker polls one service's available queue and dispatches leased jobs to
// a bounded pool of goroutines running Handler.
type Worker struct {
	scheduler  *scheduler.Scheduler
	service    job.Service
	handler    Handler
	scorecard  scorecard.Updater
	config     Config
	log        zerolog.Logger
	id         string
	wg         sync.WaitGroup
}

// Config holds Worker tuning knobs.
type Config struct {
	// Concurrency is the number of goroutines processing leased jobs
	// concurrently.
	Concurrency int
	// PollInterval is the period between LockAvailable attempts in each
	// loop, whether or not the last attempt leased a job.
	PollInterval time.Duration
}

// DefaultConfig returns a modest poll interval and a single concurrent
// job, overridable per deployment.
func DefaultConfig() Config {
	return Config{Concurrency: 1, PollInterval: 100 * time.Millisecond}
}

// New builds a Worker for service, dispatching leased jobs to handler and
// invoking sc.UpdateScoreCard as a best-effort reindex side effect after
// every success. sc may be scorecard.Noop{}.
func New(s *scheduler.Scheduler, service job.Service, handler Handler, sc scorecard.Updater, cfg Config, log zerolog.Logger) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	return &Worker{
		scheduler: s,
		service:   service,
		handler:   handler,
		scorecard: sc,
		config:    cfg,
		log:       log,
		id:        uuid.NewString(),
	}
}

// Start runs cfg.Concurrency poll-and-process loops until ctx is
// cancelled, then waits for any in-flight job to call Complete before
// returning.
func (w *Worker) Start(ctx context.Context) error {
	w.wg.Add(w.config.Concurrency)
	for i := 0; i < w.config.Concurrency; i++ {
		go func() {
			defer w.wg.Done()
			w.loop(ctx)
		}()
	}
	w.wg.Wait()
	return ctx.Err()
}

func (w *Worker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			leased, err := w.scheduler.LockAvailable(ctx, w.service)
			if err != nil {
				w.log.Error().Err(err).Str("worker_id", w.id).Str("service", string(w.service)).Msg("worker: lockAvailable failed")
				continue
			}
			if leased == nil {
				continue
			}
			w.process(ctx, leased)
		}
	}
}

func (w *Worker) process(ctx context.Context, leased *job.Job) {
	log := w.log.With().Str("job_id", leased.ID).Str("package", leased.PackageName).Str("version", leased.PackageVersion).Logger()

	status := w.handler(ctx, leased)

	if err := w.scheduler.Complete(ctx, leased, status); err != nil {
		log.Error().Err(err).Msg("worker: complete failed")
		return
	}

	if status == job.StatusSuccess && w.scorecard != nil {
		if err := w.scorecard.UpdateScoreCard(ctx, leased.PackageName, leased.PackageVersion); err != nil {
			log.Warn().Err(err).Msg("worker: scorecard update failed, best-effort")
		}
	}
}
