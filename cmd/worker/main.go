// Command worker runs a pool of poll-lease-process-complete loops against
// the scheduler core for a single service. The actual analysis/dartdoc
// work a deployment performs is out of scope for the core; runWork below
// stands in for it and must be replaced per-service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pubjobs/scheduler/pkg/config"
	"github.com/pubjobs/scheduler/pkg/datastore"
	"github.com/pubjobs/scheduler/pkg/job"
	"github.com/pubjobs/scheduler/pkg/pkgmeta"
	"github.com/pubjobs/scheduler/pkg/popularity"
	"github.com/pubjobs/scheduler/pkg/scheduler"
	"github.com/pubjobs/scheduler/pkg/scorecard"
	"github.com/pubjobs/scheduler/pkg/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config: load failed")
	}
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	store, err := datastore.OpenWithPool(cfg.DatastoreDSN, datastore.PoolConfigForDSN(cfg.DatastoreDSN, datastore.WorkerFleetPoolConfig()))
	if err != nil {
		log.Fatal().Err(err).Msg("datastore: open failed")
	}

	pm := pkgmeta.NewGormStore(store.DB())
	pop := popularity.NewGormOracle(store.DB(), 0, 0)
	sched := scheduler.New(store, pm, pop, cfg.RuntimeVersion, log.Logger)
	sched.Lease = scheduler.LeaseConfig{
		DefaultLock:   cfg.DefaultLock,
		ShortExtend:   cfg.ShortExtend,
		LongExtend:    cfg.LongExtend,
		MaxErrorHours: scheduler.MaxErrorHours,
	}

	var sc scorecard.Updater = scorecard.Noop{}
	if cfg.ScoreCardURL != "" {
		sc = scorecard.NewHTTPUpdater(cfg.ScoreCardURL)
	}

	service := job.ServiceAnalyzer
	if v, ok := os.LookupEnv("SCHEDULER_WORKER_SERVICE"); ok && v != "" {
		service = job.Service(v)
	}

	w := worker.New(sched, service, runWork, sc, worker.DefaultConfig(), log.Logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info().Str("service", string(service)).Msg("worker: started")
	if err := w.Start(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("worker: stopped")
	}
}

// runWork is a placeholder for the service-specific analysis/dartdoc work
// the core never performs itself.
func runWork(ctx context.Context, j *job.Job) job.LastStatus {
	log.Info().Str("package", j.PackageName).Str("version", j.PackageVersion).Msg("worker: processing")
	return job.StatusSuccess
}
