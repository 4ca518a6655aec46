// Command scheduler runs the job scheduler core's maintenance loops
// (UnlockStaleProcessing, CheckIdle, DeleteOldEntries on pkg/schedule
// schedules; Stats on the stats collector's own ticker). Worker pools and the Trigger entry point are
// embedded in whatever process performs the actual analysis/dartdoc work;
// this binary is the always-on maintenance half.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pubjobs/scheduler/pkg/config"
	"github.com/pubjobs/scheduler/pkg/datastore"
	"github.com/pubjobs/scheduler/pkg/job"
	"github.com/pubjobs/scheduler/pkg/pkgmeta"
	"github.com/pubjobs/scheduler/pkg/popularity"
	"github.com/pubjobs/scheduler/pkg/schedule"
	"github.com/pubjobs/scheduler/pkg/scheduler"
	"github.com/pubjobs/scheduler/pkg/stats"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config: load failed")
	}
	setUpLogging(cfg.LogLevel)

	store, err := datastore.OpenWithPool(cfg.DatastoreDSN, datastore.PoolConfigForDSN(cfg.DatastoreDSN, datastore.SchedulerPoolConfig()))
	if err != nil {
		log.Fatal().Err(err).Msg("datastore: open failed")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := store.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("datastore: migrate failed")
	}

	pm := pkgmeta.NewGormStore(store.DB())
	if err := pm.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("pkgmeta: migrate failed")
	}

	pop := popularity.NewGormOracle(store.DB(), 0, 0)
	if err := pop.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("popularity: migrate failed")
	}

	sched := scheduler.New(store, pm, pop, cfg.RuntimeVersion, log.Logger)
	sched.Lease = scheduler.LeaseConfig{
		DefaultLock:   cfg.DefaultLock,
		ShortExtend:   cfg.ShortExtend,
		LongExtend:    cfg.LongExtend,
		MaxErrorHours: scheduler.MaxErrorHours,
	}

	snapshots := stats.NewGormSnapshotStore(store.DB())
	if err := snapshots.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("stats: migrate failed")
	}
	collector := stats.NewCollector(store, snapshots, cfg.RuntimeVersion, []job.Service{job.ServiceAnalyzer, job.ServiceDartdoc}, log.Logger)
	collector.Interval = cfg.StatsInterval

	var wg sync.WaitGroup

	runOn(ctx, &wg, schedule.Every(cfg.UnlockStaleInterval), func(ctx context.Context) {
		if err := sched.UnlockStaleProcessing(ctx); err != nil {
			log.Error().Err(err).Msg("maintenance: unlockStaleProcessing failed")
		}
	})
	runOn(ctx, &wg, schedule.Every(cfg.CheckIdleInterval), func(ctx context.Context) {
		if err := sched.CheckIdle(ctx, alwaysStale(pm)); err != nil {
			log.Error().Err(err).Msg("maintenance: checkIdle failed")
		}
	})
	if cfg.GCBeforeRuntimeVersion != "" {
		// GC defaults to a once-daily run at 03:00 UTC, off-peak for a
		// fleet whose workers otherwise run continuously; GCInterval
		// overrides the cadence for deployments that want it tighter. The
		// 10-minute jitter keeps every scheduler instance in the fleet from
		// issuing its first DeleteBatch commit in the same second.
		gcSchedule := schedule.Daily(3, 0, schedule.WithJitter(10*time.Minute))
		if cfg.GCInterval != 24*time.Hour {
			gcSchedule = schedule.Every(cfg.GCInterval)
		}
		runOn(ctx, &wg, gcSchedule, func(ctx context.Context) {
			n, err := sched.DeleteOldEntries(ctx, cfg.GCBeforeRuntimeVersion)
			if err != nil {
				log.Error().Err(err).Msg("maintenance: deleteOldEntries failed")
				return
			}
			log.Info().Int("deleted", n).Msg("maintenance: deleteOldEntries done")
		})
	}

	log.Info().Str("runtime_version", cfg.RuntimeVersion).Msg("scheduler: maintenance loops started")
	if err := collector.Start(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("stats: collector stopped")
	}
	wg.Wait()
	log.Info().Msg("scheduler: shutting down")
}

// runOn starts schedule.Run in its own goroutine tracked by wg, so main can
// wait for every maintenance loop to notice ctx cancellation before
// exiting. A panic inside one pass is logged and the loop waits for its
// next firing instead of crashing the process.
func runOn(ctx context.Context, wg *sync.WaitGroup, sched schedule.Schedule, fn func(context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		schedule.Run(ctx, sched, func(ctx context.Context) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Msg("maintenance: pass panicked")
				}
			}()
			fn(ctx)
		})
	}()
}

func setUpLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// alwaysStale is the default IdlePredicate: it reports a job as stale when
// the package version's Created timestamp in pkgmeta is after the job's
// PackageVersionUpdated. A version missing from pkgmeta is reported as not
// stale.
func alwaysStale(pm pkgmeta.Store) scheduler.IdlePredicate {
	return func(ctx context.Context, packageName, packageVersion string, updated time.Time) (bool, error) {
		pv, err := pm.GetPackageVersion(ctx, packageName, packageVersion)
		if err != nil {
			return false, err
		}
		if pv == nil {
			return false, nil
		}
		return pv.Created.After(updated), nil
	}
}
