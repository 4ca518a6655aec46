package stats

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pubjobs/scheduler/pkg/job"
)

// SnapshotStore persists ring entries so the ETA computation survives a
// process restart without losing its baseline.
type SnapshotStore interface {
	Migrate(ctx context.Context) error
	Save(ctx context.Context, snap *AllStats) error
	Latest(ctx context.Context, service job.Service, runtimeVersion string) (*AllStats, error)
	Prune(ctx context.Context, before time.Time) (int, error)
}

// Collector periodically computes a stats.AllStats snapshot for each
// configured service, keeps it in a Registry of per-service Rings, and
// persists it to a SnapshotStore: seed once from the SnapshotStore, then
// tick, snapshot, prune, repeat until ctx is cancelled.
type Collector struct {
	Store          job.Store
	Snapshots      SnapshotStore
	RuntimeVersion string
	Services       []job.Service
	Interval       time.Duration
	Retention      time.Duration
	Log            zerolog.Logger

	Registry *Registry
}

// NewCollector builds a Collector with a default 1-minute tick interval
// and a 7-day snapshot retention.
func NewCollector(store job.Store, snapshots SnapshotStore, runtimeVersion string, services []job.Service, log zerolog.Logger) *Collector {
	return &Collector{
		Store:          store,
		Snapshots:      snapshots,
		RuntimeVersion: runtimeVersion,
		Services:       services,
		Interval:       time.Minute,
		Retention:      7 * 24 * time.Hour,
		Log:            log,
		Registry:       NewRegistry(),
	}
}

// Start seeds each configured service's Ring from the last snapshot the
// SnapshotStore persisted, then blocks taking a fresh snapshot on each
// tick until ctx is cancelled. Seeding means the first ETA computed after
// a process restart compares against the pre-restart baseline instead of
// reporting "no prior snapshot".
func (c *Collector) Start(ctx context.Context) error {
	c.seed(ctx)

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// seed loads the most recently persisted snapshot for each configured
// service into that service's Ring, so a restarted process doesn't throw
// away the baseline its SnapshotStore already has.
func (c *Collector) seed(ctx context.Context) {
	if c.Snapshots == nil {
		return
	}
	for _, service := range c.Services {
		snap, err := c.Snapshots.Latest(ctx, service, c.RuntimeVersion)
		if err != nil {
			c.Log.Error().Err(err).Str("service", string(service)).Msg("stats: seed failed")
			continue
		}
		if snap != nil {
			c.Registry.For(service).Add(snap)
		}
	}
}

func (c *Collector) tick(ctx context.Context) {
	for _, service := range c.Services {
		snap, err := Compute(ctx, c.Store, c.RuntimeVersion, service)
		if err != nil {
			c.Log.Error().Err(err).Str("service", string(service)).Msg("stats: compute failed")
			continue
		}
		c.Registry.For(service).Add(snap)

		if c.Snapshots != nil {
			if err := c.Snapshots.Save(ctx, snap); err != nil {
				c.Log.Error().Err(err).Str("service", string(service)).Msg("stats: persist failed")
			}
		}

		eta := ETA(c.Registry.For(service).Previous(), snap)
		c.Log.Info().Str("service", string(service)).
			Int("available", snap.All.AvailableCount).
			Int("processing", snap.All.ProcessingCount).
			Int("idle", snap.All.IdleCount).
			Str("eta", eta).
			Msg("stats: snapshot taken")
	}

	if c.Snapshots != nil && c.Retention > 0 {
		if _, err := c.Snapshots.Prune(ctx, time.Now().Add(-c.Retention)); err != nil {
			c.Log.Error().Err(err).Msg("stats: prune failed")
		}
	}
}
