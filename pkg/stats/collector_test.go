package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pubjobs/scheduler/pkg/datastore"
	"github.com/pubjobs/scheduler/pkg/job"
	"github.com/pubjobs/scheduler/pkg/stats"
)

func TestCollector_Start_SeedsRingFromSnapshotStoreBeforeFirstTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := datastore.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))

	snapshots := stats.NewGormSnapshotStore(store.DB())
	require.NoError(t, snapshots.Migrate(ctx))

	prior := &stats.AllStats{
		Service:        job.ServiceAnalyzer,
		RuntimeVersion: "v1",
		Taken:          time.Now().Add(-time.Minute),
		All:            stats.Bucket{AvailableCount: 100},
	}
	require.NoError(t, snapshots.Save(ctx, prior))

	c := stats.NewCollector(store, snapshots, "v1", []job.Service{job.ServiceAnalyzer}, zerolog.Nop())
	c.Interval = 10 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool {
		return c.Registry.For(job.ServiceAnalyzer).Latest() != nil
	}, time.Second, 5*time.Millisecond, "seed must populate the Ring before Start's tick loop runs")

	seeded := c.Registry.For(job.ServiceAnalyzer).Latest()
	require.Equal(t, 100, seeded.All.AvailableCount)

	require.Eventually(t, func() bool {
		return c.Registry.For(job.ServiceAnalyzer).Previous() != nil
	}, time.Second, 5*time.Millisecond, "the first tick's snapshot must land after the seeded one")

	eta := stats.ETA(c.Registry.For(job.ServiceAnalyzer).Previous(), c.Registry.For(job.ServiceAnalyzer).Latest())
	require.NotEqual(t, "no prior snapshot", eta)

	cancel()
	<-done
}
