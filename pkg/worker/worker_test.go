package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pubjobs/scheduler/pkg/datastore"
	"github.com/pubjobs/scheduler/pkg/job"
	"github.com/pubjobs/scheduler/pkg/pkgmeta"
	"github.com/pubjobs/scheduler/pkg/popularity"
	"github.com/pubjobs/scheduler/pkg/scheduler"
	"github.com/pubjobs/scheduler/pkg/scorecard"
	"github.com/pubjobs/scheduler/pkg/worker"
)

func TestWorker_ProcessesAvailableJobToSuccess(t *testing.T) {
	ctx := context.Background()
	store, err := datastore.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))

	pm := pkgmeta.NewFake()
	pm.PutPackage(pkgmeta.Package{Name: "p", LatestVersion: "1.0.0"})
	pm.PutVersion(pkgmeta.PackageVersion{PackageName: "p", Version: "1.0.0", Created: time.Now().Add(-time.Hour)})

	sched := scheduler.New(store, pm, popularity.Static{}, "v1", zerolog.Nop())
	require.NoError(t, sched.Trigger(ctx, job.ServiceAnalyzer, "p", "1.0.0", nil, true))

	var scoreCardCalls atomic.Int32
	sc := scorecardCounter{n: &scoreCardCalls}

	var handled atomic.Int32
	handler := func(ctx context.Context, j *job.Job) job.LastStatus {
		handled.Add(1)
		return job.StatusSuccess
	}

	w := worker.New(sched, job.ServiceAnalyzer, handler, sc, worker.Config{Concurrency: 1, PollInterval: 5 * time.Millisecond}, zerolog.Nop())

	runCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_ = w.Start(runCtx)

	require.Equal(t, int32(1), handled.Load())
	require.Equal(t, int32(1), scoreCardCalls.Load())

	id := job.ID("v1", job.ServiceAnalyzer, "p", "1.0.0")
	final, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, job.StateIdle, final.State)
	require.Equal(t, job.StatusSuccess, final.LastStatus)
}

type scorecardCounter struct {
	n *atomic.Int32
}

func (s scorecardCounter) UpdateScoreCard(context.Context, string, string) error {
	s.n.Add(1)
	return nil
}

var _ scorecard.Updater = scorecardCounter{}
