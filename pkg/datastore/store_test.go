package datastore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pubjobs/scheduler/pkg/job"
)

// openTestStore opens a database for tests. When TEST_DATABASE_URL is set it
// connects to PostgreSQL; otherwise it opens a fresh in-memory SQLite
// instance.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		require.NoError(t, err, "open postgres test db")
		t.Cleanup(func() {
			db.Exec("DELETE FROM jobs")
		})
		return NewWithDB(db)
	}
	s, err := Open(":memory:")
	require.NoError(t, err, "open in-memory sqlite")
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func newTestJob(service job.Service, pkg, version string) *job.Job {
	return &job.Job{
		ID:             job.ID("2024.1.0", service, pkg, version),
		RuntimeVersion: "2024.1.0",
		Service:        service,
		PackageName:    pkg,
		PackageVersion: version,
		State:          job.StateAvailable,
		LastStatus:     job.StatusNone,
		Priority:       job.BasePriority,
	}
}

func TestStore_GetMissingReturnsNilNil(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	got, err := s.Get(ctx, "does-not-exist")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_InsertThenGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	j := newTestJob(job.ServiceAnalyzer, "retry", "1.0.0")
	require.NoError(t, s.RunInTransaction(ctx, func(ctx context.Context, tx job.Tx) error {
		return tx.Upsert(ctx, j)
	}))

	got, err := s.Get(ctx, j.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, j.PackageName, got.PackageName)
	assert.Equal(t, job.StateAvailable, got.State)
}

func TestStore_Find_OrdersByPriorityAscending(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, pkgName := range []string{"a", "b", "c"} {
		j := newTestJob(job.ServiceAnalyzer, pkgName, "1.0.0")
		j.Priority = 300 - i*100
		require.NoError(t, s.RunInTransaction(ctx, func(ctx context.Context, tx job.Tx) error {
			return tx.Upsert(ctx, j)
		}))
	}

	got, err := s.Find(ctx, job.Query{
		Filter:  job.Filter{RuntimeVersion: "2024.1.0", Service: job.ServiceAnalyzer, State: job.StateAvailable},
		OrderBy: job.OrderByPriorityAsc,
		Limit:   100,
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].PackageName)
	assert.Equal(t, "b", got[1].PackageName)
	assert.Equal(t, "a", got[2].PackageName)
}

func TestStore_ScanBatches_CoversEveryMatchingRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		version := "1.0." + string(rune('0'+i))
		j := newTestJob(job.ServiceAnalyzer, "pkg", version)
		require.NoError(t, s.RunInTransaction(ctx, func(ctx context.Context, tx job.Tx) error {
			return tx.Upsert(ctx, j)
		}))
	}

	var seen int
	err := s.ScanBatches(ctx, job.Filter{RuntimeVersion: "2024.1.0", Service: job.ServiceAnalyzer}, 2, func(ctx context.Context, batch []*job.Job) error {
		seen += len(batch)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, seen)
}

func TestStore_DeleteBatch_RemovesUpToLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		j := newTestJob(job.ServiceAnalyzer, "old", string(rune('a'+i)))
		j.RuntimeVersion = "2023.1.0"
		j.ID = job.ID("2023.1.0", job.ServiceAnalyzer, "old", string(rune('a'+i)))
		require.NoError(t, s.RunInTransaction(ctx, func(ctx context.Context, tx job.Tx) error {
			return tx.Upsert(ctx, j)
		}))
	}

	n, err := s.DeleteBatch(ctx, job.Filter{RuntimeVersionBefore: "2024.0.0"}, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	remaining, err := s.Find(ctx, job.Query{Filter: job.Filter{RuntimeVersionBefore: "2024.0.0"}})
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestClassifyTxError_WrapsLockContention(t *testing.T) {
	err := classifyTxError(assertErr{"database is locked"})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestClassifyTxError_PassesThroughBusinessErrors(t *testing.T) {
	sentinel := assertErr{"not a retryable thing"}
	err := classifyTxError(sentinel)
	assert.Equal(t, sentinel, err)
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }
