package popularity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestOracle(t *testing.T) *GormOracle {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	o := NewGormOracle(db, 1<<20, 60)
	require.NoError(t, o.Migrate(context.Background()))
	return o
}

func TestGormOracle_MissingPackageIsZero(t *testing.T) {
	o := newTestOracle(t)
	assert.Equal(t, 0.0, o.Popularity(context.Background(), "nope"))
}

func TestGormOracle_SetThenGet(t *testing.T) {
	o := newTestOracle(t)
	ctx := context.Background()

	require.NoError(t, o.SetPopularity(ctx, "retry", 0.73))
	assert.InDelta(t, 0.73, o.Popularity(ctx, "retry"), 1e-9)
}

func TestGormOracle_ClampsOutOfRangeScores(t *testing.T) {
	o := newTestOracle(t)
	ctx := context.Background()

	require.NoError(t, o.SetPopularity(ctx, "over", 5))
	assert.Equal(t, 1.0, o.Popularity(ctx, "over"))

	require.NoError(t, o.SetPopularity(ctx, "under", -5))
	assert.Equal(t, 0.0, o.Popularity(ctx, "under"))
}

func TestGormOracle_SecondReadIsServedFromCache(t *testing.T) {
	o := newTestOracle(t)
	ctx := context.Background()
	require.NoError(t, o.SetPopularity(ctx, "cached", 0.5))

	// Prime the cache.
	assert.InDelta(t, 0.5, o.Popularity(ctx, "cached"), 1e-9)

	// Mutate the row directly, bypassing SetPopularity's cache invalidation,
	// to prove the second read came from the cache rather than the DB.
	require.NoError(t, o.db.Exec("UPDATE popularity_scores SET value = ? WHERE package_name = ?", 0.9, "cached").Error)
	assert.InDelta(t, 0.5, o.Popularity(ctx, "cached"), 1e-9)
}

func TestStatic_Popularity(t *testing.T) {
	s := Static{"retry": 0.4}
	assert.Equal(t, 0.4, s.Popularity(context.Background(), "retry"))
	assert.Equal(t, 0.0, s.Popularity(context.Background(), "missing"))
}
