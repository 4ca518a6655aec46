package popularity

import (
	"context"
	"encoding/binary"
	"errors"
	"math"

	fc "github.com/coocood/freecache"
	"gorm.io/gorm"
)

// Score is the persisted popularity row backing GormOracle.
type Score struct {
	PackageName string  `gorm:"primaryKey;size:255"`
	Value       float64 `gorm:"not null"`
}

func (Score) TableName() string { return "popularity_scores" }

// GormOracle reads popularity scores from the shared datastore connection
// (the same *gorm.DB the job table lives on — popularity is read-heavy and
// small, and doesn't warrant a second storage technology) through an
// in-process freecache layer, since the scheduler calls the oracle inline
// on every createOrUpdate/Trigger and repeated writes for the same package
// should not repeatedly round-trip to the database.
type GormOracle struct {
	db    *gorm.DB
	cache *fc.Cache
	ttl   int // seconds
}

// NewGormOracle builds a GormOracle. cacheBytes sizes the freecache
// instance; ttlSeconds bounds how long a score is trusted before the next
// lookup re-reads the database.
func NewGormOracle(db *gorm.DB, cacheBytes, ttlSeconds int) *GormOracle {
	if cacheBytes <= 0 {
		cacheBytes = 4 * 1024 * 1024
	}
	if ttlSeconds <= 0 {
		ttlSeconds = 300
	}
	return &GormOracle{
		db:    db,
		cache: fc.NewCache(cacheBytes),
		ttl:   ttlSeconds,
	}
}

// Migrate creates the popularity_scores table.
func (o *GormOracle) Migrate(ctx context.Context) error {
	return o.db.WithContext(ctx).AutoMigrate(&Score{})
}

// SetPopularity upserts a package's popularity score and invalidates its
// cache entry.
func (o *GormOracle) SetPopularity(ctx context.Context, packageName string, value float64) error {
	value = clamp01(value)
	if err := o.db.WithContext(ctx).Save(&Score{PackageName: packageName, Value: value}).Error; err != nil {
		return err
	}
	o.cache.Del([]byte(packageName))
	return nil
}

// Popularity returns packageName's score, 0 if unknown, and 0 (never an
// error) if the lookup itself fails — a stalled popularity feed must not be
// able to block job scheduling.
func (o *GormOracle) Popularity(ctx context.Context, packageName string) float64 {
	key := []byte(packageName)
	if cached, err := o.cache.Get(key); err == nil {
		return clamp01(decodeFloat(cached))
	}

	var row Score
	err := o.db.WithContext(ctx).First(&row, "package_name = ?", packageName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = o.cache.Set(key, encodeFloat(0), o.ttl)
		return 0
	}
	if err != nil {
		return 0
	}

	_ = o.cache.Set(key, encodeFloat(row.Value), o.ttl)
	return clamp01(row.Value)
}

func encodeFloat(v float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(v))
	return b
}

func decodeFloat(b []byte) float64 {
	if len(b) != 8 {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}
