package stats

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pubjobs/scheduler/pkg/job"
)

// snapshotRow is the persisted form of an AllStats, grounded on the
// teacher's JobStat row (ui/stats_gorm.go): one row per
// (service, runtime_version), overwritten on every tick, with the full
// bucket breakdown carried as JSON since it has no fixed column shape.
type snapshotRow struct {
	ID             uint   `gorm:"primaryKey"`
	Service        string `gorm:"uniqueIndex:idx_stats_service_rt;size:32;not null"`
	RuntimeVersion string `gorm:"uniqueIndex:idx_stats_service_rt;size:64;not null"`
	TakenAt        time.Time `gorm:"index;not null"`
	AvailableCount int
	ProcessingCount int
	IdleCount      int
	Payload        []byte
}

func (snapshotRow) TableName() string { return "stats_snapshots" }

// GormSnapshotStore implements SnapshotStore on top of a *gorm.DB.
type GormSnapshotStore struct {
	db *gorm.DB
}

// NewGormSnapshotStore wraps db as a SnapshotStore.
func NewGormSnapshotStore(db *gorm.DB) *GormSnapshotStore {
	return &GormSnapshotStore{db: db}
}

func (g *GormSnapshotStore) Migrate(ctx context.Context) error {
	return g.db.WithContext(ctx).AutoMigrate(&snapshotRow{})
}

func (g *GormSnapshotStore) Save(ctx context.Context, snap *AllStats) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	row := snapshotRow{
		Service:         string(snap.Service),
		RuntimeVersion:  snap.RuntimeVersion,
		TakenAt:         snap.Taken,
		AvailableCount:  snap.All.AvailableCount,
		ProcessingCount: snap.All.ProcessingCount,
		IdleCount:       snap.All.IdleCount,
		Payload:         payload,
	}

	var existing snapshotRow
	err = g.db.WithContext(ctx).
		Where("service = ? AND runtime_version = ?", row.Service, row.RuntimeVersion).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return g.db.WithContext(ctx).Create(&row).Error
	}
	if err != nil {
		return err
	}
	row.ID = existing.ID
	return g.db.WithContext(ctx).Save(&row).Error
}

func (g *GormSnapshotStore) Latest(ctx context.Context, service job.Service, runtimeVersion string) (*AllStats, error) {
	var row snapshotRow
	err := g.db.WithContext(ctx).
		Where("service = ? AND runtime_version = ?", string(service), runtimeVersion).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap AllStats
	if err := json.Unmarshal(row.Payload, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (g *GormSnapshotStore) Prune(ctx context.Context, before time.Time) (int, error) {
	result := g.db.WithContext(ctx).Where("taken_at < ?", before).Delete(&snapshotRow{})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}
