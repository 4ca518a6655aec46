package datastore

import (
	"context"
	"errors"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pubjobs/scheduler/pkg/job"
)

// Store implements job.Store on top of a *gorm.DB.
type Store struct {
	db *gorm.DB
}

// Open opens a datastore. A dsn beginning with "postgres://" or
// "postgresql://" connects via gorm.io/driver/postgres; any other dsn is
// treated as a SQLite path (":memory:" for an ephemeral in-process
// instance).
func Open(dsn string) (*Store, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an already-open *gorm.DB, for callers that want to manage
// the connection pool (see PoolConfig) or share a connection with other
// GORM-backed stores such as pkg/pkgmeta.
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying *gorm.DB so collaborators that share the
// connection (pkg/pkgmeta's reference adapter, pkg/popularity's reference
// adapter) can reuse the pool instead of opening a second connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates or upgrades the jobs table.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&job.Job{})
}

// Get returns the job with the given id, or (nil, nil) if absent.
func (s *Store) Get(ctx context.Context, id string) (*job.Job, error) {
	var j job.Job
	err := s.db.WithContext(ctx).First(&j, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// Find executes q and returns the matching jobs.
func (s *Store) Find(ctx context.Context, q job.Query) ([]*job.Job, error) {
	tx := applyFilter(s.db.WithContext(ctx), q.Filter)

	switch q.OrderBy {
	case job.OrderByPriorityAsc:
		tx = tx.Order("priority ASC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var jobs []*job.Job
	if err := tx.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// ScanBatches streams every job matching filter through fn in batches of
// batchSize via GORM's FindInBatches, so maintenance sweeps over large job
// tables never materialize the full result set.
func (s *Store) ScanBatches(ctx context.Context, filter job.Filter, batchSize int, fn job.BatchFunc) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	tx := applyFilter(s.db.WithContext(ctx), filter)

	var batch []*job.Job
	result := tx.FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		return fn(ctx, batch)
	})
	return result.Error
}

// RunInTransaction executes fn inside a single GORM transaction, translating
// lock-contention and serialization errors into ConflictError so pkg/retry
// retries them.
func (s *Store) RunInTransaction(ctx context.Context, fn job.TxFunc) error {
	err := s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(ctx, &tx{db: gtx})
	})
	return classifyTxError(err)
}

// DeleteBatch deletes up to limit jobs matching filter and returns the
// number deleted.
func (s *Store) DeleteBatch(ctx context.Context, filter job.Filter, limit int) (int, error) {
	var ids []string
	sel := applyFilter(s.db.WithContext(ctx), filter).Limit(limit)
	if err := sel.Model(&job.Job{}).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&job.Job{})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func applyFilter(tx *gorm.DB, f job.Filter) *gorm.DB {
	tx = tx.Model(&job.Job{})
	if f.RuntimeVersion != "" {
		tx = tx.Where("runtime_version = ?", f.RuntimeVersion)
	}
	if f.Service != "" {
		tx = tx.Where("service = ?", f.Service)
	}
	if f.State != "" {
		tx = tx.Where("state = ?", f.State)
	}
	if f.LockedBefore != nil {
		tx = tx.Where("locked_until IS NOT NULL AND locked_until < ?", *f.LockedBefore)
	}
	if f.RuntimeVersionBefore != "" {
		tx = tx.Where("runtime_version < ?", f.RuntimeVersionBefore)
	}
	return tx
}

// tx implements job.Tx against a single GORM transaction handle.
type tx struct {
	db *gorm.DB
}

func (t *tx) Get(ctx context.Context, id string) (*job.Job, error) {
	var j job.Job
	err := t.db.WithContext(ctx).First(&j, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (t *tx) Upsert(ctx context.Context, j *job.Job) error {
	return t.db.WithContext(ctx).Save(j).Error
}

func (t *tx) Delete(ctx context.Context, id string) error {
	return t.db.WithContext(ctx).Delete(&job.Job{}, "id = ?", id).Error
}
