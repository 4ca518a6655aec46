package pkgmeta

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// packageRow and versionRow are the GORM models backing GormStore. They are
// named distinctly from Package/PackageVersion so the public API stays free
// of ORM tags.
type packageRow struct {
	Name          string `gorm:"primaryKey;size:255"`
	LatestVersion string `gorm:"size:100"`
	IsNotVisible  bool
}

func (packageRow) TableName() string { return "packages" }

type versionRow struct {
	PackageName string `gorm:"primaryKey;size:255"`
	Version     string `gorm:"primaryKey;size:100"`
	Created     time.Time
}

func (versionRow) TableName() string { return "package_versions" }

// GormStore implements Store against the shared job-table connection:
// package metadata is read-heavy and benefits from the same indexed-query
// and pooling machinery the job table uses, so a second storage
// technology isn't worth standing up for the reference adapter.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db (ordinarily the same *gorm.DB as the job
// datastore.Store) as a pkgmeta.Store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the packages/package_versions tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&packageRow{}, &versionRow{})
}

// UpsertPackage writes or overwrites a package's latest-version pointer and
// visibility flag.
func (s *GormStore) UpsertPackage(ctx context.Context, p Package) error {
	return s.db.WithContext(ctx).Save(&packageRow{
		Name:          p.Name,
		LatestVersion: p.LatestVersion,
		IsNotVisible:  p.IsNotVisible,
	}).Error
}

// UpsertPackageVersion writes or overwrites a package version's creation
// timestamp.
func (s *GormStore) UpsertPackageVersion(ctx context.Context, v PackageVersion) error {
	return s.db.WithContext(ctx).Save(&versionRow{
		PackageName: v.PackageName,
		Version:     v.Version,
		Created:     v.Created,
	}).Error
}

func (s *GormStore) GetPackage(ctx context.Context, name string) (*Package, error) {
	var row packageRow
	err := s.db.WithContext(ctx).First(&row, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Package{Name: row.Name, LatestVersion: row.LatestVersion, IsNotVisible: row.IsNotVisible}, nil
}

func (s *GormStore) GetPackageVersion(ctx context.Context, name, version string) (*PackageVersion, error) {
	var row versionRow
	err := s.db.WithContext(ctx).First(&row, "package_name = ? AND version = ?", name, version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &PackageVersion{PackageName: row.PackageName, Version: row.Version, Created: row.Created}, nil
}
