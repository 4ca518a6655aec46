package pkgmeta

import (
	"context"
	"time"
)

// Package is the latest-version pointer and visibility flag Trigger reads.
type Package struct {
	Name          string
	LatestVersion string
	IsNotVisible  bool
}

// PackageVersion carries the high-water-mark timestamp Trigger compares
// against the caller-supplied "updated" time to decide staleness.
type PackageVersion struct {
	PackageName string
	Version     string
	Created     time.Time
}

// Store is the package-metadata collaborator. A missing package or version
// is reported as (nil, nil), never an error — Trigger treats "not found" as
// a normal, idempotent no-op rather than a failure.
type Store interface {
	GetPackage(ctx context.Context, name string) (*Package, error)
	GetPackageVersion(ctx context.Context, name, version string) (*PackageVersion, error)
}
