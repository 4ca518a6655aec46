package job

import (
	"fmt"
	"time"
)

// Service identifies a category of background work. Workers pull one
// service at a time.
type Service string

const (
	ServiceAnalyzer Service = "analyzer"
	ServiceDartdoc  Service = "dartdoc"
)

// State is the lifecycle state of a Job: available, processing, or idle.
type State string

const (
	StateAvailable  State = "available"
	StateProcessing State = "processing"
	StateIdle       State = "idle"
)

// LastStatus is the outcome of the most recently completed attempt.
type LastStatus string

const (
	StatusNone    LastStatus = "none"
	StatusSuccess LastStatus = "success"
	StatusFailed  LastStatus = "failed"
	StatusAborted LastStatus = "aborted"
)

// IsError reports whether status represents a non-success terminal outcome.
func (s LastStatus) IsError() bool {
	return s == StatusFailed || s == StatusAborted
}

// Job is the sole persistent entity of the scheduler core.
//
// ID is derived deterministically from (RuntimeVersion, Service,
// PackageName, PackageVersion); see ID below. It is never recomputed after
// insert.
type Job struct {
	ID                    string `gorm:"primaryKey;size:512"`
	RuntimeVersion        string `gorm:"index:idx_job_rt_service_state,priority:1;size:64;not null"`
	Service               Service `gorm:"index:idx_job_rt_service_state,priority:2;size:32;not null"`
	PackageName           string `gorm:"index;size:255;not null"`
	PackageVersion        string `gorm:"size:100;not null"`
	IsLatestStable        bool
	PackageVersionUpdated time.Time `gorm:"index"`
	State                 State     `gorm:"index:idx_job_rt_service_state,priority:3;size:16;not null"`
	LockedUntil           *time.Time `gorm:"index"`
	ProcessingKey         string     `gorm:"size:64"`
	LastStatus            LastStatus `gorm:"size:16;not null"`
	ErrorCount            int        `gorm:"not null;default:0"`
	Priority              int        `gorm:"index;not null"`
	CreatedAt             time.Time  `gorm:"autoCreateTime"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime"`
}

// ID derives the URI-structured, deterministic primary key for a job:
// "<runtimeVersion>/<service>/<packageName>/<packageVersion>".
func ID(runtimeVersion string, service Service, packageName, packageVersion string) string {
	return fmt.Sprintf("%s/%s/%s/%s", runtimeVersion, service, packageName, packageVersion)
}

// TableName pins the GORM table name regardless of struct name refactors.
func (Job) TableName() string {
	return "jobs"
}
