// Package store contains the durable Job Store: the authoritative record of
// every job, execution and log line, plus the invariants that keep
// scheduling state consistent across process restarts.
package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Tenant is the owning principal of every Job. All store queries are scoped
// by Tenant ID.
type Tenant struct {
	ID                      uuid.UUID
	Name                    string
	RateLimit               int
	RateLimitBurst          int
	MaxConcurrentExecutions int
	CreatedAt               time.Time
}

// JobKind distinguishes a job that runs once from one that recurs on a cron
// schedule.
type JobKind string

const (
	JobKindOneTime   JobKind = "one_time"
	JobKindRecurring JobKind = "recurring"
)

// ScheduleKind tags which field of Job's schedule is populated.
type ScheduleKind string

const (
	ScheduleImmediate ScheduleKind = "immediate"
	ScheduleAt        ScheduleKind = "at"
	ScheduleCron      ScheduleKind = "cron"
)

// JobStatus is the job state machine's current state.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusActive    JobStatus = "active"
	JobStatusPaused    JobStatus = "paused"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusDeleted   JobStatus = "deleted"
)

// Job is a tenant-declared unit of scheduled work.
type Job struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	Name           string
	Description    string
	Kind           JobKind
	ScheduleKind   ScheduleKind
	ScheduledTime  *time.Time // populated iff ScheduleKind == ScheduleAt
	CronExpression string     // populated iff ScheduleKind == ScheduleCron
	NextRun        *time.Time
	Payload        json.RawMessage
	Timeout        int // seconds, 1..3600
	MaxRetries     int // 0..10
	Status         JobStatus
	RetryCount     int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastExecutedAt *time.Time
}

// ExecutionStatus is the terminal or in-flight state of one Execution.
type ExecutionStatus string

const (
	ExecutionStatusRunning ExecutionStatus = "running"
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusFailed  ExecutionStatus = "failed"
	ExecutionStatusTimeout ExecutionStatus = "timeout"
)

// Execution is a single attempt to run a Job. It transitions from Running to
// exactly one terminal status and is immutable thereafter.
type Execution struct {
	ID           uuid.UUID
	JobID        uuid.UUID
	TenantID     uuid.UUID
	StartedAt    time.Time
	FinishedAt   *time.Time
	Status       ExecutionStatus
	RetryAttempt int
	DurationMS   *int64
	ErrorMessage *string
	Output       json.RawMessage
}

// LogLevel is the severity of one ExecutionLog line.
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// LogEntry is one append-only line in an Execution's log.
type LogEntry struct {
	ID          int64
	ExecutionID uuid.UUID
	Level       LogLevel
	Message     string
	Timestamp   time.Time
	Metadata    json.RawMessage
}

// DeadLetterEntry is the durable record of a dispatch item that exhausted
// every retry attempt, kept independently of the Job's own status so
// forensics survive even if the Job row is later deleted.
type DeadLetterEntry struct {
	ID           uuid.UUID
	JobID        uuid.UUID
	TenantID     uuid.UUID
	ExecutionID  uuid.UUID
	Payload      json.RawMessage
	ErrorMessage string
	Attempts     int
	FailedAt     time.Time
}

// JobFilter narrows ListJobs results.
type JobFilter struct {
	Status JobStatus
	Kind   JobKind
}

// Page describes pagination parameters and, on return, the total count.
type Page struct {
	Limit  int
	Offset int
	SortBy string // created_at | next_run | name | updated_at
	Desc   bool
}

// PageResult wraps a page of items with the total matching count.
type PageResult[T any] struct {
	Items []T
	Total int
}

// JobPatch carries the mutable subset of Job fields UpdateJob accepts.
type JobPatch struct {
	Name           *string
	Description    *string
	CronExpression *string
	Payload        json.RawMessage
	Timeout        *int
	Status         *JobStatus
}
