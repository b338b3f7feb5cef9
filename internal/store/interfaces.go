package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DBTransaction is the subset of *sql.DB and *sql.Tx the store layer needs,
// so repository methods can accept either a pool or an active transaction.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Tx is a DBTransaction that can be committed or rolled back.
type Tx interface {
	DBTransaction
	Commit() error
	Rollback() error
}

// TenantStore persists Tenants and resolves API-key bearer auth.
type TenantStore interface {
	CreateTenant(ctx context.Context, tenant *Tenant, hashedKey string) error
	GetTenantByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetTenantByAPIKeyHash(ctx context.Context, hash string) (*Tenant, error)
}

// JobStoreBackend is the durable Job Store's full operation set (§4.2).
// Production is backed by Postgres; tests use an in-memory fake.
type JobStoreBackend interface {
	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, tenantID, id uuid.UUID) (*Job, error)
	ListJobs(ctx context.Context, tenantID uuid.UUID, filter JobFilter, page Page) (PageResult[Job], error)
	UpdateJob(ctx context.Context, tenantID, id uuid.UUID, patch JobPatch) (*Job, error)
	SoftDeleteJob(ctx context.Context, tenantID, id uuid.UUID) error
	PauseJob(ctx context.Context, tenantID, id uuid.UUID) (*Job, error)
	ResumeJob(ctx context.Context, tenantID, id uuid.UUID) (*Job, error)

	// ClaimDueJobs returns active jobs whose NextRun has passed, for Safety Sync.
	ClaimDueJobs(ctx context.Context, limit int, horizon time.Time) ([]Job, error)

	// UpcomingJobs returns a tenant's active/pending/paused jobs whose NextRun
	// falls within horizon of now, ordered by NextRun ascending.
	UpcomingJobs(ctx context.Context, tenantID uuid.UUID, horizon time.Duration) ([]Job, error)

	BeginExecution(ctx context.Context, jobID, tenantID uuid.UUID, retryAttempt int) (*Execution, error)
	FinalizeExecution(ctx context.Context, executionID uuid.UUID, status ExecutionStatus, errMsg *string, output []byte) error
	GetExecution(ctx context.Context, tenantID, id uuid.UUID) (*Execution, error)
	ListExecutions(ctx context.Context, tenantID, jobID uuid.UUID, page Page) (PageResult[Execution], error)

	SetNextRun(ctx context.Context, jobID uuid.UUID, next time.Time) error
	MarkLastExecuted(ctx context.Context, jobID uuid.UUID, at time.Time) error
	MarkCompleted(ctx context.Context, jobID uuid.UUID) error
	MarkFailed(ctx context.Context, jobID uuid.UUID) error
	IncrementRetryCount(ctx context.Context, jobID uuid.UUID) error
	ResetRetryCount(ctx context.Context, jobID uuid.UUID) error

	AppendLog(ctx context.Context, executionID uuid.UUID, level LogLevel, message string, metadata []byte) error
	GetExecutionLogs(ctx context.Context, executionID uuid.UUID, afterID int64, limit int) ([]LogEntry, error)

	AddDeadLetter(ctx context.Context, entry *DeadLetterEntry) error
	ListDeadLetters(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]DeadLetterEntry, error)
}
