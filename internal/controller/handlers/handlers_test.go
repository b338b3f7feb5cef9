package handlers

import (
	"context"
	"time"

	"jobplane/internal/store"

	"github.com/google/uuid"
)

// mockStore implements StoreFactory for handler tests. Each hook defaults to
// a zero response; tests override only what they need.
type mockStore struct {
	pingErr error

	createJobErr error
	getJobResp   *store.Job
	getJobErr    error
	listJobsResp store.PageResult[store.Job]
	listJobsErr  error
	updateJobResp *store.Job
	updateJobErr  error
	deleteJobErr  error
	pauseJobResp  *store.Job
	pauseJobErr   error
	resumeJobResp *store.Job
	resumeJobErr  error

	claimDueJobsResp []store.Job
	claimDueJobsErr  error

	upcomingJobsResp []store.Job
	upcomingJobsErr  error

	getExecutionResp   *store.Execution
	getExecutionErr    error
	listExecutionsResp store.PageResult[store.Execution]
	listExecutionsErr  error
	finalizeExecErr    error
	beginExecResp      *store.Execution
	beginExecErr       error

	appendLogErr        error
	getExecutionLogsResp []store.LogEntry
	getExecutionLogsErr  error

	addDeadLetterErr  error
	listDeadLettersResp []store.DeadLetterEntry
	listDeadLettersErr  error

	createTenantErr error
	getTenantByIDResp *store.Tenant
	getTenantByIDErr  error
	getTenantByHashResp *store.Tenant
	getTenantByHashErr  error
}

func (m *mockStore) Ping(ctx context.Context) error { return m.pingErr }

func (m *mockStore) CreateJob(ctx context.Context, job *store.Job) error { return m.createJobErr }

func (m *mockStore) GetJob(ctx context.Context, tenantID, id uuid.UUID) (*store.Job, error) {
	return m.getJobResp, m.getJobErr
}

func (m *mockStore) ListJobs(ctx context.Context, tenantID uuid.UUID, filter store.JobFilter, page store.Page) (store.PageResult[store.Job], error) {
	return m.listJobsResp, m.listJobsErr
}

func (m *mockStore) UpdateJob(ctx context.Context, tenantID, id uuid.UUID, patch store.JobPatch) (*store.Job, error) {
	return m.updateJobResp, m.updateJobErr
}

func (m *mockStore) SoftDeleteJob(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.deleteJobErr
}

func (m *mockStore) PauseJob(ctx context.Context, tenantID, id uuid.UUID) (*store.Job, error) {
	return m.pauseJobResp, m.pauseJobErr
}

func (m *mockStore) ResumeJob(ctx context.Context, tenantID, id uuid.UUID) (*store.Job, error) {
	return m.resumeJobResp, m.resumeJobErr
}

func (m *mockStore) ClaimDueJobs(ctx context.Context, limit int, horizon time.Time) ([]store.Job, error) {
	return m.claimDueJobsResp, m.claimDueJobsErr
}

func (m *mockStore) UpcomingJobs(ctx context.Context, tenantID uuid.UUID, horizon time.Duration) ([]store.Job, error) {
	return m.upcomingJobsResp, m.upcomingJobsErr
}

func (m *mockStore) BeginExecution(ctx context.Context, jobID, tenantID uuid.UUID, retryAttempt int) (*store.Execution, error) {
	return m.beginExecResp, m.beginExecErr
}

func (m *mockStore) FinalizeExecution(ctx context.Context, executionID uuid.UUID, status store.ExecutionStatus, errMsg *string, output []byte) error {
	return m.finalizeExecErr
}

func (m *mockStore) GetExecution(ctx context.Context, tenantID, id uuid.UUID) (*store.Execution, error) {
	return m.getExecutionResp, m.getExecutionErr
}

func (m *mockStore) ListExecutions(ctx context.Context, tenantID, jobID uuid.UUID, page store.Page) (store.PageResult[store.Execution], error) {
	return m.listExecutionsResp, m.listExecutionsErr
}

func (m *mockStore) SetNextRun(ctx context.Context, jobID uuid.UUID, next time.Time) error { return nil }
func (m *mockStore) MarkLastExecuted(ctx context.Context, jobID uuid.UUID, at time.Time) error {
	return nil
}
func (m *mockStore) MarkCompleted(ctx context.Context, jobID uuid.UUID) error { return nil }
func (m *mockStore) MarkFailed(ctx context.Context, jobID uuid.UUID) error    { return nil }
func (m *mockStore) IncrementRetryCount(ctx context.Context, jobID uuid.UUID) error { return nil }
func (m *mockStore) ResetRetryCount(ctx context.Context, jobID uuid.UUID) error     { return nil }

func (m *mockStore) AppendLog(ctx context.Context, executionID uuid.UUID, level store.LogLevel, message string, metadata []byte) error {
	return m.appendLogErr
}

func (m *mockStore) GetExecutionLogs(ctx context.Context, executionID uuid.UUID, afterID int64, limit int) ([]store.LogEntry, error) {
	return m.getExecutionLogsResp, m.getExecutionLogsErr
}

func (m *mockStore) AddDeadLetter(ctx context.Context, entry *store.DeadLetterEntry) error {
	return m.addDeadLetterErr
}

func (m *mockStore) ListDeadLetters(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]store.DeadLetterEntry, error) {
	return m.listDeadLettersResp, m.listDeadLettersErr
}

func (m *mockStore) CreateTenant(ctx context.Context, tenant *store.Tenant, hashedKey string) error {
	return m.createTenantErr
}

func (m *mockStore) GetTenantByID(ctx context.Context, id uuid.UUID) (*store.Tenant, error) {
	return m.getTenantByIDResp, m.getTenantByIDErr
}

func (m *mockStore) GetTenantByAPIKeyHash(ctx context.Context, hash string) (*store.Tenant, error) {
	return m.getTenantByHashResp, m.getTenantByHashErr
}
