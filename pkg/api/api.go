// Package api contains the JSON request/response shapes shared between the
// controller's HTTP handlers and the CLI client.
package api

import (
	"encoding/json"
	"time"
)

// CreateTenantRequest is the request body for creating a new tenant.
type CreateTenantRequest struct {
	Name                    string `json:"name"`
	RateLimit               int    `json:"rate_limit,omitempty"`
	RateLimitBurst          int    `json:"rate_limit_burst,omitempty"`
	MaxConcurrentExecutions int    `json:"max_concurrent_executions,omitempty"`
}

// CreateTenantResponse is the response body after creating a tenant. ApiKey
// is only ever returned here; it is not retrievable afterwards.
type CreateTenantResponse struct {
	ID     string `json:"tenant_id"`
	Name   string `json:"name"`
	ApiKey string `json:"api_key"`
}

// CreateJobRequest is the request body for declaring a new job.
type CreateJobRequest struct {
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Kind           string          `json:"kind"`
	ScheduleKind   string          `json:"schedule_kind"`
	ScheduledTime  *time.Time      `json:"scheduled_time,omitempty"`
	CronExpression string          `json:"cron_expression,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Timeout        int             `json:"timeout,omitempty"`
	MaxRetries     int             `json:"max_retries,omitempty"`
}

// UpdateJobRequest carries the mutable subset of job fields. Nil fields are
// left unchanged.
type UpdateJobRequest struct {
	Name           *string         `json:"name,omitempty"`
	Description    *string         `json:"description,omitempty"`
	CronExpression *string         `json:"cron_expression,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Timeout        *int            `json:"timeout,omitempty"`
}

// JobResponse represents a job in API responses.
type JobResponse struct {
	ID             string          `json:"id"`
	TenantID       string          `json:"tenant_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Kind           string          `json:"kind"`
	ScheduleKind   string          `json:"schedule_kind"`
	ScheduledTime  *time.Time      `json:"scheduled_time,omitempty"`
	CronExpression string          `json:"cron_expression,omitempty"`
	NextRun        *time.Time      `json:"next_run,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Timeout        int             `json:"timeout"`
	MaxRetries     int             `json:"max_retries"`
	Status         string          `json:"status"`
	RetryCount     int             `json:"retry_count"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	LastExecutedAt *time.Time      `json:"last_executed_at,omitempty"`
}

// ListJobsResponse is a page of jobs plus the total matching count.
type ListJobsResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Total int           `json:"total"`
}

// TriggerJobResponse is returned after a manual trigger enqueues a run.
type TriggerJobResponse struct {
	JobID string `json:"job_id"`
}

// ExecutionResponse represents an execution attempt in API responses.
type ExecutionResponse struct {
	ID           string          `json:"id"`
	JobID        string          `json:"job_id"`
	TenantID     string          `json:"tenant_id"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	Status       string          `json:"status"`
	RetryAttempt int             `json:"retry_attempt"`
	DurationMS   *int64          `json:"duration_ms,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	Output       json.RawMessage `json:"output,omitempty"`
}

// ListExecutionsResponse is a page of executions plus the total count.
type ListExecutionsResponse struct {
	Executions []ExecutionResponse `json:"executions"`
	Total      int                 `json:"total"`
}

// LogEntryResponse represents one execution log line.
type LogEntryResponse struct {
	ID        int64           `json:"id"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// GetLogsResponse is the response body for fetching execution logs.
type GetLogsResponse struct {
	Logs []LogEntryResponse `json:"logs"`
}

// WorkerHeartbeatRequest is sent by a worker to extend an execution's
// dispatch visibility while it is still running.
type WorkerHeartbeatRequest struct {
	VisibleAfter time.Time `json:"visible_after"`
}

// WorkerResultRequest is sent by a worker when an execution finishes.
type WorkerResultRequest struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Output       json.RawMessage `json:"output,omitempty"`
}

// WorkerLogRequest is sent by a worker to append one execution log line.
type WorkerLogRequest struct {
	Level    string          `json:"level"`
	Message  string          `json:"message"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// DeadLetterResponse represents one exhausted-retry dispatch item.
type DeadLetterResponse struct {
	ID           string          `json:"id"`
	JobID        string          `json:"job_id"`
	ExecutionID  string          `json:"execution_id"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	ErrorMessage string          `json:"error_message"`
	Attempts     int             `json:"attempts"`
	FailedAt     time.Time       `json:"failed_at"`
}

// ListDeadLettersResponse is a page of dead-lettered executions.
type ListDeadLettersResponse struct {
	Entries []DeadLetterResponse `json:"entries"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
