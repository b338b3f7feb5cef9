package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jobplane/internal/coreerr"
	"jobplane/internal/store"

	"github.com/google/uuid"
)

const executionColumns = `id, job_id, tenant_id, started_at, finished_at, status, retry_attempt, duration_ms, error_message, output`

func scanExecution(row interface{ Scan(...interface{}) error }) (*store.Execution, error) {
	var e store.Execution
	if err := row.Scan(
		&e.ID, &e.JobID, &e.TenantID, &e.StartedAt, &e.FinishedAt, &e.Status, &e.RetryAttempt, &e.DurationMS, &e.ErrorMessage, &e.Output,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) BeginExecution(ctx context.Context, jobID, tenantID uuid.UUID, retryAttempt int) (*store.Execution, error) {
	exec := &store.Execution{
		ID:           uuid.New(),
		JobID:        jobID,
		TenantID:     tenantID,
		StartedAt:    time.Now().UTC(),
		Status:       store.ExecutionStatusRunning,
		RetryAttempt: retryAttempt,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions (id, job_id, tenant_id, started_at, status, retry_attempt)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, exec.ID, exec.JobID, exec.TenantID, exec.StartedAt, exec.Status, exec.RetryAttempt)
	if err != nil {
		return nil, fmt.Errorf("failed to begin execution for job %s: %w", jobID, err)
	}
	return exec, nil
}

func (s *Store) FinalizeExecution(ctx context.Context, executionID uuid.UUID, status store.ExecutionStatus, errMsg *string, output []byte) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE executions
		SET status = $1, finished_at = $2, duration_ms = EXTRACT(EPOCH FROM ($2 - started_at)) * 1000, error_message = $3, output = $4
		WHERE id = $5
	`, status, now, errMsg, output, executionID)
	if err != nil {
		return fmt.Errorf("failed to finalize execution %s: %w", executionID, err)
	}
	return nil
}

func (s *Store) GetExecution(ctx context.Context, tenantID, id uuid.UUID) (*store.Execution, error) {
	query := fmt.Sprintf(`SELECT %s FROM executions WHERE tenant_id = $1 AND id = $2`, executionColumns)
	exec, err := scanExecution(s.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, coreerr.New(coreerr.KindNotFound, "execution not found")
		}
		return nil, fmt.Errorf("failed to get execution %s: %w", id, err)
	}
	return exec, nil
}

func (s *Store) ListExecutions(ctx context.Context, tenantID, jobID uuid.UUID, page store.Page) (store.PageResult[store.Execution], error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM executions WHERE tenant_id = $1 AND job_id = $2`, tenantID, jobID).Scan(&total); err != nil {
		return store.PageResult[store.Execution]{}, fmt.Errorf("failed to count executions: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM executions WHERE tenant_id = $1 AND job_id = $2 ORDER BY started_at DESC LIMIT $3 OFFSET $4`, executionColumns)
	rows, err := s.db.QueryContext(ctx, query, tenantID, jobID, limit, page.Offset)
	if err != nil {
		return store.PageResult[store.Execution]{}, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var items []store.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return store.PageResult[store.Execution]{}, fmt.Errorf("failed to scan execution row: %w", err)
		}
		items = append(items, *e)
	}
	return store.PageResult[store.Execution]{Items: items, Total: total}, nil
}
