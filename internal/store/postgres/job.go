package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jobplane/internal/coreerr"
	"jobplane/internal/cronutil"
	"jobplane/internal/store"

	"github.com/google/uuid"
)

const jobColumns = `id, tenant_id, name, description, kind, schedule_kind, scheduled_time, cron_expression,
	next_run, payload, timeout_seconds, max_retries, status, retry_count, created_at, updated_at, last_executed_at`

func scanJob(row interface{ Scan(...interface{}) error }) (*store.Job, error) {
	var j store.Job
	if err := row.Scan(
		&j.ID, &j.TenantID, &j.Name, &j.Description, &j.Kind, &j.ScheduleKind, &j.ScheduledTime, &j.CronExpression,
		&j.NextRun, &j.Payload, &j.Timeout, &j.MaxRetries, &j.Status, &j.RetryCount, &j.CreatedAt, &j.UpdatedAt, &j.LastExecutedAt,
	); err != nil {
		return nil, err
	}
	return &j, nil
}

// CreateJob inserts a new job row, computing NextRun from its schedule.
func (s *Store) CreateJob(ctx context.Context, job *store.Job) error {
	query := fmt.Sprintf(`INSERT INTO jobs (%s) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`, jobColumns)

	_, err := s.db.ExecContext(ctx, query,
		job.ID, job.TenantID, job.Name, job.Description, job.Kind, job.ScheduleKind, job.ScheduledTime, job.CronExpression,
		job.NextRun, job.Payload, job.Timeout, job.MaxRetries, job.Status, job.RetryCount, job.CreatedAt, job.UpdatedAt, job.LastExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", job.ID, err)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, tenantID, id uuid.UUID) (*store.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE tenant_id = $1 AND id = $2 AND status != 'deleted'`, jobColumns)
	job, err := scanJob(s.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, coreerr.New(coreerr.KindNotFound, "job not found")
		}
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return job, nil
}

func (s *Store) ListJobs(ctx context.Context, tenantID uuid.UUID, filter store.JobFilter, page store.Page) (store.PageResult[store.Job], error) {
	where := "WHERE tenant_id = $1 AND status != 'deleted'"
	args := []interface{}{tenantID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		where += fmt.Sprintf(" AND kind = $%d", len(args))
	}

	sortBy := "created_at"
	switch page.SortBy {
	case "next_run", "name", "updated_at":
		sortBy = page.SortBy
	}
	order := "ASC"
	if page.Desc {
		order = "DESC"
	}

	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM jobs %s", where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return store.PageResult[store.Job]{}, fmt.Errorf("failed to count jobs: %w", err)
	}

	args = append(args, limit, page.Offset)
	listQuery := fmt.Sprintf(`SELECT %s FROM jobs %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		jobColumns, where, sortBy, order, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return store.PageResult[store.Job]{}, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var items []store.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return store.PageResult[store.Job]{}, fmt.Errorf("failed to scan job row: %w", err)
		}
		items = append(items, *j)
	}
	return store.PageResult[store.Job]{Items: items, Total: total}, nil
}

// UpdateJob applies patch atomically, recomputing NextRun when the cron
// expression changes.
func (s *Store) UpdateJob(ctx context.Context, tenantID, id uuid.UUID, patch store.JobPatch) (*store.Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin update tx: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, jobColumns)
	job, err := scanJob(tx.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, coreerr.New(coreerr.KindNotFound, "job not found")
		}
		return nil, fmt.Errorf("failed to load job for update: %w", err)
	}
	if job.Status == store.JobStatusCompleted || job.Status == store.JobStatusDeleted {
		return nil, coreerr.New(coreerr.KindForbiddenTransition, "cannot update a job in terminal status")
	}

	if patch.Name != nil {
		job.Name = *patch.Name
	}
	if patch.Description != nil {
		job.Description = *patch.Description
	}
	if patch.Payload != nil {
		job.Payload = patch.Payload
	}
	if patch.Timeout != nil {
		job.Timeout = *patch.Timeout
	}
	if patch.Status != nil {
		job.Status = *patch.Status
	}
	if patch.CronExpression != nil {
		if job.Kind != store.JobKindRecurring {
			return nil, coreerr.New(coreerr.KindInvalidInput, "cron expression can only be set on recurring jobs")
		}
		if err := cronutil.Validate(*patch.CronExpression); err != nil {
			return nil, coreerr.Wrap(coreerr.KindInvalidCron, "invalid cron expression", err)
		}
		job.CronExpression = *patch.CronExpression
		next, err := cronutil.Next(job.CronExpression, time.Now().UTC())
		if err != nil {
			return nil, coreerr.Wrap(coreerr.KindInvalidCron, "cron expression has no future occurrence", err)
		}
		job.NextRun = &next
	}
	job.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		UPDATE jobs SET name=$1, description=$2, cron_expression=$3, next_run=$4, payload=$5, timeout_seconds=$6, status=$7, updated_at=$8
		WHERE tenant_id=$9 AND id=$10
	`, job.Name, job.Description, job.CronExpression, job.NextRun, job.Payload, job.Timeout, job.Status, job.UpdatedAt, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update job %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit job update: %w", err)
	}
	return job, nil
}

func (s *Store) SoftDeleteJob(ctx context.Context, tenantID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = 'deleted', next_run = NULL, updated_at = now() WHERE tenant_id = $1 AND id = $2 AND status != 'deleted'`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return coreerr.New(coreerr.KindNotFound, "job not found")
	}
	return nil
}

func (s *Store) PauseJob(ctx context.Context, tenantID, id uuid.UUID) (*store.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE tenant_id = $1 AND id = $2`, jobColumns)
	job, err := scanJob(s.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, coreerr.New(coreerr.KindNotFound, "job not found")
		}
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	if job.Status != store.JobStatusActive || job.Kind != store.JobKindRecurring {
		return nil, coreerr.New(coreerr.KindForbiddenTransition, "only an active recurring job can be paused")
	}
	_, err = s.db.ExecContext(ctx, `UPDATE jobs SET status = 'paused', updated_at = now() WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to pause job %s: %w", id, err)
	}
	job.Status = store.JobStatusPaused
	return job, nil
}

func (s *Store) ResumeJob(ctx context.Context, tenantID, id uuid.UUID) (*store.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE tenant_id = $1 AND id = $2`, jobColumns)
	job, err := scanJob(s.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, coreerr.New(coreerr.KindNotFound, "job not found")
		}
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	if job.Status != store.JobStatusPaused {
		return nil, coreerr.New(coreerr.KindForbiddenTransition, "only a paused job can be resumed")
	}
	next, err := cronutil.Next(job.CronExpression, time.Now().UTC())
	if err != nil {
		return nil, coreerr.Wrap(coreerr.KindInvalidCron, "cannot resume job with unsatisfiable cron", err)
	}
	_, err = s.db.ExecContext(ctx, `UPDATE jobs SET status = 'active', next_run = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3`, next, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resume job %s: %w", id, err)
	}
	job.Status = store.JobStatusActive
	job.NextRun = &next
	return job, nil
}

// ClaimDueJobs is Safety Sync's read: every active job whose NextRun has
// passed. It is intentionally non-locking; duplicate enqueue is prevented by
// the dispatch queue's idempotency key, not by a row lock here.
func (s *Store) ClaimDueJobs(ctx context.Context, limit int, horizon time.Time) ([]store.Job, error) {
	if limit <= 0 {
		limit = 1000
	}
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE status = 'active' AND next_run <= $1 ORDER BY next_run ASC LIMIT $2`, jobColumns)
	rows, err := s.db.QueryContext(ctx, query, horizon, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim due jobs: %w", err)
	}
	defer rows.Close()

	var jobs []store.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, nil
}

// UpcomingJobs returns a tenant's jobs firing within horizon of now, for the
// UpcomingJobs control-surface endpoint (§6). Unlike ClaimDueJobs it is
// tenant-scoped and includes paused jobs so a tenant can see what would fire
// once resumed.
func (s *Store) UpcomingJobs(ctx context.Context, tenantID uuid.UUID, horizon time.Duration) ([]store.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs
		WHERE tenant_id = $1 AND status IN ('active', 'pending', 'paused') AND next_run IS NOT NULL AND next_run <= $2
		ORDER BY next_run ASC`, jobColumns)
	rows, err := s.db.QueryContext(ctx, query, tenantID, time.Now().UTC().Add(horizon))
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming jobs for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	var jobs []store.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upcoming job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, nil
}

func (s *Store) SetNextRun(ctx context.Context, jobID uuid.UUID, next time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE jobs SET next_run = $1, updated_at = now() WHERE id = $2`, next, jobID)
	if err != nil {
		return fmt.Errorf("failed to set next_run for job %s: %w", jobID, err)
	}
	return nil
}

func (s *Store) MarkLastExecuted(ctx context.Context, jobID uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE jobs SET last_executed_at = $1 WHERE id = $2`, at, jobID)
	if err != nil {
		return fmt.Errorf("failed to mark last_executed_at for job %s: %w", jobID, err)
	}
	return nil
}

func (s *Store) MarkCompleted(ctx context.Context, jobID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = 'completed', next_run = NULL, updated_at = now() WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("failed to mark job %s completed: %w", jobID, err)
	}
	return nil
}

func (s *Store) MarkFailed(ctx context.Context, jobID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = 'failed', next_run = NULL, updated_at = now() WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("failed to mark job %s failed: %w", jobID, err)
	}
	return nil
}

func (s *Store) IncrementRetryCount(ctx context.Context, jobID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `UPDATE jobs SET retry_count = retry_count + 1 WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("failed to increment retry_count for job %s: %w", jobID, err)
	}
	return nil
}

func (s *Store) ResetRetryCount(ctx context.Context, jobID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `UPDATE jobs SET retry_count = 0 WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("failed to reset retry_count for job %s: %w", jobID, err)
	}
	return nil
}
