// Package postgres implements the Delayed Dispatch Queue on PostgreSQL,
// following the same SELECT ... FOR UPDATE SKIP LOCKED claiming pattern the
// Job Store's execution queue used, generalized to idempotent-by-job-id
// enqueue and library-backed exponential backoff.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"jobplane/internal/dispatch"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const visibilityTimeout = 5 * time.Minute

// Queue is the PostgreSQL-backed dispatch.Queue.
type Queue struct {
	db *sql.DB
}

func New(db *sql.DB) *Queue {
	return &Queue{db: db}
}

func (q *Queue) Enqueue(ctx context.Context, jobID, tenantID uuid.UUID, payload json.RawMessage, delay time.Duration, priority int, maxAttempts int) error {
	if delay < 0 {
		delay = 0
	}
	visibleAfter := time.Now().UTC().Add(delay)

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO dispatch_queue (job_id, tenant_id, payload, priority, max_attempts, visible_after)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (job_id) DO NOTHING
	`, jobID, tenantID, payload, priority, maxAttempts, visibleAfter)
	if err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", jobID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return dispatch.ErrAlreadyEnqueued
	}
	return nil
}

func (q *Queue) Remove(ctx context.Context, jobID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM dispatch_queue WHERE job_id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("failed to remove job %s from dispatch queue: %w", jobID, err)
	}
	return nil
}

// DequeueBatch claims up to limit visible items using SELECT ... FOR UPDATE
// SKIP LOCKED, exactly as the Job Store's own execution queue did, then
// bumps their visibility window and attempt count in the same transaction.
func (q *Queue) DequeueBatch(ctx context.Context, limit int) ([]dispatch.Item, error) {
	if limit <= 0 {
		limit = 1
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin dequeue tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, job_id, tenant_id, payload, attempt, max_attempts
		FROM dispatch_queue
		WHERE visible_after <= NOW()
		ORDER BY priority DESC, created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("dispatch dequeue query failed: %w", err)
	}

	var items []dispatch.Item
	var ids []int64
	for rows.Next() {
		var it dispatch.Item
		if err := rows.Scan(&it.ID, &it.JobID, &it.TenantID, &it.Payload, &it.Attempt, &it.MaxAttempts); err != nil {
			rows.Close()
			return nil, fmt.Errorf("dispatch dequeue scan failed: %w", err)
		}
		items = append(items, it)
		ids = append(ids, it.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("dispatch dequeue rows error: %w", err)
	}
	rows.Close()

	if len(items) == 0 {
		return nil, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE dispatch_queue
		SET visible_after = NOW() + ($1 * INTERVAL '1 second'), attempt = attempt + 1
		WHERE id = ANY($2)
	`, visibilityTimeout.Seconds(), pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("dispatch visibility bump failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit dequeue: %w", err)
	}

	for i := range items {
		items[i].Attempt++
	}
	return items, nil
}

func (q *Queue) Complete(ctx context.Context, itemID int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM dispatch_queue WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to complete dispatch item %d: %w", itemID, err)
	}
	return nil
}

// Fail reschedules itemID with exponential backoff computed by
// cenkalti/backoff, or reports isFinal and removes the item once max
// attempts are exhausted.
func (q *Queue) Fail(ctx context.Context, itemID int64, baseDelay time.Duration) (bool, dispatch.Item, error) {
	var item dispatch.Item
	err := q.db.QueryRowContext(ctx, `
		SELECT id, job_id, tenant_id, payload, attempt, max_attempts FROM dispatch_queue WHERE id = $1
	`, itemID).Scan(&item.ID, &item.JobID, &item.TenantID, &item.Payload, &item.Attempt, &item.MaxAttempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return true, item, nil
		}
		return false, item, fmt.Errorf("failed to load dispatch item %d: %w", itemID, err)
	}

	if item.Attempt >= item.MaxAttempts {
		if _, err := q.db.ExecContext(ctx, `DELETE FROM dispatch_queue WHERE id = $1`, itemID); err != nil {
			return false, item, fmt.Errorf("failed to remove exhausted dispatch item %d: %w", itemID, err)
		}
		return true, item, nil
	}

	delay := backoffDelay(baseDelay, item.Attempt)
	_, err = q.db.ExecContext(ctx, `
		UPDATE dispatch_queue SET visible_after = NOW() + ($1 * INTERVAL '1 second') WHERE id = $2
	`, delay.Seconds(), itemID)
	if err != nil {
		return false, item, fmt.Errorf("failed to reschedule dispatch item %d: %w", itemID, err)
	}
	return false, item, nil
}

// backoffDelay computes attempt's exponential backoff by driving
// cenkalti/backoff's ExponentialBackOff state machine through NextBackOff,
// seeded so attempt 1 yields exactly baseDelay and it doubles thereafter
// with no upper cap, matching the core's §4.4 contract.
func backoffDelay(baseDelay time.Duration, attempt int) time.Duration {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = baseDelay
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxInterval = time.Duration(math.MaxInt64)
	eb.MaxElapsedTime = 0
	eb.Reset()

	delay := eb.NextBackOff()
	for i := 1; i < attempt; i++ {
		delay = eb.NextBackOff()
	}
	return delay
}

func (q *Queue) SetVisibleAfter(ctx context.Context, itemID int64, visibleAfter time.Time) error {
	_, err := q.db.ExecContext(ctx, `UPDATE dispatch_queue SET visible_after = $1 WHERE id = $2`, visibleAfter, itemID)
	if err != nil {
		return fmt.Errorf("failed to extend visibility for dispatch item %d: %w", itemID, err)
	}
	return nil
}

func (q *Queue) Depth(ctx context.Context) (int64, int64, error) {
	var waiting, active int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dispatch_queue WHERE visible_after <= NOW()`).Scan(&waiting)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count waiting dispatch items: %w", err)
	}
	err = q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dispatch_queue WHERE visible_after > NOW()`).Scan(&active)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count active dispatch items: %w", err)
	}
	return waiting, active, nil
}

var _ dispatch.Queue = (*Queue)(nil)
