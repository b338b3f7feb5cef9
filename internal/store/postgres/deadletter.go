package postgres

import (
	"context"
	"fmt"

	"jobplane/internal/store"

	"github.com/google/uuid"
)

func (s *Store) AddDeadLetter(ctx context.Context, entry *store.DeadLetterEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dead_letters (id, job_id, tenant_id, execution_id, payload, error_message, attempts, failed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, entry.JobID, entry.TenantID, entry.ExecutionID, entry.Payload, entry.ErrorMessage, entry.Attempts, entry.FailedAt)
	if err != nil {
		return fmt.Errorf("failed to record dead letter for execution %s: %w", entry.ExecutionID, err)
	}
	return nil
}

func (s *Store) ListDeadLetters(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]store.DeadLetterEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, tenant_id, execution_id, payload, error_message, attempts, failed_at
		FROM dead_letters
		WHERE tenant_id = $1
		ORDER BY failed_at DESC
		LIMIT $2 OFFSET $3
	`, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}
	defer rows.Close()

	var entries []store.DeadLetterEntry
	for rows.Next() {
		var e store.DeadLetterEntry
		if err := rows.Scan(&e.ID, &e.JobID, &e.TenantID, &e.ExecutionID, &e.Payload, &e.ErrorMessage, &e.Attempts, &e.FailedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dead letter row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
