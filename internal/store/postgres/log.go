package postgres

import (
	"context"
	"fmt"
	"time"

	"jobplane/internal/store"

	"github.com/google/uuid"
)

func (s *Store) AppendLog(ctx context.Context, executionID uuid.UUID, level store.LogLevel, message string, metadata []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO logs (execution_id, level, message, timestamp, metadata) VALUES ($1, $2, $3, $4, $5)
	`, executionID, level, message, time.Now().UTC(), metadata)
	if err != nil {
		return fmt.Errorf("failed to append log for execution %s: %w", executionID, err)
	}
	return nil
}

func (s *Store) GetExecutionLogs(ctx context.Context, executionID uuid.UUID, afterID int64, limit int) ([]store.LogEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, execution_id, level, message, timestamp, metadata
		FROM logs
		WHERE execution_id = $1 AND id > $2
		ORDER BY id ASC
		LIMIT $3
	`, executionID, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs for execution %s: %w", executionID, err)
	}
	defer rows.Close()

	var logs []store.LogEntry
	for rows.Next() {
		var entry store.LogEntry
		if err := rows.Scan(&entry.ID, &entry.ExecutionID, &entry.Level, &entry.Message, &entry.Timestamp, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		logs = append(logs, entry)
	}
	return logs, nil
}
