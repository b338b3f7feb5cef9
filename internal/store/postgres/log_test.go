package postgres

import (
	"context"
	"testing"
	"time"

	"jobplane/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestAppendLog(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	ctx := context.Background()
	executionID := uuid.New()

	mock.ExpectExec(`INSERT INTO logs`).
		WithArgs(executionID, store.LogLevelInfo, "started", sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.AppendLog(ctx, executionID, store.LogLevelInfo, "started", nil); err != nil {
		t.Fatalf("AppendLog failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetExecutionLogs(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	ctx := context.Background()
	executionID := uuid.New()
	afterID := int64(100)
	limit := 50

	rows := sqlmock.NewRows([]string{"id", "execution_id", "level", "message", "timestamp", "metadata"}).
		AddRow(101, executionID, store.LogLevelInfo, "log 101", time.Now().Add(-2*time.Second), nil).
		AddRow(102, executionID, store.LogLevelWarning, "log 102", time.Now().Add(-1*time.Second), nil)

	mock.ExpectQuery(`SELECT id, execution_id, level, message, timestamp, metadata FROM logs`).
		WithArgs(executionID, afterID, limit).
		WillReturnRows(rows)

	logs, err := s.GetExecutionLogs(ctx, executionID, afterID, limit)
	if err != nil {
		t.Fatalf("GetExecutionLogs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	if logs[0].ID != 101 {
		t.Errorf("expected first log ID 101, got %d", logs[0].ID)
	}
	if logs[1].Level != store.LogLevelWarning {
		t.Errorf("expected second log level warning, got %s", logs[1].Level)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetExecutionLogs_DefaultsLimit(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	ctx := context.Background()
	executionID := uuid.New()

	mock.ExpectQuery(`SELECT id, execution_id, level, message, timestamp, metadata FROM logs`).
		WithArgs(executionID, int64(0), 200).
		WillReturnRows(sqlmock.NewRows([]string{"id", "execution_id", "level", "message", "timestamp", "metadata"}))

	if _, err := s.GetExecutionLogs(ctx, executionID, 0, 0); err != nil {
		t.Fatalf("GetExecutionLogs failed: %v", err)
	}
}
