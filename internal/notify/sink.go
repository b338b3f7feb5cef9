// Package notify is the Notification Sink: a fire-and-forget, best-effort
// channel for terminal job failures. The core depends only on the Sink
// interface; transport is an external collaborator (§6).
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Notification is the envelope the Executor publishes on terminal failure.
type Notification struct {
	Type      string    `json:"type"`
	JobID     uuid.UUID `json:"job_id"`
	JobName   string    `json:"job_name"`
	TenantID  uuid.UUID `json:"owner"`
	Error     string    `json:"error"`
	Attempts  int       `json:"attempts"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink is the interface the Executor depends on.
type Sink interface {
	Emit(ctx context.Context, n Notification) error
}

// Noop discards every notification; useful for tests and for deployments
// that have not wired a transport yet.
type Noop struct{}

func (Noop) Emit(ctx context.Context, n Notification) error { return nil }
