// Package dispatch is the persistent, timer-driven Delayed Dispatch Queue.
// Enqueue is idempotent by job id: a second enqueue for a job already
// present in delayed/waiting/active state is a no-op. This idempotency is
// the single mechanism that prevents double-scheduling races between the
// Scheduler and Safety Sync.
package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ErrAlreadyEnqueued is returned by Enqueue when a live item for the job
// already exists.
var ErrAlreadyEnqueued = errAlreadyEnqueued{}

type errAlreadyEnqueued struct{}

func (errAlreadyEnqueued) Error() string { return "already_enqueued" }

// Item is a claimed dispatch item handed to a worker.
type Item struct {
	ID          int64
	JobID       uuid.UUID
	TenantID    uuid.UUID
	Payload     json.RawMessage
	Attempt     int
	MaxAttempts int
}

// Queue is the Delayed Dispatch Queue's full contract (§4.4).
type Queue interface {
	// Enqueue schedules delivery of payload for jobID after delay, at the
	// given priority. Returns ErrAlreadyEnqueued if a live item exists.
	Enqueue(ctx context.Context, jobID, tenantID uuid.UUID, payload json.RawMessage, delay time.Duration, priority int, maxAttempts int) error

	// Remove deletes any pending item for jobID. Succeeds whether or not present.
	Remove(ctx context.Context, jobID uuid.UUID) error

	// DequeueBatch atomically claims up to limit visible items.
	DequeueBatch(ctx context.Context, limit int) ([]Item, error)

	// Complete removes a claimed item after successful processing.
	Complete(ctx context.Context, itemID int64) error

	// Fail reports a worker failure. If attempts remain, the item is
	// rescheduled with exponential backoff and isFinal is false. Otherwise
	// the item is removed from the queue, isFinal is true, and the caller
	// is responsible for recording a dead-letter entry and notifying.
	Fail(ctx context.Context, itemID int64, baseDelay time.Duration) (isFinal bool, item Item, err error)

	// SetVisibleAfter extends an in-flight item's visibility timeout (heartbeat).
	SetVisibleAfter(ctx context.Context, itemID int64, visibleAfter time.Time) error

	// Depth reports the number of items currently in each logical state,
	// for the queue-depth metric.
	Depth(ctx context.Context) (waiting int64, active int64, err error)
}
