// Package executor is the Executor (Worker Pool): it consumes dispatch
// items, runs the resolved JobLogic under a hard timeout, records outcomes,
// and triggers reschedule or notification (§4.6).
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"jobplane/internal/clock"
	"jobplane/internal/coreerr"
	"jobplane/internal/dispatch"
	"jobplane/internal/notify"
	"jobplane/internal/scheduler"
	"jobplane/internal/store"

	"github.com/google/uuid"
)

// Metrics receives per-outcome execution counters.
type Metrics interface {
	ExecutionFinished(outcome string)
}

type noopMetrics struct{}

func (noopMetrics) ExecutionFinished(string) {}

// Config tunes the worker pool's behavior.
type Config struct {
	Concurrency         int
	PollInterval        time.Duration
	MaxBackoff          time.Duration
	HeartbeatInterval   time.Duration
	VisibilityExtension time.Duration
	BackoffBase         time.Duration
}

func (c *Config) setDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 5
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 1 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 2 * time.Minute
	}
	if c.VisibilityExtension <= 0 {
		c.VisibilityExtension = 5 * time.Minute
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 60 * time.Second
	}
}

// Executor is the worker pool that drains the Dispatch Queue.
type Executor struct {
	store       store.JobStoreBackend
	queue       dispatch.Queue
	registry    *Registry
	rescheduler scheduler.Rescheduler
	sink        notify.Sink
	clock       clock.Clock
	cfg         Config
	metrics     Metrics
	log         *slog.Logger

	done chan struct{}
}

// Option configures an Executor.
type Option func(*Executor)

func WithMetrics(m Metrics) Option   { return func(e *Executor) { e.metrics = m } }
func WithLogger(l *slog.Logger) Option { return func(e *Executor) { e.log = l } }

func New(st store.JobStoreBackend, q dispatch.Queue, registry *Registry, rescheduler scheduler.Rescheduler, sink notify.Sink, clk clock.Clock, cfg Config, opts ...Option) *Executor {
	cfg.setDefaults()
	e := &Executor{
		store:       st,
		queue:       q,
		registry:    registry,
		rescheduler: rescheduler,
		sink:        sink,
		clock:       clk,
		cfg:         cfg,
		metrics:     noopMetrics{},
		log:         slog.Default(),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Done returns a channel closed once Run has fully drained in-flight work.
func (e *Executor) Done() <-chan struct{} { return e.done }

// Run drives the adaptive-backoff poll loop until ctx is cancelled, then
// waits for in-flight executions to finish before closing Done.
func (e *Executor) Run(ctx context.Context) error {
	e.log.Info("executor starting", "concurrency", e.cfg.Concurrency)

	sem := make(chan struct{}, e.cfg.Concurrency)
	var wg sync.WaitGroup
	pollNow := make(chan struct{}, 1)
	currentBackoff := e.cfg.PollInterval

	triggerPoll := func() {
		select {
		case pollNow <- struct{}{}:
		default:
		}
	}
	triggerPoll()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("executor draining in-flight executions")
			wg.Wait()
			close(e.done)
			return ctx.Err()

		case <-e.clock.After(currentBackoff):
			triggerPoll()

		case <-pollNow:
			availableSlots := e.cfg.Concurrency - len(sem)
			if availableSlots <= 0 {
				continue
			}

			items, err := e.queue.DequeueBatch(ctx, availableSlots)
			if err != nil {
				e.log.Error("dequeue batch failed", "error", err)
				continue
			}

			if len(items) == 0 {
				currentBackoff *= 2
				if currentBackoff > e.cfg.MaxBackoff {
					currentBackoff = e.cfg.MaxBackoff
				}
				continue
			}

			currentBackoff = e.cfg.PollInterval

			for _, item := range items {
				sem <- struct{}{}
				wg.Add(1)
				go func(it dispatch.Item) {
					defer wg.Done()
					defer func() {
						<-sem
						triggerPoll()
					}()
					e.processItem(ctx, it)
				}(item)
			}

			if len(items) < availableSlots {
				triggerPoll()
			}
		}
	}
}

// processItem implements the execution lifecycle of §4.6, step by step.
func (e *Executor) processItem(ctx context.Context, item dispatch.Item) {
	var env scheduler.Envelope
	if err := json.Unmarshal(item.Payload, &env); err != nil {
		e.log.Error("failed to unmarshal dispatch envelope", "item_id", item.ID, "error", err)
		e.queue.Complete(ctx, item.ID)
		return
	}

	job, err := e.store.GetJob(ctx, item.TenantID, item.JobID)
	if err != nil {
		if coreerr.KindOf(err) == coreerr.KindNotFound {
			e.log.Info("skipping dispatch item: job gone", "job_id", item.JobID)
			e.queue.Complete(ctx, item.ID)
			return
		}
		e.log.Error("failed to load job for dispatch item", "job_id", item.JobID, "error", err)
		return
	}

	if job.Status != store.JobStatusActive && !env.Manual {
		e.log.Info("skipping dispatch item: job not active", "job_id", job.ID, "status", job.Status)
		e.queue.Complete(ctx, item.ID)
		return
	}

	retryAttempt := item.Attempt - 1
	if retryAttempt < 0 {
		retryAttempt = 0
	}

	execution, err := e.store.BeginExecution(ctx, job.ID, job.TenantID, retryAttempt)
	if err != nil {
		e.log.Error("failed to begin execution", "job_id", job.ID, "error", err)
		return
	}

	execLog := e.log.With("job_id", job.ID, "execution_id", execution.ID)
	e.store.AppendLog(ctx, execution.ID, store.LogLevelInfo, "started", nil)

	timeout := time.Duration(job.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 300 * time.Second
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	heartbeatCtx, cancelHeartbeat := context.WithCancel(context.Background())
	defer cancelHeartbeat()
	go e.runHeartbeat(heartbeatCtx, item.ID)

	payload, err := ParsePayload(job.Payload)
	if err != nil {
		e.finishFailure(ctx, job, execution, item, execLog, fmt.Sprintf("invalid payload: %v", err))
		return
	}
	logic, ok := e.registry.Resolve(payload.Type)
	if !ok {
		e.finishFailure(ctx, job, execution, item, execLog, fmt.Sprintf("no job logic registered for type %q", payload.Type))
		return
	}

	output, runErr := logic(execCtx, job, execution, e.clock, execLog)

	if runErr != nil {
		if execCtx.Err() != nil {
			execLog.Warn("execution timed out", "timeout", timeout)
			e.finishTimeout(ctx, job, execution, item, execLog, fmt.Sprintf("execution timeout after %s", timeout))
			return
		}
		e.finishFailure(ctx, job, execution, item, execLog, runErr.Error())
		return
	}

	e.finishSuccess(ctx, job, execution, item, execLog, output)
}

func (e *Executor) runHeartbeat(ctx context.Context, itemID int64) {
	ticker := e.clock.NewTicker(e.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			visibleAfter := e.clock.Now().Add(e.cfg.VisibilityExtension)
			if err := e.queue.SetVisibleAfter(context.Background(), itemID, visibleAfter); err != nil {
				e.log.Warn("heartbeat failed", "item_id", itemID, "error", err)
			}
		}
	}
}

func (e *Executor) finishSuccess(ctx context.Context, job *store.Job, execution *store.Execution, item dispatch.Item, log *slog.Logger, output json.RawMessage) {
	if err := e.store.FinalizeExecution(ctx, execution.ID, store.ExecutionStatusSuccess, nil, output); err != nil {
		log.Error("failed to finalize successful execution", "error", err)
	}
	now := e.clock.Now()
	e.store.MarkLastExecuted(ctx, job.ID, now)
	e.store.ResetRetryCount(ctx, job.ID)

	if job.Kind == store.JobKindRecurring && job.Status == store.JobStatusActive {
		if err := e.rescheduler.Reschedule(ctx, job); err != nil {
			log.Error("failed to reschedule recurring job", "error", err)
		}
	} else if job.Kind == store.JobKindOneTime {
		e.store.MarkCompleted(ctx, job.ID)
	}

	e.queue.Complete(ctx, item.ID)
	e.metrics.ExecutionFinished("success")
	log.Info("execution succeeded")
}

func (e *Executor) finishTimeout(ctx context.Context, job *store.Job, execution *store.Execution, item dispatch.Item, log *slog.Logger, msg string) {
	e.store.FinalizeExecution(ctx, execution.ID, store.ExecutionStatusTimeout, &msg, nil)
	e.metrics.ExecutionFinished("timeout")
	e.reportFailure(ctx, job, execution, item, log, msg)
}

func (e *Executor) finishFailure(ctx context.Context, job *store.Job, execution *store.Execution, item dispatch.Item, log *slog.Logger, msg string) {
	e.store.FinalizeExecution(ctx, execution.ID, store.ExecutionStatusFailed, &msg, nil)
	e.metrics.ExecutionFinished("failed")
	e.reportFailure(ctx, job, execution, item, log, msg)
}

// reportFailure reports the failed/timed-out attempt to the dispatch queue
// and, if that exhausts the retry budget, records a dead letter, marks the
// job failed and emits a terminal-failure notification (§4.6 step 7).
func (e *Executor) reportFailure(ctx context.Context, job *store.Job, execution *store.Execution, item dispatch.Item, log *slog.Logger, msg string) {
	isFinal, failedItem, err := e.queue.Fail(context.Background(), item.ID, e.cfg.BackoffBase)
	if err != nil {
		log.Error("failed to report failure to dispatch queue", "error", err)
		return
	}
	if !isFinal {
		e.store.IncrementRetryCount(ctx, job.ID)
		log.Info("execution failed, retry scheduled", "attempt", item.Attempt, "error", msg)
		return
	}

	log.Warn("execution retries exhausted", "attempts", failedItem.Attempt, "error", msg)

	dlq := &store.DeadLetterEntry{
		ID:           uuid.New(),
		JobID:        job.ID,
		TenantID:     job.TenantID,
		ExecutionID:  execution.ID,
		Payload:      failedItem.Payload,
		ErrorMessage: msg,
		Attempts:     failedItem.Attempt,
		FailedAt:     e.clock.Now(),
	}
	if err := e.store.AddDeadLetter(ctx, dlq); err != nil {
		log.Error("failed to record dead letter", "error", err)
	}
	if err := e.store.MarkFailed(ctx, job.ID); err != nil {
		log.Error("failed to mark job failed", "error", err)
	}

	notifyErr := e.sink.Emit(context.Background(), notify.Notification{
		Type:      "job_failure",
		JobID:     job.ID,
		JobName:   job.Name,
		TenantID:  job.TenantID,
		Error:     msg,
		Attempts:  failedItem.Attempt,
		Timestamp: e.clock.Now(),
	})
	if notifyErr != nil {
		log.Warn("failed to emit failure notification", "error", notifyErr)
	}
}
