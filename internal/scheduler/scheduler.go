// Package scheduler is the glue between Job Store state and Dispatch Queue
// timing: initial enqueue, cancel/re-enqueue on job mutation, and the
// periodic Safety Sync reconciler that recovers lost dispatch state.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jobplane/internal/clock"
	"jobplane/internal/cronutil"
	"jobplane/internal/dispatch"
	"jobplane/internal/store"

	"github.com/google/uuid"
)

// Envelope is the denormalized job snapshot carried on a dispatch item. The
// Executor re-reads the authoritative job row before running it; the
// envelope only lets it avoid a store read before deciding to start.
type Envelope struct {
	JobID   uuid.UUID       `json:"job_id"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
	Timeout int             `json:"timeout"`
	Manual  bool            `json:"manual"`
}

const (
	priorityScheduled = 0
	priorityManual    = 1
)

// Metrics receives Safety Sync counters; a no-op implementation is fine for
// callers that do not care.
type Metrics interface {
	SafetySyncMissedJobs(n int)
	SafetySyncAddedToQueue(n int)
	SafetySyncFailedToEnqueue(n int)
	SafetySyncDuration(d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) SafetySyncMissedJobs(int)            {}
func (noopMetrics) SafetySyncAddedToQueue(int)           {}
func (noopMetrics) SafetySyncFailedToEnqueue(int)        {}
func (noopMetrics) SafetySyncDuration(time.Duration)     {}

// Scheduler owns the translation from Job Store events to Dispatch Queue
// operations and the periodic Safety Sync reconciler.
type Scheduler struct {
	store   store.JobStoreBackend
	queue   dispatch.Queue
	clock   clock.Clock
	metrics Metrics
	log     *slog.Logger

	syncInterval time.Duration
	syncHorizon  time.Duration
	claimLimit   int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithMetrics(m Metrics) Option { return func(s *Scheduler) { s.metrics = m } }
func WithLogger(l *slog.Logger) Option { return func(s *Scheduler) { s.log = l } }
func WithSyncInterval(d time.Duration) Option { return func(s *Scheduler) { s.syncInterval = d } }
func WithClaimLimit(n int) Option { return func(s *Scheduler) { s.claimLimit = n } }

func New(st store.JobStoreBackend, q dispatch.Queue, clk clock.Clock, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:        st,
		queue:        q,
		clock:        clk,
		metrics:      noopMetrics{},
		log:          slog.Default(),
		syncInterval: 5 * time.Minute,
		claimLimit:   1000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnqueueJob computes a job's delay from its NextRun and enqueues it. Called
// on job creation and on resume. Idempotent: callers can invoke it freely.
func (s *Scheduler) EnqueueJob(ctx context.Context, job *store.Job) error {
	if job.NextRun == nil {
		return fmt.Errorf("cannot enqueue job %s with no next_run", job.ID)
	}
	return s.enqueueAt(ctx, job, *job.NextRun, priorityScheduled, false)
}

// TriggerJob enqueues a manual, immediate run of job, bypassing the status
// gate the Executor applies to scheduled deliveries. It shares the same
// dispatch key as a scheduled run, so a manual trigger racing an
// already-scheduled run collides with it by design (§4.6).
func (s *Scheduler) TriggerJob(ctx context.Context, job *store.Job) error {
	return s.enqueueAt(ctx, job, s.clock.Now(), priorityManual, true)
}

func (s *Scheduler) enqueueAt(ctx context.Context, job *store.Job, at time.Time, priority int, manual bool) error {
	env := Envelope{JobID: job.ID, Name: job.Name, Payload: job.Payload, Timeout: job.Timeout, Manual: manual}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope for job %s: %w", job.ID, err)
	}

	delay := at.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}
	maxAttempts := job.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	if err := s.queue.Enqueue(ctx, job.ID, job.TenantID, payload, delay, priority, maxAttempts); err != nil {
		if errors.Is(err, dispatch.ErrAlreadyEnqueued) {
			return nil
		}
		return fmt.Errorf("failed to enqueue job %s: %w", job.ID, err)
	}
	return nil
}

// CancelJob removes a job's pending dispatch item. Used on pause/delete and
// before re-scheduling on an update. A run already in progress is not
// cancelled; this only affects queued, not in-flight, work.
func (s *Scheduler) CancelJob(ctx context.Context, jobID uuid.UUID) error {
	if err := s.queue.Remove(ctx, jobID); err != nil {
		return fmt.Errorf("failed to cancel job %s: %w", jobID, err)
	}
	return nil
}

// Rescheduler is the narrow interface the Executor depends on to ask the
// Scheduler to schedule the next run of a recurring job, breaking the
// natural Scheduler<->Executor cycle: the Executor needs to reschedule after
// a successful run, and the Scheduler's Safety Sync needs the Executor's
// queue to be populated, but neither needs the other's full API.
type Rescheduler interface {
	Reschedule(ctx context.Context, job *store.Job) error
}

// Reschedule computes the next cron firing for job and re-enqueues it.
// Implements Rescheduler.
func (s *Scheduler) Reschedule(ctx context.Context, job *store.Job) error {
	next, err := cronutil.Next(job.CronExpression, s.clock.Now())
	if err != nil {
		return fmt.Errorf("failed to compute next run for job %s: %w", job.ID, err)
	}
	if err := s.store.SetNextRun(ctx, job.ID, next); err != nil {
		return err
	}
	job.NextRun = &next
	return s.EnqueueJob(ctx, job)
}

// RunSafetySync runs the Safety Sync algorithm once: claim every active job
// whose NextRun has passed and re-enqueue it. Idempotency in the queue
// ensures jobs whose dispatch is still live are not duplicated.
func (s *Scheduler) RunSafetySync(ctx context.Context) error {
	start := s.clock.Now()
	jobs, err := s.store.ClaimDueJobs(ctx, s.claimLimit, start)
	if err != nil {
		return fmt.Errorf("safety sync failed to claim due jobs: %w", err)
	}

	s.metrics.SafetySyncMissedJobs(len(jobs))
	added, failed := 0, 0
	for i := range jobs {
		job := jobs[i]
		if err := s.EnqueueJob(ctx, &job); err != nil {
			s.log.Error("safety sync failed to enqueue job", "job_id", job.ID, "error", err)
			failed++
			continue
		}
		added++
	}
	s.metrics.SafetySyncAddedToQueue(added)
	s.metrics.SafetySyncFailedToEnqueue(failed)
	s.metrics.SafetySyncDuration(s.clock.Now().Sub(start))

	if len(jobs) > 0 {
		s.log.Info("safety sync recovered missed jobs", "missed", len(jobs), "added", added, "failed", failed)
	}
	return nil
}

// Run blocks, invoking RunSafetySync on syncInterval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			if err := s.RunSafetySync(ctx); err != nil {
				s.log.Error("safety sync run failed", "error", err)
			}
		}
	}
}

var _ Rescheduler = (*Scheduler)(nil)
