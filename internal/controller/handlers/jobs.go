package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"jobplane/internal/controller/middleware"
	"jobplane/internal/coreerr"
	"jobplane/internal/cronutil"
	"jobplane/internal/store"
	"jobplane/pkg/api"

	"github.com/google/uuid"
)

// CreateJob handles POST /jobs.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, nil, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		h.httpError(w, nil, "name is required", http.StatusBadRequest)
		return
	}

	tenantID, ok := middleware.TenantIDFromContext(ctx)
	if !ok {
		h.httpError(w, nil, "unauthorized", http.StatusUnauthorized)
		return
	}

	kind := store.JobKind(req.Kind)
	if kind != store.JobKindOneTime && kind != store.JobKindRecurring {
		h.httpError(w, nil, "kind must be one_time or recurring", http.StatusBadRequest)
		return
	}
	scheduleKind := store.ScheduleKind(req.ScheduleKind)

	now := time.Now().UTC()
	job := &store.Job{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Name:           req.Name,
		Description:    req.Description,
		Kind:           kind,
		ScheduleKind:   scheduleKind,
		ScheduledTime:  req.ScheduledTime,
		CronExpression: req.CronExpression,
		Payload:        req.Payload,
		Timeout:        req.Timeout,
		MaxRetries:     req.MaxRetries,
		Status:         store.JobStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if job.Timeout <= 0 {
		job.Timeout = 300
	}

	switch scheduleKind {
	case store.ScheduleImmediate:
		if kind != store.JobKindOneTime {
			h.httpError(w, nil, "schedule_kind=immediate requires kind=one_time", http.StatusBadRequest)
			return
		}
		job.NextRun = &now
	case store.ScheduleAt:
		if kind != store.JobKindOneTime {
			h.httpError(w, nil, "schedule_kind=at requires kind=one_time", http.StatusBadRequest)
			return
		}
		if req.ScheduledTime == nil {
			h.httpError(w, nil, "scheduled_time is required for schedule_kind=at", http.StatusBadRequest)
			return
		}
		if req.ScheduledTime.Before(now) {
			h.httpError(w, coreerr.New(coreerr.KindScheduledInPast, "scheduled_time is in the past"), "scheduled_time is in the past", 0)
			return
		}
		job.NextRun = req.ScheduledTime
	case store.ScheduleCron:
		if kind != store.JobKindRecurring {
			h.httpError(w, nil, "schedule_kind=cron requires kind=recurring", http.StatusBadRequest)
			return
		}
		if err := cronutil.Validate(req.CronExpression); err != nil {
			h.httpError(w, coreerr.Wrap(coreerr.KindInvalidCron, "invalid cron expression", err), "invalid cron expression", 0)
			return
		}
		next, err := cronutil.Next(req.CronExpression, now)
		if err != nil {
			h.httpError(w, coreerr.Wrap(coreerr.KindInvalidCron, "cron expression has no future occurrence", err), err.Error(), 0)
			return
		}
		job.NextRun = &next
	default:
		h.httpError(w, nil, "schedule_kind must be immediate, at, or cron", http.StatusBadRequest)
		return
	}

	if err := h.store.CreateJob(ctx, job); err != nil {
		h.httpError(w, err, "failed to create job", http.StatusInternalServerError)
		return
	}

	if h.scheduler != nil {
		if err := h.scheduler.EnqueueJob(ctx, job); err != nil {
			h.httpError(w, err, "failed to enqueue job", http.StatusInternalServerError)
			return
		}
	}

	h.respondJSON(w, http.StatusCreated, jobToResponse(job))
}

// GetJob handles GET /jobs/{id}.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, tenantID, ok := h.parseJobPath(w, r)
	if !ok {
		return
	}
	job, err := h.store.GetJob(ctx, tenantID, id)
	if err != nil {
		h.httpError(w, err, "job not found", http.StatusNotFound)
		return
	}
	h.respondJSON(w, http.StatusOK, jobToResponse(job))
}

// ListJobs handles GET /jobs.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, ok := middleware.TenantIDFromContext(ctx)
	if !ok {
		h.httpError(w, nil, "unauthorized", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	filter := store.JobFilter{
		Status: store.JobStatus(q.Get("status")),
		Kind:   store.JobKind(q.Get("kind")),
	}
	page := store.Page{
		Limit:  atoiOr(q.Get("limit"), 50),
		Offset: atoiOr(q.Get("offset"), 0),
		SortBy: q.Get("sort_by"),
		Desc:   q.Get("order") == "desc",
	}

	result, err := h.store.ListJobs(ctx, tenantID, filter, page)
	if err != nil {
		h.httpError(w, err, "failed to list jobs", http.StatusInternalServerError)
		return
	}

	resp := api.ListJobsResponse{Total: result.Total, Jobs: make([]api.JobResponse, len(result.Items))}
	for i := range result.Items {
		resp.Jobs[i] = jobToResponse(&result.Items[i])
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// UpdateJob handles PATCH /jobs/{id}.
func (h *Handlers) UpdateJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, tenantID, ok := h.parseJobPath(w, r)
	if !ok {
		return
	}

	var req api.UpdateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, nil, "invalid request body", http.StatusBadRequest)
		return
	}

	patch := store.JobPatch{
		Name:           req.Name,
		Description:    req.Description,
		CronExpression: req.CronExpression,
		Payload:        req.Payload,
		Timeout:        req.Timeout,
	}

	job, err := h.store.UpdateJob(ctx, tenantID, id, patch)
	if err != nil {
		h.httpError(w, err, "failed to update job", http.StatusInternalServerError)
		return
	}
	if h.scheduler != nil && patch.CronExpression != nil {
		if err := h.scheduler.CancelJob(ctx, id); err != nil {
			h.httpError(w, err, "failed to cancel pending dispatch", http.StatusInternalServerError)
			return
		}
		if err := h.scheduler.EnqueueJob(ctx, job); err != nil {
			h.httpError(w, err, "failed to enqueue job with updated schedule", http.StatusInternalServerError)
			return
		}
	}
	h.respondJSON(w, http.StatusOK, jobToResponse(job))
}

// DeleteJob handles DELETE /jobs/{id}.
func (h *Handlers) DeleteJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, tenantID, ok := h.parseJobPath(w, r)
	if !ok {
		return
	}
	if err := h.store.SoftDeleteJob(ctx, tenantID, id); err != nil {
		h.httpError(w, err, "failed to delete job", http.StatusInternalServerError)
		return
	}
	if h.scheduler != nil {
		if err := h.scheduler.CancelJob(ctx, id); err != nil {
			h.httpError(w, err, "failed to cancel pending dispatch", http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// PauseJob handles POST /jobs/{id}/pause.
func (h *Handlers) PauseJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, tenantID, ok := h.parseJobPath(w, r)
	if !ok {
		return
	}
	job, err := h.store.PauseJob(ctx, tenantID, id)
	if err != nil {
		h.httpError(w, err, "failed to pause job", http.StatusInternalServerError)
		return
	}
	if h.scheduler != nil {
		if err := h.scheduler.CancelJob(ctx, id); err != nil {
			h.httpError(w, err, "failed to cancel pending dispatch", http.StatusInternalServerError)
			return
		}
	}
	h.respondJSON(w, http.StatusOK, jobToResponse(job))
}

// ResumeJob handles POST /jobs/{id}/resume.
func (h *Handlers) ResumeJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, tenantID, ok := h.parseJobPath(w, r)
	if !ok {
		return
	}
	job, err := h.store.ResumeJob(ctx, tenantID, id)
	if err != nil {
		h.httpError(w, err, "failed to resume job", http.StatusInternalServerError)
		return
	}
	if h.scheduler != nil {
		if err := h.scheduler.EnqueueJob(ctx, job); err != nil {
			h.httpError(w, err, "failed to enqueue resumed job", http.StatusInternalServerError)
			return
		}
	}
	h.respondJSON(w, http.StatusOK, jobToResponse(job))
}

// TriggerJob handles POST /jobs/{id}/trigger, a manual out-of-band run that
// bypasses the job's own schedule.
func (h *Handlers) TriggerJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, tenantID, ok := h.parseJobPath(w, r)
	if !ok {
		return
	}
	job, err := h.store.GetJob(ctx, tenantID, id)
	if err != nil {
		h.httpError(w, err, "job not found", http.StatusNotFound)
		return
	}
	if h.scheduler == nil {
		h.httpError(w, nil, "scheduler unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := h.scheduler.TriggerJob(ctx, job); err != nil {
		h.httpError(w, err, "failed to trigger job", http.StatusInternalServerError)
		return
	}
	h.respondJSON(w, http.StatusAccepted, api.TriggerJobResponse{JobID: job.ID.String()})
}

// UpcomingJobs handles GET /upcoming-jobs, returning jobs firing within the
// requested horizon (default 24h) ordered by next_run ascending.
func (h *Handlers) UpcomingJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, ok := middleware.TenantIDFromContext(ctx)
	if !ok {
		h.httpError(w, nil, "unauthorized", http.StatusUnauthorized)
		return
	}

	horizon := 24 * time.Hour
	if raw := r.URL.Query().Get("horizon_seconds"); raw != "" {
		if secs := atoiOr(raw, -1); secs > 0 {
			horizon = time.Duration(secs) * time.Second
		}
	}

	jobs, err := h.store.UpcomingJobs(ctx, tenantID, horizon)
	if err != nil {
		h.httpError(w, err, "failed to list upcoming jobs", http.StatusInternalServerError)
		return
	}

	resp := api.ListJobsResponse{Total: len(jobs), Jobs: make([]api.JobResponse, len(jobs))}
	for i := range jobs {
		resp.Jobs[i] = jobToResponse(&jobs[i])
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) parseJobPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, nil, "invalid job id", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	tenantID, ok := middleware.TenantIDFromContext(r.Context())
	if !ok {
		h.httpError(w, nil, "unauthorized", http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	return id, tenantID, true
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return def
		}
		n = n*10 + int(c-'0')
	}
	return n
}
