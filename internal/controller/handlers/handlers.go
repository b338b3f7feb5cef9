// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"jobplane/internal/coreerr"
	"jobplane/internal/scheduler"
	"jobplane/internal/store"
	"jobplane/pkg/api"
)

// StoreFactory combines the interfaces the controller's handlers need.
type StoreFactory interface {
	Ping(ctx context.Context) error
	store.JobStoreBackend
	store.TenantStore
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	store     StoreFactory
	scheduler *scheduler.Scheduler
}

// New creates a new Handlers instance.
func New(s StoreFactory, sch *scheduler.Scheduler) *Handlers {
	return &Handlers{store: s, scheduler: sch}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// httpError maps a core error onto its HTTP status via coreerr's taxonomy.
// A nil error, or one that carries no coreerr kind, is answered with
// message and code.
func (h *Handlers) httpError(w http.ResponseWriter, err error, message string, code int) {
	var ce *coreerr.Error
	if err == nil || !errors.As(err, &ce) {
		h.respondJSON(w, code, api.ErrorResponse{Error: message})
		return
	}
	h.respondJSON(w, coreerr.HTTPStatus(ce.Kind), api.ErrorResponse{Error: message, Code: string(ce.Kind)})
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func jobToResponse(j *store.Job) api.JobResponse {
	return api.JobResponse{
		ID:             j.ID.String(),
		TenantID:       j.TenantID.String(),
		Name:           j.Name,
		Description:    j.Description,
		Kind:           string(j.Kind),
		ScheduleKind:   string(j.ScheduleKind),
		ScheduledTime:  j.ScheduledTime,
		CronExpression: j.CronExpression,
		NextRun:        j.NextRun,
		Payload:        j.Payload,
		Timeout:        j.Timeout,
		MaxRetries:     j.MaxRetries,
		Status:         string(j.Status),
		RetryCount:     j.RetryCount,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
		LastExecutedAt: j.LastExecutedAt,
	}
}

func executionToResponse(e *store.Execution) api.ExecutionResponse {
	return api.ExecutionResponse{
		ID:           e.ID.String(),
		JobID:        e.JobID.String(),
		TenantID:     e.TenantID.String(),
		StartedAt:    e.StartedAt,
		FinishedAt:   e.FinishedAt,
		Status:       string(e.Status),
		RetryAttempt: e.RetryAttempt,
		DurationMS:   e.DurationMS,
		ErrorMessage: e.ErrorMessage,
		Output:       e.Output,
	}
}
