package handlers

import (
	"net/http"

	"jobplane/internal/controller/middleware"
	"jobplane/internal/store"
	"jobplane/pkg/api"

	"github.com/google/uuid"
)

// InternalAppendLog handles POST /internal/executions/{id}/logs, called by a
// worker to append one log line for the execution its token is scoped to.
func (h *Handlers) InternalAppendLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	executionID, ok := middleware.ExecutionIDFromContext(ctx)
	if !ok {
		h.httpError(w, nil, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.WorkerLogRequest
	if err := decodeJSON(r, &req); err != nil {
		h.httpError(w, nil, "invalid request body", http.StatusBadRequest)
		return
	}
	level := store.LogLevel(req.Level)
	if level == "" {
		level = store.LogLevelInfo
	}

	if err := h.store.AppendLog(ctx, executionID, level, req.Message, req.Metadata); err != nil {
		h.httpError(w, err, "failed to persist log", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// GetExecutionLogs handles GET /executions/{id}/logs.
func (h *Handlers) GetExecutionLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	executionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, nil, "invalid execution id", http.StatusBadRequest)
		return
	}

	tenantID, ok := middleware.TenantIDFromContext(ctx)
	if !ok {
		h.httpError(w, nil, "unauthorized", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	limit := atoiOr(q.Get("limit"), 1000)
	if limit > 10000 {
		limit = 10000
	}
	var afterID int64
	if after := q.Get("after_id"); after != "" {
		afterID = int64(atoiOr(after, 0))
	}

	// Verify ownership before exposing logs.
	if _, err := h.store.GetExecution(ctx, tenantID, executionID); err != nil {
		h.httpError(w, err, "execution not found", http.StatusNotFound)
		return
	}

	logs, err := h.store.GetExecutionLogs(ctx, executionID, afterID, limit)
	if err != nil {
		h.httpError(w, err, "failed to fetch logs", http.StatusInternalServerError)
		return
	}

	resp := api.GetLogsResponse{Logs: make([]api.LogEntryResponse, len(logs))}
	for i, l := range logs {
		resp.Logs[i] = api.LogEntryResponse{
			ID:        l.ID,
			Level:     string(l.Level),
			Message:   l.Message,
			Timestamp: l.Timestamp,
			Metadata:  l.Metadata,
		}
	}
	h.respondJSON(w, http.StatusOK, resp)
}
