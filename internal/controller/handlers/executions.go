package handlers

import (
	"net/http"

	"jobplane/internal/controller/middleware"
	"jobplane/internal/store"
	"jobplane/pkg/api"

	"github.com/google/uuid"
)

// GetExecution handles GET /executions/{id}.
func (h *Handlers) GetExecution(w http.ResponseWriter, r *http.Request) {
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

	execution, err := h.store.GetExecution(ctx, tenantID, executionID)
	if err != nil {
		h.httpError(w, err, "execution not found", http.StatusNotFound)
		return
	}
	h.respondJSON(w, http.StatusOK, executionToResponse(execution))
}

// ListExecutions handles GET /jobs/{id}/executions.
func (h *Handlers) ListExecutions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, nil, "invalid job id", http.StatusBadRequest)
		return
	}

	tenantID, ok := middleware.TenantIDFromContext(ctx)
	if !ok {
		h.httpError(w, nil, "unauthorized", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	page := store.Page{
		Limit:  atoiOr(q.Get("limit"), 50),
		Offset: atoiOr(q.Get("offset"), 0),
		Desc:   true,
	}

	result, err := h.store.ListExecutions(ctx, tenantID, jobID, page)
	if err != nil {
		h.httpError(w, err, "failed to list executions", http.StatusInternalServerError)
		return
	}

	resp := api.ListExecutionsResponse{Total: result.Total, Executions: make([]api.ExecutionResponse, len(result.Items))}
	for i := range result.Items {
		resp.Executions[i] = executionToResponse(&result.Items[i])
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// ---------------------------------------------------------------------------
// Internal worker callbacks. These sit behind RequireInternalAuth, not the
// tenant AuthMiddleware, and are scoped to the execution named in the token.
// ---------------------------------------------------------------------------

// InternalHeartbeat handles PUT /internal/executions/{id}/heartbeat.
func (h *Handlers) InternalHeartbeat(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// InternalResult handles PUT /internal/executions/{id}/result and records a
// worker's final status for the execution it was scoped to run.
func (h *Handlers) InternalResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	executionID, ok := middleware.ExecutionIDFromContext(ctx)
	if !ok {
		h.httpError(w, nil, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.WorkerResultRequest
	if err := decodeJSON(r, &req); err != nil {
		h.httpError(w, nil, "invalid request body", http.StatusBadRequest)
		return
	}

	status := store.ExecutionStatus(req.Status)
	var errMsg *string
	if req.ErrorMessage != "" {
		errMsg = &req.ErrorMessage
	}
	if err := h.store.FinalizeExecution(ctx, executionID, status, errMsg, req.Output); err != nil {
		h.httpError(w, err, "failed to record execution result", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
