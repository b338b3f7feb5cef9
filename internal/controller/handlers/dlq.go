package handlers

import (
	"net/http"

	"jobplane/internal/controller/middleware"
	"jobplane/pkg/api"
)

// ListDeadLetters handles GET /dead-letters, a tenant-scoped view of
// dispatch items that exhausted their retry budget.
func (h *Handlers) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := middleware.TenantIDFromContext(ctx)
	if !ok {
		h.httpError(w, nil, "unauthorized", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	limit := atoiOr(q.Get("limit"), 50)
	offset := atoiOr(q.Get("offset"), 0)

	entries, err := h.store.ListDeadLetters(ctx, tenantID, limit, offset)
	if err != nil {
		h.httpError(w, err, "failed to list dead letters", http.StatusInternalServerError)
		return
	}

	resp := api.ListDeadLettersResponse{Entries: make([]api.DeadLetterResponse, len(entries))}
	for i, e := range entries {
		resp.Entries[i] = api.DeadLetterResponse{
			ID:           e.ID.String(),
			JobID:        e.JobID.String(),
			ExecutionID:  e.ExecutionID.String(),
			Payload:      e.Payload,
			ErrorMessage: e.ErrorMessage,
			Attempts:     e.Attempts,
			FailedAt:     e.FailedAt,
		}
	}
	h.respondJSON(w, http.StatusOK, resp)
}
