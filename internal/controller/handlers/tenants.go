package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"jobplane/internal/auth"
	"jobplane/internal/store"
	"jobplane/pkg/api"

	"github.com/google/uuid"
)

// CreateTenant handles POST /tenants (administrative only). It generates a
// new API key, hashes it for storage, and returns the raw key once.
func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateTenantRequest
	if err := decodeJSON(r, &req); err != nil {
		h.httpError(w, nil, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		h.httpError(w, nil, "name is required", http.StatusBadRequest)
		return
	}

	rawKeyBytes := make([]byte, 32)
	if _, err := rand.Read(rawKeyBytes); err != nil {
		h.httpError(w, nil, "entropy failure", http.StatusInternalServerError)
		return
	}
	apiKey := "jp_" + hex.EncodeToString(rawKeyBytes)
	hashedKey := auth.HashKey(apiKey)

	tenant := &store.Tenant{
		ID:                      uuid.New(),
		Name:                    req.Name,
		RateLimit:               req.RateLimit,
		RateLimitBurst:          req.RateLimitBurst,
		MaxConcurrentExecutions: req.MaxConcurrentExecutions,
		CreatedAt:               time.Now().UTC(),
	}

	if err := h.store.CreateTenant(ctx, tenant, hashedKey); err != nil {
		h.httpError(w, err, "failed to create tenant", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusCreated, api.CreateTenantResponse{
		ID:     tenant.ID.String(),
		Name:   tenant.Name,
		ApiKey: apiKey,
	})
}
