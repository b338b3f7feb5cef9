// Package middleware contains HTTP middleware for the controller API.
package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"jobplane/internal/auth"
	"jobplane/internal/store"
	"jobplane/pkg/api"

	"github.com/google/uuid"
)

type tenantKey struct{}

// AuthMiddleware authenticates a request by its "Bearer <api-key>" header,
// hashing the key and looking up the owning tenant. Every tenant-scoped
// operation runs behind this middleware.
func AuthMiddleware(ts store.TenantStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 3)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				writeUnauthorized(w, "invalid authorization header")
				return
			}

			hash := auth.HashKey(parts[1])
			tenant, err := ts.GetTenantByAPIKeyHash(r.Context(), hash)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				writeError(w, http.StatusInternalServerError, "failed to authenticate")
				return
			}
			if tenant == nil {
				writeUnauthorized(w, "invalid api key")
				return
			}

			ctx := context.WithValue(r.Context(), tenantKey{}, tenant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewContextWithTenant returns a context carrying tenant, as AuthMiddleware
// would set it. Handler tests use this to bypass the HTTP auth layer.
func NewContextWithTenant(ctx context.Context, tenant *store.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenant)
}

// TenantFromContext returns the authenticated tenant set by AuthMiddleware.
func TenantFromContext(ctx context.Context) (*store.Tenant, bool) {
	tenant, ok := ctx.Value(tenantKey{}).(*store.Tenant)
	return tenant, ok
}

// TenantIDFromContext returns the authenticated tenant's ID.
func TenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	tenant, ok := TenantFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return tenant.ID, true
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusUnauthorized, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: msg})
}
