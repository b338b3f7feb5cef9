package middleware

import (
	"context"
	"net/http"
	"strings"

	"jobplane/internal/auth"

	"github.com/google/uuid"
)

type executionIDKey struct{}

// RequireInternalAuth verifies the short-lived worker token minted for a
// specific execution and rejects requests whose token doesn't match the
// execution ID in the URL path.
func RequireInternalAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}

			executionID, err := auth.VerifyWorkerToken(jwtSecret, parts[1])
			if err != nil {
				http.Error(w, "Invalid authorization token", http.StatusUnauthorized)
				return
			}

			if pathID := r.PathValue("id"); pathID != "" && pathID != executionID {
				http.Error(w, "Token does not match execution", http.StatusForbidden)
				return
			}

			id, err := uuid.Parse(executionID)
			if err != nil {
				http.Error(w, "Invalid authorization token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), executionIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExecutionIDFromContext returns the execution ID a worker token was scoped
// to, as set by RequireInternalAuth.
func ExecutionIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(executionIDKey{}).(uuid.UUID)
	return id, ok
}

// NewContextWithExecutionID returns a context carrying id, as
// RequireInternalAuth would set it. Handler tests use this to bypass the
// token verification layer.
func NewContextWithExecutionID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, executionIDKey{}, id)
}
