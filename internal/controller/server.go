// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"net/http"
	"time"

	"jobplane/internal/controller/handlers"
	"jobplane/internal/controller/middleware"
	"jobplane/internal/scheduler"
	"jobplane/internal/store"
)

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// New creates a new controller server. jwtSecret is the HMAC key the
// /internal routes verify worker tokens against; an empty secret does not
// bypass that check.
func New(addr string, st handlers.StoreFactory, ts store.TenantStore, sch *scheduler.Scheduler, jwtSecret string) *Server {
	h := handlers.New(st, sch)
	authMW := middleware.AuthMiddleware(ts)
	rateLimitMW := middleware.RateLimitMiddleware(ts)
	internalMW := middleware.RequireInternalAuth(jwtSecret)

	tenantScoped := func(next http.HandlerFunc) http.Handler {
		return authMW(rateLimitMW(next))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)

	mux.HandleFunc("POST /tenants", h.CreateTenant)

	mux.Handle("POST /jobs", tenantScoped(h.CreateJob))
	mux.Handle("GET /jobs", tenantScoped(h.ListJobs))
	mux.Handle("GET /jobs/{id}", tenantScoped(h.GetJob))
	mux.Handle("PATCH /jobs/{id}", tenantScoped(h.UpdateJob))
	mux.Handle("DELETE /jobs/{id}", tenantScoped(h.DeleteJob))
	mux.Handle("POST /jobs/{id}/pause", tenantScoped(h.PauseJob))
	mux.Handle("POST /jobs/{id}/resume", tenantScoped(h.ResumeJob))
	mux.Handle("POST /jobs/{id}/trigger", tenantScoped(h.TriggerJob))
	mux.Handle("GET /jobs/{id}/executions", tenantScoped(h.ListExecutions))
	mux.Handle("GET /upcoming-jobs", tenantScoped(h.UpcomingJobs))

	mux.Handle("GET /executions/{id}", tenantScoped(h.GetExecution))
	mux.Handle("GET /executions/{id}/logs", tenantScoped(h.GetExecutionLogs))

	mux.Handle("GET /dead-letters", tenantScoped(h.ListDeadLetters))

	// Internal endpoints, called by the Worker. These run behind a
	// short-lived per-execution token rather than a tenant API key and
	// should also sit behind stricter network rules in production.
	mux.Handle("PUT /internal/executions/{id}/heartbeat", internalMW(http.HandlerFunc(h.InternalHeartbeat)))
	mux.Handle("PUT /internal/executions/{id}/result", internalMW(http.HandlerFunc(h.InternalResult)))
	mux.Handle("POST /internal/executions/{id}/logs", internalMW(http.HandlerFunc(h.InternalAppendLog)))

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
