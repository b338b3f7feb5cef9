// Package main is the entry point for the jobplane controller: the tenant
// HTTP API plus the Safety Sync reconciler.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobplane/internal/clock"
	"jobplane/internal/config"
	"jobplane/internal/controller"
	dispatchpg "jobplane/internal/dispatch/postgres"
	"jobplane/internal/logger"
	"jobplane/internal/observability"
	"jobplane/internal/scheduler"
	"jobplane/internal/store/postgres"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	configPath := flag.String("config", "", "Path to a YAML config file (none is read if empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.New()
	slog.SetDefault(appLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		appLog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if *migrateFlag {
		appLog.Info("running database migrations")
		if err := postgres.Migrate(st.DB()); err != nil {
			appLog.Error("migration failed", "error", err)
			os.Exit(1)
		}
		appLog.Info("migrations completed")
	}

	shutdownTracer, err := observability.Init(ctx, "jobplane-controller", cfg.OTELEndpoint)
	if err != nil {
		appLog.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			appLog.Error("failed to shutdown tracer", "error", err)
		}
	}()

	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		appLog.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			appLog.Error("failed to shutdown metrics", "error", err)
		}
	}()

	queue := dispatchpg.New(st.DB())
	sched := scheduler.New(st, queue, clock.NewReal(),
		scheduler.WithLogger(appLog),
		scheduler.WithSyncInterval(cfg.SafetySyncInterval),
		scheduler.WithClaimLimit(cfg.SafetySyncLimit),
	)

	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			appLog.Error("safety sync loop exited", "error", err)
		}
	}()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		appLog.Info("controller metrics listening", "addr", ":9091")
		if err := http.ListenAndServe(":9091", mux); err != nil {
			appLog.Error("metrics server error", "error", err)
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := controller.New(addr, st, st, sched, cfg.JWTSecret)

	go func() {
		appLog.Info("controller starting", "addr", addr)
		if err := srv.Run(ctx); err != nil && err != context.Canceled {
			appLog.Error("server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("shutting down controller")
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("server forced to shutdown", "error", err)
	}
	appLog.Info("controller exited properly")
}
