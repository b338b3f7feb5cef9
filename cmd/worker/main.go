// Package main is the entry point for the jobplane worker process: the
// Executor worker pool that drains the Delayed Dispatch Queue.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"jobplane/internal/clock"
	"jobplane/internal/config"
	dispatchpg "jobplane/internal/dispatch/postgres"
	"jobplane/internal/executor"
	"jobplane/internal/executor/runtime"
	"jobplane/internal/logger"
	"jobplane/internal/notify"
	"jobplane/internal/observability"
	"jobplane/internal/scheduler"
	"jobplane/internal/store/postgres"

	"github.com/go-redis/redis/v8"
)

func main() {
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

	shutdownTracer, err := observability.Init(ctx, "jobplane-worker", cfg.OTELEndpoint)
	if err != nil {
		appLog.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			appLog.Error("failed to shutdown tracer", "error", err)
		}
	}()

	st, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		appLog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	queue := dispatchpg.New(st.DB())
	clk := clock.NewReal()
	sched := scheduler.New(st, queue, clk)

	sink := notify.Sink(notify.Noop{})
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			appLog.Error("invalid redis url", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(opts)
		sink = notify.NewRedisSink(redisClient, appLog)
	} else {
		appLog.Warn("no redis url configured, job failure notifications are disabled")
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		appLog.Error("failed to initialize execution runtime", "error", err)
		os.Exit(1)
	}

	registry := executor.NewRegistry()
	registry.Register("noop", executor.NoopLogic)
	registry.Register("container", executor.NewContainerLogic(rt, st))

	exec := executor.New(st, queue, registry, sched, sink, clk, executor.Config{
		Concurrency:         cfg.WorkerConcurrency,
		PollInterval:        cfg.WorkerPollInterval,
		MaxBackoff:          cfg.WorkerMaxBackoff,
		HeartbeatInterval:   cfg.WorkerHeartbeatInterval,
		VisibilityExtension: cfg.HeartVisibilityExtension,
		BackoffBase:         cfg.WorkerBackoffBase,
	}, executor.WithLogger(appLog))

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

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		appLog.Info("worker metrics listening", "addr", ":6162")
		if err := http.ListenAndServe(":6162", mux); err != nil {
			appLog.Error("metrics server error", "error", err)
		}
	}()

	appLog.Info("worker starting", "concurrency", cfg.WorkerConcurrency, "runtime", cfg.Runtime)
	go func() {
		if err := exec.Run(ctx); err != nil && ctx.Err() == nil {
			appLog.Error("executor run loop exited", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("shutting down worker")
	cancel()
	<-exec.Done()
	appLog.Info("worker exited properly")
}

func newRuntime(cfg *config.Config) (runtime.Runtime, error) {
	switch cfg.Runtime {
	case "exec":
		return runtime.NewExecRuntime(), nil
	case "kubernetes":
		return runtime.NewKubernetesRuntime(runtime.KubernetesConfig{
			Namespace:          cfg.KubernetesNamespace,
			ServiceAccount:     cfg.KubernetesServiceAccount,
			DefaultCPULimit:    cfg.KubernetesCPULimit,
			DefaultMemoryLimit: cfg.KubernetesMemoryLimit,
		})
	case "docker":
		fallthrough
	default:
		return runtime.NewDockerRuntime()
	}
}
