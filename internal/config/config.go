// Package config loads configuration from environment variables (including
// any a .env file adds to the environment), an optional YAML file, and
// built-in defaults, in that order of precedence (env wins).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values for the controller and worker.
type Config struct {
	DatabaseURL string
	RedisURL    string

	HTTPPort      int
	ControllerURL string

	// JWTSecret signs the short-lived tokens workers use to call back into
	// the controller.
	JWTSecret string

	WorkerConcurrency        int
	WorkerPollInterval       time.Duration
	WorkerMaxBackoff         time.Duration
	WorkerHeartbeatInterval  time.Duration
	HeartVisibilityExtension time.Duration
	WorkerBackoffBase        time.Duration

	SafetySyncInterval time.Duration
	SafetySyncLimit    int

	// Runtime selects the executor.NewContainerLogic backend: docker,
	// kubernetes, or exec.
	Runtime        string
	RuntimeWorkDir string

	KubernetesNamespace      string
	KubernetesServiceAccount string
	KubernetesCPULimit       string
	KubernetesMemoryLimit    string

	OTELEndpoint string
	LogLevel     string
}

var validRuntimes = map[string]bool{"docker": true, "kubernetes": true, "exec": true}

// Load reads configuration from an optional YAML file at path (skipped if
// empty), a .env file in the working directory (if present), and environment
// variables, with environment variables taking precedence over both.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("http_port", 6161)
	v.SetDefault("controller_url", "http://localhost:6161")
	v.SetDefault("worker_concurrency", 5)
	v.SetDefault("worker_poll_interval", "1s")
	v.SetDefault("worker_max_backoff", "30s")
	v.SetDefault("worker_heartbeat_interval", "2m")
	v.SetDefault("heartbeat_visibility_extension", "5m")
	v.SetDefault("worker_backoff_base", "60s")
	v.SetDefault("safety_sync_interval", "5m")
	v.SetDefault("safety_sync_limit", 1000)
	v.SetDefault("runtime", "docker")
	v.SetDefault("runtime_workdir", "")
	v.SetDefault("kubernetes_namespace", "default")
	v.SetDefault("kubernetes_service_account", "")
	v.SetDefault("kubernetes_cpu_limit", "500m")
	v.SetDefault("kubernetes_memory_limit", "512Mi")
	v.SetDefault("otel_exporter_otlp_endpoint", "localhost:4317")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("")
	v.AutomaticEnv()
	bindEnv(v, "database_url", "DATABASE_URL")
	bindEnv(v, "redis_url", "REDIS_URL")
	bindEnv(v, "http_port", "PORT")
	bindEnv(v, "controller_url", "CONTROLLER_URL")
	bindEnv(v, "jwt_secret", "JWT_SECRET")
	bindEnv(v, "worker_concurrency", "WORKER_CONCURRENCY")
	bindEnv(v, "worker_poll_interval", "WORKER_POLL_INTERVAL")
	bindEnv(v, "worker_max_backoff", "WORKER_MAX_BACKOFF")
	bindEnv(v, "worker_heartbeat_interval", "WORKER_HEARTBEAT_INTERVAL")
	bindEnv(v, "heartbeat_visibility_extension", "HEARTBEAT_VISIBILITY_EXTENSION")
	bindEnv(v, "worker_backoff_base", "WORKER_BACKOFF_BASE")
	bindEnv(v, "safety_sync_interval", "SAFETY_SYNC_INTERVAL")
	bindEnv(v, "safety_sync_limit", "SAFETY_SYNC_LIMIT")
	bindEnv(v, "runtime", "RUNTIME")
	bindEnv(v, "runtime_workdir", "RUNTIME_WORKDIR")
	bindEnv(v, "kubernetes_namespace", "KUBERNETES_NAMESPACE")
	bindEnv(v, "kubernetes_service_account", "KUBERNETES_SERVICE_ACCOUNT")
	bindEnv(v, "kubernetes_cpu_limit", "KUBERNETES_CPU_LIMIT")
	bindEnv(v, "kubernetes_memory_limit", "KUBERNETES_MEMORY_LIMIT")
	bindEnv(v, "otel_exporter_otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	bindEnv(v, "log_level", "LOG_LEVEL")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	dbURL := v.GetString("database_url")
	if dbURL == "" {
		return nil, fmt.Errorf("database_url is required (env: DATABASE_URL)")
	}

	runtime := strings.ToLower(v.GetString("runtime"))
	if !validRuntimes[runtime] {
		return nil, fmt.Errorf("invalid runtime %q: must be docker, kubernetes, or exec", runtime)
	}

	cfg := &Config{
		DatabaseURL:              dbURL,
		RedisURL:                 v.GetString("redis_url"),
		HTTPPort:                 v.GetInt("http_port"),
		ControllerURL:            v.GetString("controller_url"),
		JWTSecret:                v.GetString("jwt_secret"),
		WorkerConcurrency:        v.GetInt("worker_concurrency"),
		WorkerPollInterval:       v.GetDuration("worker_poll_interval"),
		WorkerMaxBackoff:         v.GetDuration("worker_max_backoff"),
		WorkerHeartbeatInterval:  v.GetDuration("worker_heartbeat_interval"),
		HeartVisibilityExtension: v.GetDuration("heartbeat_visibility_extension"),
		WorkerBackoffBase:        v.GetDuration("worker_backoff_base"),
		SafetySyncInterval:       v.GetDuration("safety_sync_interval"),
		SafetySyncLimit:          v.GetInt("safety_sync_limit"),
		Runtime:                  runtime,
		RuntimeWorkDir:           v.GetString("runtime_workdir"),
		KubernetesNamespace:      v.GetString("kubernetes_namespace"),
		KubernetesServiceAccount: v.GetString("kubernetes_service_account"),
		KubernetesCPULimit:       v.GetString("kubernetes_cpu_limit"),
		KubernetesMemoryLimit:    v.GetString("kubernetes_memory_limit"),
		OTELEndpoint:             v.GetString("otel_exporter_otlp_endpoint"),
		LogLevel:                 v.GetString("log_level"),
	}

	return cfg, nil
}

func bindEnv(v *viper.Viper, key, env string) {
	_ = v.BindEnv(key, env)
	if val := os.Getenv(env); val != "" {
		v.Set(key, val)
	}
}
