package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"
)

const failureChannel = "jobplane:notifications:job_failure"

// RedisSink publishes job_failure notifications to a Redis pub/sub channel,
// the same client-construction pattern kenjpais-godoit's cache/redishandler
// package uses (one shared *redis.Client, context carried per call). A
// gobreaker circuit breaker wraps the publish call so a Redis outage trips
// open instead of blocking the Executor's terminal-failure path.
type RedisSink struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	log     *slog.Logger
}

func NewRedisSink(client *redis.Client, log *slog.Logger) *RedisSink {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notify.redis",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &RedisSink{client: client, breaker: cb, log: log}
}

func (s *RedisSink) Emit(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification for job %s: %w", n.JobID, err)
	}

	_, err = s.breaker.Execute(func() (interface{}, error) {
		return nil, s.client.Publish(ctx, failureChannel, payload).Err()
	})
	if err != nil {
		s.log.Warn("failed to publish job failure notification", "job_id", n.JobID, "error", err)
		return fmt.Errorf("failed to publish notification for job %s: %w", n.JobID, err)
	}
	return nil
}

// Ping verifies Redis connectivity, mirroring the health check
// kenjpais-godoit's GetRedisClient performs at construction time.
func (s *RedisSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
