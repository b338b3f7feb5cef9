package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"jobplane/internal/clock"
	"jobplane/internal/store"
)

// JobLogic is the pluggable unit of work the core invokes for every
// execution. The core only provides the container around it: invocation,
// timeout, result capture, retry (§9 Design Notes).
type JobLogic func(ctx context.Context, job *store.Job, execution *store.Execution, clk clock.Clock, log *slog.Logger) (output json.RawMessage, err error)

// Payload is the wire shape of Job.Payload: a type tag the registry
// dispatches on, plus opaque data that the resolved JobLogic parses from the
// job's payload itself. The core never interprets Data.
type Payload struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Registry maps a payload type tag to a JobLogic implementation.
type Registry struct {
	mu    sync.RWMutex
	logic map[string]JobLogic
}

func NewRegistry() *Registry {
	return &Registry{logic: make(map[string]JobLogic)}
}

func (r *Registry) Register(typeTag string, logic JobLogic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logic[typeTag] = logic
}

func (r *Registry) Resolve(typeTag string) (JobLogic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.logic[typeTag]
	return l, ok
}

// NoopLogic succeeds immediately without doing anything. It ships as the
// registry's "noop" entry and backs the TriggerJob smoke-test path.
func NoopLogic(ctx context.Context, job *store.Job, execution *store.Execution, clk clock.Clock, log *slog.Logger) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

// ParsePayload splits a Job's opaque payload into its type tag and data.
func ParsePayload(raw json.RawMessage) (Payload, error) {
	var p Payload
	if len(raw) == 0 {
		return Payload{Type: "noop"}, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("failed to parse job payload: %w", err)
	}
	if p.Type == "" {
		p.Type = "noop"
	}
	return p, nil
}
