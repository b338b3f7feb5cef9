// Package runtime provides pluggable container execution backends. It backs
// one concrete JobLogic (executor.NewContainerLogic) among possibly many; the
// core itself has no notion of containers.
package runtime

import (
	"context"
	"io"
)

// Runtime starts a container workload and returns a handle to it.
type Runtime interface {
	Start(ctx context.Context, opts StartOptions) (Handle, error)
}

// StartOptions describes the workload to start.
type StartOptions struct {
	Image   string
	Command []string
	Env     map[string]string
	Timeout int // seconds
}

// ExitResult is the outcome of a completed container run.
type ExitResult struct {
	ExitCode int
	Error    error
}

// Handle represents a running container workload.
type Handle interface {
	Wait(ctx context.Context) (ExitResult, error)
	Stop(ctx context.Context) error
	StreamLogs(ctx context.Context) (io.ReadCloser, error)
}
