package executor

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"jobplane/internal/clock"
	"jobplane/internal/executor/runtime"
	"jobplane/internal/store"

	"github.com/google/uuid"
)

// containerPayload is the Data shape for the "container" payload type.
type containerPayload struct {
	Image   string            `json:"image"`
	Command []string          `json:"command"`
	Env     map[string]string `json:"env"`
}

type containerOutput struct {
	ExitCode int `json:"exit_code"`
}

// NewContainerLogic builds a JobLogic that runs a job's payload as a
// container workload via rt, streaming its output into the execution's log
// and returning its exit code as the execution output. This is how a job
// whose payload names an image and command runs, without the core knowing
// anything about containers.
func NewContainerLogic(rt runtime.Runtime, st store.JobStoreBackend) JobLogic {
	return func(ctx context.Context, job *store.Job, execution *store.Execution, clk clock.Clock, log *slog.Logger) (json.RawMessage, error) {
		payload, err := ParsePayload(job.Payload)
		if err != nil {
			return nil, err
		}
		var spec containerPayload
		if err := json.Unmarshal(payload.Data, &spec); err != nil {
			return nil, fmt.Errorf("invalid container payload: %w", err)
		}

		handle, err := rt.Start(ctx, runtime.StartOptions{
			Image:   spec.Image,
			Command: spec.Command,
			Env:     spec.Env,
			Timeout: job.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to start container: %w", err)
		}

		if rc, err := handle.StreamLogs(ctx); err == nil {
			go streamContainerLogs(ctx, st, execution.ID, rc, log)
		} else {
			log.Warn("failed to open container log stream", "error", err)
		}

		result, err := handle.Wait(ctx)
		if err != nil {
			handle.Stop(context.Background())
			return nil, err
		}
		if result.ExitCode != 0 {
			msg := fmt.Sprintf("container exited with code %d", result.ExitCode)
			if result.Error != nil {
				msg = result.Error.Error()
			}
			return nil, fmt.Errorf("%s", msg)
		}

		out, _ := json.Marshal(containerOutput{ExitCode: result.ExitCode})
		return out, nil
	}
}

// streamContainerLogs relays a container's combined stdout/stderr into the
// execution's append-only log, one line at a time.
func streamContainerLogs(ctx context.Context, st store.JobStoreBackend, executionID uuid.UUID, rc io.ReadCloser, log *slog.Logger) {
	defer rc.Close()
	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		if err := st.AppendLog(ctx, executionID, store.LogLevelInfo, scanner.Text(), nil); err != nil {
			log.Warn("failed to append container log line", "error", err)
		}
	}
}
