package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"jobplane/pkg/api"
)

// JobClient handles API calls to the jobplane controller.
type JobClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewJobClient creates a new client with the given base URL and token.
func NewJobClient(baseURL, token string) *JobClient {
	return &JobClient{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (c *JobClient) do(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// CreateJob sends POST /jobs to declare a new job.
func (c *JobClient) CreateJob(req api.CreateJobRequest) (*api.JobResponse, error) {
	var result api.JobResponse
	if err := c.do(http.MethodPost, "/jobs", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TriggerJob sends POST /jobs/{id}/trigger for a manual, out-of-band run.
func (c *JobClient) TriggerJob(jobID string) (*api.TriggerJobResponse, error) {
	var result api.TriggerJobResponse
	if err := c.do(http.MethodPost, fmt.Sprintf("/jobs/%s/trigger", jobID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetExecution sends GET /executions/{id}.
func (c *JobClient) GetExecution(executionID string) (*api.ExecutionResponse, error) {
	var result api.ExecutionResponse
	if err := c.do(http.MethodGet, fmt.Sprintf("/executions/%s", executionID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetLogs sends GET /executions/{id}/logs, returning lines with ID greater than afterID.
func (c *JobClient) GetLogs(executionID string, afterID int64) ([]api.LogEntryResponse, error) {
	var result api.GetLogsResponse
	path := fmt.Sprintf("/executions/%s/logs?after_id=%d", executionID, afterID)
	if err := c.do(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Logs, nil
}

// UpcomingJobs sends GET /upcoming-jobs?horizon_seconds=N.
func (c *JobClient) UpcomingJobs(horizon time.Duration) (*api.ListJobsResponse, error) {
	var result api.ListJobsResponse
	path := fmt.Sprintf("/upcoming-jobs?horizon_seconds=%d", int(horizon.Seconds()))
	if err := c.do(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListDeadLetters sends GET /dead-letters.
func (c *JobClient) ListDeadLetters(limit, offset int) ([]api.DeadLetterResponse, error) {
	var result api.ListDeadLettersResponse
	path := fmt.Sprintf("/dead-letters?limit=%d&offset=%d", limit, offset)
	if err := c.do(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Entries, nil
}
