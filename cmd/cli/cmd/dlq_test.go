package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jobplane/pkg/api"

	"github.com/spf13/viper"
)

func TestDLQList_Success(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET method, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/dead-letters") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		resp := api.ListDeadLettersResponse{
			Entries: []api.DeadLetterResponse{
				{
					ID:           "dlq-1",
					ExecutionID:  "exec-dead-1",
					JobID:        "job-1",
					ErrorMessage: "runtime error: out of memory",
					Attempts:     6,
					FailedAt:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
				},
			},
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "test-token")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"dlq", "list"})

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()

	expectedStrings := []string{
		"EXECUTION ID", "JOB ID", "ATTEMPTS", "ERROR",
		"exec-dead-1", "job-1", "runtime error: out of memory",
	}

	for _, s := range expectedStrings {
		if !strings.Contains(output, s) {
			t.Errorf("expected output to contain %q, got:\n%s", s, output)
		}
	}
}

func TestDLQList_MissingToken(t *testing.T) {
	resetViper()

	viper.Set("url", "http://localhost:6161")
	viper.Set("token", "")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"dlq", "list"})

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "API token not found") {
		t.Errorf("expected token error message, got: %s", output)
	}
}

func TestDLQList_Pagination(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("limit") != "5" {
			t.Errorf("expected limit=5, got %s", query.Get("limit"))
		}
		if query.Get("offset") != "10" {
			t.Errorf("expected offset=10, got %s", query.Get("offset"))
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(api.ListDeadLettersResponse{})
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "test-token")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"dlq", "list", "--limit", "5", "--offset", "10"})

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDLQList_Empty(t *testing.T) {
	resetViper()
	dlqListCmd.Flags().Set("limit", "50")
	dlqListCmd.Flags().Set("offset", "0")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(api.ListDeadLettersResponse{})
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "test-token")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"dlq", "list"})

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "No dead-lettered executions found.") {
		t.Errorf("expected empty message, got: %s", output)
	}
}

func TestDLQList_ErrorTruncation(t *testing.T) {
	resetViper()
	dlqListCmd.Flags().Set("limit", "50")
	dlqListCmd.Flags().Set("offset", "0")

	longError := strings.Repeat("x", 80)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := api.ListDeadLettersResponse{
			Entries: []api.DeadLetterResponse{
				{
					ID:           "dlq-2",
					ExecutionID:  "exec-dead-2",
					JobID:        "job-2",
					ErrorMessage: longError,
					Attempts:     3,
					FailedAt:     time.Now(),
				},
			},
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "test-token")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"dlq", "list"})

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "...") {
		t.Errorf("expected long error message to be truncated, got: %s", output)
	}
}
