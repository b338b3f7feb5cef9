package cmd

import (
	"encoding/json"
	"errors"
	"time"

	"jobplane/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	errRequiredAt      = errors.New("--at is required for --schedule=at")
	errRequiredCron    = errors.New("--cron is required for --schedule=cron")
	errUnknownSchedule = errors.New("--schedule must be immediate, at, or cron")
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new job definition",
	Long: `Create a new job definition that runs a container workload on the schedule you choose.

Example:
  jobctl create --name "my-job" --image "alpine:latest" --command echo,hello
  jobctl create --name "nightly-report" --image "python:3.11" --command python,report.py --schedule cron --cron "0 2 * * *"`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		description, _ := flags.GetString("description")
		image, _ := flags.GetString("image")
		command, _ := flags.GetStringSlice("command")
		timeout, _ := flags.GetInt("timeout")
		maxRetries, _ := flags.GetInt("max-retries")
		schedule, _ := flags.GetString("schedule")
		cronExpr, _ := flags.GetString("cron")
		at, _ := flags.GetString("at")

		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the JOBPLANE_TOKEN environment variable")
			return
		}
		if name == "" {
			cmd.Println("Error: --name is required")
			return
		}
		if image == "" {
			cmd.Println("Error: --image is required")
			return
		}
		if len(command) == 0 {
			cmd.Println("Error: --command is required")
			return
		}

		req, err := buildCreateJobRequest(name, description, image, command, timeout, maxRetries, schedule, cronExpr, at)
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			return
		}

		client := NewJobClient(url, token)
		result, err := client.CreateJob(*req)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Error: %v\n", err)
			}
			return
		}

		cmd.Printf("Job created!\nID: %s\nName: %s\nStatus: %s\n", result.ID, result.Name, result.Status)
	},
}

// buildCreateJobRequest assembles the API request for a container-backed job
// from CLI flags, wrapping image/command as the container payload type
// the executor's registry dispatches on.
func buildCreateJobRequest(name, description, image string, command []string, timeout, maxRetries int, schedule, cronExpr, at string) (*api.CreateJobRequest, error) {
	data, err := json.Marshal(struct {
		Image   string   `json:"image"`
		Command []string `json:"command"`
	}{Image: image, Command: command})
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}{Type: "container", Data: data})
	if err != nil {
		return nil, err
	}

	req := &api.CreateJobRequest{
		Name:        name,
		Description: description,
		Kind:        "one_time",
		Payload:     payload,
		Timeout:     timeout,
		MaxRetries:  maxRetries,
	}

	switch schedule {
	case "", "immediate":
		req.ScheduleKind = "immediate"
	case "at":
		if at == "" {
			return nil, errRequiredAt
		}
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return nil, err
		}
		req.ScheduleKind = "at"
		req.ScheduledTime = &parsed
	case "cron":
		if cronExpr == "" {
			return nil, errRequiredCron
		}
		req.Kind = "recurring"
		req.ScheduleKind = "cron"
		req.CronExpression = cronExpr
	default:
		return nil, errUnknownSchedule
	}
	return req, nil
}

func init() {
	flags := createCmd.Flags()
	flags.StringP("name", "n", "", "Name of the job (required)")
	flags.String("description", "", "Description of the job")
	flags.StringP("image", "i", "", "Container image (required)")
	flags.StringSliceP("command", "c", []string{}, "Command to execute (required)")
	flags.Int("timeout", 0, "Timeout in seconds (optional)")
	flags.Int("max-retries", 0, "Maximum retry attempts on failure")
	flags.String("schedule", "immediate", "Schedule kind: immediate, at, or cron")
	flags.String("cron", "", "Cron expression, required when --schedule=cron")
	flags.String("at", "", "RFC3339 timestamp, required when --schedule=at")

	rootCmd.AddCommand(createCmd)
}
