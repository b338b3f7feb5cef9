package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Create and immediately trigger a job",
	Long: `Create a new job definition and immediately trigger an execution.

This is a convenience command that combines 'create' and 'trigger' into a single step.

Example:
  jobctl submit --name "my-job" --image "alpine:latest" --command "echo,hello"
  jobctl submit --name "python-script" --image "python:3.11" --command "python,-c,print('hello')" --timeout 300`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		description, _ := flags.GetString("description")
		image, _ := flags.GetString("image")
		command, _ := flags.GetStringSlice("command")
		timeout, _ := flags.GetInt("timeout")
		maxRetries, _ := flags.GetInt("max-retries")

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

		req, err := buildCreateJobRequest(name, description, image, command, timeout, maxRetries, "immediate", "", "")
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			return
		}

		client := NewJobClient(url, token)

		job, err := client.CreateJob(*req)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Create failed (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Create failed: %v\n", err)
			}
			return
		}

		trigger, err := client.TriggerJob(job.ID)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Job created (ID: %s) but trigger failed (%d): %s\n", job.ID, apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Job created (ID: %s) but trigger failed: %v\n", job.ID, err)
			}
			return
		}

		cmd.Printf("Job submitted!\nJob ID: %s\n", trigger.JobID)
	},
}

func init() {
	flags := submitCmd.Flags()
	flags.StringP("name", "n", "", "Name of the job (required)")
	flags.String("description", "", "Description of the job")
	flags.StringP("image", "i", "", "Container image (required)")
	flags.StringSliceP("command", "c", []string{}, "Command to execute (required)")
	flags.Int("timeout", 0, "Timeout in seconds (optional)")
	flags.Int("max-retries", 0, "Maximum retry attempts on failure")

	rootCmd.AddCommand(submitCmd)
}
