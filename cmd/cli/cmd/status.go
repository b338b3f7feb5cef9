package cmd

import (
	"fmt"
	"time"

	"jobplane/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statusCmd = &cobra.Command{
	Use:   "status [execution_id]",
	Short: "Get status of an execution",
	Long:  `Retrieve detailed status information for a job execution, including its current state, retry attempt, and timestamps.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		executionID := args[0]

		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the JOBPLANE_TOKEN environment variable")
			return
		}

		client := NewJobClient(url, token)
		execution, err := client.GetExecution(executionID)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Error: %v\n", err)
			}
			return
		}

		printStatus(cmd, *execution)
	},
}

func printStatus(cmd *cobra.Command, execution api.ExecutionResponse) {
	icon := statusIcon(execution.Status)
	cmd.Printf("%s %sExecution Details%s\n", icon, colorBold, colorReset)
	cmd.Println("──────────────────────────────")

	cmd.Printf("%sID:%s            %s\n", colorDim, colorReset, execution.ID)
	cmd.Printf("%sJob ID:%s        %s\n", colorDim, colorReset, execution.JobID)
	cmd.Printf("%sStatus:%s        %s\n", colorDim, colorReset, colorizeStatus(execution.Status))
	cmd.Printf("%sRetry Attempt:%s %d\n", colorDim, colorReset, execution.RetryAttempt)

	if execution.ErrorMessage != nil {
		cmd.Printf("%sError:%s         %s%s%s\n", colorDim, colorReset, colorRed, *execution.ErrorMessage, colorReset)
	}

	cmd.Printf("%sStarted:%s       %s\n", colorDim, colorReset, formatTimeWithRelative(&execution.StartedAt))
	if execution.FinishedAt != nil {
		duration := execution.FinishedAt.Sub(execution.StartedAt)
		cmd.Printf("%sFinished:%s      %s %s(%s)%s\n", colorDim, colorReset,
			formatTimeWithRelative(execution.FinishedAt),
			colorCyan, formatDuration(duration), colorReset)
	} else {
		cmd.Printf("%sFinished:%s      -\n", colorDim, colorReset)
	}

	if len(execution.Output) > 0 {
		cmd.Printf("%sOutput:%s        %s\n", colorDim, colorReset, string(execution.Output))
	}
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func statusIcon(status string) string {
	switch status {
	case "success":
		return colorGreen + "✓" + colorReset
	case "failed", "timeout":
		return colorRed + "✗" + colorReset
	case "running":
		return colorYellow + "⏳" + colorReset
	case "pending":
		return colorCyan + "◯" + colorReset
	default:
		return "•"
	}
}

func colorizeStatus(status string) string {
	icon := statusIcon(status)
	switch status {
	case "success":
		return icon + " " + colorGreen + status + colorReset
	case "failed", "timeout":
		return icon + " " + colorRed + status + colorReset
	case "running":
		return icon + " " + colorYellow + status + colorReset
	case "pending":
		return icon + " " + colorCyan + status + colorReset
	default:
		return status
	}
}

func formatTimeWithRelative(t *time.Time) string {
	if t == nil {
		return "-"
	}
	relative := relativeTime(*t)
	return fmt.Sprintf("%s %s(%s ago)%s", t.Format("Mon, 02 Jan 2006 15:04:05 MST"), colorDim, relative, colorReset)
}

func relativeTime(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return fmt.Sprintf("%ds", int(duration.Seconds()))
	} else if duration < time.Hour {
		return fmt.Sprintf("%dm", int(duration.Minutes()))
	} else if duration < 24*time.Hour {
		return fmt.Sprintf("%dh", int(duration.Hours()))
	}
	days := int(duration.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
