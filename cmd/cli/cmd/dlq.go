package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dlqCmd = &cobra.Command{
	Use:   "dlq",
	Short: "Inspect the Dead Letter Queue (DLQ)",
	Long:  `Inspect executions that permanently failed after exhausting their retry budget.`,
}

var dlqListCmd = &cobra.Command{
	Use:   "list",
	Short: "List dead-lettered executions",
	Run: func(cmd *cobra.Command, args []string) {
		token := viper.GetString("token")
		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the JOBPLANE_TOKEN environment variable")
			return
		}

		client := NewJobClient(viper.GetString("url"), token)

		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		entries, err := client.ListDeadLetters(limit, offset)
		if err != nil {
			cmd.Printf("Error fetching dead letters: %s\n", err)
			os.Exit(1)
		}

		if len(entries) == 0 {
			if offset > 0 {
				cmd.Println("No more entries found.")
			} else {
				cmd.Println("No dead-lettered executions found.")
			}
			return
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "EXECUTION ID\tJOB ID\tATTEMPTS\tFAILED AT\tERROR")
		for _, e := range entries {
			errMsg := e.ErrorMessage
			if len(errMsg) > 50 {
				errMsg = errMsg[:47] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				e.ExecutionID,
				e.JobID,
				e.Attempts,
				e.FailedAt.Format(time.RFC3339),
				errMsg,
			)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(dlqCmd)
	dlqCmd.AddCommand(dlqListCmd)

	dlqListCmd.Flags().IntP("limit", "l", 50, "Number of entries to return")
	dlqListCmd.Flags().IntP("offset", "o", 0, "Offset for pagination")
}
