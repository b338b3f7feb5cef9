package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "List jobs firing within a horizon",
	Long:  `List jobs whose next scheduled run falls within the given horizon (default 24h).`,
	Run: func(cmd *cobra.Command, args []string) {
		token := viper.GetString("token")
		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the JOBPLANE_TOKEN environment variable")
			return
		}

		horizon, _ := cmd.Flags().GetDuration("horizon")

		client := NewJobClient(viper.GetString("url"), token)
		result, err := client.UpcomingJobs(horizon)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Error: %v\n", err)
			}
			os.Exit(1)
		}

		if len(result.Jobs) == 0 {
			cmd.Println("No upcoming jobs found.")
			return
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tKIND\tSTATUS\tNEXT RUN")
		for _, j := range result.Jobs {
			nextRun := "-"
			if j.NextRun != nil {
				nextRun = j.NextRun.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", j.ID, j.Name, j.Kind, j.Status, nextRun)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(upcomingCmd)
	upcomingCmd.Flags().Duration("horizon", 24*time.Hour, "How far ahead to look for upcoming jobs")
}
