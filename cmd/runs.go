package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/solo800/civic-stream/internal/runlog"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent scrape runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		n, _ := cmd.Flags().GetInt("limit")

		runs, err := runlog.Open(cfg.RunLog.Path)
		if err != nil {
			return err
		}
		defer runs.Close() //nolint:errcheck

		entries, err := runs.Recent(cmd.Context(), n)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCITY\tSTATUS\tFETCHED\tELAPSED\tSTARTED\tOUTPUT")
		for _, e := range entries {
			detail := e.OutputPath
			if e.Status == runlog.StatusFailed {
				detail = e.Error
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%dms\t%s\t%s\n",
				e.ID[:8], e.City, e.Status, e.Fetched, e.Requested, e.ElapsedMS,
				e.StartedAt.Format("2006-01-02 15:04:05"), detail,
			)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	rootCmd.AddCommand(runsCmd)
}
