package main

import (
	"sort"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the result of the last recorded run",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.LastRun()
	if err != nil {
		return err
	}
	if run == nil {
		cmd.Println("no runs recorded yet")
		return nil
	}

	cmd.Printf("last run: %s at %s\n", run.Command, run.StartedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  songs:  %d\n", run.Songs)
	cmd.Printf("  issues: %d\n", run.Issues)

	counts, err := st.IssueCounts(run.ID)
	if err != nil {
		return err
	}
	checks := make([]string, 0, len(counts))
	for check := range counts {
		checks = append(checks, check)
	}
	sort.Strings(checks)
	for _, check := range checks {
		cmd.Printf("  %-20s %d\n", check, counts[check])
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
