package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sonata-project/devkit/internal/db"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the last run and recently reminded pull requests",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of reminders to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := database.Initialize(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	lastRun, err := database.LastRun()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "=== Last Run ===")
	if lastRun == nil {
		fmt.Fprintln(out, "No runs recorded yet.")
	} else {
		mode := "dry run"
		if lastRun.Apply {
			mode = "apply"
		}
		fmt.Fprintf(out, "Started:  %s (%s)\n", lastRun.StartedAt.Format(time.RFC3339), mode)
		if lastRun.FinishedAt.Valid {
			fmt.Fprintf(out, "Duration: %s\n", lastRun.FinishedAt.Time.Sub(lastRun.StartedAt).Round(time.Millisecond))
		} else {
			fmt.Fprintln(out, "Duration: unfinished")
		}
		fmt.Fprintf(out, "Projects: %d (%d failed)\n", lastRun.Projects, lastRun.Failed)
		fmt.Fprintf(out, "Flagged:  %d\n", lastRun.Flagged)
	}

	fmt.Fprintln(out)

	reminders, err := database.RecentReminders(historyLimit)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "=== Recent Reminders ===")
	if len(reminders) == 0 {
		fmt.Fprintln(out, "No reminders recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tREPO\t#\tTITLE\tRESULT")
	for _, r := range reminders {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			r.CreatedAt.Format(time.RFC3339), r.Repository, r.Number, truncate(r.Title, 50), r.Result)
	}

	return w.Flush()
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
