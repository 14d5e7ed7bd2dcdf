package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	pruneOlderThan time.Duration
	pruneDryRun    bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete summaries of sessions that have not been analyzed recently",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if pruneOlderThan <= 0 {
			return fmt.Errorf("--older-than must be positive, got %s", pruneOlderThan)
		}
		store, err := openStore()
		if err != nil {
			return fmt.Errorf("opening summary store: %w", err)
		}
		summaries, err := store.List()
		if err != nil {
			return fmt.Errorf("listing summaries: %w", err)
		}

		cutoff := time.Now().Add(-pruneOlderThan)
		removed := 0
		for _, s := range summaries {
			if !s.UpdatedAt.Before(cutoff) {
				continue
			}
			if pruneDryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "would remove %s (last updated %s)\n", s.SessionID, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
				removed++
				continue
			}
			if err := store.Delete(s.SessionID); err != nil {
				logger.Warn("deleting summary failed", "session_id", s.SessionID, "error", err)
				continue
			}
			removed++
		}
		logger.Info("pruned summaries", "removed", removed, "total", len(summaries), "dry_run", pruneDryRun)

		verb := "Removed"
		if pruneDryRun {
			verb = "Would remove"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d of %d session(s).\n", verb, removed, len(summaries))
		return nil
	},
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour, "remove sessions not updated within this duration")
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "list what would be removed without deleting")
	rootCmd.AddCommand(pruneCmd)
}
