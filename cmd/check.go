package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/sessionhealth/internal/history"
	"github.com/fakeyudi/sessionhealth/internal/report"
	"github.com/fakeyudi/sessionhealth/internal/state"
)

var (
	checkSession    string
	checkTranscript string
	checkNoSave     bool
	checkJSON       bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Analyze a transcript once and print the session report",
	RunE: func(cmd *cobra.Command, args []string) error {
		disk, err := openStore()
		if err != nil {
			return fmt.Errorf("opening summary store: %w", err)
		}

		store := disk
		var hist *history.Log
		if checkNoSave {
			// Start from the persisted summary but keep every change in memory.
			mem := state.NewMemoryStore()
			prev, err := disk.Load(checkSession)
			switch {
			case err == nil:
				if err := mem.Save(prev); err != nil {
					return err
				}
			case !errors.Is(err, state.ErrNoSummary):
				return fmt.Errorf("loading summary: %w", err)
			}
			store = mem
		} else {
			hist = openHistory()
		}

		rep := newAnalyzer(store, hist, logger).Analyze(checkSession, checkTranscript)
		if rep.Skipped {
			return fmt.Errorf("transcript %s could not be read", checkTranscript)
		}

		view := &report.View{Summary: rep.Summary, Result: rep.Result, Message: rep.Message}
		if hist != nil {
			if view.History, err = hist.Read(checkSession, recentAdvisories); err != nil {
				logger.Warn("reading advisory history failed", "error", err)
			}
		}
		out, err := report.For(checkJSON, isTerminal(cmd.OutOrStdout())).Render(view)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkSession, "session", "", "session id the summary is stored under")
	checkCmd.Flags().StringVar(&checkTranscript, "transcript", "", "path to the session transcript (JSONL)")
	checkCmd.Flags().BoolVar(&checkNoSave, "no-save", false, "analyze without persisting the summary or recording advisories")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the report as JSON")
	_ = checkCmd.MarkFlagRequired("session")
	_ = checkCmd.MarkFlagRequired("transcript")
	rootCmd.AddCommand(checkCmd)
}
