package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/sessionhealth/internal/advisory"
	"github.com/fakeyudi/sessionhealth/internal/report"
	"github.com/fakeyudi/sessionhealth/internal/severity"
	"github.com/fakeyudi/sessionhealth/internal/state"
)

// recentAdvisories is how many history entries a session report shows.
const recentAdvisories = 5

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status [SESSION]",
	Short: "List tracked sessions, or show one session's health",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return fmt.Errorf("opening summary store: %w", err)
		}
		renderer := report.For(statusJSON, isTerminal(cmd.OutOrStdout()))
		evaluator := cfg.Evaluator()

		var out []byte
		if len(args) == 0 {
			summaries, err := store.List()
			if err != nil {
				return fmt.Errorf("listing summaries: %w", err)
			}
			sort.Slice(summaries, func(i, j int) bool {
				return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
			})
			rows := make([]report.Row, 0, len(summaries))
			for _, s := range summaries {
				rows = append(rows, report.Row{Summary: s, Level: evaluator.Evaluate(signalsOf(s)).Level})
			}
			out, err = renderer.RenderList(rows)
			if err != nil {
				return err
			}
		} else {
			s, err := store.Load(args[0])
			if errors.Is(err, state.ErrNoSummary) {
				return fmt.Errorf("no summary for session %q", args[0])
			}
			if err != nil {
				return fmt.Errorf("loading summary: %w", err)
			}
			res := evaluator.Evaluate(signalsOf(s))
			msg, _ := advisory.Compose(res)
			view := &report.View{Summary: s, Result: res, Message: msg}
			if hist := openHistory(); hist != nil {
				if view.History, err = hist.Read(s.SessionID, recentAdvisories); err != nil {
					logger.Warn("reading advisory history failed", "error", err)
				}
			}
			out, err = renderer.Render(view)
			if err != nil {
				return err
			}
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func signalsOf(s state.Summary) severity.Signals {
	return severity.Signals{
		Turns:         s.TurnCount,
		ContextTokens: s.ContextLength,
		Compactions:   s.CompactionCount,
	}
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print JSON instead of text")
	rootCmd.AddCommand(statusCmd)
}
