package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/sessionhealth/internal/hook"
	"github.com/fakeyudi/sessionhealth/internal/state"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Run as a Stop hook: read the event on stdin, print an approve decision",
	Long: `Reads the Stop hook event as JSON on stdin, analyzes the new part of the
session transcript and prints {"decision":"approve"} with an optional
systemMessage advisory. It never blocks and always exits 0.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.ArbitraryArgs,
	// Hosts may pass flags this version does not know.
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := runHook(cmd.InOrStdin())
		if err := hook.Write(cmd.OutOrStdout(), out); err != nil {
			logger.Error("writing hook decision failed", "error", err)
		}
		return nil
	},
}

// runHook turns one hook event into a decision. Every failure, including a
// panic, degrades to a bare approve.
func runHook(in io.Reader) (out hook.Output) {
	out = hook.Approve("")
	defer func() {
		if r := recover(); r != nil {
			logger.Error("hook panicked, approving", "panic", r)
			out = hook.Approve("")
		}
	}()

	input, err := hook.ParseInput(in)
	if err != nil {
		logger.Info("hook input unusable, approving", "error", err)
		return out
	}
	log := logger.With("session_id", input.SessionID, "transcript_path", input.TranscriptPath)

	store, err := openStore()
	if err != nil {
		log.Warn("summary store unavailable, nothing will be persisted", "error", err)
		store = state.NewMemoryStore()
	}

	rep := newAnalyzer(store, openHistory(), logger).Analyze(input.SessionID, input.TranscriptPath)
	return hook.Approve(rep.Message)
}

func init() {
	rootCmd.AddCommand(hookCmd)
}
