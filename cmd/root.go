package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/x/term"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/sessionhealth/internal/analyzer"
	"github.com/fakeyudi/sessionhealth/internal/config"
	"github.com/fakeyudi/sessionhealth/internal/history"
	"github.com/fakeyudi/sessionhealth/internal/logging"
	"github.com/fakeyudi/sessionhealth/internal/state"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg = config.Defaults()

// logger is replaced in PersistentPreRunE; until then it discards.
var (
	logger   = logging.Discard()
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "sessionhealth",
	Short: "Watch agent session transcripts and advise before a session degrades",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil && !lenientConfig(cmd) {
			return err
		}
		cfg = loaded

		level, _ := cfg.SlogLevel()
		logger, closeLog = logging.Open(logPath(), level)
		logger = logger.With("run_id", uuid.NewString(), "command", cmd.Name())
		if err != nil {
			logger.Warn("configuration unusable, using defaults", "error", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		err := closeLog()
		if err != nil && cmd.Name() == "hook" {
			// The decision is already written; the hook exits 0 regardless.
			return nil
		}
		return err
	},
}

// lenientConfig reports whether cmd runs on defaults when the configuration
// is broken. The hook must always answer, and setup is how a broken global
// file gets rewritten.
func lenientConfig(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "hook", "setup":
		return true
	}
	return false
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// stateDir is where summaries, the advisory log and the default log file live.
func stateDir() (string, error) {
	if cfg.StateDir != "" {
		return cfg.StateDir, nil
	}
	return state.DataDir()
}

func logPath() string {
	if cfg.LogFile != "" {
		return cfg.LogFile
	}
	dir, err := stateDir()
	if err != nil {
		return filepath.Join(os.TempDir(), logging.FileName)
	}
	return filepath.Join(dir, logging.FileName)
}

func openStore() (state.Store, error) {
	if cfg.StateDir == "" {
		return state.NewDiskStore("")
	}
	return state.NewDiskStore(filepath.Join(cfg.StateDir, "sessions"))
}

func openHistory() *history.Log {
	dir, err := stateDir()
	if err != nil {
		logger.Warn("no state directory, advisories will not be recorded", "error", err)
		return nil
	}
	return history.New(dir)
}

// newAnalyzer builds an analyzer from the loaded configuration. A nil
// history disables advisory recording.
func newAnalyzer(store state.Store, hist *history.Log, log *slog.Logger) *analyzer.Analyzer {
	opts := []analyzer.Option{
		analyzer.WithEvaluator(cfg.Evaluator()),
		analyzer.WithCompaction(analyzer.Compaction{
			MinPeak:   cfg.Compaction.MinPeak,
			DropRatio: cfg.Compaction.DropRatio,
		}),
		analyzer.WithResetOnTruncate(cfg.Truncation != config.TruncationStall),
		analyzer.WithLogger(log),
	}
	if hist != nil {
		opts = append(opts, analyzer.WithHistory(hist))
	}
	return analyzer.New(store, opts...)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

