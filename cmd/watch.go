package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/sessionhealth/internal/analyzer"
	"github.com/fakeyudi/sessionhealth/internal/transcript"
	"github.com/fakeyudi/sessionhealth/internal/tui"
)

var (
	watchTranscript string
	watchSession    string
	watchPlain      bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-analyze a transcript every time it is written",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := watchSession
		if sessionID == "" {
			id, err := sessionIDFor(watchTranscript)
			if err != nil {
				return err
			}
			sessionID = id
		}

		store, err := openStore()
		if err != nil {
			return fmt.Errorf("opening summary store: %w", err)
		}
		a := newAnalyzer(store, openHistory(), logger)

		// fsnotify callbacks and the dashboard's recheck key can overlap.
		var mu sync.Mutex
		analyze := func() analyzer.Report {
			mu.Lock()
			defer mu.Unlock()
			return a.Analyze(sessionID, watchTranscript)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if watchPlain || !isTerminal(cmd.OutOrStdout()) {
			return watchPlainText(ctx, cmd.OutOrStdout(), watchTranscript, analyze)
		}

		limits := tui.Limits{
			Turns:         cfg.Thresholds.Turns.Critical,
			ContextTokens: cfg.Thresholds.ContextTokens.Critical,
			Compactions:   cfg.Thresholds.Compactions.Critical,
		}
		model := tui.New(sessionID, watchTranscript, limits, analyze)
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		return tui.Run(model, func(send func(tea.Msg)) {
			send(tui.ReportMsg(analyze()))
			if err := transcript.Watch(ctx, watchTranscript, func() {
				send(tui.ReportMsg(analyze()))
			}); err != nil {
				logger.Error("watching transcript failed", "error", err)
			}
		})
	},
}

func watchPlainText(ctx context.Context, w io.Writer, path string, analyze func() analyzer.Report) error {
	emit := func() {
		fmt.Fprintln(w, formatReportLine(time.Now(), analyze()))
	}
	emit()
	return transcript.Watch(ctx, path, emit)
}

// formatReportLine renders one analysis for line-oriented output.
func formatReportLine(at time.Time, rep analyzer.Report) string {
	ts := at.Format("15:04:05")
	if rep.Skipped {
		return ts + " transcript unavailable, skipped"
	}
	s := rep.Summary
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %-8s turns=%d context=%d peak=%d compactions=%d",
		ts, rep.Result.Level, s.TurnCount, s.ContextLength, s.PeakContextLength, s.CompactionCount)
	if rep.Message != "" {
		sb.WriteString(" | " + rep.Message)
	}
	return sb.String()
}

// sessionIDFor derives a session id from a transcript path. Transcripts are
// normally named <session-uuid>.jsonl; anything else gets a stable name-based
// UUID of its absolute path.
func sessionIDFor(path string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if id, err := uuid.Parse(base); err == nil {
		return id.String(), nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs)).String(), nil
}

func init() {
	watchCmd.Flags().StringVar(&watchTranscript, "transcript", "", "path to the session transcript (JSONL)")
	watchCmd.Flags().StringVar(&watchSession, "session", "", "session id (defaults to the transcript's file name or a hash of its path)")
	watchCmd.Flags().BoolVar(&watchPlain, "plain", false, "print one line per analysis instead of the dashboard")
	_ = watchCmd.MarkFlagRequired("transcript")
	rootCmd.AddCommand(watchCmd)
}
