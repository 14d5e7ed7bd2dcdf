// Package analyzer runs one incremental health check of a session: load the
// summary, fold in newly appended transcript records, evaluate severity,
// compose an advisory and persist the summary.
package analyzer

import (
	"errors"
	"log/slog"
	"time"

	"github.com/fakeyudi/sessionhealth/internal/advisory"
	"github.com/fakeyudi/sessionhealth/internal/history"
	"github.com/fakeyudi/sessionhealth/internal/logging"
	"github.com/fakeyudi/sessionhealth/internal/severity"
	"github.com/fakeyudi/sessionhealth/internal/state"
	"github.com/fakeyudi/sessionhealth/internal/transcript"
)

// Analyzer is safe for sequential use. Concurrent runs for the same session
// race on the stored summary and the last writer wins.
type Analyzer struct {
	store           state.Store
	evaluator       *severity.Evaluator
	compaction      Compaction
	resetOnTruncate bool
	history         *history.Log
	logger          *slog.Logger
	now             func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithEvaluator sets the severity evaluator.
func WithEvaluator(e *severity.Evaluator) Option {
	return func(a *Analyzer) { a.evaluator = e }
}

// WithCompaction sets the compaction heuristic parameters.
func WithCompaction(c Compaction) Option {
	return func(a *Analyzer) { a.compaction = c }
}

// WithResetOnTruncate controls whether a transcript that shrank below the
// recorded offset is re-read from the start (true) or ignored until it grows
// past the offset again (false).
func WithResetOnTruncate(reset bool) Option {
	return func(a *Analyzer) { a.resetOnTruncate = reset }
}

// WithHistory records every emitted advisory in l.
func WithHistory(l *history.Log) Option {
	return func(a *Analyzer) { a.history = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// New returns an Analyzer persisting to store.
func New(store state.Store, opts ...Option) *Analyzer {
	a := &Analyzer{
		store:           store,
		evaluator:       severity.DefaultEvaluator(),
		compaction:      DefaultCompaction,
		resetOnTruncate: true,
		logger:          logging.Discard(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Report describes the outcome of one Analyze call.
type Report struct {
	Summary state.Summary   `json:"summary"`
	Result  severity.Result `json:"result"`
	// Message is the advisory, empty when nothing triggered.
	Message string `json:"message,omitempty"`
	// Skipped is set when the transcript could not be read; nothing else was done.
	Skipped   bool `json:"skipped,omitempty"`
	Compacted bool `json:"compacted,omitempty"`
	Truncated bool `json:"truncated,omitempty"`
	// Records is the number of primary records in the new bytes.
	Records   int   `json:"records"`
	Malformed int   `json:"malformed,omitempty"`
	NewBytes  int64 `json:"new_bytes"`
}

// Analyze runs one check. It never fails: every defect degrades to a
// default and is logged.
func (a *Analyzer) Analyze(sessionID, transcriptPath string) Report {
	log := a.logger.With("session_id", sessionID, "transcript_path", transcriptPath)

	s := a.load(sessionID, log)
	s.TranscriptPath = transcriptPath

	batch, err := transcript.ReadNew(transcriptPath, s.LastOffset)
	if err != nil {
		if errors.Is(err, transcript.ErrNoTranscript) {
			log.Debug("transcript absent, skipping")
		} else {
			log.Warn("reading transcript failed, skipping", "error", err)
		}
		return Report{Summary: s, Skipped: true}
	}

	rep := Report{Truncated: batch.Truncated}
	if batch.Truncated {
		log.Warn("transcript shrank below recorded offset",
			"offset", s.LastOffset, "size", batch.Size, "reset", a.resetOnTruncate)
		if a.resetOnTruncate {
			if batch, err = transcript.ReadNew(transcriptPath, 0); err != nil {
				log.Warn("re-reading truncated transcript failed, skipping", "error", err)
				return Report{Summary: s, Skipped: true, Truncated: true}
			}
			s.LastOffset = 0
		}
	}

	if batch.Size > s.LastOffset {
		rep.NewBytes = batch.Size - s.LastOffset
		s.LastOffset = batch.Size
	}

	ex := transcript.Extract(batch.Lines)
	rep.Records = ex.Turns
	rep.Malformed = ex.Malformed
	s.TurnCount += ex.Turns
	if ex.Latest != nil {
		s, rep.Compacted = a.compaction.Detect(s, ex.Latest.ContextTokens())
		if rep.Compacted {
			log.Info("compaction detected", "peak", s.PeakContextLength, "context", s.ContextLength)
		}
	}

	rep.Result = a.evaluator.Evaluate(severity.Signals{
		Turns:         s.TurnCount,
		ContextTokens: s.ContextLength,
		Compactions:   s.CompactionCount,
	})
	rep.Message, _ = advisory.Compose(rep.Result)

	s.UpdatedAt = a.now()
	if err := a.store.Save(s); err != nil {
		log.Warn("saving summary failed", "error", err)
	}
	rep.Summary = s

	if rep.Message != "" && a.history != nil {
		err := a.history.Append(history.Entry{
			Time:      s.UpdatedAt,
			SessionID: sessionID,
			Level:     rep.Result.Level,
			Message:   rep.Message,
		})
		if err != nil {
			log.Warn("recording advisory failed", "error", err)
		}
	}

	log.Info("session analyzed",
		"records", rep.Records,
		"malformed", rep.Malformed,
		"turns", s.TurnCount,
		"context", s.ContextLength,
		"compactions", s.CompactionCount,
		"level", rep.Result.Level.String())
	return rep
}

// load returns the stored summary or a fresh one. Absent and unreadable
// summaries both start from zero; only the log line differs.
func (a *Analyzer) load(sessionID string, log *slog.Logger) state.Summary {
	s, err := a.store.Load(sessionID)
	switch {
	case err == nil:
		if s.SessionID == "" {
			s.SessionID = sessionID
		}
		return s
	case errors.Is(err, state.ErrNoSummary):
		log.Debug("no stored summary, starting fresh")
	default:
		log.Warn("loading summary failed, starting fresh", "error", err)
	}
	return state.New(sessionID)
}
