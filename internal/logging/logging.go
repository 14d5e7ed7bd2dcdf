// Package logging builds the slog logger. Hook stdout carries the decision
// JSON, so logs always go to a file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// FileName is the default log file name inside the data directory.
const FileName = "sessionhealth.log"

// Open returns a JSON logger appending to path at level, and a close func.
// When the file cannot be opened the returned logger discards everything.
func Open(path string, level slog.Level) (*slog.Logger, func() error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Discard(), func() error { return nil }
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Discard(), func() error { return nil }
	}
	return New(f, level), f.Close
}

// New returns a JSON logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
