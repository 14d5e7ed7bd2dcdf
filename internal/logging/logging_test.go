package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	logger, closeFn := Open(path, slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("visible", "session_id", "s1")
	if err := closeFn(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Error("debug record written at info level")
	}
	if !strings.Contains(out, `"msg":"visible"`) || !strings.Contains(out, `"session_id":"s1"`) {
		t.Errorf("unexpected log output: %s", out)
	}
}

func TestOpenFallsBackToDiscard(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	// A path beneath a regular file can never be created.
	logger, closeFn := Open(filepath.Join(blocker, "x.log"), slog.LevelInfo)
	logger.Info("dropped")
	if err := closeFn(); err != nil {
		t.Errorf("close: %v", err)
	}
}
