package cmd

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fakeyudi/sessionhealth/internal/report"
	"github.com/fakeyudi/sessionhealth/internal/state"
)

func TestCheckRendersAndPersists(t *testing.T) {
	isolate(t)
	transcriptPath := filepath.Join(t.TempDir(), "c.jsonl")
	writeTranscript(t, transcriptPath, 10, 150_000)

	out, err := executeCommand(rootCmd, "check", "--session", "c", "--transcript", transcriptPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "context at ~150k tokens, nearing the window limit") {
		t.Errorf("got:\n%s", out)
	}
	store, _ := state.NewDiskStore("")
	s, err := store.Load("c")
	if err != nil {
		t.Fatal(err)
	}
	if s.TurnCount != 10 || s.ContextLength != 150_000 {
		t.Errorf("summary = %+v", s)
	}
}

func TestCheckNoSaveLeavesStoreUntouched(t *testing.T) {
	isolate(t)
	saveSummaries(t, state.Summary{SessionID: "d", TurnCount: 100})
	transcriptPath := filepath.Join(t.TempDir(), "d.jsonl")
	writeTranscript(t, transcriptPath, 5, 1000)

	out, err := executeCommand(rootCmd, "check", "--session", "d", "--transcript", transcriptPath, "--no-save", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var v report.View
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("not JSON: %v\n%s", err, out)
	}
	if v.Summary.TurnCount != 105 {
		t.Errorf("dry run should build on the stored summary, got %d turns", v.Summary.TurnCount)
	}

	store, _ := state.NewDiskStore("")
	s, _ := store.Load("d")
	if s.TurnCount != 100 || s.LastOffset != 0 {
		t.Errorf("stored summary changed: %+v", s)
	}
}

func TestCheckNoSaveFreshSession(t *testing.T) {
	isolate(t)
	transcriptPath := filepath.Join(t.TempDir(), "e.jsonl")
	writeTranscript(t, transcriptPath, 2, 1000)

	if _, err := executeCommand(rootCmd, "check", "--session", "e", "--transcript", transcriptPath, "--no-save"); err != nil {
		t.Fatal(err)
	}
	store, _ := state.NewDiskStore("")
	if _, err := store.Load("e"); !errors.Is(err, state.ErrNoSummary) {
		t.Errorf("expected no stored summary, got %v", err)
	}
}

func TestCheckMissingTranscript(t *testing.T) {
	isolate(t)
	_, err := executeCommand(rootCmd, "check", "--session", "x", "--transcript", filepath.Join(t.TempDir(), "none.jsonl"))
	if err == nil || !strings.Contains(err.Error(), "could not be read") {
		t.Errorf("got %v", err)
	}
}
