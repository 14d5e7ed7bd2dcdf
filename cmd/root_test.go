package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	return executeCommandWithInput(root, strings.NewReader(""), args...)
}

func executeCommandWithInput(root *cobra.Command, in io.Reader, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetIn(in)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err = root.ExecuteC()
	return buf.String(), err
}

// isolate points every path the commands touch at a fresh temp dir and
// returns the data directory summaries and logs land in.
func isolate(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)
	t.Setenv("HOME", tmp)
	for _, key := range []string{"SESSIONHEALTH_STATE_DIR", "SESSIONHEALTH_LOG_LEVEL", "SESSIONHEALTH_LOG_FILE", "SESSIONHEALTH_TRUNCATION"} {
		t.Setenv(key, "")
	}
	t.Chdir(tmp)
	resetFlags()
	return filepath.Join(tmp, "sessionhealth")
}

func resetFlags() {
	checkSession, checkTranscript, checkNoSave, checkJSON = "", "", false, false
	statusJSON = false
	pruneOlderThan, pruneDryRun = 30*24*time.Hour, false
	watchTranscript, watchSession, watchPlain = "", "", false
}

func assistantLine(input int) string {
	return fmt.Sprintf(`{"type":"assistant","timestamp":"2025-01-01T00:00:00Z","message":{"usage":{"input_tokens":%d,"cache_read_input_tokens":0,"cache_creation_input_tokens":0,"output_tokens":5}}}`, input)
}

// writeTranscript writes turns primary records with the given context size.
func writeTranscript(t *testing.T, path string, turns, input int) {
	t.Helper()
	var sb strings.Builder
	for i := 0; i < turns; i++ {
		sb.WriteString(assistantLine(input) + "\n")
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBrokenProjectConfigFailsOrdinaryCommands(t *testing.T) {
	isolate(t)
	if err := os.WriteFile(".sessionhealth.yaml", []byte("thresholds: [not, a, map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := executeCommand(rootCmd, "status"); err == nil {
		t.Fatal("expected status to surface the config error")
	}
}

func TestStateDirFromEnvironment(t *testing.T) {
	isolate(t)
	custom := t.TempDir()
	t.Setenv("SESSIONHEALTH_STATE_DIR", custom)

	transcriptPath := filepath.Join(t.TempDir(), "t.jsonl")
	writeTranscript(t, transcriptPath, 3, 1000)
	if _, err := executeCommand(rootCmd, "check", "--session", "env-s", "--transcript", transcriptPath); err != nil {
		t.Fatalf("check: %v", err)
	}
	if _, err := os.Stat(filepath.Join(custom, "sessions", "env-s.json")); err != nil {
		t.Errorf("summary not written under the configured state dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(custom, "sessionhealth.log")); err != nil {
		t.Errorf("log not written under the configured state dir: %v", err)
	}
}
