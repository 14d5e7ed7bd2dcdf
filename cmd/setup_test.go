package cmd

import (
	"os"
	"strings"
	"testing"

	"github.com/fakeyudi/sessionhealth/internal/config"
)

func TestSetupWritesGlobalConfig(t *testing.T) {
	isolate(t)
	// log level, truncation, then six thresholds; blank keeps the default.
	answers := strings.Join([]string{"debug", "stall", "50", "", "", "", "", ""}, "\n") + "\n"

	out, err := executeCommandWithInput(rootCmd, strings.NewReader(answers), "setup")
	if err != nil {
		t.Fatalf("setup: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Config saved to") {
		t.Errorf("got:\n%s", out)
	}

	global, err := config.LoadGlobal()
	if err != nil {
		t.Fatal(err)
	}
	if global.LogLevel != "debug" || global.Truncation != config.TruncationStall {
		t.Errorf("saved config = %+v", global)
	}
	if global.Thresholds.Turns.Warn != 50 || global.Thresholds.Turns.Strong != 150 {
		t.Errorf("turn thresholds = %+v", global.Thresholds.Turns)
	}
}

func TestSetupRejectsInvalidLadder(t *testing.T) {
	isolate(t)
	answers := strings.Join([]string{"", "", "200", "", "", "", "", ""}, "\n") + "\n"
	if _, err := executeCommandWithInput(rootCmd, strings.NewReader(answers), "setup"); err == nil {
		t.Fatal("expected warn above strong to be rejected")
	}
	path, _ := config.GlobalPath()
	if _, err := os.Stat(path); err == nil {
		t.Error("invalid config was written")
	}
}
