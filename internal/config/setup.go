package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SaveGlobal writes cfg to the global config file, creating its directory.
func SaveGlobal(cfg Config) (string, error) {
	path, err := GlobalPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, data, 0o644)
}

// RunSetup prompts for the commonly tuned settings, using existing as the
// default for each prompt. Blank answers keep the default.
func RunSetup(in io.Reader, out io.Writer, existing Config) (Config, error) {
	r := bufio.NewReader(in)
	cfg := existing

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askInt := func(prompt string, defaultVal int) (int, error) {
		for {
			ans, err := ask(prompt, strconv.Itoa(defaultVal))
			if err != nil {
				return 0, err
			}
			n, err := strconv.Atoi(ans)
			if err == nil && n > 0 {
				return n, nil
			}
			fmt.Fprintln(out, "  please enter a positive whole number")
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │   sessionhealth — setup         │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	var err error
	if cfg.LogLevel, err = ask("  Log level (debug/info/warn/error)", cfg.LogLevel); err != nil {
		return existing, err
	}

	trunc, err := ask("  When a transcript shrinks (reset/stall)", cfg.Truncation)
	if err != nil {
		return existing, err
	}
	if trunc == TruncationStall {
		cfg.Truncation = TruncationStall
	} else {
		cfg.Truncation = TruncationReset
	}

	th := &cfg.Thresholds
	steps := []struct {
		prompt string
		dst    *int
	}{
		{"  Turns before a note", &th.Turns.Warn},
		{"  Turns before a warning", &th.Turns.Strong},
		{"  Turns before action is recommended", &th.Turns.Critical},
		{"  Context tokens before a note", &th.ContextTokens.Warn},
		{"  Context tokens before a warning", &th.ContextTokens.Strong},
		{"  Context tokens before action is recommended", &th.ContextTokens.Critical},
	}
	for _, s := range steps {
		if *s.dst, err = askInt(s.prompt, *s.dst); err != nil {
			return existing, err
		}
	}

	fmt.Fprintln(out)
	if err := cfg.Validate(); err != nil {
		return existing, err
	}
	return cfg, nil
}
