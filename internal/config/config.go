// Package config loads sessionhealth settings. Precedence, highest first:
// environment (SESSIONHEALTH_*), project .sessionhealth.yaml in the working
// directory, ~/.config/sessionhealth/config.yaml, defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/sessionhealth/internal/severity"
)

// Truncation policies for a transcript that shrank below the recorded offset.
const (
	TruncationReset = "reset" // re-read from the start of the file
	TruncationStall = "stall" // report no new data until the file grows past the offset
)

// ProjectFileName is the project-level config file looked up in the working directory.
const ProjectFileName = ".sessionhealth.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all configurable sessionhealth settings.
type Config struct {
	// StateDir overrides where summaries, the advisory log and the default
	// log file live. Empty means $XDG_DATA_HOME/sessionhealth.
	StateDir   string           `yaml:"state_dir,omitempty"`
	LogLevel   string           `yaml:"log_level,omitempty"` // debug | info | warn | error
	LogFile    string           `yaml:"log_file,omitempty"`
	Truncation string           `yaml:"truncation,omitempty"` // reset | stall
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Compaction CompactionConfig `yaml:"compaction"`
}

// ThresholdsConfig holds one warn/strong/critical triple per signal.
type ThresholdsConfig struct {
	Turns         severity.Thresholds `yaml:"turns"`
	ContextTokens severity.Thresholds `yaml:"context_tokens"`
	Compactions   severity.Thresholds `yaml:"compactions"`
}

// CompactionConfig tunes compaction detection.
type CompactionConfig struct {
	// MinPeak is the peak context a session must exceed before a drop counts.
	MinPeak int `yaml:"min_peak,omitempty"`
	// DropRatio is the fraction of the peak below which a drop counts.
	DropRatio float64 `yaml:"drop_ratio,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LogLevel:   "info",
		Truncation: TruncationReset,
		Thresholds: ThresholdsConfig{
			Turns:         severity.DefaultTurnThresholds,
			ContextTokens: severity.DefaultContextThresholds,
			Compactions:   severity.DefaultCompactionThresholds,
		},
		Compaction: CompactionConfig{
			MinPeak:   30_000,
			DropRatio: 0.6,
		},
	}
}

// GlobalPath returns ~/.config/sessionhealth/config.yaml.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "sessionhealth", "config.yaml"), nil
}

// LoadGlobal reads the global config file.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .sessionhealth.yaml in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(ProjectFileName, false)
}

// loadFile reads and parses a YAML config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Load merges global, project and environment settings and validates the result.
func Load() (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Defaults(), fmt.Errorf("loading global config: %w", err)
	}
	project, err := LoadProject()
	if err != nil {
		return Defaults(), fmt.Errorf("loading project config: %w", err)
	}
	cfg := Merge(global, project)
	ApplyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Defaults(), err
	}
	return cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, src := range []*Config{global, project} {
		if src == nil {
			continue
		}
		mergeStr(&result.StateDir, src.StateDir)
		mergeStr(&result.LogLevel, src.LogLevel)
		mergeStr(&result.LogFile, src.LogFile)
		mergeStr(&result.Truncation, src.Truncation)
		mergeThresholds(&result.Thresholds.Turns, src.Thresholds.Turns)
		mergeThresholds(&result.Thresholds.ContextTokens, src.Thresholds.ContextTokens)
		mergeThresholds(&result.Thresholds.Compactions, src.Thresholds.Compactions)
		mergeInt(&result.Compaction.MinPeak, src.Compaction.MinPeak)
		if src.Compaction.DropRatio != 0 {
			result.Compaction.DropRatio = src.Compaction.DropRatio
		}
	}
	return result
}

func mergeStr(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func mergeInt(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

func mergeThresholds(dst *severity.Thresholds, src severity.Thresholds) {
	mergeInt(&dst.Warn, src.Warn)
	mergeInt(&dst.Strong, src.Strong)
	mergeInt(&dst.Critical, src.Critical)
}

// ApplyEnv overlays SESSIONHEALTH_* environment variables onto cfg.
func ApplyEnv(cfg *Config) {
	if v, ok := getEnv("SESSIONHEALTH_STATE_DIR"); ok {
		cfg.StateDir = v
	}
	if v, ok := getEnv("SESSIONHEALTH_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := getEnv("SESSIONHEALTH_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := getEnv("SESSIONHEALTH_TRUNCATION"); ok {
		cfg.Truncation = v
	}
}

func getEnv(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	ladders := []struct {
		name string
		th   severity.Thresholds
	}{
		{"turns", c.Thresholds.Turns},
		{"context_tokens", c.Thresholds.ContextTokens},
		{"compactions", c.Thresholds.Compactions},
	}
	for _, l := range ladders {
		name, th := l.name, l.th
		if th.Warn <= 0 {
			return fmt.Errorf("%w: thresholds.%s.warn must be positive", ErrInvalid, name)
		}
		if err := severity.NewLadder(th, "", "", "").Validate(); err != nil {
			return fmt.Errorf("%w: thresholds.%s: %v", ErrInvalid, name, err)
		}
	}
	if c.Compaction.DropRatio <= 0 || c.Compaction.DropRatio >= 1 {
		return fmt.Errorf("%w: compaction.drop_ratio must be between 0 and 1, got %v", ErrInvalid, c.Compaction.DropRatio)
	}
	if c.Compaction.MinPeak < 0 {
		return fmt.Errorf("%w: compaction.min_peak must not be negative", ErrInvalid)
	}
	switch c.Truncation {
	case TruncationReset, TruncationStall:
	default:
		return fmt.Errorf("%w: truncation must be %q or %q, got %q", ErrInvalid, TruncationReset, TruncationStall, c.Truncation)
	}
	if _, err := c.SlogLevel(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// SlogLevel converts LogLevel to a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// Evaluator builds a severity evaluator from the configured thresholds.
func (c Config) Evaluator() *severity.Evaluator {
	return severity.NewEvaluator(c.Thresholds.Turns, c.Thresholds.ContextTokens, c.Thresholds.Compactions)
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
