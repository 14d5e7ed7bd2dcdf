package state

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrNoSummary is returned by Load when no summary exists for a session.
var ErrNoSummary = errors.New("no summary for session")

// Store persists session summaries keyed by session ID.
type Store interface {
	Load(sessionID string) (Summary, error) // returns ErrNoSummary if none exists
	Save(s Summary) error
	Delete(sessionID string) error
	List() ([]Summary, error)
}

// diskStore keeps one JSON file per session under dir.
type diskStore struct {
	dir string
}

// NewDiskStore returns a Store rooted at dir, creating it if needed.
// An empty dir resolves to $XDG_DATA_HOME/sessionhealth/sessions or
// ~/.local/share/sessionhealth/sessions.
func NewDiskStore(dir string) (Store, error) {
	if dir == "" {
		base, err := DataDir()
		if err != nil {
			return nil, fmt.Errorf("resolving data directory: %w", err)
		}
		dir = filepath.Join(base, "sessions")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	return &diskStore{dir: dir}, nil
}

// DataDir returns the sessionhealth-specific XDG data directory.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "sessionhealth"), nil
}

// path maps a session ID to its file. IDs made only of [A-Za-z0-9_-] keep
// their name; any other ID becomes "~" plus its base64url encoding. "~" is
// outside the plain alphabet, so distinct IDs never share a file and none can
// escape dir.
func (d *diskStore) path(sessionID string) string {
	return filepath.Join(d.dir, fileName(sessionID)+".json")
}

func fileName(sessionID string) string {
	plain := sessionID != ""
	for _, r := range sessionID {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			plain = false
			break
		}
	}
	if plain {
		return sessionID
	}
	return "~" + base64.RawURLEncoding.EncodeToString([]byte(sessionID))
}

// Save marshals s to JSON and writes it atomically via a temp file + os.Rename.
func (d *diskStore) Save(s Summary) (err error) {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to persist summary: %w", err)
	}

	tmp, err := os.CreateTemp(d.dir, "summary-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist summary: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist summary: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist summary: %w", err)
	}
	if err = os.Rename(tmpName, d.path(s.SessionID)); err != nil {
		return fmt.Errorf("failed to persist summary: %w", err)
	}
	return nil
}

// Load reads and unmarshals the summary for sessionID.
// Returns ErrNoSummary if the file does not exist.
func (d *diskStore) Load(sessionID string) (Summary, error) {
	data, err := os.ReadFile(d.path(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Summary{}, ErrNoSummary
		}
		return Summary{}, fmt.Errorf("failed to read summary: %w", err)
	}

	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return Summary{}, fmt.Errorf("failed to parse summary: %w", err)
	}
	// A file written for another ID is not this session's summary.
	if s.SessionID != "" && s.SessionID != sessionID {
		return Summary{}, ErrNoSummary
	}
	return s, nil
}

// Delete removes the summary file for sessionID.
func (d *diskStore) Delete(sessionID string) error {
	if err := os.Remove(d.path(sessionID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete summary: %w", err)
	}
	return nil
}

// List returns every readable summary, ordered by session ID.
// Unparseable files are skipped.
func (d *diskStore) List() ([]Summary, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	var out []Summary
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(d.dir, e.Name()))
		if err != nil {
			continue
		}
		var s Summary
		if err := json.Unmarshal(data, &s); err != nil {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out, nil
}
