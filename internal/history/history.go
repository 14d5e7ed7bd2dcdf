// Package history keeps an append-only log of advisories that were emitted.
package history

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fakeyudi/sessionhealth/internal/severity"
)

// FileName is the log's name inside the data directory.
const FileName = "advisories.log"

// Entry is one emitted advisory.
type Entry struct {
	Time      time.Time      `json:"time"`
	SessionID string         `json:"session_id"`
	Level     severity.Level `json:"level"`
	Message   string         `json:"message"`
}

// Log appends and reads entries.
// Format per line: <epoch>\t<session>\t<level>\t<message>
type Log struct {
	path string
	mu   sync.Mutex
}

// New returns a Log stored at dir/advisories.log.
func New(dir string) *Log {
	return &Log{path: filepath.Join(dir, FileName)}
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes e to the end of the log.
func (l *Log) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line := fmt.Sprintf("%d\t%s\t%s\t%s\n", e.Time.Unix(), clean(e.SessionID), e.Level, clean(e.Message))
	_, err = f.WriteString(line)
	return err
}

// Read returns up to limit of the most recent entries for sessionID, oldest
// first. An empty sessionID matches every session; limit <= 0 means no limit.
func (l *Log) Read(sessionID string, limit int) ([]Entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // no log yet
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), "\t", 4)
		if len(parts) != 4 {
			continue
		}
		if sessionID != "" && parts[1] != sessionID {
			continue
		}
		epoch, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			continue
		}
		level, err := severity.ParseLevel(parts[2])
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Time:      time.Unix(epoch, 0),
			SessionID: parts[1],
			Level:     level,
			Message:   parts[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return entries, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// clean keeps a field on one line and free of the separator.
func clean(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}
