// Package hook defines the JSON exchanged with the host on a Stop hook.
package hook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// maxInputBytes caps stdin reads. Hook payloads are small JSON objects.
const maxInputBytes = 1 << 20

// DecisionApprove is the only decision this monitor ever emits. A blocking
// decision on Stop would re-trigger the hook on every turn boundary.
const DecisionApprove = "approve"

// ErrIncompleteInput is returned when session_id or transcript_path is missing.
var ErrIncompleteInput = errors.New("hook input missing session_id or transcript_path")

// Input is the JSON the host sends on stdin.
type Input struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	CWD            string `json:"cwd"`
	Reason         string `json:"reason"`
}

// Output is the JSON written to stdout.
type Output struct {
	Decision      string `json:"decision"`
	SystemMessage string `json:"systemMessage,omitempty"`
}

// Approve returns an approving Output carrying msg, if any.
func Approve(msg string) Output {
	return Output{Decision: DecisionApprove, SystemMessage: msg}
}

// ParseInput decodes hook input from r. It returns ErrIncompleteInput when
// the fields the monitor needs are absent.
func ParseInput(r io.Reader) (Input, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes))
	if err != nil {
		return Input{}, fmt.Errorf("read hook input: %w", err)
	}
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return Input{}, fmt.Errorf("parse hook input: %w", err)
	}
	if in.SessionID == "" || in.TranscriptPath == "" {
		return in, ErrIncompleteInput
	}
	return in, nil
}

// Write encodes out as a single JSON line.
func Write(w io.Writer, out Output) error {
	return json.NewEncoder(w).Encode(out)
}
