package hook

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestParseInput(t *testing.T) {
	in, err := ParseInput(strings.NewReader(`{"session_id":"s","transcript_path":"/t.jsonl","cwd":"/w","reason":"stop"}`))
	if err != nil {
		t.Fatalf("ParseInput: %v", err)
	}
	if in.SessionID != "s" || in.TranscriptPath != "/t.jsonl" || in.CWD != "/w" || in.Reason != "stop" {
		t.Errorf("got %+v", in)
	}
}

func TestParseInputIncomplete(t *testing.T) {
	for _, raw := range []string{`{}`, `{"session_id":"s"}`, `{"transcript_path":"/t"}`} {
		if _, err := ParseInput(strings.NewReader(raw)); !errors.Is(err, ErrIncompleteInput) {
			t.Errorf("%s: expected ErrIncompleteInput, got %v", raw, err)
		}
	}
}

func TestParseInputMalformed(t *testing.T) {
	_, err := ParseInput(strings.NewReader(`{"session_id":`))
	if err == nil || errors.Is(err, ErrIncompleteInput) {
		t.Errorf("expected a parse error, got %v", err)
	}
}

func TestWriteOmitsEmptyMessage(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Approve("")); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"decision":"approve"}` {
		t.Errorf("got %s", got)
	}
}

// Feature: sessionhealth, Property: the decision is always approve
func TestApproveAlwaysApproves(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		msg := rapid.String().Draw(t, "msg")
		var buf bytes.Buffer
		if err := Write(&buf, Approve(msg)); err != nil {
			t.Fatal(err)
		}
		var out map[string]any
		if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
			t.Fatal(err)
		}
		if out["decision"] != DecisionApprove {
			t.Fatalf("decision: got %v", out["decision"])
		}
		_, has := out["systemMessage"]
		if has != (msg != "") {
			t.Fatalf("systemMessage presence %v for %q", has, msg)
		}
	})
}
