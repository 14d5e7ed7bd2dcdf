package transcript

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func usageLine(ts string, input, cacheRead, cacheCreate int) string {
	tsField := ""
	if ts != "" {
		tsField = fmt.Sprintf(`"timestamp":%q,`, ts)
	}
	return fmt.Sprintf(`{"type":"assistant",%s"isSidechain":false,"message":{"role":"assistant","usage":{"input_tokens":%d,"cache_read_input_tokens":%d,"cache_creation_input_tokens":%d,"output_tokens":12}}}`,
		tsField, input, cacheRead, cacheCreate)
}

func TestExtractSkipsNonPrimaryRecords(t *testing.T) {
	lines := []string{
		"",
		"   ",
		"{not json",
		`{"type":"user","timestamp":"2025-01-01T00:00:00Z","message":{"role":"user","content":"hi"}}`,
		`{"type":"assistant","isSidechain":true,"message":{"usage":{"input_tokens":999}}}`,
		`{"type":"assistant","isApiErrorMessage":true,"message":{"usage":{"input_tokens":999}}}`,
		`{"type":"assistant","isApiErrorMessage":"yes","message":{"usage":{"input_tokens":999}}}`,
		`{"type":"assistant","isApiErrorMessage":1,"message":{"usage":{"input_tokens":999}}}`,
		usageLine("2025-01-01T00:00:01Z", 10, 20, 30),
		`{"type":"assistant","isApiErrorMessage":false,"message":{"usage":{"input_tokens":5}}}`,
	}

	ex := Extract(lines)
	if ex.Turns != 2 {
		t.Errorf("Turns: got %d, want 2", ex.Turns)
	}
	if ex.Malformed != 1 {
		t.Errorf("Malformed: got %d, want 1", ex.Malformed)
	}
	if ex.Latest == nil || ex.Latest.ContextTokens() != 60 {
		t.Errorf("Latest: got %+v, want context 60", ex.Latest)
	}
}

func TestExtractPicksLatestTimestamp(t *testing.T) {
	lines := []string{
		usageLine("2025-01-01T00:00:05Z", 500, 0, 0),
		usageLine("2025-01-01T00:00:09Z", 900, 0, 0),
		usageLine("2025-01-01T00:00:07Z", 700, 0, 0),
		usageLine("", 100, 0, 0),
	}
	ex := Extract(lines)
	if ex.Turns != 4 {
		t.Errorf("Turns: got %d, want 4", ex.Turns)
	}
	if ex.Latest == nil || ex.Latest.ContextTokens() != 900 {
		t.Errorf("Latest: got %+v, want 900", ex.Latest)
	}
}

func TestExtractTiesGoToLaterLine(t *testing.T) {
	lines := []string{
		usageLine("2025-01-01T00:00:05Z", 1, 0, 0),
		usageLine("2025-01-01T00:00:05Z", 2, 0, 0),
	}
	if ex := Extract(lines); ex.Latest == nil || ex.Latest.InputTokens != 2 {
		t.Errorf("Latest: got %+v, want input 2", ex.Latest)
	}
}

func TestExtractUntimestampedFallback(t *testing.T) {
	lines := []string{
		usageLine("", 100, 0, 0),
		usageLine("not a date", 200, 0, 0),
	}
	ex := Extract(lines)
	if ex.Latest == nil || ex.Latest.ContextTokens() != 200 {
		t.Errorf("Latest: got %+v, want 200", ex.Latest)
	}
	if !ex.LatestAt.IsZero() {
		t.Errorf("LatestAt should be zero, got %v", ex.LatestAt)
	}
}

func TestExtractMissingUsageFieldsDefaultToZero(t *testing.T) {
	ex := Extract([]string{`{"message":{"usage":{"cache_read_input_tokens":42}}}`})
	if ex.Turns != 1 || ex.Latest == nil || ex.Latest.ContextTokens() != 42 {
		t.Errorf("got %+v", ex)
	}
}

func TestExtractToleratesMistypedFields(t *testing.T) {
	lines := []string{
		`{"timestamp":1700000000000,"message":{"usage":{"input_tokens":5}}}`,
		`{"timestamp":null,"message":{"usage":{"input_tokens":7,"cache_read_input_tokens":"3"}}}`,
		`{"type":42,"timestamp":{"t":1},"message":{"usage":{"input_tokens":true,"cache_creation_input_tokens":11}}}`,
		`{"message":{"usage":"none"}}`,
		`[1,2,3]`,
		`"just a string"`,
	}
	ex := Extract(lines)
	if ex.Turns != 4 {
		t.Errorf("Turns: got %d, want 4", ex.Turns)
	}
	if ex.Malformed != 0 {
		t.Errorf("Malformed: got %d, want 0 (every line is valid JSON)", ex.Malformed)
	}
	if ex.Latest == nil || ex.Latest.ContextTokens() != 0 {
		t.Errorf("Latest: got %+v, want the last untimestamped record with no figures", ex.Latest)
	}
	if !ex.LatestAt.IsZero() {
		t.Errorf("non-string timestamps must not parse, got %v", ex.LatestAt)
	}

	second := Extract(lines[1:2])
	if second.Latest == nil || second.Latest.InputTokens != 7 || second.Latest.CacheReadInputTokens != 0 {
		t.Errorf("string token count should decode as 0: %+v", second.Latest)
	}
}

func TestExtractNoPrimaryRecords(t *testing.T) {
	ex := Extract([]string{`{"type":"summary","summary":"x"}`})
	if ex.Turns != 0 || ex.Latest != nil {
		t.Errorf("got %+v, want nothing", ex)
	}
}

// Feature: sessionhealth, Property: turn count equals the number of primary records
func TestExtractTurnsAreAdditive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(t, "n")
		lines := make([]string, 0, n*2)
		for i := 0; i < n; i++ {
			lines = append(lines, usageLine("", i, 0, 0))
			if rapid.Bool().Draw(t, "noise") {
				lines = append(lines, `{"isSidechain":true,"message":{"usage":{"input_tokens":1}}}`)
			}
		}
		split := rapid.IntRange(0, len(lines)).Draw(t, "split")

		whole := Extract(lines).Turns
		parts := Extract(lines[:split]).Turns + Extract(lines[split:]).Turns
		if whole != n || parts != n {
			t.Fatalf("turns: whole=%d parts=%d want %d", whole, parts, n)
		}
	})
}
