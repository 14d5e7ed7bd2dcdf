package transcript

import (
	"encoding/json"
	"strings"
	"time"
)

// Usage holds the token figures of one assistant message. Figures that are
// absent or not numbers decode as 0.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	OutputTokens             int `json:"output_tokens"`
}

// ContextTokens approximates context occupancy. Output tokens are not part of
// the prompt and are left out.
func (u Usage) ContextTokens() int {
	return u.InputTokens + u.CacheReadInputTokens + u.CacheCreationInputTokens
}

func (u *Usage) UnmarshalJSON(data []byte) error {
	var raw struct {
		InputTokens              tokenCount `json:"input_tokens"`
		CacheReadInputTokens     tokenCount `json:"cache_read_input_tokens"`
		CacheCreationInputTokens tokenCount `json:"cache_creation_input_tokens"`
		OutputTokens             tokenCount `json:"output_tokens"`
	}
	// A usage value that is not an object carries no figures.
	_ = json.Unmarshal(data, &raw)
	*u = Usage{
		InputTokens:              int(raw.InputTokens),
		CacheReadInputTokens:     int(raw.CacheReadInputTokens),
		CacheCreationInputTokens: int(raw.CacheCreationInputTokens),
		OutputTokens:             int(raw.OutputTokens),
	}
	return nil
}

// tokenCount decodes any JSON number and maps everything else to 0.
type tokenCount int

func (c *tokenCount) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*c = 0
		return nil
	}
	*c = tokenCount(f)
	return nil
}

// Message is the part of a transcript record holding usage.
type Message struct {
	Usage *Usage `json:"usage"`
}

// Record is the subset of a transcript line the monitor cares about.
type Record struct {
	Type string `json:"type"`
	// Timestamp is empty unless the line carried a string timestamp.
	Timestamp string `json:"timestamp"`
	// IsSidechain marks subagent traffic. Only a literal true counts.
	IsSidechain any `json:"isSidechain"`
	// IsAPIErrorMessage is loosely typed upstream; see truthy.
	IsAPIErrorMessage any      `json:"isApiErrorMessage"`
	Message           *Message `json:"message"`
}

// UnmarshalJSON decodes every field independently so a mistyped field only
// loses that field, never the record.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record{}
	_ = json.Unmarshal(raw["type"], &r.Type)
	_ = json.Unmarshal(raw["timestamp"], &r.Timestamp)
	_ = json.Unmarshal(raw["isSidechain"], &r.IsSidechain)
	_ = json.Unmarshal(raw["isApiErrorMessage"], &r.IsAPIErrorMessage)

	var msg map[string]json.RawMessage
	if json.Unmarshal(raw["message"], &msg) != nil || msg == nil {
		return nil
	}
	r.Message = &Message{}
	if usage, ok := msg["usage"]; ok && string(usage) != "null" {
		r.Message.Usage = &Usage{}
		_ = r.Message.Usage.UnmarshalJSON(usage)
	}
	return nil
}

// Primary reports whether r counts toward session pressure: it carries usage
// and is neither a sidechain nor an API error record.
func (r Record) Primary() bool {
	if r.Message == nil || r.Message.Usage == nil {
		return false
	}
	if sidechain, _ := r.IsSidechain.(bool); sidechain {
		return false
	}
	return !truthy(r.IsAPIErrorMessage)
}

// Extraction is the result of scanning one batch.
type Extraction struct {
	// Turns is the number of primary records, one per record.
	Turns int
	// Malformed counts lines that were not valid JSON.
	Malformed int
	// Latest is the usage of the most recent primary record, nil if none.
	Latest *Usage
	// LatestAt is the timestamp of Latest; zero when it had none.
	LatestAt time.Time
}

// Extract scans lines and returns turn and usage figures.
//
// The representative usage is taken from the primary record with the latest
// timestamp, later lines winning ties. Records without a parseable timestamp
// are only used when no timestamped primary record exists, in which case the
// last one wins.
func Extract(lines []string) Extraction {
	var (
		ex            Extraction
		untimestamped *Usage
	)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !json.Valid([]byte(line)) {
			ex.Malformed++
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			// Valid JSON that is not an object holds no record.
			continue
		}
		if !rec.Primary() {
			continue
		}
		ex.Turns++

		usage := *rec.Message.Usage
		ts, ok := parseTimestamp(rec.Timestamp)
		if !ok {
			untimestamped = &usage
			continue
		}
		if ex.Latest == nil || !ts.Before(ex.LatestAt) {
			ex.Latest = &usage
			ex.LatestAt = ts
		}
	}
	if ex.Latest == nil && untimestamped != nil {
		ex.Latest = untimestamped
	}
	return ex
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// truthy follows JSON truthiness: false, 0, "", null and absent are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}
