package state

import "time"

// Summary is the persisted per-session record of transcript pressure.
type Summary struct {
	SessionID string `json:"session_id"`
	// LastOffset is the number of transcript bytes already consumed.
	LastOffset        int64 `json:"last_offset"`
	TurnCount         int   `json:"turn_count"`
	ContextLength     int   `json:"context_length"`
	PeakContextLength int   `json:"peak_context_length"`
	CompactionCount   int   `json:"compaction_count"`

	TranscriptPath string    `json:"transcript_path,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// New returns the zero-value summary for sessionID.
func New(sessionID string) Summary {
	return Summary{SessionID: sessionID}
}
