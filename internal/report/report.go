// Package report renders session health for the status and check commands.
package report

import (
	"github.com/fakeyudi/sessionhealth/internal/history"
	"github.com/fakeyudi/sessionhealth/internal/severity"
	"github.com/fakeyudi/sessionhealth/internal/state"
)

// View is everything shown for a single session.
type View struct {
	Summary state.Summary   `json:"summary"`
	Result  severity.Result `json:"result"`
	Message string          `json:"message,omitempty"`
	History []history.Entry `json:"history,omitempty"`
}

// Row is one line of the session list.
type Row struct {
	Summary state.Summary  `json:"summary"`
	Level   severity.Level `json:"level"`
}

// Renderer serializes views to bytes.
type Renderer interface {
	Render(v *View) ([]byte, error)
	RenderList(rows []Row) ([]byte, error)
}

// For picks the renderer for the --json flag.
func For(jsonOutput, color bool) Renderer {
	if jsonOutput {
		return &JSONRenderer{}
	}
	return &TextRenderer{Color: color}
}
