package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/sessionhealth/internal/severity"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	levelStyles = map[severity.Level]lipgloss.Style{
		severity.Info:     lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
		severity.Warn:     lipgloss.NewStyle().Foreground(lipgloss.Color("178")).Bold(true),
		severity.Strong:   lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		severity.Critical: lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("196")).Bold(true),
	}
)

// LevelStyle returns the colour used for a severity.
func LevelStyle(l severity.Level) lipgloss.Style {
	if s, ok := levelStyles[l]; ok {
		return s
	}
	return dimStyle
}

// Bar draws value as a fraction of max in width cells.
func Bar(value, max, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if max > 0 {
		filled = value * width / max
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// TextRenderer renders human-readable output. Styling is applied only when
// Color is set.
type TextRenderer struct {
	Color bool
}

func (r *TextRenderer) paint(style lipgloss.Style, s string) string {
	if !r.Color {
		return s
	}
	return style.Render(s)
}

func (r *TextRenderer) Render(v *View) ([]byte, error) {
	var sb strings.Builder
	s := v.Summary

	fmt.Fprintf(&sb, "%s %s\n\n", r.paint(headingStyle, "Session"), s.SessionID)

	field := func(label, value string) {
		fmt.Fprintf(&sb, "  %s %s\n", r.paint(labelStyle, fmt.Sprintf("%-12s", label)), value)
	}
	field("Severity:", r.paint(LevelStyle(v.Result.Level), v.Result.Level.String()))
	field("Turns:", fmt.Sprintf("%d", s.TurnCount))
	field("Context:", fmt.Sprintf("%d tokens (peak %d)", s.ContextLength, s.PeakContextLength))
	field("Compactions:", fmt.Sprintf("%d", s.CompactionCount))
	field("Offset:", fmt.Sprintf("%d bytes", s.LastOffset))
	if s.TranscriptPath != "" {
		field("Transcript:", s.TranscriptPath)
	}
	if !s.UpdatedAt.IsZero() {
		field("Updated:", s.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	sb.WriteString("\n")

	sb.WriteString(r.paint(headingStyle, "Signals") + "\n\n")
	if !v.Result.Triggered() {
		sb.WriteString(r.paint(dimStyle, "  All signals below thresholds.") + "\n")
	} else {
		for _, is := range v.Result.Issues {
			fmt.Fprintf(&sb, "  %s %s\n", r.paint(LevelStyle(is.Level), fmt.Sprintf("[%s]", is.Level)), is.Clause)
		}
	}
	sb.WriteString("\n")

	if v.Message != "" {
		sb.WriteString(r.paint(headingStyle, "Advisory") + "\n\n")
		fmt.Fprintf(&sb, "  %s\n\n", v.Message)
	}

	if len(v.History) > 0 {
		sb.WriteString(r.paint(headingStyle, "Recent advisories") + "\n\n")
		for _, e := range v.History {
			fmt.Fprintf(&sb, "  %s %s %s\n",
				r.paint(dimStyle, e.Time.Local().Format("2006-01-02 15:04:05")),
				r.paint(LevelStyle(e.Level), fmt.Sprintf("%-8s", e.Level)),
				e.Message)
		}
		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}

func (r *TextRenderer) RenderList(rows []Row) ([]byte, error) {
	if len(rows) == 0 {
		return []byte("No sessions recorded.\n"), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-38s %-9s %6s %9s %6s  %s\n", "SESSION", "SEVERITY", "TURNS", "CONTEXT", "COMPS", "UPDATED")
	for _, row := range rows {
		s := row.Summary
		updated := "-"
		if !s.UpdatedAt.IsZero() {
			updated = s.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&sb, "%-38s %s %6d %9d %6d  %s\n",
			s.SessionID,
			r.paint(LevelStyle(row.Level), fmt.Sprintf("%-9s", row.Level)),
			s.TurnCount, s.ContextLength, s.CompactionCount, updated)
	}
	return []byte(sb.String()), nil
}
