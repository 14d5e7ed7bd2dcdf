// Package advisory renders a severity result into the single advisory line
// shown to the user.
package advisory

import (
	"strings"

	"github.com/fakeyudi/sessionhealth/internal/severity"
)

// Header returns the headline for a level, or "" for Info.
func Header(l severity.Level) string {
	switch l {
	case severity.Warn:
		return "SESSION HEALTH NOTE"
	case severity.Strong:
		return "SESSION HEALTH WARNING"
	case severity.Critical:
		return "SESSION HEALTH — ACTION RECOMMENDED"
	default:
		return ""
	}
}

// Recommendation returns the fixed advice sentence for a level.
func Recommendation(l severity.Level) string {
	switch l {
	case severity.Warn:
		return "No action needed yet; consider storing a checkpoint (/checkpoint:store) at the next natural stopping point."
	case severity.Strong:
		return "Consider finishing the current task, storing a checkpoint (/checkpoint:store) and starting a fresh session."
	case severity.Critical:
		return "Store a checkpoint now (/checkpoint:store) and restart the session (/clear) before context quality degrades further."
	default:
		return ""
	}
}

// Compose builds the advisory message. ok is false when nothing triggered.
func Compose(res severity.Result) (msg string, ok bool) {
	if !res.Triggered() || res.Level == severity.Info {
		return "", false
	}
	clauses := make([]string, 0, len(res.Issues))
	for _, is := range res.Issues {
		clauses = append(clauses, is.Clause)
	}

	var sb strings.Builder
	sb.WriteString(Header(res.Level))
	sb.WriteString(": ")
	sb.WriteString(strings.Join(clauses, "; "))
	sb.WriteString(". ")
	sb.WriteString(Recommendation(res.Level))
	return sb.String(), true
}
