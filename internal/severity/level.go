// Package severity maps pressure signals onto a four-level severity scale
// through per-signal threshold ladders.
package severity

import "fmt"

// Level is an ordered severity. The zero value is Info.
type Level int

const (
	Info Level = iota
	Warn
	Strong
	Critical
)

var levelNames = [...]string{"info", "warn", "strong", "critical"}

func (l Level) String() string {
	if l < Info || l > Critical {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(b []byte) error {
	p, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = p
	return nil
}

// ParseLevel converts a level name back into a Level.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return Info, fmt.Errorf("unknown severity %q", s)
}

// Max returns the higher of a and b.
func Max(a, b Level) Level {
	if b > a {
		return b
	}
	return a
}
