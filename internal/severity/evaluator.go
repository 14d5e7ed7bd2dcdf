package severity

import "fmt"

// Signal names used in Issue.Signal.
const (
	SignalTurns       = "turns"
	SignalContext     = "context"
	SignalCompactions = "compactions"
)

// Default thresholds.
var (
	DefaultTurnThresholds       = Thresholds{Warn: 80, Strong: 150, Critical: 250}
	DefaultContextThresholds    = Thresholds{Warn: 100_000, Strong: 140_000, Critical: 170_000}
	DefaultCompactionThresholds = Thresholds{Warn: 1, Strong: 3, Critical: 5}
)

// Signals are the raw pressure readings for one session.
type Signals struct {
	Turns         int
	ContextTokens int
	Compactions   int
}

// Issue is one triggered signal.
type Issue struct {
	Signal string `json:"signal"`
	Level  Level  `json:"level"`
	Clause string `json:"clause"`
}

// Result is the combined evaluation across all signals.
type Result struct {
	Level  Level   `json:"level"`
	Issues []Issue `json:"issues,omitempty"`
}

// Triggered reports whether any signal reached a tier.
func (r Result) Triggered() bool {
	return len(r.Issues) > 0
}

type namedLadder struct {
	signal string
	ladder Ladder
	value  func(Signals) int
}

// Evaluator runs every signal through its ladder and keeps the worst level.
type Evaluator struct {
	ladders []namedLadder
}

// NewEvaluator builds an Evaluator from the three threshold triples.
func NewEvaluator(turns, context, compactions Thresholds) *Evaluator {
	return &Evaluator{ladders: []namedLadder{
		{
			signal: SignalTurns,
			ladder: NewLadder(turns,
				"%d turns in this session",
				"%d turns, the session is getting long",
				"%d turns, the session is very long"),
			value: func(s Signals) int { return s.Turns },
		},
		{
			signal: SignalContext,
			ladder: NewLadder(context,
				"context at ~%dk tokens",
				"context at ~%dk tokens, nearing the window limit",
				"context at ~%dk tokens, at the edge of the window"),
			value: func(s Signals) int { return s.ContextTokens },
		},
		{
			signal: SignalCompactions,
			ladder: NewLadder(compactions,
				"context compacted %d time(s)",
				"context compacted %d times, earlier detail is being lost",
				"context compacted %d times, recall of earlier work is unreliable"),
			value: func(s Signals) int { return s.Compactions },
		},
	}}
}

// DefaultEvaluator uses the default thresholds.
func DefaultEvaluator() *Evaluator {
	return NewEvaluator(DefaultTurnThresholds, DefaultContextThresholds, DefaultCompactionThresholds)
}

// Evaluate combines all signals. A Result with no issues has Level Info.
func (e *Evaluator) Evaluate(s Signals) Result {
	var res Result
	for _, nl := range e.ladders {
		v := nl.value(s)
		tier, ok := nl.ladder.Evaluate(v)
		if !ok {
			continue
		}
		if nl.signal == SignalContext {
			v /= 1000
		}
		res.Issues = append(res.Issues, Issue{
			Signal: nl.signal,
			Level:  tier.Level,
			Clause: fmt.Sprintf(tier.Template, v),
		})
		res.Level = Max(res.Level, tier.Level)
	}
	return res
}
