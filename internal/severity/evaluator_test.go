package severity

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestEvaluateScenarios(t *testing.T) {
	e := DefaultEvaluator()

	tests := []struct {
		name    string
		signals Signals
		level   Level
		wantSig []string
	}{
		{"turns only", Signals{Turns: 85, ContextTokens: 50_000}, Warn, []string{SignalTurns}},
		{"context alone is critical", Signals{ContextTokens: 175_000}, Critical, []string{SignalContext}},
		{"compactions drive strong", Signals{Compactions: 4}, Strong, []string{SignalCompactions}},
		{"nothing triggers", Signals{Turns: 79, ContextTokens: 99_999}, Info, nil},
		{"max across signals", Signals{Turns: 160, ContextTokens: 100_000, Compactions: 5}, Critical,
			[]string{SignalTurns, SignalContext, SignalCompactions}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Evaluate(tt.signals)
			if res.Level != tt.level {
				t.Errorf("Level: got %s, want %s", res.Level, tt.level)
			}
			if len(res.Issues) != len(tt.wantSig) {
				t.Fatalf("Issues: got %+v, want signals %v", res.Issues, tt.wantSig)
			}
			for i, sig := range tt.wantSig {
				if res.Issues[i].Signal != sig {
					t.Errorf("Issues[%d].Signal: got %s, want %s", i, res.Issues[i].Signal, sig)
				}
			}
			if res.Triggered() != (tt.level != Info) {
				t.Errorf("Triggered: got %v", res.Triggered())
			}
		})
	}
}

func TestEvaluateClauseText(t *testing.T) {
	res := DefaultEvaluator().Evaluate(Signals{Turns: 85, ContextTokens: 142_500, Compactions: 1})
	want := []string{
		"85 turns in this session",
		"context at ~142k tokens, nearing the window limit",
		"context compacted 1 time(s)",
	}
	for i, w := range want {
		if res.Issues[i].Clause != w {
			t.Errorf("Issues[%d].Clause: got %q, want %q", i, res.Issues[i].Clause, w)
		}
	}
}

func TestLadderOnlyHighestTierFires(t *testing.T) {
	l := NewLadder(DefaultTurnThresholds, "w %d", "s %d", "c %d")
	cases := map[int]Level{0: Info, 79: Info, 80: Warn, 149: Warn, 150: Strong, 249: Strong, 250: Critical, 10_000: Critical}
	for v, want := range cases {
		tier, ok := l.Evaluate(v)
		got := Info
		if ok {
			got = tier.Level
		}
		if got != want {
			t.Errorf("Evaluate(%d): got %s, want %s", v, got, want)
		}
	}
}

func TestLadderValidate(t *testing.T) {
	if err := NewLadder(DefaultContextThresholds, "", "", "").Validate(); err != nil {
		t.Errorf("default ladder invalid: %v", err)
	}
	bad := NewLadder(Thresholds{Warn: 10, Strong: 10, Critical: 20}, "", "", "")
	if err := bad.Validate(); err == nil || !strings.Contains(err.Error(), "threshold") {
		t.Errorf("expected threshold ordering error, got %v", err)
	}
}

func TestLevelText(t *testing.T) {
	for _, l := range []Level{Info, Warn, Strong, Critical} {
		b, err := l.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back Level
		if err := back.UnmarshalText(b); err != nil || back != l {
			t.Errorf("text round-trip of %s: got %s, %v", l, back, err)
		}
	}
	if _, err := ParseLevel("severe"); err == nil {
		t.Error("expected error for unknown level")
	}
}

// Feature: sessionhealth, Property: combined level is the maximum issue level
func TestEvaluateTakesMaximum(t *testing.T) {
	e := DefaultEvaluator()
	rapid.Check(t, func(t *rapid.T) {
		s := Signals{
			Turns:         rapid.IntRange(0, 400).Draw(t, "turns"),
			ContextTokens: rapid.IntRange(0, 250_000).Draw(t, "context"),
			Compactions:   rapid.IntRange(0, 8).Draw(t, "compactions"),
		}
		res := e.Evaluate(s)

		want := Info
		for _, is := range res.Issues {
			want = Max(want, is.Level)
		}
		if res.Level != want {
			t.Fatalf("Level %s, max of issues %s", res.Level, want)
		}
		if len(res.Issues) > 3 {
			t.Fatalf("more than one issue per signal: %+v", res.Issues)
		}
	})
}
