package severity

import (
	"fmt"
	"sort"
)

// Tier is one rung of a ladder. Template is a fmt format with a single %d
// verb that receives the signal value.
type Tier struct {
	Threshold int
	Level     Level
	Template  string
}

// Ladder is a set of tiers for one signal. Only the highest tier reached fires.
type Ladder []Tier

// Evaluate returns the highest tier whose threshold value reaches.
func (l Ladder) Evaluate(value int) (Tier, bool) {
	tiers := make(Ladder, len(l))
	copy(tiers, l)
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Threshold > tiers[j].Threshold })
	for _, t := range tiers {
		if value >= t.Threshold {
			return t, true
		}
	}
	return Tier{}, false
}

// Validate checks that thresholds strictly increase with severity.
func (l Ladder) Validate() error {
	for i := 1; i < len(l); i++ {
		if l[i].Level <= l[i-1].Level {
			return fmt.Errorf("tier %d: severity %s does not increase over %s", i, l[i].Level, l[i-1].Level)
		}
		if l[i].Threshold <= l[i-1].Threshold {
			return fmt.Errorf("tier %s: threshold %d must exceed %d", l[i].Level, l[i].Threshold, l[i-1].Threshold)
		}
	}
	return nil
}

// Thresholds is the warn/strong/critical triple that configures a ladder.
type Thresholds struct {
	Warn     int `yaml:"warn" json:"warn"`
	Strong   int `yaml:"strong" json:"strong"`
	Critical int `yaml:"critical" json:"critical"`
}

// NewLadder builds a three-tier ladder, lowest tier first.
func NewLadder(th Thresholds, warn, strong, critical string) Ladder {
	return Ladder{
		{Threshold: th.Warn, Level: Warn, Template: warn},
		{Threshold: th.Strong, Level: Strong, Template: strong},
		{Threshold: th.Critical, Level: Critical, Template: critical},
	}
}
