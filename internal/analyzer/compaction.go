package analyzer

import "github.com/fakeyudi/sessionhealth/internal/state"

// Compaction holds the drop-from-peak heuristic parameters.
type Compaction struct {
	// MinPeak is the peak context a session must exceed before a drop counts.
	MinPeak int
	// DropRatio is the fraction of the peak below which a drop counts.
	DropRatio float64
}

// DefaultCompaction is a 40% drop from a peak above 30k tokens.
var DefaultCompaction = Compaction{MinPeak: 30_000, DropRatio: 0.6}

// Detect applies the context reading current to s. A compaction is counted
// when the prior peak exceeds MinPeak and current is positive but below
// DropRatio of that peak. ContextLength and PeakContextLength are updated
// either way.
func (c Compaction) Detect(s state.Summary, current int) (state.Summary, bool) {
	peak := s.PeakContextLength
	compacted := peak > c.MinPeak &&
		current > 0 &&
		float64(current) < float64(peak)*c.DropRatio
	if compacted {
		s.CompactionCount++
	}
	s.ContextLength = current
	if current > peak {
		s.PeakContextLength = current
	}
	return s, compacted
}
