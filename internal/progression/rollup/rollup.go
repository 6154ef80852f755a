// Package rollup computes hierarchical completion percentages from child
// statuses. Pure math; the data layer walks the hierarchy and persists.
package rollup

import "math"

// Summary accumulates the required-child tally for one parent unit.
type Summary struct {
	RequiredTotal    int
	RequiredComplete int
}

// Add folds one child into the tally. Optional children never count.
func (s *Summary) Add(required, complete bool) {
	if !required {
		return
	}
	s.RequiredTotal++
	if complete {
		s.RequiredComplete++
	}
}

// Percent is 100 * completed required children / total required children.
// A parent with no required children reports 0 until explicitly completed.
func (s Summary) Percent() float64 {
	if s.RequiredTotal == 0 {
		return 0
	}
	return float64(s.RequiredComplete) / float64(s.RequiredTotal) * 100
}

// Complete reports whether every required child is complete. Partial
// completion never rounds up; an empty parent is never implicitly complete.
func (s Summary) Complete() bool {
	return s.RequiredTotal > 0 && s.RequiredComplete == s.RequiredTotal
}

// Changed reports whether a recomputed percentage differs from the stored
// one. Ancestor recomputation stops at the first unchanged level.
func Changed(oldPct, newPct float64) bool {
	return math.Abs(oldPct-newPct) > 1e-9
}
