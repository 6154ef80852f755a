// Package schedule derives an assignment's wall-clock position from its
// start timestamp. Everything here is pure; callers persist the result.
package schedule

import "time"

// Position is the derived day/week pointer for one assignment.
type Position struct {
	Week        int
	Day         int
	AbsoluteDay int
	PastEnd     bool
}

// daysBetween counts whole calendar days from a to b, date-truncated in
// a's location so a late-evening start still counts as its own day.
func daysBetween(a, b time.Time) int {
	loc := a.Location()
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, loc)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, loc)
	return int(end.Sub(start).Hours() / 24)
}

// Compute derives the pointer for an assignment started at startAt, as of
// now, for a protocol of totalWeeks weeks. A nil start means the assignment
// has not begun; it reports week 1, day 1.
//
// The elapsed count is inclusive of the start day, so day 1 is the start
// day itself. The pointer is clamped to the final day; PastEnd reports
// whether the raw elapsed count has run beyond the protocol.
func Compute(startAt *time.Time, now time.Time, totalWeeks int) Position {
	if totalWeeks < 1 {
		totalWeeks = 1
	}
	if startAt == nil || startAt.IsZero() {
		return Position{Week: 1, Day: 1, AbsoluteDay: 1}
	}

	elapsed := daysBetween(*startAt, now) + 1
	if elapsed < 1 {
		elapsed = 1
	}

	totalDays := totalWeeks * 7
	abs := elapsed
	if abs > totalDays {
		abs = totalDays
	}

	week := (abs + 6) / 7
	if week > totalWeeks {
		week = totalWeeks
	}

	return Position{
		Week:        week,
		Day:         ((abs - 1) % 7) + 1,
		AbsoluteDay: abs,
		PastEnd:     elapsed > totalDays,
	}
}

// SkipDelta counts the days silently passed between the old pointer and the
// new one, exclusive of both endpoints. Never negative.
func SkipDelta(oldAbs, newAbs int) int {
	d := newAbs - oldAbs - 1
	if d < 0 {
		return 0
	}
	return d
}

// ShiftForPause returns the start timestamp adjusted so that time spent
// paused does not count against the assignment: the start moves forward by
// the paused duration.
func ShiftForPause(startAt time.Time, pausedAt, resumedAt time.Time) time.Time {
	d := resumedAt.Sub(pausedAt)
	if d < 0 {
		return startAt
	}
	return startAt.Add(d)
}
