package schedule

import (
	"testing"
	"time"
)

func ts(y int, m time.Month, d, hh int) time.Time {
	return time.Date(y, m, d, hh, 0, 0, 0, time.UTC)
}

func TestComputeNilStart(t *testing.T) {
	p := Compute(nil, ts(2026, 3, 10, 12), 6)
	if p.Week != 1 || p.Day != 1 || p.AbsoluteDay != 1 || p.PastEnd {
		t.Fatalf("nil start: got %+v", p)
	}
}

func TestComputeStartDayIsDayOne(t *testing.T) {
	start := ts(2026, 3, 2, 9)
	p := Compute(&start, ts(2026, 3, 2, 23), 6)
	if p.Week != 1 || p.Day != 1 || p.AbsoluteDay != 1 {
		t.Fatalf("same day: got %+v", p)
	}
}

func TestComputeLateEveningStartCountsOwnDay(t *testing.T) {
	start := ts(2026, 3, 2, 23)
	p := Compute(&start, ts(2026, 3, 3, 1), 6)
	if p.AbsoluteDay != 2 {
		t.Fatalf("next calendar day should be day 2, got %+v", p)
	}
}

func TestComputeWeekRollover(t *testing.T) {
	start := ts(2026, 3, 2, 8)
	cases := []struct {
		daysLater int
		week, day int
		abs       int
	}{
		{0, 1, 1, 1},
		{6, 1, 7, 7},
		{7, 2, 1, 8},
		{13, 2, 7, 14},
		{14, 3, 1, 15},
	}
	for _, c := range cases {
		now := start.AddDate(0, 0, c.daysLater)
		p := Compute(&start, now, 6)
		if p.Week != c.week || p.Day != c.day || p.AbsoluteDay != c.abs {
			t.Fatalf("+%dd: want w%d d%d abs%d, got %+v", c.daysLater, c.week, c.day, c.abs, p)
		}
		if p.PastEnd {
			t.Fatalf("+%dd: should not be past end of 6-week protocol", c.daysLater)
		}
	}
}

func TestComputePastEndClampsToFinalDay(t *testing.T) {
	start := ts(2026, 3, 2, 8)
	// 8 elapsed days into a 1-week protocol.
	p := Compute(&start, start.AddDate(0, 0, 7), 1)
	if !p.PastEnd {
		t.Fatalf("expected past end, got %+v", p)
	}
	if p.Week != 1 || p.Day != 7 || p.AbsoluteDay != 7 {
		t.Fatalf("pointer should pin to final day, got %+v", p)
	}
}

func TestComputeFinalDayNotPastEnd(t *testing.T) {
	start := ts(2026, 3, 2, 8)
	p := Compute(&start, start.AddDate(0, 0, 6), 1)
	if p.PastEnd {
		t.Fatalf("day 7 of 7 is not past end: %+v", p)
	}
	if p.AbsoluteDay != 7 {
		t.Fatalf("got %+v", p)
	}
}

func TestComputeFutureStartClampsToDayOne(t *testing.T) {
	start := ts(2026, 3, 10, 8)
	p := Compute(&start, ts(2026, 3, 2, 8), 6)
	if p.Week != 1 || p.Day != 1 || p.AbsoluteDay != 1 || p.PastEnd {
		t.Fatalf("future start: got %+v", p)
	}
}

func TestComputeBoundsAndMonotonic(t *testing.T) {
	start := ts(2026, 1, 5, 10)
	prevAbs := 0
	for d := 0; d < 120; d++ {
		p := Compute(&start, start.AddDate(0, 0, d), 6)
		if p.Day < 1 || p.Day > 7 {
			t.Fatalf("day out of range at +%dd: %+v", d, p)
		}
		if p.Week < 1 || p.Week > 6 {
			t.Fatalf("week out of range at +%dd: %+v", d, p)
		}
		if p.AbsoluteDay < prevAbs {
			t.Fatalf("absolute day regressed at +%dd: %d -> %d", d, prevAbs, p.AbsoluteDay)
		}
		prevAbs = p.AbsoluteDay
	}
}

func TestSkipDelta(t *testing.T) {
	cases := []struct {
		oldAbs, newAbs, want int
	}{
		{1, 1, 0},
		{1, 2, 0},
		{1, 4, 2},
		{5, 3, 0},
		{1, 8, 6},
	}
	for _, c := range cases {
		if got := SkipDelta(c.oldAbs, c.newAbs); got != c.want {
			t.Fatalf("SkipDelta(%d,%d) = %d, want %d", c.oldAbs, c.newAbs, got, c.want)
		}
	}
}

func TestShiftForPause(t *testing.T) {
	start := ts(2026, 3, 2, 8)
	paused := ts(2026, 3, 5, 8)
	resumed := ts(2026, 3, 9, 8)
	shifted := ShiftForPause(start, paused, resumed)
	if want := start.AddDate(0, 0, 4); !shifted.Equal(want) {
		t.Fatalf("shift: got %v want %v", shifted, want)
	}
	// A resume timestamp before the pause leaves the start alone.
	if got := ShiftForPause(start, resumed, paused); !got.Equal(start) {
		t.Fatalf("negative pause window should not move start, got %v", got)
	}
}
