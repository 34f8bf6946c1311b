package period

import (
	"testing"
	"time"
)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	c, err := NewCalculator("Asia/Dhaka")
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	return c
}

func TestTodayWindow(t *testing.T) {
	c := newTestCalculator(t)
	// 2024-03-15 10:30 UTC = 2024-03-15 16:30 in Dhaka
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	w := c.Resolve(PresetToday, "", "", now)

	if got := w.End.Sub(w.Start); got != 24*time.Hour {
		t.Errorf("window length = %v, want 24h", got)
	}
	// Dhaka midnight is 18:00 UTC of the previous calendar day.
	wantStart := time.Date(2024, 3, 14, 18, 0, 0, 0, time.UTC)
	if !w.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", w.Start, wantStart)
	}
}

func TestTodayWindowAfterDhakaMidnight(t *testing.T) {
	c := newTestCalculator(t)
	// 2024-03-15 20:00 UTC is already 2024-03-16 02:00 in Dhaka.
	now := time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)

	w := c.Resolve(PresetToday, "", "", now)

	wantStart := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)
	if !w.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v (local day already rolled over)", w.Start, wantStart)
	}
}

func TestYesterdayWindow(t *testing.T) {
	c := newTestCalculator(t)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	w := c.Resolve(PresetYesterday, "", "", now)

	wantStart := time.Date(2024, 3, 13, 18, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 14, 18, 0, 0, 0, time.UTC)
	if !w.Start.Equal(wantStart) || !w.End.Equal(wantEnd) {
		t.Errorf("window = [%v, %v), want [%v, %v)", w.Start, w.End, wantStart, wantEnd)
	}
}

func TestLastWeekSpansSevenDaysEndingTomorrowMidnight(t *testing.T) {
	c := newTestCalculator(t)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	w := c.Resolve(PresetLastWeek, "", "", now)

	if w.Days() != 7 {
		t.Errorf("Days() = %d, want 7", w.Days())
	}
	// Exclusive end boundary is tomorrow's Dhaka midnight.
	wantEnd := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)
	if !w.End.Equal(wantEnd) {
		t.Errorf("End = %v, want %v", w.End, wantEnd)
	}
}

func TestCustomWindowIncludesFullEndDay(t *testing.T) {
	c := newTestCalculator(t)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	w := c.Resolve(PresetCustom, "2024-03-01", "2024-03-05", now)

	wantStart := time.Date(2024, 2, 29, 18, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC) // covers all of Mar 5 local
	if !w.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", w.Start, wantStart)
	}
	if !w.End.Equal(wantEnd) {
		t.Errorf("End = %v, want %v", w.End, wantEnd)
	}

	lastMoment := time.Date(2024, 3, 5, 17, 59, 59, 0, time.UTC) // 23:59:59 Mar 5 Dhaka
	if !w.Contains(lastMoment) {
		t.Error("window should contain the final second of the end day")
	}
	if w.Contains(wantEnd) {
		t.Error("window end must be exclusive")
	}
}

func TestCustomWindowFallsBackToToday(t *testing.T) {
	c := newTestCalculator(t)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	today := c.Resolve(PresetToday, "", "", now)

	for name, tc := range map[string]struct{ start, end string }{
		"missing both": {"", ""},
		"malformed":    {"03/01/2024", "garbage"},
		"reversed":     {"2024-03-10", "2024-03-01"},
	} {
		w := c.Resolve(PresetCustom, tc.start, tc.end, now)
		if !w.Start.Equal(today.Start) || !w.End.Equal(today.End) {
			t.Errorf("%s: window = [%v, %v), want today's window", name, w.Start, w.End)
		}
	}
}

func TestLastMonthWindow(t *testing.T) {
	c := newTestCalculator(t)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	for _, preset := range []Preset{PresetLastMonth, PresetLastCalendarMonth} {
		w := c.Resolve(preset, "", "", now)
		wantStart := time.Date(2024, 1, 31, 18, 0, 0, 0, time.UTC) // Feb 1 Dhaka midnight
		wantEnd := time.Date(2024, 2, 29, 18, 0, 0, 0, time.UTC)   // Mar 1 Dhaka midnight
		if !w.Start.Equal(wantStart) || !w.End.Equal(wantEnd) {
			t.Errorf("%s: window = [%v, %v), want [%v, %v)", preset, w.Start, w.End, wantStart, wantEnd)
		}
	}
}

func TestLast30DaysWindow(t *testing.T) {
	c := newTestCalculator(t)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	w := c.Resolve(PresetLast30Days, "", "", now)
	if w.Days() != 30 {
		t.Errorf("Days() = %d, want 30", w.Days())
	}
	if !w.Contains(now) {
		t.Error("last30Days should contain now")
	}
}

func TestUnknownPresetDefaultsToToday(t *testing.T) {
	c := newTestCalculator(t)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	w := c.Resolve(Preset("bogus"), "", "", now)
	today := c.Resolve(PresetToday, "", "", now)
	if !w.Start.Equal(today.Start) || !w.End.Equal(today.End) {
		t.Error("unknown preset should resolve as today")
	}
}

func TestNewCalculatorRejectsBadZone(t *testing.T) {
	if _, err := NewCalculator("Mars/Olympus_Mons"); err == nil {
		t.Error("expected error for unknown timezone")
	}
}
