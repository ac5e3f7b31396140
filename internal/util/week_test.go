package util

import (
	"testing"
	"time"
)

func TestWeekBounds_MidWeek(t *testing.T) {
	// Wednesday 2025-10-08
	now := time.Date(2025, 10, 8, 15, 30, 0, 0, time.UTC)
	start, end := WeekBounds(now)

	wantStart := time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("expected week start %v, got %v", wantStart, start)
	}
	if end.Weekday() != time.Sunday {
		t.Errorf("expected week end on Sunday, got %v", end.Weekday())
	}
	if !end.Before(wantStart.AddDate(0, 0, 7)) {
		t.Errorf("week end %v should fall before the next Monday", end)
	}
}

func TestWeekBounds_OnMonday(t *testing.T) {
	now := time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC)
	start, _ := WeekBounds(now)
	if !start.Equal(now) {
		t.Errorf("Monday midnight should be its own week start, got %v", start)
	}
}

func TestWeekBounds_OnSunday(t *testing.T) {
	// Sunday belongs to the week that started the previous Monday.
	now := time.Date(2025, 10, 12, 23, 0, 0, 0, time.UTC)
	start, end := WeekBounds(now)

	wantStart := time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("expected week start %v, got %v", wantStart, start)
	}
	if end.Before(now) {
		t.Errorf("week end %v should not be before now %v", end, now)
	}
}
