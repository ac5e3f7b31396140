package util

import "time"

// WeekBounds returns the UTC Monday-to-Sunday reporting window containing now.
// The start is Monday 00:00:00 and the end is the last nanosecond of Sunday.
func WeekBounds(now time.Time) (start, end time.Time) {
	now = now.UTC()

	// time.Weekday has Sunday == 0; the reporting week starts on Monday.
	daysSinceMonday := (int(now.Weekday()) + 6) % 7

	monday := now.AddDate(0, 0, -daysSinceMonday)
	start = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	return start, end
}
