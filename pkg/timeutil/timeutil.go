package timeutil

import (
	"fmt"
	"math"
	"time"
)

// FormatClock renders a second count as HH:MM:SS.
func FormatClock(totalSec float64) string {
	if totalSec < 0 {
		totalSec = 0
	}
	sec := int64(math.Round(totalSec))
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatRoundedUnit renders a second count in its most natural unit.
func FormatRoundedUnit(seconds int64) string {
	if seconds < 0 {
		seconds = -seconds
	}
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds > 3600 {
		return fmt.Sprintf("%dh", seconds/3600)
	}
	return fmt.Sprintf("%dm", seconds/60)
}

// DayBounds returns the [start, end) instants of the calendar day
// containing t in the given location.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// WeekStart returns the Monday 00:00 of the week containing t.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, -(weekday - 1))
}

// MonthStart returns the first day 00:00 of the month containing t.
func MonthStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}

// YearStart returns January 1st 00:00 of the year containing t.
func YearStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), 1, 1, 0, 0, 0, 0, loc)
}

// DateKey formats a local date as YYYY-MM-DD.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
