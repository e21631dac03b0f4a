// Package dates holds the calendar arithmetic shared by every engine component.
//
// All month arithmetic clamps the day-of-month to the last valid day of the
// target month. Clamping is always computed from the original anchor, never
// from a previously clamped result, so a short February does not drag later
// months down to the 28th.
package dates

import (
	"math"
	"time"
)

// MonthKeyLayout is the layout of billing-cycle identifiers ("2024-03").
const MonthKeyLayout = "2006-01"

// LastDayOfMonth returns the number of days in the given month.
func LastDayOfMonth(year int, month time.Month) int {
	// Day 0 of the following month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Clamped returns midnight of day in (year, month), with day clamped to
// [1, last day of month]. Month overflow (13, 0, -1) is normalized first.
func Clamped(year int, month time.Month, day int, loc *time.Location) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := LastDayOfMonth(first.Year(), first.Month())
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, loc)
}

// AddMonths adds n calendar months to t, clamping the day to the target
// month's length and preserving the time of day.
func AddMonths(t time.Time, n int) time.Time {
	d := Clamped(t.Year(), t.Month()+time.Month(n), t.Day(), t.Location())
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// AddYears adds n years to t. Feb 29 becomes Feb 28 in non-leap years.
func AddYears(t time.Time, n int) time.Time {
	return AddMonths(t, 12*n)
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// MonthStart returns midnight on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthKey formats t as a billing-cycle identifier.
func MonthKey(t time.Time) string {
	return t.Format(MonthKeyLayout)
}

// DaysBetween returns the number of whole calendar days from a to b.
// Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	a = StartOfDay(a)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, a.Location())
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// AtHour returns t's calendar day at the given hour, minute zero.
func AtHour(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}
