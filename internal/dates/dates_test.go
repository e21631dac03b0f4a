package dates

import (
	"testing"
	"time"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestLastDayOfMonth(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2023, time.February, 28},
		{2024, time.February, 29},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}
	for _, c := range cases {
		if got := LastDayOfMonth(c.year, c.month); got != c.want {
			t.Errorf("LastDayOfMonth(%d, %s) = %d, want %d", c.year, c.month, got, c.want)
		}
	}
}

func TestAddMonths_ClampsFromOriginalDay(t *testing.T) {
	start := mustDate(t, "2024-01-31")
	want := []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30", "2024-05-31"}
	for i, w := range want {
		got := AddMonths(start, i).Format("2006-01-02")
		if got != w {
			t.Errorf("AddMonths(2024-01-31, %d) = %s, want %s", i, got, w)
		}
	}
}

func TestAddMonths_Negative(t *testing.T) {
	got := AddMonths(mustDate(t, "2024-03-31"), -1)
	if got.Format("2006-01-02") != "2024-02-29" {
		t.Fatalf("AddMonths(-1) = %s, want 2024-02-29", got.Format("2006-01-02"))
	}
}

func TestAddYears_LeapDay(t *testing.T) {
	got := AddYears(mustDate(t, "2024-02-29"), 1)
	if got.Format("2006-01-02") != "2025-02-28" {
		t.Fatalf("AddYears = %s, want 2025-02-28", got.Format("2006-01-02"))
	}
}

func TestClamped_NormalizesMonthOverflow(t *testing.T) {
	got := Clamped(2023, 13, 31, time.UTC)
	if got.Format("2006-01-02") != "2024-01-31" {
		t.Fatalf("Clamped(2023, 13, 31) = %s", got.Format("2006-01-02"))
	}
	got = Clamped(2024, 0, 31, time.UTC)
	if got.Format("2006-01-02") != "2023-12-31" {
		t.Fatalf("Clamped(2024, 0, 31) = %s", got.Format("2006-01-02"))
	}
}

func TestEndOfDay(t *testing.T) {
	d := time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC)
	end := EndOfDay(d)
	if end.Day() != 9 || end.Hour() != 23 || end.Minute() != 59 {
		t.Fatalf("EndOfDay = %v", end)
	}
	if !end.Add(time.Nanosecond).Equal(mustDate(t, "2024-03-10")) {
		t.Fatalf("EndOfDay + 1ns = %v, want next midnight", end.Add(time.Nanosecond))
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 3, 5, 22, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 9, 1, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 4 {
		t.Fatalf("DaysBetween = %d, want 4", got)
	}
	if got := DaysBetween(b, a); got != -4 {
		t.Fatalf("DaysBetween reversed = %d, want -4", got)
	}
}

func TestMonthKey(t *testing.T) {
	if got := MonthKey(mustDate(t, "2024-03-05")); got != "2024-03" {
		t.Fatalf("MonthKey = %q", got)
	}
}
