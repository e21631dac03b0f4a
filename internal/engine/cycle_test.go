package engine

import (
	"errors"
	"testing"
	"time"
)

func TestBillingCycle_BeforeAnchorUsesPreviousMonth(t *testing.T) {
	c, err := BillingCycle(10, mustDate(t, "2024-03-05"))
	if err != nil {
		t.Fatalf("BillingCycle: %v", err)
	}
	if got := c.Start.Format("2006-01-02"); got != "2024-02-10" {
		t.Errorf("Start = %s, want 2024-02-10", got)
	}
	if got := c.End.Format("2006-01-02 15:04:05"); got != "2024-03-09 23:59:59" {
		t.Errorf("End = %s, want 2024-03-09 23:59:59", got)
	}
	if got := c.NextBilling.Format("2006-01-02"); got != "2024-03-10" {
		t.Errorf("NextBilling = %s, want 2024-03-10", got)
	}
}

func TestBillingCycle_OnAnchorStartsToday(t *testing.T) {
	c, err := BillingCycle(10, mustTime(t, "2024-03-10T08:30:00Z"))
	if err != nil {
		t.Fatalf("BillingCycle: %v", err)
	}
	if got := c.Start.Format("2006-01-02"); got != "2024-03-10" {
		t.Errorf("Start = %s, want 2024-03-10", got)
	}
	if got := c.NextBilling.Format("2006-01-02"); got != "2024-04-10" {
		t.Errorf("NextBilling = %s, want 2024-04-10", got)
	}
}

func TestBillingCycle_Anchor31InShortFebruary(t *testing.T) {
	c, err := BillingCycle(31, mustDate(t, "2023-02-28"))
	if err != nil {
		t.Fatalf("BillingCycle: %v", err)
	}
	if got := c.Start.Format("2006-01-02"); got != "2023-02-28" {
		t.Errorf("Start = %s, want 2023-02-28", got)
	}
	// March is not dragged down to the 28th.
	if got := c.NextBilling.Format("2006-01-02"); got != "2023-03-31" {
		t.Errorf("NextBilling = %s, want 2023-03-31", got)
	}

	mid, err := BillingCycle(31, mustDate(t, "2023-02-15"))
	if err != nil {
		t.Fatalf("BillingCycle: %v", err)
	}
	if got := mid.Start.Format("2006-01-02"); got != "2023-01-31" {
		t.Errorf("mid-Feb Start = %s, want 2023-01-31", got)
	}
	if got := mid.NextBilling.Format("2006-01-02"); got != "2023-02-28" {
		t.Errorf("mid-Feb NextBilling = %s, want 2023-02-28", got)
	}
}

func TestBillingCycle_YearBoundary(t *testing.T) {
	c, err := BillingCycle(15, mustDate(t, "2024-01-03"))
	if err != nil {
		t.Fatalf("BillingCycle: %v", err)
	}
	if got := c.Start.Format("2006-01-02"); got != "2023-12-15" {
		t.Errorf("Start = %s, want 2023-12-15", got)
	}
}

func TestBillingCycle_Invariants(t *testing.T) {
	days := []string{"2023-02-28", "2024-02-29", "2024-01-31", "2024-04-30", "2024-12-31", "2024-07-01"}
	for _, ds := range days {
		today := mustDate(t, ds).Add(13 * time.Hour)
		for d := 1; d <= 31; d++ {
			c, err := BillingCycle(d, today)
			if err != nil {
				t.Fatalf("BillingCycle(%d, %s): %v", d, ds, err)
			}
			if c.Start.After(today) || !today.Before(c.NextBilling) {
				t.Errorf("anchor %d on %s: start %v, next %v do not bracket today", d, ds, c.Start, c.NextBilling)
			}
			if !c.End.Add(time.Nanosecond).Equal(c.NextBilling) {
				t.Errorf("anchor %d on %s: end %v is not one day before next %v", d, ds, c.End, c.NextBilling)
			}
		}
	}
}

func TestBillingCycle_RejectsInvalidAnchor(t *testing.T) {
	for _, d := range []int{0, -1, 32} {
		if _, err := BillingCycle(d, mustDate(t, "2024-03-05")); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("BillingCycle(%d) err = %v, want ErrInvalidInput", d, err)
		}
	}
}

func TestDueDate(t *testing.T) {
	cases := []struct {
		dueDay int
		today  string
		want   string
	}{
		{20, "2024-03-05", "2024-03-20"},
		{20, "2024-03-20", "2024-03-20"},
		{20, "2024-03-20T23:59:00Z", "2024-03-20"},
		{20, "2024-03-21", "2024-04-20"},
		{31, "2023-02-10", "2023-02-28"},
		{5, "2024-12-06", "2025-01-05"},
	}
	for _, c := range cases {
		today, err := time.Parse(time.RFC3339, c.today)
		if err != nil {
			today = mustDate(t, c.today)
		}
		got, err := DueDate(c.dueDay, today)
		if err != nil {
			t.Fatalf("DueDate: %v", err)
		}
		if got.Format("2006-01-02") != c.want {
			t.Errorf("DueDate(%d, %s) = %s, want %s", c.dueDay, c.today, got.Format("2006-01-02"), c.want)
		}
	}
}
