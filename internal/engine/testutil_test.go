package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// testEngine returns an engine frozen at now with sequential IDs.
func testEngine(now time.Time) *Engine {
	n := 0
	return New(
		WithClock(func() time.Time { return now }),
		WithIDs(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}
