package engine

import (
	"time"

	"github.com/theirongolddev/cardwise/internal/dates"
)

// Cycle is a card's active billing window.
type Cycle struct {
	Start       time.Time // midnight of the cycle's first day
	End         time.Time // end of the day before NextBilling
	NextBilling time.Time // midnight of the next cycle's first day
}

// Contains reports whether t falls inside [Start, End].
func (c Cycle) Contains(t time.Time) bool {
	return !t.Before(c.Start) && !t.After(c.End)
}

// Key returns the "YYYY-MM" identifier of the month the cycle started in.
func (c Cycle) Key() string {
	return dates.MonthKey(c.Start)
}

// BillingCycle returns the cycle anchored on anchorDay that contains today.
// The anchor is clamped to each month's length separately for this cycle's
// start and the next one, so anchor 31 starts on Feb 28 in February and on
// Mar 31 again in March.
func BillingCycle(anchorDay int, today time.Time) (Cycle, error) {
	if anchorDay < 1 || anchorDay > 31 {
		return Cycle{}, invalid("billing day %d outside 1..31", anchorDay)
	}

	loc := today.Location()
	start := dates.Clamped(today.Year(), today.Month(), anchorDay, loc)
	if today.Before(start) {
		start = dates.Clamped(today.Year(), today.Month()-1, anchorDay, loc)
	}
	next := dates.Clamped(start.Year(), start.Month()+1, anchorDay, loc)

	return Cycle{
		Start:       start,
		End:         dates.EndOfDay(next.AddDate(0, 0, -1)),
		NextBilling: next,
	}, nil
}

// DueDate returns the next payment due date on or after today's calendar day,
// with dueDay clamped to the month length.
//
// The due day itself stays current until midnight, even after its reminders
// have fired. Next month's payment triggers are planned from the following
// day; until then the on-the-day trigger keeps its ID and can still be
// delivered.
func DueDate(dueDay int, today time.Time) (time.Time, error) {
	if dueDay < 1 || dueDay > 31 {
		return time.Time{}, invalid("due day %d outside 1..31", dueDay)
	}
	loc := today.Location()
	due := dates.Clamped(today.Year(), today.Month(), dueDay, loc)
	if due.Before(dates.StartOfDay(today)) {
		due = dates.Clamped(today.Year(), today.Month()+1, dueDay, loc)
	}
	return due, nil
}
