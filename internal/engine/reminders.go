package engine

import (
	"fmt"
	"strconv"
	"time"

	"github.com/theirongolddev/cardwise/internal/dates"
	"github.com/theirongolddev/cardwise/internal/model"
)

// ReminderCategory groups triggers that are planned and cancelled together.
type ReminderCategory string

const (
	ReminderPayment       ReminderCategory = "payment"
	ReminderLimitIncrease ReminderCategory = "limit"
	ReminderAnnualFee     ReminderCategory = "annualfee"
)

// ReminderCategories lists every category in planning order.
var ReminderCategories = []ReminderCategory{ReminderPayment, ReminderLimitIncrease, ReminderAnnualFee}

// ReminderOffsets are the days-before-event at which triggers fire.
var ReminderOffsets = []int{7, 3, 1, 0}

// ReminderHours is the local hour each category fires at.
type ReminderHours struct {
	Payment       int
	LimitIncrease int
	AnnualFee     int
}

// DefaultReminderHours fires payment and fee reminders at 09:00 and limit
// reminders at 10:00.
func DefaultReminderHours() ReminderHours {
	return ReminderHours{Payment: 9, LimitIncrease: 10, AnnualFee: 9}
}

func (h ReminderHours) hour(c ReminderCategory) int {
	var v int
	switch c {
	case ReminderPayment:
		v = h.Payment
	case ReminderLimitIncrease:
		v = h.LimitIncrease
	case ReminderAnnualFee:
		v = h.AnnualFee
	}
	if v < 0 || v > 23 {
		return 9
	}
	return v
}

// Preferences are the user's per-category reminder switches.
type Preferences struct {
	Payment       bool
	LimitIncrease bool
	AnnualFee     bool
}

// Enabled reports whether category c is switched on.
func (p Preferences) Enabled(c ReminderCategory) bool {
	switch c {
	case ReminderPayment:
		return p.Payment
	case ReminderLimitIncrease:
		return p.LimitIncrease
	case ReminderAnnualFee:
		return p.AnnualFee
	}
	return false
}

// CardDates are the event dates reminders are planned against. Nil means the
// card has no such event.
type CardDates struct {
	Due           *time.Time
	LimitEligible *time.Time
	AnnualFee     *time.Time
}

func (d CardDates) of(c ReminderCategory) *time.Time {
	switch c {
	case ReminderPayment:
		return d.Due
	case ReminderLimitIncrease:
		return d.LimitEligible
	case ReminderAnnualFee:
		return d.AnnualFee
	}
	return nil
}

// Trigger is one notification to be delivered at FireAt.
type Trigger struct {
	ID       string
	CardID   string
	Category ReminderCategory
	Offset   int
	FireAt   time.Time
	Title    string
	Body     string
	Payload  map[string]string
}

// ReminderPlan is applied as: cancel every ID in Cancel, then schedule every
// trigger in Schedule.
type ReminderPlan struct {
	Cancel   []string
	Schedule []Trigger
}

// Merge appends other to p.
func (p ReminderPlan) Merge(other ReminderPlan) ReminderPlan {
	p.Cancel = append(p.Cancel, other.Cancel...)
	p.Schedule = append(p.Schedule, other.Schedule...)
	return p
}

// TriggerID is the stable identifier of a card's trigger, for example
// "payment-<cardID>-3".
func TriggerID(c ReminderCategory, cardID string, offsetDays int) string {
	return fmt.Sprintf("%s-%s-%d", c, cardID, offsetDays)
}

// ReminderDates derives a card's event dates as of now.
func ReminderDates(card model.Card, records []model.LimitIncreaseRecord, now time.Time) CardDates {
	var d CardDates
	if due, err := DueDate(card.DueDay, now); err == nil {
		d.Due = &due
	}
	if next, ok := NextLimitEligibility(card, records); ok {
		n := dates.StartOfDay(next)
		d.LimitEligible = &n
	}
	if card.AnnualFee != nil && card.AnnualFee.ExpiryMonth >= time.January && card.AnnualFee.ExpiryMonth <= time.December {
		fee := time.Date(now.Year(), card.AnnualFee.ExpiryMonth, 1, 0, 0, 0, 0, now.Location())
		if fee.Before(dates.StartOfDay(now)) {
			fee = fee.AddDate(1, 0, 0)
		}
		d.AnnualFee = &fee
	}
	return d
}

// PlanReminders re-plans every category for the card. Planning the same
// input twice yields the same plan.
func PlanReminders(card model.Card, d CardDates, prefs Preferences, hours ReminderHours, now time.Time) ReminderPlan {
	var plan ReminderPlan
	for _, c := range ReminderCategories {
		plan = plan.Merge(PlanCategory(card, c, d, prefs, hours, now))
	}
	return plan
}

// PlanCategory re-plans a single category for card without touching the
// triggers of any other category.
//
// A disabled category, an archived card or a missing event cancels all of
// the category's triggers. Otherwise each future offset is cancelled and
// scheduled again, while offsets whose fire time has passed are left alone
// so a queued trigger that is due but not yet delivered stays with the
// dispatcher.
func PlanCategory(card model.Card, c ReminderCategory, d CardDates, prefs Preferences, hours ReminderHours, now time.Time) ReminderPlan {
	plan := ReminderPlan{Cancel: make([]string, 0, len(ReminderOffsets))}

	event := d.of(c)
	if card.Archived || event == nil || !prefs.Enabled(c) || !cardWants(card, c) {
		for _, off := range ReminderOffsets {
			plan.Cancel = append(plan.Cancel, TriggerID(c, card.ID, off))
		}
		return plan
	}

	for _, off := range ReminderOffsets {
		at := dates.AtHour(event.AddDate(0, 0, -off), hours.hour(c))
		if !at.After(now) {
			continue
		}
		plan.Cancel = append(plan.Cancel, TriggerID(c, card.ID, off))
		title, body := reminderText(card, c, *event, off)
		plan.Schedule = append(plan.Schedule, Trigger{
			ID:       TriggerID(c, card.ID, off),
			CardID:   card.ID,
			Category: c,
			Offset:   off,
			FireAt:   at,
			Title:    title,
			Body:     body,
			Payload: map[string]string{
				"cardId":     card.ID,
				"category":   string(c),
				"offsetDays": strconv.Itoa(off),
				"eventDate":  event.Format("2006-01-02"),
			},
		})
	}
	return plan
}

// cardWants applies the card's own reminder flags on top of the user's
// preferences.
func cardWants(card model.Card, c ReminderCategory) bool {
	switch c {
	case ReminderLimitIncrease:
		sched, ok := model.ScheduleOf(card.Program())
		return ok && sched.Remind
	case ReminderAnnualFee:
		return card.AnnualFee != nil && card.AnnualFee.Remind
	default:
		return true
	}
}

func reminderText(card model.Card, c ReminderCategory, event time.Time, off int) (string, string) {
	when := "today"
	switch off {
	case 0:
	case 1:
		when = "tomorrow"
	default:
		when = fmt.Sprintf("in %d days (%s)", off, event.Format("Jan 2"))
	}

	switch c {
	case ReminderPayment:
		return "Card payment due", fmt.Sprintf("%s payment is due %s.", card.Name, when)
	case ReminderLimitIncrease:
		return "Limit increase available", fmt.Sprintf("%s is eligible for a limit increase request %s.", card.Name, when)
	default:
		amount := ""
		if card.AnnualFee != nil && card.AnnualFee.Amount.IsPositive() {
			amount = " of " + card.AnnualFee.Amount.StringFixed(2)
		}
		return "Annual fee coming up", fmt.Sprintf("%s annual fee%s is charged %s.", card.Name, amount, when)
	}
}

// PlanCardReminders derives the card's dates from the snapshot and plans all
// categories as of the engine clock.
func (e *Engine) PlanCardReminders(s model.Snapshot, card model.Card, prefs Preferences) ReminderPlan {
	now := e.now()
	d := ReminderDates(card, s.LimitIncreaseRecords, now)
	return PlanReminders(card, d, prefs, e.hours, now)
}

// PlanAllReminders plans every card in the snapshot, archived ones included
// so their stale triggers are cancelled.
func (e *Engine) PlanAllReminders(s model.Snapshot, prefs Preferences) ReminderPlan {
	var plan ReminderPlan
	for _, c := range s.Cards {
		plan = plan.Merge(e.PlanCardReminders(s, c, prefs))
	}
	return plan
}
