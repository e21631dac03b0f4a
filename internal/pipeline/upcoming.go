package pipeline

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cardwise/internal/dates"
	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/model"
)

// EventKind names a dated obligation or opportunity on a card.
type EventKind string

const (
	EventPaymentDue    EventKind = "payment_due"
	EventAnnualFee     EventKind = "annual_fee"
	EventLimitEligible EventKind = "limit_eligible"
	EventSubscription  EventKind = "subscription"
	EventInstallment   EventKind = "installment"
)

// Event is one upcoming date on the calendar.
type Event struct {
	Date     time.Time
	Kind     EventKind
	CardID   string
	CardName string
	Title    string
	Amount   decimal.Decimal // zero when the event carries no amount
}

// Upcoming lists events for active cards dated from today through horizon
// days ahead, earliest first. Paused subscriptions are left out.
func Upcoming(eng *engine.Engine, snap model.Snapshot, horizon int) []Event {
	now := eng.Now()
	from := dates.StartOfDay(now)
	until := dates.EndOfDay(from.AddDate(0, 0, horizon))
	in := func(t time.Time) bool { return !t.Before(from) && !t.After(until) }

	active := make(map[string]model.Card)
	for _, c := range snap.ActiveCards() {
		active[c.ID] = c
	}

	var out []Event
	for _, c := range snap.ActiveCards() {
		d := engine.ReminderDates(c, snap.LimitIncreaseRecords, now)
		if d.Due != nil && in(*d.Due) {
			out = append(out, Event{Date: *d.Due, Kind: EventPaymentDue, CardID: c.ID, CardName: c.Name,
				Title: "Payment due", Amount: c.CurrentUsage})
		}
		if d.AnnualFee != nil && in(*d.AnnualFee) {
			out = append(out, Event{Date: *d.AnnualFee, Kind: EventAnnualFee, CardID: c.ID, CardName: c.Name,
				Title: "Annual fee", Amount: c.AnnualFee.Amount})
		}
		if d.LimitEligible != nil && in(*d.LimitEligible) {
			out = append(out, Event{Date: *d.LimitEligible, Kind: EventLimitEligible, CardID: c.ID, CardName: c.Name,
				Title: "Limit increase eligible", Amount: decimal.Zero})
		}
	}

	for _, s := range snap.Subscriptions {
		c, ok := active[s.CardID]
		if !ok || !s.Active || !in(s.NextChargeDate) {
			continue
		}
		out = append(out, Event{Date: s.NextChargeDate, Kind: EventSubscription, CardID: c.ID, CardName: c.Name,
			Title: s.Name, Amount: s.Amount})
	}

	for _, t := range snap.Transactions {
		c, ok := active[t.CardID]
		if !ok || t.Installment == nil || !t.Date.After(now) || !in(t.Date) {
			continue
		}
		out = append(out, Event{Date: t.Date, Kind: EventInstallment, CardID: c.ID, CardName: c.Name,
			Title: t.Description, Amount: t.Amount})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].CardName != out[j].CardName {
			return out[i].CardName < out[j].CardName
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
