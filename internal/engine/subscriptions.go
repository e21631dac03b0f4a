package engine

import (
	"fmt"
	"time"

	"github.com/theirongolddev/cardwise/internal/dates"
	"github.com/theirongolddev/cardwise/internal/model"
)

// SubscriptionRun is the output of one subscription billing pass. The caller
// must persist Subscriptions and Emitted together.
type SubscriptionRun struct {
	Subscriptions []model.Subscription // full list, due ones advanced
	Emitted       []model.Transaction
	Charged       []string // IDs of subscriptions that produced a charge
}

// AffectedCards returns the distinct card IDs that received a charge, in
// emission order.
func (r SubscriptionRun) AffectedCards() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, t := range r.Emitted {
		if _, ok := seen[t.CardID]; ok {
			continue
		}
		seen[t.CardID] = struct{}{}
		ids = append(ids, t.CardID)
	}
	return ids
}

// NextCharge advances a charge date by one cadence unit. The day of month is
// anchorDay clamped to the target month, so a charge pulled back to Feb 29
// returns to the 31st in March. A zero anchorDay uses from's own day.
func NextCharge(from time.Time, anchorDay int, c model.Cadence) (time.Time, error) {
	if anchorDay <= 0 {
		anchorDay = from.Day()
	}
	var months int
	switch c {
	case model.Monthly:
		months = 1
	case model.Yearly:
		months = 12
	default:
		return time.Time{}, invalid("unknown cadence %q", c)
	}
	d := dates.Clamped(from.Year(), from.Month()+time.Month(months), anchorDay, from.Location())
	return time.Date(d.Year(), d.Month(), d.Day(), from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location()), nil
}

// IsDue reports whether an active subscription's charge date has arrived,
// comparing calendar days only.
func IsDue(s model.Subscription, now time.Time) bool {
	if !s.Active {
		return false
	}
	next := s.NextChargeDate.In(now.Location())
	return !dates.StartOfDay(next).After(dates.StartOfDay(now))
}

// ProcessSubscriptions charges every due subscription once, dated now, and
// advances its next charge date by one cadence from the missed date. A
// subscription several cycles behind gets one catch-up charge per run.
//
// A subscription that already has a charge dated today is left untouched, so
// running the processor twice in a row emits exactly one entry per overdue
// subscription.
func (e *Engine) ProcessSubscriptions(s model.Snapshot) (SubscriptionRun, error) {
	now := e.now()
	chargedToday := subscriptionsChargedOn(s.Transactions, now)

	run := SubscriptionRun{Subscriptions: make([]model.Subscription, len(s.Subscriptions))}
	for i, sub := range s.Subscriptions {
		run.Subscriptions[i] = sub
		if !IsDue(sub, now) {
			continue
		}
		if _, done := chargedToday[sub.ID]; done {
			continue
		}

		next, err := NextCharge(sub.NextChargeDate, sub.AnchorDay, sub.Cadence)
		if err != nil {
			return SubscriptionRun{}, fmt.Errorf("subscription %s: %w", sub.ID, err)
		}
		if sub.Amount.IsNegative() {
			return SubscriptionRun{}, invalid("subscription %s has negative amount", sub.ID)
		}

		category := sub.Category
		if category == "" {
			category = model.CategorySubscription
		}
		run.Emitted = append(run.Emitted, model.Transaction{
			ID:             e.newID(),
			CardID:         sub.CardID,
			Kind:           model.TxCharge,
			Category:       category,
			Description:    "Subscription: " + sub.Name,
			Date:           now,
			Amount:         sub.Amount,
			SubscriptionID: sub.ID,
		})
		run.Charged = append(run.Charged, sub.ID)

		sub.NextChargeDate = next
		run.Subscriptions[i] = sub
	}
	return run, nil
}

func subscriptionsChargedOn(txs []model.Transaction, day time.Time) map[string]struct{} {
	start := dates.StartOfDay(day)
	end := dates.EndOfDay(day)
	out := make(map[string]struct{})
	for _, t := range txs {
		if t.SubscriptionID == "" || t.Date.Before(start) || t.Date.After(end) {
			continue
		}
		out[t.SubscriptionID] = struct{}{}
	}
	return out
}

// SubscriptionRequest is the validated input for a new subscription.
type SubscriptionRequest struct {
	CardID         string `validate:"required"`
	Name           string `validate:"required"`
	Category       string
	Amount         float64       `validate:"gt=0"`
	Cadence        model.Cadence `validate:"oneof=monthly yearly"`
	NextChargeDate time.Time     `validate:"required"`
}

// NewSubscription validates req and returns an active subscription.
func (e *Engine) NewSubscription(req SubscriptionRequest) (model.Subscription, error) {
	if err := e.Validate(req); err != nil {
		return model.Subscription{}, err
	}
	return model.Subscription{
		ID:             e.newID(),
		CardID:         req.CardID,
		Name:           req.Name,
		Category:       req.Category,
		Amount:         money(req.Amount),
		Cadence:        req.Cadence,
		NextChargeDate: req.NextChargeDate,
		AnchorDay:      req.NextChargeDate.Day(),
		Active:         true,
	}, nil
}
