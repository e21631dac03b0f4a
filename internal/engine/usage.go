package engine

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/cardwise/internal/dates"
	"github.com/theirongolddev/cardwise/internal/model"
)

// CurrentUsage sums the signed amounts of card's transactions dated inside
// its active billing cycle. A card with an invalid billing day has no cycle
// and reports zero.
func CurrentUsage(card model.Card, txs []model.Transaction, now time.Time) decimal.Decimal {
	cycle, err := BillingCycle(card.BillingDay, now)
	if err != nil {
		return decimal.Zero
	}
	return sumInCycle(card.ID, cycle, txs)
}

func sumInCycle(cardID string, cycle Cycle, txs []model.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.CardID != cardID || !cycle.Contains(t.Date) {
			continue
		}
		total = total.Add(t.Signed())
	}
	return total
}

// Utilization returns usage as a percentage of limit. A zero or negative
// limit yields 0, and negative usage (credits exceed charges) clamps to 0.
func Utilization(usage, limit decimal.Decimal) float64 {
	if !limit.IsPositive() || !usage.IsPositive() {
		return 0
	}
	return usage.Div(limit).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// RecomputeUsage returns a copy of the snapshot's cards with CurrentUsage
// refreshed from the ledger.
func (e *Engine) RecomputeUsage(s model.Snapshot) []model.Card {
	now := e.now()
	cards := make([]model.Card, len(s.Cards))
	for i, c := range s.Cards {
		c.CurrentUsage = CurrentUsage(c, s.Transactions, now)
		cards[i] = c
	}
	return cards
}

// RecomputeCards refreshes CurrentUsage only for the given card IDs and
// returns the full card slice plus the cards that changed.
func (e *Engine) RecomputeCards(s model.Snapshot, ids []string) (cards, changed []model.Card) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	now := e.now()
	cards = make([]model.Card, len(s.Cards))
	for i, c := range s.Cards {
		if _, ok := want[c.ID]; ok {
			usage := CurrentUsage(c, s.Transactions, now)
			if !usage.Equal(c.CurrentUsage) {
				c.CurrentUsage = usage
				changed = append(changed, c)
			}
		}
		cards[i] = c
	}
	return cards, changed
}

// Budget returns the card's budget position for the active cycle, or nil
// when no budget is set.
func (e *Engine) Budget(card model.Card) *model.BudgetStats {
	if !card.HasBudget() {
		return nil
	}
	now := e.now()
	bs := &model.BudgetStats{
		Budget:       card.MonthlyBudget,
		CurrentSpend: card.CurrentUsage,
		Remaining:    card.MonthlyBudget.Sub(card.CurrentUsage),
		UsedPercent:  Utilization(card.CurrentUsage, card.MonthlyBudget),
	}
	if cycle, err := BillingCycle(card.BillingDay, now); err == nil {
		bs.DaysRemaining = dates.DaysBetween(now, cycle.NextBilling)
		if bs.DaysRemaining > 0 && bs.Remaining.IsPositive() {
			bs.DailyAllowance = bs.Remaining.Div(decimal.NewFromInt(int64(bs.DaysRemaining))).Round(2)
		}
	}
	return bs
}
