// Package pipeline orchestrates snapshot loading, subscription processing,
// derived-field recomputation, reminder planning and report aggregation.
package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cardwise/internal/dates"
	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/model"
)

// Uncategorized labels entries with an empty category.
const Uncategorized = "uncategorized"

// AggregateMonths computes per-month ledger totals for entries dated within
// [since, until). Months without entries are filled in as zeros. Most recent
// month first.
func AggregateMonths(txs []model.Transaction, since, until time.Time) []model.MonthlyStats {
	filtered := FilterByTime(txs, since, until)

	monthMap := make(map[string]*model.MonthlyStats)
	get := func(t time.Time) *model.MonthlyStats {
		key := dates.MonthKey(t)
		ms, ok := monthMap[key]
		if !ok {
			ms = &model.MonthlyStats{
				Month:   dates.MonthStart(t),
				Charges: decimal.Zero,
				Credits: decimal.Zero,
				Net:     decimal.Zero,
			}
			monthMap[key] = ms
		}
		return ms
	}

	for _, t := range filtered {
		ms := get(t.Date.Local())
		ms.Transactions++
		switch t.Kind {
		case model.TxRefund, model.TxPayment:
			ms.Credits = ms.Credits.Add(t.Amount)
		default:
			ms.Charges = ms.Charges.Add(t.Amount)
		}
		ms.Net = ms.Net.Add(t.Signed())
	}

	// Fill in every month in the range so charts show gaps as zeros
	if !since.IsZero() && !until.IsZero() {
		m := dates.MonthStart(since.Local())
		for m.Before(until) {
			get(m)
			m = dates.AddMonths(m, 1)
		}
	}

	months := make([]model.MonthlyStats, 0, len(monthMap))
	for _, ms := range monthMap {
		months = append(months, *ms)
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month.After(months[j].Month)
	})
	return months
}

// AggregateCategories computes spending per category within [since, until).
// Spending is charges and fees less refunds; payments are excluded. Sorted by
// spend descending.
func AggregateCategories(txs []model.Transaction, since, until time.Time) []model.CategoryStats {
	filtered := FilterByTime(txs, since, until)

	catMap := make(map[string]*model.CategoryStats)
	total := decimal.Zero
	for _, t := range filtered {
		if t.Kind == model.TxPayment {
			continue
		}
		name := t.Category
		if name == "" {
			name = Uncategorized
		}
		cs, ok := catMap[name]
		if !ok {
			cs = &model.CategoryStats{Category: name, Spend: decimal.Zero}
			catMap[name] = cs
		}
		cs.Spend = cs.Spend.Add(t.Signed())
		cs.Transactions++
		total = total.Add(t.Signed())
	}

	cats := make([]model.CategoryStats, 0, len(catMap))
	for _, cs := range catMap {
		if total.IsPositive() {
			cs.SharePercent = cs.Spend.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		cats = append(cats, *cs)
	}
	sort.Slice(cats, func(i, j int) bool {
		if !cats[i].Spend.Equal(cats[j].Spend) {
			return cats[i].Spend.GreaterThan(cats[j].Spend)
		}
		return cats[i].Category < cats[j].Category
	})
	return cats
}

// Summaries builds the per-card overview rows for cards as of the engine
// clock. Cards with an invalid billing or due day get zero dates.
func Summaries(eng *engine.Engine, cards []model.Card, records []model.LimitIncreaseRecord) []model.CardSummary {
	now := eng.Now()
	out := make([]model.CardSummary, 0, len(cards))
	for _, c := range cards {
		s := model.CardSummary{
			Card:               c,
			UtilizationPercent: engine.Utilization(c.CurrentUsage, c.CreditLimit),
			Available:          c.CreditLimit.Sub(c.CurrentUsage),
			Budget:             eng.Budget(c),
		}
		if cycle, err := engine.BillingCycle(c.BillingDay, now); err == nil {
			s.CycleStart, s.CycleEnd, s.NextBilling = cycle.Start, cycle.End, cycle.NextBilling
		}
		if due, err := engine.DueDate(c.DueDay, now); err == nil {
			s.DueDate = due
		}
		if next, ok := engine.NextLimitEligibility(c, records); ok {
			n := next
			s.NextLimitEligible = &n
		}
		out = append(out, s)
	}
	return out
}

// FilterByTime returns entries dated within [since, until). A zero bound is
// open.
func FilterByTime(txs []model.Transaction, since, until time.Time) []model.Transaction {
	if since.IsZero() && until.IsZero() {
		return txs
	}

	var result []model.Transaction
	for _, t := range txs {
		if !since.IsZero() && t.Date.Before(since) {
			continue
		}
		if !until.IsZero() && !t.Date.Before(until) {
			continue
		}
		result = append(result, t)
	}
	return result
}

// FilterByCard returns entries for one card. An empty ID matches all.
func FilterByCard(txs []model.Transaction, cardID string) []model.Transaction {
	if cardID == "" {
		return txs
	}
	var result []model.Transaction
	for _, t := range txs {
		if t.CardID == cardID {
			result = append(result, t)
		}
	}
	return result
}

// FilterByCategory returns entries whose category contains the substring,
// ignoring case.
func FilterByCategory(txs []model.Transaction, category string) []model.Transaction {
	if category == "" {
		return txs
	}
	var result []model.Transaction
	for _, t := range txs {
		if containsIgnoreCase(t.Category, category) {
			result = append(result, t)
		}
	}
	return result
}

// SortByDate orders entries most recent first, keeping snapshot order for ties.
func SortByDate(txs []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
