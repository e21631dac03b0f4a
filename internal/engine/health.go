package engine

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/cardwise/internal/dates"
	"github.com/theirongolddev/cardwise/internal/model"
)

// Rating is the qualitative band of a health score.
type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingGood      Rating = "good"
	RatingFair      Rating = "fair"
	RatingPoor      Rating = "poor"
)

// RatingFor maps a 0..100 score to its band.
func RatingFor(score int) Rating {
	switch {
	case score >= 80:
		return RatingExcellent
	case score >= 60:
		return RatingGood
	case score >= 40:
		return RatingFair
	default:
		return RatingPoor
	}
}

// Component names, in report order.
const (
	ComponentUtilization = "utilization"
	ComponentPayments    = "payment_history"
	ComponentBudget      = "budget_discipline"
	ComponentTrend       = "trend"
)

// Trend is the direction of spending over the last three calendar months.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// Component is one weighted part of a health score.
type Component struct {
	Name  string
	Score int
	Max   int
}

// Good reports whether the component scores at least 60% of its maximum.
func (c Component) Good() bool {
	return c.Max == 0 || float64(c.Score) >= 0.6*float64(c.Max)
}

// HealthReport is the scored result for one card or for all active cards.
type HealthReport struct {
	Score              int
	Rating             Rating
	Components         []Component
	Recommendations    []string
	UtilizationPercent float64
	BudgetPercent      float64 // average usage/budget, 0 when no budget is set
	HasBudget          bool
	OnTime             int
	Late               int
	Trend              Trend
	MonthlySpend       [3]decimal.Decimal // current, previous, two months prior
}

// Component returns the named component, if present.
func (r HealthReport) Component(name string) (Component, bool) {
	for _, c := range r.Components {
		if c.Name == name {
			return c, true
		}
	}
	return Component{}, false
}

// AggregateHealth scores all non-archived cards together: utilization 0..40,
// payment history 0..30, budget discipline 0..20, trend 0..10.
func AggregateHealth(cards []model.Card, txs []model.Transaction, now time.Time) HealthReport {
	var active []model.Card
	ids := make(map[string]struct{})
	totalUsage, totalLimit := decimal.Zero, decimal.Zero
	for _, c := range cards {
		if c.Archived {
			continue
		}
		active = append(active, c)
		ids[c.ID] = struct{}{}
		totalUsage = totalUsage.Add(c.CurrentUsage)
		totalLimit = totalLimit.Add(c.CreditLimit)
	}

	rep := HealthReport{UtilizationPercent: Utilization(totalUsage, totalLimit)}
	util := utilizationPoints(rep.UtilizationPercent)

	rep.OnTime, rep.Late = punctuality(active, now)
	pay := paymentPoints(rep.OnTime, rep.Late)

	budget := 10.0
	if avg, ok := averageBudgetUse(active); ok {
		rep.HasBudget = true
		rep.BudgetPercent = avg
		budget = budgetPoints(avg)
	}

	rep.MonthlySpend = monthlySpend(txs, ids, now)
	rep.Trend = trendOf(rep.MonthlySpend)

	rep.Components = []Component{
		{Name: ComponentUtilization, Score: round(util), Max: 40},
		{Name: ComponentPayments, Score: round(pay), Max: 30},
		{Name: ComponentBudget, Score: round(budget), Max: 20},
		{Name: ComponentTrend, Score: trendPoints(rep.Trend), Max: 10},
	}
	finish(&rep)
	return rep
}

// CardHealth scores one card. Without a budget, utilization is scaled to
// 0..70 and payment history stays 0..30. With a budget, utilization is 0..70,
// payment history 0..20 and budget discipline 0..10. There is no trend part.
func CardHealth(card model.Card, now time.Time) HealthReport {
	rep := HealthReport{UtilizationPercent: Utilization(card.CurrentUsage, card.CreditLimit)}
	util := utilizationPoints(rep.UtilizationPercent) * 70 / 40

	rep.OnTime, rep.Late = punctuality([]model.Card{card}, now)
	pay := paymentPoints(rep.OnTime, rep.Late)

	if !card.HasBudget() {
		rep.Components = []Component{
			{Name: ComponentUtilization, Score: round(util), Max: 70},
			{Name: ComponentPayments, Score: round(pay), Max: 30},
		}
		finish(&rep)
		return rep
	}

	rep.HasBudget = true
	rep.BudgetPercent = Utilization(card.CurrentUsage, card.MonthlyBudget)
	rep.Components = []Component{
		{Name: ComponentUtilization, Score: round(util), Max: 70},
		{Name: ComponentPayments, Score: round(pay * 20 / 30), Max: 20},
		{Name: ComponentBudget, Score: round(budgetPoints(rep.BudgetPercent) * 10 / 20), Max: 10},
	}
	finish(&rep)
	return rep
}

func finish(rep *HealthReport) {
	total := 0
	for _, c := range rep.Components {
		total += c.Score
	}
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}
	rep.Score = total
	rep.Rating = RatingFor(total)
	rep.Recommendations = recommend(*rep)
}

// utilizationPoints maps a utilization percentage onto 0..40.
func utilizationPoints(pct float64) float64 {
	switch {
	case pct < 30:
		return 40
	case pct < 50:
		return 39 - (pct-30)/20*9
	case pct < 70:
		return 29 - (pct-50)/20*9
	case pct <= 100:
		return 19 - (pct-70)/30*19
	default:
		return 0
	}
}

// punctuality counts payments in the trailing six months that were made on
// or before the due day of the month they were paid in.
func punctuality(cards []model.Card, now time.Time) (onTime, late int) {
	since := dates.AddMonths(dates.StartOfDay(now), -6)
	for _, c := range cards {
		for _, p := range c.PaymentHistory {
			paid := p.PaidDate.In(now.Location())
			if paid.Before(since) || paid.After(now) {
				continue
			}
			due := dates.Clamped(paid.Year(), paid.Month(), c.DueDay, paid.Location())
			if paid.After(dates.EndOfDay(due)) {
				late++
			} else {
				onTime++
			}
		}
	}
	return onTime, late
}

func paymentPoints(onTime, late int) float64 {
	switch {
	case onTime+late == 0:
		return 15
	case late == 0:
		return 30
	case late == 1:
		return 20
	case late <= 3:
		return 10
	default:
		return 0
	}
}

// averageBudgetUse averages usage/budget over cards that set a budget.
func averageBudgetUse(cards []model.Card) (float64, bool) {
	var sum float64
	n := 0
	for _, c := range cards {
		if !c.HasBudget() {
			continue
		}
		sum += Utilization(c.CurrentUsage, c.MonthlyBudget)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// budgetPoints maps average budget use onto 0..20. Past 120% it decays
// linearly from 10 to 0 at 200%.
func budgetPoints(pct float64) float64 {
	switch {
	case pct <= 100:
		return 20
	case pct <= 110:
		return 15
	case pct <= 120:
		return 10
	default:
		return math.Max(0, 10-(pct-120)/8)
	}
}

// monthlySpend totals spending (charges and fees less refunds; payments are
// not spending) for the current month and the two before it.
func monthlySpend(txs []model.Transaction, cards map[string]struct{}, now time.Time) [3]decimal.Decimal {
	var out [3]decimal.Decimal
	starts := [3]time.Time{}
	cur := dates.MonthStart(now)
	for i := range starts {
		starts[i] = dates.AddMonths(cur, -i)
		out[i] = decimal.Zero
	}
	for _, t := range txs {
		if _, ok := cards[t.CardID]; !ok || t.Kind == model.TxPayment {
			continue
		}
		d := t.Date.In(now.Location())
		for i, s := range starts {
			if !d.Before(s) && d.Before(dates.AddMonths(s, 1)) {
				out[i] = out[i].Add(t.Signed())
				break
			}
		}
	}
	return out
}

func trendOf(spend [3]decimal.Decimal) Trend {
	cur, prev, prior := spend[0], spend[1], spend[2]
	switch {
	case cur.LessThan(prev) && prev.LessThan(prior):
		return TrendImproving
	case cur.GreaterThan(prev) && prev.GreaterThan(prior):
		return TrendDeclining
	default:
		return TrendStable
	}
}

func trendPoints(t Trend) int {
	switch t {
	case TrendImproving:
		return 10
	case TrendDeclining:
		return 0
	default:
		return 5
	}
}

func recommend(rep HealthReport) []string {
	var recs []string
	for _, c := range rep.Components {
		if c.Good() {
			continue
		}
		switch c.Name {
		case ComponentUtilization:
			recs = append(recs, "Pay down balances to keep utilization under 30% of your credit limit.")
		case ComponentPayments:
			if rep.OnTime+rep.Late == 0 {
				recs = append(recs, "Log your bill payments so payment punctuality can be scored.")
			} else {
				recs = append(recs, "Pay on or before the due date; late payments in the last 6 months are lowering your score.")
			}
		case ComponentBudget:
			if !rep.HasBudget {
				recs = append(recs, "Set a monthly budget on your cards to track spending discipline.")
			} else {
				recs = append(recs, "Spending is over budget; review recurring charges and subscriptions.")
			}
		case ComponentTrend:
			if rep.Trend == TrendDeclining {
				recs = append(recs, "Spending has risen for three months in a row; check which categories are growing.")
			} else {
				recs = append(recs, "Aim for a steady month-over-month drop in spending.")
			}
		}
	}
	return recs
}

func round(f float64) int {
	return int(math.Round(f))
}

// AggregateHealth scores the snapshot's active cards as of the engine clock.
func (e *Engine) AggregateHealth(s model.Snapshot) HealthReport {
	return AggregateHealth(s.Cards, s.Transactions, e.now())
}

// CardHealth scores one card as of the engine clock.
func (e *Engine) CardHealth(card model.Card) HealthReport {
	return CardHealth(card, e.now())
}
