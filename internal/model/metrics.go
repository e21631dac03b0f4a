package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyStats holds ledger totals for one calendar month.
type MonthlyStats struct {
	Month        time.Time
	Charges      decimal.Decimal
	Credits      decimal.Decimal // refunds and payments, positive
	Net          decimal.Decimal
	Transactions int
}

// CategoryStats holds aggregated spending for one category.
type CategoryStats struct {
	Category     string
	Spend        decimal.Decimal
	Transactions int
	SharePercent float64
}

// CardSummary is the per-card row shown in summaries and the dashboard.
type CardSummary struct {
	Card               Card
	CycleStart         time.Time
	CycleEnd           time.Time
	NextBilling        time.Time
	DueDate            time.Time
	UtilizationPercent float64
	Available          decimal.Decimal
	Budget             *BudgetStats
	NextLimitEligible  *time.Time
}
