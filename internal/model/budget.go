package model

import "github.com/shopspring/decimal"

// BudgetStats holds a card's budget position for the current cycle.
type BudgetStats struct {
	Budget         decimal.Decimal
	CurrentSpend   decimal.Decimal
	Remaining      decimal.Decimal
	UsedPercent    float64
	DaysRemaining  int
	DailyAllowance decimal.Decimal
}
