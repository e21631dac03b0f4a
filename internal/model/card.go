// Package model defines the domain records cardwise tracks: cards, ledger
// entries, subscriptions, installment plans, limit-increase history and payments.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Card is a credit card and its derived state.
type Card struct {
	ID          string
	Name        string
	Bank        string
	LastFour    string
	BillingDay  int // billing-cycle anchor, 1..31
	DueDay      int // payment due day, 1..31
	CreditLimit decimal.Decimal

	// CurrentUsage is a cache of the ledger sum inside the active cycle.
	// It is never a source of truth.
	CurrentUsage decimal.Decimal

	// MonthlyBudget is zero when no budget is set.
	MonthlyBudget decimal.Decimal

	AnnualFee    *AnnualFee
	LimitProgram LimitProgram

	Archived       bool
	PaymentHistory []PaymentRecord
}

// HasBudget reports whether a monthly budget is configured.
func (c Card) HasBudget() bool {
	return c.MonthlyBudget.IsPositive()
}

// Program returns the card's limit-increase program, never nil.
func (c Card) Program() LimitProgram {
	if c.LimitProgram == nil {
		return NoProgram{}
	}
	return c.LimitProgram
}

// AnnualFee describes a yearly card fee charged in ExpiryMonth.
type AnnualFee struct {
	ExpiryMonth time.Month
	Amount      decimal.Decimal
	Remind      bool
}

// PaymentCompleteness distinguishes a full statement payment from a minimum one.
type PaymentCompleteness string

const (
	PaymentFull    PaymentCompleteness = "full"
	PaymentMinimal PaymentCompleteness = "minimal"
)

// PaymentRecord is one bill payment made against a card. Append-only.
type PaymentRecord struct {
	ID           string
	CardID       string
	PaidDate     time.Time
	Amount       decimal.Decimal
	Cycle        string // "YYYY-MM"
	Completeness PaymentCompleteness
}
