package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxKind classifies a ledger entry and fixes its sign.
type TxKind string

const (
	TxCharge  TxKind = "charge"
	TxRefund  TxKind = "refund"
	TxPayment TxKind = "payment"
	TxFee     TxKind = "fee"
)

// Valid reports whether k is a known kind.
func (k TxKind) Valid() bool {
	switch k {
	case TxCharge, TxRefund, TxPayment, TxFee:
		return true
	}
	return false
}

// Categories used for engine-generated entries.
const (
	CategoryInstallment    = "installment"
	CategoryInstallmentFee = "installment_fee"
	CategorySubscription   = "subscription"
)

// Transaction is a single ledger entry on a card. Immutable once created.
type Transaction struct {
	ID          string
	CardID      string
	Kind        TxKind
	Category    string
	Description string
	Date        time.Time
	Amount      decimal.Decimal // always non-negative; Kind carries the sign

	Installment    *InstallmentRef
	SubscriptionID string
	Foreign        *ForeignAmount
}

// Signed returns the amount with the kind's sign applied: refunds and
// payments reduce usage.
func (t Transaction) Signed() decimal.Decimal {
	switch t.Kind {
	case TxRefund, TxPayment:
		return t.Amount.Neg()
	default:
		return t.Amount
	}
}

// InstallmentRef links a ledger entry to its installment plan.
type InstallmentRef struct {
	PlanID string
	Seq    int // 1-indexed
	Total  int
}

// ForeignAmount records the original currency of a converted charge.
type ForeignAmount struct {
	Currency string
	Amount   decimal.Decimal
	Rate     decimal.Decimal
}

// Cadence is a subscription billing interval.
type Cadence string

const (
	Monthly Cadence = "monthly"
	Yearly  Cadence = "yearly"
)

// Subscription is a recurring charge billed to a card.
type Subscription struct {
	ID             string
	CardID         string
	Name           string
	Category       string
	Amount         decimal.Decimal
	Cadence        Cadence
	NextChargeDate time.Time
	// AnchorDay is the day of month charges fall on, clamped per month.
	// Zero means the day of NextChargeDate.
	AnchorDay int
	Active    bool
}

// InstallmentPlan is a purchase split over Tenor monthly entries. It holds no
// progress state; the generated ledger entries are the plan's lifecycle.
type InstallmentPlan struct {
	ID            string
	CardID        string
	Description   string
	TotalAmount   decimal.Decimal
	Tenor         int
	MonthlyAmount decimal.Decimal
	StartDate     time.Time
	AdminFee      decimal.Decimal
}
