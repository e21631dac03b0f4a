// Package backup reads and writes the JSON backup file. Versions 1 through 3
// are readable; version 3 is always written.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cardwise/internal/model"
)

// CurrentVersion is the version Encode writes.
const CurrentVersion = 3

// ErrUnsupportedVersion is returned for payloads outside versions 1..3.
var ErrUnsupportedVersion = errors.New("unsupported backup version")

// ErrInvalid wraps structural validation failures in a payload.
var ErrInvalid = errors.New("invalid backup")

// File is the on-disk backup document.
type File struct {
	Version              int               `json:"version"`
	Timestamp            time.Time         `json:"timestamp"`
	Cards                []Card            `json:"cards" validate:"dive"`
	Transactions         []Transaction     `json:"transactions" validate:"dive"`
	Subscriptions        []Subscription    `json:"subscriptions" validate:"dive"`
	LimitIncreaseRecords []LimitRecord     `json:"limitIncreaseRecords" validate:"dive"`
	InstallmentPlans     []InstallmentPlan `json:"installmentPlans" validate:"dive"`
}

// Card is the backup form of model.Card.
type Card struct {
	ID             string     `json:"id" validate:"required"`
	Name           string     `json:"name"`
	Bank           string     `json:"bank,omitempty"`
	LastFour       string     `json:"lastFour,omitempty"`
	BillingDay     int        `json:"billingDay" validate:"min=1,max=31"`
	DueDay         int        `json:"dueDay" validate:"omitempty,min=1,max=31"`
	CreditLimit    float64    `json:"creditLimit"`
	CurrentUsage   float64    `json:"currentUsage"`
	MonthlyBudget  float64    `json:"monthlyBudget,omitempty"`
	AnnualFee      *AnnualFee `json:"annualFee,omitempty"`
	LimitProgram   *Program   `json:"limitProgram,omitempty"`
	Archived       bool       `json:"archived,omitempty"`
	PaymentHistory []Payment  `json:"paymentHistory,omitempty" validate:"dive"`
}

// AnnualFee is the backup form of model.AnnualFee.
type AnnualFee struct {
	ExpiryMonth int     `json:"expiryMonth" validate:"min=1,max=12"`
	Amount      float64 `json:"amount"`
	Remind      bool    `json:"remind"`
}

// Program is the backup form of a limit-increase program.
type Program struct {
	Type            string     `json:"type" validate:"oneof=permanent temporary"`
	LastRequest     *time.Time `json:"lastRequest,omitempty"`
	FrequencyMonths int        `json:"frequencyMonths"`
	NextEligible    *time.Time `json:"nextEligible,omitempty"`
	Remind          bool       `json:"remind"`
}

// Payment is the backup form of model.PaymentRecord.
type Payment struct {
	ID           string    `json:"id" validate:"required"`
	PaidDate     time.Time `json:"paidDate"`
	Amount       float64   `json:"amount"`
	Cycle        string    `json:"cycle"`
	Completeness string    `json:"completeness" validate:"omitempty,oneof=full minimal"`
}

// Transaction is the backup form of model.Transaction.
type Transaction struct {
	ID             string       `json:"id" validate:"required"`
	CardID         string       `json:"cardId" validate:"required"`
	Kind           string       `json:"kind,omitempty" validate:"omitempty,oneof=charge refund payment fee"`
	Category       string       `json:"category,omitempty"`
	Description    string       `json:"description,omitempty"`
	Date           time.Time    `json:"date"`
	Amount         float64      `json:"amount"`
	Installment    *Installment `json:"installment,omitempty"`
	SubscriptionID string       `json:"subscriptionId,omitempty"`
	Foreign        *Foreign     `json:"foreign,omitempty"`
}

// Installment links a backed-up entry to its plan.
type Installment struct {
	PlanID string `json:"planId"`
	Seq    int    `json:"seq"`
	Total  int    `json:"total"`
}

// Foreign is the original currency of a converted entry.
type Foreign struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
	Rate     float64 `json:"rate"`
}

// Subscription is the backup form of model.Subscription.
type Subscription struct {
	ID             string    `json:"id" validate:"required"`
	CardID         string    `json:"cardId" validate:"required"`
	Name           string    `json:"name"`
	Category       string    `json:"category,omitempty"`
	Amount         float64   `json:"amount" validate:"gte=0"`
	Cadence        string    `json:"cadence" validate:"oneof=monthly yearly"`
	NextChargeDate time.Time `json:"nextChargeDate"`
	AnchorDay      int       `json:"anchorDay,omitempty" validate:"gte=0,lte=31"`
	Active         bool      `json:"active"`
}

// InstallmentPlan is the backup form of model.InstallmentPlan.
type InstallmentPlan struct {
	ID            string    `json:"id" validate:"required"`
	CardID        string    `json:"cardId" validate:"required"`
	Description   string    `json:"description"`
	TotalAmount   float64   `json:"totalAmount"`
	Tenor         int       `json:"tenor" validate:"min=1"`
	MonthlyAmount float64   `json:"monthlyAmount"`
	StartDate     time.Time `json:"startDate"`
	AdminFee      float64   `json:"adminFee,omitempty"`
}

// LimitRecord is the backup form of model.LimitIncreaseRecord.
type LimitRecord struct {
	ID              string     `json:"id" validate:"required"`
	CardID          string     `json:"cardId" validate:"required"`
	RequestDate     time.Time  `json:"requestDate"`
	ActionDate      *time.Time `json:"actionDate,omitempty"`
	RequestedAmount float64    `json:"requestedAmount"`
	Type            string     `json:"type" validate:"oneof=permanent temporary"`
	FrequencyMonths int        `json:"frequencyMonths"`
	Status          string     `json:"status" validate:"oneof=pending approved rejected"`
}

// Meta describes a decoded file.
type Meta struct {
	Version   int
	Timestamp time.Time
}

var validate = validator.New()

// Encode writes snap as a current-version backup stamped with now.
func Encode(w io.Writer, snap model.Snapshot, now time.Time) error {
	f := fromSnapshot(snap)
	f.Version = CurrentVersion
	f.Timestamp = now.UTC()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}
	return nil
}

// Decode reads a backup of any supported version. Arrays missing from older
// versions come back as empty slices.
func Decode(r io.Reader) (model.Snapshot, Meta, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return model.Snapshot{}, Meta{}, fmt.Errorf("decoding backup: %w", err)
	}
	if f.Version < 1 || f.Version > CurrentVersion {
		return model.Snapshot{}, Meta{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}
	upgrade(&f)
	if err := validate.Struct(f); err != nil {
		return model.Snapshot{}, Meta{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return f.toSnapshot(), Meta{Version: f.Version, Timestamp: f.Timestamp}, nil
}

// upgrade normalizes older payloads in place. Version 1 stored refunds as
// negative charges without a kind and payments without a completeness.
// Arrays absent from the payload become empty.
func upgrade(f *File) {
	for i := range f.Transactions {
		t := &f.Transactions[i]
		if t.Kind == "" {
			t.Kind = string(model.TxCharge)
			if t.Amount < 0 {
				t.Kind = string(model.TxRefund)
			}
		}
		if t.Amount < 0 {
			t.Amount = -t.Amount
		}
	}
	for i := range f.Cards {
		for j := range f.Cards[i].PaymentHistory {
			if f.Cards[i].PaymentHistory[j].Completeness == "" {
				f.Cards[i].PaymentHistory[j].Completeness = string(model.PaymentFull)
			}
		}
	}
	if f.Cards == nil {
		f.Cards = []Card{}
	}
	if f.Transactions == nil {
		f.Transactions = []Transaction{}
	}
	if f.Subscriptions == nil {
		f.Subscriptions = []Subscription{}
	}
	if f.LimitIncreaseRecords == nil {
		f.LimitIncreaseRecords = []LimitRecord{}
	}
	if f.InstallmentPlans == nil {
		f.InstallmentPlans = []InstallmentPlan{}
	}
}

func money(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}
