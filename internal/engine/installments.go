package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/cardwise/internal/dates"
	"github.com/theirongolddev/cardwise/internal/model"
)

// money converts a user-entered amount to cents precision.
func money(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

// InstallmentRequest is the validated input for splitting a purchase.
type InstallmentRequest struct {
	CardID        string    `validate:"required"`
	Tenor         int       `validate:"min=1,max=120"`
	MonthlyAmount float64   `validate:"gt=0"`
	Description   string    `validate:"required"`
	StartDate     time.Time `validate:"required"`
	AdminFee      float64   `validate:"gte=0"`
	Category      string
}

// InstallmentBatch is a plan and every ledger entry it generated. The caller
// must persist them in one batch.
type InstallmentBatch struct {
	Plan         model.InstallmentPlan
	Transactions []model.Transaction
}

// Total returns the sum of all generated entries, fee included.
func (b InstallmentBatch) Total() decimal.Decimal {
	total := decimal.Zero
	for _, t := range b.Transactions {
		total = total.Add(t.Amount)
	}
	return total
}

// GenerateInstallments expands req into Tenor monthly entries dated
// start + i months (clamped to month length, always computed from the
// original start), plus one fee entry dated now when AdminFee > 0.
func (e *Engine) GenerateInstallments(req InstallmentRequest) (InstallmentBatch, error) {
	if err := e.Validate(req); err != nil {
		return InstallmentBatch{}, err
	}

	now := e.now()
	monthly := money(req.MonthlyAmount)
	fee := money(req.AdminFee)
	category := req.Category
	if category == "" {
		category = model.CategoryInstallment
	}

	plan := model.InstallmentPlan{
		ID:            e.newID(),
		CardID:        req.CardID,
		Description:   req.Description,
		TotalAmount:   monthly.Mul(decimal.NewFromInt(int64(req.Tenor))),
		Tenor:         req.Tenor,
		MonthlyAmount: monthly,
		StartDate:     req.StartDate,
		AdminFee:      fee,
	}

	txs := make([]model.Transaction, 0, req.Tenor+1)
	for i := 0; i < req.Tenor; i++ {
		txs = append(txs, model.Transaction{
			ID:          e.newID(),
			CardID:      req.CardID,
			Kind:        model.TxCharge,
			Category:    category,
			Description: fmt.Sprintf("%s (%d/%d)", req.Description, i+1, req.Tenor),
			Date:        dates.AddMonths(req.StartDate, i),
			Amount:      monthly,
			Installment: &model.InstallmentRef{PlanID: plan.ID, Seq: i + 1, Total: req.Tenor},
		})
	}
	if fee.IsPositive() {
		txs = append(txs, model.Transaction{
			ID:          e.newID(),
			CardID:      req.CardID,
			Kind:        model.TxFee,
			Category:    model.CategoryInstallmentFee,
			Description: "Installment fee: " + req.Description,
			Date:        now,
			Amount:      fee,
		})
	}

	return InstallmentBatch{Plan: plan, Transactions: txs}, nil
}

// PlanProgress is derived from a plan's ledger entries.
type PlanProgress struct {
	Posted          int // entries dated on or before now
	Remaining       int
	PostedAmount    decimal.Decimal
	RemainingAmount decimal.Decimal
	NextDate        *time.Time
}

// Progress derives a plan's progress from the ledger. Deleted entries simply
// stop counting.
func Progress(plan model.InstallmentPlan, txs []model.Transaction, now time.Time) PlanProgress {
	p := PlanProgress{PostedAmount: decimal.Zero, RemainingAmount: decimal.Zero}
	for _, t := range txs {
		if t.Installment == nil || t.Installment.PlanID != plan.ID {
			continue
		}
		if t.Date.After(now) {
			p.Remaining++
			p.RemainingAmount = p.RemainingAmount.Add(t.Amount)
			if p.NextDate == nil || t.Date.Before(*p.NextDate) {
				d := t.Date
				p.NextDate = &d
			}
			continue
		}
		p.Posted++
		p.PostedAmount = p.PostedAmount.Add(t.Amount)
	}
	return p
}
