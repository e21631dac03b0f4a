package engine

import (
	"time"

	"github.com/theirongolddev/cardwise/internal/dates"
	"github.com/theirongolddev/cardwise/internal/model"
)

// CardRequest is the validated input for creating or editing a card.
type CardRequest struct {
	ID            string  // empty for a new card
	Name          string  `validate:"required,max=64"`
	Bank          string  `validate:"max=64"`
	LastFour      string  `validate:"omitempty,len=4,numeric"`
	BillingDay    int     `validate:"min=1,max=31"`
	DueDay        int     `validate:"min=1,max=31"`
	CreditLimit   float64 `validate:"gte=0"`
	MonthlyBudget float64 `validate:"gte=0"`

	AnnualFeeMonth  int     `validate:"min=0,max=12"` // 0 = no annual fee
	AnnualFeeAmount float64 `validate:"gte=0"`
	AnnualFeeRemind bool

	LimitType         model.LimitType `validate:"omitempty,oneof=permanent temporary"`
	LastLimitIncrease *time.Time
	LimitFrequency    int `validate:"gte=0,lte=60"`
	LimitRemind       bool
}

// BuildCard validates req and applies it on top of base, keeping base's
// derived usage, payment history and archive flag.
func (e *Engine) BuildCard(base model.Card, req CardRequest) (model.Card, error) {
	if err := e.Validate(req); err != nil {
		return model.Card{}, err
	}

	c := base
	if c.ID == "" {
		c.ID = req.ID
	}
	if c.ID == "" {
		c.ID = e.newID()
	}
	c.Name = req.Name
	c.Bank = req.Bank
	c.LastFour = req.LastFour
	c.BillingDay = req.BillingDay
	c.DueDay = req.DueDay
	c.CreditLimit = money(req.CreditLimit)
	c.MonthlyBudget = money(req.MonthlyBudget)

	c.AnnualFee = nil
	if req.AnnualFeeMonth > 0 {
		c.AnnualFee = &model.AnnualFee{
			ExpiryMonth: time.Month(req.AnnualFeeMonth),
			Amount:      money(req.AnnualFeeAmount),
			Remind:      req.AnnualFeeRemind,
		}
	}

	c.LimitProgram = model.NewProgram(req.LimitType, model.ProgramSchedule{
		LastRequest:     req.LastLimitIncrease,
		FrequencyMonths: req.LimitFrequency,
		Remind:          req.LimitRemind,
	})
	if next, ok := NextLimitEligibility(c, nil); ok {
		sched, _ := model.ScheduleOf(c.LimitProgram)
		sched.NextEligible = &next
		c.LimitProgram = model.WithSchedule(c.LimitProgram, sched)
	}
	return c, nil
}

// TransactionRequest is the validated input for a manual ledger entry.
type TransactionRequest struct {
	CardID          string       `validate:"required"`
	Kind            model.TxKind `validate:"oneof=charge refund payment fee"`
	Category        string       `validate:"max=64"`
	Description     string       `validate:"max=256"`
	Date            time.Time    `validate:"required"`
	Amount          float64      `validate:"gt=0"`
	ForeignCurrency string       `validate:"omitempty,len=3,alpha"`
	ForeignAmount   float64      `validate:"gte=0"`
}

// NewTransaction validates req and returns an immutable ledger entry.
func (e *Engine) NewTransaction(req TransactionRequest) (model.Transaction, error) {
	if err := e.Validate(req); err != nil {
		return model.Transaction{}, err
	}
	t := model.Transaction{
		ID:          e.newID(),
		CardID:      req.CardID,
		Kind:        req.Kind,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
		Amount:      money(req.Amount),
	}
	if req.ForeignCurrency != "" && req.ForeignAmount > 0 {
		fa := money(req.ForeignAmount)
		t.Foreign = &model.ForeignAmount{
			Currency: req.ForeignCurrency,
			Amount:   fa,
			Rate:     t.Amount.DivRound(fa, 6),
		}
	}
	return t, nil
}

// PaymentRequest is the validated input for logging a bill payment.
type PaymentRequest struct {
	CardID       string                    `validate:"required"`
	PaidDate     time.Time                 `validate:"required"`
	Amount       float64                   `validate:"gt=0"`
	Completeness model.PaymentCompleteness `validate:"oneof=full minimal"`
	Cycle        string                    `validate:"omitempty,datetime=2006-01"`
}

// NewPayment validates req and returns a payment record. The cycle defaults
// to the month the payment was made in.
func (e *Engine) NewPayment(req PaymentRequest) (model.PaymentRecord, error) {
	if err := e.Validate(req); err != nil {
		return model.PaymentRecord{}, err
	}
	cycle := req.Cycle
	if cycle == "" {
		cycle = dates.MonthKey(req.PaidDate)
	}
	return model.PaymentRecord{
		ID:           e.newID(),
		CardID:       req.CardID,
		PaidDate:     req.PaidDate,
		Amount:       money(req.Amount),
		Cycle:        cycle,
		Completeness: req.Completeness,
	}, nil
}

// RequestFromCard returns the request that rebuilds c. Edits start from it
// and override only the fields the caller changes.
func RequestFromCard(c model.Card) CardRequest {
	req := CardRequest{
		ID:            c.ID,
		Name:          c.Name,
		Bank:          c.Bank,
		LastFour:      c.LastFour,
		BillingDay:    c.BillingDay,
		DueDay:        c.DueDay,
		CreditLimit:   c.CreditLimit.InexactFloat64(),
		MonthlyBudget: c.MonthlyBudget.InexactFloat64(),
		LimitType:     model.ProgramType(c.Program()),
	}
	if c.AnnualFee != nil {
		req.AnnualFeeMonth = int(c.AnnualFee.ExpiryMonth)
		req.AnnualFeeAmount = c.AnnualFee.Amount.InexactFloat64()
		req.AnnualFeeRemind = c.AnnualFee.Remind
	}
	if sched, ok := model.ScheduleOf(c.Program()); ok {
		req.LastLimitIncrease = sched.LastRequest
		req.LimitFrequency = sched.FrequencyMonths
		req.LimitRemind = sched.Remind
	}
	return req
}
