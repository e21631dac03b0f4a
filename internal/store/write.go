package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/theirongolddev/cardwise/internal/model"
)

// Collection names one persisted record set.
type Collection string

const (
	Cards            Collection = "cards"
	Transactions     Collection = "transactions"
	Subscriptions    Collection = "subscriptions"
	InstallmentPlans Collection = "installment_plans"
	LimitRecords     Collection = "limit_increase_records"
)

// Collections lists every collection in restore order.
var Collections = []Collection{Cards, Transactions, Subscriptions, InstallmentPlans, LimitRecords}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Save replaces collection c with the snapshot's records, preserving order.
// Records are written as given; nothing is filtered.
func (s *Store) Save(ctx context.Context, c Collection, snap model.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := replace(ctx, tx, c, snap); err != nil {
		return fmt.Errorf("saving %s: %w", c, err)
	}
	return tx.Commit()
}

// Restore replaces every collection in one transaction.
func (s *Store) Restore(ctx context.Context, snap model.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range Collections {
		if err := replace(ctx, tx, c, snap); err != nil {
			return fmt.Errorf("restoring %s: %w", c, err)
		}
	}
	return tx.Commit()
}

func replace(ctx context.Context, ex execer, c Collection, snap model.Snapshot) error {
	switch c {
	case Cards:
		if _, err := ex.ExecContext(ctx, "DELETE FROM payment_records"); err != nil {
			return err
		}
		if _, err := ex.ExecContext(ctx, "DELETE FROM cards"); err != nil {
			return err
		}
		for i, card := range snap.Cards {
			if err := insertCard(ctx, ex, card, i); err != nil {
				return err
			}
		}
	case Transactions:
		if _, err := ex.ExecContext(ctx, "DELETE FROM transactions"); err != nil {
			return err
		}
		for i, t := range snap.Transactions {
			if err := insertTransaction(ctx, ex, t, i); err != nil {
				return err
			}
		}
	case Subscriptions:
		if _, err := ex.ExecContext(ctx, "DELETE FROM subscriptions"); err != nil {
			return err
		}
		for i, sub := range snap.Subscriptions {
			if err := insertSubscription(ctx, ex, sub, i); err != nil {
				return err
			}
		}
	case InstallmentPlans:
		if _, err := ex.ExecContext(ctx, "DELETE FROM installment_plans"); err != nil {
			return err
		}
		for i, p := range snap.InstallmentPlans {
			if err := insertPlan(ctx, ex, p, i); err != nil {
				return err
			}
		}
	case LimitRecords:
		if _, err := ex.ExecContext(ctx, "DELETE FROM limit_increase_records"); err != nil {
			return err
		}
		for i, r := range snap.LimitIncreaseRecords {
			if err := insertLimitRecord(ctx, ex, r, i); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown collection %q", c)
	}
	return nil
}

// appendPos places an inserted record after the table's current last row.
const appendPos = -1

// positionArg binds NULL for appendPos so the statement falls back to
// MAX(position)+1.
func positionArg(pos int) any {
	if pos < 0 {
		return nil
	}
	return pos
}

func insertCard(ctx context.Context, ex execer, c model.Card, pos int) error {
	var (
		feeMonth  int
		feeAmount = "0"
		feeRemind bool
	)
	if c.AnnualFee != nil {
		feeMonth = int(c.AnnualFee.ExpiryMonth)
		feeAmount = c.AnnualFee.Amount.String()
		feeRemind = c.AnnualFee.Remind
	}
	sched, _ := model.ScheduleOf(c.Program())

	_, err := ex.ExecContext(ctx, `INSERT INTO cards
		(id, position, name, bank, last_four, billing_day, due_day, credit_limit, current_usage,
		 monthly_budget, fee_month, fee_amount, fee_remind, limit_type, limit_last_request,
		 limit_frequency, limit_next_eligible, limit_remind, archived)
		VALUES (?, COALESCE(?, (SELECT COALESCE(MAX(position), -1) + 1 FROM cards)),
		 ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		 name = excluded.name, bank = excluded.bank, last_four = excluded.last_four,
		 billing_day = excluded.billing_day, due_day = excluded.due_day,
		 credit_limit = excluded.credit_limit, current_usage = excluded.current_usage,
		 monthly_budget = excluded.monthly_budget, fee_month = excluded.fee_month,
		 fee_amount = excluded.fee_amount, fee_remind = excluded.fee_remind,
		 limit_type = excluded.limit_type, limit_last_request = excluded.limit_last_request,
		 limit_frequency = excluded.limit_frequency, limit_next_eligible = excluded.limit_next_eligible,
		 limit_remind = excluded.limit_remind, archived = excluded.archived`,
		c.ID, positionArg(pos), c.Name, c.Bank, c.LastFour, c.BillingDay, c.DueDay,
		c.CreditLimit.String(), c.CurrentUsage.String(), c.MonthlyBudget.String(),
		feeMonth, feeAmount, feeRemind, string(model.ProgramType(c.Program())), nullTime(sched.LastRequest),
		sched.FrequencyMonths, nullTime(sched.NextEligible), sched.Remind, c.Archived,
	)
	if err != nil {
		return fmt.Errorf("card %s: %w", c.ID, err)
	}

	for i, p := range c.PaymentHistory {
		if err := insertPayment(ctx, ex, p, i); err != nil {
			return err
		}
	}
	return nil
}

func insertPayment(ctx context.Context, ex execer, p model.PaymentRecord, pos int) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO payment_records
		(id, card_id, position, paid_date, amount, cycle, completeness)
		VALUES (?, ?, COALESCE(?, (SELECT COALESCE(MAX(position), -1) + 1 FROM payment_records)), ?, ?, ?, ?)`,
		p.ID, p.CardID, positionArg(pos), formatTime(p.PaidDate), p.Amount.String(), p.Cycle, string(p.Completeness),
	)
	if err != nil {
		return fmt.Errorf("payment %s: %w", p.ID, err)
	}
	return nil
}

func insertTransaction(ctx context.Context, ex execer, t model.Transaction, pos int) error {
	var (
		planID, subID        any
		seq, total           any
		fxCur, fxAmt, fxRate any
	)
	if t.Installment != nil {
		planID, seq, total = t.Installment.PlanID, t.Installment.Seq, t.Installment.Total
	}
	if t.SubscriptionID != "" {
		subID = t.SubscriptionID
	}
	if t.Foreign != nil {
		fxCur, fxAmt, fxRate = t.Foreign.Currency, t.Foreign.Amount.String(), t.Foreign.Rate.String()
	}

	_, err := ex.ExecContext(ctx, `INSERT INTO transactions
		(id, position, card_id, kind, category, description, date, amount,
		 plan_id, plan_seq, plan_total, subscription_id, foreign_currency, foreign_amount, foreign_rate)
		VALUES (?, COALESCE(?, (SELECT COALESCE(MAX(position), -1) + 1 FROM transactions)),
		 ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, positionArg(pos), t.CardID, string(t.Kind), t.Category, t.Description, formatTime(t.Date), t.Amount.String(),
		planID, seq, total, subID, fxCur, fxAmt, fxRate,
	)
	if err != nil {
		return fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	return nil
}

func insertSubscription(ctx context.Context, ex execer, sub model.Subscription, pos int) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO subscriptions
		(id, position, card_id, name, category, amount, cadence, next_charge_date, anchor_day, active)
		VALUES (?, COALESCE(?, (SELECT COALESCE(MAX(position), -1) + 1 FROM subscriptions)), ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, positionArg(pos), sub.CardID, sub.Name, sub.Category, sub.Amount.String(),
		string(sub.Cadence), formatTime(sub.NextChargeDate), sub.AnchorDay, sub.Active,
	)
	if err != nil {
		return fmt.Errorf("subscription %s: %w", sub.ID, err)
	}
	return nil
}

func insertPlan(ctx context.Context, ex execer, p model.InstallmentPlan, pos int) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO installment_plans
		(id, position, card_id, description, total_amount, tenor, monthly_amount, start_date, admin_fee)
		VALUES (?, COALESCE(?, (SELECT COALESCE(MAX(position), -1) + 1 FROM installment_plans)), ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, positionArg(pos), p.CardID, p.Description, p.TotalAmount.String(), p.Tenor,
		p.MonthlyAmount.String(), formatTime(p.StartDate), p.AdminFee.String(),
	)
	if err != nil {
		return fmt.Errorf("installment plan %s: %w", p.ID, err)
	}
	return nil
}

func insertLimitRecord(ctx context.Context, ex execer, r model.LimitIncreaseRecord, pos int) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO limit_increase_records
		(id, position, card_id, request_date, action_date, requested_amount, type, frequency_months, status)
		VALUES (?, COALESCE(?, (SELECT COALESCE(MAX(position), -1) + 1 FROM limit_increase_records)), ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, positionArg(pos), r.CardID, formatTime(r.RequestDate), nullTime(r.ActionDate),
		r.RequestedAmount.String(), string(r.Type), r.FrequencyMonths, string(r.Status),
	)
	if err != nil {
		return fmt.Errorf("limit record %s: %w", r.ID, err)
	}
	return nil
}
