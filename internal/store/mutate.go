package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/theirongolddev/cardwise/internal/model"
)

// UpsertCard inserts or updates a card and replaces its payment history.
// A new card is appended after the existing ones.
func (s *Store) UpsertCard(ctx context.Context, c model.Card) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM payment_records WHERE card_id = ?", c.ID); err != nil {
		return fmt.Errorf("clearing payments for %s: %w", c.ID, err)
	}
	if err := insertCard(ctx, tx, c, appendPos); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateDerived writes the derived fields (usage and next limit eligibility)
// of the given cards in one transaction.
func (s *Store) UpdateDerived(ctx context.Context, cards []model.Card) error {
	if len(cards) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range cards {
		sched, _ := model.ScheduleOf(c.Program())
		res, err := tx.ExecContext(ctx, `UPDATE cards SET current_usage = ?, limit_next_eligible = ? WHERE id = ?`,
			c.CurrentUsage.String(), nullTime(sched.NextEligible), c.ID)
		if err != nil {
			return fmt.Errorf("updating card %s: %w", c.ID, err)
		}
		if err := mustAffect(res, "card", c.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// InsertTransaction appends one ledger entry.
func (s *Store) InsertTransaction(ctx context.Context, t model.Transaction) error {
	return insertTransaction(ctx, s.db, t, appendPos)
}

// DeleteTransaction removes one ledger entry.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting transaction %s: %w", id, err)
	}
	return mustAffect(res, "transaction", id)
}

// CommitSubscriptionRun advances the charged subscriptions and appends the
// emitted entries atomically. Either everything lands or nothing does.
func (s *Store) CommitSubscriptionRun(ctx context.Context, charged []model.Subscription, emitted []model.Transaction) error {
	if len(charged) == 0 && len(emitted) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, sub := range charged {
		res, err := tx.ExecContext(ctx, "UPDATE subscriptions SET next_charge_date = ? WHERE id = ?",
			formatTime(sub.NextChargeDate), sub.ID)
		if err != nil {
			return fmt.Errorf("advancing subscription %s: %w", sub.ID, err)
		}
		if err := mustAffect(res, "subscription", sub.ID); err != nil {
			return err
		}
	}
	for _, t := range emitted {
		if err := insertTransaction(ctx, tx, t, appendPos); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CommitInstallments stores a plan and all of its generated entries
// atomically.
func (s *Store) CommitInstallments(ctx context.Context, plan model.InstallmentPlan, txs []model.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertPlan(ctx, tx, plan, appendPos); err != nil {
		return err
	}
	for _, t := range txs {
		if err := insertTransaction(ctx, tx, t, appendPos); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeletePlan removes a plan and the installment entries it generated. The
// admin fee entry is a regular charge and stays.
func (s *Store) DeletePlan(ctx context.Context, id string) (removed int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "DELETE FROM installment_plans WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("deleting plan %s: %w", id, err)
	}
	if err := mustAffect(res, "installment plan", id); err != nil {
		return 0, err
	}
	res, err = tx.ExecContext(ctx, "DELETE FROM transactions WHERE plan_id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("deleting entries of plan %s: %w", id, err)
	}
	removed, _ = res.RowsAffected()
	return removed, tx.Commit()
}

// InsertSubscription appends a subscription.
func (s *Store) InsertSubscription(ctx context.Context, sub model.Subscription) error {
	return insertSubscription(ctx, s.db, sub, appendPos)
}

// SetSubscriptionActive pauses or resumes a subscription.
func (s *Store) SetSubscriptionActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE subscriptions SET active = ? WHERE id = ?", active, id)
	if err != nil {
		return fmt.Errorf("updating subscription %s: %w", id, err)
	}
	return mustAffect(res, "subscription", id)
}

// DeleteSubscription removes a subscription. Entries it already emitted stay
// in the ledger.
func (s *Store) DeleteSubscription(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM subscriptions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting subscription %s: %w", id, err)
	}
	return mustAffect(res, "subscription", id)
}

// InsertLimitRecord appends a limit-increase history record.
func (s *Store) InsertLimitRecord(ctx context.Context, r model.LimitIncreaseRecord) error {
	return insertLimitRecord(ctx, s.db, r, appendPos)
}

// InsertPayment appends a payment to its card's history.
func (s *Store) InsertPayment(ctx context.Context, p model.PaymentRecord) error {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cards WHERE id = ?", p.CardID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("card %s: %w", p.CardID, ErrNotFound)
	}
	return insertPayment(ctx, s.db, p, appendPos)
}

func mustAffect(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
