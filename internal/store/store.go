// Package store persists cardwise records in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/cardwise/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNotFound is returned when a mutation targets a record that does not exist.
var ErrNotFound = errors.New("record not found")

const timeLayout = time.RFC3339Nano

// Store is the SQLite-backed record store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at the given path and applies the schema.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if err := addMissingColumns(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("upgrading schema: %w", err)
	}

	return &Store{db: db}, nil
}

// New wraps an already-open database. The schema is not applied.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the handle for collaborators sharing the file, such as the
// reminder queue.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Load reads the full snapshot. Every collection comes back in saved order.
func (s *Store) Load(ctx context.Context) (model.Snapshot, error) {
	var (
		snap model.Snapshot
		err  error
	)
	if snap.Cards, err = s.loadCards(ctx); err != nil {
		return model.Snapshot{}, fmt.Errorf("loading cards: %w", err)
	}
	if snap.Transactions, err = s.loadTransactions(ctx); err != nil {
		return model.Snapshot{}, fmt.Errorf("loading transactions: %w", err)
	}
	if snap.Subscriptions, err = s.loadSubscriptions(ctx); err != nil {
		return model.Snapshot{}, fmt.Errorf("loading subscriptions: %w", err)
	}
	if snap.InstallmentPlans, err = s.loadPlans(ctx); err != nil {
		return model.Snapshot{}, fmt.Errorf("loading installment plans: %w", err)
	}
	if snap.LimitIncreaseRecords, err = s.loadLimitRecords(ctx); err != nil {
		return model.Snapshot{}, fmt.Errorf("loading limit records: %w", err)
	}
	return snap, nil
}

func (s *Store) loadCards(ctx context.Context) ([]model.Card, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, name, bank, last_four, billing_day, due_day, credit_limit, current_usage,
		monthly_budget, fee_month, fee_amount, fee_remind, limit_type, limit_last_request,
		limit_frequency, limit_next_eligible, limit_remind, archived
		FROM cards ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cards []model.Card
	for rows.Next() {
		var (
			c                 model.Card
			feeMonth          int
			feeAmount         decimal.Decimal
			feeRemind         bool
			limitType         string
			lastReq, nextElig sql.NullString
			limitFreq         int
			limitRemind       bool
		)
		err := rows.Scan(
			&c.ID, &c.Name, &c.Bank, &c.LastFour, &c.BillingDay, &c.DueDay, &c.CreditLimit, &c.CurrentUsage,
			&c.MonthlyBudget, &feeMonth, &feeAmount, &feeRemind, &limitType, &lastReq,
			&limitFreq, &nextElig, &limitRemind, &c.Archived,
		)
		if err != nil {
			return nil, err
		}

		if feeMonth > 0 {
			c.AnnualFee = &model.AnnualFee{
				ExpiryMonth: time.Month(feeMonth),
				Amount:      feeAmount,
				Remind:      feeRemind,
			}
		}

		sched := model.ProgramSchedule{FrequencyMonths: limitFreq, Remind: limitRemind}
		if sched.LastRequest, err = parseNullTime(lastReq); err != nil {
			return nil, err
		}
		if sched.NextEligible, err = parseNullTime(nextElig); err != nil {
			return nil, err
		}
		c.LimitProgram = model.NewProgram(model.LimitType(limitType), sched)

		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Batch-load payment history
	idx := make(map[string]int, len(cards))
	for i, c := range cards {
		idx[c.ID] = i
	}

	prows, err := s.db.QueryContext(ctx, `SELECT id, card_id, paid_date, amount, cycle, completeness
		FROM payment_records ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = prows.Close() }()

	for prows.Next() {
		var (
			p    model.PaymentRecord
			paid string
		)
		if err := prows.Scan(&p.ID, &p.CardID, &paid, &p.Amount, &p.Cycle, &p.Completeness); err != nil {
			return nil, err
		}
		if p.PaidDate, err = parseTime(paid); err != nil {
			return nil, err
		}
		if i, ok := idx[p.CardID]; ok {
			cards[i].PaymentHistory = append(cards[i].PaymentHistory, p)
		}
	}
	return cards, prows.Err()
}

func (s *Store) loadTransactions(ctx context.Context) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, card_id, kind, category, description, date, amount,
		plan_id, plan_seq, plan_total, subscription_id,
		foreign_currency, foreign_amount, foreign_rate
		FROM transactions ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var txs []model.Transaction
	for rows.Next() {
		var (
			t                    model.Transaction
			date                 string
			planID, subID        sql.NullString
			seq, total           sql.NullInt64
			fxCur, fxAmt, fxRate sql.NullString
		)
		err := rows.Scan(&t.ID, &t.CardID, &t.Kind, &t.Category, &t.Description, &date, &t.Amount,
			&planID, &seq, &total, &subID, &fxCur, &fxAmt, &fxRate)
		if err != nil {
			return nil, err
		}
		if t.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		if planID.Valid {
			t.Installment = &model.InstallmentRef{PlanID: planID.String, Seq: int(seq.Int64), Total: int(total.Int64)}
		}
		t.SubscriptionID = subID.String
		if fxCur.Valid {
			fx := &model.ForeignAmount{Currency: fxCur.String}
			if err := fx.Amount.Scan(fxAmt.String); err != nil {
				return nil, err
			}
			if err := fx.Rate.Scan(fxRate.String); err != nil {
				return nil, err
			}
			t.Foreign = fx
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (s *Store) loadSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, card_id, name, category, amount, cadence, next_charge_date, anchor_day, active
		FROM subscriptions ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var subs []model.Subscription
	for rows.Next() {
		var (
			sub  model.Subscription
			next string
		)
		if err := rows.Scan(&sub.ID, &sub.CardID, &sub.Name, &sub.Category, &sub.Amount, &sub.Cadence, &next, &sub.AnchorDay, &sub.Active); err != nil {
			return nil, err
		}
		if sub.NextChargeDate, err = parseTime(next); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *Store) loadPlans(ctx context.Context) ([]model.InstallmentPlan, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, card_id, description, total_amount, tenor, monthly_amount, start_date, admin_fee
		FROM installment_plans ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var plans []model.InstallmentPlan
	for rows.Next() {
		var (
			p     model.InstallmentPlan
			start string
		)
		if err := rows.Scan(&p.ID, &p.CardID, &p.Description, &p.TotalAmount, &p.Tenor, &p.MonthlyAmount, &start, &p.AdminFee); err != nil {
			return nil, err
		}
		if p.StartDate, err = parseTime(start); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (s *Store) loadLimitRecords(ctx context.Context) ([]model.LimitIncreaseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, card_id, request_date, action_date, requested_amount, type, frequency_months, status
		FROM limit_increase_records ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var recs []model.LimitIncreaseRecord
	for rows.Next() {
		var (
			r      model.LimitIncreaseRecord
			req    string
			action sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.CardID, &req, &action, &r.RequestedAmount, &r.Type, &r.FrequencyMonths, &r.Status); err != nil {
			return nil, err
		}
		if r.RequestDate, err = parseTime(req); err != nil {
			return nil, err
		}
		if r.ActionDate, err = parseNullTime(action); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t.Local(), nil
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
