package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/model"
	"github.com/theirongolddev/cardwise/internal/store"
)

// ResolveCard finds a card by exact ID, unique ID prefix, or name (case
// insensitive).
func ResolveCard(snap model.Snapshot, ref string) (model.Card, error) {
	if c, ok := snap.Card(ref); ok {
		return c, nil
	}
	var matches []model.Card
	for _, c := range snap.Cards {
		if strings.HasPrefix(c.ID, ref) || strings.EqualFold(c.Name, ref) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return model.Card{}, fmt.Errorf("card %q: %w", ref, store.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return model.Card{}, fmt.Errorf("card %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// AddCard creates a card.
func (r *Runner) AddCard(ctx context.Context, req engine.CardRequest) (model.Card, error) {
	var card model.Card
	_, err := r.mutate(ctx, "add card", func(model.Snapshot) error {
		c, err := r.eng.BuildCard(model.Card{}, req)
		if err != nil {
			return err
		}
		card = c
		return r.store.UpsertCard(ctx, c)
	})
	return card, err
}

// EditCard applies req to an existing card. Usage is recomputed, so a
// billing-day change takes effect immediately.
func (r *Runner) EditCard(ctx context.Context, id string, req engine.CardRequest) (model.Card, error) {
	var card model.Card
	_, err := r.mutate(ctx, "edit card", func(snap model.Snapshot) error {
		base, err := requireCard(snap, id)
		if err != nil {
			return err
		}
		c, err := r.eng.BuildCard(base, req)
		if err != nil {
			return err
		}
		card = c
		return r.store.UpsertCard(ctx, c)
	})
	return card, err
}

// SetArchived archives or restores a card. Archived cards keep their ledger
// but drop out of health scores and reminders.
func (r *Runner) SetArchived(ctx context.Context, id string, archived bool) error {
	_, err := r.mutate(ctx, "archive card", func(snap model.Snapshot) error {
		c, err := requireCard(snap, id)
		if err != nil {
			return err
		}
		c.Archived = archived
		return r.store.UpsertCard(ctx, c)
	})
	return err
}

// AddTransaction appends a manual ledger entry.
func (r *Runner) AddTransaction(ctx context.Context, req engine.TransactionRequest) (model.Transaction, error) {
	var tx model.Transaction
	_, err := r.mutate(ctx, "add transaction", func(snap model.Snapshot) error {
		if _, err := requireCard(snap, req.CardID); err != nil {
			return err
		}
		t, err := r.eng.NewTransaction(req)
		if err != nil {
			return err
		}
		tx = t
		return r.store.InsertTransaction(ctx, t)
	})
	return tx, err
}

// DeleteTransaction removes a ledger entry.
func (r *Runner) DeleteTransaction(ctx context.Context, id string) error {
	_, err := r.mutate(ctx, "delete transaction", func(model.Snapshot) error {
		return r.store.DeleteTransaction(ctx, id)
	})
	return err
}

// AddInstallments generates and stores an installment plan with all of its
// entries.
func (r *Runner) AddInstallments(ctx context.Context, req engine.InstallmentRequest) (engine.InstallmentBatch, error) {
	var batch engine.InstallmentBatch
	_, err := r.mutate(ctx, "add installments", func(snap model.Snapshot) error {
		if _, err := requireCard(snap, req.CardID); err != nil {
			return err
		}
		b, err := r.eng.GenerateInstallments(req)
		if err != nil {
			return err
		}
		batch = b
		return r.store.CommitInstallments(ctx, b.Plan, b.Transactions)
	})
	return batch, err
}

// DeletePlan removes a plan and its generated entries and returns how many
// entries went with it.
func (r *Runner) DeletePlan(ctx context.Context, id string) (int64, error) {
	var removed int64
	_, err := r.mutate(ctx, "delete plan", func(model.Snapshot) error {
		n, err := r.store.DeletePlan(ctx, id)
		removed = n
		return err
	})
	return removed, err
}

// AddSubscription stores a subscription. If its first charge date has
// arrived it is billed by the refresh that follows.
func (r *Runner) AddSubscription(ctx context.Context, req engine.SubscriptionRequest) (model.Subscription, RefreshResult, error) {
	var sub model.Subscription
	res, err := r.mutate(ctx, "add subscription", func(snap model.Snapshot) error {
		if _, err := requireCard(snap, req.CardID); err != nil {
			return err
		}
		s, err := r.eng.NewSubscription(req)
		if err != nil {
			return err
		}
		sub = s
		return r.store.InsertSubscription(ctx, s)
	})
	return sub, res, err
}

// SetSubscriptionActive pauses or resumes a subscription.
func (r *Runner) SetSubscriptionActive(ctx context.Context, id string, active bool) error {
	_, err := r.mutate(ctx, "toggle subscription", func(model.Snapshot) error {
		return r.store.SetSubscriptionActive(ctx, id, active)
	})
	return err
}

// DeleteSubscription removes a subscription.
func (r *Runner) DeleteSubscription(ctx context.Context, id string) error {
	_, err := r.mutate(ctx, "delete subscription", func(model.Snapshot) error {
		return r.store.DeleteSubscription(ctx, id)
	})
	return err
}

// AddLimitRecord logs a limit-increase request. The card's next eligibility
// is recomputed from it.
func (r *Runner) AddLimitRecord(ctx context.Context, req engine.LimitRecordRequest) (model.LimitIncreaseRecord, error) {
	var rec model.LimitIncreaseRecord
	_, err := r.mutate(ctx, "add limit record", func(snap model.Snapshot) error {
		if _, err := requireCard(snap, req.CardID); err != nil {
			return err
		}
		lr, err := r.eng.NewLimitRecord(req)
		if err != nil {
			return err
		}
		rec = lr
		return r.store.InsertLimitRecord(ctx, lr)
	})
	return rec, err
}

// RecordPayment appends a bill payment to the card's history.
func (r *Runner) RecordPayment(ctx context.Context, req engine.PaymentRequest) (model.PaymentRecord, error) {
	var rec model.PaymentRecord
	_, err := r.mutate(ctx, "record payment", func(snap model.Snapshot) error {
		if _, err := requireCard(snap, req.CardID); err != nil {
			return err
		}
		p, err := r.eng.NewPayment(req)
		if err != nil {
			return err
		}
		rec = p
		return r.store.InsertPayment(ctx, p)
	})
	return rec, err
}

// Restore replaces every record with snap in one transaction, then
// recomputes all derived state.
func (r *Runner) Restore(ctx context.Context, snap model.Snapshot) (RefreshResult, error) {
	return r.mutate(ctx, "restore", func(model.Snapshot) error {
		return r.store.Restore(ctx, snap)
	})
}
