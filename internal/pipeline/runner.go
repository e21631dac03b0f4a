package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/model"
	"github.com/theirongolddev/cardwise/internal/notify"
	"github.com/theirongolddev/cardwise/internal/store"
)

// Store is the persistence surface the runner needs.
type Store interface {
	Load(ctx context.Context) (model.Snapshot, error)
	Restore(ctx context.Context, snap model.Snapshot) error
	UpsertCard(ctx context.Context, c model.Card) error
	UpdateDerived(ctx context.Context, cards []model.Card) error
	InsertTransaction(ctx context.Context, t model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	CommitSubscriptionRun(ctx context.Context, charged []model.Subscription, emitted []model.Transaction) error
	CommitInstallments(ctx context.Context, plan model.InstallmentPlan, txs []model.Transaction) error
	DeletePlan(ctx context.Context, id string) (int64, error)
	InsertSubscription(ctx context.Context, sub model.Subscription) error
	SetSubscriptionActive(ctx context.Context, id string, active bool) error
	DeleteSubscription(ctx context.Context, id string) error
	InsertLimitRecord(ctx context.Context, r model.LimitIncreaseRecord) error
	InsertPayment(ctx context.Context, p model.PaymentRecord) error
}

// Runner serializes every read-modify-write cycle over the store. All
// mutations end with a refresh so derived fields and reminders never lag
// behind the ledger.
type Runner struct {
	store    Store
	eng      *engine.Engine
	notifier notify.Notifier
	log      logrus.FieldLogger

	mu    sync.Mutex
	prefs engine.Preferences
}

// NewRunner wires the pipeline. A nil notifier skips reminder planning.
func NewRunner(st Store, eng *engine.Engine, n notify.Notifier, prefs engine.Preferences, log logrus.FieldLogger) *Runner {
	return &Runner{store: st, eng: eng, notifier: n, prefs: prefs, log: log}
}

// Engine returns the runner's engine.
func (r *Runner) Engine() *engine.Engine {
	return r.eng
}

// RefreshResult reports what a refresh changed.
type RefreshResult struct {
	Snapshot  model.Snapshot
	Emitted   []model.Transaction
	Charged   []string
	Updated   int // cards whose derived fields were rewritten
	Reminders notify.ApplyResult
	Duration  time.Duration
}

// Refresh loads the snapshot, bills due subscriptions, recomputes usage and
// limit schedules, persists changed derived fields and re-plans reminders.
// Running it twice in a row changes nothing the second time.
func (r *Runner) Refresh(ctx context.Context) (RefreshResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshLocked(ctx)
}

func (r *Runner) refreshLocked(ctx context.Context) (RefreshResult, error) {
	start := time.Now()
	var res RefreshResult

	snap, err := r.store.Load(ctx)
	if err != nil {
		return res, fmt.Errorf("loading snapshot: %w", err)
	}
	stored := snap.Cards
	snap.Cards = r.eng.RecomputeUsage(snap)

	run, err := r.eng.ProcessSubscriptions(snap)
	if err != nil {
		return res, fmt.Errorf("processing subscriptions: %w", err)
	}
	if len(run.Emitted) > 0 {
		if err := r.store.CommitSubscriptionRun(ctx, chargedSubscriptions(run), run.Emitted); err != nil {
			return res, fmt.Errorf("committing subscription run: %w", err)
		}
		snap.Subscriptions = run.Subscriptions
		snap.Transactions = append(snap.Transactions, run.Emitted...)
		snap.Cards, _ = r.eng.RecomputeCards(snap, run.AffectedCards())
		r.log.WithFields(logrus.Fields{
			"emitted": len(run.Emitted),
			"cards":   len(run.AffectedCards()),
		}).Info("billed due subscriptions")
	}
	res.Emitted = run.Emitted
	res.Charged = run.Charged

	snap.Cards = r.eng.RefreshLimitSchedules(snap)

	changed := derivedChanges(stored, snap.Cards)
	if err := r.store.UpdateDerived(ctx, changed); err != nil {
		return res, fmt.Errorf("saving derived fields: %w", err)
	}
	res.Updated = len(changed)

	if r.notifier != nil {
		plan := r.eng.PlanAllReminders(snap, r.prefs)
		if res.Reminders, err = notify.Apply(ctx, r.notifier, plan); err != nil {
			return res, fmt.Errorf("applying reminder plan: %w", err)
		}
	}

	res.Snapshot = snap
	res.Duration = time.Since(start)
	r.log.WithFields(logrus.Fields{
		"cards":     len(snap.Cards),
		"updated":   res.Updated,
		"scheduled": res.Reminders.Scheduled,
		"took":      res.Duration.Round(time.Millisecond).String(),
	}).Debug("refresh complete")
	return res, nil
}

func chargedSubscriptions(run engine.SubscriptionRun) []model.Subscription {
	ids := make(map[string]struct{}, len(run.Charged))
	for _, id := range run.Charged {
		ids[id] = struct{}{}
	}
	var out []model.Subscription
	for _, s := range run.Subscriptions {
		if _, ok := ids[s.ID]; ok {
			out = append(out, s)
		}
	}
	return out
}

// derivedChanges returns the cards in next whose usage or next limit
// eligibility differs from the stored copy.
func derivedChanges(stored, next []model.Card) []model.Card {
	prev := make(map[string]model.Card, len(stored))
	for _, c := range stored {
		prev[c.ID] = c
	}
	var out []model.Card
	for _, c := range next {
		old, ok := prev[c.ID]
		if !ok || !old.CurrentUsage.Equal(c.CurrentUsage) || !sameTime(nextEligible(old), nextEligible(c)) {
			out = append(out, c)
		}
	}
	return out
}

func nextEligible(c model.Card) *time.Time {
	sched, _ := model.ScheduleOf(c.Program())
	return sched.NextEligible
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// Preferences returns the current reminder preferences.
func (r *Runner) Preferences() engine.Preferences {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prefs
}

// SetPreferences swaps the reminder preferences and re-plans every card.
func (r *Runner) SetPreferences(ctx context.Context, prefs engine.Preferences) (RefreshResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs = prefs
	return r.refreshLocked(ctx)
}

// mutate runs fn under the lock with a fresh snapshot, then refreshes.
func (r *Runner) mutate(ctx context.Context, what string, fn func(snap model.Snapshot) error) (RefreshResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.store.Load(ctx)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("loading snapshot: %w", err)
	}
	if err := fn(snap); err != nil {
		return RefreshResult{}, err
	}
	r.log.WithField("op", what).Debug("mutation stored")
	return r.refreshLocked(ctx)
}

func requireCard(snap model.Snapshot, id string) (model.Card, error) {
	c, ok := snap.Card(id)
	if !ok {
		return model.Card{}, fmt.Errorf("card %s: %w", id, store.ErrNotFound)
	}
	return c, nil
}
