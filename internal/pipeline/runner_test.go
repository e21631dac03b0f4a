package pipeline

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/model"
	"github.com/theirongolddev/cardwise/internal/notify"
	"github.com/theirongolddev/cardwise/internal/store"
)

var allReminders = engine.Preferences{Payment: true, LimitIncrease: true, AnnualFee: true}

type fixture struct {
	st    *store.Store
	queue *notify.Queue
	run   *Runner
	now   time.Time
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "cardwise.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	q := notify.NewQueue(st.DB())
	eng := engine.New(engine.WithClock(func() time.Time { return now }))
	return &fixture{st: st, queue: q, run: NewRunner(st, eng, q, allReminders, log), now: now}
}

func (f *fixture) addCard(t *testing.T, name string, billingDay int) model.Card {
	t.Helper()
	c, err := f.run.AddCard(context.Background(), engine.CardRequest{
		Name: name, BillingDay: billingDay, DueDay: 25, CreditLimit: 1000, MonthlyBudget: 400,
	})
	require.NoError(t, err)
	return c
}

func TestRefresh_BillsSubscriptionOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 4, 20, 10, 0, 0, 0, time.Local))
	card := f.addCard(t, "Blue", 1)

	_, res, err := f.run.AddSubscription(ctx, engine.SubscriptionRequest{
		CardID: card.ID, Name: "Music", Amount: 9.99, Cadence: model.Monthly,
		NextChargeDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local),
	})
	require.NoError(t, err)
	require.Len(t, res.Emitted, 1)
	assert.True(t, res.Emitted[0].Date.Equal(f.now))

	got, err := f.st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Transactions, 1)
	assert.True(t, got.Cards[0].CurrentUsage.Equal(decimal.RequireFromString("9.99")), "usage %s", got.Cards[0].CurrentUsage)
	assert.Equal(t, "2024-02-01", got.Subscriptions[0].NextChargeDate.Format("2006-01-02"))

	again, err := f.run.Refresh(ctx)
	require.NoError(t, err)
	assert.Empty(t, again.Emitted)
	assert.Equal(t, 0, again.Updated)

	got, err = f.st.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Transactions, 1)
}

func TestRefresh_PlansReminders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 4, 20, 10, 0, 0, 0, time.Local))
	card := f.addCard(t, "Blue", 1)

	pending, err := f.queue.Pending(ctx)
	require.NoError(t, err)
	// due Apr 25: offsets 3, 1 and 0 are still ahead
	require.Len(t, pending, 3)
	for _, r := range pending {
		assert.Equal(t, card.ID, r.CardID())
	}

	require.NoError(t, f.run.SetArchived(ctx, card.ID, true))
	pending, err = f.queue.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "archived card keeps no reminders")

	_, err = f.run.SetPreferences(ctx, engine.Preferences{})
	require.NoError(t, err)
	require.NoError(t, f.run.SetArchived(ctx, card.ID, false))
	pending, err = f.queue.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "payment reminders switched off")
}

func TestAddInstallments_RecomputesUsage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 4, 20, 10, 0, 0, 0, time.Local))
	card := f.addCard(t, "Blue", 1)

	batch, err := f.run.AddInstallments(ctx, engine.InstallmentRequest{
		CardID: card.ID, Tenor: 3, MonthlyAmount: 100, Description: "TV",
		StartDate: time.Date(2024, 4, 5, 0, 0, 0, 0, time.Local), AdminFee: 10,
	})
	require.NoError(t, err)
	assert.Len(t, batch.Transactions, 4)

	got, err := f.st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.InstallmentPlans, 1)
	assert.Len(t, got.Transactions, 4)
	// April installment plus the fee fall in the current cycle
	assert.True(t, got.Cards[0].CurrentUsage.Equal(decimal.NewFromInt(110)), "usage %s", got.Cards[0].CurrentUsage)

	removed, err := f.run.DeletePlan(ctx, batch.Plan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	got, err = f.st.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.Cards[0].CurrentUsage.Equal(decimal.NewFromInt(10)))
}

func TestEditCard_BillingDayChangeRecomputes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 4, 20, 10, 0, 0, 0, time.Local))
	card := f.addCard(t, "Blue", 1)

	_, err := f.run.AddTransaction(ctx, engine.TransactionRequest{
		CardID: card.ID, Kind: model.TxCharge, Date: time.Date(2024, 4, 10, 12, 0, 0, 0, time.Local), Amount: 50,
	})
	require.NoError(t, err)

	_, err = f.run.EditCard(ctx, card.ID, engine.CardRequest{Name: "Blue", BillingDay: 15, DueDay: 25, CreditLimit: 1000})
	require.NoError(t, err)

	got, err := f.st.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.Cards[0].CurrentUsage.IsZero(), "Apr 10 falls before the Apr 15 cycle start")
}

func TestDeleteTransaction_RecomputesStoredUsage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 4, 20, 10, 0, 0, 0, time.Local))
	card := f.addCard(t, "Blue", 15)
	usage := func() decimal.Decimal {
		t.Helper()
		got, err := f.st.Load(ctx)
		require.NoError(t, err)
		require.Len(t, got.Cards, 1)
		return got.Cards[0].CurrentUsage
	}

	inCycle, err := f.run.AddTransaction(ctx, engine.TransactionRequest{
		CardID: card.ID, Kind: model.TxCharge, Date: time.Date(2024, 4, 18, 0, 0, 0, 0, time.Local), Amount: 120,
	})
	require.NoError(t, err)
	assert.True(t, usage().Equal(decimal.NewFromInt(120)))

	before, err := f.run.AddTransaction(ctx, engine.TransactionRequest{
		CardID: card.ID, Kind: model.TxCharge, Date: time.Date(2024, 4, 10, 0, 0, 0, 0, time.Local), Amount: 50,
	})
	require.NoError(t, err)
	assert.True(t, usage().Equal(decimal.NewFromInt(120)), "Apr 10 is outside the Apr 15 cycle")

	require.NoError(t, f.run.DeleteTransaction(ctx, inCycle.ID))
	assert.True(t, usage().IsZero(), "only in-cycle entry removed, got %s", usage())

	require.NoError(t, f.run.DeleteTransaction(ctx, before.ID))
	assert.True(t, usage().IsZero())
}

func TestMutations_UnknownCard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 4, 20, 10, 0, 0, 0, time.Local))

	_, err := f.run.AddTransaction(ctx, engine.TransactionRequest{CardID: "ghost", Kind: model.TxCharge, Date: f.now, Amount: 1})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.run.EditCard(ctx, "ghost", engine.CardRequest{Name: "x", BillingDay: 1, DueDay: 1})
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, f.run.DeleteTransaction(ctx, "ghost"), store.ErrNotFound)
}

func TestMutations_InvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 4, 20, 10, 0, 0, 0, time.Local))
	card := f.addCard(t, "Blue", 1)

	_, err := f.run.AddInstallments(ctx, engine.InstallmentRequest{CardID: card.ID, Tenor: 0, MonthlyAmount: 1, Description: "x", StartDate: f.now})
	assert.ErrorIs(t, err, engine.ErrInvalidInput)

	got, err := f.st.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Transactions)
	assert.Empty(t, got.InstallmentPlans)
}

type failingCommit struct {
	*store.Store
}

func (failingCommit) CommitSubscriptionRun(context.Context, []model.Subscription, []model.Transaction) error {
	return errors.New("disk full")
}

func TestRefresh_CommitFailureLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 4, 20, 10, 0, 0, 0, time.Local))
	card := f.addCard(t, "Blue", 1)
	require.NoError(t, f.st.InsertSubscription(ctx, model.Subscription{
		ID: "s1", CardID: card.ID, Name: "Music", Amount: decimal.NewFromInt(5),
		Cadence: model.Monthly, NextChargeDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.Local), Active: true,
	}))

	log := logrus.New()
	log.SetOutput(io.Discard)
	r := NewRunner(failingCommit{f.st}, f.run.Engine(), nil, allReminders, log)
	_, err := r.Refresh(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "committing subscription run")

	got, err := f.st.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Transactions)
	assert.Equal(t, "2024-04-01", got.Subscriptions[0].NextChargeDate.Format("2006-01-02"))
	assert.True(t, got.Cards[0].CurrentUsage.IsZero())
}

func TestResolveCard(t *testing.T) {
	snap := model.Snapshot{Cards: []model.Card{
		{ID: "abc123", Name: "Blue"},
		{ID: "abd456", Name: "Gold"},
	}}
	c, err := ResolveCard(snap, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc123", c.ID)

	c, err = ResolveCard(snap, "gold")
	require.NoError(t, err)
	assert.Equal(t, "abd456", c.ID)

	_, err = ResolveCard(snap, "ab")
	assert.Error(t, err)
	_, err = ResolveCard(snap, "zzz")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
