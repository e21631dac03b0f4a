package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cardwise/internal/config"
	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/model"
	"github.com/theirongolddev/cardwise/internal/notify"
	"github.com/theirongolddev/cardwise/internal/pipeline"
)

var fixedNow = time.Date(2024, 4, 20, 10, 0, 0, 0, time.Local)

type fakeSource struct {
	eng   *engine.Engine
	snap  model.Snapshot
	err   error
	calls int
	prefs *engine.Preferences
}

func (f *fakeSource) Refresh(context.Context) (pipeline.RefreshResult, error) {
	f.calls++
	return pipeline.RefreshResult{Snapshot: f.snap}, f.err
}

func (f *fakeSource) SetPreferences(_ context.Context, p engine.Preferences) (pipeline.RefreshResult, error) {
	f.prefs = &p
	return pipeline.RefreshResult{Snapshot: f.snap}, f.err
}

func (f *fakeSource) Engine() *engine.Engine { return f.eng }

type fakePending []notify.Reminder

func (f fakePending) Pending(context.Context) ([]notify.Reminder, error) { return f, nil }

func sampleSnapshot() model.Snapshot {
	return model.Snapshot{
		Cards: []model.Card{
			{ID: "a", Name: "Everyday", BillingDay: 1, DueDay: 25,
				CreditLimit: decimal.NewFromInt(1000), CurrentUsage: decimal.NewFromInt(250)},
			{ID: "b", Name: "Travel", BillingDay: 15, DueDay: 5,
				CreditLimit: decimal.NewFromInt(5000), CurrentUsage: decimal.NewFromInt(100),
				MonthlyBudget: decimal.NewFromInt(400)},
			{ID: "z", Name: "Retired", BillingDay: 1, DueDay: 20, Archived: true},
		},
		Transactions: []model.Transaction{
			{ID: "t1", CardID: "a", Kind: model.TxCharge, Category: "food",
				Date: fixedNow.AddDate(0, 0, -3), Amount: decimal.NewFromInt(250)},
			{ID: "t2", CardID: "b", Kind: model.TxCharge, Category: "travel",
				Date: fixedNow.AddDate(0, 0, -2), Amount: decimal.NewFromInt(100)},
		},
		Subscriptions: []model.Subscription{
			{ID: "s", CardID: "a", Name: "Music", Amount: decimal.RequireFromString("9.99"),
				Cadence: model.Monthly, NextChargeDate: fixedNow.AddDate(0, 0, 5), Active: true},
		},
	}
}

// withConfig points the config directory at a temp dir, optionally writing a
// config file so the first-run form is skipped.
func withConfig(t *testing.T, exists bool) config.Config {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	cfg := config.DefaultConfig()
	if exists {
		if err := config.Save(cfg); err != nil {
			t.Fatalf("save config: %v", err)
		}
	}
	return cfg
}

func newTestApp(t *testing.T, src *fakeSource, configured bool) App {
	t.Helper()
	cfg := withConfig(t, configured)
	a := NewApp(src, fakePending{{ID: "payment-a-3", FireAt: fixedNow.AddDate(0, 0, 2), Title: "Everyday payment due"}}, cfg, 0)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	return m.(App)
}

func load(t *testing.T, a App) App {
	t.Helper()
	msg := loadDataCmd(a.src, a.pending, false)()
	m, _ := a.Update(msg)
	return m.(App)
}

func press(a App, key string) App {
	var msg tea.KeyMsg
	switch key {
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	m, _ := a.Update(msg)
	return m.(App)
}

func newSource() *fakeSource {
	return &fakeSource{
		eng:  engine.New(engine.WithClock(func() time.Time { return fixedNow })),
		snap: sampleSnapshot(),
	}
}

func TestApp_LoadComputesViews(t *testing.T) {
	src := newSource()
	a := load(t, newTestApp(t, src, true))

	if !a.loaded {
		t.Fatal("app not loaded after DataLoadedMsg")
	}
	if a.setupForm != nil {
		t.Fatal("setup form shown although config exists")
	}
	if len(a.summaries) != 2 {
		t.Fatalf("summaries = %d, want 2 active cards", len(a.summaries))
	}
	if len(a.queued) != 1 {
		t.Errorf("queued = %d, want 1", len(a.queued))
	}
	if len(a.months) != spendingMonths {
		t.Errorf("months = %d, want %d", len(a.months), spendingMonths)
	}
	if !a.months[len(a.months)-1].Charges.Equal(decimal.NewFromInt(350)) {
		t.Errorf("current month charges = %s, want 350", a.months[len(a.months)-1].Charges)
	}
	if len(a.upcoming) == 0 {
		t.Error("expected upcoming events")
	}

	view := ansi.Strip(a.View())
	for _, want := range []string{"Everyday", "Travel", "Cards (2)"} {
		if !strings.Contains(view, want) {
			t.Errorf("cards view missing %q", want)
		}
	}
	if strings.Contains(view, "Retired") {
		t.Error("archived card shown without toggle")
	}
}

func TestApp_TabKeys(t *testing.T) {
	a := load(t, newTestApp(t, newSource(), true))

	tests := []struct {
		key  string
		want int
	}{
		{"h", 2},
		{"u", 3},
		{"right", 0},
		{"left", 3},
		{"s", 1},
		{"c", 0},
	}
	for _, tt := range tests {
		a = press(a, tt.key)
		if a.activeTab != tt.want {
			t.Fatalf("after %q activeTab = %d, want %d", tt.key, a.activeTab, tt.want)
		}
	}

	a = press(a, "h")
	if view := ansi.Strip(a.View()); !strings.Contains(view, "Score breakdown") {
		t.Error("health tab missing score breakdown")
	}
	a = press(a, "u")
	if view := ansi.Strip(a.View()); !strings.Contains(view, "Everyday payment due") {
		t.Error("upcoming tab missing queued reminder")
	}
}

func TestApp_CursorAndArchived(t *testing.T) {
	a := load(t, newTestApp(t, newSource(), true))

	a = press(a, "j")
	if a.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", a.cursor)
	}
	a = press(a, "j")
	if a.cursor != 1 {
		t.Fatalf("cursor moved past last card: %d", a.cursor)
	}

	a = press(a, "a")
	if len(a.summaries) != 3 {
		t.Fatalf("with archived: summaries = %d, want 3", len(a.summaries))
	}
	a = press(a, "G")
	if a.cursor != 2 {
		t.Fatalf("G: cursor = %d, want 2", a.cursor)
	}
	a = press(a, "a")
	if a.cursor != 1 {
		t.Errorf("cursor not clamped after hiding archived: %d", a.cursor)
	}
}

func TestApp_ManualRefresh(t *testing.T) {
	src := newSource()
	a := load(t, newTestApp(t, src, true))

	m, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	a = m.(App)
	if !a.refreshing || cmd == nil {
		t.Fatal("r did not start a refresh")
	}

	src.err = errors.New("database is locked")
	m, _ = a.Update(cmd())
	a = m.(App)
	if a.refreshing {
		t.Error("still refreshing after RefreshDataMsg")
	}
	if src.calls != 2 {
		t.Errorf("refresh calls = %d, want 2", src.calls)
	}
	if !strings.Contains(ansi.Strip(a.View()), "database is locked") {
		t.Error("refresh error not shown in status bar")
	}
	if len(a.summaries) != 2 {
		t.Error("failed refresh discarded previous data")
	}
}

func TestApp_FirstRunShowsSetup(t *testing.T) {
	a := load(t, newTestApp(t, newSource(), false))
	if a.setupForm == nil {
		t.Fatal("setup form not shown on first run")
	}
	// tab keys go to the form, not the dashboard
	a = press(a, "h")
	if a.activeTab != 0 {
		t.Errorf("activeTab = %d while setup is open", a.activeTab)
	}
}

func TestApp_TooNarrow(t *testing.T) {
	a := load(t, newTestApp(t, newSource(), true))
	m, _ := a.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	if !strings.Contains(m.(App).View(), "too narrow") {
		t.Error("narrow terminal message missing")
	}
}

func TestSetupValuesApply(t *testing.T) {
	cfg := config.DefaultConfig()
	v := SetupValues{
		Theme:       "tokyo-night",
		Reminders:   []string{string(engine.ReminderPayment), string(engine.ReminderAnnualFee)},
		PaymentHour: " 7 ",
		DBPath:      "/tmp/cards.db",
	}
	if err := v.Apply(&cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.Appearance.Theme != "tokyo-night" || cfg.Reminders.PaymentHour != 7 || cfg.General.DBPath != "/tmp/cards.db" {
		t.Errorf("config not applied: %+v", cfg)
	}
	want := engine.Preferences{Payment: true, AnnualFee: true}
	if got := cfg.Preferences(); got != want {
		t.Errorf("preferences = %+v, want %+v", got, want)
	}

	v.PaymentHour = "25"
	if err := v.Apply(&cfg); err == nil {
		t.Error("hour 25 accepted")
	}
}

func TestSetupValuesFromRoundTrip(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SetPreferences(engine.Preferences{LimitIncrease: true})
	v := SetupValuesFrom(cfg)
	if len(v.Reminders) != 1 || v.Reminders[0] != string(engine.ReminderLimitIncrease) {
		t.Errorf("reminders = %v", v.Reminders)
	}

	out := config.DefaultConfig()
	if err := v.Apply(&out); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Preferences() != cfg.Preferences() {
		t.Errorf("round trip preferences = %+v, want %+v", out.Preferences(), cfg.Preferences())
	}
}
