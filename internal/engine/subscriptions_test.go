package engine

import (
	"errors"
	"testing"

	"github.com/theirongolddev/cardwise/internal/model"
)

func TestProcessSubscriptions_CatchUpChargesOnce(t *testing.T) {
	now := mustTime(t, "2024-04-20T08:00:00Z")
	e := testEngine(now)
	s := model.Snapshot{
		Subscriptions: []model.Subscription{{
			ID: "s1", CardID: "c1", Name: "Music", Amount: dec("9.99"),
			Cadence: model.Monthly, NextChargeDate: mustDate(t, "2024-01-01"), Active: true,
		}},
	}

	run, err := e.ProcessSubscriptions(s)
	if err != nil {
		t.Fatalf("ProcessSubscriptions: %v", err)
	}
	if len(run.Emitted) != 1 {
		t.Fatalf("emitted %d entries, want 1", len(run.Emitted))
	}
	tx := run.Emitted[0]
	if !tx.Date.Equal(now) {
		t.Errorf("entry date = %v, want %v", tx.Date, now)
	}
	if tx.Kind != model.TxCharge || tx.SubscriptionID != "s1" || !tx.Amount.Equal(dec("9.99")) {
		t.Errorf("entry = %+v", tx)
	}
	if tx.Description != "Subscription: Music" {
		t.Errorf("Description = %q", tx.Description)
	}
	if tx.Category != model.CategorySubscription {
		t.Errorf("Category = %q, want %q", tx.Category, model.CategorySubscription)
	}
	if got := run.Subscriptions[0].NextChargeDate.Format("2006-01-02"); got != "2024-02-01" {
		t.Errorf("next charge = %s, want 2024-02-01", got)
	}
	if len(run.Charged) != 1 || run.Charged[0] != "s1" {
		t.Errorf("Charged = %v", run.Charged)
	}
	if got := s.Subscriptions[0].NextChargeDate.Format("2006-01-02"); got != "2024-01-01" {
		t.Errorf("snapshot mutated: next charge = %s", got)
	}
}

func TestProcessSubscriptions_SecondRunSameDayIsNoop(t *testing.T) {
	now := mustTime(t, "2024-04-20T08:00:00Z")
	e := testEngine(now)
	s := model.Snapshot{
		Subscriptions: []model.Subscription{{
			ID: "s1", CardID: "c1", Name: "Music", Amount: dec("9.99"),
			Cadence: model.Monthly, NextChargeDate: mustDate(t, "2024-01-01"), Active: true,
		}},
	}

	first, err := e.ProcessSubscriptions(s)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	s.Subscriptions = first.Subscriptions
	s.Transactions = append(s.Transactions, first.Emitted...)

	second, err := e.ProcessSubscriptions(s)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second.Emitted) != 0 {
		t.Fatalf("second run emitted %d entries, want 0", len(second.Emitted))
	}
	if got := second.Subscriptions[0].NextChargeDate.Format("2006-01-02"); got != "2024-02-01" {
		t.Errorf("next charge = %s, want unchanged 2024-02-01", got)
	}
}

func TestProcessSubscriptions_SkipsInactiveAndFuture(t *testing.T) {
	e := testEngine(mustDate(t, "2024-04-20"))
	s := model.Snapshot{
		Subscriptions: []model.Subscription{
			{ID: "off", CardID: "c1", Amount: dec("5"), Cadence: model.Monthly, NextChargeDate: mustDate(t, "2024-04-01"), Active: false},
			{ID: "later", CardID: "c1", Amount: dec("5"), Cadence: model.Monthly, NextChargeDate: mustDate(t, "2024-04-21"), Active: true},
			{ID: "today", CardID: "c2", Amount: dec("5"), Cadence: model.Yearly, NextChargeDate: mustDate(t, "2024-04-20"), Active: true, Category: "streaming"},
		},
	}
	run, err := e.ProcessSubscriptions(s)
	if err != nil {
		t.Fatalf("ProcessSubscriptions: %v", err)
	}
	if len(run.Emitted) != 1 || run.Emitted[0].SubscriptionID != "today" {
		t.Fatalf("emitted = %+v, want only 'today'", run.Emitted)
	}
	if run.Emitted[0].Category != "streaming" {
		t.Errorf("Category = %q, want streaming", run.Emitted[0].Category)
	}
	if got := run.Subscriptions[2].NextChargeDate.Format("2006-01-02"); got != "2025-04-20" {
		t.Errorf("yearly next = %s, want 2025-04-20", got)
	}
	if ids := run.AffectedCards(); len(ids) != 1 || ids[0] != "c2" {
		t.Errorf("AffectedCards = %v", ids)
	}
}

func TestProcessSubscriptions_UnknownCadence(t *testing.T) {
	e := testEngine(mustDate(t, "2024-04-20"))
	s := model.Snapshot{Subscriptions: []model.Subscription{
		{ID: "s1", Amount: dec("1"), Cadence: "weekly", NextChargeDate: mustDate(t, "2024-04-01"), Active: true},
	}}
	if _, err := e.ProcessSubscriptions(s); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestNextCharge_KeepsAnchorAcrossShortMonths(t *testing.T) {
	tests := []struct {
		name    string
		cadence model.Cadence
		anchor  int
		from    string
		want    []string
	}{
		{"monthly 31st", model.Monthly, 31, "2024-01-31", []string{"2024-02-29", "2024-03-31", "2024-04-30", "2024-05-31"}},
		{"monthly 30th", model.Monthly, 30, "2023-01-30", []string{"2023-02-28", "2023-03-30"}},
		{"yearly leap day", model.Yearly, 29, "2024-02-29", []string{"2025-02-28", "2026-02-28", "2027-02-28", "2028-02-29"}},
		{"no anchor uses from", model.Monthly, 0, "2024-01-31", []string{"2024-02-29", "2024-03-29"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDate(t, tt.from)
			for i, want := range tt.want {
				next, err := NextCharge(d, tt.anchor, tt.cadence)
				if err != nil {
					t.Fatalf("NextCharge: %v", err)
				}
				if got := next.Format("2006-01-02"); got != want {
					t.Fatalf("step %d = %s, want %s", i+1, got, want)
				}
				d = next
			}
		})
	}
}

func TestProcessSubscriptions_MonthEndDoesNotDrift(t *testing.T) {
	e := testEngine(mustDate(t, "2024-01-31"))
	sub, err := e.NewSubscription(SubscriptionRequest{CardID: "c1", Name: "Gym", Amount: 30, Cadence: model.Monthly, NextChargeDate: mustDate(t, "2024-01-31")})
	if err != nil {
		t.Fatalf("NewSubscription: %v", err)
	}
	subs := []model.Subscription{sub}

	for _, want := range []string{"2024-02-29", "2024-03-31", "2024-04-30"} {
		run, err := testEngine(subs[0].NextChargeDate).ProcessSubscriptions(model.Snapshot{Subscriptions: subs})
		if err != nil {
			t.Fatalf("ProcessSubscriptions: %v", err)
		}
		if len(run.Emitted) != 1 {
			t.Fatalf("emitted %d charges, want 1", len(run.Emitted))
		}
		subs = run.Subscriptions
		if got := subs[0].NextChargeDate.Format("2006-01-02"); got != want {
			t.Fatalf("next charge = %s, want %s", got, want)
		}
	}
}

func TestNewSubscription_Validates(t *testing.T) {
	e := testEngine(mustDate(t, "2024-04-20"))
	_, err := e.NewSubscription(SubscriptionRequest{CardID: "c1", Name: "x", Amount: 0, Cadence: model.Monthly, NextChargeDate: mustDate(t, "2024-05-01")})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero amount err = %v, want ErrInvalidInput", err)
	}
	sub, err := e.NewSubscription(SubscriptionRequest{CardID: "c1", Name: "x", Amount: 4.999, Cadence: model.Yearly, NextChargeDate: mustDate(t, "2024-05-01")})
	if err != nil {
		t.Fatalf("NewSubscription: %v", err)
	}
	if !sub.Active || sub.ID != "id-1" || !sub.Amount.Equal(dec("5")) {
		t.Fatalf("sub = %+v", sub)
	}
}
