package engine

import (
	"reflect"
	"testing"
	"time"

	"github.com/theirongolddev/cardwise/internal/model"
)

var allOn = Preferences{Payment: true, LimitIncrease: true, AnnualFee: true}

func TestPlanReminders_OnlyFutureTriggers(t *testing.T) {
	now := mustTime(t, "2024-03-15T10:00:00Z")
	card := model.Card{ID: "c1", Name: "Blue", DueDay: 20}
	d := ReminderDates(card, nil, now)

	plan := PlanReminders(card, d, allOn, DefaultReminderHours(), now)
	// payment offset 7 fired on Mar 13 and stays queued for delivery
	if len(plan.Cancel) != 11 {
		t.Errorf("Cancel = %d IDs, want 11", len(plan.Cancel))
	}
	for _, id := range plan.Cancel {
		if id == "payment-c1-7" {
			t.Error("plan cancels a trigger whose fire time has passed")
		}
	}
	var ids []string
	for _, tr := range plan.Schedule {
		if !tr.FireAt.After(now) {
			t.Errorf("trigger %s fires in the past at %v", tr.ID, tr.FireAt)
		}
		ids = append(ids, tr.ID)
	}
	want := []string{"payment-c1-3", "payment-c1-1", "payment-c1-0"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("scheduled %v, want %v", ids, want)
	}
	if got := plan.Schedule[2].FireAt; !got.Equal(mustTime(t, "2024-03-20T09:00:00Z")) {
		t.Errorf("offset 0 fires at %v", got)
	}
	if plan.Schedule[0].Payload["eventDate"] != "2024-03-20" || plan.Schedule[0].Payload["offsetDays"] != "3" {
		t.Errorf("payload = %v", plan.Schedule[0].Payload)
	}
}

func TestPlanReminders_Idempotent(t *testing.T) {
	now := mustTime(t, "2024-03-01T00:00:00Z")
	lr := mustDate(t, "2023-09-10")
	card := model.Card{
		ID: "c1", Name: "Blue", DueDay: 20,
		AnnualFee:    &model.AnnualFee{ExpiryMonth: time.March, Amount: dec("95"), Remind: true},
		LimitProgram: model.PermanentProgram{ProgramSchedule: model.ProgramSchedule{LastRequest: &lr, FrequencyMonths: 6, Remind: true}},
	}
	e := testEngine(now)
	s := model.Snapshot{Cards: []model.Card{card}}

	a := e.PlanCardReminders(s, card, allOn)
	b := e.PlanCardReminders(s, card, allOn)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("planning twice produced different plans")
	}

	counts := map[ReminderCategory]int{}
	for _, tr := range a.Schedule {
		counts[tr.Category]++
	}
	// due Mar 20, limit Mar 10, fee Mar 1 (only offset 0 at 09:00 is ahead)
	if counts[ReminderPayment] != 4 || counts[ReminderLimitIncrease] != 4 || counts[ReminderAnnualFee] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestPlanReminders_DisabledAndArchived(t *testing.T) {
	now := mustTime(t, "2024-03-01T00:00:00Z")
	card := model.Card{ID: "c1", Name: "Blue", DueDay: 20,
		AnnualFee: &model.AnnualFee{ExpiryMonth: time.June, Remind: false}}
	d := ReminderDates(card, nil, now)

	plan := PlanReminders(card, d, Preferences{}, DefaultReminderHours(), now)
	if len(plan.Schedule) != 0 || len(plan.Cancel) != 12 {
		t.Fatalf("all-off plan = %+v", plan)
	}

	plan = PlanReminders(card, d, allOn, DefaultReminderHours(), now)
	for _, tr := range plan.Schedule {
		if tr.Category != ReminderPayment {
			t.Errorf("unexpected %s trigger; card flags are off", tr.Category)
		}
	}

	card.Archived = true
	plan = PlanReminders(card, d, allOn, DefaultReminderHours(), now)
	if len(plan.Schedule) != 0 {
		t.Fatalf("archived card scheduled %d triggers", len(plan.Schedule))
	}
}

func TestPlanCategory_DisabledCancelsDueTriggers(t *testing.T) {
	now := mustTime(t, "2024-03-19T12:00:00Z")
	card := model.Card{ID: "c1", Name: "Blue", DueDay: 20}
	d := ReminderDates(card, nil, now)

	plan := PlanCategory(card, ReminderPayment, d, Preferences{}, DefaultReminderHours(), now)
	want := []string{"payment-c1-7", "payment-c1-3", "payment-c1-1", "payment-c1-0"}
	if !reflect.DeepEqual(plan.Cancel, want) || len(plan.Schedule) != 0 {
		t.Fatalf("disabled plan = %+v, want cancel %v", plan, want)
	}

	plan = PlanCategory(card, ReminderPayment, d, allOn, DefaultReminderHours(), now)
	if want := []string{"payment-c1-0"}; !reflect.DeepEqual(plan.Cancel, want) {
		t.Fatalf("enabled cancel = %v, want %v", plan.Cancel, want)
	}
}

func TestPlanCategory_DueDayEveningKeepsTodaysTrigger(t *testing.T) {
	now := mustTime(t, "2024-03-20T18:00:00Z")
	card := model.Card{ID: "c1", Name: "Blue", DueDay: 20}
	d := ReminderDates(card, nil, now)
	if d.Due == nil || d.Due.Format("2006-01-02") != "2024-03-20" {
		t.Fatalf("due = %v, want 2024-03-20", d.Due)
	}
	plan := PlanCategory(card, ReminderPayment, d, allOn, DefaultReminderHours(), now)
	if len(plan.Cancel) != 0 || len(plan.Schedule) != 0 {
		t.Fatalf("plan = %+v, want nothing to touch until the due day ends", plan)
	}
}

func TestPlanCategory_LeavesOtherCategories(t *testing.T) {
	now := mustTime(t, "2024-03-01T00:00:00Z")
	card := model.Card{ID: "c1", Name: "Blue", DueDay: 20}
	plan := PlanCategory(card, ReminderPayment, ReminderDates(card, nil, now), allOn, DefaultReminderHours(), now)
	for _, id := range plan.Cancel {
		if id[:len("payment-")] != "payment-" {
			t.Errorf("cancel %s outside payment category", id)
		}
	}
}

func TestReminderDates_AnnualFeeRollsToNextYear(t *testing.T) {
	now := mustDate(t, "2024-05-10")
	card := model.Card{ID: "c1", DueDay: 5, AnnualFee: &model.AnnualFee{ExpiryMonth: time.March}}
	d := ReminderDates(card, nil, now)
	if d.AnnualFee == nil || d.AnnualFee.Format("2006-01-02") != "2025-03-01" {
		t.Fatalf("annual fee = %v, want 2025-03-01", d.AnnualFee)
	}
	if d.Due == nil || d.Due.Format("2006-01-02") != "2024-06-05" {
		t.Fatalf("due = %v, want 2024-06-05", d.Due)
	}
	if d.LimitEligible != nil {
		t.Fatalf("limit = %v, want nil", d.LimitEligible)
	}
}

func TestTriggerID(t *testing.T) {
	if got := TriggerID(ReminderAnnualFee, "abc", 7); got != "annualfee-abc-7" {
		t.Fatalf("TriggerID = %q", got)
	}
}
