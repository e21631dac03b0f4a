package engine

import (
	"testing"

	"github.com/theirongolddev/cardwise/internal/model"
)

func TestRatingFor(t *testing.T) {
	cases := map[int]Rating{100: RatingExcellent, 80: RatingExcellent, 79: RatingGood, 60: RatingGood, 59: RatingFair, 40: RatingFair, 39: RatingPoor, 0: RatingPoor}
	for score, want := range cases {
		if got := RatingFor(score); got != want {
			t.Errorf("RatingFor(%d) = %s, want %s", score, got, want)
		}
	}
}

func spendByMonth(t *testing.T, cardID string, amounts map[string]string) []model.Transaction {
	t.Helper()
	var txs []model.Transaction
	for day, amt := range amounts {
		txs = append(txs, model.Transaction{CardID: cardID, Kind: model.TxCharge, Date: mustDate(t, day), Amount: dec(amt)})
	}
	return txs
}

func TestAggregateHealth_Perfect(t *testing.T) {
	now := mustDate(t, "2024-03-15")
	cards := []model.Card{{
		ID: "c1", DueDay: 20, CreditLimit: dec("1000"), CurrentUsage: dec("100"), MonthlyBudget: dec("500"),
		PaymentHistory: []model.PaymentRecord{
			{PaidDate: mustDate(t, "2024-01-18")},
			{PaidDate: mustDate(t, "2024-02-20")},
		},
	}}
	txs := spendByMonth(t, "c1", map[string]string{"2024-01-05": "300", "2024-02-05": "200", "2024-03-05": "100"})
	// payments are not spending
	txs = append(txs, model.Transaction{CardID: "c1", Kind: model.TxPayment, Date: mustDate(t, "2024-03-06"), Amount: dec("900")})

	rep := AggregateHealth(cards, txs, now)
	if rep.Score != 100 || rep.Rating != RatingExcellent {
		t.Fatalf("score = %d (%s), want 100 excellent; components %+v", rep.Score, rep.Rating, rep.Components)
	}
	if rep.Trend != TrendImproving {
		t.Errorf("Trend = %s, want improving", rep.Trend)
	}
	if rep.OnTime != 2 || rep.Late != 0 {
		t.Errorf("punctuality = %d/%d, want 2/0", rep.OnTime, rep.Late)
	}
	if len(rep.Recommendations) != 0 {
		t.Errorf("Recommendations = %v, want none", rep.Recommendations)
	}
}

func TestAggregateHealth_Poor(t *testing.T) {
	now := mustDate(t, "2024-03-15")
	cards := []model.Card{{
		ID: "c1", DueDay: 20, CreditLimit: dec("1000"), CurrentUsage: dec("1200"), MonthlyBudget: dec("500"),
		PaymentHistory: []model.PaymentRecord{
			{PaidDate: mustDate(t, "2023-10-25")},
			{PaidDate: mustDate(t, "2023-11-25")},
			{PaidDate: mustDate(t, "2023-12-25")},
			{PaidDate: mustDate(t, "2024-01-25")},
		},
	}}
	txs := spendByMonth(t, "c1", map[string]string{"2024-01-05": "100", "2024-02-05": "200", "2024-03-05": "300"})

	rep := AggregateHealth(cards, txs, now)
	if rep.Score != 0 || rep.Rating != RatingPoor {
		t.Fatalf("score = %d (%s), want 0 poor; components %+v", rep.Score, rep.Rating, rep.Components)
	}
	if rep.Late != 4 {
		t.Errorf("Late = %d, want 4", rep.Late)
	}
	if rep.Trend != TrendDeclining {
		t.Errorf("Trend = %s, want declining", rep.Trend)
	}
	if len(rep.Recommendations) != 4 {
		t.Errorf("got %d recommendations, want one per component: %v", len(rep.Recommendations), rep.Recommendations)
	}
}

func TestAggregateHealth_NoBudgetNoPayments(t *testing.T) {
	now := mustDate(t, "2024-03-15")
	cards := []model.Card{
		{ID: "c1", DueDay: 20, CreditLimit: dec("1000"), CurrentUsage: dec("100")},
		{ID: "gone", DueDay: 20, CreditLimit: dec("1"), CurrentUsage: dec("1000"), Archived: true},
	}
	rep := AggregateHealth(cards, nil, now)

	budget, _ := rep.Component(ComponentBudget)
	if budget.Score != 10 {
		t.Errorf("budget score = %d, want 10", budget.Score)
	}
	pay, _ := rep.Component(ComponentPayments)
	if pay.Score != 15 {
		t.Errorf("payment score = %d, want 15", pay.Score)
	}
	if rep.UtilizationPercent != 10 {
		t.Errorf("utilization = %v, archived card should be excluded", rep.UtilizationPercent)
	}
	// 40 + 15 + 10 + 5
	if rep.Score != 70 || rep.Rating != RatingGood {
		t.Errorf("score = %d (%s), want 70 good", rep.Score, rep.Rating)
	}
}

func TestCardHealth_Bounds(t *testing.T) {
	now := mustDate(t, "2024-03-15")
	cases := []model.Card{
		{ID: "a", DueDay: 1, CreditLimit: dec("0"), CurrentUsage: dec("0")},
		{ID: "b", DueDay: 1, CreditLimit: dec("100"), CurrentUsage: dec("99999")},
		{ID: "c", DueDay: 1, CreditLimit: dec("100"), CurrentUsage: dec("50"), MonthlyBudget: dec("10")},
		{ID: "d", DueDay: 31, CreditLimit: dec("100"), CurrentUsage: dec("-20"), MonthlyBudget: dec("40")},
	}
	for _, c := range cases {
		rep := CardHealth(c, now)
		if rep.Score < 0 || rep.Score > 100 {
			t.Errorf("card %s: score %d out of range", c.ID, rep.Score)
		}
		if rep.Rating != RatingFor(rep.Score) {
			t.Errorf("card %s: rating %s does not match score %d", c.ID, rep.Rating, rep.Score)
		}
	}
}

func TestCardHealth_WeightsWithBudget(t *testing.T) {
	now := mustDate(t, "2024-03-15")
	card := model.Card{ID: "c1", DueDay: 20, CreditLimit: dec("1000"), CurrentUsage: dec("100"), MonthlyBudget: dec("500"),
		PaymentHistory: []model.PaymentRecord{{PaidDate: mustDate(t, "2024-03-01")}}}
	rep := CardHealth(card, now)
	if len(rep.Components) != 3 {
		t.Fatalf("components = %+v, want three", rep.Components)
	}
	if rep.Score != 100 {
		t.Errorf("score = %d, want 100", rep.Score)
	}

	card.MonthlyBudget = dec("0")
	rep = CardHealth(card, now)
	if len(rep.Components) != 2 || rep.Components[0].Max != 70 || rep.Components[1].Max != 30 {
		t.Fatalf("components = %+v, want 70/30 split", rep.Components)
	}
}

func TestUtilizationPoints_Monotonic(t *testing.T) {
	prev := utilizationPoints(0)
	for pct := 1.0; pct <= 120; pct++ {
		cur := utilizationPoints(pct)
		if cur > prev {
			t.Fatalf("utilizationPoints(%v) = %v rose above %v", pct, cur, prev)
		}
		prev = cur
	}
}
