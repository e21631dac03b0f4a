package backup

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cardwise/internal/model"
)

func sampleSnapshot() model.Snapshot {
	last := time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local)
	next := time.Date(2024, 4, 15, 0, 0, 0, 0, time.Local)
	action := time.Date(2024, 1, 20, 0, 0, 0, 0, time.Local)
	return model.Snapshot{
		Cards: []model.Card{{
			ID:            "c1",
			Name:          "Travel",
			Bank:          "Acme",
			LastFour:      "4242",
			BillingDay:    10,
			DueDay:        25,
			CreditLimit:   decimal.RequireFromString("5000"),
			CurrentUsage:  decimal.RequireFromString("123.45"),
			MonthlyBudget: decimal.RequireFromString("800"),
			AnnualFee:     &model.AnnualFee{ExpiryMonth: time.June, Amount: decimal.RequireFromString("95"), Remind: true},
			LimitProgram: model.TemporaryProgram{ProgramSchedule: model.ProgramSchedule{
				LastRequest: &last, FrequencyMonths: 3, NextEligible: &next, Remind: true,
			}},
			PaymentHistory: []model.PaymentRecord{{
				ID: "p1", CardID: "c1", PaidDate: time.Date(2024, 2, 20, 0, 0, 0, 0, time.Local),
				Amount: decimal.RequireFromString("300"), Cycle: "2024-02", Completeness: model.PaymentFull,
			}},
		}},
		Transactions: []model.Transaction{
			{
				ID: "t1", CardID: "c1", Kind: model.TxCharge, Category: "travel", Description: "Hotel",
				Date: time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local), Amount: decimal.RequireFromString("150"),
				Foreign: &model.ForeignAmount{Currency: "EUR", Amount: decimal.RequireFromString("100"), Rate: decimal.RequireFromString("1.5")},
			},
			{
				ID: "t2", CardID: "c1", Kind: model.TxCharge, Category: model.CategoryInstallment,
				Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local), Amount: decimal.RequireFromString("100"),
				Installment: &model.InstallmentRef{PlanID: "plan1", Seq: 1, Total: 3},
			},
		},
		Subscriptions: []model.Subscription{{
			ID: "s1", CardID: "c1", Name: "Music", Category: "entertainment", Amount: decimal.RequireFromString("9.99"),
			Cadence: model.Monthly, NextChargeDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.Local), AnchorDay: 1, Active: true,
		}},
		InstallmentPlans: []model.InstallmentPlan{{
			ID: "plan1", CardID: "c1", Description: "Laptop", TotalAmount: decimal.RequireFromString("300"), Tenor: 3,
			MonthlyAmount: decimal.RequireFromString("100"), StartDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local),
		}},
		LimitIncreaseRecords: []model.LimitIncreaseRecord{{
			ID: "l1", CardID: "c1", RequestDate: last, ActionDate: &action, RequestedAmount: decimal.RequireFromString("1000"),
			Type: model.LimitTemporary, FrequencyMonths: 3, Status: model.LimitApproved,
		}},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleSnapshot(), now))

	snap, meta, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, meta.Version)
	assert.True(t, meta.Timestamp.Equal(now))

	require.Len(t, snap.Cards, 1)
	c := snap.Cards[0]
	assert.Equal(t, "Travel", c.Name)
	assert.True(t, c.CurrentUsage.Equal(decimal.RequireFromString("123.45")))
	require.NotNil(t, c.AnnualFee)
	assert.Equal(t, time.June, c.AnnualFee.ExpiryMonth)
	sched, ok := model.ScheduleOf(c.Program())
	require.True(t, ok)
	assert.Equal(t, model.LimitTemporary, model.ProgramType(c.Program()))
	assert.Equal(t, 3, sched.FrequencyMonths)
	require.NotNil(t, sched.NextEligible)
	assert.True(t, sched.NextEligible.Equal(time.Date(2024, 4, 15, 0, 0, 0, 0, time.Local)))
	require.Len(t, c.PaymentHistory, 1)
	assert.Equal(t, "c1", c.PaymentHistory[0].CardID)

	require.Len(t, snap.Transactions, 2)
	require.NotNil(t, snap.Transactions[0].Foreign)
	assert.True(t, snap.Transactions[0].Foreign.Rate.Equal(decimal.RequireFromString("1.5")))
	require.NotNil(t, snap.Transactions[1].Installment)
	assert.Equal(t, "plan1", snap.Transactions[1].Installment.PlanID)

	require.Len(t, snap.Subscriptions, 1)
	assert.True(t, snap.Subscriptions[0].Amount.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, 1, snap.Subscriptions[0].AnchorDay)
	require.Len(t, snap.InstallmentPlans, 1)
	require.Len(t, snap.LimitIncreaseRecords, 1)
	require.NotNil(t, snap.LimitIncreaseRecords[0].ActionDate)
}

func TestEncodeWritesCamelCaseFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, model.Snapshot{}, time.Now()))

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	for _, key := range []string{"version", "timestamp", "cards", "transactions", "subscriptions", "limitIncreaseRecords", "installmentPlans"} {
		assert.Contains(t, raw, key)
	}
	assert.JSONEq(t, "[]", string(raw["cards"]))
	assert.JSONEq(t, "3", string(raw["version"]))
}

func TestDecodeVersionOne(t *testing.T) {
	payload := `{
		"version": 1,
		"timestamp": "2023-11-02T10:00:00Z",
		"cards": [{"id": "c1", "name": "Old", "billingDay": 5, "creditLimit": 1000,
			"paymentHistory": [{"id": "p1", "paidDate": "2023-10-20T00:00:00Z", "amount": 50, "cycle": "2023-10"}]}],
		"transactions": [
			{"id": "t1", "cardId": "c1", "date": "2023-10-10T00:00:00Z", "amount": 40.5},
			{"id": "t2", "cardId": "c1", "date": "2023-10-11T00:00:00Z", "amount": -10}
		],
		"subscriptions": []
	}`

	snap, meta, err := Decode(strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, 1, meta.Version)

	assert.NotNil(t, snap.LimitIncreaseRecords)
	assert.Empty(t, snap.LimitIncreaseRecords)
	assert.NotNil(t, snap.InstallmentPlans)
	assert.Empty(t, snap.InstallmentPlans)

	require.Len(t, snap.Cards, 1)
	assert.Equal(t, model.NoProgram{}, snap.Cards[0].Program())
	require.Len(t, snap.Cards[0].PaymentHistory, 1)
	assert.Equal(t, model.PaymentFull, snap.Cards[0].PaymentHistory[0].Completeness)

	require.Len(t, snap.Transactions, 2)
	assert.Equal(t, model.TxCharge, snap.Transactions[0].Kind)
	assert.True(t, snap.Transactions[0].Amount.Equal(decimal.RequireFromString("40.5")))
	assert.Equal(t, model.TxRefund, snap.Transactions[1].Kind)
	assert.True(t, snap.Transactions[1].Amount.Equal(decimal.NewFromInt(10)))
}

func TestDecodeVersionTwoWithoutPlans(t *testing.T) {
	payload := `{"version": 2, "timestamp": "2024-01-01T00:00:00Z", "cards": [],
		"limitIncreaseRecords": [{"id": "l1", "cardId": "c1", "requestDate": "2023-12-01T00:00:00Z",
			"requestedAmount": 500, "type": "permanent", "frequencyMonths": 6, "status": "pending"}]}`

	snap, _, err := Decode(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, snap.LimitIncreaseRecords, 1)
	assert.Equal(t, model.LimitPending, snap.LimitIncreaseRecords[0].Status)
	assert.Nil(t, snap.LimitIncreaseRecords[0].ActionDate)
	assert.Empty(t, snap.InstallmentPlans)
	assert.Empty(t, snap.Transactions)
	assert.Empty(t, snap.Subscriptions)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{"future version", `{"version": 4, "cards": []}`, ErrUnsupportedVersion},
		{"missing version", `{"cards": []}`, ErrUnsupportedVersion},
		{"bad billing day", `{"version": 3, "cards": [{"id": "c1", "billingDay": 40}]}`, ErrInvalid},
		{"bad cadence", `{"version": 3, "subscriptions": [{"id": "s1", "cardId": "c1", "cadence": "weekly"}]}`, ErrInvalid},
		{"bad kind", `{"version": 3, "transactions": [{"id": "t1", "cardId": "c1", "kind": "bonus"}]}`, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(strings.NewReader(tt.payload))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeMalformedJSON(t *testing.T) {
	_, _, err := Decode(strings.NewReader("{not json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedVersion)
}
