// Package export writes flat CSV views of the ledger and cards. Column order
// is fixed; new columns are only ever appended.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/theirongolddev/cardwise/internal/model"
)

// TransactionColumns is the header row of the transaction export.
var TransactionColumns = []string{
	"id", "card_id", "card_name", "date", "kind", "category", "description",
	"amount", "signed_amount", "plan_id", "plan_seq", "plan_total",
	"subscription_id", "foreign_currency", "foreign_amount", "foreign_rate",
}

// CardColumns is the header row of the card export.
var CardColumns = []string{
	"id", "name", "bank", "last_four", "billing_day", "due_day", "credit_limit",
	"current_usage", "utilization_percent", "monthly_budget", "annual_fee",
	"fee_month", "limit_program", "next_limit_eligible", "archived",
}

const dateLayout = "2006-01-02"

// Transactions writes txs in the given order. Card names come from cards;
// entries on unknown cards get an empty name.
func Transactions(w io.Writer, txs []model.Transaction, cards []model.Card) error {
	names := make(map[string]string, len(cards))
	for _, c := range cards {
		names[c.ID] = c.Name
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(TransactionColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, t := range txs {
		row := []string{
			t.ID, t.CardID, names[t.CardID], t.Date.Format(dateLayout), string(t.Kind),
			t.Category, t.Description, t.Amount.StringFixed(2), t.Signed().StringFixed(2),
			"", "", "", t.SubscriptionID, "", "", "",
		}
		if ref := t.Installment; ref != nil {
			row[9], row[10], row[11] = ref.PlanID, strconv.Itoa(ref.Seq), strconv.Itoa(ref.Total)
		}
		if fx := t.Foreign; fx != nil {
			row[13], row[14], row[15] = fx.Currency, fx.Amount.StringFixed(2), fx.Rate.String()
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing transaction %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Cards writes one row per summary.
func Cards(w io.Writer, summaries []model.CardSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CardColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, s := range summaries {
		c := s.Card
		row := []string{
			c.ID, c.Name, c.Bank, c.LastFour, strconv.Itoa(c.BillingDay), strconv.Itoa(c.DueDay),
			c.CreditLimit.StringFixed(2), c.CurrentUsage.StringFixed(2),
			strconv.FormatFloat(s.UtilizationPercent, 'f', 1, 64), "", "", "",
			string(model.ProgramType(c.Program())), formatDate(s.NextLimitEligible),
			strconv.FormatBool(c.Archived),
		}
		if c.HasBudget() {
			row[9] = c.MonthlyBudget.StringFixed(2)
		}
		if fee := c.AnnualFee; fee != nil {
			row[10], row[11] = fee.Amount.StringFixed(2), strconv.Itoa(int(fee.ExpiryMonth))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing card %s: %w", c.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
