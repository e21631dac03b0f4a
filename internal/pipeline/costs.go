package pipeline

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cardwise/internal/model"
)

// KindTotals holds ledger totals split by entry kind.
type KindTotals struct {
	Charges  decimal.Decimal
	Fees     decimal.Decimal
	Refunds  decimal.Decimal
	Payments decimal.Decimal
	Net      decimal.Decimal
}

func zeroTotals() KindTotals {
	return KindTotals{
		Charges:  decimal.Zero,
		Fees:     decimal.Zero,
		Refunds:  decimal.Zero,
		Payments: decimal.Zero,
		Net:      decimal.Zero,
	}
}

func (k *KindTotals) add(t model.Transaction) {
	switch t.Kind {
	case model.TxCharge:
		k.Charges = k.Charges.Add(t.Amount)
	case model.TxFee:
		k.Fees = k.Fees.Add(t.Amount)
	case model.TxRefund:
		k.Refunds = k.Refunds.Add(t.Amount)
	case model.TxPayment:
		k.Payments = k.Payments.Add(t.Amount)
	}
	k.Net = k.Net.Add(t.Signed())
}

// CardBreakdown holds kind totals for one card.
type CardBreakdown struct {
	CardID string
	KindTotals
}

// AggregateKinds computes kind totals overall and per card for entries dated
// within [since, until). Cards are sorted by net descending.
func AggregateKinds(txs []model.Transaction, since, until time.Time) (KindTotals, []CardBreakdown) {
	filtered := FilterByTime(txs, since, until)

	totals := zeroTotals()
	byCard := make(map[string]*CardBreakdown)
	for _, t := range filtered {
		totals.add(t)

		row, ok := byCard[t.CardID]
		if !ok {
			row = &CardBreakdown{CardID: t.CardID, KindTotals: zeroTotals()}
			byCard[t.CardID] = row
		}
		row.add(t)
	}

	rows := make([]CardBreakdown, 0, len(byCard))
	for _, row := range byCard {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Net.Equal(rows[j].Net) {
			return rows[i].Net.GreaterThan(rows[j].Net)
		}
		return rows[i].CardID < rows[j].CardID
	})
	return totals, rows
}
