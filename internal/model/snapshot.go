package model

// Snapshot is the full record set the engine operates on. The engine never
// mutates a snapshot in place; it returns new slices.
type Snapshot struct {
	Cards                []Card
	Transactions         []Transaction
	Subscriptions        []Subscription
	InstallmentPlans     []InstallmentPlan
	LimitIncreaseRecords []LimitIncreaseRecord
}

// Card returns the card with id and whether it exists.
func (s Snapshot) Card(id string) (Card, bool) {
	for _, c := range s.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// ActiveCards returns the non-archived cards in snapshot order.
func (s Snapshot) ActiveCards() []Card {
	var out []Card
	for _, c := range s.Cards {
		if !c.Archived {
			out = append(out, c)
		}
	}
	return out
}

// CardTransactions returns the ledger entries for one card in snapshot order.
func (s Snapshot) CardTransactions(cardID string) []Transaction {
	var out []Transaction
	for _, t := range s.Transactions {
		if t.CardID == cardID {
			out = append(out, t)
		}
	}
	return out
}

// CardLimitRecords returns the limit-increase history for one card.
func (s Snapshot) CardLimitRecords(cardID string) []LimitIncreaseRecord {
	var out []LimitIncreaseRecord
	for _, r := range s.LimitIncreaseRecords {
		if r.CardID == cardID {
			out = append(out, r)
		}
	}
	return out
}
