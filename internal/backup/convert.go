package backup

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cardwise/internal/model"
)

func fromSnapshot(snap model.Snapshot) File {
	f := File{
		Cards:                make([]Card, 0, len(snap.Cards)),
		Transactions:         make([]Transaction, 0, len(snap.Transactions)),
		Subscriptions:        make([]Subscription, 0, len(snap.Subscriptions)),
		LimitIncreaseRecords: make([]LimitRecord, 0, len(snap.LimitIncreaseRecords)),
		InstallmentPlans:     make([]InstallmentPlan, 0, len(snap.InstallmentPlans)),
	}

	for _, c := range snap.Cards {
		bc := Card{
			ID:            c.ID,
			Name:          c.Name,
			Bank:          c.Bank,
			LastFour:      c.LastFour,
			BillingDay:    c.BillingDay,
			DueDay:        c.DueDay,
			CreditLimit:   c.CreditLimit.InexactFloat64(),
			CurrentUsage:  c.CurrentUsage.InexactFloat64(),
			MonthlyBudget: c.MonthlyBudget.InexactFloat64(),
			Archived:      c.Archived,
		}
		if c.AnnualFee != nil {
			bc.AnnualFee = &AnnualFee{
				ExpiryMonth: int(c.AnnualFee.ExpiryMonth),
				Amount:      c.AnnualFee.Amount.InexactFloat64(),
				Remind:      c.AnnualFee.Remind,
			}
		}
		if sched, ok := model.ScheduleOf(c.Program()); ok {
			bc.LimitProgram = &Program{
				Type:            string(model.ProgramType(c.Program())),
				LastRequest:     utcPtr(sched.LastRequest),
				FrequencyMonths: sched.FrequencyMonths,
				NextEligible:    utcPtr(sched.NextEligible),
				Remind:          sched.Remind,
			}
		}
		for _, p := range c.PaymentHistory {
			bc.PaymentHistory = append(bc.PaymentHistory, Payment{
				ID:           p.ID,
				PaidDate:     p.PaidDate.UTC(),
				Amount:       p.Amount.InexactFloat64(),
				Cycle:        p.Cycle,
				Completeness: string(p.Completeness),
			})
		}
		f.Cards = append(f.Cards, bc)
	}

	for _, t := range snap.Transactions {
		bt := Transaction{
			ID:             t.ID,
			CardID:         t.CardID,
			Kind:           string(t.Kind),
			Category:       t.Category,
			Description:    t.Description,
			Date:           t.Date.UTC(),
			Amount:         t.Amount.InexactFloat64(),
			SubscriptionID: t.SubscriptionID,
		}
		if t.Installment != nil {
			bt.Installment = &Installment{PlanID: t.Installment.PlanID, Seq: t.Installment.Seq, Total: t.Installment.Total}
		}
		if t.Foreign != nil {
			bt.Foreign = &Foreign{
				Currency: t.Foreign.Currency,
				Amount:   t.Foreign.Amount.InexactFloat64(),
				Rate:     t.Foreign.Rate.InexactFloat64(),
			}
		}
		f.Transactions = append(f.Transactions, bt)
	}

	for _, s := range snap.Subscriptions {
		f.Subscriptions = append(f.Subscriptions, Subscription{
			ID:             s.ID,
			CardID:         s.CardID,
			Name:           s.Name,
			Category:       s.Category,
			Amount:         s.Amount.InexactFloat64(),
			Cadence:        string(s.Cadence),
			NextChargeDate: s.NextChargeDate.UTC(),
			AnchorDay:      s.AnchorDay,
			Active:         s.Active,
		})
	}

	for _, p := range snap.InstallmentPlans {
		f.InstallmentPlans = append(f.InstallmentPlans, InstallmentPlan{
			ID:            p.ID,
			CardID:        p.CardID,
			Description:   p.Description,
			TotalAmount:   p.TotalAmount.InexactFloat64(),
			Tenor:         p.Tenor,
			MonthlyAmount: p.MonthlyAmount.InexactFloat64(),
			StartDate:     p.StartDate.UTC(),
			AdminFee:      p.AdminFee.InexactFloat64(),
		})
	}

	for _, r := range snap.LimitIncreaseRecords {
		f.LimitIncreaseRecords = append(f.LimitIncreaseRecords, LimitRecord{
			ID:              r.ID,
			CardID:          r.CardID,
			RequestDate:     r.RequestDate.UTC(),
			ActionDate:      utcPtr(r.ActionDate),
			RequestedAmount: r.RequestedAmount.InexactFloat64(),
			Type:            string(r.Type),
			FrequencyMonths: r.FrequencyMonths,
			Status:          string(r.Status),
		})
	}
	return f
}

func (f File) toSnapshot() model.Snapshot {
	snap := model.Snapshot{
		Cards:                make([]model.Card, 0, len(f.Cards)),
		Transactions:         make([]model.Transaction, 0, len(f.Transactions)),
		Subscriptions:        make([]model.Subscription, 0, len(f.Subscriptions)),
		InstallmentPlans:     make([]model.InstallmentPlan, 0, len(f.InstallmentPlans)),
		LimitIncreaseRecords: make([]model.LimitIncreaseRecord, 0, len(f.LimitIncreaseRecords)),
	}

	for _, bc := range f.Cards {
		c := model.Card{
			ID:            bc.ID,
			Name:          bc.Name,
			Bank:          bc.Bank,
			LastFour:      bc.LastFour,
			BillingDay:    bc.BillingDay,
			DueDay:        bc.DueDay,
			CreditLimit:   money(bc.CreditLimit),
			CurrentUsage:  money(bc.CurrentUsage),
			MonthlyBudget: money(bc.MonthlyBudget),
			LimitProgram:  model.NoProgram{},
			Archived:      bc.Archived,
		}
		if bc.AnnualFee != nil {
			c.AnnualFee = &model.AnnualFee{
				ExpiryMonth: time.Month(bc.AnnualFee.ExpiryMonth),
				Amount:      money(bc.AnnualFee.Amount),
				Remind:      bc.AnnualFee.Remind,
			}
		}
		if bp := bc.LimitProgram; bp != nil {
			c.LimitProgram = model.NewProgram(model.LimitType(bp.Type), model.ProgramSchedule{
				LastRequest:     localPtr(bp.LastRequest),
				FrequencyMonths: bp.FrequencyMonths,
				NextEligible:    localPtr(bp.NextEligible),
				Remind:          bp.Remind,
			})
		}
		for _, p := range bc.PaymentHistory {
			c.PaymentHistory = append(c.PaymentHistory, model.PaymentRecord{
				ID:           p.ID,
				CardID:       bc.ID,
				PaidDate:     p.PaidDate.Local(),
				Amount:       money(p.Amount),
				Cycle:        p.Cycle,
				Completeness: model.PaymentCompleteness(p.Completeness),
			})
		}
		snap.Cards = append(snap.Cards, c)
	}

	for _, bt := range f.Transactions {
		t := model.Transaction{
			ID:             bt.ID,
			CardID:         bt.CardID,
			Kind:           model.TxKind(bt.Kind),
			Category:       bt.Category,
			Description:    bt.Description,
			Date:           bt.Date.Local(),
			Amount:         money(bt.Amount),
			SubscriptionID: bt.SubscriptionID,
		}
		if bt.Installment != nil {
			t.Installment = &model.InstallmentRef{PlanID: bt.Installment.PlanID, Seq: bt.Installment.Seq, Total: bt.Installment.Total}
		}
		if bt.Foreign != nil {
			t.Foreign = &model.ForeignAmount{
				Currency: bt.Foreign.Currency,
				Amount:   money(bt.Foreign.Amount),
				Rate:     decimal.NewFromFloat(bt.Foreign.Rate),
			}
		}
		snap.Transactions = append(snap.Transactions, t)
	}

	for _, bs := range f.Subscriptions {
		snap.Subscriptions = append(snap.Subscriptions, model.Subscription{
			ID:             bs.ID,
			CardID:         bs.CardID,
			Name:           bs.Name,
			Category:       bs.Category,
			Amount:         money(bs.Amount),
			Cadence:        model.Cadence(bs.Cadence),
			NextChargeDate: bs.NextChargeDate.Local(),
			AnchorDay:      bs.AnchorDay,
			Active:         bs.Active,
		})
	}

	for _, bp := range f.InstallmentPlans {
		snap.InstallmentPlans = append(snap.InstallmentPlans, model.InstallmentPlan{
			ID:            bp.ID,
			CardID:        bp.CardID,
			Description:   bp.Description,
			TotalAmount:   money(bp.TotalAmount),
			Tenor:         bp.Tenor,
			MonthlyAmount: money(bp.MonthlyAmount),
			StartDate:     bp.StartDate.Local(),
			AdminFee:      money(bp.AdminFee),
		})
	}

	for _, br := range f.LimitIncreaseRecords {
		snap.LimitIncreaseRecords = append(snap.LimitIncreaseRecords, model.LimitIncreaseRecord{
			ID:              br.ID,
			CardID:          br.CardID,
			RequestDate:     br.RequestDate.Local(),
			ActionDate:      localPtr(br.ActionDate),
			RequestedAmount: money(br.RequestedAmount),
			Type:            model.LimitType(br.Type),
			FrequencyMonths: br.FrequencyMonths,
			Status:          model.LimitStatus(br.Status),
		})
	}
	return snap
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func localPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	l := t.Local()
	return &l
}
