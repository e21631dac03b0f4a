package engine

import (
	"time"

	"github.com/theirongolddev/cardwise/internal/dates"
	"github.com/theirongolddev/cardwise/internal/model"
)

// NextLimitEligibility returns when card may next request a limit increase.
//
// With at least one record for the card, the most recent one (by action date,
// falling back to request date) decides: its effective date plus its own
// frequency. A record with no frequency borrows the program's, and with
// neither there is no schedule. Without records, the program's last request
// plus its frequency is used. The second return is false when there is no
// schedule.
func NextLimitEligibility(card model.Card, records []model.LimitIncreaseRecord) (time.Time, bool) {
	sched, hasProgram := model.ScheduleOf(card.Program())

	if latest, ok := latestRecord(card.ID, records); ok {
		months := latest.FrequencyMonths
		if months <= 0 && hasProgram {
			months = sched.FrequencyMonths
		}
		if months <= 0 {
			return time.Time{}, false
		}
		return dates.AddMonths(latest.EffectiveDate(), months), true
	}

	if !hasProgram || sched.LastRequest == nil || sched.FrequencyMonths <= 0 {
		return time.Time{}, false
	}
	return dates.AddMonths(*sched.LastRequest, sched.FrequencyMonths), true
}

// latestRecord picks the card's record with the greatest effective date.
// Ties go to the later record in slice order.
func latestRecord(cardID string, records []model.LimitIncreaseRecord) (model.LimitIncreaseRecord, bool) {
	var (
		best  model.LimitIncreaseRecord
		found bool
	)
	for _, r := range records {
		if r.CardID != cardID {
			continue
		}
		if !found || !r.EffectiveDate().Before(best.EffectiveDate()) {
			best = r
			found = true
		}
	}
	return best, found
}

// RefreshLimitSchedules returns the cards with each program's NextEligible
// recomputed from the snapshot's limit history.
func (e *Engine) RefreshLimitSchedules(s model.Snapshot) []model.Card {
	cards := make([]model.Card, len(s.Cards))
	for i, c := range s.Cards {
		sched, ok := model.ScheduleOf(c.Program())
		if ok {
			if next, has := NextLimitEligibility(c, s.LimitIncreaseRecords); has {
				n := next
				sched.NextEligible = &n
			} else {
				sched.NextEligible = nil
			}
			c.LimitProgram = model.WithSchedule(c.LimitProgram, sched)
		}
		cards[i] = c
	}
	return cards
}

// LimitStatus is the display form of a card's limit-increase schedule.
type LimitStatus struct {
	Scheduled    bool
	NextEligible time.Time
	EligibleNow  bool
	DaysLeft     int
	Type         model.LimitType
	Latest       *model.LimitIncreaseRecord
}

// LimitStatusFor summarizes the card's schedule relative to now.
func LimitStatusFor(card model.Card, records []model.LimitIncreaseRecord, now time.Time) LimitStatus {
	st := LimitStatus{Type: model.ProgramType(card.Program())}
	if r, ok := latestRecord(card.ID, records); ok {
		st.Latest = &r
		if st.Type == "" {
			st.Type = r.Type
		}
	}
	next, ok := NextLimitEligibility(card, records)
	if !ok {
		return st
	}
	st.Scheduled = true
	st.NextEligible = next
	st.DaysLeft = dates.DaysBetween(now, next)
	st.EligibleNow = st.DaysLeft <= 0
	if st.DaysLeft < 0 {
		st.DaysLeft = 0
	}
	return st
}

// LimitRecordRequest is the validated input for logging a limit request.
type LimitRecordRequest struct {
	CardID          string    `validate:"required"`
	RequestDate     time.Time `validate:"required"`
	ActionDate      *time.Time
	RequestedAmount float64           `validate:"gte=0"`
	Type            model.LimitType   `validate:"oneof=permanent temporary"`
	FrequencyMonths int               `validate:"gte=1,lte=60"`
	Status          model.LimitStatus `validate:"oneof=pending approved rejected"`
}

// NewLimitRecord validates req and returns a history record.
func (e *Engine) NewLimitRecord(req LimitRecordRequest) (model.LimitIncreaseRecord, error) {
	if err := e.Validate(req); err != nil {
		return model.LimitIncreaseRecord{}, err
	}
	if req.ActionDate != nil && req.ActionDate.Before(req.RequestDate) {
		return model.LimitIncreaseRecord{}, invalid("action date before request date")
	}
	return model.LimitIncreaseRecord{
		ID:              e.newID(),
		CardID:          req.CardID,
		RequestDate:     req.RequestDate,
		ActionDate:      req.ActionDate,
		RequestedAmount: money(req.RequestedAmount),
		Type:            req.Type,
		FrequencyMonths: req.FrequencyMonths,
		Status:          req.Status,
	}, nil
}
