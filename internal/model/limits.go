package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LimitType is the kind of credit-limit increase a bank grants.
type LimitType string

const (
	LimitPermanent LimitType = "permanent"
	LimitTemporary LimitType = "temporary"
)

// LimitProgram is the card-level limit-increase cadence. It is a closed set:
// NoProgram, PermanentProgram or TemporaryProgram.
type LimitProgram interface {
	limitProgram()
}

// NoProgram means the card has no limit-increase schedule.
type NoProgram struct{}

// ProgramSchedule is the cadence shared by both program kinds.
type ProgramSchedule struct {
	LastRequest     *time.Time
	FrequencyMonths int
	NextEligible    *time.Time // computed, cached for display
	Remind          bool
}

// PermanentProgram tracks permanent limit-increase requests.
type PermanentProgram struct {
	ProgramSchedule
}

// TemporaryProgram tracks temporary (time-boxed) limit-increase requests.
type TemporaryProgram struct {
	ProgramSchedule
}

func (NoProgram) limitProgram()        {}
func (PermanentProgram) limitProgram() {}
func (TemporaryProgram) limitProgram() {}

// ScheduleOf returns the schedule of a program and whether one exists.
func ScheduleOf(p LimitProgram) (ProgramSchedule, bool) {
	switch p := p.(type) {
	case PermanentProgram:
		return p.ProgramSchedule, true
	case TemporaryProgram:
		return p.ProgramSchedule, true
	case NoProgram, nil:
		return ProgramSchedule{}, false
	default:
		panic("model: unknown limit program type")
	}
}

// WithSchedule returns p carrying s. NoProgram is returned unchanged.
func WithSchedule(p LimitProgram, s ProgramSchedule) LimitProgram {
	switch p.(type) {
	case PermanentProgram:
		return PermanentProgram{ProgramSchedule: s}
	case TemporaryProgram:
		return TemporaryProgram{ProgramSchedule: s}
	default:
		return NoProgram{}
	}
}

// ProgramType returns the LimitType for p, or "" for NoProgram.
func ProgramType(p LimitProgram) LimitType {
	switch p.(type) {
	case PermanentProgram:
		return LimitPermanent
	case TemporaryProgram:
		return LimitTemporary
	default:
		return ""
	}
}

// NewProgram builds the program variant for t. An empty or unknown type
// yields NoProgram.
func NewProgram(t LimitType, s ProgramSchedule) LimitProgram {
	switch t {
	case LimitPermanent:
		return PermanentProgram{ProgramSchedule: s}
	case LimitTemporary:
		return TemporaryProgram{ProgramSchedule: s}
	default:
		return NoProgram{}
	}
}

// LimitStatus is the resolution state of a limit-increase request.
type LimitStatus string

const (
	LimitPending  LimitStatus = "pending"
	LimitApproved LimitStatus = "approved"
	LimitRejected LimitStatus = "rejected"
)

// LimitIncreaseRecord is one historical limit-increase request.
type LimitIncreaseRecord struct {
	ID              string
	CardID          string
	RequestDate     time.Time
	ActionDate      *time.Time
	RequestedAmount decimal.Decimal
	Type            LimitType
	FrequencyMonths int
	Status          LimitStatus
}

// EffectiveDate is the action date when resolved, else the request date.
func (r LimitIncreaseRecord) EffectiveDate() time.Time {
	if r.ActionDate != nil {
		return *r.ActionDate
	}
	return r.RequestDate
}
