// Package engine implements the card calculation and scheduling core:
// billing cycles, usage, subscription billing, installment generation,
// limit-increase scheduling, health scoring and reminder planning.
//
// Every operation reads a snapshot and returns new values. The engine keeps no
// state between calls besides its clock and ID source.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrInvalidInput is wrapped by every validation failure.
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Engine bundles the injected clock, ID source and reminder settings.
type Engine struct {
	now      func() time.Time
	newID    func() string
	hours    ReminderHours
	validate *validator.Validate
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDs overrides the UUID generator for new records.
func WithIDs(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithReminderHours sets the hour of day each reminder category fires at.
func WithReminderHours(h ReminderHours) Option {
	return func(e *Engine) { e.hours = h }
}

// New returns an engine using the wall clock and random UUIDs.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:      time.Now,
		newID:    uuid.NewString,
		hours:    DefaultReminderHours(),
		validate: validator.New(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// NewID returns a fresh record identifier.
func (e *Engine) NewID() string {
	return e.newID()
}

// Validate checks struct tags on v and wraps failures in ErrInvalidInput.
func (e *Engine) Validate(v any) error {
	if err := e.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return invalid("%s failed %q (value %v)", f.Field(), f.Tag(), f.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
