package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Sender delivers one reminder.
type Sender interface {
	Send(ctx context.Context, r Reminder) error
}

// DispatchResult counts the outcome of one dispatch pass.
type DispatchResult struct {
	Delivered int
	Failed    int
	Expired   int
}

// Dispatcher hands due reminders to a Sender and removes the delivered ones.
// Failed reminders stay queued and are retried on the next pass until they
// are older than MaxAge.
type Dispatcher struct {
	queue  *Queue
	sender Sender
	log    logrus.FieldLogger
	now    func() time.Time

	// MaxAge drops reminders that have been due for longer than this without
	// a successful delivery. Zero keeps them forever.
	MaxAge time.Duration
}

// NewDispatcher returns a dispatcher draining q into s.
func NewDispatcher(q *Queue, s Sender, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{queue: q, sender: s, log: log, now: time.Now, MaxAge: 72 * time.Hour}
}

// Dispatch delivers every reminder due now.
func (d *Dispatcher) Dispatch(ctx context.Context) (DispatchResult, error) {
	var res DispatchResult
	now := d.now()
	due, err := d.queue.Due(ctx, now)
	if err != nil {
		return res, fmt.Errorf("reading due reminders: %w", err)
	}

	for _, r := range due {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		entry := d.log.WithFields(logrus.Fields{"reminder": r.ID, "card_id": r.CardID()})

		if d.MaxAge > 0 && now.Sub(r.FireAt) > d.MaxAge {
			if err := d.queue.Cancel(ctx, r.ID); err != nil {
				return res, fmt.Errorf("dropping expired %s: %w", r.ID, err)
			}
			entry.Warn("dropped expired reminder")
			res.Expired++
			continue
		}

		if err := d.sender.Send(ctx, r); err != nil {
			entry.WithError(err).Warn("reminder delivery failed")
			res.Failed++
			continue
		}
		if err := d.queue.Cancel(ctx, r.ID); err != nil {
			return res, fmt.Errorf("removing delivered %s: %w", r.ID, err)
		}
		entry.Debug("reminder delivered")
		res.Delivered++
	}
	return res, nil
}
