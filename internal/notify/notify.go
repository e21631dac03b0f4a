// Package notify delivers planned reminder triggers. Triggers are queued in
// SQLite by Queue and handed to a Sender by Dispatcher once they are due.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/theirongolddev/cardwise/internal/engine"
)

// Notifier schedules and cancels reminders by stable ID. Scheduling an ID
// that already exists replaces it.
type Notifier interface {
	ScheduleAt(ctx context.Context, id string, at time.Time, title, body string, payload map[string]string) error
	Cancel(ctx context.Context, id string) error
}

// ApplyResult counts what Apply did.
type ApplyResult struct {
	Cancelled int
	Scheduled int
}

// Apply executes a reminder plan: every cancel first, then every schedule.
// It stops at the first error.
func Apply(ctx context.Context, n Notifier, plan engine.ReminderPlan) (ApplyResult, error) {
	var res ApplyResult
	for _, id := range plan.Cancel {
		if err := n.Cancel(ctx, id); err != nil {
			return res, fmt.Errorf("cancelling %s: %w", id, err)
		}
		res.Cancelled++
	}
	for _, t := range plan.Schedule {
		if err := n.ScheduleAt(ctx, t.ID, t.FireAt, t.Title, t.Body, t.Payload); err != nil {
			return res, fmt.Errorf("scheduling %s: %w", t.ID, err)
		}
		res.Scheduled++
	}
	return res, nil
}
