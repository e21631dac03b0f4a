package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// timeLayout is fixed-width so stored UTC times compare lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Reminder is a queued trigger.
type Reminder struct {
	ID       string
	FireAt   time.Time
	Title    string
	Body     string
	Payload  map[string]string
	QueuedAt time.Time
}

// CardID returns the card the reminder belongs to, if recorded.
func (r Reminder) CardID() string {
	return r.Payload["cardId"]
}

// Queue is a Notifier backed by the reminders table.
type Queue struct {
	db  *sql.DB
	now func() time.Time
}

// NewQueue returns a queue over db. The reminders table must exist.
func NewQueue(db *sql.DB) *Queue {
	return &Queue{db: db, now: time.Now}
}

// ScheduleAt inserts or replaces the reminder with the given ID.
func (q *Queue) ScheduleAt(ctx context.Context, id string, at time.Time, title, body string, payload map[string]string) error {
	if payload == nil {
		payload = map[string]string{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	_, err = q.db.ExecContext(ctx, `INSERT INTO reminders (id, fire_at, title, body, payload, queued_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		 fire_at = excluded.fire_at, title = excluded.title, body = excluded.body,
		 payload = excluded.payload, queued_at = excluded.queued_at`,
		id, at.UTC().Format(timeLayout), title, body, string(raw), q.now().UTC().Format(timeLayout))
	return err
}

// Cancel removes the reminder if present. Cancelling an unknown ID is not an
// error.
func (q *Queue) Cancel(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM reminders WHERE id = ?", id)
	return err
}

// Pending returns every queued reminder ordered by fire time.
func (q *Queue) Pending(ctx context.Context) ([]Reminder, error) {
	return q.query(ctx, `SELECT id, fire_at, title, body, payload, queued_at
		FROM reminders ORDER BY fire_at, id`)
}

// Due returns reminders whose fire time is at or before now.
func (q *Queue) Due(ctx context.Context, now time.Time) ([]Reminder, error) {
	return q.query(ctx, `SELECT id, fire_at, title, body, payload, queued_at
		FROM reminders WHERE fire_at <= ? ORDER BY fire_at, id`, now.UTC().Format(timeLayout))
}

func (q *Queue) query(ctx context.Context, query string, args ...any) ([]Reminder, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Reminder
	for rows.Next() {
		var (
			r                     Reminder
			fireAt, queued, payld string
		)
		if err := rows.Scan(&r.ID, &fireAt, &r.Title, &r.Body, &payld, &queued); err != nil {
			return nil, err
		}
		if r.FireAt, err = time.Parse(timeLayout, fireAt); err != nil {
			return nil, fmt.Errorf("reminder %s fire time: %w", r.ID, err)
		}
		r.FireAt = r.FireAt.Local()
		if r.QueuedAt, err = time.Parse(timeLayout, queued); err != nil {
			return nil, fmt.Errorf("reminder %s queue time: %w", r.ID, err)
		}
		r.QueuedAt = r.QueuedAt.Local()
		if err := json.Unmarshal([]byte(payld), &r.Payload); err != nil {
			return nil, fmt.Errorf("reminder %s payload: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
