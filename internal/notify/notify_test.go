package notify

import (
	"context"
	"errors"
	"io"
	"net/smtp"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/model"
	"github.com/theirongolddev/cardwise/internal/store"
)

func newQueue(t *testing.T) *Queue {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "cardwise.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewQueue(st.DB())
}

func engineCard() model.Card {
	return model.Card{ID: "c1", Name: "Blue", DueDay: 20, BillingDay: 1}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestQueue_ScheduleReplaceCancel(t *testing.T) {
	ctx := context.Background()
	q := newQueue(t)
	at := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)

	require.NoError(t, q.ScheduleAt(ctx, "payment-c1-0", at, "Due", "first", map[string]string{"cardId": "c1"}))
	require.NoError(t, q.ScheduleAt(ctx, "payment-c1-0", at, "Due", "second", nil))
	require.NoError(t, q.ScheduleAt(ctx, "payment-c1-1", at.Add(-24*time.Hour), "Due", "earlier", nil))

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "payment-c1-1", pending[0].ID, "ordered by fire time")
	assert.Equal(t, "second", pending[1].Body)
	assert.True(t, pending[1].FireAt.Equal(at))
	assert.Empty(t, pending[1].Payload)

	require.NoError(t, q.Cancel(ctx, "payment-c1-1"))
	require.NoError(t, q.Cancel(ctx, "never-existed"))
	pending, err = q.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestQueue_DueOrdersSubSecondTimes(t *testing.T) {
	ctx := context.Background()
	q := newQueue(t)
	base := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)

	require.NoError(t, q.ScheduleAt(ctx, "late", base.Add(500*time.Millisecond), "t", "b", nil))
	require.NoError(t, q.ScheduleAt(ctx, "on-time", base, "t", "b", nil))

	due, err := q.Due(ctx, base)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "on-time", due[0].ID)
}

func TestApply_CancelsThenSchedules(t *testing.T) {
	ctx := context.Background()
	q := newQueue(t)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	card := engineCard()

	// stale trigger from an older plan, not yet due
	require.NoError(t, q.ScheduleAt(ctx, engine.TriggerID(engine.ReminderPayment, card.ID, 3), now.Add(time.Hour), "old", "old", nil))

	prefs := engine.Preferences{Payment: true}
	plan := engine.PlanReminders(card, engine.ReminderDates(card, nil, now), prefs, engine.DefaultReminderHours(), now)
	res, err := Apply(ctx, q, plan)
	require.NoError(t, err)
	assert.Equal(t, 11, res.Cancelled)
	assert.Equal(t, 3, res.Scheduled)

	// re-applying the same plan leaves the same queue
	_, err = Apply(ctx, q, plan)
	require.NoError(t, err)
	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for _, r := range pending {
		assert.Equal(t, "c1", r.CardID())
		assert.NotEqual(t, "old", r.Title)
	}
}

func TestApply_ReplanKeepsDueTriggerForDispatch(t *testing.T) {
	ctx := context.Background()
	q := newQueue(t)
	card := engineCard()
	prefs := engine.Preferences{Payment: true}
	hours := engine.DefaultReminderHours()
	plan := func(now time.Time) engine.ReminderPlan {
		return engine.PlanReminders(card, engine.ReminderDates(card, nil, now), prefs, hours, now)
	}

	planned := time.Date(2024, 3, 19, 8, 0, 0, 0, time.UTC)
	_, err := Apply(ctx, q, plan(planned))
	require.NoError(t, err)
	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	// the 09:00 trigger for the day before is due when the next refresh runs
	replanned := time.Date(2024, 3, 19, 9, 0, 30, 0, time.UTC)
	_, err = Apply(ctx, q, plan(replanned))
	require.NoError(t, err)

	sender := &stubSender{}
	d := NewDispatcher(q, sender, quietLogger())
	d.now = func() time.Time { return time.Date(2024, 3, 19, 9, 1, 0, 0, time.UTC) }
	res, err := d.Dispatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Delivered)
	assert.Equal(t, []string{engine.TriggerID(engine.ReminderPayment, card.ID, 1)}, sender.sent)

	pending, err = q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, engine.TriggerID(engine.ReminderPayment, card.ID, 0), pending[0].ID)
}

type stubSender struct {
	sent []string
	fail map[string]bool
}

func (s *stubSender) Send(_ context.Context, r Reminder) error {
	if s.fail[r.ID] {
		return errors.New("smtp down")
	}
	s.sent = append(s.sent, r.ID)
	return nil
}

func TestDispatcher_RemovesDelivered(t *testing.T) {
	ctx := context.Background()
	q := newQueue(t)
	now := time.Date(2024, 3, 20, 9, 30, 0, 0, time.UTC)

	require.NoError(t, q.ScheduleAt(ctx, "a", now.Add(-time.Hour), "A", "a", nil))
	require.NoError(t, q.ScheduleAt(ctx, "b", now.Add(-time.Minute), "B", "b", nil))
	require.NoError(t, q.ScheduleAt(ctx, "future", now.Add(time.Hour), "F", "f", nil))
	require.NoError(t, q.ScheduleAt(ctx, "ancient", now.Add(-100*time.Hour), "X", "x", nil))

	sender := &stubSender{fail: map[string]bool{"b": true}}
	d := NewDispatcher(q, sender, quietLogger())
	d.now = func() time.Time { return now }

	res, err := d.Dispatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Delivered: 1, Failed: 1, Expired: 1}, res)
	assert.Equal(t, []string{"a"}, sender.sent)

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(pending))
	for _, r := range pending {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"b", "future"}, ids)
}

func TestQueue_ScheduleError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT INTO reminders").WillReturnError(errors.New("locked"))
	q := NewQueue(db)
	err = q.ScheduleAt(context.Background(), "x", time.Now(), "t", "b", nil)
	assert.EqualError(t, err, "locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmailSender(t *testing.T) {
	_, err := NewEmailSender(SMTPConfig{Host: "smtp.example.com"})
	assert.Error(t, err)

	s, err := NewEmailSender(SMTPConfig{Host: "smtp.example.com", Username: "u", Password: "p", From: "me@example.com", To: []string{"you@example.com"}})
	require.NoError(t, err)

	var (
		gotAddr string
		gotMsg  *email.Email
		gotAuth smtp.Auth
	)
	s.send = func(e *email.Email, addr string, auth smtp.Auth) error {
		gotAddr, gotMsg, gotAuth = addr, e, auth
		return nil
	}

	r := Reminder{ID: "payment-c1-0", Title: "Card payment due", Body: "Blue payment is due today.", Payload: map[string]string{"eventDate": "2024-03-20"}}
	require.NoError(t, s.Send(context.Background(), r))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "[cardwise] Card payment due", gotMsg.Subject)
	assert.True(t, strings.Contains(string(gotMsg.Text), "Date: 2024-03-20"))

	s.send = func(*email.Email, string, smtp.Auth) error { return errors.New("refused") }
	assert.Error(t, s.Send(context.Background(), r))
}

func TestLogSender(t *testing.T) {
	l := logrus.New()
	var buf strings.Builder
	l.SetOutput(&buf)
	require.NoError(t, LogSender{Log: l}.Send(context.Background(), Reminder{ID: "x", Title: "T", Body: "B"}))
	assert.Contains(t, buf.String(), "T: B")
}
