package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// LogSender writes reminders to a logger. It is the default when no mail
// server is configured.
type LogSender struct {
	Log logrus.FieldLogger
}

// Send logs r at info level.
func (s LogSender) Send(_ context.Context, r Reminder) error {
	s.Log.WithFields(logrus.Fields{
		"reminder": r.ID,
		"card_id":  r.CardID(),
		"fire_at":  r.FireAt.Format("2006-01-02 15:04"),
	}).Infof("%s: %s", r.Title, r.Body)
	return nil
}

// SMTPConfig holds mail server settings for EmailSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// EmailSender delivers reminders as plain-text email.
type EmailSender struct {
	cfg  SMTPConfig
	send func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewEmailSender validates cfg and returns a sender.
func NewEmailSender(cfg SMTPConfig) (*EmailSender, error) {
	if cfg.Host == "" || cfg.From == "" || len(cfg.To) == 0 {
		return nil, errors.New("mail: host, from and to are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &EmailSender{
		cfg:  cfg,
		send: func(e *email.Email, addr string, auth smtp.Auth) error { return e.Send(addr, auth) },
	}, nil
}

// Send emails r to every configured recipient.
func (s *EmailSender) Send(ctx context.Context, r Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := s.message(r)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if err := s.send(e, addr, auth); err != nil {
		return fmt.Errorf("sending reminder email: %w", err)
	}
	return nil
}

func (s *EmailSender) message(r Reminder) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = s.cfg.To
	e.Subject = "[cardwise] " + r.Title

	var b strings.Builder
	b.WriteString(r.Body)
	b.WriteString("\n\n")
	if d := r.Payload["eventDate"]; d != "" {
		fmt.Fprintf(&b, "Date: %s\n", d)
	}
	b.WriteString("\nSent by cardwise\n")
	e.Text = []byte(b.String())
	return e
}
