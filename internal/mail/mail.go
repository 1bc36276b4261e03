// Package mail sends transactional email for account flows.
package mail

import (
	"fmt"
	"log/slog"

	gomail "gopkg.in/gomail.v2"
)

// Mailer delivers a single plain-text message.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes messages to the log instead of delivering them.
// Used when no SMTP relay is configured.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	slog.Info("mail (not delivered, no SMTP configured)",
		"to", to,
		"subject", subject,
		"body", body)
	return nil
}
