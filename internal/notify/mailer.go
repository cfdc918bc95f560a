// Package notify delivers post-approval side effects: subscriber email
// and the publisher's X feed.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends plain-text notification mail over SMTP.
type Mailer struct {
	addr string
	from string
	auth smtp.Auth
}

// NewMailer constructs a Mailer. Auth is optional; local relays in
// development run unauthenticated.
func NewMailer(host string, port int, from, username, password string) *Mailer {
	m := &Mailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
	}
	if username != "" {
		m.auth = smtp.PlainAuth("", username, password, host)
	}
	return m
}

// Send delivers one message to the given recipients.
func (m *Mailer) Send(ctx context.Context, to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")
	if err := smtp.SendMail(m.addr, m.auth, m.from, to, []byte(msg)); err != nil {
		return fmt.Errorf("notify: send mail: %w", err)
	}
	return nil
}
