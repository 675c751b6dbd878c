// Package mailer sends HTML email over SMTP.
package mailer

import (
	"fmt"
	"net/smtp"
)

// SMTPMailer sends email through a configured SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	sender   string
}

// NewSMTPMailer creates an SMTPMailer. Auth is skipped when no username or
// password is configured, which suits local relays.
func NewSMTPMailer(host, port, username, password, sender string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		sender:   sender,
	}
}

// Send delivers one HTML message to a single recipient.
func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	if to == "" {
		return fmt.Errorf("mailer: recipient cannot be empty")
	}
	if m.host == "" || m.port == "" {
		return fmt.Errorf("mailer: SMTP host and port must be configured")
	}

	var auth smtp.Auth
	if m.username != "" && m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", m.sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			htmlBody,
	)

	if err := smtp.SendMail(addr, auth, m.sender, []string{to}, msg); err != nil {
		return fmt.Errorf("mailer: failed to send to %s: %w", to, err)
	}
	return nil
}
