// Package mailer sends reminder email over plain SMTP. Delivery is
// best-effort; callers record the attempt either way.
package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/timewise-hq/timewise/internal"
)

// Transport delivers a single message.
type Transport interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	cfg    internal.SMTPConfig
	logger *slog.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg internal.SMTPConfig, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		logger: logger,
		send:   smtp.SendMail,
	}
}

// Send delivers one message. With SMTP disabled it logs the message and
// reports success, which keeps local development working without a relay.
func (m *SMTPMailer) Send(to, subject, body string) error {
	if !m.cfg.Enabled {
		m.logger.Info("smtp disabled, skipping delivery",
			"to", to, "subject", subject)
		return nil
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(addr, auth, m.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		m.logger.Error("smtp delivery failed", "error", err, "to", to)
		return fmt.Errorf("smtp delivery to %s failed: %w", to, err)
	}

	m.logger.Info("mail delivered", "to", to, "subject", subject)
	return nil
}
