// Package email delivers queued outbound email. Delivery is fire-and-forget:
// failures are logged and counted, never reported back to the transition
// that produced the email.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"merenda/internal/notification"
	"merenda/pkg/platform/circuit"
)

type Mailer interface {
	Send(ctx context.Context, email notification.OutboundEmail) error
}

// SMTPConfig configures SMTPMailer.
type SMTPConfig struct {
	Addr     string
	From     string
	Username string
	Password string
}

// SMTPMailer sends HTML email through a plain SMTP relay.
type SMTPMailer struct {
	cfg  SMTPConfig
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	m := &SMTPMailer{cfg: cfg, send: smtp.SendMail}
	if cfg.Username != "" {
		host, _, _ := strings.Cut(cfg.Addr, ":")
		m.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, host)
	}
	return m
}

func (m *SMTPMailer) Send(_ context.Context, email notification.OutboundEmail) error {
	if len(email.To) == 0 {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(email.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(email.HTMLBody)

	if err := m.send(m.cfg.Addr, m.auth, m.cfg.From, email.To, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogMailer records email instead of sending it. Used in development and
// as the fallback while the SMTP relay is unhealthy.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, email notification.OutboundEmail) error {
	m.logger.InfoContext(ctx, "email not delivered, logged instead",
		"subject", email.Subject,
		"recipients", len(email.To),
	)
	return nil
}

// BreakerMailer routes to fallback while the primary's circuit is open.
type BreakerMailer struct {
	primary  Mailer
	fallback Mailer
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewBreakerMailer(primary, fallback Mailer, breaker *circuit.Breaker, logger *slog.Logger) *BreakerMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &BreakerMailer{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

func (m *BreakerMailer) Send(ctx context.Context, email notification.OutboundEmail) error {
	if m.breaker.IsOpen() {
		// Probe the primary; a success counts toward closing the circuit.
		if err := m.primary.Send(ctx, email); err == nil {
			if _, change := m.breaker.RecordSuccess(); change.Closed {
				m.logger.InfoContext(ctx, "mail circuit closed", "breaker", m.breaker.Name())
			}
			return nil
		}
		m.breaker.RecordFailure()
		return m.fallback.Send(ctx, email)
	}

	err := m.primary.Send(ctx, email)
	if err == nil {
		m.breaker.RecordSuccess()
		return nil
	}
	useFallback, change := m.breaker.RecordFailure()
	if change.Opened {
		m.logger.WarnContext(ctx, "mail circuit opened", "breaker", m.breaker.Name(), "error", err)
	}
	if useFallback {
		return m.fallback.Send(ctx, email)
	}
	return err
}
