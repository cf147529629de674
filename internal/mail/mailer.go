// Package mail delivers the one-time PIN over SMTP. No third-party mail
// client is involved; the configured SMTP credentials are used directly.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/mail"
	"net/smtp"
	"time"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

var pinTemplate = template.Must(template.ParseFS(templateFS, "templates/pin_email.html"))

// SMTPConfig carries the outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTPMailer sends the PIN email synchronously over SMTP. It applies no
// timeout of its own; delivery inherits the SMTP client's behaviour.
type SMTPMailer struct {
	cfg  SMTPConfig
	from *mail.Address
}

// NewSMTPMailer validates the From address and returns a mailer.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	from, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("parse MAIL_FROM: %w", err)
	}
	return &SMTPMailer{cfg: cfg, from: from}, nil
}

// SendPIN renders and dispatches the PIN email.
func (m *SMTPMailer) SendPIN(ctx context.Context, to, pin string, expiresAt time.Time) error {
	minutes := int(time.Until(expiresAt).Round(time.Minute).Minutes())
	if minutes < 1 {
		minutes = 1
	}

	var body bytes.Buffer
	if err := pinTemplate.Execute(&body, map[string]any{
		"Pin":     pin,
		"Minutes": minutes,
	}); err != nil {
		return fmt.Errorf("render pin email: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: Your access PIN - Fractal Shop\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	return smtp.SendMail(addr, auth, m.from.Address, []string{to}, msg.Bytes())
}

// LogMailer stands in when no SMTP host is configured. The PIN reaches the
// operational log through the issuer's PIN log, not here.
type LogMailer struct{}

func (LogMailer) SendPIN(ctx context.Context, to, pin string, expiresAt time.Time) error {
	log.Info().Str("to", to).Time("expires_at", expiresAt).Msg("mail channel disabled, pin email skipped")
	return nil
}
