// Package mailer delivers reminder emails through the first configured
// provider: SendGrid, then Mailgun, then a local SMTP relay.
package mailer

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
	Name() string
}

// ErrNoProvider means no email credentials were configured at all.
var ErrNoProvider = errors.New("no email provider configured")

// Config is the provider credential surface. Empty fields disable a
// provider.
type Config struct {
	SendGridKey   string
	MailgunDomain string
	MailgunKey    string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	From          string
	FromName      string
}

// NewFromConfig selects the provider at process start: primary API provider
// first, the SMTP relay last. Returns ErrNoProvider when nothing is
// configured; the caller decides whether that is fatal.
func NewFromConfig(cfg Config) (Sender, error) {
	switch {
	case cfg.SendGridKey != "":
		log.Info().Str("provider", "sendgrid").Msg("email provider selected")
		return newSendGrid(cfg), nil
	case cfg.MailgunDomain != "" && cfg.MailgunKey != "":
		log.Info().Str("provider", "mailgun").Msg("email provider selected")
		return newMailgun(cfg), nil
	case cfg.SMTPHost != "":
		log.Info().Str("provider", "smtp").Str("host", cfg.SMTPHost).Msg("email provider selected")
		return newSMTP(cfg), nil
	}
	return nil, ErrNoProvider
}
