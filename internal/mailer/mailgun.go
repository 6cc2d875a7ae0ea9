package mailer

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"
)

type mailgunSender struct {
	mg       *mailgun.MailgunImpl
	from     string
	fromName string
}

func newMailgun(cfg Config) *mailgunSender {
	return &mailgunSender{
		mg:       mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunKey),
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

func (s *mailgunSender) Name() string { return "mailgun" }

func (s *mailgunSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	from := s.from
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.from)
	}
	msg := s.mg.NewMessage(from, subject, textBody, to)
	msg.SetHtml(htmlBody)
	if _, _, err := s.mg.Send(ctx, msg); err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	return nil
}
