package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendGridSender struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func newSendGrid(cfg Config) *sendGridSender {
	return &sendGridSender{
		client:   sendgrid.NewSendClient(cfg.SendGridKey),
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

func (s *sendGridSender) Name() string { return "sendgrid" }

func (s *sendGridSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	msg := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.from),
		subject,
		mail.NewEmail("", to),
		textBody,
		htmlBody,
	)
	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
