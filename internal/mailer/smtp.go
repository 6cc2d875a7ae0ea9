package mailer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

type smtpSender struct {
	addr     string
	user     string
	pass     string
	from     string
	fromName string
}

func newSMTP(cfg Config) *smtpSender {
	return &smtpSender{
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		user:     cfg.SMTPUser,
		pass:     cfg.SMTPPass,
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

func (s *smtpSender) Name() string { return "smtp" }

func (s *smtpSender) Send(_ context.Context, to, subject, htmlBody, textBody string) error {
	msg, err := buildMessage(s.fromName, s.from, to, subject, htmlBody, textBody)
	if err != nil {
		return fmt.Errorf("smtp build message: %w", err)
	}

	var auth sasl.Client
	if s.user != "" {
		auth = sasl.NewPlainClient("", s.user, s.pass)
	}
	if err := smtp.SendMail(s.addr, auth, s.from, []string{to}, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("smtp send via %s: %w", s.addr, err)
	}
	return nil
}

// buildMessage assembles a multipart/alternative MIME message with the plain
// part first, per convention.
func buildMessage(fromName, from, to, subject, htmlBody, textBody string) ([]byte, error) {
	var buf bytes.Buffer

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Name: fromName, Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: to}})
	h.SetSubject(subject)

	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, err
	}

	iw, err := mw.CreateInline()
	if err != nil {
		return nil, err
	}

	var th mail.InlineHeader
	th.Set("Content-Type", "text/plain; charset=utf-8")
	pw, err := iw.CreatePart(th)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(pw, textBody); err != nil {
		return nil, err
	}
	if err := pw.Close(); err != nil {
		return nil, err
	}

	var hh mail.InlineHeader
	hh.Set("Content-Type", "text/html; charset=utf-8")
	hw, err := iw.CreatePart(hh)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(hw, htmlBody); err != nil {
		return nil, err
	}
	if err := hw.Close(); err != nil {
		return nil, err
	}

	if err := iw.Close(); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
