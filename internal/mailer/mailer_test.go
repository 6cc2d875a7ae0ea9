package mailer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remindflow/internal/domain"
)

func TestProviderSelectionOrder(t *testing.T) {
	all := Config{
		SendGridKey:   "sg-key",
		MailgunDomain: "mg.example.com",
		MailgunKey:    "mg-key",
		SMTPHost:      "localhost",
		SMTPPort:      25,
		From:          "noreply@example.com",
	}

	s, err := NewFromConfig(all)
	require.NoError(t, err)
	assert.Equal(t, "sendgrid", s.Name())

	noSendGrid := all
	noSendGrid.SendGridKey = ""
	s, err = NewFromConfig(noSendGrid)
	require.NoError(t, err)
	assert.Equal(t, "mailgun", s.Name())

	smtpOnly := Config{SMTPHost: "localhost", SMTPPort: 25, From: "noreply@example.com"}
	s, err = NewFromConfig(smtpOnly)
	require.NoError(t, err)
	assert.Equal(t, "smtp", s.Name())
}

func TestMailgunNeedsDomainAndKey(t *testing.T) {
	_, err := NewFromConfig(Config{MailgunKey: "mg-key"})
	assert.ErrorIs(t, err, ErrNoProvider)
	_, err = NewFromConfig(Config{MailgunDomain: "mg.example.com"})
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestNoProviderConfigured(t *testing.T) {
	_, err := NewFromConfig(Config{From: "noreply@example.com"})
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestRenderReminder(t *testing.T) {
	subject, htmlBody, textBody, err := RenderReminder(domain.ReminderEvent{
		Title:       "water the plants",
		Description: "the ficus looks thirsty",
		DueAt:       time.Date(2024, time.December, 2, 15, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "Reminder: water the plants", subject)
	assert.Contains(t, htmlBody, "water the plants")
	assert.Contains(t, htmlBody, "the ficus looks thirsty")
	assert.Contains(t, htmlBody, "Mon, 02 Dec 2024 15:00")
	assert.Contains(t, textBody, "water the plants")
	assert.Contains(t, textBody, "Due: Mon, 02 Dec 2024 15:00")
}

func TestRenderReminderWithoutDescription(t *testing.T) {
	_, htmlBody, textBody, err := RenderReminder(domain.ReminderEvent{
		Title: "standup",
		DueAt: time.Date(2024, time.December, 2, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotContains(t, htmlBody, "<p></p>")
	assert.Contains(t, textBody, "standup")
}

func TestRenderReminderEscapesHTML(t *testing.T) {
	_, htmlBody, _, err := RenderReminder(domain.ReminderEvent{
		Title: `<script>alert("x")</script>`,
		DueAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NotContains(t, htmlBody, "<script>")
}

func TestBuildMessage(t *testing.T) {
	msg, err := buildMessage("Remindflow", "noreply@example.com", "u@example.com", "Reminder: standup", "<p>standup</p>", "standup")
	require.NoError(t, err)

	raw := string(msg)
	assert.Contains(t, raw, "From: ")
	assert.Contains(t, raw, "noreply@example.com")
	assert.Contains(t, raw, "To: ")
	assert.Contains(t, raw, "u@example.com")
	assert.Contains(t, raw, "Subject: Reminder: standup")
	assert.Contains(t, strings.ToLower(raw), "multipart/alternative")
	assert.Contains(t, raw, "standup")
}
