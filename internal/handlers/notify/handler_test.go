package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remindflow/internal/broadcast"
	"remindflow/internal/domain"
	"remindflow/internal/pubsub"
)

type fakeSender struct {
	received [][]byte
}

func (f *fakeSender) Send(payload []byte) error {
	f.received = append(f.received, payload)
	return nil
}

func (f *fakeSender) Close() error { return nil }

type fakeMailer struct {
	sent []string
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, _, _, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

func (f *fakeMailer) Name() string { return "fake" }

func reminderEvent(ch domain.ReminderChannels) domain.ReminderEvent {
	return domain.ReminderEvent{
		EventID:     "evt_1",
		TaskID:      "tsk_1",
		UserID:      "usr_1",
		Title:       "standup",
		Description: "daily sync",
		DueAt:       time.Date(2024, time.December, 2, 10, 0, 0, 0, time.UTC),
		RemindAt:    time.Date(2024, time.December, 2, 9, 0, 0, 0, time.UTC),
		Channels:    ch,
		Timestamp:   time.Date(2024, time.December, 2, 9, 0, 0, 0, time.UTC),
	}
}

func TestInAppOnlyDeliversToOneConnection(t *testing.T) {
	hub := broadcast.NewHub()
	conn := &fakeSender{}
	hub.Connect("usr_1", conn)
	mail := &fakeMailer{}
	h := NewHandler(hub, mail)

	status, err := h.Handle(context.Background(), reminderEvent(domain.ReminderChannels{InApp: true}))
	require.NoError(t, err)
	assert.Equal(t, pubsub.StatusSuccess, status)

	require.Len(t, conn.received, 1)
	assert.Empty(t, mail.sent, "email channel disabled")

	var payload map[string]any
	require.NoError(t, json.Unmarshal(conn.received[0], &payload))
	assert.Equal(t, "reminder", payload["type"])
	assert.Equal(t, "tsk_1", payload["task_id"])
	assert.Equal(t, "standup", payload["title"])
}

func TestEmailChannel(t *testing.T) {
	hub := broadcast.NewHub()
	mail := &fakeMailer{}
	h := NewHandler(hub, mail)

	status, err := h.Handle(context.Background(), reminderEvent(domain.ReminderChannels{Email: true, To: "u@example.com"}))
	require.NoError(t, err)
	assert.Equal(t, pubsub.StatusSuccess, status)
	assert.Equal(t, []string{"u@example.com"}, mail.sent)
}

func TestEmailFailureDoesNotAffectInApp(t *testing.T) {
	hub := broadcast.NewHub()
	conn := &fakeSender{}
	hub.Connect("usr_1", conn)
	mail := &fakeMailer{err: errors.New("provider down")}
	h := NewHandler(hub, mail)

	status, err := h.Handle(context.Background(), reminderEvent(domain.ReminderChannels{InApp: true, Email: true, To: "u@example.com"}))
	require.NoError(t, err)
	assert.Equal(t, pubsub.StatusSuccess, status)
	assert.Len(t, conn.received, 1, "in-app delivery proceeds despite email failure")
}

func TestNoChannelStillAcknowledged(t *testing.T) {
	h := NewHandler(broadcast.NewHub(), &fakeMailer{})

	status, err := h.Handle(context.Background(), reminderEvent(domain.ReminderChannels{}))
	require.NoError(t, err)
	assert.Equal(t, pubsub.StatusSuccess, status)
}

func TestEmailEnabledWithoutAddressSkipped(t *testing.T) {
	mail := &fakeMailer{}
	h := NewHandler(broadcast.NewHub(), mail)

	status, err := h.Handle(context.Background(), reminderEvent(domain.ReminderChannels{Email: true}))
	require.NoError(t, err)
	assert.Equal(t, pubsub.StatusSuccess, status)
	assert.Empty(t, mail.sent)
}

func TestNilMailerSkipsEmail(t *testing.T) {
	h := NewHandler(broadcast.NewHub(), nil)

	status, err := h.Handle(context.Background(), reminderEvent(domain.ReminderChannels{Email: true, To: "u@example.com"}))
	require.NoError(t, err)
	assert.Equal(t, pubsub.StatusSuccess, status)
}

func TestEarlyEventProcessedImmediately(t *testing.T) {
	hub := broadcast.NewHub()
	conn := &fakeSender{}
	hub.Connect("usr_1", conn)
	h := NewHandler(hub, nil)
	h.now = func() time.Time { return time.Date(2024, time.December, 2, 8, 0, 0, 0, time.UTC) }

	evt := reminderEvent(domain.ReminderChannels{InApp: true}) // remind_at 09:00, an hour ahead
	status, err := h.Handle(context.Background(), evt)
	require.NoError(t, err)
	assert.Equal(t, pubsub.StatusSuccess, status)
	assert.Len(t, conn.received, 1)
}
