// Package notify fans reminder events out to live connections and email.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"remindflow/internal/domain"
	"remindflow/internal/mailer"
	"remindflow/internal/pubsub"
)

// Broadcaster pushes a payload to a user's live connections.
type Broadcaster interface {
	BroadcastToUser(userID string, payload []byte) int
}

type Handler struct {
	hub  Broadcaster
	mail mailer.Sender
	now  func() time.Time
}

// NewHandler wires the two delivery channels. mail may be nil when no email
// provider is configured; email deliveries are then skipped with a warning.
func NewHandler(hub Broadcaster, mail mailer.Sender) *Handler {
	return &Handler{hub: hub, mail: mail, now: func() time.Time { return time.Now().UTC() }}
}

// Handle dispatches one reminder delivery to the enabled channels. Channel
// failures are isolated: each is logged and the other channel still runs.
// When nothing fires the delivery is still acknowledged so the broker does
// not redeliver.
func (h *Handler) Handle(ctx context.Context, evt domain.ReminderEvent) (pubsub.Status, error) {
	if evt.RemindAt.After(h.now()) {
		// Delivered ahead of its reminder time; processed immediately, there
		// is no deferred-delivery queue.
		log.Warn().Str("task_id", evt.TaskID).Time("remind_at", evt.RemindAt).Msg("reminder event arrived early, processing now")
	}

	delivered := 0

	if evt.Channels.InApp {
		payload, err := json.Marshal(map[string]any{
			"type":        "reminder",
			"task_id":     evt.TaskID,
			"title":       evt.Title,
			"description": evt.Description,
			"due_at":      evt.DueAt.UTC().Format(time.RFC3339),
			"remind_at":   evt.RemindAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			log.Error().Err(err).Str("task_id", evt.TaskID).Msg("marshal in-app payload")
		} else if n := h.hub.BroadcastToUser(evt.UserID, payload); n > 0 {
			delivered += n
			log.Info().Str("task_id", evt.TaskID).Str("user_id", evt.UserID).Int("connections", n).Msg("reminder pushed to live connections")
		} else {
			log.Debug().Str("user_id", evt.UserID).Msg("no live connections for reminder")
		}
	}

	if evt.Channels.Email {
		sent, err := h.sendEmail(ctx, evt)
		if err != nil {
			log.Error().Err(err).Str("task_id", evt.TaskID).Str("user_id", evt.UserID).Msg("email reminder failed")
		} else if sent {
			delivered++
		}
	}

	if delivered == 0 {
		log.Warn().Str("task_id", evt.TaskID).Str("user_id", evt.UserID).Msg("reminder delivered on no channel")
	}
	return pubsub.StatusSuccess, nil
}

func (h *Handler) sendEmail(ctx context.Context, evt domain.ReminderEvent) (bool, error) {
	if evt.Channels.To == "" {
		log.Warn().Str("user_id", evt.UserID).Msg("email enabled but no address on event, skipped")
		return false, nil
	}
	if h.mail == nil {
		log.Warn().Str("user_id", evt.UserID).Msg("email enabled but no provider configured, skipped")
		return false, nil
	}

	subject, htmlBody, textBody, err := mailer.RenderReminder(evt)
	if err != nil {
		return false, err
	}
	if err := h.mail.Send(ctx, evt.Channels.To, subject, htmlBody, textBody); err != nil {
		return false, err
	}
	log.Info().Str("task_id", evt.TaskID).Str("to", evt.Channels.To).Str("provider", h.mail.Name()).Msg("reminder email sent")
	return true, nil
}
