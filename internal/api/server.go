package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"remindflow/internal/broadcast"
	"remindflow/internal/domain"
	"remindflow/internal/mailer"
	"remindflow/internal/pubsub"
)

// TaskEventHandler consumes task lifecycle deliveries.
type TaskEventHandler interface {
	Handle(ctx context.Context, evt domain.TaskEvent) (pubsub.Status, error)
}

// ReminderEventHandler consumes reminder deliveries.
type ReminderEventHandler interface {
	Handle(ctx context.Context, evt domain.ReminderEvent) (pubsub.Status, error)
}

type Server struct {
	r          *chi.Mux
	pubsubName string
	topics     pubsub.Topics
	tasks      TaskEventHandler
	reminders  ReminderEventHandler
	hub        *broadcast.Hub
	mail       mailer.Sender
}

const (
	routeTaskEvents = "/events/tasks"
	routeReminders  = "/events/reminders"
)

func NewServer(pubsubName string, topics pubsub.Topics, tasks TaskEventHandler, reminders ReminderEventHandler, hub *broadcast.Hub, mail mailer.Sender) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	s := &Server{
		r:          r,
		pubsubName: pubsubName,
		topics:     topics,
		tasks:      tasks,
		reminders:  reminders,
		hub:        hub,
		mail:       mail,
	}

	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	r.Get("/dapr/subscribe", s.subscribe)
	r.Post(routeTaskEvents, s.taskEvent)
	r.Post(routeReminders, s.reminderEvent)
	r.Get("/ws", s.websocket)

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	email := "unconfigured"
	if s.mail != nil {
		email = s.mail.Name()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"broadcaster": map[string]any{"ready": true, "connections": s.hub.ConnectionCount()},
		"email":       map[string]any{"ready": s.mail != nil, "provider": email},
	})
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []pubsub.Subscription{
		{PubsubName: s.pubsubName, Topic: s.topics.TaskEvents, Route: routeTaskEvents},
		{PubsubName: s.pubsubName, Topic: s.topics.Reminders, Route: routeReminders},
	})
}

func (s *Server) taskEvent(w http.ResponseWriter, r *http.Request) {
	payload, ok := readEvent(w, r)
	if !ok {
		return
	}

	// Decode with the type field as a string first so an unknown value is
	// an explicit drop, not a silent default.
	var raw struct {
		domain.TaskEvent
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		log.Error().Err(err).Msg("malformed task event payload")
		writeResult(w, pubsub.StatusDrop)
		return
	}
	evt := raw.TaskEvent
	var err error
	if evt.EventType, err = domain.ParseEventType(raw.EventType); err != nil {
		log.Error().Err(err).Str("event_id", evt.EventID).Msg("task event dropped")
		writeResult(w, pubsub.StatusDrop)
		return
	}

	status, err := s.tasks.Handle(r.Context(), evt)
	if err != nil {
		log.Error().Err(err).Str("event_id", evt.EventID).Str("status", string(status)).Msg("task event handling failed")
	}
	writeResult(w, status)
}

func (s *Server) reminderEvent(w http.ResponseWriter, r *http.Request) {
	payload, ok := readEvent(w, r)
	if !ok {
		return
	}

	var evt domain.ReminderEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		log.Error().Err(err).Msg("malformed reminder event payload")
		writeResult(w, pubsub.StatusDrop)
		return
	}
	if evt.TaskID == "" || evt.UserID == "" {
		log.Error().Str("event_id", evt.EventID).Msg("reminder event missing task or user id, dropped")
		writeResult(w, pubsub.StatusDrop)
		return
	}

	status, err := s.reminders.Handle(r.Context(), evt)
	if err != nil {
		log.Error().Err(err).Str("event_id", evt.EventID).Str("status", string(status)).Msg("reminder event handling failed")
	}
	writeResult(w, status)
}

// readEvent slurps the body and unwraps an optional CloudEvents envelope.
// A body that is not JSON at all is answered with DROP.
func readEvent(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error().Err(err).Msg("read event body")
		writeResult(w, pubsub.StatusDrop)
		return nil, false
	}
	payload, err := pubsub.Normalize(body)
	if err != nil {
		log.Error().Err(err).Msg("unparseable event body, dropped")
		writeResult(w, pubsub.StatusDrop)
		return nil, false
	}
	return payload, true
}

func writeResult(w http.ResponseWriter, status pubsub.Status) {
	writeJSON(w, http.StatusOK, pubsub.Result{Status: status})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
