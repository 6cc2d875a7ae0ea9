package domain

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventCreated   EventType = "created"
	EventUpdated   EventType = "updated"
	EventCompleted EventType = "completed"
	EventDeleted   EventType = "deleted"
)

func ParseEventType(s string) (EventType, error) {
	switch e := EventType(s); e {
	case EventCreated, EventUpdated, EventCompleted, EventDeleted:
		return e, nil
	}
	return "", fmt.Errorf("unknown event type %q", s)
}

// TaskEvent announces a task lifecycle change on the bus.
type TaskEvent struct {
	EventID       string        `json:"event_id"`
	EventType     EventType     `json:"event_type"`
	TaskID        string        `json:"task_id"`
	UserID        string        `json:"user_id"`
	Task          *TaskSnapshot `json:"task_snapshot,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
	CorrelationID string        `json:"correlation_id,omitempty"`
}

// TaskSnapshot is the slice of task state consumers need without a storage
// round trip.
type TaskSnapshot struct {
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Priority     int        `json:"priority"`
	DueAt        time.Time  `json:"due_at"`
	RemindAt     *time.Time `json:"remind_at,omitempty"`
	RecurrenceID *string    `json:"recurrence_id,omitempty"`
}

// ReminderChannels carries the resolved per-user delivery flags with the
// event so the fan-out side never re-reads preferences.
type ReminderChannels struct {
	InApp bool   `json:"in_app"`
	Email bool   `json:"email"`
	To    string `json:"email_address,omitempty"`
}

type ReminderEvent struct {
	EventID     string           `json:"event_id"`
	TaskID      string           `json:"task_id"`
	UserID      string           `json:"user_id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	DueAt       time.Time        `json:"due_at"`
	RemindAt    time.Time        `json:"remind_at"`
	Channels    ReminderChannels `json:"notification_preferences"`
	Timestamp   time.Time        `json:"timestamp"`
}

type TaskUpdateEvent struct {
	EventID       string    `json:"event_id"`
	TaskID        string    `json:"task_id"`
	UserID        string    `json:"user_id"`
	ChangedFields []string  `json:"changed_fields"`
	Timestamp     time.Time `json:"timestamp"`
}
