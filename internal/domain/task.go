package domain

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type Task struct {
	ID           string
	UserID       string
	Title        string
	Description  string
	Priority     int
	DueAt        time.Time
	RemindAt     *time.Time
	Completed    bool
	RecurrenceID *string
	ParentTaskID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Recurring reports whether completing this task should produce a next instance.
func (t Task) Recurring() bool { return t.RecurrenceID != nil }
