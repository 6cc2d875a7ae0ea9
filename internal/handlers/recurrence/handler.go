// Package recurrence reacts to task lifecycle events: when a recurring task
// completes, the next instance is materialized.
package recurrence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"remindflow/internal/domain"
	"remindflow/internal/pubsub"
	"remindflow/internal/recurrence"
	"remindflow/internal/store"
)

// Store is the slice of storage the handler needs.
type Store interface {
	GetTask(ctx context.Context, id string) (domain.Task, error)
	CreateTask(ctx context.Context, t domain.Task) (string, error)
	GetPattern(ctx context.Context, id string) (domain.RecurrencePattern, error)
	SetPatternStatus(ctx context.Context, id string, status domain.PatternStatus) error
}

type Handler struct {
	store Store
	now   func() time.Time
}

func NewHandler(st Store) *Handler {
	return &Handler{store: st, now: func() time.Time { return time.Now().UTC() }}
}

// Handle processes one task lifecycle delivery. The broker may redeliver;
// the unique instance constraint in storage makes a second delivery of the
// same completion a no-op.
func (h *Handler) Handle(ctx context.Context, evt domain.TaskEvent) (pubsub.Status, error) {
	if evt.EventType != domain.EventCompleted {
		return pubsub.StatusIgnored, nil
	}

	task, err := h.store.GetTask(ctx, evt.TaskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The task is gone; redelivery can never succeed.
			return pubsub.StatusDrop, fmt.Errorf("load task %s: %w", evt.TaskID, err)
		}
		return pubsub.StatusFailed, fmt.Errorf("load task %s: %w", evt.TaskID, err)
	}
	if !task.Recurring() {
		return pubsub.StatusIgnored, nil
	}

	pattern, err := h.store.GetPattern(ctx, *task.RecurrenceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return pubsub.StatusDrop, fmt.Errorf("load pattern %s: %w", *task.RecurrenceID, err)
		}
		return pubsub.StatusFailed, fmt.Errorf("load pattern %s: %w", *task.RecurrenceID, err)
	}
	if pattern.Status != domain.PatternActive {
		return pubsub.StatusIgnored, nil
	}

	now := h.now()
	if pattern.Expired(now) {
		// Re-running this on redelivery is a no-op.
		if err := h.store.SetPatternStatus(ctx, pattern.ID, domain.PatternCompleted); err != nil {
			return pubsub.StatusFailed, fmt.Errorf("complete expired pattern %s: %w", pattern.ID, err)
		}
		log.Info().Str("pattern_id", pattern.ID).Msg("pattern end date passed, marked completed")
		return pubsub.StatusSuccess, nil
	}

	nextDue, err := recurrence.NextOccurrence(task.DueAt, pattern)
	if err != nil {
		return pubsub.StatusDrop, fmt.Errorf("compute next occurrence for pattern %s: %w", pattern.ID, err)
	}

	if pattern.Outlives(nextDue) {
		if err := h.store.SetPatternStatus(ctx, pattern.ID, domain.PatternCompleted); err != nil {
			return pubsub.StatusFailed, fmt.Errorf("complete pattern %s: %w", pattern.ID, err)
		}
		log.Info().Str("pattern_id", pattern.ID).Time("next_due", nextDue).Msg("next occurrence past end date, pattern completed")
		return pubsub.StatusSuccess, nil
	}

	parentID := task.ID
	next := domain.Task{
		UserID:       task.UserID,
		Title:        task.Title,
		Description:  task.Description,
		Priority:     task.Priority,
		DueAt:        nextDue,
		RemindAt:     task.RemindAt,
		RecurrenceID: task.RecurrenceID,
		ParentTaskID: &parentID,
	}

	newID, err := h.store.CreateTask(ctx, next)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateInstance) {
			log.Info().Str("parent_task_id", parentID).Msg("next instance already generated, duplicate delivery acknowledged")
			return pubsub.StatusSuccess, nil
		}
		return pubsub.StatusFailed, fmt.Errorf("create next instance of %s: %w", parentID, err)
	}

	log.Info().
		Str("task_id", newID).
		Str("parent_task_id", parentID).
		Str("pattern_id", pattern.ID).
		Time("due_at", nextDue).
		Msg("next recurring instance created")
	return pubsub.StatusSuccess, nil
}
