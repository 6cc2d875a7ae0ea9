package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"remindflow/internal/domain"
)

// TaskSource yields tasks whose reminder time falls inside a window.
type TaskSource interface {
	DueForReminder(ctx context.Context, from, to time.Time) ([]domain.Task, error)
}

// PreferenceSource resolves a user's notification preference.
type PreferenceSource interface {
	GetPreference(ctx context.Context, userID string) (domain.NotificationPreference, error)
}

// ReminderPublisher ships reminder events to the bus.
type ReminderPublisher interface {
	PublishReminder(ctx context.Context, evt domain.ReminderEvent) bool
}

// Service periodically discovers tasks whose reminder time has arrived and
// publishes a reminder event for each, honoring per-user quiet hours.
type Service struct {
	tasks    TaskSource
	prefs    PreferenceSource
	pub      ReminderPublisher
	cron     *cron.Cron
	interval time.Duration
	window   time.Duration
}

func NewService(tasks TaskSource, prefs PreferenceSource, pub ReminderPublisher, interval, window time.Duration) (*Service, error) {
	if interval <= 0 {
		return nil, errors.New("scan interval must be positive")
	}
	if window <= 0 {
		return nil, errors.New("look-ahead window must be positive")
	}
	return &Service{
		tasks:    tasks,
		prefs:    prefs,
		pub:      pub,
		cron:     cron.New(),
		interval: interval,
		window:   window,
	}, nil
}

// Start registers the scan job and begins ticking. The scan runs with the
// process-lifetime context handed in here, never a request-scoped one.
func (s *Service) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %ds", int(s.interval.Seconds()))
	_, err := s.cron.AddFunc(spec, func() {
		s.ScanOnce(ctx, time.Now().UTC())
	})
	if err != nil {
		return fmt.Errorf("register scan job: %w", err)
	}
	s.cron.Start()
	log.Info().Dur("interval", s.interval).Dur("window", s.window).Msg("reminder scan started")
	return nil
}

// Stop halts the ticker and waits for a running scan to finish.
func (s *Service) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("reminder scan stopped")
}

// ScanOnce performs a single tick: one storage query over the look-ahead
// window, then one publish per eligible task.
func (s *Service) ScanOnce(ctx context.Context, now time.Time) {
	tasks, err := s.tasks.DueForReminder(ctx, now, now.Add(s.window))
	if err != nil {
		log.Error().Err(err).Msg("reminder scan query failed")
		return
	}

	for _, task := range tasks {
		s.processTask(ctx, task)
	}
}

func (s *Service) processTask(ctx context.Context, task domain.Task) {
	if task.RemindAt == nil {
		return
	}

	pref, err := s.prefs.GetPreference(ctx, task.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error().Err(err).Str("user_id", task.UserID).Msg("resolve preference failed")
			return
		}
		pref = domain.DefaultPreference(task.UserID)
	}

	if pref.Quiet != nil && pref.Quiet.Contains(*task.RemindAt) {
		log.Debug().Str("task_id", task.ID).Str("user_id", task.UserID).Msg("reminder inside quiet hours, skipped")
		return
	}

	evt := domain.ReminderEvent{
		TaskID:      task.ID,
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		DueAt:       task.DueAt,
		RemindAt:    *task.RemindAt,
		Channels: domain.ReminderChannels{
			InApp: pref.InAppEnabled,
			Email: pref.EmailEnabled,
		},
	}
	if pref.EmailEnabled {
		evt.Channels.To = pref.Email
	}

	if !s.pub.PublishReminder(ctx, evt) {
		log.Warn().Str("task_id", task.ID).Msg("reminder event publish failed, dropped")
		return
	}
	log.Info().Str("task_id", task.ID).Str("user_id", task.UserID).Time("remind_at", *task.RemindAt).Msg("reminder event published")
}
