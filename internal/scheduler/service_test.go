package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remindflow/internal/domain"
)

type fakeTasks struct {
	tasks []domain.Task
	from  time.Time
	to    time.Time
	err   error
}

func (f *fakeTasks) DueForReminder(_ context.Context, from, to time.Time) ([]domain.Task, error) {
	f.from, f.to = from, to
	return f.tasks, f.err
}

type fakePrefs struct {
	prefs map[string]domain.NotificationPreference
}

func (f *fakePrefs) GetPreference(_ context.Context, userID string) (domain.NotificationPreference, error) {
	pref, ok := f.prefs[userID]
	if !ok {
		return domain.NotificationPreference{}, fmt.Errorf("preference for %s: %w", userID, domain.ErrNotFound)
	}
	return pref, nil
}

type fakePub struct {
	events []domain.ReminderEvent
	ok     bool
}

func (f *fakePub) PublishReminder(_ context.Context, evt domain.ReminderEvent) bool {
	f.events = append(f.events, evt)
	return f.ok
}

func reminderTask(id, userID string, remindAt time.Time) domain.Task {
	return domain.Task{
		ID:       id,
		UserID:   userID,
		Title:    "water the plants",
		DueAt:    remindAt.Add(time.Hour),
		RemindAt: &remindAt,
	}
}

func newTestService(t *testing.T, tasks *fakeTasks, prefs *fakePrefs, pub *fakePub) *Service {
	t.Helper()
	svc, err := NewService(tasks, prefs, pub, time.Minute, 2*time.Minute)
	require.NoError(t, err)
	return svc
}

func TestScanPublishesReminder(t *testing.T) {
	now := time.Date(2024, time.December, 2, 14, 0, 0, 0, time.UTC)
	tasks := &fakeTasks{tasks: []domain.Task{reminderTask("tsk_1", "usr_1", now.Add(30*time.Second))}}
	prefs := &fakePrefs{prefs: map[string]domain.NotificationPreference{
		"usr_1": {UserID: "usr_1", InAppEnabled: true, EmailEnabled: true, Email: "u@example.com", LeadTimeMinutes: 60},
	}}
	pub := &fakePub{ok: true}

	newTestService(t, tasks, prefs, pub).ScanOnce(context.Background(), now)

	assert.Equal(t, now, tasks.from)
	assert.Equal(t, now.Add(2*time.Minute), tasks.to)
	require.Len(t, pub.events, 1)
	evt := pub.events[0]
	assert.Equal(t, "tsk_1", evt.TaskID)
	assert.Equal(t, "usr_1", evt.UserID)
	assert.True(t, evt.Channels.InApp)
	assert.True(t, evt.Channels.Email)
	assert.Equal(t, "u@example.com", evt.Channels.To)
}

func TestScanDefaultsMissingPreference(t *testing.T) {
	now := time.Date(2024, time.December, 2, 14, 0, 0, 0, time.UTC)
	tasks := &fakeTasks{tasks: []domain.Task{reminderTask("tsk_1", "usr_nobody", now)}}
	pub := &fakePub{ok: true}

	newTestService(t, tasks, &fakePrefs{}, pub).ScanOnce(context.Background(), now)

	require.Len(t, pub.events, 1)
	assert.True(t, pub.events[0].Channels.InApp)
	assert.True(t, pub.events[0].Channels.Email)
	assert.Empty(t, pub.events[0].Channels.To, "default preference carries no address")
}

func TestScanSkipsQuietHours(t *testing.T) {
	now := time.Date(2024, time.December, 2, 23, 0, 0, 0, time.UTC)
	tasks := &fakeTasks{tasks: []domain.Task{reminderTask("tsk_1", "usr_1", now.Add(time.Minute))}}
	prefs := &fakePrefs{prefs: map[string]domain.NotificationPreference{
		"usr_1": {
			UserID:       "usr_1",
			InAppEnabled: true,
			Quiet:        &domain.QuietHours{Start: 22 * 60, End: 8 * 60},
		},
	}}
	pub := &fakePub{ok: true}

	newTestService(t, tasks, prefs, pub).ScanOnce(context.Background(), now)

	assert.Empty(t, pub.events)
}

func TestScanEmailDisabledOmitsAddress(t *testing.T) {
	now := time.Date(2024, time.December, 2, 14, 0, 0, 0, time.UTC)
	tasks := &fakeTasks{tasks: []domain.Task{reminderTask("tsk_1", "usr_1", now)}}
	prefs := &fakePrefs{prefs: map[string]domain.NotificationPreference{
		"usr_1": {UserID: "usr_1", InAppEnabled: true, EmailEnabled: false, Email: "u@example.com"},
	}}
	pub := &fakePub{ok: true}

	newTestService(t, tasks, prefs, pub).ScanOnce(context.Background(), now)

	require.Len(t, pub.events, 1)
	assert.False(t, pub.events[0].Channels.Email)
	assert.Empty(t, pub.events[0].Channels.To)
}

func TestScanSurvivesQueryFailure(t *testing.T) {
	tasks := &fakeTasks{err: fmt.Errorf("db is on fire")}
	pub := &fakePub{ok: true}

	newTestService(t, tasks, &fakePrefs{}, pub).ScanOnce(context.Background(), time.Now().UTC())

	assert.Empty(t, pub.events)
}

func TestStartStop(t *testing.T) {
	svc, err := NewService(&fakeTasks{}, &fakePrefs{}, &fakePub{ok: true}, time.Hour, time.Minute)
	require.NoError(t, err)

	require.NoError(t, svc.Start(context.Background()))
	svc.Stop()
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(&fakeTasks{}, &fakePrefs{}, &fakePub{}, 0, time.Minute)
	assert.Error(t, err)
	_, err = NewService(&fakeTasks{}, &fakePrefs{}, &fakePub{}, time.Minute, 0)
	assert.Error(t, err)
}
