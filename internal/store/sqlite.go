package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"remindflow/internal/domain"
)

// ErrDuplicateInstance signals that a next instance for the same
// (parent_task_id, recurrence_id) pair already exists. Redelivered completion
// events hit this instead of generating a second task.
var ErrDuplicateInstance = errors.New("recurrence instance already generated")

// EnsureSchema creates tables if they don't exist.
func EnsureSchema(db *sql.DB) error {
	schema := `
PRAGMA journal_mode=WAL;
CREATE TABLE IF NOT EXISTS tasks (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  priority INTEGER NOT NULL DEFAULT 0,
  due_at DATETIME NOT NULL,
  remind_at DATETIME,
  completed INTEGER NOT NULL DEFAULT 0,
  recurrence_id TEXT,
  parent_task_id TEXT,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tasks_remind ON tasks(completed, remind_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_instance ON tasks(parent_task_id, recurrence_id)
  WHERE parent_task_id IS NOT NULL AND recurrence_id IS NOT NULL;
CREATE TABLE IF NOT EXISTS recurrence_patterns (
  id TEXT PRIMARY KEY,
  frequency TEXT NOT NULL CHECK(frequency IN ('daily','weekly','monthly','yearly','custom')),
  interval INTEGER NOT NULL DEFAULT 1,
  days_of_week TEXT,
  day_of_month INTEGER,
  month_of_year INTEGER,
  start_date DATETIME NOT NULL,
  end_date DATETIME,
  count INTEGER,
  status TEXT NOT NULL CHECK(status IN ('active','completed','cancelled')) DEFAULT 'active',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS notification_preferences (
  user_id TEXT PRIMARY KEY,
  in_app_enabled INTEGER NOT NULL DEFAULT 1,
  email_enabled INTEGER NOT NULL DEFAULT 1,
  email TEXT NOT NULL DEFAULT '',
  lead_time_minutes INTEGER NOT NULL DEFAULT 60,
  quiet_start INTEGER,
  quiet_end INTEGER,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
	_, err := db.Exec(schema)
	return err
}

type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) CreateTask(ctx context.Context, t domain.Task) (string, error) {
	id := t.ID
	if id == "" {
		id = "tsk_" + uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO tasks (id,user_id,title,description,priority,due_at,remind_at,completed,recurrence_id,parent_task_id,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP,CURRENT_TIMESTAMP)
`, id, t.UserID, t.Title, t.Description, t.Priority, t.DueAt.UTC(), nullTime(t.RemindAt), t.Completed, nullStr(t.RecurrenceID), nullStr(t.ParentTaskID))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return "", ErrDuplicateInstance
		}
		return "", err
	}
	return id, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id,user_id,title,description,priority,due_at,remind_at,completed,recurrence_id,parent_task_id,created_at,updated_at
FROM tasks WHERE id=?`, id)
	return scanTask(row)
}

func (s *Store) CompleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE tasks SET completed=1, updated_at=CURRENT_TIMESTAMP WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DueForReminder returns open tasks with remind_at in [from, to), soonest
// first.
func (s *Store) DueForReminder(ctx context.Context, from, to time.Time) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id,user_id,title,description,priority,due_at,remind_at,completed,recurrence_id,parent_task_id,created_at,updated_at
FROM tasks
WHERE completed=0 AND remind_at IS NOT NULL AND remind_at >= ? AND remind_at < ?
ORDER BY remind_at ASC`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) CreatePattern(ctx context.Context, p domain.RecurrencePattern) (string, error) {
	id := p.ID
	if id == "" {
		id = "rec_" + uuid.NewString()
	}
	if p.Interval == 0 {
		p.Interval = 1
	}
	if p.Status == "" {
		p.Status = domain.PatternActive
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO recurrence_patterns (id,frequency,interval,days_of_week,day_of_month,month_of_year,start_date,end_date,count,status,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP,CURRENT_TIMESTAMP)
`, id, string(p.Frequency), p.Interval, encodeDays(p.DaysOfWeek), nullInt(p.DayOfMonth), nullInt(p.MonthOfYear),
		p.StartDate.UTC(), nullTime(p.EndDate), nullInt(p.Count), string(p.Status))
	return id, err
}

func (s *Store) GetPattern(ctx context.Context, id string) (domain.RecurrencePattern, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id,frequency,interval,days_of_week,day_of_month,month_of_year,start_date,end_date,count,status,created_at,updated_at
FROM recurrence_patterns WHERE id=?`, id)

	var p domain.RecurrencePattern
	var freq, status string
	var days sql.NullString
	var dom, moy, count sql.NullInt64
	var end sql.NullTime
	err := row.Scan(&p.ID, &freq, &p.Interval, &days, &dom, &moy, &p.StartDate, &end, &count, &status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.RecurrencePattern{}, fmt.Errorf("pattern %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.RecurrencePattern{}, err
	}
	if p.Frequency, err = domain.ParseFrequency(freq); err != nil {
		return domain.RecurrencePattern{}, err
	}
	if p.Status, err = domain.ParsePatternStatus(status); err != nil {
		return domain.RecurrencePattern{}, err
	}
	if days.Valid {
		if p.DaysOfWeek, err = decodeDays(days.String); err != nil {
			return domain.RecurrencePattern{}, err
		}
	}
	p.DayOfMonth = intPtr(dom)
	p.MonthOfYear = intPtr(moy)
	p.Count = intPtr(count)
	if end.Valid {
		p.EndDate = &end.Time
	}
	return p, nil
}

func (s *Store) SetPatternStatus(ctx context.Context, id string, status domain.PatternStatus) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE recurrence_patterns SET status=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("pattern %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) GetPreference(ctx context.Context, userID string) (domain.NotificationPreference, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT user_id,in_app_enabled,email_enabled,email,lead_time_minutes,quiet_start,quiet_end,updated_at
FROM notification_preferences WHERE user_id=?`, userID)

	var pref domain.NotificationPreference
	var qs, qe sql.NullInt64
	err := row.Scan(&pref.UserID, &pref.InAppEnabled, &pref.EmailEnabled, &pref.Email, &pref.LeadTimeMinutes, &qs, &qe, &pref.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.NotificationPreference{}, fmt.Errorf("preference for %s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.NotificationPreference{}, err
	}
	if qs.Valid && qe.Valid {
		pref.Quiet = &domain.QuietHours{Start: int(qs.Int64), End: int(qe.Int64)}
	}
	return pref, nil
}

func (s *Store) UpsertPreference(ctx context.Context, pref domain.NotificationPreference) error {
	var qs, qe any
	if pref.Quiet != nil {
		qs, qe = pref.Quiet.Start, pref.Quiet.End
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO notification_preferences (user_id,in_app_enabled,email_enabled,email,lead_time_minutes,quiet_start,quiet_end,updated_at)
VALUES (?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
ON CONFLICT(user_id) DO UPDATE SET
  in_app_enabled=excluded.in_app_enabled,
  email_enabled=excluded.email_enabled,
  email=excluded.email,
  lead_time_minutes=excluded.lead_time_minutes,
  quiet_start=excluded.quiet_start,
  quiet_end=excluded.quiet_end,
  updated_at=CURRENT_TIMESTAMP
`, pref.UserID, pref.InAppEnabled, pref.EmailEnabled, pref.Email, pref.LeadTimeMinutes, qs, qe)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanTask(row rowScanner) (domain.Task, error) {
	var t domain.Task
	var remind sql.NullTime
	var recID, parentID sql.NullString
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Priority, &t.DueAt, &remind, &t.Completed, &recID, &parentID, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.Task{}, fmt.Errorf("task: %w", domain.ErrNotFound)
	}
	if err != nil {
		return domain.Task{}, err
	}
	if remind.Valid {
		t.RemindAt = &remind.Time
	}
	if recID.Valid {
		s := recID.String
		t.RecurrenceID = &s
	}
	if parentID.Valid {
		s := parentID.String
		t.ParentTaskID = &s
	}
	return t, nil
}

func nullStr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// Days-of-week sets ride in a comma-joined column, e.g. "0,2,4".
func encodeDays(days []int) any {
	if len(days) == 0 {
		return nil
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func decodeDays(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad days_of_week entry %q: %w", p, err)
		}
		days = append(days, d)
	}
	return days, nil
}
