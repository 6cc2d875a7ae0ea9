package domain

import "time"

// QuietHours is a daily suppression window in minutes since midnight.
// A window whose start exceeds its end wraps past midnight.
type QuietHours struct {
	Start int
	End   int
}

// Contains checks whether the wall-clock part of t falls inside the window,
// boundaries included.
func (q QuietHours) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	if q.Start <= q.End {
		return m >= q.Start && m <= q.End
	}
	return m >= q.Start || m <= q.End
}

type NotificationPreference struct {
	UserID          string
	InAppEnabled    bool
	EmailEnabled    bool
	Email           string
	LeadTimeMinutes int
	Quiet           *QuietHours
	UpdatedAt       time.Time
}

const DefaultLeadTimeMinutes = 60

// DefaultPreference is what a user gets when nothing is stored: every channel
// on, the standard lead time, no quiet hours.
func DefaultPreference(userID string) NotificationPreference {
	return NotificationPreference{
		UserID:          userID,
		InAppEnabled:    true,
		EmailEnabled:    true,
		LeadTimeMinutes: DefaultLeadTimeMinutes,
	}
}
