package domain

import (
	"fmt"
	"time"
)

type Frequency string

const (
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
	FreqYearly  Frequency = "yearly"
	FreqCustom  Frequency = "custom"
)

// ParseFrequency rejects anything outside the closed set; unknown values are
// an explicit error, never a fall-through to a default branch.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(s); f {
	case FreqDaily, FreqWeekly, FreqMonthly, FreqYearly, FreqCustom:
		return f, nil
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}

type PatternStatus string

const (
	PatternActive    PatternStatus = "active"
	PatternCompleted PatternStatus = "completed"
	PatternCancelled PatternStatus = "cancelled"
)

func ParsePatternStatus(s string) (PatternStatus, error) {
	switch st := PatternStatus(s); st {
	case PatternActive, PatternCompleted, PatternCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown pattern status %q", s)
}

type RecurrencePattern struct {
	ID          string
	Frequency   Frequency
	Interval    int   // repeat every N units, >= 1
	DaysOfWeek  []int // weekly only; 0=Monday .. 6=Sunday
	DayOfMonth  *int  // monthly only; clamped to month end
	MonthOfYear *int  // yearly only; 1..12
	StartDate   time.Time
	EndDate     *time.Time // nil = unbounded
	Count       *int       // nil = unlimited occurrences
	Status      PatternStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Expired reports whether the pattern's end date lies strictly before now.
func (p RecurrencePattern) Expired(now time.Time) bool {
	return p.EndDate != nil && p.EndDate.Before(now)
}

// Outlives reports whether a computed occurrence falls past the end date.
func (p RecurrencePattern) Outlives(next time.Time) bool {
	return p.EndDate != nil && next.After(*p.EndDate)
}
