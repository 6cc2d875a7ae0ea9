// Package recurrence computes the next occurrence of a repeating task.
// Pure date arithmetic, no I/O.
package recurrence

import (
	"fmt"
	"sort"
	"time"

	"remindflow/internal/domain"
)

// NextOccurrence maps the current due date and a pattern to the next due
// date. It fails only on malformed input: a non-positive interval or a
// weekday index outside 0..6.
func NextOccurrence(current time.Time, p domain.RecurrencePattern) (time.Time, error) {
	if p.Interval < 1 {
		return time.Time{}, fmt.Errorf("interval must be >= 1, got %d", p.Interval)
	}

	switch p.Frequency {
	case domain.FreqDaily, domain.FreqCustom:
		// Custom treats the interval as a day count.
		return current.AddDate(0, 0, p.Interval), nil
	case domain.FreqWeekly:
		if len(p.DaysOfWeek) == 0 {
			return current.AddDate(0, 0, 7*p.Interval), nil
		}
		return nextWeekday(current, p.DaysOfWeek, p.Interval)
	case domain.FreqMonthly:
		return nextMonthly(current, p.Interval, p.DayOfMonth), nil
	case domain.FreqYearly:
		return nextYearly(current, p.Interval, p.MonthOfYear), nil
	}
	return time.Time{}, fmt.Errorf("unknown frequency %q", p.Frequency)
}

// weekdayMon maps time.Weekday (Sunday=0) onto the Monday=0 convention the
// patterns use.
func weekdayMon(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// nextWeekday finds the next date strictly after current drawn from the
// weekday set. When the current week is exhausted it jumps to the first
// weekday of the week interval weeks ahead.
func nextWeekday(current time.Time, days []int, interval int) (time.Time, error) {
	set := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return time.Time{}, fmt.Errorf("weekday index out of range: %d", d)
		}
		set = append(set, d)
	}
	sort.Ints(set)

	cur := weekdayMon(current)
	for _, d := range set {
		if d > cur {
			return current.AddDate(0, 0, d-cur), nil
		}
	}

	// Wrap to the first weekday of the week interval weeks out.
	daysToMonday := 7 - cur
	return current.AddDate(0, 0, daysToMonday+7*(interval-1)+set[0]), nil
}

// nextMonthly adds interval months, clamping a requested day-of-month to the
// last valid day of the target month (Jan 31 + 1 month is Feb 28, or Feb 29
// in a leap year).
func nextMonthly(current time.Time, interval int, dayOfMonth *int) time.Time {
	day := current.Day()
	if dayOfMonth != nil {
		day = *dayOfMonth
	}

	year, month, _ := current.Date()
	// Anchor at day 1 so AddDate never normalizes into the month after next.
	anchor := time.Date(year, month, 1, current.Hour(), current.Minute(), current.Second(), current.Nanosecond(), current.Location())
	target := anchor.AddDate(0, interval, 0)

	if last := daysIn(target.Month(), target.Year()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, current.Hour(), current.Minute(), current.Second(), current.Nanosecond(), current.Location())
}

func nextYearly(current time.Time, interval int, monthOfYear *int) time.Time {
	year := current.Year() + interval
	month := current.Month()
	if monthOfYear != nil {
		month = time.Month(*monthOfYear)
	}
	day := current.Day()
	if last := daysIn(month, year); day > last {
		day = last // Feb 29 lands on Feb 28 off leap years
	}
	return time.Date(year, month, day, current.Hour(), current.Minute(), current.Second(), current.Nanosecond(), current.Location())
}

func daysIn(month time.Month, year int) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Day()
}
