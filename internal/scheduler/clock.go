package scheduler

import (
	"fmt"
	"time"
)

// DefaultRemindAt derives an implicit reminder time when none was set on the
// task: lead minutes before the due date.
func DefaultRemindAt(due time.Time, leadMinutes int) time.Time {
	return due.Add(-time.Duration(leadMinutes) * time.Minute)
}

// Offset names how far before the due instant a reminder should trigger.
type Offset string

const (
	OffsetAtDue  Offset = "at_time"
	Offset15Min  Offset = "15_minutes"
	Offset30Min  Offset = "30_minutes"
	Offset1Hour  Offset = "1_hour"
	Offset2Hours Offset = "2_hours"
	Offset1Day   Offset = "1_day"
	OffsetCustom Offset = "custom"
)

var offsetMinutes = map[Offset]int{
	OffsetAtDue:  0,
	Offset15Min:  15,
	Offset30Min:  30,
	Offset1Hour:  60,
	Offset2Hours: 120,
	Offset1Day:   1440,
}

// TriggerAt computes the absolute UTC instant a reminder fires, from a local
// wall-clock due date ("2006-01-02") and time ("15:04") pair plus a named
// offset. OffsetCustom uses customMinutes; negative custom values are
// rejected.
func TriggerAt(dueDate, dueTime string, off Offset, customMinutes int, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	due, err := time.ParseInLocation("2006-01-02 15:04", dueDate+" "+dueTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse due date/time: %w", err)
	}

	minutes, ok := offsetMinutes[off]
	if !ok {
		if off != OffsetCustom {
			return time.Time{}, fmt.Errorf("unknown reminder offset %q", off)
		}
		if customMinutes < 0 {
			return time.Time{}, fmt.Errorf("custom offset must be >= 0, got %d", customMinutes)
		}
		minutes = customMinutes
	}

	return due.Add(-time.Duration(minutes) * time.Minute).UTC(), nil
}
