package shift

import (
	"fmt"
	"time"

	"attendance.service/internal/core/model"
)

// Unknown is how a duration that cannot be computed is rendered.
const Unknown = "unknown"

// Duration is the elapsed time of a shift floored to the minute.
type Duration struct {
	Known   bool
	Hours   int
	Minutes int
	Total   time.Duration
}

// String renders the duration as "8h 0m", or Unknown.
func (d Duration) String() string {
	if !d.Known {
		return Unknown
	}
	return fmt.Sprintf("%dh %dm", d.Hours, d.Minutes)
}

// Between computes the duration from in to out. A missing check-out or a
// non-positive difference yields an unknown duration.
func Between(in time.Time, out *time.Time) Duration {
	if out == nil {
		return Duration{}
	}
	diff := out.Sub(in)
	if diff <= 0 {
		return Duration{}
	}
	minutes := int(diff / time.Minute)
	return Duration{
		Known:   true,
		Hours:   minutes / 60,
		Minutes: minutes % 60,
		Total:   time.Duration(minutes) * time.Minute,
	}
}

// DurationOf is Between applied to an interval.
func DurationOf(iv model.ShiftInterval) Duration {
	return Between(iv.CheckIn, iv.CheckOut)
}
