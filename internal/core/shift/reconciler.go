// Package shift pairs raw check-in/check-out events into work intervals.
//
// The pairing is a pure function: it never fails, never mutates its input
// and holds no state, so it can be called concurrently on disjoint inputs.
// Anomalous rows are not errors. A check-in followed by another check-in is
// replaced by the later one, and a check-out with nothing open before it is
// discarded. Analyze reports both cases for callers that want to audit them.
package shift

import (
	"slices"

	"attendance.service/internal/core/model"
)

// AnomalyReason says why an event did not make it into an interval.
type AnomalyReason string

const (
	// ReplacedCheckIn marks a pending check-in overwritten by a later one.
	ReplacedCheckIn AnomalyReason = "replaced_check_in"
	// OrphanCheckOut marks a check-out with no earlier pending check-in.
	OrphanCheckOut AnomalyReason = "orphan_check_out"
)

// Anomaly is an input event that was dropped during reconciliation.
type Anomaly struct {
	Event  model.AttendanceEvent
	Reason AnomalyReason
}

// Result holds the reconciled intervals along with the dropped events.
type Result struct {
	Intervals []model.ShiftInterval
	Anomalies []Anomaly
}

// Reconcile returns the shift intervals for one subject's events, ordered by
// check-in time. At most one interval is open and, if present, it is last.
func Reconcile(events []model.AttendanceEvent) []model.ShiftInterval {
	return Analyze(events).Intervals
}

// Analyze runs the same scan as Reconcile and also lists the events it
// dropped, in scan order.
func Analyze(events []model.AttendanceEvent) Result {
	sorted := slices.Clone(events)
	// Stable so that equal timestamps keep their input order.
	slices.SortStableFunc(sorted, func(a, b model.AttendanceEvent) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	res := Result{Intervals: make([]model.ShiftInterval, 0, len(sorted)/2+1)}
	var pending *model.AttendanceEvent

	for i := range sorted {
		ev := &sorted[i]
		switch ev.Kind {
		case model.CheckIn:
			if pending != nil {
				res.Anomalies = append(res.Anomalies, Anomaly{Event: *pending, Reason: ReplacedCheckIn})
			}
			pending = ev
		case model.CheckOut:
			if pending == nil || !ev.Timestamp.After(pending.Timestamp) {
				res.Anomalies = append(res.Anomalies, Anomaly{Event: *ev, Reason: OrphanCheckOut})
				continue
			}
			out := ev.Timestamp
			res.Intervals = append(res.Intervals, model.ShiftInterval{
				CheckInID:       pending.ID,
				CheckOutID:      ev.ID,
				CheckIn:         pending.Timestamp,
				CheckOut:        &out,
				CheckInAddress:  pending.Address,
				CheckOutAddress: ev.Address,
			})
			pending = nil
		}
	}

	if pending != nil {
		res.Intervals = append(res.Intervals, model.ShiftInterval{
			CheckInID:      pending.ID,
			CheckIn:        pending.Timestamp,
			CheckInAddress: pending.Address,
		})
	}

	return res
}

// ClosedBy returns the interval whose check-out is the event with the given
// id, if any.
func ClosedBy(intervals []model.ShiftInterval, checkOutID int64) (model.ShiftInterval, bool) {
	for _, iv := range intervals {
		if !iv.Open() && iv.CheckOutID == checkOutID {
			return iv, true
		}
	}
	return model.ShiftInterval{}, false
}
