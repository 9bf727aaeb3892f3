package messaging

import (
	"time"

	"attendance.service/internal/core/model"
)

// EventTypeAttendanceRecorded is set in the EventType message attribute.
const EventTypeAttendanceRecorded = "ATTENDANCE_RECORDED"

// AttendanceRecordedEvent is the JSON payload sent via SQS for every stored
// check-in or check-out.
type AttendanceRecordedEvent struct {
	MessageID  string          `json:"messageId"`
	EventID    int64           `json:"eventId"`
	EmployeeID int64           `json:"employeeId"`
	Kind       model.EventKind `json:"tipo"`
	OccurredAt time.Time       `json:"occurredAt"`
}
