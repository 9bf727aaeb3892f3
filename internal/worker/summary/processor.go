package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"attendance.service/internal/core/shift"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/worker"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

type eventStore interface {
	ListByUser(ctx context.Context, userID int64) ([]model.AttendanceEvent, error)
	MarkNotified(ctx context.Context, id int64) error
}

type userStore interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
}

// Processor mails a shift summary when a check-out closes a shift.
type Processor struct {
	events eventStore
	users  userStore
	email  core.EmailService
}

// NewProcessor wires the processor to its stores and the e-mail service.
func NewProcessor(events eventStore, users userStore, email core.EmailService) *Processor {
	return &Processor{events: events, users: users, email: email}
}

// Process handles one AttendanceRecordedEvent. Check-ins are acknowledged
// without work; a check-out whose summary was already sent is skipped.
func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	if msg.Body == nil {
		return false, 0, errors.New("empty message body")
	}
	var event messaging.AttendanceRecordedEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		return false, 0, fmt.Errorf("unmarshal attendance event: %w", err) // Do not retry on malformed message
	}

	l := log.Ctx(ctx).With().Int64("event_id", event.EventID).Int64("employee_id", event.EmployeeID).Logger()

	if event.Kind != model.CheckOut {
		l.Debug().Str("tipo", string(event.Kind)).Msg("Not a check-out. Skipping.")
		return false, 0, nil
	}

	retryDelay := worker.Backoff(worker.ReceiveCount(msg))

	user, err := p.users.FindByID(ctx, event.EmployeeID)
	if errors.Is(err, repository.ErrNotFound) {
		l.Info().Msg("User no longer exists. Skipping.")
		return false, 0, nil
	}
	if err != nil {
		return true, retryDelay, fmt.Errorf("failed to get user: %w", err)
	}

	events, err := p.events.ListByUser(ctx, event.EmployeeID)
	if err != nil {
		return true, retryDelay, fmt.Errorf("failed to list events: %w", err)
	}

	checkOut, found := findEvent(events, event.EventID)
	if !found {
		l.Info().Msg("Check-out was deleted. Skipping.")
		return false, 0, nil
	}
	if checkOut.Notified {
		l.Info().Msg("Summary already sent. Skipping.")
		return false, 0, nil
	}

	iv, closed := shift.ClosedBy(shift.Reconcile(events), event.EventID)
	if !closed {
		l.Info().Msg("Check-out does not close a shift. Skipping.")
		return false, 0, nil
	}

	if err := p.email.SendShiftSummary(ctx, user, iv); err != nil {
		return true, retryDelay, err
	}

	if err := p.events.MarkNotified(ctx, event.EventID); err != nil {
		return true, retryDelay, fmt.Errorf("failed to mark event notified: %w", err)
	}

	l.Info().Str("duracion", shift.DurationOf(iv).String()).Msg("Shift summary sent")
	return false, 0, nil
}

func findEvent(events []model.AttendanceEvent, id int64) (model.AttendanceEvent, bool) {
	for _, e := range events {
		if e.ID == id {
			return e, true
		}
	}
	return model.AttendanceEvent{}, false
}
