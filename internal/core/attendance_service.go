package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/core/shift"
	"attendance.service/internal/ports/repository"
	"github.com/rs/zerolog/log"
)

// Transactor runs fn inside a single database transaction.
type Transactor interface {
	WithinReadWrite(ctx context.Context, fn func(ctx context.Context) error) error
}

// Geocoder resolves coordinates to a display address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// Publisher hands recorded events to the asynchronous pipeline.
type Publisher interface {
	PublishAttendance(ctx context.Context, e model.AttendanceEvent) error
}

// Broadcaster pushes recorded events to live subscribers.
type Broadcaster interface {
	Broadcast(e model.AttendanceEvent)
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type RecordInput struct {
	UserID    int64
	Kind      model.EventKind
	Latitude  float64
	Longitude float64
	Address   string
}

// AttendanceService records check-ins and check-outs and derives shifts from them.
type AttendanceService struct {
	events      repository.AttendanceRepository
	users       repository.UserRepository
	tx          Transactor
	geocoder    Geocoder
	publisher   Publisher
	broadcaster Broadcaster
	clock       Clock
}

type AttendanceOption func(*AttendanceService)

func WithGeocoder(g Geocoder) AttendanceOption {
	return func(s *AttendanceService) { s.geocoder = g }
}

func WithPublisher(p Publisher) AttendanceOption {
	return func(s *AttendanceService) { s.publisher = p }
}

func WithBroadcaster(b Broadcaster) AttendanceOption {
	return func(s *AttendanceService) { s.broadcaster = b }
}

func WithClock(c Clock) AttendanceOption {
	return func(s *AttendanceService) { s.clock = c }
}

func NewAttendanceService(events repository.AttendanceRepository, users repository.UserRepository, tx Transactor, opts ...AttendanceOption) *AttendanceService {
	s := &AttendanceService{
		events: events,
		users:  users,
		tx:     tx,
		clock:  systemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record stores a new event for the user. Repeating the kind of the user's
// latest event is rejected; the check and the insert run under a row lock on
// the user so concurrent requests cannot both pass it.
func (s *AttendanceService) Record(ctx context.Context, in RecordInput) (model.AttendanceEvent, error) {
	if !in.Kind.Valid() {
		return model.AttendanceEvent{}, &ValidationError{Field: "tipo", Message: "must be entrada or salida"}
	}
	if in.Latitude < -90 || in.Latitude > 90 || in.Longitude < -180 || in.Longitude > 180 {
		return model.AttendanceEvent{}, &ValidationError{Field: "ubicacion", Message: "coordinates out of range"}
	}

	address := strings.TrimSpace(in.Address)
	if address == "" && s.geocoder != nil {
		// Unlocked pre-check so repeats do not spend a geocoder call. The
		// check under the row lock below is the one that counts.
		last, err := s.events.FindLast(ctx, in.UserID)
		if err != nil {
			return model.AttendanceEvent{}, fmt.Errorf("finding last event: %w", err)
		}
		if last != nil && last.Kind == in.Kind {
			return model.AttendanceEvent{}, &DuplicateKindError{Kind: in.Kind}
		}

		resolved, err := s.geocoder.ReverseGeocode(ctx, in.Latitude, in.Longitude)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("Reverse geocoding failed, storing event without address")
		}
		address = resolved
	}

	var created model.AttendanceEvent
	err := s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		if err := s.users.LockSubject(ctx, in.UserID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("locking user: %w", err)
		}

		last, err := s.events.FindLast(ctx, in.UserID)
		if err != nil {
			return fmt.Errorf("finding last event: %w", err)
		}
		if last != nil && last.Kind == in.Kind {
			return &DuplicateKindError{Kind: in.Kind}
		}

		created, err = s.events.Create(ctx, model.AttendanceEvent{
			UserID:    in.UserID,
			Kind:      in.Kind,
			Latitude:  in.Latitude,
			Longitude: in.Longitude,
			Address:   address,
			Status:    model.StatusRecorded,
			Timestamp: s.clock.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("creating event: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.AttendanceEvent{}, err
	}

	log.Ctx(ctx).Info().Int64("event_id", created.ID).Str("tipo", string(created.Kind)).Msg("Attendance recorded")

	if s.publisher != nil {
		if err := s.publisher.PublishAttendance(ctx, created); err != nil {
			log.Ctx(ctx).Warn().Err(err).Int64("event_id", created.ID).Msg("Failed to publish attendance event")
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(created)
	}
	return created, nil
}

// List returns the user's raw events, newest first.
func (s *AttendanceService) List(ctx context.Context, userID int64) ([]model.AttendanceEvent, error) {
	events, err := s.events.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// Shifts reconciles the user's events into work intervals.
func (s *AttendanceService) Shifts(ctx context.Context, userID int64) ([]model.ShiftInterval, error) {
	events, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := shift.Analyze(events)
	if len(res.Anomalies) > 0 {
		log.Ctx(ctx).Debug().Int64("user_id", userID).Int("anomalies", len(res.Anomalies)).Msg("Dropped events during reconciliation")
	}
	return res.Intervals, nil
}

func (s *AttendanceService) Delete(ctx context.Context, id int64) error {
	err := s.events.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEventNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	log.Ctx(ctx).Info().Int64("event_id", id).Msg("Attendance deleted")
	return nil
}
