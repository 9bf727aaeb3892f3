package repository

import (
	"context"
	"errors"

	"attendance.service/internal/core/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict is returned on unique constraint violations.
	ErrConflict = errors.New("repository: conflict")
)

// UserRepository persists usuarios.
type UserRepository interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	Update(ctx context.Context, u model.User) (model.User, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	// LockSubject takes a row lock on the user until the surrounding transaction ends.
	LockSubject(ctx context.Context, id int64) error
}

// AttendanceRepository persists asistencias.
type AttendanceRepository interface {
	Create(ctx context.Context, e model.AttendanceEvent) (model.AttendanceEvent, error)
	FindLast(ctx context.Context, userID int64) (*model.AttendanceEvent, error)
	FindByID(ctx context.Context, id int64) (model.AttendanceEvent, error)
	ListByUser(ctx context.Context, userID int64) ([]model.AttendanceEvent, error)
	MarkNotified(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}

func translatePgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrConflict
	}
	return err
}
