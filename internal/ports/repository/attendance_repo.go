package repository

import (
	"context"
	"errors"

	"attendance.service/internal/core/model"
	"attendance.service/pkg/database"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const attendanceColumns = `id, usuario_id, tipo, latitud, longitud, COALESCE(direccion, ''), estado, notificado, fecha_hora`

// PostgresAttendanceRepository stores attendance events in the asistencias table.
type PostgresAttendanceRepository struct {
	db database.Queryer
}

func NewAttendanceRepository(db database.Queryer) *PostgresAttendanceRepository {
	return &PostgresAttendanceRepository{db: db}
}

func (r *PostgresAttendanceRepository) q(ctx context.Context) database.Queryer {
	return database.QueryerFromContext(ctx, r.db)
}

// Create inserts an event. An empty address is stored as NULL.
func (r *PostgresAttendanceRepository) Create(ctx context.Context, e model.AttendanceEvent) (model.AttendanceEvent, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("app.employeeId", e.UserID))

	var address *string
	if e.Address != "" {
		address = &e.Address
	}

	row := r.q(ctx).QueryRow(ctx, `
        INSERT INTO asistencias (usuario_id, tipo, latitud, longitud, direccion, estado, fecha_hora)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+attendanceColumns,
		e.UserID, string(e.Kind), e.Latitude, e.Longitude, address, e.Status, e.Timestamp)

	created, err := scanEvent(row)
	if err != nil {
		return model.AttendanceEvent{}, translatePgError(err)
	}
	return created, nil
}

// FindLast returns the user's most recent event, or nil when there is none.
func (r *PostgresAttendanceRepository) FindLast(ctx context.Context, userID int64) (*model.AttendanceEvent, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("app.employeeId", userID))

	row := r.q(ctx).QueryRow(ctx, `
        SELECT `+attendanceColumns+`
          FROM asistencias
         WHERE usuario_id = $1
         ORDER BY fecha_hora DESC, id DESC
         LIMIT 1
    `, userID)

	e, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PostgresAttendanceRepository) FindByID(ctx context.Context, id int64) (model.AttendanceEvent, error) {
	row := r.q(ctx).QueryRow(ctx, `
        SELECT `+attendanceColumns+`
          FROM asistencias
         WHERE id = $1
    `, id)

	e, err := scanEvent(row)
	if err != nil {
		return model.AttendanceEvent{}, translatePgError(err)
	}
	return e, nil
}

// ListByUser returns the user's events, newest first.
func (r *PostgresAttendanceRepository) ListByUser(ctx context.Context, userID int64) ([]model.AttendanceEvent, error) {
	rows, err := r.q(ctx).Query(ctx, `
        SELECT `+attendanceColumns+`
          FROM asistencias
         WHERE usuario_id = $1
         ORDER BY fecha_hora DESC, id DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]model.AttendanceEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// MarkNotified flags the checkout event whose shift summary has been sent.
func (r *PostgresAttendanceRepository) MarkNotified(ctx context.Context, id int64) error {
	tag, err := r.q(ctx).Exec(ctx, `UPDATE asistencias SET notificado = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresAttendanceRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.q(ctx).Exec(ctx, `DELETE FROM asistencias WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByUser removes every event of a user and reports how many went.
func (r *PostgresAttendanceRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.q(ctx).Exec(ctx, `DELETE FROM asistencias WHERE usuario_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanEvent(row pgx.Row) (model.AttendanceEvent, error) {
	var (
		e    model.AttendanceEvent
		kind string
	)
	err := row.Scan(&e.ID, &e.UserID, &kind, &e.Latitude, &e.Longitude, &e.Address, &e.Status, &e.Notified, &e.Timestamp)
	if err != nil {
		return model.AttendanceEvent{}, err
	}
	e.Kind = model.EventKind(kind)
	return e, nil
}
