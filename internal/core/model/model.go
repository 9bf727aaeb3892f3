package model

import (
	"time"
)

// Role defines what a user is allowed to do in the panel.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "empleado"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// EventKind tags an attendance event as the start or the end of a work period.
type EventKind string

const (
	CheckIn  EventKind = "entrada"
	CheckOut EventKind = "salida"
)

// Valid reports whether k is a check-in or a check-out.
func (k EventKind) Valid() bool {
	return k == CheckIn || k == CheckOut
}

// StatusRecorded is the only status the API writes on new events.
const StatusRecorded = "registrado"

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"nombre"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"rol"`
	CreatedAt    time.Time `json:"creado_en"`
}

// AttendanceEvent is one raw check-in or check-out row. Events are never
// updated once recorded, apart from the notification flag.
type AttendanceEvent struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"usuario_id"`
	Kind      EventKind `json:"tipo"`
	Latitude  float64   `json:"latitud"`
	Longitude float64   `json:"longitud"`
	Address   string    `json:"direccion,omitempty"`
	Status    string    `json:"estado"`
	Timestamp time.Time `json:"fecha_hora"`
	Notified  bool      `json:"-"`
}

// ShiftInterval is a reconciled work period. CheckOut is nil while the
// shift is still open.
type ShiftInterval struct {
	CheckInID       int64      `json:"entrada_id"`
	CheckOutID      int64      `json:"salida_id,omitempty"`
	CheckIn         time.Time  `json:"entrada"`
	CheckOut        *time.Time `json:"salida"`
	CheckInAddress  string     `json:"direccion_entrada,omitempty"`
	CheckOutAddress string     `json:"direccion_salida,omitempty"`
}

// Open reports whether the shift has no check-out yet.
func (s ShiftInterval) Open() bool {
	return s.CheckOut == nil
}
