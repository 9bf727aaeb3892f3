package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"attendance.service/internal/core"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeMsg writes {"msg": text}, the envelope the auth and attendance screens read.
func writeMsg(w http.ResponseWriter, status int, text string) {
	writeJSON(w, status, map[string]string{"msg": text})
}

var errBadBody = errors.New("invalid request body")

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadBody)
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	var locked *core.LockedError
	switch {
	case errors.As(err, &locked):
		if locked.JustLocked {
			return http.StatusBadRequest
		}
		return http.StatusForbidden
	case errors.Is(err, errBadBody),
		errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrInvalidCaptcha),
		errors.Is(err, core.ErrInvalidCredentials),
		errors.Is(err, core.ErrEmailTaken),
		errors.Is(err, core.ErrDuplicateKind):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUserNotFound),
		errors.Is(err, core.ErrEventNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

var validationMessages = map[string]string{
	"login":     "Faltan datos requeridos",
	"register":  "Todos los campos son obligatorios",
	"usuario":   "Todos los campos son obligatorios",
	"email":     "Email inválido",
	"password":  "Password inválido",
	"rol":       "Rol inválido",
	"tipo":      "Faltan datos de ubicación o tipo",
	"ubicacion": "Ubicación fuera de rango",
}

// messageFor returns the user-facing text for err.
func messageFor(err error) string {
	var (
		validation *core.ValidationError
		creds      *core.CredentialsError
		locked     *core.LockedError
		dup        *core.DuplicateKindError
	)
	switch {
	case errors.As(err, &validation):
		if msg, ok := validationMessages[validation.Field]; ok {
			return msg
		}
		return "Datos inválidos"
	case errors.As(err, &creds):
		return fmt.Sprintf("Credenciales incorrectas. Te quedan %d intento(s).", creds.Remaining)
	case errors.As(err, &locked):
		if locked.JustLocked {
			return fmt.Sprintf("Cuenta bloqueada por %d minutos.", ceilMinutes(locked.RetryAfter))
		}
		return fmt.Sprintf("Cuenta bloqueada temporalmente. Intenta nuevamente en %d minuto(s).", ceilMinutes(locked.RetryAfter))
	case errors.As(err, &dup):
		return fmt.Sprintf("Ya registraste una %s recientemente.", dup.Kind)
	case errors.Is(err, errBadBody):
		return "Cuerpo de la solicitud inválido"
	case errors.Is(err, core.ErrInvalidCaptcha):
		return "Captcha inválido"
	case errors.Is(err, core.ErrEmailTaken):
		return "El correo ya está registrado"
	case errors.Is(err, core.ErrUserNotFound):
		return "Usuario no encontrado"
	case errors.Is(err, core.ErrEventNotFound):
		return "Asistencia no encontrada"
	default:
		return "Error interno del servidor"
	}
}

func ceilMinutes(d time.Duration) int {
	return int(math.Ceil(d.Minutes()))
}

// fail logs unexpected errors and writes the mapped status with {key: message}.
func fail(w http.ResponseWriter, r *http.Request, key string, err error) {
	failWith(w, r, err, map[string]string{key: messageFor(err)})
}

func failWith(w http.ResponseWriter, r *http.Request, err error, body any) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	var locked *core.LockedError
	if errors.As(err, &locked) {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(locked.RetryAfter.Seconds()))))
	}
	writeJSON(w, status, body)
}
