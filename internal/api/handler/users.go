package handler

import (
	"context"
	"net/http"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
)

type UserService interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id int64) (model.User, error)
	Create(ctx context.Context, in core.CreateUserInput) (model.User, error)
	Update(ctx context.Context, id int64, in core.UpdateUserInput) (model.User, error)
	Delete(ctx context.Context, id int64) error
}

// UsersHandler serves the admin panel. Its responses use the {"message"}
// envelope the panel reads.
type UsersHandler struct {
	Service    UserService
	Attendance AttendanceService
}

type userRequest struct {
	Name     string     `json:"nombre"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"rol"`
}

func writeMessage(w http.ResponseWriter, status int, text string) {
	writeJSON(w, status, map[string]string{"message": text})
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.List(r.Context())
	if err != nil {
		fail(w, r, "message", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, "message", err)
		return
	}

	u, err := h.Service.Create(r.Context(), core.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		fail(w, r, "message", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Usuario creado correctamente", "usuario": u})
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "ID de usuario requerido")
		return
	}
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, "message", err)
		return
	}

	u, err := h.Service.Update(r.Context(), id, core.UpdateUserInput{Name: req.Name, Email: req.Email, Role: req.Role})
	if err != nil {
		fail(w, r, "message", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Usuario actualizado correctamente", "usuario": u})
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "ID requerido")
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		fail(w, r, "message", err)
		return
	}
	writeMessage(w, http.StatusOK, "Usuario y asistencias eliminados correctamente")
}

// Shifts returns the reconciled shifts of the user in the path.
func (h *UsersHandler) Shifts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "ID de usuario requerido")
		return
	}
	if _, err := h.Service.Get(r.Context(), id); err != nil {
		fail(w, r, "message", err)
		return
	}
	shifts, err := h.Attendance.Shifts(r.Context(), id)
	if err != nil {
		fail(w, r, "message", err)
		return
	}
	writeJSON(w, http.StatusOK, shiftResponses(shifts))
}
