package handler

import (
	"context"
	"net/http"

	"attendance.service/internal/api/middleware"
	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"attendance.service/internal/core/shift"
)

type AttendanceService interface {
	Record(ctx context.Context, in core.RecordInput) (model.AttendanceEvent, error)
	List(ctx context.Context, userID int64) ([]model.AttendanceEvent, error)
	Shifts(ctx context.Context, userID int64) ([]model.ShiftInterval, error)
	Delete(ctx context.Context, id int64) error
}

type AttendanceHandler struct {
	Service AttendanceService
}

type recordRequest struct {
	Kind     model.EventKind `json:"tipo"`
	Location *struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"ubicacion"`
	Address string `json:"direccion"`
}

type shiftResponse struct {
	model.ShiftInterval
	Duration string `json:"duracion"`
}

func shiftResponses(shifts []model.ShiftInterval) []shiftResponse {
	out := make([]shiftResponse, len(shifts))
	for i, iv := range shifts {
		out[i] = shiftResponse{ShiftInterval: iv, Duration: shift.DurationOf(iv).String()}
	}
	return out
}

// Record handles POST /api/asistencias for the authenticated user.
func (h *AttendanceHandler) Record(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	var req recordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, "msg", err)
		return
	}
	if req.Kind == "" || req.Location == nil || req.Location.Latitude == nil || req.Location.Longitude == nil {
		fail(w, r, "msg", &core.ValidationError{Field: "tipo", Message: "kind and coordinates are required"})
		return
	}

	event, err := h.Service.Record(r.Context(), core.RecordInput{
		UserID:    claims.UserID,
		Kind:      req.Kind,
		Latitude:  *req.Location.Latitude,
		Longitude: *req.Location.Longitude,
		Address:   req.Address,
	})
	if err != nil {
		fail(w, r, "msg", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"msg":        "Asistencia registrada correctamente",
		"asistencia": event,
	})
}

// List returns the caller's own events, newest first.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	events, err := h.Service.List(r.Context(), claims.UserID)
	if err != nil {
		fail(w, r, "msg", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *AttendanceHandler) Shifts(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	shifts, err := h.Service.Shifts(r.Context(), claims.UserID)
	if err != nil {
		fail(w, r, "msg", err)
		return
	}
	writeJSON(w, http.StatusOK, shiftResponses(shifts))
}

func (h *AttendanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMsg(w, http.StatusBadRequest, "ID inválido")
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		fail(w, r, "msg", err)
		return
	}
	writeMsg(w, http.StatusOK, "Asistencia eliminada correctamente")
}
