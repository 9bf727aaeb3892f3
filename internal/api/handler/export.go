package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"attendance.service/internal/api/middleware"
	"attendance.service/internal/export"
	"github.com/gorilla/mux"
)

type ExportHandler struct {
	Attendance AttendanceService
	Users      UserService
	Location   *time.Location
	Now        func() time.Time
}

type exportFormat struct {
	contentType string
	ext         string
	write       func(io.Writer, export.Report) error
}

var exportFormats = map[string]exportFormat{
	"xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", export.WriteXLSX},
	"pdf":  {"application/pdf", "pdf", export.WritePDF},
}

// Own serves /api/asistencias/export/{format} for the caller.
func (h *ExportHandler) Own(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	h.serve(w, r, claims.UserID, claims.Name)
}

// ForUser serves /api/usuarios/{id}/export/{format} for admins.
func (h *ExportHandler) ForUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMsg(w, http.StatusBadRequest, "ID inválido")
		return
	}
	u, err := h.Users.Get(r.Context(), id)
	if err != nil {
		fail(w, r, "msg", err)
		return
	}
	h.serve(w, r, u.ID, u.Name)
}

func (h *ExportHandler) serve(w http.ResponseWriter, r *http.Request, userID int64, name string) {
	format, ok := exportFormats[mux.Vars(r)["format"]]
	if !ok {
		writeMsg(w, http.StatusNotFound, "Formato no soportado")
		return
	}

	shifts, err := h.Attendance.Shifts(r.Context(), userID)
	if err != nil {
		fail(w, r, "msg", err)
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	// Render fully before writing headers so a failure can still become a 500.
	var buf bytes.Buffer
	if err := format.write(&buf, export.Report{
		Employee:    name,
		Shifts:      shifts,
		Location:    h.Location,
		GeneratedAt: now(),
	}); err != nil {
		fail(w, r, "msg", err)
		return
	}

	filename := fmt.Sprintf("asistencias-%d.%s", userID, format.ext)
	w.Header().Set("Content-Type", format.contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
