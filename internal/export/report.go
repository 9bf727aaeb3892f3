// Package export renders reconciled shifts as downloadable spreadsheets and PDFs.
package export

import (
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/core/shift"
)

const (
	TimeLayout  = "02/01/2006 15:04:05"
	Placeholder = "—"
	ReportTitle = "Reporte de Asistencias - YURAQ WASI"
)

var columns = []string{"Entrada", "Salida", "Duración", "Dirección"}

// Report is one employee's shift list ready to render.
type Report struct {
	Employee    string
	Shifts      []model.ShiftInterval
	Location    *time.Location
	GeneratedAt time.Time
}

// Rows formats the shifts as table rows in the report's time zone.
func (r Report) Rows() [][]string {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}

	rows := make([][]string, 0, len(r.Shifts))
	for _, iv := range r.Shifts {
		out := Placeholder
		if iv.CheckOut != nil {
			out = iv.CheckOut.In(loc).Format(TimeLayout)
		}
		dur := shift.DurationOf(iv)
		durText := Placeholder
		if dur.Known {
			durText = dur.String()
		}
		address := iv.CheckInAddress
		if address == "" {
			address = Placeholder
		}
		rows = append(rows, []string{iv.CheckIn.In(loc).Format(TimeLayout), out, durText, address})
	}
	return rows
}
