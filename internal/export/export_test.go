package export

import (
	"bytes"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"github.com/xuri/excelize/v2"
)

func sampleReport(t *testing.T) Report {
	t.Helper()

	lima, err := time.LoadLocation("America/Lima")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	in := time.Date(2025, 3, 3, 13, 0, 0, 0, time.UTC)
	out := in.Add(8*time.Hour + 15*time.Minute)
	open := in.Add(24 * time.Hour)
	return Report{
		Employee: "Rosa Quispe",
		Location: lima,
		Shifts: []model.ShiftInterval{
			{CheckIn: in, CheckOut: &out, CheckInAddress: "Av. Arequipa 100"},
			{CheckIn: open},
		},
		GeneratedAt: open,
	}
}

func TestRows(t *testing.T) {
	t.Parallel()

	rows := sampleReport(t).Rows()
	want := [][]string{
		{"03/03/2025 08:00:00", "03/03/2025 16:15:00", "8h 15m", "Av. Arequipa 100"},
		{"04/03/2025 08:00:00", Placeholder, Placeholder, Placeholder},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("row %d col %d: want %q got %q", i, j, want[i][j], rows[i][j])
			}
		}
	}
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleReport(t)); err != nil {
		t.Fatalf("WriteXLSX returned error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("output is not a workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][2] != "Duración" || rows[1][2] != "8h 15m" || rows[2][1] != Placeholder {
		t.Fatalf("unexpected sheet contents %v", rows)
	}
}

func TestWritePDF(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WritePDF(&buf, sampleReport(t)); err != nil {
		t.Fatalf("WritePDF returned error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output does not look like a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}
