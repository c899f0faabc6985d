package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/ualog/activity-tracker/internal/presentation"
	"github.com/ualog/activity-tracker/internal/services"
)

// PDFExporter renders a user report as a PDF document: total connection
// time followed by a chronological session/activity breakdown.
type PDFExporter struct {
	formatter *presentation.Formatter
}

// NewPDFExporter creates a new PDF exporter
func NewPDFExporter(formatter *presentation.Formatter) *PDFExporter {
	return &PDFExporter{formatter: formatter}
}

// Export renders the report and returns the document bytes.
func (e *PDFExporter) Export(report *services.UserReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, fmt.Sprintf("Activity report for %s", report.Username), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(60, 6, "Total connection time", "", 0, "", false, 0, "")
	pdf.CellFormat(0, 6, formatDuration(int64(report.TotalDuration.Seconds())), "", 1, "", false, 0, "")
	pdf.CellFormat(60, 6, "Generated", "", 0, "", false, 0, "")
	pdf.CellFormat(0, 6, report.GeneratedAt.Format("2006-01-02 15:04"), "", 1, "", false, 0, "")
	pdf.Ln(5)

	for _, sr := range report.Sessions {
		sess := sr.Session

		logout := "Active"
		duration := "Active"
		if sess.LogoutTime != nil {
			logout = sess.LogoutTime.Format("2006-01-02 15:04")
		}
		if sess.Duration != nil {
			duration = formatDuration(*sess.Duration)
		}

		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 6, fmt.Sprintf("Session starting %s", sess.LoginTime.Format("2006-01-02 15:04")), "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 6, fmt.Sprintf("IP: %s", sess.IPAddress), "", 1, "", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("Duration: %s", duration), "", 1, "", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("Logout: %s", logout), "", 1, "", false, 0, "")
		pdf.Ln(3)

		for _, act := range sr.Activities {
			display := e.formatter.Format(act)
			pdf.CellFormat(5, 5, "", "", 0, "", false, 0, "")
			pdf.MultiCell(0, 5, fmt.Sprintf("%s - %s", display.FormattedTime, display.Summary), "", "", false)
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func formatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%02dh %02dm %02ds", hours, minutes, seconds%60)
}
