package report

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/oshokin/calibration-helper/internal/domain/calibration"
)

// ContentTypePDF is the media type of a record report.
const ContentTypePDF = "application/pdf"

const (
	fontFamily   = "Helvetica"
	titleSize    = 16
	bodySize     = 12
	lineHeight   = 8
	labelWidth   = 60
	timeLayout   = "2006-01-02 15:04:05 MST"
	titleSpacing = 12
)

// PDFFilename returns the download name of the report for id.
func PDFFilename(id string) string {
	return "report_" + id + ".pdf"
}

// WritePDF renders a single A4 page describing the record.
func WritePDF(w io.Writer, record *calibration.Record) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Calibration report "+record.ID, true)
	pdf.SetCreationDate(record.CreatedAt)
	pdf.AddPage()

	// Core fonts are cp1252; notes may contain any UTF-8.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(fontFamily, "B", titleSize)
	pdf.Cell(0, lineHeight, "Calibration report")
	pdf.Ln(titleSpacing)

	rows := [][2]string{
		{"Measurement ID", record.ID},
		{"Total station", formatReading(record.TotalStation)},
		{"Interferometer", formatReading(record.Interferometer)},
		{"Difference", fmt.Sprintf("%+.3f mm", record.Difference)},
		{"Status", string(record.Verdict)},
	}

	if record.Note != nil {
		rows = append(rows, [2]string{"Note", *record.Note})
	}

	rows = append(rows, [2]string{"Created at", record.CreatedAt.UTC().Format(timeLayout)})

	for _, row := range rows {
		pdf.SetFont(fontFamily, "B", bodySize)
		pdf.Cell(labelWidth, lineHeight, row[0]+":")
		pdf.SetFont(fontFamily, "", bodySize)
		pdf.MultiCell(0, lineHeight, tr(row[1]), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf report: %w", err)
	}

	return nil
}

// PDF renders the record report into memory.
func PDF(record *calibration.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, record); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func formatReading(r calibration.Reading) string {
	text := fmt.Sprintf("%.3f mm", r.Distance)
	if r.Source != "" {
		text += " (" + r.Source + ")"
	}

	if !r.ReadAt.IsZero() {
		text += ", read " + r.ReadAt.UTC().Format(time.TimeOnly)
	}

	return text
}
