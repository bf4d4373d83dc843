package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/oshokin/calibration-helper/internal/domain/calibration"
)

const (
	// ExcelFilename is the download name of the workbook.
	ExcelFilename = "calibration_results.xlsx"
	// ContentTypeExcel is the media type of the workbook.
	ContentTypeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// SheetName is the only sheet of the workbook.
	SheetName = "Results"
)

//nolint:gochecknoglobals // Read-only header row.
var excelHeader = []any{
	"id",
	"distance_ts",
	"ts_source",
	"distance_ifm",
	"ifm_source",
	"difference",
	"status",
	"note",
	"created_at",
}

// WriteExcel writes a workbook with a header row and one row per record.
func WriteExcel(w io.Writer, records []*calibration.Record) error {
	f := excelize.NewFile()

	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &excelHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("locate row %d: %w", i+2, err)
		}

		row := []any{
			record.ID,
			record.TotalStation.Distance,
			record.TotalStation.Source,
			record.Interferometer.Distance,
			record.Interferometer.Source,
			record.Difference,
			string(record.Verdict),
			record.NoteText(),
			record.CreatedAt.UTC().Format(timeLayout),
		}

		if err = f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 38); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	return nil
}
