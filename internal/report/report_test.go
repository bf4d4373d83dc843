package report

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/oshokin/calibration-helper/internal/domain/calibration"
)

func testRecords() []*calibration.Record {
	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	note := "Měření po zahřátí"

	return []*calibration.Record{
		{
			ID:             "11111111-1111-4111-8111-111111111111",
			TotalStation:   calibration.NewReading(calibration.TotalStation, "leica-tc307", 100.3, at),
			Interferometer: calibration.NewReading(calibration.Interferometer, "renishaw-xl80", 100, at),
			Difference:     0.3,
			Verdict:        calibration.VerdictOK,
			CreatedAt:      at,
		},
		{
			ID:             "22222222-2222-4222-8222-222222222222",
			TotalStation:   calibration.NewReading(calibration.TotalStation, calibration.ManualSource, 99, at),
			Interferometer: calibration.NewReading(calibration.Interferometer, calibration.ManualSource, 100, at),
			Difference:     -1,
			Verdict:        calibration.VerdictOutOfTolerance,
			Note:           &note,
			CreatedAt:      at,
		},
	}
}

// TestPDF renders a document for records with and without a note.
func TestPDF(t *testing.T) {
	t.Parallel()

	for _, record := range testRecords() {
		data, err := PDF(record)
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	}

	require.Equal(t, "report_abc.pdf", PDFFilename("abc"))
}

// TestWriteExcel checks the header and one row per record.
func TestWriteExcel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, testRecords()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)

	t.Cleanup(func() { _ = f.Close() })

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{
		"id", "distance_ts", "ts_source", "distance_ifm", "ifm_source",
		"difference", "status", "note", "created_at",
	}, rows[0])

	require.Equal(t, "11111111-1111-4111-8111-111111111111", rows[1][0])
	require.Equal(t, "leica-tc307", rows[1][2])
	require.Equal(t, "OK", rows[1][6])
	require.Equal(t, "OUT_OF_TOLERANCE", rows[2][6])
	require.Equal(t, "Měření po zahřátí", rows[2][7])
	require.Equal(t, "2024-02-03 04:05:06 UTC", rows[2][8])
}

// TestWriteExcel_Empty still produces the header.
func TestWriteExcel_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)

	t.Cleanup(func() { _ = f.Close() })

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

// TestWriteZIP bundles one PDF per record.
func TestWriteZIP(t *testing.T) {
	t.Parallel()

	records := testRecords()

	var buf bytes.Buffer
	require.NoError(t, WriteZIP(&buf, records))

	archive, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, archive.File, len(records))

	for i, file := range archive.File {
		require.Equal(t, PDFFilename(records[i].ID), file.Name)

		rc, openErr := file.Open()
		require.NoError(t, openErr)

		data, readErr := io.ReadAll(rc)
		require.NoError(t, readErr)
		require.NoError(t, rc.Close())
		require.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	}
}
