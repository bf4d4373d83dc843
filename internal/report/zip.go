package report

import (
	"archive/zip"
	"fmt"
	"io"

	"github.com/oshokin/calibration-helper/internal/domain/calibration"
)

const (
	// ZIPFilename is the download name of the archive.
	ZIPFilename = "all_reports.zip"
	// ContentTypeZIP is the media type of the archive.
	ContentTypeZIP = "application/zip"
)

// WriteZIP writes one report_<id>.pdf entry per record.
func WriteZIP(w io.Writer, records []*calibration.Record) error {
	archive := zip.NewWriter(w)

	for _, record := range records {
		header := &zip.FileHeader{
			Name:     PDFFilename(record.ID),
			Method:   zip.Deflate,
			Modified: record.CreatedAt,
		}

		entry, err := archive.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("add %s: %w", header.Name, err)
		}

		if err = WritePDF(entry, record); err != nil {
			return fmt.Errorf("add %s: %w", header.Name, err)
		}
	}

	if err := archive.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}

	return nil
}
