// Package report renders calibration records into downloadable documents:
// a single-page PDF per record, an Excel workbook of all records and a ZIP
// archive bundling every PDF.
package report
