// Package measurement implements persistence for calibration records.
//
// Records are append-only: the Repository interface offers no update or
// delete. FileRepository keeps every record in one JSON file on disk and is
// the default store; the postgres subpackage provides a database-backed
// implementation of the same interface.
package measurement
