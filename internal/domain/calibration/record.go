package calibration

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no record exists for the requested id.
// It is an expected outcome of a lookup, not a failure.
var ErrNotFound = errors.New("measurement not found")

// Record is one evaluated measurement pair. Records are append-only.
type Record struct {
	// ID is a random UUID.
	ID string
	// TotalStation is the reading on the TS path.
	TotalStation Reading
	// Interferometer is the reading on the IFM path.
	Interferometer Reading
	// Difference is TotalStation.Distance - Interferometer.Distance.
	Difference float64
	// Verdict is the tolerance classification of Difference.
	Verdict Verdict
	// Note is an optional operator remark.
	Note *string
	// CreatedAt is when the record was evaluated.
	CreatedAt time.Time
}

// NewRecord evaluates the two readings and returns a fresh record.
func NewRecord(tolerance Tolerance, ts, ifm Reading, note *string, now time.Time) *Record {
	evaluation := tolerance.Evaluate(ts.Distance, ifm.Distance)

	return &Record{
		ID:             uuid.NewString(),
		TotalStation:   ts,
		Interferometer: ifm,
		Difference:     evaluation.Difference,
		Verdict:        evaluation.Verdict,
		Note:           cloneNote(note),
		CreatedAt:      now,
	}
}

// Clone returns a copy that shares no pointers with r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	cloned := *r
	cloned.Note = cloneNote(r.Note)

	return &cloned
}

// NoteText returns the note or an empty string.
func (r *Record) NoteText() string {
	if r.Note == nil {
		return ""
	}

	return *r.Note
}

func cloneNote(note *string) *string {
	if note == nil {
		return nil
	}

	cloned := *note

	return &cloned
}
