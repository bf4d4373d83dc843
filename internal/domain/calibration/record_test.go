package calibration

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TestNewRecord evaluates readings and copies the note.
func TestNewRecord(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	note := "bench 2"

	ts := NewReading(TotalStation, ManualSource, 100.3, now)
	ifm := NewReading(Interferometer, ManualSource, 99.0, now)

	rec := NewRecord(Tolerance{OK: 0.5}, ts, ifm, &note, now)

	_, err := uuid.Parse(rec.ID)
	require.NoError(t, err)
	require.InDelta(t, 1.3, rec.Difference, 1e-9)
	require.Equal(t, VerdictOutOfTolerance, rec.Verdict)
	require.Equal(t, now, rec.CreatedAt)
	require.Equal(t, "bench 2", rec.NoteText())

	// The caller's note is not aliased.
	note = "changed"
	require.Equal(t, "bench 2", rec.NoteText())

	other := NewRecord(Tolerance{OK: 0.5}, ts, ifm, nil, now)
	require.NotEqual(t, rec.ID, other.ID)
	require.Empty(t, other.NoteText())
}

// TestRecordClone verifies that Clone deep-copies the note and handles nil.
func TestRecordClone(t *testing.T) {
	t.Parallel()

	require.Nil(t, (*Record)(nil).Clone())

	note := "n"
	rec := &Record{ID: "x", Note: &note}
	c := rec.Clone()

	require.Equal(t, rec, c)
	require.NotSame(t, rec.Note, c.Note)
}
