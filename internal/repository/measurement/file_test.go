package measurement

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/calibration-helper/internal/domain/calibration"
)

func newRecord(ts, ifm float64, note *string) *calibration.Record {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	return calibration.NewRecord(
		calibration.Tolerance{OK: 0.5},
		calibration.NewReading(calibration.TotalStation, calibration.ManualSource, ts, now),
		calibration.NewReading(calibration.Interferometer, calibration.ManualSource, ifm, now),
		note,
		now,
	)
}

// TestFileRepository_Empty verifies a missing file behaves like an empty store.
func TestFileRepository_Empty(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.json"))

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, records)

	rec, err := repo.Get(context.Background(), "c9d8a6f4-0000-4000-8000-000000000000")
	require.ErrorIs(t, err, calibration.ErrNotFound)
	require.Nil(t, rec)
}

// TestFileRepository_AppendGetList ensures appended records come back unchanged and in order.
func TestFileRepository_AppendGetList(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "results.json")
	repo := NewFileRepository(file)
	note := "second bench position"

	first := newRecord(100.3, 100.0, nil)
	second := newRecord(250.0, 251.0, &note)

	require.NoError(t, repo.Append(context.Background(), first))
	require.NoError(t, repo.Append(context.Background(), second))

	got, err := repo.Get(context.Background(), second.ID)
	require.NoError(t, err)
	require.Equal(t, second, got)

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []*calibration.Record{first, second}, records)

	// A fresh repository over the same file sees the same data.
	reopened, err := NewFileRepository(file).List(context.Background())
	require.NoError(t, err)
	require.Equal(t, records, reopened)

	info, err := os.Stat(file)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	leftovers, err := filepath.Glob(file + ".*.tmp")
	require.NoError(t, err)
	require.Empty(t, leftovers)
}

// TestFileRepository_AppendRejects covers nil and duplicate records.
func TestFileRepository_AppendRejects(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "results.json"))
	rec := newRecord(1, 1, nil)

	require.ErrorIs(t, repo.Append(context.Background(), nil), ErrNilRecord)
	require.NoError(t, repo.Append(context.Background(), rec))
	require.ErrorIs(t, repo.Append(context.Background(), rec), ErrDuplicateID)

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
}

// TestFileRepository_CorruptFile surfaces decode errors.
func TestFileRepository_CorruptFile(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(file, []byte("{not json"), 0o600))

	repo := NewFileRepository(file)

	_, err := repo.List(context.Background())
	require.ErrorContains(t, err, "decode measurements file")

	require.Error(t, repo.Append(context.Background(), newRecord(1, 1, nil)))
}

// TestFileRepository_ConcurrentAppend keeps every record under parallel writers.
func TestFileRepository_ConcurrentAppend(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "results.json"))

	const writers = 16

	var (
		wg   sync.WaitGroup
		errs = make(chan error, writers)
	)

	for i := range writers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			note := fmt.Sprintf("writer %d", i)
			errs <- repo.Append(context.Background(), newRecord(float64(i), 0, &note))
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, writers)
}
