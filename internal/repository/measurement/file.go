package measurement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oshokin/calibration-helper/internal/config"
	"github.com/oshokin/calibration-helper/internal/domain/calibration"
)

// Repository defines persistence operations for measurement records.
type Repository interface {
	// Append stores a new record. Records are never modified afterwards.
	Append(ctx context.Context, record *calibration.Record) error
	// Get returns the record with the given id or calibration.ErrNotFound.
	Get(ctx context.Context, id string) (*calibration.Record, error)
	// List returns every record in insertion order.
	List(ctx context.Context) ([]*calibration.Record, error)
}

var (
	// ErrDuplicateID is returned when a record with the same id is already stored.
	ErrDuplicateID = errors.New("measurement id already exists")
	// ErrNilRecord is returned by Append for a nil record.
	ErrNilRecord = errors.New("record must be provided")
)

// FileRepository persists records as a JSON array on disk.
// Every append rewrites the file through a temporary file and a rename.
type FileRepository struct {
	// path is the filesystem location of the JSON file.
	path string
	// mu protects concurrent access to the file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Append adds the record to the end of the file.
func (r *FileRepository) Append(_ context.Context, record *calibration.Record) error {
	if record == nil {
		return ErrNilRecord
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.load()
	if err != nil {
		return err
	}

	for _, existing := range stored {
		if existing.ID == record.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateID, record.ID)
		}
	}

	stored = append(stored, toFile(record))

	return r.write(stored)
}

// Get finds a record by id.
func (r *FileRepository) Get(_ context.Context, id string) (*calibration.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.load()
	if err != nil {
		return nil, err
	}

	for _, rec := range stored {
		if rec.ID == id {
			return fromFile(rec), nil
		}
	}

	return nil, calibration.ErrNotFound
}

// List returns all records. A missing file means no records yet.
func (r *FileRepository) List(_ context.Context) ([]*calibration.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.load()
	if err != nil {
		return nil, err
	}

	records := make([]*calibration.Record, 0, len(stored))
	for _, rec := range stored {
		records = append(records, fromFile(rec))
	}

	return records, nil
}

func (r *FileRepository) load() ([]fileRecord, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read measurements file: %w", err)
	}

	if len(contents) == 0 {
		return nil, nil
	}

	var stored []fileRecord
	if err = json.Unmarshal(contents, &stored); err != nil {
		return nil, fmt.Errorf("decode measurements file: %w", err)
	}

	return stored, nil
}

func (r *FileRepository) write(stored []fileRecord) error {
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode measurements: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary measurements file: %w", err)
	}

	tmpName := tmp.Name()

	defer func() {
		// A successful rename leaves nothing to remove.
		_ = os.Remove(tmpName)
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("write measurements file: %w", err)
	}

	if err = tmp.Chmod(config.DefaultFilePermissions); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("chmod measurements file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close measurements file: %w", err)
	}

	if err = os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace measurements file: %w", err)
	}

	return nil
}

// fileRecord is the on-disk shape of a record.
type fileRecord struct {
	ID             string      `json:"id"`
	TotalStation   fileReading `json:"total_station"`
	Interferometer fileReading `json:"interferometer"`
	Difference     float64     `json:"difference"`
	Status         string      `json:"status"`
	Note           *string     `json:"note"`
	CreatedAt      time.Time   `json:"created_at"`
}

type fileReading struct {
	Source   string    `json:"source"`
	Distance float64   `json:"distance"`
	ReadAt   time.Time `json:"read_at"`
}

// toFile converts the domain record into its on-disk representation.
func toFile(record *calibration.Record) fileRecord {
	return fileRecord{
		ID: record.ID,
		TotalStation: fileReading{
			Source:   record.TotalStation.Source,
			Distance: record.TotalStation.Distance,
			ReadAt:   record.TotalStation.ReadAt,
		},
		Interferometer: fileReading{
			Source:   record.Interferometer.Source,
			Distance: record.Interferometer.Distance,
			ReadAt:   record.Interferometer.ReadAt,
		},
		Difference: record.Difference,
		Status:     string(record.Verdict),
		Note:       record.Note,
		CreatedAt:  record.CreatedAt,
	}
}

// fromFile converts the on-disk representation into the domain record.
func fromFile(rec fileRecord) *calibration.Record {
	return &calibration.Record{
		ID: rec.ID,
		TotalStation: calibration.NewReading(
			calibration.TotalStation, rec.TotalStation.Source, rec.TotalStation.Distance, rec.TotalStation.ReadAt,
		),
		Interferometer: calibration.NewReading(
			calibration.Interferometer, rec.Interferometer.Source, rec.Interferometer.Distance, rec.Interferometer.ReadAt,
		),
		Difference: rec.Difference,
		Verdict:    calibration.Verdict(rec.Status),
		Note:       rec.Note,
		CreatedAt:  rec.CreatedAt,
	}
}
