package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oshokin/calibration-helper/internal/domain/calibration"
	"github.com/oshokin/calibration-helper/internal/logger"
	"github.com/oshokin/calibration-helper/internal/repository/measurement"
)

const driverName = "pgx"

const (
	createTableSQL = `
CREATE TABLE IF NOT EXISTS measurements (
    id           TEXT PRIMARY KEY,
    distance_ts  DOUBLE PRECISION NOT NULL,
    ts_source    TEXT NOT NULL,
    ts_read_at   TIMESTAMPTZ NOT NULL,
    distance_ifm DOUBLE PRECISION NOT NULL,
    ifm_source   TEXT NOT NULL,
    ifm_read_at  TIMESTAMPTZ NOT NULL,
    difference   DOUBLE PRECISION NOT NULL,
    status       TEXT NOT NULL,
    note         TEXT,
    created_at   TIMESTAMPTZ NOT NULL
)`

	insertSQL = `
INSERT INTO measurements (
    id, distance_ts, ts_source, ts_read_at, distance_ifm, ifm_source, ifm_read_at,
    difference, status, note, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	selectSQL = `
SELECT id, distance_ts, ts_source, ts_read_at, distance_ifm, ifm_source, ifm_read_at,
       difference, status, note, created_at
FROM measurements`

	getSQL  = selectSQL + ` WHERE id = $1`
	listSQL = selectSQL + ` ORDER BY created_at, id`
)

// Repository implements measurement.Repository on top of PostgreSQL.
type Repository struct {
	// db is the connection pool; it is safe for concurrent use.
	db *sql.DB
	// delays are the pauses between attempts of a retried statement.
	delays []time.Duration
}

var _ measurement.Repository = (*Repository)(nil)

// Option configures a Repository.
type Option func(*Repository)

// WithRetryDelays replaces DefaultRetryDelays.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(r *Repository) {
		r.delays = delays
	}
}

// Open connects to dsn with the pgx driver and prepares the schema.
func Open(ctx context.Context, dsn string, opts ...Option) (*Repository, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repo, err := New(ctx, db, opts...)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return repo, nil
}

// New wraps an existing pool, checks connectivity and creates the table if needed.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*Repository, error) {
	repo := &Repository{
		db:     db,
		delays: DefaultRetryDelays,
	}

	for _, opt := range opts {
		opt(repo)
	}

	err := withRetry(ctx, repo.delays, func() error {
		return db.PingContext(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	err = withRetry(ctx, repo.delays, func() error {
		_, execErr := db.ExecContext(ctx, createTableSQL)

		return execErr
	})
	if err != nil {
		return nil, fmt.Errorf("create measurements table: %w", err)
	}

	logger.Info(ctx, "Measurements table is ready")

	return repo, nil
}

// Append inserts the record. Transient failures are retried.
func (r *Repository) Append(ctx context.Context, record *calibration.Record) error {
	if record == nil {
		return measurement.ErrNilRecord
	}

	attempts := 0

	err := withRetry(ctx, r.delays, func() error {
		attempts++

		_, execErr := r.db.ExecContext(ctx, insertSQL,
			record.ID,
			record.TotalStation.Distance,
			record.TotalStation.Source,
			record.TotalStation.ReadAt,
			record.Interferometer.Distance,
			record.Interferometer.Source,
			record.Interferometer.ReadAt,
			record.Difference,
			string(record.Verdict),
			record.Note,
			record.CreatedAt,
		)

		return execErr
	})

	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err) && attempts > 1:
		// An earlier attempt committed before its connection was lost.
		logger.WarnKV(ctx, "Measurement already stored by an earlier attempt", "id", record.ID, "attempts", attempts)

		return nil
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %s", measurement.ErrDuplicateID, record.ID)
	default:
		return fmt.Errorf("insert measurement: %w", err)
	}
}

// Get returns the record with the given id.
func (r *Repository) Get(ctx context.Context, id string) (*calibration.Record, error) {
	record, err := scanRecord(r.db.QueryRowContext(ctx, getSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, calibration.ErrNotFound
		}

		return nil, fmt.Errorf("select measurement: %w", err)
	}

	return record, nil
}

// List returns all records ordered by creation time.
func (r *Repository) List(ctx context.Context) ([]*calibration.Record, error) {
	rows, err := r.db.QueryContext(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("select measurements: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	records := make([]*calibration.Record, 0)

	for rows.Next() {
		record, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan measurement: %w", scanErr)
		}

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate measurements: %w", err)
	}

	return records, nil
}

// Close closes the pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*calibration.Record, error) {
	var (
		record   calibration.Record
		status   string
		note     sql.NullString
		ts, ifm  calibration.Reading
		tsReadAt time.Time
		ifReadAt time.Time
	)

	err := row.Scan(
		&record.ID,
		&ts.Distance,
		&ts.Source,
		&tsReadAt,
		&ifm.Distance,
		&ifm.Source,
		&ifReadAt,
		&record.Difference,
		&status,
		&note,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.TotalStation = calibration.NewReading(calibration.TotalStation, ts.Source, ts.Distance, tsReadAt)
	record.Interferometer = calibration.NewReading(calibration.Interferometer, ifm.Source, ifm.Distance, ifReadAt)
	record.Verdict = calibration.Verdict(status)

	if note.Valid {
		record.Note = &note.String
	}

	return &record, nil
}
