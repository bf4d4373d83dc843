package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/calibration-helper/internal/domain/calibration"
	"github.com/oshokin/calibration-helper/internal/instrument"
	"github.com/oshokin/calibration-helper/internal/logger"
	"github.com/oshokin/calibration-helper/internal/metrics"
	"github.com/oshokin/calibration-helper/internal/repository/measurement"
)

// stateUnavailable is reported for configured instruments without a driver.
const stateUnavailable = "unavailable"

// device is the part of an instrument driver the service relies on.
type device interface {
	Name() string
	State() instrument.State
	Read(ctx context.Context) (calibration.Reading, error)
	Reopen(ctx context.Context) error
	Close()
}

// slot is one configured instrument. dev is nil when the driver could not be built.
type slot struct {
	// name is the configured device name.
	name string
	// kind is the measurement path.
	kind calibration.InstrumentKind
	// dev is the connected driver, if any.
	dev device
}

// service encapsulates the calibration business logic and persistence orchestration.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// repo handles persistent storage of records.
	repo measurement.Repository
	// tolerance classifies every new record.
	tolerance calibration.Tolerance
	// slots holds the configured instruments keyed by kind.
	slots map[calibration.InstrumentKind]*slot
	// now stamps manual readings and records.
	now func() time.Time
	// mu serializes access to the instruments; drivers are single-owner.
	mu sync.Mutex
}

// newService creates a service backed by the provided repository.
func newService(repo measurement.Repository, tolerance calibration.Tolerance, slots ...*slot) *service {
	s := &service{
		repo:      repo,
		tolerance: tolerance,
		slots:     make(map[calibration.InstrumentKind]*slot, len(slots)),
		now:       time.Now,
	}

	for _, sl := range slots {
		s.slots[sl.kind] = sl
	}

	return s
}

// RecordManual evaluates two operator-entered distances and stores the record.
func (s *service) RecordManual(
	ctx context.Context,
	totalStation, interferometer float64,
	note *string,
) (*calibration.Record, error) {
	now := s.now()

	return s.store(ctx,
		calibration.NewReading(calibration.TotalStation, calibration.ManualSource, totalStation, now),
		calibration.NewReading(calibration.Interferometer, calibration.ManualSource, interferometer, now),
		note,
	)
}

// Measure reads the total station and then the interferometer, evaluates and stores the pair.
// Nothing is stored when either reading fails.
func (s *service) Measure(ctx context.Context, note *string) (*calibration.Record, error) {
	ts, ifm, err := s.readBoth(ctx)
	if err != nil {
		return nil, err
	}

	return s.store(ctx, ts, ifm, note)
}

// Get returns one record.
func (s *service) Get(ctx context.Context, id string) (*calibration.Record, error) {
	return s.repo.Get(ctx, id)
}

// List returns every record.
func (s *service) List(ctx context.Context) ([]*calibration.Record, error) {
	return s.repo.List(ctx)
}

// Instruments reports the state of each configured instrument.
func (s *service) Instruments(context.Context) []calibration.InstrumentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]calibration.InstrumentStatus, 0, len(s.slots))

	for _, kind := range []calibration.InstrumentKind{calibration.TotalStation, calibration.Interferometer} {
		sl, ok := s.slots[kind]
		if !ok {
			continue
		}

		state := stateUnavailable
		if sl.dev != nil {
			state = sl.dev.State().String()
		}

		statuses = append(statuses, calibration.InstrumentStatus{
			Name:  sl.name,
			Kind:  kind,
			State: state,
		})
	}

	return statuses
}

// Close releases every driver.
func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sl := range s.slots {
		if sl.dev != nil {
			sl.dev.Close()
		}
	}
}

func (s *service) readBoth(ctx context.Context) (calibration.Reading, calibration.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, err := s.read(ctx, calibration.TotalStation)
	if err != nil {
		return calibration.Reading{}, calibration.Reading{}, err
	}

	ifm, err := s.read(ctx, calibration.Interferometer)
	if err != nil {
		return calibration.Reading{}, calibration.Reading{}, err
	}

	return ts, ifm, nil
}

// read takes one reading, reopening a faulted driver first. Callers hold mu.
func (s *service) read(ctx context.Context, kind calibration.InstrumentKind) (calibration.Reading, error) {
	sl, ok := s.slots[kind]
	if !ok || sl.dev == nil {
		return calibration.Reading{}, fmt.Errorf("%s is not connected: %w", kind, calibration.ErrInstrumentUnavailable)
	}

	if sl.dev.State() == instrument.Faulted {
		logger.WarnKV(ctx, "Reopening faulted instrument", "instrument", sl.name)

		if err := sl.dev.Reopen(ctx); err != nil {
			return calibration.Reading{}, fmt.Errorf("reopen %s: %w: %w", sl.name, calibration.ErrInstrumentUnavailable, err)
		}
	}

	reading, err := sl.dev.Read(ctx)
	if err != nil {
		return calibration.Reading{}, fmt.Errorf("read %s: %w: %w", sl.name, calibration.ErrInstrumentUnavailable, err)
	}

	return reading, nil
}

func (s *service) store(
	ctx context.Context,
	ts, ifm calibration.Reading,
	note *string,
) (*calibration.Record, error) {
	record := calibration.NewRecord(s.tolerance, ts, ifm, note, s.now())

	if err := s.repo.Append(ctx, record); err != nil {
		logger.Errorf(ctx, "Failed to persist measurement: %v", err)

		return nil, fmt.Errorf("persist measurement: %w", err)
	}

	metrics.Verdicts.WithLabelValues(string(record.Verdict)).Inc()
	logger.InfoKV(ctx, "Measurement recorded",
		"id", record.ID,
		"distance_ts", ts.Distance,
		"distance_ifm", ifm.Distance,
		"difference", record.Difference,
		"status", record.Verdict,
	)

	return record.Clone(), nil
}
