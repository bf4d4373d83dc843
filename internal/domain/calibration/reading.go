package calibration

import (
	"context"
	"time"
)

// InstrumentKind names the measurement path a reading came from.
type InstrumentKind string

const (
	// TotalStation is the surveying instrument path (TS).
	TotalStation InstrumentKind = "total_station"
	// Interferometer is the laser interferometer path (IFM).
	Interferometer InstrumentKind = "interferometer"
)

// ManualSource marks readings typed in by an operator.
const ManualSource = "manual"

// Instrument is anything able to produce one distance in millimetres.
// Both instrument drivers implement it; callers depend only on this.
type Instrument interface {
	Measure(ctx context.Context) (float64, error)
}

// Reading is a single distance obtained from one instrument.
type Reading struct {
	// Instrument is the measurement path.
	Instrument InstrumentKind
	// Source names the concrete device or ManualSource.
	Source string
	// Distance is the measured distance in millimetres.
	Distance float64
	// ReadAt is when the value was obtained.
	ReadAt time.Time
}

// NewReading returns a reading stamped with the given time.
func NewReading(kind InstrumentKind, source string, distance float64, at time.Time) Reading {
	return Reading{
		Instrument: kind,
		Source:     source,
		Distance:   distance,
		ReadAt:     at,
	}
}
