package calibration

import "errors"

// ErrInstrumentUnavailable is wrapped by every failure to obtain a reading
// from a connected instrument, including instruments that are not configured.
var ErrInstrumentUnavailable = errors.New("instrument unavailable")

// InstrumentStatus is the connection state of one configured instrument.
type InstrumentStatus struct {
	// Name is the configured device name.
	Name string
	// Kind is the measurement path served by the device.
	Kind InstrumentKind
	// State is the driver state, "unavailable" when the driver could not be built.
	State string
}
