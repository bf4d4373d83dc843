package instrument

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/calibration-helper/internal/domain/calibration"
	"github.com/oshokin/calibration-helper/internal/logger"
	"github.com/oshokin/calibration-helper/internal/metrics"
)

// Protocol describes how one instrument is queried for a distance.
type Protocol struct {
	// Kind is the measurement path the instrument serves.
	Kind calibration.InstrumentKind
	// Command is written once per attempt.
	Command []byte
	// Parse converts the reply; nil means ParseDistance.
	Parse ParseFunc
}

// Driver turns a Session into a Measure operation with bounded retries.
type Driver struct {
	// name identifies the device in logs, metrics and readings.
	name string
	// session is exclusively owned by the driver.
	session Session
	// protocol holds the distance query.
	protocol Protocol
	// policy bounds the open and measure loops.
	policy RetryPolicy
	// timeout is passed to every Receive.
	timeout time.Duration
	// state is the current connection state.
	state State
	// observer receives state changes, may be nil.
	observer StateObserver
	// now stamps readings.
	now func() time.Time
}

// Option configures a Driver.
type Option func(*Driver)

// WithStateObserver registers a callback for state changes.
func WithStateObserver(observer StateObserver) Option {
	return func(d *Driver) {
		d.observer = observer
	}
}

// WithClock replaces time.Now for reading timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		if now != nil {
			d.now = now
		}
	}
}

var errNilSession = errors.New("session must be provided")

// NewDriver opens the session within the retry bound and returns a connected driver.
// Construction is all-or-nothing: on failure the session is closed and a
// *ConnectionError is returned.
func NewDriver(
	ctx context.Context,
	name string,
	session Session,
	protocol Protocol,
	policy RetryPolicy,
	timeout time.Duration,
	opts ...Option,
) (*Driver, error) {
	if session == nil {
		return nil, errNilSession
	}

	if protocol.Parse == nil {
		protocol.Parse = ParseDistance
	}

	d := &Driver{
		name:     name,
		session:  session,
		protocol: protocol,
		policy:   policy,
		timeout:  timeout,
		state:    Disconnected,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	if err := d.connect(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

// Name returns the device name.
func (d *Driver) Name() string {
	return d.name
}

// Kind returns the measurement path of the device.
func (d *Driver) Kind() calibration.InstrumentKind {
	return d.protocol.Kind
}

// State returns the current connection state.
func (d *Driver) State() State {
	return d.state
}

// Measure queries one distance. It either returns a freshly parsed value or
// an error; after the retry bound is exhausted the last transport or parse
// error is returned and the driver is Faulted.
func (d *Driver) Measure(ctx context.Context) (float64, error) {
	return d.query(ctx, d.protocol.Command, d.protocol.Parse)
}

// Read measures and wraps the value into a calibration.Reading.
func (d *Driver) Read(ctx context.Context) (calibration.Reading, error) {
	value, err := d.Measure(ctx)
	if err != nil {
		return calibration.Reading{}, err
	}

	return calibration.NewReading(d.protocol.Kind, d.name, value, d.now()), nil
}

// Reopen closes the session and runs the bounded open loop again.
// It is the way out of the Faulted state.
func (d *Driver) Reopen(ctx context.Context) error {
	d.session.Close()

	return d.connect(ctx)
}

// Close releases the session. It is safe to call more than once.
func (d *Driver) Close() {
	d.session.Close()

	if d.state != Disconnected {
		d.setState(Disconnected)
	}
}

// query runs one command through the retry loop.
func (d *Driver) query(ctx context.Context, command []byte, parse ParseFunc) (float64, error) {
	switch d.state {
	case Faulted:
		return 0, ErrFaulted
	case Disconnected, Connecting:
		return 0, ErrSessionClosed
	case Connected:
	}

	ctx = logger.WithKV(ctx, "instrument", d.name)
	attempts := d.policy.attempts()

	for attempt := 1; ; attempt++ {
		value, err := d.exchange(command, parse)
		if err == nil {
			metrics.MeasureAttempts.WithLabelValues(d.name, metrics.ResultSuccess).Inc()

			return value, nil
		}

		metrics.MeasureAttempts.WithLabelValues(d.name, attemptResult(err)).Inc()
		logger.WarnKV(ctx, "Measurement attempt failed", "attempt", attempt, "attempts", attempts, "error", err)

		if attempt >= attempts {
			logger.ErrorKV(ctx, "All measurement attempts failed", "attempts", attempts)
			d.fault()

			return 0, err
		}

		if waitErr := d.policy.wait(ctx); waitErr != nil {
			d.fault()

			return 0, fmt.Errorf("measure %s: %w", d.name, waitErr)
		}

		metrics.Reconnects.WithLabelValues(d.name).Inc()

		if reopenErr := d.Reopen(ctx); reopenErr != nil {
			return 0, reopenErr
		}
	}
}

// exchange performs one send/receive/parse round trip.
func (d *Driver) exchange(command []byte, parse ParseFunc) (float64, error) {
	if err := d.session.Send(command); err != nil {
		return 0, err
	}

	reply, err := d.session.Receive(d.timeout)
	if err != nil {
		return 0, err
	}

	return parse(reply)
}

// connect runs the bounded open loop.
func (d *Driver) connect(ctx context.Context) error {
	ctx = logger.WithKV(ctx, "instrument", d.name)
	attempts := d.policy.attempts()

	d.setState(Connecting)

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		err := d.session.Open(ctx)
		if err == nil {
			logger.InfoKV(ctx, "Instrument connected", "attempt", attempt)
			d.setState(Connected)

			return nil
		}

		lastErr = err
		logger.WarnKV(ctx, "Failed to open instrument link", "attempt", attempt, "attempts", attempts, "error", err)

		if attempt == attempts {
			break
		}

		if waitErr := d.policy.wait(ctx); waitErr != nil {
			lastErr = waitErr

			break
		}
	}

	logger.ErrorKV(ctx, "Exceeded retries for instrument link", "attempts", attempts)
	d.fault()

	return &ConnectionError{
		Instrument: d.name,
		Attempts:   attempts,
		Err:        lastErr,
	}
}

// fault releases the session and marks the driver unusable.
func (d *Driver) fault() {
	d.session.Close()
	metrics.Faults.WithLabelValues(d.name).Inc()
	d.setState(Faulted)
}

func (d *Driver) setState(state State) {
	d.state = state

	if d.observer != nil {
		d.observer(d.name, state)
	}
}

// attemptResult maps an exchange error onto a metrics label.
func attemptResult(err error) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return metrics.ResultParseError
	}

	return metrics.ResultTransportError
}
