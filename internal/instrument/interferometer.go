package instrument

import (
	"context"
	"math"

	"github.com/oshokin/calibration-helper/internal/config"
	"github.com/oshokin/calibration-helper/internal/domain/calibration"
)

// signalScale converts the raw signal reading into percent.
const signalScale = 3.226

// Interferometer is the TCP-attached laser interferometer.
type Interferometer struct {
	*Driver

	// signalCommand queries the beam signal level.
	signalCommand []byte
}

// NewInterferometer connects to the interferometer described by cfg.
func NewInterferometer(ctx context.Context, cfg config.Interferometer, opts ...Option) (*Interferometer, error) {
	session := NewTCPSession(cfg.Address, cfg.Timeout)

	return newInterferometer(ctx, cfg, session, opts...)
}

// newInterferometer builds the driver over an arbitrary session.
func newInterferometer(
	ctx context.Context,
	cfg config.Interferometer,
	session Session,
	opts ...Option,
) (*Interferometer, error) {
	protocol := Protocol{
		Kind:    calibration.Interferometer,
		Command: []byte(cfg.Command),
		Parse:   ParseDistance,
	}

	policy := RetryPolicy{
		Attempts: cfg.Attempts,
		Delay:    cfg.Delay,
	}

	driver, err := NewDriver(ctx, cfg.Name, session, protocol, policy, cfg.Timeout, opts...)
	if err != nil {
		return nil, err
	}

	return &Interferometer{
		Driver:        driver,
		signalCommand: []byte(cfg.SignalCommand),
	}, nil
}

// SignalStrength returns the beam signal level in percent. It shares the
// retry and reconnect behaviour of Measure.
func (i *Interferometer) SignalStrength(ctx context.Context) (int, error) {
	raw, err := i.query(ctx, i.signalCommand, ParseFirstLine)
	if err != nil {
		return 0, err
	}

	return int(math.Round(raw * signalScale)), nil
}
