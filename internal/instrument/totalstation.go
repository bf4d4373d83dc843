package instrument

import (
	"context"

	"github.com/oshokin/calibration-helper/internal/config"
	"github.com/oshokin/calibration-helper/internal/domain/calibration"
)

// TotalStation is the serial-attached total station.
type TotalStation struct {
	*Driver
}

// NewTotalStation opens the serial port described by cfg. A nil opener uses
// the real serial port.
func NewTotalStation(
	ctx context.Context,
	cfg config.TotalStation,
	opener PortOpener,
	opts ...Option,
) (*TotalStation, error) {
	session := NewSerialSession(cfg.Port, cfg.BaudRate, cfg.Timeout, opener)

	protocol := Protocol{
		Kind:    calibration.TotalStation,
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

	return &TotalStation{Driver: driver}, nil
}
