package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/oshokin/calibration-helper/internal/instrument"
	"github.com/oshokin/calibration-helper/internal/logger"
)

// PortsOptions configures a port scan.
type PortsOptions struct {
	// Host is the address to scan.
	Host string
	// From and To bound the inclusive port range.
	From, To int
	// Timeout bounds each connection attempt.
	Timeout time.Duration
	// Output receives one line per open port.
	Output io.Writer
}

var (
	// errHostRequired is returned when no host is given.
	errHostRequired = errors.New("host must be provided")
	// errInvalidPort is returned for ports outside 1..65535.
	errInvalidPort = errors.New("ports must be within 1..65535")
)

// RunPorts scans the range and prints the open ports.
func RunPorts(ctx context.Context, opts *PortsOptions) error {
	ctx = logger.WithName(ctx, "ports")

	if opts.Host == "" {
		return errHostRequired
	}

	if !validPort(opts.From) || !validPort(opts.To) {
		return errInvalidPort
	}

	logger.InfoKV(ctx, "Scanning ports", "host", opts.Host, "from", opts.From, "to", opts.To)

	open := 0

	for _, status := range instrument.ProbePorts(ctx, opts.Host, opts.From, opts.To, opts.Timeout) {
		if !status.Open {
			logger.DebugKV(ctx, "Port closed", "port", status.Port, "error", status.Err)

			continue
		}

		open++

		if _, err := fmt.Fprintf(opts.Output, "port %d is open\n", status.Port); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}

	logger.InfoKV(ctx, "Scan finished", "open_ports", open)

	return ctx.Err()
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}
