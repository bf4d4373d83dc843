package instrument

import (
	"context"
	"net"
	"strconv"
	"time"
)

// DefaultProbeTimeout bounds a single port probe.
const DefaultProbeTimeout = 2 * time.Second

// PortStatus is the outcome of probing one TCP port.
type PortStatus struct {
	Port int
	Open bool
	// Err is the dial error for closed ports.
	Err error
}

// ProbePorts dials host on every port in [from, to] sequentially and reports
// which ones accept a connection. It is used to find an instrument's control
// port on the bench network.
func ProbePorts(ctx context.Context, host string, from, to int, timeout time.Duration) []PortStatus {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	if to < from {
		from, to = to, from
	}

	statuses := make([]PortStatus, 0, to-from+1)

	for port := from; port <= to; port++ {
		if ctx.Err() != nil {
			break
		}

		statuses = append(statuses, probePort(ctx, host, port, timeout))
	}

	return statuses
}

func probePort(ctx context.Context, host string, port int, timeout time.Duration) PortStatus {
	dialer := net.Dialer{Timeout: timeout}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return PortStatus{Port: port, Err: err}
	}

	_ = conn.Close()

	return PortStatus{Port: port, Open: true}
}
