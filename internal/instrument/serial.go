package instrument

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"

	"github.com/oshokin/calibration-helper/internal/logger"
)

// PortOpener opens a serial port. It exists so tests can replace the hardware.
type PortOpener func(cfg *serial.Config) (io.ReadWriteCloser, error)

// OpenSerialPort is the PortOpener backed by github.com/tarm/serial.
//
//nolint:ireturn // The port is used only through io.ReadWriteCloser.
func OpenSerialPort(cfg *serial.Config) (io.ReadWriteCloser, error) {
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, err
	}

	return port, nil
}

// SerialSession is a Session over a serial port with line-terminated replies.
type SerialSession struct {
	// config holds the port name, baud rate and per-read timeout.
	config serial.Config
	// open creates the port.
	open PortOpener
	// port is nil while the session is closed.
	port io.ReadWriteCloser
	// pending keeps bytes read after a line terminator.
	pending []byte
}

// NewSerialSession creates a closed session for the named port.
// readTimeout is the per-read timeout handed to the driver of the port.
func NewSerialSession(name string, baud int, readTimeout time.Duration, opener PortOpener) *SerialSession {
	if opener == nil {
		opener = OpenSerialPort
	}

	return &SerialSession{
		config: serial.Config{
			Name:        name,
			Baud:        baud,
			Parity:      serial.ParityNone,
			ReadTimeout: readTimeout,
		},
		open: opener,
	}
}

// Open opens the port once. An already open port is replaced.
func (s *SerialSession) Open(_ context.Context) error {
	s.Close()

	cfg := s.config

	port, err := s.open(&cfg)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", s.config.Name, err)
	}

	s.port = port

	return nil
}

// Send drops the buffered remainder of the previous reply and writes the payload.
func (s *SerialSession) Send(payload []byte) error {
	if s.port == nil {
		return &TransportError{Op: "send", Err: ErrSessionClosed}
	}

	if len(s.pending) > 0 {
		logger.Logger().Debugw("Discarded stale reply bytes", "port", s.config.Name, "bytes", len(s.pending))
		s.pending = nil
	}

	if _, err := s.port.Write(payload); err != nil {
		return &TransportError{Op: "send", Err: err}
	}

	return nil
}

// Receive reads until a '\n' terminator. A line still incomplete when the
// timeout elapses is discarded and reported as ErrTimeout.
func (s *SerialSession) Receive(timeout time.Duration) ([]byte, error) {
	if s.port == nil {
		return nil, &TransportError{Op: "receive", Err: ErrSessionClosed}
	}

	deadline := time.Now().Add(timeout)
	buf := make([]byte, 128)
	line := s.pending
	s.pending = nil

	for {
		if i := bytes.IndexByte(line, '\n'); i >= 0 {
			s.pending = append([]byte(nil), line[i+1:]...)

			return line[:i+1], nil
		}

		if len(line) >= maxReplySize {
			return nil, &TransportError{Op: "receive", Err: ErrReplyTooLong}
		}

		if !time.Now().Before(deadline) {
			return nil, &TransportError{Op: "receive", Err: ErrTimeout}
		}

		n, err := s.port.Read(buf)
		line = append(line, buf[:n]...)

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			// The port returns EOF when its own read timeout expires with no data.
		default:
			return nil, &TransportError{Op: "receive", Err: err}
		}
	}
}

// Close closes the port if open and drops buffered bytes.
func (s *SerialSession) Close() {
	s.pending = nil

	if s.port == nil {
		return
	}

	if err := s.port.Close(); err != nil {
		logger.Logger().Debugw("Close serial session", "port", s.config.Name, "error", err)
	}

	s.port = nil
}
