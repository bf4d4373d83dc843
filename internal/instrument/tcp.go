package instrument

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/oshokin/calibration-helper/internal/logger"
)

const (
	// maxReplySize is the longest reply line accepted from an instrument.
	maxReplySize = 1024
	// tcpDrainWindow is how long Send waits for stale bytes on the socket.
	tcpDrainWindow = time.Millisecond
)

// TCPSession is a Session over a TCP socket.
type TCPSession struct {
	// address is host:port of the instrument.
	address string
	// timeout bounds dialing and every write.
	timeout time.Duration
	// conn is nil while the session is closed.
	conn net.Conn
	// pending keeps bytes read after a line terminator until the next Send.
	pending []byte
}

// NewTCPSession creates a closed session for address.
func NewTCPSession(address string, timeout time.Duration) *TCPSession {
	return &TCPSession{
		address: address,
		timeout: timeout,
	}
}

// Open dials the instrument once. An already open socket is replaced.
func (s *TCPSession) Open(ctx context.Context) error {
	s.Close()

	dialer := net.Dialer{Timeout: s.timeout}

	conn, err := dialer.DialContext(ctx, "tcp", s.address)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.address, err)
	}

	s.conn = conn

	return nil
}

// Send discards unread reply bytes and writes the payload with a write deadline.
func (s *TCPSession) Send(payload []byte) error {
	if s.conn == nil {
		return &TransportError{Op: "send", Err: ErrSessionClosed}
	}

	if err := s.discardPending(); err != nil {
		return &TransportError{Op: "send", Err: err}
	}

	if s.timeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
			return &TransportError{Op: "send", Err: err}
		}
	}

	if _, err := s.conn.Write(payload); err != nil {
		return &TransportError{Op: "send", Err: err}
	}

	return nil
}

// Receive reads until a '\n' terminator. A line still incomplete when the
// timeout elapses is discarded and reported as ErrTimeout. A peer that closed
// the connection counts as a transport failure.
func (s *TCPSession) Receive(timeout time.Duration) ([]byte, error) {
	if s.conn == nil {
		return nil, &TransportError{Op: "receive", Err: ErrSessionClosed}
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return nil, &TransportError{Op: "receive", Err: err}
	}

	buf := make([]byte, maxReplySize)
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

		n, err := s.conn.Read(buf)
		line = append(line, buf[:n]...)

		switch {
		case err == nil:
		case errors.Is(err, os.ErrDeadlineExceeded):
			return nil, &TransportError{Op: "receive", Err: ErrTimeout}
		default:
			return nil, &TransportError{Op: "receive", Err: err}
		}
	}
}

// discardPending drops the buffered remainder of the previous reply and
// whatever the instrument has already written to the socket since.
func (s *TCPSession) discardPending() error {
	s.pending = nil

	buf := make([]byte, maxReplySize)

	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(tcpDrainWindow)); err != nil {
			return err
		}

		n, err := s.conn.Read(buf)
		if n > 0 {
			logger.Logger().Debugw("Discarded stale reply bytes", "address", s.address, "bytes", n)
		}

		switch {
		case err == nil:
		case errors.Is(err, os.ErrDeadlineExceeded):
			return nil
		default:
			return err
		}
	}
}

// Close closes the socket if open.
func (s *TCPSession) Close() {
	if s.conn == nil {
		return
	}

	if err := s.conn.Close(); err != nil {
		logger.Logger().Debugw("Close TCP session", "address", s.address, "error", err)
	}

	s.conn = nil
	s.pending = nil
}
