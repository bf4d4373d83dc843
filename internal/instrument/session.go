package instrument

import (
	"context"
	"time"
)

// Session is one physical link to an instrument.
type Session interface {
	// Open makes a single attempt to establish the link.
	Open(ctx context.Context) error
	// Send discards unread bytes of earlier replies and writes the whole
	// payload. Failures are *TransportError.
	Send(payload []byte) error
	// Receive returns one '\n'-terminated reply. A reply not complete within
	// timeout yields a *TransportError wrapping ErrTimeout.
	Receive(timeout time.Duration) ([]byte, error)
	// Close releases the OS handle. It is idempotent and never fails.
	Close()
}
