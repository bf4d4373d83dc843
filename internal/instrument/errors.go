package instrument

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection matches every *ConnectionError.
	ErrConnection = errors.New("instrument connection failed")
	// ErrTimeout is wrapped by a receive that got no complete reply in time.
	ErrTimeout = errors.New("instrument response timeout")
	// ErrSessionClosed is returned by I/O on a session that is not open.
	ErrSessionClosed = errors.New("transport session is closed")
	// ErrFaulted is returned by a driver that exhausted its retries until it is reopened.
	ErrFaulted = errors.New("instrument driver is faulted")
	// ErrEmptyResponse is wrapped by a ParseError for blank replies.
	ErrEmptyResponse = errors.New("empty response")
	// ErrReplyTooLong is wrapped by a receive whose reply has no terminator within maxReplySize bytes.
	ErrReplyTooLong = errors.New("instrument reply exceeds size limit")
	// ErrNotFinite is wrapped by a ParseError for NaN and infinite replies.
	ErrNotFinite = errors.New("response is not a finite number")
)

// ConnectionError reports that a session could not be opened within the retry bound.
// It is fatal to the driver instance.
type ConnectionError struct {
	Instrument string
	Attempts   int
	Err        error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: gave up after %d attempts: %v", e.Instrument, e.Attempts, e.Err)
}

// Unwrap returns the last open error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrConnection) true.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// TransportError is a send or receive failure in an open session.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError is a reply that could not be turned into a distance.
type ParseError struct {
	Response string
	Err      error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse response %q: %v", e.Response, e.Err)
}

// Unwrap returns the conversion error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
