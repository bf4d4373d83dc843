// Package instrument talks to the two distance instruments of the bench.
//
// A Session owns exactly one OS connection (TCP socket or serial port) and
// only moves bytes. A Driver wraps a Session with the measurement protocol:
// send a query, parse the numeric reply and, on any transport or parse
// failure, sleep, fully close and reopen the session, then try again, up to
// a fixed number of attempts. Drivers are synchronous and must not be shared
// between goroutines without external locking.
//
// The wire commands are placeholders taken from configuration; confirm them
// against the device manuals before relying on them.
package instrument
