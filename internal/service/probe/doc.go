// Package probe implements the bench diagnostics of calibration-probe:
// scanning a host for open TCP ports, taking one reading from an instrument
// and querying the health service of a running server.
package probe
