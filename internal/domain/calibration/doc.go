// Package calibration contains the core domain types of the calibration
// helper: readings taken from the two instruments, the evaluated record and
// the tolerance rules that produce a verdict.
//
// Everything here is free of I/O. Records are values; once created they are
// only ever copied.
package calibration
