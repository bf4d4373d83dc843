// Package calibration implements the HTTP transport of the calibration helper.
//
// It decodes JSON requests, calls into a provided business-service interface
// and renders records as JSON, PDF, Excel or ZIP. Domain errors are mapped to
// HTTP status codes here and nowhere else.
package calibration
