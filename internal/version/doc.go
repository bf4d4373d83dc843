// Package version holds the build metadata of the calibration binaries.
//
// Version, Commit and BuildTime are injected with -ldflags -X at build time.
package version
