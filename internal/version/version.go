package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release of the calibration helper, set via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA of the build, or "none".
	Commit = "none"
	// BuildTime is the UTC build timestamp, or "unknown".
	BuildTime = "unknown"
)

// Short returns the release string only.
func Short() string {
	return Version
}

// Full returns the release with commit, build time and Go toolchain.
func Full() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s)", Version, Commit, BuildTime, runtime.Version())
}

// UserAgent names a binary of this release for outgoing calls.
func UserAgent(binary string) string {
	return binary + "/" + Version
}
