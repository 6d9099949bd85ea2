// Package version exposes build metadata stamped into siftd binaries.
package version

// Overridden at link time via -ldflags "-X". The defaults mark a
// binary built outside the release pipeline.
//
//nolint:revive
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
