// Package version exposes build metadata injected via -ldflags.
package version

var (
	// Version is the release version, "dev" for local builds.
	Version = "dev"

	// GitCommit is the short commit hash of the build.
	GitCommit = "unknown"

	// BuildTime is the RFC3339 build timestamp.
	BuildTime = "unknown"
)
