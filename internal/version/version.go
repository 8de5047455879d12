// Package version holds build metadata reported by --version.
package version

import "fmt"

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X github.com/mpalmer/static-builder/internal/version.Version=v0.3.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the version line printed by the CLI.
func String() string {
	return fmt.Sprintf("static-builder %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
