// Package version holds build metadata injected via ldflags.
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the metadata for startup logs.
func String() string {
	return fmt.Sprintf("esquery/%s (%s, %s)", Version, Commit, Date)
}
