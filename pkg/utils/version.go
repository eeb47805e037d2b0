// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

import "fmt"

// Build metadata, overridden at release time via -ldflags -X.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// VersionInfo renders the build metadata as shown by "crucible version".
func VersionInfo() string {
	return fmt.Sprintf("Version: %s\nSha: %s\nBuilt at: %s\n", Version, Sha, Buildtime)
}
