package common

import "fmt"

// Build metadata, overridden at link time:
//
//	-ldflags "-X .../internal/common.Version=1.2.3 -X .../internal/common.Commit=abc123"
var (
	Version = "dev"
	Commit  = "unknown"
)

// GetVersion returns the release version string.
func GetVersion() string {
	return Version
}

// VersionString returns the version with the commit appended.
func VersionString() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
