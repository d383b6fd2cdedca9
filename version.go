// Package zantara provides the version information for the service.
package zantara

// Version is the current version of zantara-agentic.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
