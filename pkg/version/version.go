// Package version exposes the vpsbridge build version.
package version

// Version is set at build time via -ldflags.
var Version = "dev"

// GetVersion returns the version of the vpsbridge binary.
func GetVersion() string {
	return Version
}
