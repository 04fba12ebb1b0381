// Package version provides shared version information.
package version

// version is overridden at build time with -ldflags "-X".
var version = "0.1.0"

// Version returns the version of the sqlbatch tools.
func Version() string {
	return version
}
