// Package version exposes build information injected at link time.
package version

//nolint:gochecknoglobals // These are overridden with -ldflags "-X" during release builds.
var (
	// Version is the semantic version of the build.
	Version = "0.1.0"
	// Commit is the git commit the binary was built from.
	Commit = "none"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// Short returns the bare version string.
func Short() string {
	return Version
}

// Full returns the version together with commit and build time.
func Full() string {
	return "version: " + Version + ", commit: " + Commit + ", built at: " + BuildTime
}

// UserAgent returns the User-Agent sent with dataset downloads.
func UserAgent() string {
	return "ml-pipeline/" + Version
}
