package version //nolint:revive // package name intentionally matches build-info convention

import "fmt"

//nolint:gochecknoglobals //version information is set at build time
var (
	Repository string
	Version    string
	Commit     string
	Date       string
)

// Get returns the release version, "dev" for untagged builds.
func Get() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

// String describes the build for startup logs.
func String() string {
	s := Get()
	if Commit != "" {
		s = fmt.Sprintf("%s (%s)", s, Commit)
	}
	if Date != "" {
		s += " built " + Date
	}
	return s
}
