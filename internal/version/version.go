package version

var (
	// Version is the current layoutkit version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns the version line printed by the command line tools.
func String() string {
	return Version + " (" + GitSHA + ", built " + BuildTime + ")"
}
