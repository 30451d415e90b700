package version

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/paperkit/internal/version.Version=v1.2.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Info returns a single-line human-readable version string.
func Info() string {
	return "paperkit " + Version + " (commit " + GitCommit + ", built " + BuildTime + ")"
}
