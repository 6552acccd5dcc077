package version

// Version is the release version, set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/docpublisher/internal/version.Version=v1.0.0".
var Version = "dev"

// Build metadata, also set through ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders version and commit for --version output.
func String() string {
	if GitCommit == "unknown" || GitCommit == "" {
		return Version
	}
	return Version + " (" + GitCommit + ", " + BuildTime + ")"
}
