package version

// Version is the release of the moex tools.
// Set at build time with
// -ldflags "-X github.com/rxtech-lab/argo-moex/internal/version.Version=1.2.3"
var Version = "v0.1.0"

// GetVersion returns the current version.
func GetVersion() string {
	return Version
}
