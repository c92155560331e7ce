package version

import "fmt"

// Set at build time via -ldflags.
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// UserAgent identifies this build in outgoing API requests.
func UserAgent() string {
	return fmt.Sprintf("forkline/%s", Version)
}
