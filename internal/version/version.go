// Package version exposes build metadata baked in at link time.
//
// The container build passes the git commit SHA and message as build
// arguments and injects them here via -ldflags "-X ...". Both default to
// "unknown" for local `go run` builds.
package version

var (
	// CommitSHA is the git commit the binary was built from.
	CommitSHA = "unknown"

	// CommitMessage is the subject line of that commit.
	CommitMessage = "unknown"
)
