// Package cmd holds build metadata injected via ldflags, e.g.
//
//	go build -ldflags "-X github.com/thoreinstein/ocsnap/cmd.Version=v1.2.0" ./cmd/ocsnap
package cmd

// Build-time variables set via ldflags.
var (
	// Version is the semantic version of the build.
	Version = "dev"
	// Commit is the git commit SHA of the build.
	Commit = "none"
	// Date is the build date.
	Date = "unknown"
)
