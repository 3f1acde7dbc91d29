// Package paths resolves the locations ocsnap works with: its own config
// file, the default snapshot store and the candidate OpenClaw configuration
// directories.
//
// # XDG Base Directory Compliance
//
// ocsnap's own configuration lives under the XDG config home, resolved with
// github.com/adrg/xdg:
//
//	<ConfigHome>/ocsnap/config.yaml
//
// # OpenClaw Locations
//
// The snapshot sources are fixed, home-relative locations checked in this
// order:
//
//	| Priority | Path                                     |
//	|----------|------------------------------------------|
//	| 1        | ~/.openclaw/ (primary, live config)      |
//	| 2        | ~/.config/openclaw/                      |
//	| 3        | ~/Library/Application Support/openclaw/  |
//
// Snapshots are stored under ~/.openclaw_snapshots/ unless configured
// otherwise.
//
// Functions return empty values when the home directory cannot be resolved;
// use [ResolveHome] when the caller needs the error.
package paths
