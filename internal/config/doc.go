// Package config loads ocsnap's own settings.
//
// The configuration file lives at <ConfigHome>/ocsnap/config.yaml (see
// package paths) and every key can be overridden with an OCSNAP_ prefixed
// environment variable:
//
//	version: 1
//	store_dir: ~/.openclaw_snapshots
//	sources:
//	  - ~/.openclaw
//	  - ~/.config/openclaw
//	  - ~/Library/Application Support/openclaw
//	process_name: openclaw
//	stop_timeout: 5s
//
// [Load] falls back to [Default] values when no file exists. [Validate]
// reports every problem at once rather than stopping at the first.
package config
