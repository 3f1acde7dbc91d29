// Package snapshot captures, restores and transports snapshots of the
// OpenClaw configuration.
//
// A [Store] keeps one directory per snapshot under its root:
//
//	~/.openclaw_snapshots/
//	└── {name}_{YYYYMMDD_HHMMSS}/
//	    ├── .openclaw/          copy of each located source, by base name
//	    ├── openclaw/
//	    └── snapshot.json       the [Snapshot] record, written last
//
// A directory without a readable snapshot.json is not a snapshot and is
// ignored by [Store.List].
//
// # Capturing
//
// [Store.Capture] copies every path the [Locator] finds. Symlinks are
// recreated rather than followed, and the tree's size and [Checksum] are
// recorded:
//
//	store := snapshot.NewStore(root, snapshot.NewLocator(sources...))
//	snap, err := store.Capture("before-upgrade", "", snapshot.TypeCustom)
//
// # Restoring
//
// [Store.Restore] is destructive. It stops the application through a
// [ProcessProbe] when it is running, captures an "auto" safety snapshot of
// the live configuration, removes each target and copies the snapshot back.
// A failed safety capture aborts the restore before anything is removed.
//
// # Archives
//
// [Store.Export] writes a gzip tar whose single top-level directory is the
// snapshot id. [Store.Import] extracts into a staging directory, rejects
// entries that would land outside that directory, and then moves the
// snapshot into place, replacing one with the same id.
//
// # Errors
//
// Failures are reported with the sentinels [ErrNotFound],
// [ErrCorruptMetadata], [ErrUserCancelled], [ErrAlreadyExists],
// [ErrInvalidID] and [ErrUnsafeArchive]. File system failures are marked
// with [ErrIOFailure]; test them with errors.Is.
package snapshot
