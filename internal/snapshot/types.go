package snapshot

import (
	"time"

	"github.com/cockroachdb/errors"
)

// RecordVersion is the snapshot.json format version written by this binary.
const RecordVersion = 1

// MetadataFile is the name of the record stored in every snapshot directory.
const MetadataFile = "snapshot.json"

// TimestampLayout formats the second-resolution timestamp used in ids.
const TimestampLayout = "20060102_150405"

// ArchiveExt is appended to the id when exporting into a directory.
const ArchiveExt = ".tar.gz"

// Safety snapshot identity used by Restore.
const (
	SafetyName        = "auto_before_restore"
	SafetyDescription = "Automatic backup before restore"
)

// Type classifies a snapshot for display. It has no behavioral effect.
type Type string

// Snapshot types.
const (
	TypeFresh   Type = "fresh"
	TypeCurrent Type = "current"
	TypeCustom  Type = "custom"
	TypeAuto    Type = "auto"
)

// Types lists every known snapshot type.
var Types = []Type{TypeFresh, TypeCurrent, TypeCustom, TypeAuto}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	switch t {
	case TypeFresh, TypeCurrent, TypeCustom, TypeAuto:
		return true
	}
	return false
}

// Sentinel errors for snapshot operations.
var (
	// ErrNotFound indicates the snapshot, archive or source path does not exist.
	ErrNotFound = errors.New("snapshot not found")

	// ErrCorruptMetadata indicates snapshot.json is missing, unreadable or
	// cannot be parsed.
	ErrCorruptMetadata = errors.New("corrupt snapshot metadata")

	// ErrIOFailure marks copy, archive and filesystem errors. It is attached
	// with errors.Mark so the underlying cause stays in the chain.
	ErrIOFailure = errors.New("snapshot I/O failure")

	// ErrUserCancelled indicates the user declined a confirmation.
	ErrUserCancelled = errors.New("cancelled by user")

	// ErrAlreadyExists indicates a capture would reuse an existing id.
	ErrAlreadyExists = errors.New("snapshot already exists")

	// ErrInvalidID indicates an id or name that cannot name a store directory.
	ErrInvalidID = errors.New("invalid snapshot id")

	// ErrInvalidType indicates an unknown snapshot type.
	ErrInvalidType = errors.New("invalid snapshot type")

	// ErrUnsafeArchive indicates an archive entry that would escape the
	// snapshot directory or is not a plain file, directory or contained link.
	ErrUnsafeArchive = errors.New("unsafe archive entry")

	// ErrInvalidArchive indicates an archive that is empty or not a gzip tar.
	ErrInvalidArchive = errors.New("invalid snapshot archive")

	// ErrStillRunning indicates the application did not exit within the stop timeout.
	ErrStillRunning = errors.New("application still running")
)

// Snapshot is the metadata record stored as snapshot.json.
type Snapshot struct {
	// Version is the record format version. Legacy records without it load as 1.
	Version int `json:"version"`

	// ID is "{name}_{timestamp}" and names the storage directory.
	ID string `json:"id"`

	// Name is the user supplied label. Names are not unique.
	Name string `json:"name"`

	Description string `json:"description"`
	Type        Type   `json:"type"`

	// Timestamp is the capture time in TimestampLayout, used for sorting.
	Timestamp string `json:"timestamp"`

	CreatedAt time.Time `json:"created_at"`

	// Paths lists the captured source paths in locator order.
	Paths []string `json:"paths"`

	// Size is the total number of bytes of captured regular files.
	Size int64 `json:"size"`

	// Checksum is the 8 character tree fingerprint, or "empty".
	Checksum string `json:"checksum"`
}

// Diff summarizes the difference between two snapshots.
type Diff struct {
	Name1 string
	Name2 string

	// TimestampDiff reports whether the timestamp fields differ.
	TimestampDiff bool

	// TimeDiff is the creation time of the first minus the second. It can be
	// non-zero for equal timestamps, e.g. after an import.
	TimeDiff time.Duration

	// SizeDiff is size1 - size2 in bytes.
	SizeDiff int64

	ChecksumDiff bool
}

// ConfirmFunc asks the user whether a running process may be stopped.
type ConfirmFunc func(process string) (bool, error)

// RestoreOptions controls Restore.
type RestoreOptions struct {
	// Force stops a running application without calling Confirm.
	Force bool

	// Confirm is consulted when the application is running and Force is
	// false. A nil Confirm cancels the restore.
	Confirm ConfirmFunc
}

// RestoreResult reports what Restore did.
type RestoreResult struct {
	Snapshot *Snapshot

	// Safety is the automatic snapshot of the live configuration taken
	// before anything was replaced. Nil when nothing was live.
	Safety *Snapshot

	// Stopped reports whether the running application was stopped.
	Stopped bool

	// Targets lists the live paths that were replaced.
	Targets []string
}

// ImportResult reports what Import did.
type ImportResult struct {
	Snapshot *Snapshot

	// Replaced is true when a snapshot with the same id already existed.
	Replaced bool
}
