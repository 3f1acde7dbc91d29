package snapshot

import (
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/ocsnap/pkg/fileutil"
)

// metadataPerm is the file mode of snapshot.json.
const metadataPerm = 0o600

// readRecord loads the record stored in dir. The returned snapshot's ID is
// the directory name, which is what every store operation keys on.
func readRecord(dir string, logger *slog.Logger) (*Snapshot, error) {
	data, err := fileutil.ReadFileWithLimit(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "reading %s", MetadataFile), ErrCorruptMetadata)
	}

	snap, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}

	id := filepath.Base(dir)
	if snap.ID != id {
		logger.Debug("record id differs from directory", "record_id", snap.ID, "dir", id)
		snap.ID = id
	}
	if snap.Version > RecordVersion {
		logger.Debug("snapshot record written by a newer version", "id", id, "version", snap.Version)
	}
	return snap, nil
}

// decodeRecord parses snapshot.json bytes.
func decodeRecord(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "parsing %s", MetadataFile), ErrCorruptMetadata)
	}
	if snap.Version == 0 {
		snap.Version = 1
	}
	if snap.Paths == nil {
		snap.Paths = []string{}
	}
	return &snap, nil
}

// writeRecord atomically stores snap as dir/snapshot.json.
func writeRecord(dir string, snap *Snapshot) error {
	path := filepath.Join(dir, MetadataFile)
	if err := fileutil.AtomicWriteJSONWithPerm(path, snap, metadataPerm); err != nil {
		return errors.Mark(errors.Wrap(err, "writing snapshot metadata"), ErrIOFailure)
	}
	return nil
}

// validateID rejects ids that cannot name a direct child of the store root.
func validateID(id string) error {
	switch {
	case id == "", id == ".", id == "..":
		return errors.Wrapf(ErrInvalidID, "%q", id)
	case strings.ContainsAny(id, `/\`):
		return errors.Wrapf(ErrInvalidID, "%q contains a path separator", id)
	case strings.ContainsRune(id, 0):
		return errors.Wrapf(ErrInvalidID, "%q contains a NUL byte", id)
	}
	return nil
}
