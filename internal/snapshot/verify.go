package snapshot

import (
	"path/filepath"
)

// Verification compares a snapshot's payload with its record.
type Verification struct {
	Snapshot *Snapshot

	// Checksum and Size are recomputed from the payload on disk.
	Checksum string
	Size     int64
}

// OK reports whether the payload still matches the record.
func (v *Verification) OK() bool {
	return v.Checksum == v.Snapshot.Checksum && v.Size == v.Snapshot.Size
}

// Verify recomputes the checksum and size of a snapshot's payload.
func (s *Store) Verify(id string) (*Verification, error) {
	dir, err := s.snapshotDir(id)
	if err != nil {
		return nil, err
	}
	snap, err := readRecord(dir, s.logger)
	if err != nil {
		return nil, err
	}

	record := filepath.Join(dir, MetadataFile)
	sum, err := checksumTree(dir, record, s.logger)
	if err != nil {
		return nil, err
	}
	size, err := treeSize(dir, record)
	if err != nil {
		return nil, err
	}

	return &Verification{Snapshot: snap, Checksum: sum, Size: size}, nil
}
