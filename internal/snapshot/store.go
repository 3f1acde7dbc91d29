package snapshot

import (
	"cmp"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Default values for store options.
const (
	DefaultStopTimeout  = 5 * time.Second
	DefaultPollInterval = 200 * time.Millisecond
)

// storePerm is the mode of the store root and every snapshot directory.
const storePerm = 0o700

// Store manages the snapshots kept under a root directory.
type Store struct {
	root         string
	locator      *Locator
	probe        ProcessProbe
	process      string
	stopTimeout  time.Duration
	pollInterval time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithProcess sets the application name checked before a restore.
// An empty name disables the liveness check.
func WithProcess(name string) Option {
	return func(s *Store) {
		s.process = name
	}
}

// WithProcessProbe replaces the pgrep based probe.
func WithProcessProbe(p ProcessProbe) Option {
	return func(s *Store) {
		if p != nil {
			s.probe = p
		}
	}
}

// WithStopTimeout bounds how long Restore waits for a stopped application to exit.
func WithStopTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.stopTimeout = d
		}
	}
}

// WithPollInterval sets how often Restore re-checks a stopping application.
func WithPollInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithClock sets the time source used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger for diagnostic output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore returns a Store rooted at root that captures the locator's sources.
// The root is created on first capture or import.
func NewStore(root string, locator *Locator, opts ...Option) *Store {
	if locator == nil {
		locator = NewLocator()
	}
	s := &Store{
		root:         filepath.Clean(root),
		locator:      locator,
		probe:        NewExecProbe(),
		stopTimeout:  DefaultStopTimeout,
		pollInterval: DefaultPollInterval,
		now:          time.Now,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// Locator returns the source locator.
func (s *Store) Locator() *Locator {
	return s.locator
}

// Path returns the directory of the snapshot with the given id.
func (s *Store) Path(id string) string {
	return filepath.Join(s.root, id)
}

// Capture copies every located source into a new snapshot.
//
// The snapshot is written as root/{name}_{timestamp}/ with one entry per
// source, named after the source's base name, followed by snapshot.json.
// When no source exists the snapshot is empty and its checksum is "empty".
// On a copy error the partial directory is left in place and the returned
// error is marked ErrIOFailure.
func (s *Store) Capture(name, description string, typ Type) (*Snapshot, error) {
	if err := validateID(name); err != nil {
		return nil, errors.Wrap(err, "snapshot name")
	}
	if typ == "" {
		typ = TypeCustom
	}
	if !typ.Valid() {
		return nil, errors.Wrapf(ErrInvalidType, "%q", typ)
	}

	now := s.now()
	timestamp := now.Format(TimestampLayout)
	id := name + "_" + timestamp
	dest := s.Path(id)

	if err := os.MkdirAll(s.root, storePerm); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "creating snapshot store"), ErrIOFailure)
	}
	if err := os.Mkdir(dest, storePerm); err != nil {
		if os.IsExist(err) {
			return nil, errors.Wrapf(ErrAlreadyExists, "%s", id)
		}
		return nil, errors.Mark(errors.Wrap(err, "creating snapshot directory"), ErrIOFailure)
	}

	sources := s.locator.Locate()
	for _, src := range sources {
		from := s.resolveSource(src)
		s.logger.Debug("capturing source", "id", id, "source", src, "resolved", from)
		if err := copyPath(from, filepath.Join(dest, filepath.Base(src))); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "capturing %s", src), ErrIOFailure)
		}
	}

	size, err := treeSize(dest, "")
	if err != nil {
		return nil, err
	}
	sum, err := checksum(dest, s.logger)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Version:     RecordVersion,
		ID:          id,
		Name:        name,
		Description: description,
		Type:        typ,
		Timestamp:   timestamp,
		CreatedAt:   now,
		Paths:       sources,
		Size:        size,
		Checksum:    sum,
	}
	if err := writeRecord(dest, snap); err != nil {
		return nil, err
	}

	s.logger.Info("snapshot created", "id", id, "size", size, "checksum", sum, "sources", len(sources))
	return snap, nil
}

// resolveSource follows a source that is itself a symlink, so a linked
// configuration directory is captured by content. Links below the top level
// are copied as links. A dangling link is captured as the link.
func (s *Store) resolveSource(src string) string {
	info, err := os.Lstat(src)
	if err != nil || info.Mode()&fs.ModeSymlink == 0 {
		return src
	}
	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		s.logger.Warn("source link cannot be resolved, capturing the link", "source", src, "error", err)
		return src
	}
	return resolved
}

// Get returns the record of the snapshot with the given id.
func (s *Store) Get(id string) (*Snapshot, error) {
	dir, err := s.snapshotDir(id)
	if err != nil {
		return nil, err
	}
	snap, err := readRecord(dir, s.logger)
	if err != nil {
		return nil, errors.Wrapf(err, "snapshot %s", id)
	}
	return snap, nil
}

// List returns every snapshot, newest first. Entries that are not
// directories or lack a readable record are skipped. A missing store root
// yields an empty list.
func (s *Store) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []Snapshot{}, nil
		}
		return nil, errors.Mark(errors.Wrap(err, "reading snapshot store"), ErrIOFailure)
	}

	snaps := make([]Snapshot, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		snap, err := readRecord(filepath.Join(s.root, entry.Name()), s.logger)
		if err != nil {
			s.logger.Debug("skipping directory without valid metadata", "dir", entry.Name(), "error", err)
			continue
		}
		snaps = append(snaps, *snap)
	}

	slices.SortFunc(snaps, func(a, b Snapshot) int {
		if c := cmp.Compare(b.Timestamp, a.Timestamp); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return snaps, nil
}

// Latest returns the newest snapshot, or ErrNotFound when the store is empty.
func (s *Store) Latest() (*Snapshot, error) {
	snaps, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, errors.Wrap(ErrNotFound, "store is empty")
	}
	return &snaps[0], nil
}

// Delete removes the snapshot directory.
func (s *Store) Delete(id string) error {
	dir, err := s.snapshotDir(id)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return errors.Mark(errors.Wrapf(err, "deleting snapshot %s", id), ErrIOFailure)
	}
	s.logger.Info("snapshot deleted", "id", id)
	return nil
}

// Compare reports how the first snapshot differs from the second.
func (s *Store) Compare(id1, id2 string) (*Diff, error) {
	a, err := s.Get(id1)
	if err != nil {
		return nil, err
	}
	b, err := s.Get(id2)
	if err != nil {
		return nil, err
	}

	return &Diff{
		Name1:         a.Name,
		Name2:         b.Name,
		TimestampDiff: a.Timestamp != b.Timestamp,
		TimeDiff:      a.CreatedAt.Sub(b.CreatedAt),
		SizeDiff:      a.Size - b.Size,
		ChecksumDiff:  a.Checksum != b.Checksum,
	}, nil
}

// snapshotDir validates id and returns its directory, or ErrNotFound.
func (s *Store) snapshotDir(id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	dir := s.Path(id)
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(ErrNotFound, "%s", id)
		}
		return "", errors.Mark(errors.Wrapf(err, "stat snapshot %s", id), ErrIOFailure)
	}
	if !info.IsDir() {
		return "", errors.Wrapf(ErrNotFound, "%s", id)
	}
	return dir, nil
}
