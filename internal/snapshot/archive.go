package snapshot

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"

	"github.com/thoreinstein/ocsnap/pkg/fileutil"
)

// archivePerm is the mode of exported archives.
const archivePerm = 0o600

// Export writes the snapshot as a gzip-compressed tar with a single top-level
// directory named after the id. When dest is an existing directory the
// archive is created inside it as {id}.tar.gz. It returns the archive path.
func (s *Store) Export(id, dest string) (string, error) {
	dir, err := s.snapshotDir(id)
	if err != nil {
		return "", err
	}

	target := dest
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		target = filepath.Join(dest, id+ArchiveExt)
	}

	err = fileutil.AtomicWrite(target, archivePerm, func(w io.Writer) error {
		return writeArchive(w, dir, id)
	})
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "exporting %s", id), ErrIOFailure)
	}

	s.logger.Info("snapshot exported", "id", id, "archive", target)
	return target, nil
}

// writeArchive streams the tree at dir into w, rooted at prefix.
func writeArchive(w io.Writer, dir, prefix string) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		name := prefix
		if rel != "." {
			name = path.Join(prefix, filepath.ToSlash(rel))
		}
		return addEntry(tw, p, name, d)
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return errors.Wrap(err, "closing tar stream")
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "closing gzip stream")
	}
	return nil
}

// addEntry writes one file system entry to the tar stream.
func addEntry(tw *tar.Writer, p, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(p); err != nil {
			return errors.Wrapf(err, "reading link %s", p)
		}
	} else if !info.IsDir() && !info.Mode().IsRegular() {
		return nil
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return errors.Wrapf(err, "tar header for %s", p)
	}
	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
	}
	hdr.Uname, hdr.Gname = "", ""

	if err := tw.WriteHeader(hdr); err != nil {
		return errors.Wrapf(err, "writing header for %s", name)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(p)
	if err != nil {
		return errors.Wrapf(err, "opening %s", p)
	}
	defer f.Close()
	if _, err := io.Copy(tw, f); err != nil {
		return errors.Wrapf(err, "archiving %s", p)
	}
	return nil
}

// Import extracts an archive produced by Export into the store.
//
// The id is the first path component of the first entry. Every entry must
// stay under that directory; absolute paths, ".." components, hard links,
// devices and symlinks pointing outside the snapshot fail with
// ErrUnsafeArchive. Extraction happens in a staging directory inside the
// store, so a rejected archive leaves the store unchanged. An existing
// snapshot with the same id is replaced.
func (s *Store) Import(archivePath string) (*ImportResult, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "archive %s", archivePath)
		}
		return nil, errors.Mark(errors.Wrapf(err, "opening archive %s", archivePath), ErrIOFailure)
	}
	defer f.Close()

	if err := os.MkdirAll(s.root, storePerm); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "creating snapshot store"), ErrIOFailure)
	}
	staging, err := os.MkdirTemp(s.root, ".import-*")
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "creating staging directory"), ErrIOFailure)
	}
	defer os.RemoveAll(staging)

	id, err := extractArchive(f, staging)
	if err != nil {
		return nil, errors.Wrapf(err, "importing %s", archivePath)
	}

	extracted := filepath.Join(staging, id)
	snap, err := readRecord(extracted, s.logger)
	if err != nil {
		return nil, errors.Wrapf(err, "importing %s", archivePath)
	}

	result := &ImportResult{Snapshot: snap}
	dest := s.Path(id)
	if _, err := os.Lstat(dest); err == nil {
		s.logger.Warn("replacing existing snapshot", "id", id)
		if err := os.RemoveAll(dest); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "removing existing snapshot %s", id), ErrIOFailure)
		}
		result.Replaced = true
	}
	if err := os.Rename(extracted, dest); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "moving snapshot %s into store", id), ErrIOFailure)
	}

	s.logger.Info("snapshot imported", "id", id, "archive", archivePath, "replaced", result.Replaced)
	return result, nil
}

// extractArchive unpacks a gzip tar stream into dest and returns the id of
// the single top-level directory.
func extractArchive(r io.Reader, dest string) (string, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "reading gzip stream"), ErrInvalidArchive)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	var id string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			return "", errors.Wrapf(ErrUnsafeArchive, "%q", hdr.Name)
		}
		if err != nil {
			return "", errors.Mark(errors.Wrap(err, "reading tar stream"), ErrInvalidArchive)
		}
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		name, err := entryName(hdr.Name)
		if err != nil {
			return "", err
		}
		first, _, _ := strings.Cut(name, "/")
		if id == "" {
			if err := validateID(first); err != nil {
				return "", errors.Wrapf(ErrUnsafeArchive, "top-level entry %q", hdr.Name)
			}
			id = first
		} else if first != id {
			return "", errors.Wrapf(ErrUnsafeArchive, "%q is outside %s/", hdr.Name, id)
		}

		if err := extractEntry(tr, hdr, dest, id, name); err != nil {
			return "", err
		}
	}

	if id == "" {
		return "", errors.Wrap(ErrInvalidArchive, "archive is empty")
	}
	return id, nil
}

// entryName cleans an archive path and rejects absolute or escaping names.
func entryName(raw string) (string, error) {
	if raw == "" || path.IsAbs(raw) || strings.Contains(raw, `\`) || filepath.VolumeName(raw) != "" {
		return "", errors.Wrapf(ErrUnsafeArchive, "%q", raw)
	}
	for _, part := range strings.Split(raw, "/") {
		if part == ".." {
			return "", errors.Wrapf(ErrUnsafeArchive, "%q", raw)
		}
	}
	name := path.Clean(raw)
	if name == "." {
		return "", errors.Wrapf(ErrUnsafeArchive, "%q", raw)
	}
	return name, nil
}

// extractEntry materializes one tar entry under dest.
func extractEntry(tr *tar.Reader, hdr *tar.Header, dest, id, name string) error {
	target := filepath.Join(dest, filepath.FromSlash(name))
	perm := fs.FileMode(hdr.Mode).Perm()

	if throughSymlink(dest, name) {
		return errors.Wrapf(ErrUnsafeArchive, "%q is written through a link", hdr.Name)
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(target, perm|0o700); err != nil {
			return errors.Mark(errors.Wrapf(err, "creating %s", name), ErrIOFailure)
		}
		return nil

	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), storePerm); err != nil {
			return errors.Mark(errors.Wrapf(err, "creating parent of %s", name), ErrIOFailure)
		}
		if err := removeIfDir(target); err != nil {
			return errors.Mark(err, ErrIOFailure)
		}
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "creating %s", name), ErrIOFailure)
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return errors.Mark(errors.Wrapf(err, "extracting %s", name), ErrIOFailure)
		}
		if err := out.Close(); err != nil {
			return errors.Mark(errors.Wrapf(err, "closing %s", name), ErrIOFailure)
		}
		return nil

	case tar.TypeSymlink:
		link := hdr.Linkname
		resolved := path.Join(path.Dir(name), link)
		if path.IsAbs(link) || (resolved != id && !strings.HasPrefix(resolved, id+"/")) {
			return errors.Wrapf(ErrUnsafeArchive, "link %q -> %q leaves the snapshot", hdr.Name, link)
		}
		if err := os.MkdirAll(filepath.Dir(target), storePerm); err != nil {
			return errors.Mark(errors.Wrapf(err, "creating parent of %s", name), ErrIOFailure)
		}
		if err := os.RemoveAll(target); err != nil {
			return errors.Mark(errors.Wrapf(err, "replacing %s", name), ErrIOFailure)
		}
		if err := os.Symlink(filepath.FromSlash(link), target); err != nil {
			return errors.Mark(errors.Wrapf(err, "creating link %s", name), ErrIOFailure)
		}
		return nil

	default:
		return errors.Wrapf(ErrUnsafeArchive, "%q has unsupported type %q", hdr.Name, string(hdr.Typeflag))
	}
}

// throughSymlink reports whether any parent of name under dest is a symlink.
func throughSymlink(dest, name string) bool {
	p := dest
	parts := strings.Split(name, "/")
	for _, part := range parts[:len(parts)-1] {
		p = filepath.Join(p, part)
		info, err := os.Lstat(p)
		if err != nil {
			return false
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return true
		}
	}
	return false
}
