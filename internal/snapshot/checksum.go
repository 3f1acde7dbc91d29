package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/cockroachdb/errors"
)

// ChecksumLen is the number of hex characters kept from the digest.
const ChecksumLen = 8

// EmptyChecksum is reported for a directory with no hashable files.
const EmptyChecksum = "empty"

// Checksum returns a short content fingerprint of path.
//
// A regular file hashes its bytes. A directory hashes the concatenated
// digests of every regular file beneath it, visited in path order, so the
// result depends on content and layout but not on timestamps or modes.
// Symlinks are not followed. The value detects change; it is not a
// security boundary.
func Checksum(path string) (string, error) {
	return checksum(path, slog.Default())
}

func checksum(path string, logger *slog.Logger) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(ErrNotFound, "%s", path)
		}
		return "", errors.Mark(errors.Wrapf(err, "stat %s", path), ErrIOFailure)
	}

	if !info.IsDir() {
		sum, err := hashFile(path)
		if err != nil {
			return "", errors.Mark(err, ErrIOFailure)
		}
		return sum[:ChecksumLen], nil
	}

	return checksumTree(path, "", logger)
}

// checksumTree hashes the regular files under root except exclude.
func checksumTree(root, exclude string, logger *slog.Logger) (string, error) {
	files, err := regularFiles(root, exclude)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	hashed := 0
	for _, f := range files {
		sum, err := hashFile(f)
		if err != nil {
			logger.Debug("skipping unreadable file", "path", f, "error", err)
			continue
		}
		io.WriteString(h, sum)
		hashed++
	}

	if hashed == 0 {
		return EmptyChecksum, nil
	}
	return hex.EncodeToString(h.Sum(nil))[:ChecksumLen], nil
}

// regularFiles lists every regular file under root except exclude, sorted
// component by component so the order matches a depth-first walk.
func regularFiles(root, exclude string) ([]string, error) {
	var (
		mu    sync.Mutex
		files []string
	)

	conf := fastwalk.Config{
		Follow: false,
	}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if !d.Type().IsRegular() || path == exclude {
			return nil
		}
		mu.Lock()
		files = append(files, path)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "walking %s", root), ErrIOFailure)
	}

	slices.SortFunc(files, comparePaths)
	return files, nil
}

// treeSize returns the total size of the regular files under root except exclude.
func treeSize(root, exclude string) (int64, error) {
	var (
		mu   sync.Mutex
		size int64
	)

	conf := fastwalk.Config{
		Follow: false,
	}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() || path == exclude {
			return nil //nolint:nilerr // unreadable entries are not counted
		}
		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // file vanished mid-walk
		}
		mu.Lock()
		size += info.Size()
		mu.Unlock()
		return nil
	})
	if err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "walking %s", root), ErrIOFailure)
	}
	return size, nil
}

// comparePaths orders paths element by element, so "a/b" sorts before "a.txt".
func comparePaths(a, b string) int {
	return slices.Compare(
		strings.Split(filepath.ToSlash(a), "/"),
		strings.Split(filepath.ToSlash(b), "/"),
	)
}

// hashFile returns the hex SHA-256 digest of a file's contents.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "opening file")
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, "reading file")
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
