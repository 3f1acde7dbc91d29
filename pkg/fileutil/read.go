package fileutil

import (
	"io"
	"os"

	"github.com/thoreinstein/ocsnap/internal/errors"
)

// MaxFileSize bounds small structured files such as snapshot.json and the
// config file.
const MaxFileSize int64 = 1 << 20

// ErrFileTooLarge indicates a file longer than the allowed limit.
var ErrFileTooLarge = errors.New("file too large")

// ReadFileWithLimit reads path, failing with ErrFileTooLarge when it is
// longer than MaxFileSize.
func ReadFileWithLimit(path string) ([]byte, error) {
	return ReadFileLimit(path, MaxFileSize)
}

// ReadFileLimit reads at most limit bytes of path. The size is checked with
// Stat first and again after reading, so a file that grows in between is
// still rejected. A missing file satisfies errors.Is(err, fs.ErrNotExist).
func ReadFileLimit(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() > limit {
		return nil, errors.Wrapf(ErrFileTooLarge, "%s is %d bytes, limit %d", path, info.Size(), limit)
	}

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}
	if int64(len(data)) > limit {
		return nil, errors.Wrapf(ErrFileTooLarge, "%s exceeds %d bytes", path, limit)
	}
	return data, nil
}
