package snapshot

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// copyPath copies src to dst. Directories are copied recursively and merged
// into an existing dst, later files replacing earlier ones. Symlinks are
// recreated, never followed. Modes are preserved.
func copyPath(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return errors.Wrapf(err, "stat %s", src)
	}

	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		return copySymlink(src, dst)
	case info.IsDir():
		return copyDir(src, dst, info.Mode().Perm())
	case info.Mode().IsRegular():
		return copyFile(src, dst, info.Mode().Perm())
	default:
		// sockets, fifos and devices have no meaningful copy
		return nil
	}
}

// copyDir copies the tree under src into dst, creating dst if needed.
func copyDir(src, dst string, perm fs.FileMode) error {
	if err := replaceNonDir(dst); err != nil {
		return err
	}
	if err := os.MkdirAll(dst, 0o700); err != nil {
		return errors.Wrapf(err, "creating directory %s", dst)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, "reading directory %s", src)
	}
	for _, entry := range entries {
		if err := copyPath(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}

	// applied last so read-only directories can still be filled
	if err := os.Chmod(dst, perm); err != nil {
		return errors.Wrapf(err, "setting permissions on %s", dst)
	}
	return nil
}

// copyFile copies a single regular file with the given permissions.
func copyFile(src, dst string, perm fs.FileMode) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "opening source file %s", src)
	}
	defer srcFile.Close()

	if err := removeIfDir(dst); err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.Wrapf(err, "creating destination file %s", dst)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return errors.Wrapf(err, "copying %s", src)
	}
	if err := dstFile.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", dst)
	}

	if err := os.Chmod(dst, perm); err != nil {
		return errors.Wrapf(err, "setting permissions on %s", dst)
	}
	return nil
}

// copySymlink recreates the link at src as dst with the same target.
func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return errors.Wrapf(err, "reading link %s", src)
	}
	if err := os.RemoveAll(dst); err != nil {
		return errors.Wrapf(err, "replacing %s", dst)
	}
	if err := os.Symlink(target, dst); err != nil {
		return errors.Wrapf(err, "creating link %s", dst)
	}
	return nil
}

// replaceNonDir removes path when it exists and is not a directory.
func replaceNonDir(path string) error {
	info, err := os.Lstat(path)
	if err != nil || info.IsDir() {
		return nil //nolint:nilerr // absent is fine
	}
	if err := os.Remove(path); err != nil {
		return errors.Wrapf(err, "replacing %s", path)
	}
	return nil
}

// removeIfDir removes path when it is a directory or a symlink so a
// regular file can take its place.
func removeIfDir(path string) error {
	info, err := os.Lstat(path)
	if err != nil || info.Mode().IsRegular() {
		return nil //nolint:nilerr // absent is fine
	}
	if err := os.RemoveAll(path); err != nil {
		return errors.Wrapf(err, "replacing %s", path)
	}
	return nil
}
