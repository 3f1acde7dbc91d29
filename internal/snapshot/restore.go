package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Restore replaces the live configuration with the contents of a snapshot.
//
// If the application is running it is stopped first, with Confirm consulted
// unless Force is set. When any source exists, an "auto" snapshot of it is
// captured before anything is removed; if that fails the restore aborts.
// The primary directory is then removed, along with every candidate named
// by a snapshot entry. Each entry replaces the candidate with the same base
// name, or is copied into the fresh primary directory when none matches, so
// an empty snapshot leaves no primary directory behind.
//
// The live paths are removed before the copy starts. An interruption between
// the two leaves them absent; the safety snapshot is the recovery path.
func (s *Store) Restore(ctx context.Context, id string, opts RestoreOptions) (*RestoreResult, error) {
	dir, err := s.snapshotDir(id)
	if err != nil {
		return nil, err
	}
	snap, err := readRecord(dir, s.logger)
	if err != nil {
		return nil, errors.Wrapf(err, "snapshot %s", id)
	}

	result := &RestoreResult{Snapshot: snap}

	stopped, err := s.ensureStopped(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Stopped = stopped

	if len(s.locator.Locate()) > 0 {
		safety, err := s.Capture(SafetyName, SafetyDescription, TypeAuto)
		if err != nil {
			return nil, errors.Wrap(err, "creating safety snapshot, restore aborted")
		}
		result.Safety = safety
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "reading snapshot %s", id), ErrIOFailure)
	}

	type move struct {
		src, dst  string
		candidate bool
	}
	var moves []move
	for _, entry := range entries {
		name := entry.Name()
		if name == MetadataFile || strings.HasPrefix(name, ".ocsnap-") {
			continue
		}
		target, candidate := s.locator.target(name)
		if !candidate && s.locator.Primary() == "" {
			return nil, errors.Newf("no configuration directory to restore %s into", name)
		}
		moves = append(moves, move{src: filepath.Join(dir, name), dst: target, candidate: candidate})
	}

	doomed := make([]string, 0, len(moves)+1)
	if primary := s.locator.Primary(); primary != "" {
		doomed = append(doomed, primary)
	}
	for _, m := range moves {
		if m.candidate {
			doomed = append(doomed, m.dst)
		}
	}
	for _, path := range doomed {
		if err := os.RemoveAll(path); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "removing %s", path), ErrIOFailure)
		}
	}

	for _, m := range moves {
		if err := os.MkdirAll(filepath.Dir(m.dst), storePerm); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "creating %s", filepath.Dir(m.dst)), ErrIOFailure)
		}
		s.logger.Debug("restoring entry", "id", id, "target", m.dst)
		if err := copyPath(m.src, m.dst); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "restoring %s", m.dst), ErrIOFailure)
		}
		result.Targets = append(result.Targets, m.dst)
	}

	s.logger.Info("snapshot restored", "id", id, "targets", len(result.Targets))
	return result, nil
}

// ensureStopped makes sure the configured application is not running.
// It reports whether the application had to be stopped.
func (s *Store) ensureStopped(ctx context.Context, opts RestoreOptions) (bool, error) {
	if s.process == "" {
		return false, nil
	}

	running, err := s.probe.Running(ctx, s.process)
	if err != nil {
		s.logger.Debug("process check failed, assuming not running", "process", s.process, "error", err)
		return false, nil
	}
	if !running {
		return false, nil
	}

	s.logger.Warn("application is running", "process", s.process)
	if !opts.Force {
		if opts.Confirm == nil {
			return false, errors.Wrapf(ErrUserCancelled, "%s is running", s.process)
		}
		ok, err := opts.Confirm(s.process)
		if err != nil {
			return false, errors.Wrap(err, "confirming stop")
		}
		if !ok {
			return false, errors.Wrapf(ErrUserCancelled, "%s is running", s.process)
		}
	}

	if err := s.probe.Stop(ctx, s.process); err != nil {
		s.logger.Warn("stopping application failed", "process", s.process, "error", err)
	}

	return true, s.waitStopped(ctx, opts.Force)
}

// waitStopped polls the probe until the application exits or the stop
// timeout elapses. On timeout a forced restore continues with a warning;
// otherwise ErrStillRunning is returned before anything is modified.
func (s *Store) waitStopped(ctx context.Context, force bool) error {
	deadline := time.NewTimer(s.stopTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		running, err := s.probe.Running(ctx, s.process)
		if err != nil || !running {
			return nil //nolint:nilerr // probe failures count as stopped
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			if force {
				s.logger.Warn("application still running after stop timeout, continuing", "process", s.process, "timeout", s.stopTimeout)
				return nil
			}
			return errors.Wrapf(ErrStillRunning, "%s did not exit within %s", s.process, s.stopTimeout)
		case <-ticker.C:
		}
	}
}
