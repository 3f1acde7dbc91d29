package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/mock"
)

func TestRestore_Scenario(t *testing.T) {
	f := newFixture(t)
	config := filepath.Join(f.primary, "config.json")

	writeFile(t, config, "A")
	a, err := f.store.Capture("a", "", TypeCustom)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, config, "B")
	b, err := f.store.Capture("b", "", TypeCustom)
	if err != nil {
		t.Fatal(err)
	}

	diff, err := f.store.Compare(a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !diff.ChecksumDiff {
		t.Fatal("A and B should differ")
	}

	result, err := f.store.Restore(context.Background(), a.ID, RestoreOptions{})
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if got := readFile(t, config); got != "A" {
		t.Errorf("live config = %q, want %q", got, "A")
	}
	if result.Safety == nil {
		t.Fatal("Safety = nil, want auto snapshot")
	}
	if result.Safety.Type != TypeAuto || result.Safety.Name != SafetyName {
		t.Errorf("Safety = %+v, want type auto named %s", result.Safety, SafetyName)
	}
	if result.Safety.Checksum != b.Checksum {
		t.Errorf("safety checksum = %s, want live state %s", result.Safety.Checksum, b.Checksum)
	}
	if result.Stopped {
		t.Error("Stopped = true with no process configured")
	}

	snaps, err := f.store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 3 || snaps[0].Type != TypeAuto {
		t.Errorf("List() = %+v, want 3 snapshots with the auto one newest", snaps)
	}
}

func TestRestore_ReplacesWholesale(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.primary, "keep.json"), "v1")
	writeFile(t, filepath.Join(f.secondary, "settings.yaml"), "v1")
	snap, err := f.store.Capture("base", "", TypeCustom)
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(f.primary, "keep.json"), "v2")
	writeFile(t, filepath.Join(f.primary, "added.json"), "new")
	writeFile(t, filepath.Join(f.secondary, "settings.yaml"), "v2")

	result, err := f.store.Restore(context.Background(), snap.ID, RestoreOptions{})
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if got := readFile(t, filepath.Join(f.primary, "keep.json")); got != "v1" {
		t.Errorf("keep.json = %q, want v1", got)
	}
	if exists(filepath.Join(f.primary, "added.json")) {
		t.Error("added.json survived restore, want primary replaced wholesale")
	}
	if got := readFile(t, filepath.Join(f.secondary, "settings.yaml")); got != "v1" {
		t.Errorf("settings.yaml = %q, want v1", got)
	}
	if exists(filepath.Join(f.primary, ".openclaw")) {
		t.Error("primary was nested inside itself")
	}
	if len(result.Targets) != 2 {
		t.Errorf("Targets = %v, want 2 entries", result.Targets)
	}
}

func TestRestore_UnmatchedEntryGoesIntoPrimary(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.primary, "config.json"), "{}")

	// snapshot produced elsewhere with an entry no candidate is named after
	id := "imported_20260101_000000"
	dir := f.store.Path(id)
	writeFile(t, filepath.Join(dir, "extras", "note.txt"), "hi")
	if err := writeRecord(dir, &Snapshot{ID: id, Name: "imported", Timestamp: "20260101_000000"}); err != nil {
		t.Fatal(err)
	}

	if _, err := f.store.Restore(context.Background(), id, RestoreOptions{}); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if got := readFile(t, filepath.Join(f.primary, "extras", "note.txt")); got != "hi" {
		t.Errorf("note.txt = %q, want hi", got)
	}
	if exists(filepath.Join(f.primary, "config.json")) {
		t.Error("config.json survived restore, want primary cleared before the copy")
	}
}

func TestRestore_EmptySnapshotClearsLive(t *testing.T) {
	f := newFixture(t)
	fresh, err := f.store.Capture("fresh", "before install", TypeFresh)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Checksum != EmptyChecksum {
		t.Fatalf("fresh checksum = %s, want %s", fresh.Checksum, EmptyChecksum)
	}

	writeFile(t, filepath.Join(f.primary, "cfg.json"), `{"model":"a"}`)
	writeFile(t, filepath.Join(f.secondary, "settings.yaml"), "x: 1")

	result, err := f.store.Restore(context.Background(), fresh.ID, RestoreOptions{})
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if exists(f.primary) {
		t.Error("primary still exists after restoring an empty snapshot")
	}
	if !exists(filepath.Join(f.secondary, "settings.yaml")) {
		t.Error("secondary removed, want only the primary cleared")
	}
	if len(result.Targets) != 0 {
		t.Errorf("Targets = %v, want none", result.Targets)
	}
	if result.Safety == nil || result.Safety.Size == 0 {
		t.Fatalf("Safety = %+v, want a non-empty auto snapshot", result.Safety)
	}
	saved := filepath.Join(f.store.Path(result.Safety.ID), ".openclaw", "cfg.json")
	if got := readFile(t, saved); got != `{"model":"a"}` {
		t.Errorf("safety copy of cfg.json = %q", got)
	}
}

func TestRestore_UnknownIDLeavesLiveIntact(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.primary, "config.json"), `{"a":1}`)
	before := mustChecksum(t, f.primary)

	_, err := f.store.Restore(context.Background(), "nope_20260101_000000", RestoreOptions{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Restore() error = %v, want ErrNotFound", err)
	}
	if after := mustChecksum(t, f.primary); after != before {
		t.Errorf("live checksum = %s, want %s", after, before)
	}
	if exists(f.root) {
		t.Error("store root created by a failed restore")
	}
}

func TestRestore_CorruptMetadata(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.root, "bad", MetadataFile), "nope")

	_, err := f.store.Restore(context.Background(), "bad", RestoreOptions{})
	if !errors.Is(err, ErrCorruptMetadata) {
		t.Errorf("Restore() error = %v, want ErrCorruptMetadata", err)
	}
}

func TestRestore_NoLiveConfigSkipsSafety(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.primary, "config.json"), "A")
	snap, err := f.store.Capture("a", "", TypeCustom)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(f.primary); err != nil {
		t.Fatal(err)
	}

	result, err := f.store.Restore(context.Background(), snap.ID, RestoreOptions{})
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if result.Safety != nil {
		t.Errorf("Safety = %+v, want nil", result.Safety)
	}
	if got := readFile(t, filepath.Join(f.primary, "config.json")); got != "A" {
		t.Errorf("config.json = %q, want A", got)
	}
}

func TestRestore_SafetyFailureAborts(t *testing.T) {
	f := newFixture(t)
	config := filepath.Join(f.primary, "config.json")
	writeFile(t, config, "A")
	snap, err := f.store.Capture("a", "", TypeCustom)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, config, "B")

	// occupy the id the safety snapshot will get
	next := f.clock.peek().Format(TimestampLayout)
	if err := os.MkdirAll(f.store.Path(SafetyName+"_"+next), 0o700); err != nil {
		t.Fatal(err)
	}

	_, err = f.store.Restore(context.Background(), snap.ID, RestoreOptions{})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("Restore() error = %v, want safety capture error", err)
	}
	if got := readFile(t, config); got != "B" {
		t.Errorf("live config = %q, want untouched B", got)
	}
}

func TestRestore_RunningApplication(t *testing.T) {
	const process = "openclaw"

	capture := func(t *testing.T, f *fixture) *Snapshot {
		t.Helper()
		writeFile(t, filepath.Join(f.primary, "config.json"), "A")
		snap, err := f.store.Capture("a", "", TypeCustom)
		if err != nil {
			t.Fatal(err)
		}
		writeFile(t, filepath.Join(f.primary, "config.json"), "B")
		return snap
	}

	t.Run("confirmed stop", func(t *testing.T) {
		probe := NewMockProcessProbe(t)
		probe.EXPECT().Running(mock.Anything, process).Return(true, nil).Once()
		probe.EXPECT().Stop(mock.Anything, process).Return(nil)
		probe.EXPECT().Running(mock.Anything, process).Return(false, nil).Once()

		f := newFixture(t, WithProcess(process), WithProcessProbe(probe), WithPollInterval(time.Millisecond))
		snap := capture(t, f)

		var asked string
		result, err := f.store.Restore(context.Background(), snap.ID, RestoreOptions{
			Confirm: func(name string) (bool, error) {
				asked = name
				return true, nil
			},
		})
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if asked != process {
			t.Errorf("Confirm called with %q, want %q", asked, process)
		}
		if !result.Stopped {
			t.Error("Stopped = false, want true")
		}
		if got := readFile(t, filepath.Join(f.primary, "config.json")); got != "A" {
			t.Errorf("config.json = %q, want A", got)
		}
	})

	t.Run("declined", func(t *testing.T) {
		probe := NewMockProcessProbe(t)
		probe.EXPECT().Running(mock.Anything, process).Return(true, nil).Once()

		f := newFixture(t, WithProcess(process), WithProcessProbe(probe))
		snap := capture(t, f)

		_, err := f.store.Restore(context.Background(), snap.ID, RestoreOptions{
			Confirm: func(string) (bool, error) { return false, nil },
		})
		if !errors.Is(err, ErrUserCancelled) {
			t.Errorf("Restore() error = %v, want ErrUserCancelled", err)
		}
		if got := readFile(t, filepath.Join(f.primary, "config.json")); got != "B" {
			t.Errorf("config.json = %q, want untouched B", got)
		}
		snaps, _ := f.store.List()
		if len(snaps) != 1 {
			t.Errorf("List() has %d snapshots, want no safety snapshot", len(snaps))
		}
	})

	t.Run("no confirm callback", func(t *testing.T) {
		probe := NewMockProcessProbe(t)
		probe.EXPECT().Running(mock.Anything, process).Return(true, nil).Once()

		f := newFixture(t, WithProcess(process), WithProcessProbe(probe))
		snap := capture(t, f)

		_, err := f.store.Restore(context.Background(), snap.ID, RestoreOptions{})
		if !errors.Is(err, ErrUserCancelled) {
			t.Errorf("Restore() error = %v, want ErrUserCancelled", err)
		}
	})

	t.Run("force skips confirm", func(t *testing.T) {
		probe := NewMockProcessProbe(t)
		probe.EXPECT().Running(mock.Anything, process).Return(true, nil).Once()
		probe.EXPECT().Stop(mock.Anything, process).Return(nil)
		probe.EXPECT().Running(mock.Anything, process).Return(false, nil).Once()

		f := newFixture(t, WithProcess(process), WithProcessProbe(probe), WithPollInterval(time.Millisecond))
		snap := capture(t, f)

		_, err := f.store.Restore(context.Background(), snap.ID, RestoreOptions{
			Force: true,
			Confirm: func(string) (bool, error) {
				t.Error("Confirm called with Force set")
				return false, nil
			},
		})
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
	})

	t.Run("still running after timeout", func(t *testing.T) {
		probe := NewMockProcessProbe(t)
		probe.EXPECT().Running(mock.Anything, process).Return(true, nil)
		probe.EXPECT().Stop(mock.Anything, process).Return(nil)

		f := newFixture(t, WithProcess(process), WithProcessProbe(probe),
			WithPollInterval(time.Millisecond), WithStopTimeout(20*time.Millisecond))
		snap := capture(t, f)

		_, err := f.store.Restore(context.Background(), snap.ID, RestoreOptions{
			Confirm: func(string) (bool, error) { return true, nil },
		})
		if !errors.Is(err, ErrStillRunning) {
			t.Errorf("Restore() error = %v, want ErrStillRunning", err)
		}
		if got := readFile(t, filepath.Join(f.primary, "config.json")); got != "B" {
			t.Errorf("config.json = %q, want untouched B", got)
		}
	})

	t.Run("forced continues after timeout", func(t *testing.T) {
		probe := NewMockProcessProbe(t)
		probe.EXPECT().Running(mock.Anything, process).Return(true, nil)
		probe.EXPECT().Stop(mock.Anything, process).Return(errors.New("permission denied"))

		f := newFixture(t, WithProcess(process), WithProcessProbe(probe),
			WithPollInterval(time.Millisecond), WithStopTimeout(20*time.Millisecond))
		snap := capture(t, f)

		if _, err := f.store.Restore(context.Background(), snap.ID, RestoreOptions{Force: true}); err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if got := readFile(t, filepath.Join(f.primary, "config.json")); got != "A" {
			t.Errorf("config.json = %q, want A", got)
		}
	})

	t.Run("probe failure counts as not running", func(t *testing.T) {
		probe := NewMockProcessProbe(t)
		probe.EXPECT().Running(mock.Anything, process).Return(false, errors.New("pgrep not found")).Once()

		f := newFixture(t, WithProcess(process), WithProcessProbe(probe))
		snap := capture(t, f)

		result, err := f.store.Restore(context.Background(), snap.ID, RestoreOptions{})
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if result.Stopped {
			t.Error("Stopped = true, want false")
		}
	})
}
