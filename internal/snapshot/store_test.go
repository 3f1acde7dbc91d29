package snapshot

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
)

func TestCapture_CopiesSources(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.primary, "config.json"), `{"model":"a"}`)
	writeFile(t, filepath.Join(f.primary, "agents", "main.md"), "agent")
	writeFile(t, filepath.Join(f.secondary, "settings.yaml"), "x: 1")

	snap, err := f.store.Capture("daily", "before upgrade", TypeCustom)
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	if snap.ID != "daily_20260301_100000" {
		t.Errorf("ID = %q, want %q", snap.ID, "daily_20260301_100000")
	}
	if snap.Version != RecordVersion {
		t.Errorf("Version = %d, want %d", snap.Version, RecordVersion)
	}
	if want := []string{f.primary, f.secondary}; !slices.Equal(snap.Paths, want) {
		t.Errorf("Paths = %v, want %v", snap.Paths, want)
	}
	if want := int64(len(`{"model":"a"}`) + len("agent") + len("x: 1")); snap.Size != want {
		t.Errorf("Size = %d, want %d", snap.Size, want)
	}

	dir := f.store.Path(snap.ID)
	if got := readFile(t, filepath.Join(dir, ".openclaw", "agents", "main.md")); got != "agent" {
		t.Errorf("copied agent = %q, want %q", got, "agent")
	}
	if got := readFile(t, filepath.Join(dir, "openclaw", "settings.yaml")); got != "x: 1" {
		t.Errorf("copied settings = %q, want %q", got, "x: 1")
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		t.Errorf("snapshot dir mode = %o, want 700", perm)
	}
	info, err = os.Stat(filepath.Join(dir, MetadataFile))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("metadata mode = %o, want 600", perm)
	}

	got, err := f.store.Get(snap.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Size != snap.Size || got.Checksum != snap.Checksum || got.Description != "before upgrade" {
		t.Errorf("Get() = %+v, want %+v", got, snap)
	}
	if !got.CreatedAt.Equal(snap.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, snap.CreatedAt)
	}
}

func TestCapture_ChecksumExcludesMetadata(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.primary, "config.json"), "{}")

	snap, err := f.store.Capture("a", "", TypeCurrent)
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	if got := mustChecksum(t, filepath.Join(f.store.Path(snap.ID), ".openclaw")); got != snap.Checksum {
		t.Errorf("payload checksum = %q, record says %q", got, snap.Checksum)
	}
}

func TestCapture_NoSources(t *testing.T) {
	f := newFixture(t)

	snap, err := f.store.Capture("fresh", "", TypeFresh)
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if snap.Checksum != EmptyChecksum {
		t.Errorf("Checksum = %q, want %q", snap.Checksum, EmptyChecksum)
	}
	if snap.Size != 0 || len(snap.Paths) != 0 {
		t.Errorf("Size = %d, Paths = %v, want empty", snap.Size, snap.Paths)
	}
}

func TestCapture_PreservesSymlinks(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.primary, "real.json"), "{}")
	if err := os.Symlink("real.json", filepath.Join(f.primary, "alias.json")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	snap, err := f.store.Capture("links", "", TypeCustom)
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	link := filepath.Join(f.store.Path(snap.ID), ".openclaw", "alias.json")
	target, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("Readlink() error = %v", err)
	}
	if target != "real.json" {
		t.Errorf("link target = %q, want %q", target, "real.json")
	}
}

func TestCapture_FollowsLinkedSourceDirectory(t *testing.T) {
	f := newFixture(t)
	dotfiles := filepath.Join(filepath.Dir(f.root), "dotfiles", "openclaw")
	writeFile(t, filepath.Join(dotfiles, "cfg.json"), `{"a":"b"}`+"\n")
	if err := os.Symlink("real.json", filepath.Join(dotfiles, "alias.json")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.primary), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(dotfiles, f.primary); err != nil {
		t.Fatal(err)
	}

	snap, err := f.store.Capture("linked", "", TypeCustom)
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if snap.Size != 10 || snap.Checksum == EmptyChecksum {
		t.Errorf("Size = %d, Checksum = %s, want the 10 byte target captured", snap.Size, snap.Checksum)
	}

	captured := filepath.Join(f.store.Path(snap.ID), ".openclaw")
	info, err := os.Lstat(captured)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Errorf("captured source mode = %v, want a directory", info.Mode())
	}
	if got := readFile(t, filepath.Join(captured, "cfg.json")); got != `{"a":"b"}`+"\n" {
		t.Errorf("cfg.json = %q", got)
	}
	if target, err := os.Readlink(filepath.Join(captured, "alias.json")); err != nil || target != "real.json" {
		t.Errorf("nested link = %q, %v, want it kept as a link", target, err)
	}
}

func TestCapture_Errors(t *testing.T) {
	tests := []struct {
		name    string
		snap    string
		typ     Type
		wantErr error
	}{
		{"empty name", "", TypeCustom, ErrInvalidID},
		{"dot", ".", TypeCustom, ErrInvalidID},
		{"dot dot", "..", TypeCustom, ErrInvalidID},
		{"separator", "a/b", TypeCustom, ErrInvalidID},
		{"unknown type", "ok", Type("weekly"), ErrInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.store.Capture(tt.snap, "", tt.typ)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Capture() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCapture_DefaultsToCustom(t *testing.T) {
	f := newFixture(t)
	snap, err := f.store.Capture("x", "", "")
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if snap.Type != TypeCustom {
		t.Errorf("Type = %q, want %q", snap.Type, TypeCustom)
	}
}

func TestCapture_Collision(t *testing.T) {
	f := newFixture(t)
	next := f.clock.peek().Format(TimestampLayout)
	if err := os.MkdirAll(f.store.Path("dup_"+next), 0o700); err != nil {
		t.Fatal(err)
	}

	_, err := f.store.Capture("dup", "", TypeCustom)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("Capture() error = %v, want ErrAlreadyExists", err)
	}
}

func TestList(t *testing.T) {
	t.Run("missing store", func(t *testing.T) {
		f := newFixture(t)
		snaps, err := f.store.List()
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if snaps == nil || len(snaps) != 0 {
			t.Errorf("List() = %v, want empty non-nil slice", snaps)
		}
	})

	t.Run("newest first, invalid skipped", func(t *testing.T) {
		f := newFixture(t)
		for _, name := range []string{"first", "second", "third"} {
			if _, err := f.store.Capture(name, "", TypeCustom); err != nil {
				t.Fatalf("Capture(%s) error = %v", name, err)
			}
		}
		// noise that is not a snapshot
		if err := os.MkdirAll(filepath.Join(f.root, "no-metadata"), 0o700); err != nil {
			t.Fatal(err)
		}
		writeFile(t, filepath.Join(f.root, "corrupt", MetadataFile), "{not json")
		writeFile(t, filepath.Join(f.root, "stray.txt"), "x")

		snaps, err := f.store.List()
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		var names []string
		for _, s := range snaps {
			names = append(names, s.Name)
		}
		if want := []string{"third", "second", "first"}; !slices.Equal(names, want) {
			t.Errorf("List() names = %v, want %v", names, want)
		}
	})

	t.Run("same timestamp orders by created_at", func(t *testing.T) {
		f := newFixture(t)
		base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		for i, name := range []string{"early", "late"} {
			snap := &Snapshot{
				ID:        name + "_20260301_100000",
				Name:      name,
				Timestamp: "20260301_100000",
				CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
			}
			dir := f.store.Path(snap.ID)
			if err := os.MkdirAll(dir, 0o700); err != nil {
				t.Fatal(err)
			}
			if err := writeRecord(dir, snap); err != nil {
				t.Fatal(err)
			}
		}

		snaps, err := f.store.List()
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(snaps) != 2 || snaps[0].Name != "late" {
			t.Errorf("List() = %+v, want late first", snaps)
		}
	})
}

func TestLatest(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.Latest(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Latest() on empty store error = %v, want ErrNotFound", err)
	}

	if _, err := f.store.Capture("old", "", TypeCustom); err != nil {
		t.Fatal(err)
	}
	newest, err := f.store.Capture("new", "", TypeCustom)
	if err != nil {
		t.Fatal(err)
	}

	got, err := f.store.Latest()
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if got.ID != newest.ID {
		t.Errorf("Latest() = %s, want %s", got.ID, newest.ID)
	}
}

func TestGet_Errors(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.root, "broken", MetadataFile), "[]")
	if err := os.MkdirAll(filepath.Join(f.root, "bare"), 0o700); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		id      string
		wantErr error
	}{
		{"missing", ErrNotFound},
		{"broken", ErrCorruptMetadata},
		{"bare", ErrCorruptMetadata},
		{"../escape", ErrInvalidID},
		{"", ErrInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, err := f.store.Get(tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Get(%q) error = %v, want %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestGet_LegacyRecord(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.root, "old_20250101_000000", MetadataFile),
		`{"id":"old_20250101_000000","name":"old","timestamp":"20250101_000000","created_at":"2025-01-01T00:00:00Z","size":3,"checksum":"abcd1234","extra":true}`)

	snap, err := f.store.Get("old_20250101_000000")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if snap.Version != 1 {
		t.Errorf("Version = %d, want 1", snap.Version)
	}
	if snap.Paths == nil {
		t.Error("Paths = nil, want empty slice")
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.primary, "config.json"), "{}")
	snap, err := f.store.Capture("gone", "", TypeCustom)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.store.Delete(snap.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if exists(f.store.Path(snap.ID)) {
		t.Error("snapshot directory still exists")
	}
	snaps, err := f.store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 0 {
		t.Errorf("List() = %v, want empty", snaps)
	}

	if err := f.store.Delete(snap.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestCompare(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.primary, "config.json"), "aaaa")
	a, err := f.store.Capture("a", "", TypeCustom)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(f.primary, "config.json"), "bb")
	b, err := f.store.Capture("b", "", TypeCustom)
	if err != nil {
		t.Fatal(err)
	}

	diff, err := f.store.Compare(a.ID, b.ID)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if diff.Name1 != "a" || diff.Name2 != "b" {
		t.Errorf("names = %q, %q", diff.Name1, diff.Name2)
	}
	if diff.SizeDiff != 2 {
		t.Errorf("SizeDiff = %d, want 2", diff.SizeDiff)
	}
	if !diff.TimestampDiff || diff.TimeDiff != -time.Second {
		t.Errorf("TimestampDiff = %v, TimeDiff = %v, want true, -1s", diff.TimestampDiff, diff.TimeDiff)
	}
	if !diff.ChecksumDiff {
		t.Error("ChecksumDiff = false, want true")
	}

	same, err := f.store.Compare(a.ID, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if same.ChecksumDiff || same.SizeDiff != 0 || same.TimeDiff != 0 || same.TimestampDiff {
		t.Errorf("self compare = %+v, want no difference", same)
	}

	if _, err := f.store.Compare(a.ID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Compare() with missing id error = %v, want ErrNotFound", err)
	}
}

func TestCompare_SameTimestampDifferentCreatedAt(t *testing.T) {
	f := newFixture(t)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"home_20260101_000000", "work_20260101_000000"} {
		name, stamp, _ := strings.Cut(id, "_")
		rec := &Snapshot{
			Version:   RecordVersion,
			ID:        id,
			Name:      name,
			Type:      TypeCustom,
			Timestamp: stamp,
			CreatedAt: created.Add(time.Duration(i) * time.Hour),
			Checksum:  EmptyChecksum,
		}
		dir := f.store.Path(id)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			t.Fatal(err)
		}
		if err := writeRecord(dir, rec); err != nil {
			t.Fatal(err)
		}
	}

	diff, err := f.store.Compare("home_20260101_000000", "work_20260101_000000")
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if diff.TimestampDiff {
		t.Error("TimestampDiff = true for equal timestamps")
	}
	if diff.TimeDiff != -time.Hour {
		t.Errorf("TimeDiff = %v, want -1h", diff.TimeDiff)
	}
}
