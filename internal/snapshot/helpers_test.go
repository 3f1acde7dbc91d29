package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/thoreinstein/ocsnap/internal/logging"
)

// testClock returns a time one second later on every call.
type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(time.Second)
	return now
}

// peek returns the time the next call to Now will report.
func (c *testClock) peek() time.Time {
	return c.t
}

type fixture struct {
	store     *Store
	clock     *testClock
	root      string
	primary   string
	secondary string
	tertiary  string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	base := t.TempDir()
	home := filepath.Join(base, "home")
	f := &fixture{
		clock:     newTestClock(),
		root:      filepath.Join(base, "store"),
		primary:   filepath.Join(home, ".openclaw"),
		secondary: filepath.Join(home, ".config", "openclaw"),
		tertiary:  filepath.Join(home, "Library", "Application Support", "openclaw"),
	}

	locator := NewLocator(f.primary, f.secondary, f.tertiary)
	opts = append([]Option{
		WithClock(f.clock.Now),
		WithLogger(logging.ForTest(t)),
		WithProcess(""),
	}, opts...)
	f.store = NewStore(f.root, locator, opts...)
	return f
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func mustChecksum(t *testing.T, path string) string {
	t.Helper()
	sum, err := Checksum(path)
	if err != nil {
		t.Fatalf("Checksum(%s) error = %v", path, err)
	}
	return sum
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
