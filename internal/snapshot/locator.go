package snapshot

import (
	"os"
	"path/filepath"
)

// Locator resolves the ordered set of configuration directories to capture.
// The first candidate is the primary (live) configuration directory.
type Locator struct {
	candidates []string
}

// NewLocator returns a Locator over the given candidates, in priority order.
// Empty entries are dropped and the rest are cleaned.
func NewLocator(candidates ...string) *Locator {
	l := &Locator{candidates: make([]string, 0, len(candidates))}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		l.candidates = append(l.candidates, filepath.Clean(c))
	}
	return l
}

// Candidates returns every candidate path in priority order.
func (l *Locator) Candidates() []string {
	out := make([]string, len(l.candidates))
	copy(out, l.candidates)
	return out
}

// Locate returns the candidates that currently exist, order preserved.
func (l *Locator) Locate() []string {
	found := make([]string, 0, len(l.candidates))
	for _, c := range l.candidates {
		if _, err := os.Lstat(c); err == nil {
			found = append(found, c)
		}
	}
	return found
}

// Primary returns the live configuration directory, or "" when the locator
// has no candidates.
func (l *Locator) Primary() string {
	if len(l.candidates) == 0 {
		return ""
	}
	return l.candidates[0]
}

// target resolves where a snapshot entry with the given base name is restored:
// the first candidate with that base name, else a child of the primary.
// candidate reports whether the target is itself a locator candidate.
func (l *Locator) target(base string) (path string, candidate bool) {
	for _, c := range l.candidates {
		if filepath.Base(c) == base {
			return c, true
		}
	}
	return filepath.Join(l.Primary(), base), false
}
