package prompt

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/thoreinstein/ocsnap/internal/errors"
	"github.com/thoreinstein/ocsnap/internal/snapshot"
)

// PickSnapshot opens a fuzzy finder over snaps with a metadata preview.
// Aborting the finder returns ErrSelectionCancelled.
func PickSnapshot(snaps []snapshot.Snapshot) (*snapshot.Snapshot, error) {
	if len(snaps) == 0 {
		return nil, ErrNoSnapshots
	}

	idx, err := fuzzyfinder.Find(
		snaps,
		func(i int) string {
			return fmt.Sprintf("%s [%s]", snaps[i].ID, snaps[i].Type)
		},
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			return Preview(&snaps[i])
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, ErrSelectionCancelled
		}
		return nil, errors.Wrap(err, "fuzzy selection failed")
	}
	return &snaps[idx], nil
}

// Preview renders the metadata shown next to a snapshot in the finder.
func Preview(s *snapshot.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ID:       %s\n", s.ID)
	fmt.Fprintf(&sb, "Name:     %s\n", s.Name)
	fmt.Fprintf(&sb, "Type:     %s\n", s.Type)
	fmt.Fprintf(&sb, "Created:  %s (%s)\n", s.CreatedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(s.CreatedAt))
	fmt.Fprintf(&sb, "Size:     %s\n", humanize.Bytes(uint64(max(s.Size, 0))))
	fmt.Fprintf(&sb, "Checksum: %s\n", s.Checksum)
	if s.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", s.Description)
	}
	if len(s.Paths) > 0 {
		sb.WriteString("\nSources:\n")
		for _, p := range s.Paths {
			fmt.Fprintf(&sb, "  %s\n", p)
		}
	}
	return sb.String()
}
