package doctor

import (
	"fmt"
	"os"
	"strings"

	"github.com/thoreinstein/ocsnap/internal/errors"
	"github.com/thoreinstein/ocsnap/internal/snapshot"
)

// IntegrityCheck recomputes every snapshot's checksum and size and compares
// them with its metadata.
type IntegrityCheck struct {
	store *snapshot.Store
}

var _ Check = (*IntegrityCheck)(nil)

// NewIntegrityCheck creates an integrity check over store.
func NewIntegrityCheck(store *snapshot.Store) *IntegrityCheck {
	return &IntegrityCheck{store: store}
}

// Name returns the unique identifier for this check.
func (c *IntegrityCheck) Name() string {
	return "snapshot-integrity"
}

// Category returns the grouping for this check.
func (c *IntegrityCheck) Category() string {
	return "store"
}

// Run executes the integrity diagnostic check.
func (c *IntegrityCheck) Run() *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	entries, err := os.ReadDir(c.store.Root())
	if os.IsNotExist(err) {
		result.Status = SeverityInfo
		result.Message = "no snapshots to verify"
		return result
	}
	if err != nil {
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot read snapshot store: %v", err)
		return result
	}

	var (
		checked    int
		corrupt    []string
		mismatch   []string
		unreadable []string
	)
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		checked++

		v, err := c.store.Verify(entry.Name())
		switch {
		case errors.Is(err, snapshot.ErrCorruptMetadata):
			corrupt = append(corrupt, entry.Name())
		case err != nil:
			unreadable = append(unreadable, entry.Name())
		case !v.OK():
			mismatch = append(mismatch, entry.Name())
		}
	}

	if checked == 0 {
		result.Status = SeverityInfo
		result.Message = "no snapshots to verify"
		return result
	}

	bad := len(corrupt) + len(mismatch) + len(unreadable)
	if bad == 0 {
		result.Status = SeverityPass
		result.Message = fmt.Sprintf("all %d snapshots match their checksums", checked)
		return result
	}

	details := map[string]any{"checked": checked}
	if len(corrupt) > 0 {
		details["corrupt_metadata"] = corrupt
	}
	if len(mismatch) > 0 {
		details["checksum_mismatch"] = mismatch
	}
	if len(unreadable) > 0 {
		details["unreadable"] = unreadable
	}

	result.Status = SeverityError
	result.Message = fmt.Sprintf("%d of %d snapshots failed verification", bad, checked)
	result.Details = details
	result.FixHint = "Delete or re-create the affected snapshots"
	return result
}
