package doctor

import (
	"fmt"

	"github.com/thoreinstein/ocsnap/internal/snapshot"
)

// SourcesCheck reports which candidate configuration paths exist.
type SourcesCheck struct {
	locator *snapshot.Locator
}

var _ Check = (*SourcesCheck)(nil)

// NewSourcesCheck creates a check over the locator's candidates.
func NewSourcesCheck(locator *snapshot.Locator) *SourcesCheck {
	return &SourcesCheck{locator: locator}
}

// Name returns the unique identifier for this check.
func (c *SourcesCheck) Name() string {
	return "config-sources"
}

// Category returns the grouping for this check.
func (c *SourcesCheck) Category() string {
	return "config"
}

// Run executes the sources diagnostic check.
func (c *SourcesCheck) Run() *CheckResult {
	candidates := c.locator.Candidates()
	found := c.locator.Locate()

	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Details: map[string]any{
			"candidates": candidates,
			"found":      found,
		},
	}

	switch {
	case len(candidates) == 0:
		result.Status = SeverityError
		result.Message = "no configuration sources are configured"
		result.FixHint = "Set sources in the ocsnap config file"
	case len(found) == 0:
		result.Status = SeverityWarning
		result.Message = "no OpenClaw configuration found; snapshots will be empty"
		result.FixHint = fmt.Sprintf("Expected one of: %v", candidates)
	default:
		result.Status = SeverityPass
		result.Message = fmt.Sprintf("%d of %d configuration sources present", len(found), len(candidates))
	}

	return result
}
