package doctor

import (
	"fmt"
	"os/exec"
)

// ProcessToolCheck verifies restore can detect a running OpenClaw process.
type ProcessToolCheck struct {
	process  string
	lookPath func(string) (string, error)
}

var _ Check = (*ProcessToolCheck)(nil)

// NewProcessToolCheck creates a check for the liveness probe used before
// restoring. An empty process name means the probe is disabled.
func NewProcessToolCheck(process string) *ProcessToolCheck {
	return &ProcessToolCheck{process: process, lookPath: exec.LookPath}
}

// Name returns the unique identifier for this check.
func (c *ProcessToolCheck) Name() string {
	return "process-probe"
}

// Category returns the grouping for this check.
func (c *ProcessToolCheck) Category() string {
	return "system"
}

// Run executes the process probe diagnostic check.
func (c *ProcessToolCheck) Run() *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	if c.process == "" {
		result.Status = SeverityInfo
		result.Message = "process_name is empty; restore will not check for a running application"
		return result
	}

	path, err := c.lookPath("pgrep")
	if err != nil {
		result.Status = SeverityWarning
		result.Message = fmt.Sprintf("pgrep not found; restore cannot detect a running %s", c.process)
		result.FixHint = "Install procps, or stop the application manually before restoring"
		return result
	}

	result.Status = SeverityPass
	result.Message = fmt.Sprintf("restore will probe for %q", c.process)
	result.Details = map[string]any{"pgrep": path, "process": c.process}
	return result
}
