package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/thoreinstein/ocsnap/internal/snapshot"
)

// StoreCheck validates the snapshot store root and the modes of every
// snapshot directory and metadata file inside it.
type StoreCheck struct {
	PermissionFixer
	root string
}

var (
	_ Check = (*StoreCheck)(nil)
	_ Fixer = (*StoreCheck)(nil)
)

// NewStoreCheck creates a check for the store rooted at root.
func NewStoreCheck(root string) *StoreCheck {
	return &StoreCheck{root: root}
}

// Name returns the unique identifier for this check.
func (c *StoreCheck) Name() string {
	return "store-permissions"
}

// Category returns the grouping for this check.
func (c *StoreCheck) Category() string {
	return "store"
}

// pathIssue represents a single path or permission problem.
type pathIssue struct {
	Path        string
	Type        string // "file" or "directory"
	Problem     string
	Severity    Severity
	Permissions string
	Fixable     bool
	FixHint     string
}

// Run executes the store diagnostic check.
func (c *StoreCheck) Run() *CheckResult {
	c.setIssues(nil)

	info, err := os.Stat(c.root)
	if os.IsNotExist(err) {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityInfo,
			Message:  "snapshot store does not exist yet",
			Details:  map[string]any{"path": c.root},
			FixHint:  "It is created by the first snapshot",
		}
	}
	if err != nil {
		return c.buildResult([]pathIssue{{
			Path:     c.root,
			Type:     "directory",
			Problem:  fmt.Sprintf("cannot stat store: %v", err),
			Severity: SeverityError,
		}}, 1)
	}
	if !info.IsDir() {
		return c.buildResult([]pathIssue{{
			Path:     c.root,
			Type:     "directory",
			Problem:  "expected directory but found file",
			Severity: SeverityError,
		}}, 1)
	}

	var issues []pathIssue
	checked := 1

	if !isDirectoryWritable(c.root) {
		issues = append(issues, pathIssue{
			Path:        c.root,
			Type:        "directory",
			Problem:     "store is not writable",
			Severity:    SeverityError,
			Permissions: formatPermissions(info.Mode()),
			FixHint:     "chmod u+w " + c.root,
		})
	}
	issues = append(issues, c.checkMode(c.root, "directory", info.Mode())...)

	entries, err := os.ReadDir(c.root)
	if err != nil {
		issues = append(issues, pathIssue{
			Path:     c.root,
			Type:     "directory",
			Problem:  fmt.Sprintf("cannot read store: %v", err),
			Severity: SeverityError,
		})
		return c.finish(issues, checked)
	}

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := filepath.Join(c.root, entry.Name())
		if dirInfo, err := os.Stat(dir); err == nil {
			issues = append(issues, c.checkMode(dir, "directory", dirInfo.Mode())...)
			checked++
		}
		record := filepath.Join(dir, snapshot.MetadataFile)
		if recInfo, err := os.Lstat(record); err == nil && recInfo.Mode().IsRegular() {
			issues = append(issues, c.checkMode(record, "file", recInfo.Mode())...)
			checked++
		}
	}

	return c.finish(issues, checked)
}

func (c *StoreCheck) finish(issues []pathIssue, checked int) *CheckResult {
	c.setIssues(issues)
	return c.buildResult(issues, checked)
}

// checkMode flags any group or other permission bits.
func (c *StoreCheck) checkMode(path, typ string, mode os.FileMode) []pathIssue {
	if runtime.GOOS == "windows" {
		return nil
	}
	if mode.Perm()&0o077 == 0 {
		return nil
	}

	want := privateDirPerm
	if typ == "file" {
		want = privateFilePerm
	}
	return []pathIssue{{
		Path:        path,
		Type:        typ,
		Problem:     fmt.Sprintf("%s is accessible by other users (mode %s, expected %s)", typ, formatPermissions(mode), formatPermissions(want)),
		Severity:    SeverityWarning,
		Permissions: formatPermissions(mode),
		Fixable:     true,
		FixHint:     fmt.Sprintf("chmod %o %s", want, path),
	}}
}

func (c *StoreCheck) buildResult(issues []pathIssue, checked int) *CheckResult {
	if len(issues) == 0 {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityPass,
			Message:  fmt.Sprintf("all %d store paths are private", checked),
			Details:  map[string]any{"path": c.root},
		}
	}

	status := SeverityPass
	for _, issue := range issues {
		if issue.Severity > status {
			status = issue.Severity
		}
	}

	issueDetails := make([]map[string]any, 0, len(issues))
	var fixHints []string
	fixable := false
	for _, issue := range issues {
		m := map[string]any{
			"path":     issue.Path,
			"type":     issue.Type,
			"problem":  issue.Problem,
			"severity": issue.Severity.String(),
		}
		if issue.Permissions != "" {
			m["permissions"] = issue.Permissions
		}
		issueDetails = append(issueDetails, m)

		if issue.Fixable {
			fixable = true
			fixHints = append(fixHints, issue.FixHint)
		}
	}

	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   status,
		Message:  fmt.Sprintf("found %d issue(s) across %d store paths", len(issues), checked),
		Details: map[string]any{
			"path":          c.root,
			"checked_paths": checked,
			"issue_count":   len(issues),
			"issues":        issueDetails,
		},
		Fixable: fixable,
	}
	if fixable {
		result.FixHint = "Run: ocsnap doctor --fix"
		if len(fixHints) == 1 {
			result.FixHint = fixHints[0]
		}
	} else if len(issues) > 0 && issues[0].FixHint != "" {
		result.FixHint = issues[0].FixHint
	}

	return result
}

// isDirectoryWritable tests if a directory is writable by creating a temp file.
func isDirectoryWritable(path string) bool {
	tmp, err := os.CreateTemp(path, ".ocsnap-doctor-*")
	if err != nil {
		return false
	}
	name := tmp.Name()
	tmp.Close()
	os.Remove(name)
	return true
}

// formatPermissions returns the octal permission bits, e.g. "0700".
func formatPermissions(mode os.FileMode) string {
	return fmt.Sprintf("%04o", mode.Perm())
}
