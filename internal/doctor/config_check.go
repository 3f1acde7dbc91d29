package doctor

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/ocsnap/internal/config"
	"github.com/thoreinstein/ocsnap/internal/paths"
	"github.com/thoreinstein/ocsnap/pkg/fileutil"
)

var knownKeys = []string{
	config.KeyVersion,
	config.KeyStoreDir,
	config.KeySources,
	config.KeyProcessName,
	config.KeyStopTimeout,
}

// ConfigCheck parses the ocsnap config file and validates its values.
type ConfigCheck struct {
	path string
}

var _ Check = (*ConfigCheck)(nil)

// NewConfigCheck creates a check for the config file at path. An empty path
// means no file was found and the defaults are in effect.
func NewConfigCheck(path string) *ConfigCheck {
	return &ConfigCheck{path: path}
}

// Name returns the unique identifier for this check.
func (c *ConfigCheck) Name() string {
	return "config-file"
}

// Category returns the grouping for this check.
func (c *ConfigCheck) Category() string {
	return "config"
}

// Run executes the config diagnostic check.
func (c *ConfigCheck) Run() *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	if c.path == "" {
		result.Status = SeverityInfo
		result.Message = "no config file, using defaults"
		result.FixHint = "Run: ocsnap config init"
		return result
	}

	data, err := fileutil.ReadFileWithLimit(c.path)
	if err != nil {
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot read config file: %v", err)
		result.Details = map[string]any{"path": c.path}
		return result
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		result.Status = SeverityError
		result.Message = "config file is not valid YAML"
		result.Details = map[string]any{"path": c.path, "error": err.Error()}
		result.FixHint = "Run: ocsnap config edit"
		return result
	}

	cfg := config.Default()
	if len(doc.Content) > 0 {
		if err := doc.Decode(cfg); err != nil {
			result.Status = SeverityError
			result.Message = "config file has values of the wrong type"
			result.Details = map[string]any{"path": c.path, "error": err.Error()}
			result.FixHint = "Run: ocsnap config edit"
			return result
		}
	}
	cfg.StoreDir = paths.ExpandHome(cfg.StoreDir)
	cfg.Sources = paths.ExpandAll(cfg.Sources)

	if errs := config.Validate(cfg); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		result.Status = SeverityError
		result.Message = fmt.Sprintf("config has %d invalid value(s)", len(errs))
		result.Details = map[string]any{"path": c.path, "errors": msgs}
		result.FixHint = "Run: ocsnap config edit"
		return result
	}

	if unknown := unknownKeys(&doc); len(unknown) > 0 {
		result.Status = SeverityWarning
		result.Message = fmt.Sprintf("config has %d unknown key(s)", len(unknown))
		result.Details = map[string]any{"path": c.path, "unknown_keys": unknown}
		return result
	}

	result.Status = SeverityPass
	result.Message = "config file is valid"
	result.Details = map[string]any{"path": c.path}
	return result
}

// unknownKeys lists top-level mapping keys ocsnap does not read.
func unknownKeys(doc *yaml.Node) []string {
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil
	}
	root := doc.Content[0]

	var unknown []string
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		if !slices.Contains(knownKeys, key) {
			unknown = append(unknown, key)
		}
	}
	return unknown
}
