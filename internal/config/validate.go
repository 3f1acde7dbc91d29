package config

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// Validation errors for configuration fields.
var (
	// ErrVersionTooLow indicates the version field is below the minimum.
	ErrVersionTooLow = errors.New("version must be >= 1")

	// ErrInvalidPath indicates a path value is malformed.
	ErrInvalidPath = errors.New("invalid path")

	// ErrNoSources indicates no candidate source paths are configured.
	ErrNoSources = errors.New("at least one source path is required")

	// ErrNegativeTimeout indicates stop_timeout is negative.
	ErrNegativeTimeout = errors.New("stop_timeout must not be negative")
)

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	if cfg.Version < 1 {
		errs = append(errs, ErrVersionTooLow)
	}

	if err := validatePath(cfg.StoreDir); err != nil || cfg.StoreDir == "" {
		errs = append(errs, &PathError{Field: KeyStoreDir, Path: cfg.StoreDir, Err: ErrInvalidPath})
	}

	if len(cfg.Sources) == 0 {
		errs = append(errs, ErrNoSources)
	}
	for _, src := range cfg.Sources {
		if err := validatePath(src); err != nil {
			errs = append(errs, &PathError{Field: KeySources, Path: src, Err: err})
		}
	}

	// The store must not live inside a source, or every capture would copy
	// the store into itself.
	for _, src := range cfg.Sources {
		if cfg.StoreDir != "" && within(cfg.StoreDir, src) {
			errs = append(errs, &PathError{
				Field: KeyStoreDir,
				Path:  cfg.StoreDir,
				Err:   errors.Newf("store is inside source %s", src),
			})
		}
	}

	if cfg.StopTimeout < 0 {
		errs = append(errs, ErrNegativeTimeout)
	}

	return errs
}

// validatePath checks if a path string is well-formed.
// It does not check if the path exists, only that it's syntactically valid.
func validatePath(path string) error {
	// Empty paths are valid (they mean "use default")
	if path == "" {
		return nil
	}

	// Check for null bytes which are never valid in paths
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}

	// Clean the path and check it's not empty after cleaning
	cleaned := filepath.Clean(path)
	if cleaned == "" || cleaned == "." {
		return ErrInvalidPath
	}

	return nil
}

// within reports whether path is parent or a descendant of it.
func within(path, parent string) bool {
	rel, err := filepath.Rel(filepath.Clean(parent), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// PathError represents an error for a specific path field.
type PathError struct {
	Field string
	Path  string
	Err   error
}

func (e *PathError) Error() string {
	return e.Field + ": " + e.Err.Error() + ": " + e.Path
}

func (e *PathError) Unwrap() error {
	return e.Err
}
