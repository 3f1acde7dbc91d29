package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// AppName is the name of this tool, used for its own config directory.
const AppName = "ocsnap"

// ProtectedApp is the name of the application whose configuration is
// snapshotted. It doubles as the default process name for the liveness check.
const ProtectedApp = "openclaw"

// Home-relative locations of the OpenClaw configuration and the snapshot store.
const (
	primaryConfigRel = ".openclaw"
	configHomeRel    = ".config/openclaw"
	appSupportRel    = "Library/Application Support/openclaw"
	storeRel         = ".openclaw_snapshots"
)

// Sentinel errors for path resolution.
var (
	// ErrHomeDirNotFound indicates the user's home directory could not be determined.
	ErrHomeDirNotFound = errors.New("home directory not found")
)

// DefaultDirPerm is the default permission for newly created directories (private).
const DefaultDirPerm = 0o700

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm (0700) is used.
// This function is idempotent; it returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// Home returns the user's home directory, or an empty string when it cannot
// be determined. Use ResolveHome for proper error handling.
func Home() string {
	h, _ := ResolveHome()
	return h
}

// ResolveHome returns the user's home directory.
// Returns ErrHomeDirNotFound if the directory cannot be determined.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", errors.Wrapf(ErrHomeDirNotFound, "%v", err)
	}
	return home, nil
}

// ConfigHome returns the XDG config home directory.
// On Linux: ~/.config
// On macOS: ~/Library/Application Support
// On Windows: %LOCALAPPDATA%
func ConfigHome() string {
	return xdg.ConfigHome
}

// ConfigDir returns the directory holding ocsnap's own configuration.
// Returns: <ConfigHome>/ocsnap/
func ConfigDir() string {
	return filepath.Join(ConfigHome(), AppName)
}

// ConfigFile returns the default configuration file path.
// Returns: <ConfigHome>/ocsnap/config.yaml
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultStoreDir returns the default snapshot store root.
// Returns: ~/.openclaw_snapshots/
func DefaultStoreDir() string {
	home := Home()
	if home == "" {
		return ""
	}
	return filepath.Join(home, storeRel)
}

// DefaultSources returns the candidate configuration locations in priority
// order: the primary config directory, the config-home directory and the
// macOS application-support directory. The paths are returned whether or not
// they exist.
func DefaultSources() []string {
	home := Home()
	if home == "" {
		return nil
	}
	return []string{
		filepath.Join(home, primaryConfigRel),
		filepath.Join(home, filepath.FromSlash(configHomeRel)),
		filepath.Join(home, filepath.FromSlash(appSupportRel)),
	}
}

// ExpandHome expands a leading ~ to the user's home directory. Paths without
// a leading ~ (and ~user forms) are returned unchanged.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	home := Home()
	if home == "" {
		return path
	}

	if path == "~" {
		return home
	}

	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return filepath.Join(home, path[2:])
	}

	return path
}

// ExpandAll applies ExpandHome to every path and drops empty entries.
func ExpandAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, filepath.Clean(ExpandHome(p)))
	}
	return out
}
