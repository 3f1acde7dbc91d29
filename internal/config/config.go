// Package config provides configuration management for ocsnap using Viper.
package config

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/thoreinstein/ocsnap/internal/paths"
)

// AppName is the application name used for config file naming.
const AppName = paths.AppName

// Configuration keys.
const (
	KeyVersion     = "version"
	KeyStoreDir    = "store_dir"
	KeySources     = "sources"
	KeyProcessName = "process_name"
	KeyStopTimeout = "stop_timeout"
)

// DefaultStopTimeout bounds how long restore waits for a stopped OpenClaw
// process to exit before copying files back.
const DefaultStopTimeout = 5 * time.Second

// Config represents the top-level configuration structure.
type Config struct {
	Version int `mapstructure:"version" yaml:"version"`

	// StoreDir is the snapshot store root.
	StoreDir string `mapstructure:"store_dir" yaml:"store_dir"`

	// Sources are the candidate configuration paths, primary first.
	Sources []string `mapstructure:"sources" yaml:"sources"`

	// ProcessName is matched against running processes before a restore.
	// An empty value disables the liveness check.
	ProcessName string `mapstructure:"process_name" yaml:"process_name"`

	// StopTimeout is how long to wait for the process to exit after stopping it.
	StopTimeout time.Duration `mapstructure:"stop_timeout" yaml:"stop_timeout"`
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	// Config file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".")
	viper.AddConfigPath(paths.ConfigDir())

	// Environment variable support: OCSNAP_STORE_DIR, OCSNAP_PROCESS_NAME, ...
	viper.SetEnvPrefix("OCSNAP")
	viper.AutomaticEnv()

	d := Default()
	viper.SetDefault(KeyVersion, d.Version)
	viper.SetDefault(KeyStoreDir, d.StoreDir)
	viper.SetDefault(KeySources, d.Sources)
	viper.SetDefault(KeyProcessName, d.ProcessName)
	viper.SetDefault(KeyStopTimeout, d.StopTimeout)
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Version:     1,
		StoreDir:    paths.DefaultStoreDir(),
		Sources:     paths.DefaultSources(),
		ProcessName: paths.ProtectedApp,
		StopTimeout: DefaultStopTimeout,
	}
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations.
// Returns the loaded configuration or default values if no file is found (when path is empty).
// Paths in the result have ~ expanded.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// An explicitly requested file must exist
			if path != "" {
				return nil, errors.Wrapf(err, "config file not found at %s", path)
			}
		} else {
			// Real read error (parsing, permissions, missing explicit file)
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	cfg.StoreDir = paths.ExpandHome(cfg.StoreDir)
	cfg.Sources = paths.ExpandAll(cfg.Sources)

	return &cfg, nil
}

// UsedFile returns the config file viper loaded, or an empty string when the
// defaults are in effect.
func UsedFile() string {
	return viper.ConfigFileUsed()
}
