// Package commands implements the CLI commands for ocsnap.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/ocsnap/cmd"
	"github.com/thoreinstein/ocsnap/internal/cli/prompt"
	"github.com/thoreinstein/ocsnap/internal/config"
	"github.com/thoreinstein/ocsnap/internal/errors"
	"github.com/thoreinstein/ocsnap/internal/logging"
	"github.com/thoreinstein/ocsnap/internal/snapshot"
)

var (
	// verbosity holds the count of -v flags.
	verbosity int

	// quiet holds the value of the -q/--quiet flag.
	quiet bool

	// logFormat holds the value of the --log-format flag.
	logFormat string

	// logFile holds the path to the log file.
	logFile string

	// configFile holds the value of the --config flag.
	configFile string

	// storeDir holds the value of the --store flag.
	storeDir string
)

var (
	// appConfig is the configuration loaded in initConfig.
	appConfig *config.Config

	// configLoadErr holds any error that occurred during config loading.
	configLoadErr error

	// logLevel is the level chosen by setupLogging.
	logLevel = slog.LevelWarn
)

// configOptional lists commands that run without a loadable config file.
var configOptional = map[string]bool{
	"help":    true,
	"version": true,
	"doctor":  true,
	"init":    true,
	"edit":    true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: $XDG_CONFIG_HOME/ocsnap/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store", "",
		"snapshot store directory (overrides store_dir)")

	rootCmd.Version = cmd.Version
	rootCmd.SetVersionTemplate("ocsnap version {{.Version}}\n")

	// Silence errors and usage so main controls error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	config.Init()
	appConfig, configLoadErr = config.Load(configFile)
}

var rootCmd = &cobra.Command{
	Use:   "ocsnap",
	Short: "Snapshot and restore OpenClaw configuration",
	Long: `ocsnap saves the OpenClaw configuration directories into a local
snapshot store and brings them back later.

Every snapshot is a full copy with a short checksum. Restoring replaces the
live configuration wholesale, after an automatic safety snapshot of the
current state. Snapshots can be exported to a .tar.gz archive and imported
on another machine.`,
	Example: `  # Save the current configuration
  ocsnap create --name before-upgrade

  # List snapshots, newest first
  ocsnap list

  # Restore interactively
  ocsnap restore

  # Move a snapshot to another machine
  ocsnap export before-upgrade_20260301_100000 ~/Desktop
  ocsnap import ~/Desktop/before-upgrade_20260301_100000.tar.gz

  See Also: ocsnap doctor, ocsnap config`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}
		return checkConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(errors.New("conflicting flags"), "cannot use --quiet and --verbose together")
	}

	if quiet {
		logLevel = slog.LevelError
	} else {
		v := verbosity
		// CLI flags take precedence over OCSNAP_DEBUG
		if v == 0 {
			switch os.Getenv("OCSNAP_DEBUG") {
			case "1", "true":
				v = 2
			case "2":
				v = 3
			}
		}
		logLevel = logging.LevelFromVerbosity(v)
	}

	color.NoColor = !logging.SupportsColor(cmd.OutOrStdout())

	format, err := logging.ParseFormat(logFormat)
	if err != nil {
		return errors.NewUserError(err, "Use --log-format text or --log-format json")
	}

	cfg := logging.Config{
		Level:  logLevel,
		Format: format,
		Output: cmd.ErrOrStderr(),
	}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.NewUserError(errors.Wrap(err, "opening log file"), "check the --log-file path")
		}
		cfg.Tee = f
	}

	logger := logging.New(cfg)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// checkConfig surfaces config load and validation errors for commands that
// need a working configuration.
func checkConfig(cmd *cobra.Command) error {
	if configOptional[cmd.Name()] {
		return nil
	}
	if configLoadErr != nil {
		return errors.NewConfigError(configLoadErr)
	}
	if errs := config.Validate(currentConfig()); len(errs) > 0 {
		return errors.NewUserError(
			errors.Wrapf(errs[0], "invalid configuration (%d problem(s))", len(errs)),
			"Run: ocsnap doctor",
		)
	}
	return nil
}

// currentConfig returns the loaded configuration, or the defaults when
// loading failed or has not happened.
func currentConfig() *config.Config {
	if appConfig != nil {
		return appConfig
	}
	return config.Default()
}

// Execute runs the root command. Cancellations come back with exit code 0,
// a missing snapshot with a hint instead of a stack trace, and filesystem
// failures with exit code 2.
func Execute() error {
	err := rootCmd.Execute()
	if err == nil {
		return nil
	}

	var exitErr *errors.ExitError
	switch {
	case errors.Is(err, snapshot.ErrUserCancelled), errors.Is(err, prompt.ErrSelectionCancelled):
		printInfo(rootCmd.OutOrStdout(), "Cancelled")
		return errors.NewExitError(err, errors.ExitSuccess)
	case errors.As(err, &exitErr):
		return err
	case errors.Is(err, snapshot.ErrNotFound), errors.Is(err, prompt.ErrNoSnapshots):
		return errors.NewUserError(err, "Run: ocsnap list")
	case errors.Is(err, snapshot.ErrIOFailure):
		return errors.NewSystemError(err, "Check free space and permissions, then run: ocsnap doctor")
	}
	return err
}

// PrintError writes err once, with its stack at debug verbosity, followed
// by the suggestion of an ExitError.
func PrintError(w io.Writer, err error) {
	if logLevel <= slog.LevelDebug {
		fmt.Fprintf(w, "%+v\n", err)
	} else {
		errorColor.Fprintf(w, "✗ %s\n", err)
	}

	var exitErr *errors.ExitError
	if errors.As(err, &exitErr) && exitErr.Suggestion != "" {
		fmt.Fprintf(w, "  %s\n", exitErr.Suggestion)
	}
}
