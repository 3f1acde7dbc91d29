package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/ocsnap/internal/config"
	"github.com/thoreinstein/ocsnap/internal/doctor"
	"github.com/thoreinstein/ocsnap/internal/editor"
	"github.com/thoreinstein/ocsnap/internal/errors"
	"github.com/thoreinstein/ocsnap/internal/paths"
	"github.com/thoreinstein/ocsnap/pkg/fileutil"
)

// configFilePerm matches the store's private file mode.
const configFilePerm = 0o600

var configInitForce bool

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false,
		"overwrite an existing config file")

	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ocsnap configuration",
	Long: `Manage ocsnap configuration stored in $XDG_CONFIG_HOME/ocsnap/config.yaml.

Keys:
  store_dir     snapshot store root (default ~/.openclaw_snapshots)
  sources       OpenClaw configuration directories, primary first
  process_name  process stopped before restore; empty disables the check
  stop_timeout  how long to wait for it to exit (e.g. 5s)

Every key can be overridden with an OCSNAP_ environment variable, e.g.
OCSNAP_STORE_DIR. Without a subcommand, lists the effective configuration.`,
	Example: `  ocsnap config
  ocsnap config get store_dir
  ocsnap config init
  ocsnap config edit

See Also: ocsnap doctor`,
	RunE: runConfigList,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the effective configuration",
	Long:  `List every configuration value in YAML, after defaults and environment overrides.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long:  `Print a single configuration value. List values are printed one per line.`,
	Example: `  ocsnap config get store_dir
  ocsnap config get sources`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	Long: `Create the config file with the default values so they can be edited.

An existing file is left alone unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open configuration in $EDITOR",
	Long: `Open the config file in your editor and check it afterwards.

Uses $EDITOR, then $VISUAL, then nano or vi.`,
	Example: `  ocsnap config edit
  EDITOR="code --wait" ocsnap config edit`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

// configValues renders a Config with the file's key names.
func configValues(cfg *config.Config) map[string]any {
	return map[string]any{
		config.KeyVersion:     cfg.Version,
		config.KeyStoreDir:    cfg.StoreDir,
		config.KeySources:     cfg.Sources,
		config.KeyProcessName: cfg.ProcessName,
		config.KeyStopTimeout: cfg.StopTimeout.String(),
	}
}

// configPath is the file config init and edit operate on.
func configPath() string {
	if configFile != "" {
		return paths.ExpandHome(configFile)
	}
	return paths.ConfigFile()
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	return runConfigListWithWriter(cmd.OutOrStdout(), currentConfig(), config.UsedFile())
}

func runConfigListWithWriter(w io.Writer, cfg *config.Config, source string) error {
	data, err := yaml.Marshal(configValues(cfg))
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	if source == "" {
		source = "defaults"
	}
	fmt.Fprintf(w, "# source: %s\n", source)
	_, err = w.Write(data)
	return errors.Wrap(err, "writing config")
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	return runConfigGetWithWriter(cmd.OutOrStdout(), currentConfig(), args[0])
}

func runConfigGetWithWriter(w io.Writer, cfg *config.Config, key string) error {
	val, ok := configValues(cfg)[key]
	if !ok {
		return errors.NewUserError(
			errors.Newf("unknown config key %q", key),
			"Run: ocsnap config list",
		)
	}

	if list, ok := val.([]string); ok {
		for _, item := range list {
			fmt.Fprintln(w, item)
		}
		return nil
	}
	fmt.Fprintln(w, val)
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	return runConfigInitWithWriter(stdout(cmd), configPath(), configInitForce)
}

func runConfigInitWithWriter(w io.Writer, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.NewUserError(
			errors.Newf("config file already exists at %s", path),
			"Use --force to overwrite it, or: ocsnap config edit",
		)
	}

	if err := paths.EnsureDir(filepath.Dir(path), 0); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	if err := fileutil.AtomicWriteYAMLWithPerm(path, configValues(config.Default()), configFilePerm); err != nil {
		return errors.Wrap(err, "writing config file")
	}

	printSuccess(w, "Wrote %s", path)
	return nil
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	path := configPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return errors.NewConfigError(errors.Newf("config file not found at %s", path))
	}

	fmt.Fprintf(stdout(cmd), "Location: %s\n", path)
	if err := editor.Open(cmd.Context(), path); err != nil {
		return err
	}

	result := doctor.NewConfigCheck(path).Run()
	switch result.Status {
	case doctor.SeverityError:
		printWarning(stdout(cmd), "%s", result.Message)
		return errors.NewUserError(errors.New(result.Message), "Run: ocsnap doctor --all")
	case doctor.SeverityWarning:
		printWarning(stdout(cmd), "%s", result.Message)
	}
	return nil
}
