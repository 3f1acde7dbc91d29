package commands

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/ocsnap/internal/errors"
	"github.com/thoreinstein/ocsnap/internal/paths"
	"github.com/thoreinstein/ocsnap/internal/snapshot"
)

var exportPick bool

func init() {
	exportCmd.Flags().BoolVar(&exportPick, "pick", false,
		"choose the snapshot with a fuzzy finder")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [id] [destination]",
	Short: "Export a snapshot to a .tar.gz archive",
	Long: `Pack a snapshot into {id}.tar.gz for copying to another machine.

When the destination is a directory the archive is created inside it;
otherwise it is used as the archive path. Without a destination you are
asked for one, defaulting to ~/Desktop when it exists.`,
	Example: `  ocsnap export fresh_install_20260301_100000 ~/Desktop
  ocsnap export fresh_install_20260301_100000 /tmp/openclaw.tar.gz

  See Also:
    ocsnap import - Import an archive`,
	Args: cobra.MaximumNArgs(2),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	return runExportWithWriter(stdout(cmd), openStore(cmd), args)
}

func runExportWithWriter(w io.Writer, store *snapshot.Store, args []string) error {
	snap, err := resolveSnapshot(store, args[:min(len(args), 1)], exportPick)
	if err != nil {
		return err
	}

	var dest string
	if len(args) > 1 {
		dest = args[1]
	} else if dest, err = prompter.Input("Export to", defaultExportDir()); err != nil {
		return err
	}
	dest = paths.ExpandHome(dest)

	archive, err := store.Export(snap.ID, dest)
	if err != nil {
		return errors.Wrapf(err, "exporting %s", snap.ID)
	}

	size := int64(0)
	if info, err := os.Stat(archive); err == nil {
		size = info.Size()
	}
	printSuccess(w, "Exported %s to %s (%s)", snap.ID, archive, formatSize(size))
	printInfo(w, "Copy it to another machine and run: ocsnap import %s", filepath.Base(archive))
	return nil
}

// defaultExportDir is ~/Desktop when it exists, else the working directory.
func defaultExportDir() string {
	desktop := filepath.Join(paths.Home(), "Desktop")
	if info, err := os.Stat(desktop); err == nil && info.IsDir() {
		return desktop
	}
	return "."
}
