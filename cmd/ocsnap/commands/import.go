package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/ocsnap/internal/errors"
	"github.com/thoreinstein/ocsnap/internal/paths"
	"github.com/thoreinstein/ocsnap/internal/snapshot"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import [archive]",
	Short: "Import a snapshot archive",
	Long: `Import a .tar.gz archive created by 'ocsnap export'.

Archives with entries outside the snapshot directory, absolute paths, links
leaving the snapshot, or device files are rejected. A snapshot with the same
id already in the store is replaced.`,
	Example: `  ocsnap import ~/Desktop/fresh_install_20260301_100000.tar.gz

  See Also:
    ocsnap export  - Export a snapshot
    ocsnap restore - Restore the imported snapshot`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	return runImportWithWriter(stdout(cmd), openStore(cmd), args)
}

func runImportWithWriter(w io.Writer, store *snapshot.Store, args []string) error {
	var archive string
	if len(args) > 0 {
		archive = args[0]
	} else {
		var err error
		if archive, err = prompter.Input("Archive path (.tar.gz)", ""); err != nil {
			return err
		}
	}
	if archive == "" {
		return errors.NewUserError(errors.New("no archive given"), "Pass the path to a .tar.gz created by ocsnap export")
	}

	result, err := store.Import(paths.ExpandHome(archive))
	if err != nil {
		if errors.Is(err, snapshot.ErrUnsafeArchive) || errors.Is(err, snapshot.ErrInvalidArchive) {
			return errors.NewUserError(err, "Only import archives created by ocsnap export")
		}
		return err
	}

	if result.Replaced {
		printWarning(w, "Replaced the existing snapshot %s", result.Snapshot.ID)
	}
	printSuccess(w, "Imported snapshot")
	printSnapshot(w, result.Snapshot)
	printInfo(w, "Restore it with: ocsnap restore %s", result.Snapshot.ID)
	return nil
}
