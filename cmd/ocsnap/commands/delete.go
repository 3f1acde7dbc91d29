package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/ocsnap/internal/errors"
	"github.com/thoreinstein/ocsnap/internal/snapshot"
)

var deletePick bool

func init() {
	deleteCmd.Flags().BoolVar(&deletePick, "pick", false,
		"choose the snapshot with a fuzzy finder")
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:     "delete [id]",
	Aliases: []string{"rm"},
	Short:   "Delete a snapshot",
	Long: `Permanently remove a snapshot from the store.

You must type DELETE to continue.`,
	Example: `  ocsnap delete
  ocsnap delete old_20260101_090000`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	return runDeleteWithWriter(stdout(cmd), openStore(cmd), args)
}

func runDeleteWithWriter(w io.Writer, store *snapshot.Store, args []string) error {
	snap, err := resolveSnapshot(store, args, deletePick)
	if err != nil {
		return err
	}

	printWarning(w, "Deleting %s cannot be undone.", snap.ID)
	ok, err := prompter.Confirm("Delete this snapshot?", phraseDelete)
	if err != nil {
		return err
	}
	if !ok {
		return snapshot.ErrUserCancelled
	}

	if err := store.Delete(snap.ID); err != nil {
		return errors.Wrapf(err, "deleting %s", snap.ID)
	}
	printSuccess(w, "Deleted %s", snap.ID)
	return nil
}
