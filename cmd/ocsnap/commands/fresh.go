package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/ocsnap/internal/errors"
	"github.com/thoreinstein/ocsnap/internal/snapshot"
)

// Identity of the clean-install baseline.
const (
	freshName        = "fresh_install"
	freshDescription = "Clean install baseline, right after initial setup"
)

func init() {
	rootCmd.AddCommand(freshCmd)
}

var freshCmd = &cobra.Command{
	Use:   "fresh",
	Short: "Save the current configuration as the clean-install baseline",
	Long: `Create a "fresh" snapshot named fresh_install from the current
configuration, to return to after a reinstall.

You must type yes to continue.`,
	Example: `  ocsnap fresh`,
	Args:    cobra.NoArgs,
	RunE:    runFresh,
}

func runFresh(cmd *cobra.Command, _ []string) error {
	return runFreshWithWriter(stdout(cmd), openStore(cmd))
}

func runFreshWithWriter(w io.Writer, store *snapshot.Store) error {
	printInfo(w, "This saves the current OpenClaw configuration as the clean-install baseline.")
	ok, err := prompter.Confirm("Continue?", phraseYes)
	if err != nil {
		return err
	}
	if !ok {
		return snapshot.ErrUserCancelled
	}

	snap, err := store.Capture(freshName, freshDescription, snapshot.TypeFresh)
	if err != nil {
		return errors.Wrap(err, "creating fresh snapshot")
	}

	printSuccess(w, "Baseline snapshot created")
	printSnapshot(w, snap)
	printInfo(w, "After a reinstall, bring it back with: ocsnap restore %s", snap.ID)
	return nil
}
