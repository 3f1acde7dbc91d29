package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/ocsnap/internal/errors"
	"github.com/thoreinstein/ocsnap/internal/snapshot"
)

var (
	restoreForce bool
	restorePick  bool
)

func init() {
	restoreCmd.Flags().BoolVarP(&restoreForce, "force", "f", false,
		"stop a running OpenClaw without asking")
	restoreCmd.Flags().BoolVar(&restorePick, "pick", false,
		"choose the snapshot with a fuzzy finder")
	rootCmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore [id]",
	Short: "Replace the live configuration with a snapshot",
	Long: `Restore a snapshot over the live OpenClaw configuration.

The current configuration is first saved as an "auto_before_restore"
snapshot. Each configuration directory in the snapshot then replaces its
live counterpart wholesale; nothing is merged. A running OpenClaw is stopped
first, after confirmation unless --force is given.

You must type RESTORE to continue.`,
	Example: `  # Choose from a numbered list
  ocsnap restore

  # Restore a specific snapshot
  ocsnap restore fresh_install_20260301_100000

  # Stop OpenClaw without asking
  ocsnap restore fresh_install_20260301_100000 --force

  See Also:
    ocsnap list - List snapshots`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	return runRestoreWithWriter(cmd.Context(), stdout(cmd), openStore(cmd), args)
}

func runRestoreWithWriter(ctx context.Context, w io.Writer, store *snapshot.Store, args []string) error {
	snap, err := resolveSnapshot(store, args, restorePick)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s\n", headerColor.Sprintf("Restore %s", snap.ID))
	printSnapshot(w, snap)
	fmt.Fprintln(w)
	printWarning(w, "This replaces the current OpenClaw configuration.")
	printWarning(w, "If interrupted while copying, the configuration may be left missing;")
	printWarning(w, "recover it from the %s snapshot.", snapshot.SafetyName)

	ok, err := prompter.Confirm("Restore this snapshot?", phraseRestore)
	if err != nil {
		return err
	}
	if !ok {
		return snapshot.ErrUserCancelled
	}

	result, err := store.Restore(ctx, snap.ID, snapshot.RestoreOptions{
		Force:   restoreForce,
		Confirm: confirmStop,
	})
	if err != nil {
		return errors.Wrapf(err, "restoring %s", snap.ID)
	}

	if result.Stopped {
		printInfo(w, "Stopped the running application")
	}
	if result.Safety != nil {
		printInfo(w, "Previous configuration saved as %s", result.Safety.ID)
	}
	for _, target := range result.Targets {
		fmt.Fprintf(w, "  %s %s\n", dimColor.Sprint("restored"), target)
	}
	printSuccess(w, "Restore complete. Start OpenClaw again, e.g. 'openclaw gateway restart'")
	return nil
}

// confirmStop asks before restore stops a running application.
func confirmStop(process string) (bool, error) {
	return prompter.Confirm(fmt.Sprintf("%s is running and must be stopped before restoring.", process), phraseYes)
}
