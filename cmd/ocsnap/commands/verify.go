package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/ocsnap/internal/errors"
	"github.com/thoreinstein/ocsnap/internal/snapshot"
)

// errVerifyFailed reports that at least one snapshot no longer matches its checksum.
var errVerifyFailed = errors.New("snapshot verification failed")

func init() {
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify [id]",
	Short: "Check snapshots against their recorded checksums",
	Long: `Recompute the checksum and size of a snapshot, or of every snapshot when
no id is given, and compare them with snapshot.json.`,
	Example: `  ocsnap verify
  ocsnap verify fresh_install_20260301_100000`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	return runVerifyWithWriter(stdout(cmd), openStore(cmd), args)
}

func runVerifyWithWriter(w io.Writer, store *snapshot.Store, args []string) error {
	ids := args
	if len(ids) == 0 {
		snaps, err := store.List()
		if err != nil {
			return errors.Wrap(err, "listing snapshots")
		}
		for _, s := range snaps {
			ids = append(ids, s.ID)
		}
		if len(ids) == 0 {
			printInfo(w, "No snapshots to verify")
			return nil
		}
	}

	failed := 0
	for _, id := range ids {
		v, err := store.Verify(id)
		if err != nil {
			if len(args) > 0 {
				return errors.Wrapf(err, "verifying %s", id)
			}
			errorColor.Fprintf(w, "✗ %s: %v\n", id, err)
			failed++
			continue
		}
		if v.OK() {
			printSuccess(w, "%s %s", id, dimColor.Sprint(v.Checksum))
			continue
		}
		errorColor.Fprintf(w, "✗ %s: checksum %s, recorded %s; size %s, recorded %s\n",
			id, v.Checksum, v.Snapshot.Checksum, formatSize(v.Size), formatSize(v.Snapshot.Size))
		failed++
	}

	if failed > 0 {
		return errors.NewUserError(
			errors.Wrapf(errVerifyFailed, "%d of %d snapshots", failed, len(ids)),
			"Inspect with: ocsnap show <id>, or remove with: ocsnap delete <id>",
		)
	}
	return nil
}
