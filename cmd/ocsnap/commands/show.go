package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/ocsnap/internal/errors"
	"github.com/thoreinstein/ocsnap/internal/snapshot"
)

var (
	showJSON bool
	showPick bool
)

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output the raw snapshot record")
	showCmd.Flags().BoolVar(&showPick, "pick", false, "Choose the snapshot with a fuzzy finder")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show snapshot details",
	Long:  `Show the metadata of one snapshot, including the captured source paths.`,
	Example: `  ocsnap show daily_20260301_100000
  ocsnap show --pick
  ocsnap show daily_20260301_100000 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	return runShowWithWriter(stdout(cmd), openStore(cmd), args)
}

func runShowWithWriter(w io.Writer, store *snapshot.Store, args []string) error {
	snap, err := resolveSnapshot(store, args, showPick)
	if err != nil {
		return err
	}

	if showJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(snap), "encoding output")
	}

	printSnapshot(w, snap)
	fmt.Fprintf(w, "  %s %s\n", boldColor.Sprint("Location:   "), store.Path(snap.ID))
	if len(snap.Paths) > 0 {
		fmt.Fprintf(w, "  %s\n", boldColor.Sprint("Sources:"))
		for _, p := range snap.Paths {
			fmt.Fprintf(w, "    %s\n", p)
		}
	}
	return nil
}
