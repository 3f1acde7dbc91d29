package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/ocsnap/internal/errors"
	"github.com/thoreinstein/ocsnap/internal/snapshot"
)

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List snapshots",
	Long: `List every snapshot in the store, newest first.

Directories in the store without a readable snapshot.json are skipped.`,
	Example: `  # Table output
  ocsnap list

  # JSON output
  ocsnap list --json

  See Also:
    ocsnap show    - Show one snapshot
    ocsnap restore - Restore a snapshot`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, _ []string) error {
	return runListWithWriter(stdout(cmd), openStore(cmd))
}

func runListWithWriter(w io.Writer, store *snapshot.Store) error {
	snaps, err := store.List()
	if err != nil {
		return errors.Wrap(err, "listing snapshots")
	}

	if listJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(snaps), "encoding output")
	}

	fmt.Fprintf(w, "%s\n", headerColor.Sprintf("Snapshots (%d) in %s", len(snaps), store.Root()))
	if len(snaps) == 0 {
		fmt.Fprintln(w)
		printInfo(w, "No snapshots yet. Create one with: ocsnap create")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSIZE\tCREATED")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\n",
			s.ID,
			s.Name,
			typeIcon(s.Type), s.Type,
			formatSize(s.Size),
			humanize.Time(s.CreatedAt))
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "writing table")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, dimColor.Sprint("Restore one with: ocsnap restore <ID>"))
	return nil
}

func typeIcon(t snapshot.Type) string {
	switch t {
	case snapshot.TypeFresh:
		return "🌱"
	case snapshot.TypeCurrent:
		return "🏠"
	case snapshot.TypeCustom:
		return "⚙"
	case snapshot.TypeAuto:
		return "🤖"
	default:
		return "📦"
	}
}
