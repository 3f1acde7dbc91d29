package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/ocsnap/internal/errors"
	"github.com/thoreinstein/ocsnap/internal/snapshot"
)

func init() {
	rootCmd.AddCommand(compareCmd)
}

var compareCmd = &cobra.Command{
	Use:   "compare <id1> <id2>",
	Short: "Compare two snapshots",
	Long: `Report the difference in creation time and size between two snapshots,
and whether their checksums differ.`,
	Example: `  ocsnap compare fresh_install_20260301_100000 daily_20260310_080000`,
	Args:    cobra.ExactArgs(2),
	RunE:    runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	return runCompareWithWriter(stdout(cmd), openStore(cmd), args[0], args[1])
}

func runCompareWithWriter(w io.Writer, store *snapshot.Store, id1, id2 string) error {
	diff, err := store.Compare(id1, id2)
	if err != nil {
		return errors.Wrap(err, "comparing snapshots")
	}

	fmt.Fprintf(w, "%s\n", headerColor.Sprintf("%s vs %s", id1, id2))
	fmt.Fprintf(w, "  %s %s / %s\n", boldColor.Sprint("Names:   "), diff.Name1, diff.Name2)
	fmt.Fprintf(w, "  %s %s\n", boldColor.Sprint("Created: "), describeTimeDiff(diff))
	fmt.Fprintf(w, "  %s %s\n", boldColor.Sprint("Size:    "), describeSizeDiff(diff.SizeDiff))
	if diff.ChecksumDiff {
		fmt.Fprintf(w, "  %s %s\n", boldColor.Sprint("Content: "), warnColor.Sprint("differs"))
	} else {
		fmt.Fprintf(w, "  %s %s\n", boldColor.Sprint("Content: "), successColor.Sprint("identical"))
	}
	return nil
}

func describeTimeDiff(d *snapshot.Diff) string {
	switch {
	case !d.TimestampDiff:
		return "same timestamp"
	case d.TimeDiff > 0:
		return fmt.Sprintf("%s is %s newer", d.Name1, d.TimeDiff.Round(time.Second))
	case d.TimeDiff < 0:
		return fmt.Sprintf("%s is %s older", d.Name1, (-d.TimeDiff).Round(time.Second))
	default:
		return "timestamps differ"
	}
}

func describeSizeDiff(n int64) string {
	switch {
	case n > 0:
		return "+" + humanize.Bytes(uint64(n))
	case n < 0:
		return "-" + humanize.Bytes(uint64(-n))
	default:
		return "same size"
	}
}
