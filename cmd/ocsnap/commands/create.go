package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/ocsnap/internal/errors"
	"github.com/thoreinstein/ocsnap/internal/snapshot"
)

var (
	createName        string
	createDescription string
	createType        string
)

func init() {
	createCmd.Flags().StringVarP(&createName, "name", "n", "",
		"snapshot name (prompted when omitted)")
	createCmd.Flags().StringVarP(&createDescription, "description", "d", "",
		"optional description")
	createCmd.Flags().StringVarP(&createType, "type", "t", "",
		"snapshot type: fresh, current, custom (prompted when --name is omitted)")
	rootCmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Snapshot the current OpenClaw configuration",
	Long: `Copy every OpenClaw configuration directory that exists into a new
snapshot named {name}_{YYYYMMDD_HHMMSS}.

Without --name the name, description and type are asked for interactively.`,
	Example: `  # Interactive
  ocsnap create

  # Scripted
  ocsnap create --name before-upgrade --type current -d "before 2.0"

  See Also:
    ocsnap list  - List snapshots
    ocsnap fresh - Save the clean-install baseline`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

func runCreate(cmd *cobra.Command, _ []string) error {
	return runCreateWithWriter(stdout(cmd), openStore(cmd))
}

func runCreateWithWriter(w io.Writer, store *snapshot.Store) error {
	name, description, typ := createName, createDescription, snapshot.Type(createType)

	if name == "" {
		var err error
		name, err = prompter.Input("Snapshot name", "snapshot_"+time.Now().Format("20060102"))
		if err != nil {
			return err
		}
		if description == "" {
			if description, err = prompter.Input("Description (optional)", ""); err != nil {
				return err
			}
		}
		if typ == "" {
			if typ, err = askType(); err != nil {
				return err
			}
		}
	}

	if typ != "" && (!typ.Valid() || typ == snapshot.TypeAuto) {
		return errors.NewUserError(
			errors.Wrapf(snapshot.ErrInvalidType, "%q", typ),
			"Use one of: fresh, current, custom",
		)
	}

	snap, err := store.Capture(name, description, typ)
	if err != nil {
		return errors.Wrap(err, "creating snapshot")
	}

	printSuccess(w, "Snapshot created")
	printSnapshot(w, snap)
	if len(snap.Paths) == 0 {
		printWarning(w, "No OpenClaw configuration was found; the snapshot is empty")
	} else {
		fmt.Fprintf(w, "  %s\n", dimColor.Sprintf("captured %s", describeSources(snap.Paths)))
	}
	return nil
}

// askType offers the user-selectable snapshot types. Unrecognized answers
// fall back to custom.
func askType() (snapshot.Type, error) {
	answer, err := prompter.Input("Type (1 fresh install, 2 current state, 3 custom)", "3")
	if err != nil {
		return "", err
	}

	switch answer {
	case "1", string(snapshot.TypeFresh):
		return snapshot.TypeFresh, nil
	case "2", string(snapshot.TypeCurrent):
		return snapshot.TypeCurrent, nil
	default:
		return snapshot.TypeCustom, nil
	}
}

// describeSources renders a path count for summaries.
func describeSources(paths []string) string {
	if len(paths) == 1 {
		return "1 source"
	}
	return fmt.Sprintf("%d sources", len(paths))
}
