package commands

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/ocsnap/internal/cli/prompt"
	"github.com/thoreinstein/ocsnap/internal/logging"
	"github.com/thoreinstein/ocsnap/internal/paths"
	"github.com/thoreinstein/ocsnap/internal/snapshot"
)

// Output styles. fatih/color drops the escapes when color.NoColor is set.
var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgCyan, color.Bold)
	boldColor    = color.New(color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

// Confirmation phrases typed by the user.
const (
	phraseRestore = "RESTORE"
	phraseDelete  = "DELETE"
	phraseYes     = "yes"
)

// prompter reads interactive answers. Tests replace it.
var prompter = prompt.NewPrompter()

func printSuccess(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, "✓ "+format+"\n", args...)
}

func printWarning(w io.Writer, format string, args ...any) {
	warnColor.Fprintf(w, "⚠ "+format+"\n", args...)
}

func printInfo(w io.Writer, format string, args ...any) {
	infoColor.Fprintf(w, "ℹ "+format+"\n", args...)
}

// stdout returns the command's output stream, or io.Discard with --quiet.
func stdout(cmd *cobra.Command) io.Writer {
	if quiet {
		return io.Discard
	}
	return cmd.OutOrStdout()
}

// openStore builds the snapshot store from the loaded configuration and the
// --store override.
func openStore(cmd *cobra.Command) *snapshot.Store {
	cfg := currentConfig()

	root := cfg.StoreDir
	if storeDir != "" {
		root = paths.ExpandHome(storeDir)
	}

	return snapshot.NewStore(
		root,
		snapshot.NewLocator(cfg.Sources...),
		snapshot.WithProcess(cfg.ProcessName),
		snapshot.WithStopTimeout(cfg.StopTimeout),
		snapshot.WithLogger(logging.FromContext(cmd.Context())),
	)
}

// resolveSnapshot returns the snapshot named by args[0], or asks the user to
// choose one by number, id, or with the fuzzy finder when pick is set.
func resolveSnapshot(store *snapshot.Store, args []string, pick bool) (*snapshot.Snapshot, error) {
	if len(args) > 0 {
		return store.Get(args[0])
	}

	snaps, err := store.List()
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, prompt.ErrNoSnapshots
	}
	if pick {
		return prompt.PickSnapshot(snaps)
	}
	return prompter.SelectSnapshot(snaps)
}

// formatSize renders a byte count for humans, e.g. "1.2 MB".
func formatSize(n int64) string {
	return humanize.Bytes(uint64(max(n, 0)))
}

// printSnapshot writes the detail block shown after create, show and import.
func printSnapshot(w io.Writer, s *snapshot.Snapshot) {
	fmt.Fprintf(w, "  %s %s\n", boldColor.Sprint("ID:         "), s.ID)
	fmt.Fprintf(w, "  %s %s\n", boldColor.Sprint("Name:       "), s.Name)
	if s.Description != "" {
		fmt.Fprintf(w, "  %s %s\n", boldColor.Sprint("Description:"), s.Description)
	}
	fmt.Fprintf(w, "  %s %s\n", boldColor.Sprint("Type:       "), s.Type)
	fmt.Fprintf(w, "  %s %s (%s)\n", boldColor.Sprint("Created:    "),
		s.CreatedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(s.CreatedAt))
	fmt.Fprintf(w, "  %s %s\n", boldColor.Sprint("Size:       "), formatSize(s.Size))
	fmt.Fprintf(w, "  %s %s\n", boldColor.Sprint("Checksum:   "), s.Checksum)
}
