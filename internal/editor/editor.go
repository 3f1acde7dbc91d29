// Package editor launches the user's preferred text editor.
package editor

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/thoreinstein/ocsnap/internal/errors"
)

// Open runs the user's editor on path and waits for it to exit.
// The editor is attached to the process's terminal.
func Open(ctx context.Context, path string) error {
	cmd := Command(ctx, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "running editor %s", cmd.Path)
	}
	return nil
}

// Command builds the editor invocation for path. Editor values with
// arguments such as "code --wait" are split on whitespace.
func Command(ctx context.Context, path string) *exec.Cmd {
	fields := strings.Fields(detectEditor())
	args := append(fields[1:], path)
	return exec.CommandContext(ctx, fields[0], args...)
}

// detectEditor falls back through $EDITOR, $VISUAL, nano and vi.
func detectEditor() string {
	if editor := strings.TrimSpace(os.Getenv("EDITOR")); editor != "" {
		return editor
	}
	if visual := strings.TrimSpace(os.Getenv("VISUAL")); visual != "" {
		return visual
	}
	if _, err := exec.LookPath("nano"); err == nil {
		return "nano"
	}
	return "vi"
}
