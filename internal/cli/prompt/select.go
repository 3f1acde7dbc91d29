// Package prompt provides interactive CLI prompts for user input.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/thoreinstein/ocsnap/internal/errors"
	"github.com/thoreinstein/ocsnap/internal/snapshot"
)

// MaxChoices is the number of snapshots offered by number.
const MaxChoices = 10

// Sentinel errors for snapshot selection.
var (
	ErrNoSnapshots        = errors.New("no snapshots to select from")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// Prompter reads answers from one input stream. Prompts share a buffered
// reader so piped answers are consumed line by line.
type Prompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewPrompter creates a Prompter using stdin and stdout.
func NewPrompter() *Prompter {
	return NewPrompterWithIO(os.Stdin, os.Stdout)
}

// NewPrompterWithIO creates a Prompter with custom reader and writer for testing.
func NewPrompterWithIO(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// readLine returns the next line without its line ending. EOF before any
// input is reported as ErrSelectionCancelled.
func (p *Prompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			return "", ErrSelectionCancelled
		}
		if !errors.Is(err, io.EOF) {
			return "", errors.Wrap(err, "reading input")
		}
	}
	return strings.TrimSpace(line), nil
}

// Input asks for a free-form value. An empty answer returns def.
func (p *Prompter) Input(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.writer, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.writer, "%s: ", label)
	}

	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Confirm asks the user to type phrase exactly. Any other answer, including
// different case, declines.
func (p *Prompter) Confirm(message, phrase string) (bool, error) {
	fmt.Fprintf(p.writer, "%s\nType %q to continue: ", message, phrase)

	answer, err := p.readLine()
	if err != nil {
		if errors.Is(err, ErrSelectionCancelled) {
			return false, nil
		}
		return false, err
	}
	return answer == phrase, nil
}

// SelectSnapshot lists up to MaxChoices snapshots and reads a choice, either
// a number from the list or any snapshot id.
//
// Returns:
//   - ErrNoSnapshots if the list is empty
//   - The selected snapshot
//   - ErrInvalidSelection if the answer is out of range or an unknown id
//   - ErrSelectionCancelled on an empty answer or EOF
func (p *Prompter) SelectSnapshot(snaps []snapshot.Snapshot) (*snapshot.Snapshot, error) {
	if len(snaps) == 0 {
		return nil, ErrNoSnapshots
	}

	shown := snaps[:min(len(snaps), MaxChoices)]
	fmt.Fprintln(p.writer, "Available snapshots:")
	for i, s := range shown {
		fmt.Fprintf(p.writer, "  [%d] %s (%s, %s)\n", i+1, s.ID, s.Type, s.Timestamp)
	}
	if len(snaps) > len(shown) {
		fmt.Fprintf(p.writer, "  ... %d more, enter an id to choose one\n", len(snaps)-len(shown))
	}
	fmt.Fprint(p.writer, "Select snapshot (number or id): ")

	input, err := p.readLine()
	if err != nil {
		return nil, err
	}
	if input == "" {
		return nil, ErrSelectionCancelled
	}

	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(shown) {
			return nil, errors.Wrapf(ErrInvalidSelection, "%d is out of range [1-%d]", n, len(shown))
		}
		return &shown[n-1], nil
	}

	for i := range snaps {
		if snaps[i].ID == input {
			return &snaps[i], nil
		}
	}
	return nil, errors.Wrapf(ErrInvalidSelection, "no snapshot with id %q", input)
}
