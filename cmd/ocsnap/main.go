// Package main is the entry point for the ocsnap CLI.
package main

import (
	"os"

	"github.com/thoreinstein/ocsnap/cmd/ocsnap/commands"
	"github.com/thoreinstein/ocsnap/internal/errors"
)

func main() {
	err := commands.Execute()
	if err == nil {
		return
	}

	code := errors.ExitCode(err)
	if code != errors.ExitSuccess {
		commands.PrintError(os.Stderr, err)
	}
	os.Exit(code)
}
