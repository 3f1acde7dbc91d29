// Package errors provides error handling conventions for the ocsnap CLI.
//
// It re-exports the wrapping helpers of github.com/cockroachdb/errors so that
// packages only import one errors package, and provides an ExitError type
// carrying a process exit code.
//
// # Exit Codes
//
//   - ExitSuccess (0): command completed, or the user cancelled at a prompt
//   - ExitUser (1): user-related error (unknown snapshot, invalid input, config)
//   - ExitSystem (2): system-related error (I/O, permissions)
//
// # ExitError
//
// [ExitError] wraps an underlying error with an exit code and optional
// suggestion:
//
//	err := errors.NewUserError(snapshot.ErrNotFound, "Run: ocsnap list")
//	os.Exit(errors.ExitCode(err))
package errors
