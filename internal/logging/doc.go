// Package logging configures the slog loggers used by ocsnap.
//
// Diagnostics go to stderr so command output on stdout stays clean for
// pipes. On a terminal the text handler colors level names; otherwise it
// prints plain key=value lines. --log-format json switches to
// [JSONHandler], and --log-file tees every record into a JSON file through
// [MultiHandler].
//
// The CLI picks the level from -v flags or OCSNAP_DEBUG:
//
//	logger := logging.New(logging.Config{
//		Level:  logging.LevelFromVerbosity(verbosity),
//		Format: logging.FormatText,
//		Output: os.Stderr,
//	})
//	ctx = logging.NewContext(ctx, logger)
//
// The snapshot store takes its logger through snapshot.WithLogger. Tests pass
// [ForTest] so store logs show up with the failing test.
package logging
