package logging

import "log/slog"

// LevelTrace is more verbose than slog.LevelDebug. It is enabled with -vvv
// and used for per-file events while walking snapshot trees.
const LevelTrace = slog.Level(-8)

// LevelFromVerbosity maps the count of -v flags to a log level.
//
//	0 (or negative) -> Warn
//	1               -> Info
//	2               -> Debug
//	3+              -> Trace
func LevelFromVerbosity(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelWarn
	case v == 1:
		return slog.LevelInfo
	case v == 2:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// LevelName returns the display name of a level, naming LevelTrace "TRACE"
// instead of slog's "DEBUG-4".
func LevelName(l slog.Level) string {
	if l <= LevelTrace {
		return "TRACE"
	}
	return l.String()
}
