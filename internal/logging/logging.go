package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

// Format selects the handler used for the primary log output.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat maps a --log-format value to a Format. Matching ignores case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", errors.Newf("unknown log format %q (want text or json)", s)
	}
}

// Config describes a logger.
type Config struct {
	// Level is the minimum level written to every output.
	Level slog.Level

	Format Format

	// Output receives the primary stream. Nil means os.Stderr.
	Output io.Writer

	// Tee, when set, receives a JSON copy of every record, e.g. --log-file.
	Tee io.Writer
}

// New builds a logger from cfg. Unknown formats fall back to text.
func New(cfg Config) *slog.Logger {
	return slog.New(NewFromConfig(cfg))
}

// NewFromConfig builds the handler New wraps.
func NewFromConfig(cfg Config) slog.Handler {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	var primary slog.Handler
	if cfg.Format == FormatJSON {
		primary = JSONHandler(output, cfg.Level)
	} else {
		primary = NewHandler(output, &slog.HandlerOptions{Level: cfg.Level, ReplaceAttr: replaceLevelName})
	}

	if cfg.Tee == nil {
		return primary
	}
	return NewMultiHandler(primary, JSONHandler(cfg.Tee, cfg.Level))
}

// replaceLevelName renders LevelTrace as "TRACE" in structured output.
func replaceLevelName(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok {
		a.Value = slog.StringValue(LevelName(level))
	}
	return a
}

// JSONHandler returns a JSON handler that names LevelTrace "TRACE".
func JSONHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelName,
	})
}

// testWriter forwards handler output to t.Log, one call per record.
type testWriter struct {
	t *testing.T
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// ForTest returns a trace-level logger that writes through t.Log, so store
// logs appear next to a failing test.
func ForTest(t *testing.T) *slog.Logger {
	t.Helper()
	return New(Config{
		Level:  LevelTrace,
		Format: FormatText,
		Output: &testWriter{t: t},
	})
}
