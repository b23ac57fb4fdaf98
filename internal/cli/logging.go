package cli

import (
	"log/slog"
	"os"

	"github.com/nameless-analytics/nameless-tools/internal/constants"
)

// LevelFromVerbosity maps the count of -v flags to a log level.
func LevelFromVerbosity(verbosity int) slog.Level {
	if verbosity <= 0 {
		return constants.DefaultLogLevel
	}
	if verbosity == 1 {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// SetVerbosity sets the level of the default logger from the count of -v flags.
func SetVerbosity(verbosity int) {
	slog.SetLogLoggerLevel(LevelFromVerbosity(verbosity))
}

// SetSlog configures the default logger level and format.
//
// Both formats write to stderr: stdout is reserved for the status lines of the tools.
func SetSlog(verbosity int, jsonLogs bool) {
	if !jsonLogs {
		SetVerbosity(verbosity)
		return
	}

	opts := &slog.HandlerOptions{Level: LevelFromVerbosity(verbosity)}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)))
}
