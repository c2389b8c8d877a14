package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger creates a dual-output logger: text to stderr, JSON to file.
// Returns the logger and a cleanup function to close the file.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	return setupLogger(logFile, level, level)
}

// SetupQuietLogger is SetupLogger for interactive use: stderr only shows
// warnings and errors, the file keeps everything at level.
func SetupQuietLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	return setupLogger(logFile, max(level, slog.LevelWarn), level)
}

func setupLogger(logFile string, stderrLevel, fileLevel slog.Level) (*slog.Logger, func() error) {
	if logFile == "" {
		return newLogger(os.Stderr, nil, stderrLevel, fileLevel), func() error { return nil }
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		// Fall back to stderr-only if file fails
		slog.Error("failed to open log file, using stderr only", "error", err, "file", logFile)
		return newLogger(os.Stderr, nil, stderrLevel, fileLevel), func() error { return nil }
	}

	return newLogger(os.Stderr, file, stderrLevel, fileLevel), file.Close
}

// newLogger fans out to a text handler on stderr and, when file is non-nil,
// a JSON handler on file.
func newLogger(stderr, file io.Writer, stderrLevel, fileLevel slog.Level) *slog.Logger {
	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: stderrLevel})
	if file == nil {
		return slog.New(stderrHandler)
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: fileLevel})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
}
