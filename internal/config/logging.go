package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger builds the engine's dual-output logger: human-readable text on
// stderr for whoever is tailing the process, JSON appended to logFile for the
// log pipeline. Every record carries a "service" attribute so the two event
// streams and the detection pass can be told apart downstream. The returned
// cleanup closes the file; when the file cannot be opened the logger degrades
// to stderr only and keeps running, since detection must not die over a log
// path.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	opts := &slog.HandlerOptions{Level: level}
	stderrHandler := slog.NewTextHandler(os.Stderr, opts)

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.Error("failed to open log file, using stderr only", "error", err, "file", logFile)
		return newServiceLogger(stderrHandler), func() error { return nil }
	}

	fileHandler := slog.NewJSONHandler(file, opts)
	logger := newServiceLogger(slogmulti.Fanout(stderrHandler, fileHandler))

	return logger, file.Close
}

// SetupLoggerWithWriters builds the same fanout over custom writers, for
// tests that want to assert on log output.
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	return newServiceLogger(slogmulti.Fanout(
		slog.NewTextHandler(stderr, opts),
		slog.NewJSONHandler(file, opts),
	))
}

func newServiceLogger(h slog.Handler) *slog.Logger {
	return slog.New(h).With("service", "meetcoach")
}
