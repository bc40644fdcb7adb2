// Package logging builds the slog logger shared by the client and server commands.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MaciejGrzybacz/DistributedSystems/internal/config"
)

// New creates and configures the structured logger based on configuration.
// The returned close func releases a log file and is a no-op for stdout and
// stderr.
func New(cfg config.LoggingConfig) (*slog.Logger, func() error) {
	w, closeFn := openOutput(cfg.Output)
	return slog.New(NewHandler(cfg, w)), closeFn
}

// NewHandler builds a text or JSON handler writing to w
func NewHandler(cfg config.LoggingConfig, w io.Writer) slog.Handler {
	level := ParseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	switch cfg.Format {
	case "json":
		return slog.NewJSONHandler(w, opts)
	default:
		return slog.NewTextHandler(w, opts)
	}
}

// ParseLevel maps a config level name to a slog level, defaulting to info
func ParseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openOutput resolves stdout, stderr or a file path. stderr is the default
// so log lines do not interleave with the console protocol output on stdout.
func openOutput(output string) (io.Writer, func() error) {
	noop := func() error { return nil }

	switch output {
	case "stderr", "":
		return os.Stderr, noop
	case "stdout":
		return os.Stdout, noop
	default:
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stderr\n", output, err)
			return os.Stderr, noop
		}
		return file, file.Close
	}
}
