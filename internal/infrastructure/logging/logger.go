package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/relaykitchen/cooker-core/internal/infrastructure/config"
)

// Logger wraps slog.Logger with cookerd defaults.
//
// All methods are safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New creates a Logger from the loaded configuration.
//
// Output selection matters more here than in most daemons: when the
// assistant is enabled, stdout carries the MCP protocol stream, so log
// output must go to stderr to keep the stream parseable.
func New(cfg config.LoggingConfig, version string) *Logger {
	output := resolveOutput(cfg.Output)

	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "cookerd"),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler)}
}

// resolveOutput maps a configured output name to a writer. Anything
// other than an explicit "stdout" lands on stderr, so a typo in the
// config can never pollute an MCP stream.
func resolveOutput(name string) io.Writer {
	if strings.ToLower(name) == "stdout" {
		return os.Stdout
	}
	return os.Stderr
}

// parseLevel converts a string log level to slog.Level.
// Unrecognised levels default to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger carrying additional default attributes.
//
// Example:
//
//	relayLogger := logger.With("component", "relay")
//	relayLogger.Info("connected") // Includes component=relay
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default creates the logger used before configuration is loaded.
// Text on stderr at info level: stdout is never safe to assume during
// early startup because the process may be speaking MCP on it.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "text",
		Output: "stderr",
	}, "dev")
}
