// ABOUTME: Structured leveled logger shared by the CLI, MCP server, and core services
// ABOUTME: Wraps charmbracelet/log with ragdoc defaults and a discard logger for tests
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Options controls logger construction
type Options struct {
	Verbose bool
	Quiet   bool
	Level   string
	Output  io.Writer
}

// New builds a logger writing to stderr (or opts.Output).
// Verbose forces debug, Quiet forces error; otherwise Level is parsed.
func New(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          "ragdoc",
	})
	logger.SetLevel(resolveLevel(opts))
	return logger
}

// Discard returns a logger that drops everything
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// OrDiscard returns l, or a discard logger when l is nil
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

func resolveLevel(opts Options) log.Level {
	switch {
	case opts.Verbose:
		return log.DebugLevel
	case opts.Quiet:
		return log.ErrorLevel
	}

	switch strings.ToLower(strings.TrimSpace(opts.Level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
