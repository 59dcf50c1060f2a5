// Package logging builds the structured loggers shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Format selects the log line encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Options configures New.
type Options struct {
	// Level is a level name (debug, info, warn, error). Empty selects the
	// default for the environment.
	Level string
	// Format overrides the environment default encoding.
	Format Format
	// Development selects text output and debug level by default.
	Development bool
	// Prefix tags every line, usually with the service name.
	Prefix string
	// Output defaults to stderr.
	Output io.Writer
}

// New returns a configured logger.
func New(opts Options) (*log.Logger, error) {
	level := log.InfoLevel
	if opts.Development {
		level = log.DebugLevel
	}
	if raw := strings.TrimSpace(opts.Level); raw != "" {
		parsed, err := log.ParseLevel(strings.ToLower(raw))
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", raw, err)
		}
		level = parsed
	}

	formatter := log.JSONFormatter
	if opts.Development {
		formatter = log.TextFormatter
	}
	switch Format(strings.ToLower(string(opts.Format))) {
	case "":
	case FormatText:
		formatter = log.TextFormatter
	case FormatJSON:
		formatter = log.JSONFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return log.NewWithOptions(out, log.Options{
		Prefix:          opts.Prefix,
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	}), nil
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
