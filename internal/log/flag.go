// Package log configures the command line logger.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"ocm.software/open-component-model/fontcache/internal/flags/enum"
)

const (
	FlagLogLevel  = "loglevel"
	FlagLogFormat = "logformat"
)

// Format selects the slog handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// DefaultLevel keeps fetch chatter out of command output unless asked for.
const DefaultLevel = slog.LevelWarn

// levelChoices are the values accepted by the log level flag, the default first.
var levelChoices = []slog.Level{DefaultLevel, slog.LevelDebug, slog.LevelInfo, slog.LevelError}

// Options describes a logger.
type Options struct {
	Level  slog.Level
	Format Format
	// Output receives log records. Required.
	Output io.Writer
}

// RegisterLoggingFlags adds the log level and format flags to cmd and all of its subcommands.
// The first value of each enum is its default.
func RegisterLoggingFlags(cmd *cobra.Command) {
	names := make([]string, len(levelChoices))
	for i, level := range levelChoices {
		names[i] = strings.ToLower(level.String())
	}
	enum.Var(cmd.PersistentFlags(), FlagLogLevel, names, "set the log level")
	enum.Var(cmd.PersistentFlags(), FlagLogFormat, []string{string(FormatText), string(FormatJSON)}, "set the log format")
}

// OptionsFromFlags reads the logging flags of cmd. Logs go to stderr, stdout is reserved
// for command output.
func OptionsFromFlags(cmd *cobra.Command) (Options, error) {
	levelName, err := enum.Get(cmd.Flags(), FlagLogLevel)
	if err != nil {
		return Options{}, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return Options{}, fmt.Errorf("invalid log level %q: %w", levelName, err)
	}

	format, err := enum.Get(cmd.Flags(), FlagLogFormat)
	if err != nil {
		return Options{}, err
	}

	return Options{Level: level, Format: Format(format), Output: cmd.ErrOrStderr()}, nil
}

// New creates a logger from opts. Debug output carries the source location.
func New(opts Options) (*slog.Logger, error) {
	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.Level <= slog.LevelDebug,
	}

	var handler slog.Handler
	switch opts.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	case FormatText, "":
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	default:
		return nil, fmt.Errorf("invalid log format: %s", opts.Format)
	}
	return slog.New(handler), nil
}

// NewFromFlags creates the logger configured by the logging flags of cmd.
func NewFromFlags(cmd *cobra.Command) (*slog.Logger, error) {
	opts, err := OptionsFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	return New(opts)
}

// Logr bridges logger for packages logging through logr. logr verbosity V(n) maps to
// slog level -n, so V(1) output is only visible with the debug level.
func Logr(logger *slog.Logger) logr.Logger {
	return logr.FromSlogHandler(logger.Handler())
}
