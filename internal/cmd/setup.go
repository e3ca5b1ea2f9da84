package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ocm.software/open-component-model/fontcache/internal/configuration"
	"ocm.software/open-component-model/fontcache/internal/log"
)

type configKey struct{}

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *configuration.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// ConfigFromContext returns the configuration stored in ctx, or the default configuration.
func ConfigFromContext(ctx context.Context) *configuration.Config {
	if cfg, ok := ctx.Value(configKey{}).(*configuration.Config); ok {
		return cfg
	}
	return configuration.Default()
}

// PreRunE sets up logging and configuration for all commands.
func PreRunE(cmd *cobra.Command, _ []string) error {
	logger, err := log.NewFromFlags(cmd)
	if err != nil {
		return fmt.Errorf("could not retrieve logger: %w", err)
	}
	slog.SetDefault(logger)

	cfg := configuration.Default()
	if path, _ := cmd.Flags().GetString(ConfigFlag); path != "" {
		if cfg, err = configuration.Load(path); err != nil {
			return err
		}
		slog.DebugContext(cmd.Context(), "loaded configuration", slog.String("path", path))
	}

	// cli flags take precedence over the config file
	flags := cmd.Flags()
	if changed(flags, CacheDirFlag) {
		cfg.CacheDir, _ = flags.GetString(CacheDirFlag)
	}
	if changed(flags, WorkersFlag) {
		cfg.Workers, _ = flags.GetInt(WorkersFlag)
	}
	if changed(flags, QueueSizeFlag) {
		cfg.QueueSize, _ = flags.GetInt(QueueSizeFlag)
	}
	if changed(flags, TimeoutFlag) {
		timeout, _ := flags.GetDuration(TimeoutFlag)
		cfg.HTTP.Timeout = configuration.Duration(timeout)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	slog.DebugContext(cmd.Context(), "using configuration",
		slog.String("cacheDir", cfg.CacheDir),
		slog.Int("workers", cfg.Workers),
		slog.Int("queueSize", cfg.QueueSize),
		slog.String("timeout", cfg.HTTP.Timeout.String()))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(WithConfig(ctx, cfg))
	return nil
}

func changed(flags *pflag.FlagSet, name string) bool {
	flag := flags.Lookup(name)
	return flag != nil && flag.Changed
}
