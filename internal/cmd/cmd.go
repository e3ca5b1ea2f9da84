// Package cmd implements the fontcache command line.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"ocm.software/open-component-model/fontcache/internal/log"
)

const (
	ConfigFlag      = "config"
	CacheDirFlag    = "cache-dir"
	WorkersFlag     = "workers"
	QueueSizeFlag   = "queue-size"
	TimeoutFlag     = "timeout"
	MetricsAddrFlag = "metrics-addr"
	ManifestFlag    = "manifest"
)

// Execute runs the fontcache command and exits with a non-zero code on failure.
// This is called by main.main().
func Execute() {
	if err := New().Execute(); err != nil {
		os.Exit(1)
	}
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fontcache [sub-command]",
		Short: "Fetch font faces once and serve them from a local cache",
		Long: `fontcache resolves batches of font faces, identified by family and variant,
  into a local cache. Every distinct resource is fetched at most once, concurrent
  requests for the same resource share the single fetch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: PreRunE,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	cmd.PersistentFlags().String(ConfigFlag, "", `path to a configuration file`)
	cmd.PersistentFlags().String(CacheDirFlag, "", `directory fetched resources are stored in, overriding the config file value`)
	cmd.PersistentFlags().Int(WorkersFlag, 0, `number of concurrent fetches, overriding the config file value`)
	cmd.PersistentFlags().Int(QueueSizeFlag, 0, `number of fetches waiting for a worker, overriding the config file value`)
	cmd.PersistentFlags().Duration(TimeoutFlag, 0, `HTTP client timeout, overriding the config file value (e.g. "30s", "5m")`)
	cmd.PersistentFlags().String(MetricsAddrFlag, "", `serve prometheus metrics on this address while running (e.g. ":9090")`)
	log.RegisterLoggingFlags(cmd)

	cmd.AddCommand(NewFetch())
	cmd.AddCommand(NewGet())
	return cmd
}
