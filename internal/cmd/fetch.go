package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"ocm.software/open-component-model/fontcache/internal/configuration"
	"ocm.software/open-component-model/fontcache/internal/flags/enum"
	"ocm.software/open-component-model/fontcache/internal/resolution"
)

const (
	OutputFlag   = "output"
	OutputTable  = "table"
	OutputJSON   = "json"
	OutputText   = "text"
	StatusOK     = "resolved"
	StatusFailed = "failed"
)

func NewFetch() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch -m manifest.yaml",
		Short: "Fetch all font faces of a manifest into the cache",
		Long: `Submit all font faces of a manifest as one batch and wait until every distinct
resource reached a terminal state. Faces that were already fetched are served
from the cache, resources shared by several faces are fetched once.`,
		Example: `  fontcache fetch -m fonts.yaml
  fontcache fetch -m fonts.yaml --workers 4 -o json`,
		Args: cobra.NoArgs,
		RunE: runFetch,
	}
	cmd.Flags().StringP(ManifestFlag, "m", "", "path to the font face manifest")
	_ = cmd.MarkFlagRequired(ManifestFlag)
	enum.VarP(cmd.Flags(), OutputFlag, "o", []string{OutputTable, OutputJSON}, "output format of the fetch summary")
	return cmd
}

// faceStatus is the state of one face after a batch completed.
type faceStatus struct {
	Family  string `json:"family"`
	Variant string `json:"variant"`
	Key     string `json:"key"`
	Status  string `json:"status"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
}

func runFetch(cmd *cobra.Command, _ []string) error {
	manifestPath, err := cmd.Flags().GetString(ManifestFlag)
	if err != nil {
		return fmt.Errorf("getting manifest flag failed: %w", err)
	}
	output, err := enum.Get(cmd.Flags(), OutputFlag)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}
	manifest, err := configuration.LoadManifest(manifestPath)
	if err != nil {
		return err
	}
	metricsAddr, _ := cmd.Flags().GetString(MetricsAddrFlag)

	rt, err := newRuntime(ConfigFromContext(cmd.Context()), slog.Default(), metricsAddr)
	if err != nil {
		return err
	}

	var statuses []faceStatus
	err = rt.run(cmd.Context(), func(ctx context.Context) error {
		select {
		case result := <-rt.coordinator.Submit(ctx, manifest.FontFaces):
			slog.InfoContext(ctx, "batch completed", slog.Int("resources", result.Size))
		case <-ctx.Done():
			return ctx.Err()
		}
		statuses = collectStatuses(rt.coordinator, manifest.FontFaces)
		return nil
	})
	if err != nil {
		return err
	}

	if err := renderStatuses(cmd.OutOrStdout(), output, statuses); err != nil {
		return err
	}

	failed := 0
	for _, s := range statuses {
		if s.Status != StatusOK {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d font faces could not be resolved", failed, len(statuses))
	}
	return nil
}

func collectStatuses(coordinator *resolution.Coordinator, entries []resolution.Entry) []faceStatus {
	valid, _ := resolution.Sanitize(entries)
	statuses := make([]faceStatus, 0, len(valid))
	for _, e := range valid {
		key := resolution.Resolve(e.Family, e.Variant, e.Locator)
		status := faceStatus{Family: e.Family, Variant: e.Variant, Key: key.String()}
		outcome, ok := coordinator.Outcome(key)
		switch {
		case !ok:
			status.Status = StatusFailed
			status.Error = "no outcome recorded"
		case outcome.OK():
			status.Status = StatusOK
			status.Path = outcome.Artifact.Path
		default:
			status.Status = StatusFailed
			status.Error = outcome.Error.Error()
		}
		if recorded, ok := coordinator.Locator(key); ok && recorded != e.Locator {
			status.Status = StatusFailed
			status.Path = ""
			status.Error = fmt.Sprintf("conflicts with %q", recorded)
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func renderStatuses(w io.Writer, format string, statuses []faceStatus) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	case OutputTable:
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Family", "Variant", "Key", "Status", "Path / Error"})
		for _, s := range statuses {
			detail := s.Path
			if s.Error != "" {
				detail = s.Error
			}
			t.AppendRow(table.Row{s.Family, s.Variant, s.Key, s.Status, detail})
		}
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, AutoMerge: true},
		})
		style := table.StyleLight
		style.Options.DrawBorder = false
		t.SetStyle(style)
		t.Render()
		return nil
	default:
		return fmt.Errorf("invalid output format %q", format)
	}
}
