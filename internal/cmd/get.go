package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"ocm.software/open-component-model/fontcache/internal/configuration"
	"ocm.software/open-component-model/fontcache/internal/consumer"
	"ocm.software/open-component-model/fontcache/internal/flags/enum"
)

const (
	FamilyFlag  = "family"
	VariantFlag = "variant"
	// stdoutHandle is the consumer handle the get command applies its result to.
	stdoutHandle = "stdout"
)

func NewGet() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get -m manifest.yaml --family FAMILY [--variant VARIANT]",
		Short: "Resolve a single font face of a manifest",
		Long: `Submit the font faces of a manifest and request a single face by family and
variant. The face is fetched if needed and its details are printed once it
is resolved.`,
		Example: `  fontcache get -m fonts.yaml --family Inter --variant 700
  fontcache get -m fonts.yaml --family Inter -o json`,
		Args: cobra.NoArgs,
		RunE: runGet,
	}
	cmd.Flags().StringP(ManifestFlag, "m", "", "path to the font face manifest")
	cmd.Flags().String(FamilyFlag, "", "font family to resolve")
	cmd.Flags().String(VariantFlag, "", `variant (weight) to resolve, defaults to "normal"`)
	_ = cmd.MarkFlagRequired(ManifestFlag)
	_ = cmd.MarkFlagRequired(FamilyFlag)
	enum.VarP(cmd.Flags(), OutputFlag, "o", []string{OutputText, OutputJSON}, "output format of the resolved face")
	return cmd
}

func runGet(cmd *cobra.Command, _ []string) error {
	manifestPath, _ := cmd.Flags().GetString(ManifestFlag)
	family, _ := cmd.Flags().GetString(FamilyFlag)
	variant, _ := cmd.Flags().GetString(VariantFlag)
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
	rt.consumers.Register(stdoutHandle, consumer.NewWriterConsumer(cmd.OutOrStdout(), output))

	return rt.run(cmd.Context(), func(ctx context.Context) error {
		// the batch result is not needed, Request waits for the face itself
		rt.coordinator.SubmitBatch(ctx, manifest.FontFaces, nil)
		artifact, err := rt.coordinator.Request(ctx, family, variant, stdoutHandle)
		if err != nil {
			return err
		}
		slog.DebugContext(ctx, "resolved font face", slog.String("key", artifact.Key.String()))
		return nil
	})
}
