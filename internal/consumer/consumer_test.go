package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/fontcache/internal/consumer"
	"ocm.software/open-component-model/fontcache/internal/resolution"
)

var artifact = &resolution.Artifact{
	Key:    "Inter-400.ttf",
	Path:   "/cache/Inter-400.ttf",
	Family: "Inter",
	Glyphs: 42,
	Size:   1024,
}

func TestRegistry(t *testing.T) {
	registry := consumer.NewRegistry()

	err := registry.Apply(t.Context(), "view-1", artifact)
	require.ErrorIs(t, err, resolution.ErrConsumerUnavailable)

	var applied []resolution.ResourceKey
	registry.Register("view-1", consumer.Func(func(_ context.Context, a *resolution.Artifact) error {
		applied = append(applied, a.Key)
		return nil
	}))
	require.NoError(t, registry.Apply(t.Context(), "view-1", artifact))
	assert.Equal(t, []resolution.ResourceKey{"Inter-400.ttf"}, applied)

	registry.Unregister("view-1")
	assert.ErrorIs(t, registry.Apply(t.Context(), "view-1", artifact), resolution.ErrConsumerUnavailable)
}

func TestWriterConsumer(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, consumer.NewWriterConsumer(&buf, consumer.FormatText).Apply(t.Context(), artifact))
		assert.Equal(t, "Inter-400.ttf\tInter\t42 glyphs\t/cache/Inter-400.ttf\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, consumer.NewWriterConsumer(&buf, consumer.FormatJSON).Apply(t.Context(), artifact))
		var out map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		assert.Equal(t, "Inter", out["family"])
		assert.EqualValues(t, 42, out["glyphs"])
	})

	t.Run("unknown format", func(t *testing.T) {
		assert.Error(t, consumer.NewWriterConsumer(&bytes.Buffer{}, "xml").Apply(t.Context(), artifact))
	})
}
