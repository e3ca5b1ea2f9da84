package decode_test

import (
	"bytes"
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"ocm.software/open-component-model/fontcache/internal/decode"
	"ocm.software/open-component-model/fontcache/internal/resolution"
	"ocm.software/open-component-model/fontcache/internal/storage"
)

func TestSFNTDecoder(t *testing.T) {
	store := storage.New(memoryfs.New(), "/cache")
	decoder := decode.NewSFNTDecoder(store)

	t.Run("decodes a truetype font", func(t *testing.T) {
		key := resolution.Resolve("Go", "400", "https://h/go.ttf")
		_, _, err := store.Write(key, bytes.NewReader(goregular.TTF), "")
		require.NoError(t, err)

		artifact, err := decoder.Decode(t.Context(), key)
		require.NoError(t, err)
		assert.Equal(t, key, artifact.Key)
		assert.Equal(t, "Go", artifact.Family)
		assert.Positive(t, artifact.Glyphs)
		assert.Equal(t, int64(len(goregular.TTF)), artifact.Size)
		assert.Equal(t, digest.FromBytes(goregular.TTF), artifact.Digest)
		assert.Equal(t, store.Path(key), artifact.Path)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		key := resolution.Resolve("Broken", "400", "https://h/broken.ttf")
		_, _, err := store.Write(key, bytes.NewReader([]byte("not a font")), "")
		require.NoError(t, err)

		_, err = decoder.Decode(t.Context(), key)
		assert.Error(t, err)
	})

	t.Run("fails for missing content", func(t *testing.T) {
		_, err := decoder.Decode(t.Context(), "Missing-400.ttf")
		assert.Error(t, err)
	})
}
