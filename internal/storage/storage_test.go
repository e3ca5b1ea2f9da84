package storage_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/fontcache/internal/resolution"
	"ocm.software/open-component-model/fontcache/internal/storage"
)

func TestStore_WriteAndRead(t *testing.T) {
	r := require.New(t)
	store := storage.New(memoryfs.New(), "/cache/fonts")
	key := resolution.Resolve("Inter", "400", "https://example.com/inter.ttf")

	dig, size, err := store.Write(key, strings.NewReader("font-bytes"), "")
	r.NoError(err)
	r.Equal(int64(len("font-bytes")), size)
	r.Equal(digest.FromString("font-bytes"), dig)
	r.True(store.Exists(key))

	data, err := store.Read(key)
	r.NoError(err)
	r.Equal("font-bytes", string(data))
	r.Equal("/cache/fonts/Inter-400.ttf", store.Path(key))
}

func TestStore_VerifiesExpectedDigest(t *testing.T) {
	store := storage.New(memoryfs.New(), "/cache")
	key := resolution.ResourceKey("F-400.ttf")

	_, _, err := store.Write(key, strings.NewReader("tampered"), digest.FromString("original"))
	require.ErrorIs(t, err, storage.ErrDigestMismatch)
	assert.False(t, store.Exists(key), "nothing must be stored on mismatch")

	_, _, err = store.Write(key, strings.NewReader("original"), digest.FromString("original"))
	require.NoError(t, err)
	assert.True(t, store.Exists(key))
}

func TestStore_PathIsFilesystemSafe(t *testing.T) {
	store := storage.New(memoryfs.New(), "/cache")
	assert.Equal(t, "/cache/a%2Fb-normal.otf", store.Path(resolution.Resolve("a/b", "", "x.otf")))
	assert.Equal(t, "/cache/Roboto%20Mono-700.ttf", store.Path(resolution.Resolve("Roboto Mono", "700", "x.ttf")))
}

func TestStore_DistinctKeysDoNotShareFiles(t *testing.T) {
	r := require.New(t)
	store := storage.New(memoryfs.New(), "/cache")
	keys := []resolution.ResourceKey{
		resolution.Resolve("Acme/Sans", "400", "a.ttf"),
		resolution.Resolve("Acme_Sans", "400", "b.ttf"),
		resolution.Resolve(`Acme\Sans`, "400", "c.ttf"),
		resolution.Resolve("Acme%2FSans", "400", "d.ttf"),
	}

	paths := map[string]resolution.ResourceKey{}
	for _, key := range keys {
		p := store.Path(key)
		r.NotContains(paths, p, "%s and %s share a file", paths[p], key)
		paths[p] = key

		_, _, err := store.Write(key, strings.NewReader(key.String()), "")
		r.NoError(err)
	}

	for _, key := range keys {
		data, err := store.Read(key)
		r.NoError(err)
		r.Equal(key.String(), string(data))
	}
}

func TestStore_PartialFileDoesNotShadowOtherKeys(t *testing.T) {
	r := require.New(t)
	store := storage.New(memoryfs.New(), "/cache")
	plain := resolution.ResourceKey("F-normal")
	suffixed := resolution.ResourceKey("F-normal,partial")

	_, _, err := store.Write(suffixed, strings.NewReader("suffixed"), "")
	r.NoError(err)
	_, _, err = store.Write(plain, strings.NewReader("plain"), "")
	r.NoError(err)

	data, err := store.Read(suffixed)
	r.NoError(err)
	r.Equal("suffixed", string(data))
}

func TestStore_OverwritesExistingContent(t *testing.T) {
	r := require.New(t)
	store := storage.New(memoryfs.New(), "/cache")
	key := resolution.Resolve("Inter", "400", "inter.ttf")

	_, _, err := store.Write(key, strings.NewReader("first"), "")
	r.NoError(err)
	dig, size, err := store.Write(key, strings.NewReader("second"), "")
	r.NoError(err)
	r.Equal(digest.FromString("second"), dig)
	r.Equal(int64(len("second")), size)

	data, err := store.Read(key)
	r.NoError(err)
	r.Equal("second", string(data))
}

func TestStore_ConcurrentWritersOfDifferentKeys(t *testing.T) {
	store := storage.New(memoryfs.New(), "/cache/nested/dir")

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := resolution.Resolve("F", string(rune('a'+i)), "f.ttf")
			_, _, errs[i] = store.Write(key, strings.NewReader("x"), "")
		}()
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "writer %d", i)
	}
}

func TestStore_ReadMissing(t *testing.T) {
	store := storage.New(memoryfs.New(), "/cache")
	_, err := store.Read("missing.ttf")
	assert.Error(t, err)
}
