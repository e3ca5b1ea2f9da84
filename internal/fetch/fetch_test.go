package fetch_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/fontcache/internal/fetch"
	"ocm.software/open-component-model/fontcache/internal/resolution"
	"ocm.software/open-component-model/fontcache/internal/storage"
)

func newStore() *storage.Store {
	return storage.New(memoryfs.New(), "/cache")
}

func TestHTTPFetcher(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Path {
		case "/inter.ttf":
			_, _ = w.Write([]byte("inter"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	ctx := t.Context()
	store := newStore()
	fetcher := fetch.NewHTTPFetcher(store, fetch.HTTPOptions{Timeout: time.Second})

	t.Run("stores the body under the key", func(t *testing.T) {
		key := resolution.ResourceKey("Inter-400.ttf")
		require.NoError(t, fetcher.Fetch(ctx, server.URL+"/inter.ttf", key))
		data, err := store.Read(key)
		require.NoError(t, err)
		assert.Equal(t, "inter", string(data))
	})

	t.Run("verifies a digest fragment", func(t *testing.T) {
		key := resolution.ResourceKey("Inter-500.ttf")
		require.NoError(t, fetcher.Fetch(ctx, server.URL+"/inter.ttf#"+digest.FromString("inter").String(), key))

		err := fetcher.Fetch(ctx, server.URL+"/inter.ttf#"+digest.FromString("other").String(), "Inter-600.ttf")
		require.ErrorIs(t, err, storage.ErrDigestMismatch)
		assert.False(t, store.Exists("Inter-600.ttf"))
	})

	t.Run("non 200 responses fail permanently", func(t *testing.T) {
		err := fetcher.Fetch(ctx, server.URL+"/missing.ttf", "Missing-400.ttf")
		var statusErr *fetch.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
		assert.False(t, fetch.IsTransient(err))
	})
}

func TestExpectedDigest(t *testing.T) {
	dig := digest.FromString("x")
	tests := []struct {
		name     string
		locator  string
		expected digest.Digest
		wantErr  bool
	}{
		{name: "no fragment", locator: "https://h/f.ttf"},
		{name: "unrelated fragment", locator: "https://h/f.ttf#v2"},
		{name: "digest fragment", locator: "https://h/f.ttf#" + dig.String(), expected: dig},
		{name: "invalid digest", locator: "https://h/f.ttf#sha256:nothex", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := fetch.ExpectedDigest(tc.locator)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestFileFetcher(t *testing.T) {
	source := memoryfs.New()
	require.NoError(t, source.MkdirAll("/fonts", 0o755))
	require.NoError(t, vfs.WriteFile(source, "/fonts/a.otf", []byte("otf"), 0o644))

	store := newStore()
	fetcher := fetch.NewFileFetcher(source, store)

	require.NoError(t, fetcher.Fetch(t.Context(), "file:///fonts/a.otf", "A-normal.otf"))
	require.NoError(t, fetcher.Fetch(t.Context(), "/fonts/a.otf", "A-bold.otf"))
	assert.True(t, store.Exists("A-normal.otf"))
	assert.True(t, store.Exists("A-bold.otf"))

	assert.Error(t, fetcher.Fetch(t.Context(), "/fonts/missing.otf", "M-normal.otf"))
}

type fetcherFunc func(ctx context.Context, locator string, key resolution.ResourceKey) error

func (f fetcherFunc) Fetch(ctx context.Context, locator string, key resolution.ResourceKey) error {
	return f(ctx, locator, key)
}

func TestSchemeFetcher(t *testing.T) {
	var got []string
	record := func(name string) resolution.Fetcher {
		return fetcherFunc(func(context.Context, string, resolution.ResourceKey) error {
			got = append(got, name)
			return nil
		})
	}
	fetcher := fetch.NewSchemeFetcher(map[string]resolution.Fetcher{
		"HTTPS": record("https"),
		"file":  record("file"),
	})

	require.NoError(t, fetcher.Fetch(t.Context(), "https://h/f.ttf", "k"))
	require.NoError(t, fetcher.Fetch(t.Context(), "fonts/f.ttf", "k"))
	require.ErrorIs(t, fetcher.Fetch(t.Context(), "ftp://h/f.ttf", "k"), fetch.ErrUnsupportedScheme)
	assert.Equal(t, []string{"https", "file"}, got)
}

func TestRetryFetcher(t *testing.T) {
	transient := &fetch.StatusError{Locator: "l", StatusCode: http.StatusServiceUnavailable, Status: "503"}
	permanent := &fetch.StatusError{Locator: "l", StatusCode: http.StatusNotFound, Status: "404"}

	t.Run("retries transient failures", func(t *testing.T) {
		var calls atomic.Int32
		inner := fetcherFunc(func(context.Context, string, resolution.ResourceKey) error {
			if calls.Add(1) < 3 {
				return transient
			}
			return nil
		})
		fetcher := fetch.NewRetryFetcher(inner, fetch.RetryOptions{Attempts: 5, Delay: time.Millisecond})
		require.NoError(t, fetcher.Fetch(t.Context(), "l", "k"))
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("gives up after the configured attempts", func(t *testing.T) {
		var calls atomic.Int32
		inner := fetcherFunc(func(context.Context, string, resolution.ResourceKey) error {
			calls.Add(1)
			return transient
		})
		fetcher := fetch.NewRetryFetcher(inner, fetch.RetryOptions{Attempts: 3, Delay: time.Millisecond})
		err := fetcher.Fetch(t.Context(), "l", "k")
		assert.True(t, errors.Is(err, transient))
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("does not retry permanent failures", func(t *testing.T) {
		var calls atomic.Int32
		inner := fetcherFunc(func(context.Context, string, resolution.ResourceKey) error {
			calls.Add(1)
			return permanent
		})
		fetcher := fetch.NewRetryFetcher(inner, fetch.RetryOptions{Attempts: 3, Delay: time.Millisecond})
		err := fetcher.Fetch(t.Context(), "l", "k")
		assert.ErrorIs(t, err, permanent)
		var statusErr *fetch.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("keeps wrapped sentinel errors matchable", func(t *testing.T) {
		inner := fetcherFunc(func(context.Context, string, resolution.ResourceKey) error {
			return fmt.Errorf("writing k: %w", storage.ErrDigestMismatch)
		})
		fetcher := fetch.NewRetryFetcher(inner, fetch.RetryOptions{Attempts: 3, Delay: time.Millisecond})
		err := fetcher.Fetch(t.Context(), "l", "k")
		assert.ErrorIs(t, err, storage.ErrDigestMismatch)
		assert.EqualError(t, err, "writing k: "+storage.ErrDigestMismatch.Error())
	})

	t.Run("keeps the last transient error matchable", func(t *testing.T) {
		inner := fetcherFunc(func(context.Context, string, resolution.ResourceKey) error {
			return fmt.Errorf("attempt: %w", transient)
		})
		fetcher := fetch.NewRetryFetcher(inner, fetch.RetryOptions{Attempts: 2, Delay: time.Millisecond})
		var statusErr *fetch.StatusError
		require.ErrorAs(t, fetcher.Fetch(t.Context(), "l", "k"), &statusErr)
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	})
}
