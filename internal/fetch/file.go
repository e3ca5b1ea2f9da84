package fetch

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"ocm.software/open-component-model/fontcache/internal/resolution"
	"ocm.software/open-component-model/fontcache/internal/storage"
)

// FileFetcher copies file:// locators and plain paths from a source filesystem into a
// storage.Store.
type FileFetcher struct {
	source vfs.FileSystem
	store  *storage.Store
}

var _ resolution.Fetcher = (*FileFetcher)(nil)

func NewFileFetcher(source vfs.FileSystem, store *storage.Store) *FileFetcher {
	return &FileFetcher{source: source, store: store}
}

func (f *FileFetcher) Fetch(ctx context.Context, locator string, key resolution.ResourceKey) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	expected, err := ExpectedDigest(locator)
	if err != nil {
		return err
	}

	u, err := url.Parse(locator)
	if err != nil {
		return fmt.Errorf("invalid locator %q: %w", locator, err)
	}
	p := u.Path
	if u.Scheme == "" {
		p = stripFragment(locator)
	}

	src, err := f.source.Open(p)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", p, err)
	}
	defer func() {
		if cerr := src.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if _, _, err := f.store.Write(key, src, expected); err != nil {
		return fmt.Errorf("failed to store %q: %w", locator, err)
	}
	return nil
}
