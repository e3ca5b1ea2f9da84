package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ocm.software/open-component-model/fontcache/internal/resolution"
)

// ErrUnsupportedScheme is returned for locators whose scheme has no registered Fetcher.
var ErrUnsupportedScheme = errors.New("unsupported locator scheme")

// SchemeFetcher dispatches to a Fetcher based on the scheme of the locator. Locators
// without scheme are treated as "file".
type SchemeFetcher struct {
	fetchers map[string]resolution.Fetcher
}

var _ resolution.Fetcher = (*SchemeFetcher)(nil)

func NewSchemeFetcher(fetchers map[string]resolution.Fetcher) *SchemeFetcher {
	normalized := make(map[string]resolution.Fetcher, len(fetchers))
	for s, f := range fetchers {
		normalized[strings.ToLower(s)] = f
	}
	return &SchemeFetcher{fetchers: normalized}
}

func (f *SchemeFetcher) Fetch(ctx context.Context, locator string, key resolution.ResourceKey) error {
	s := scheme(locator)
	if s == "" {
		s = "file"
	}
	fetcher, ok := f.fetchers[s]
	if !ok {
		return fmt.Errorf("%w %q in %q", ErrUnsupportedScheme, s, locator)
	}
	return fetcher.Fetch(ctx, locator, key)
}
