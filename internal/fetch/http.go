package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ocm.software/open-component-model/fontcache/internal/resolution"
	"ocm.software/open-component-model/fontcache/internal/storage"
)

// DefaultHTTPTimeout bounds a single HTTP fetch when no timeout is configured.
const DefaultHTTPTimeout = 30 * time.Second

// StatusError is returned for HTTP responses other than 200 OK.
type StatusError struct {
	Locator    string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response for %q: %s", e.Locator, e.Status)
}

// Temporary reports whether the request may succeed when repeated.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// HTTPOptions configure an HTTPFetcher.
type HTTPOptions struct {
	// Client is used for all requests. If nil a client with Timeout is created.
	Client *http.Client
	// Timeout of a single request, including reading the body.
	Timeout time.Duration
	// UserAgent is sent with every request if set.
	UserAgent string
}

// HTTPFetcher downloads http and https locators into a storage.Store.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	store     *storage.Store
}

var _ resolution.Fetcher = (*HTTPFetcher)(nil)

func NewHTTPFetcher(store *storage.Store, opts HTTPOptions) *HTTPFetcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPFetcher{client: client, userAgent: opts.UserAgent, store: store}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, locator string, key resolution.ResourceKey) error {
	expected, err := ExpectedDigest(locator)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, stripFragment(locator), nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %q: %w", locator, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %q: %w", locator, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Locator: locator, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if _, _, err := f.store.Write(key, resp.Body, expected); err != nil {
		return fmt.Errorf("failed to store %q: %w", locator, err)
	}
	return nil
}
