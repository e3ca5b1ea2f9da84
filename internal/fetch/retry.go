package fetch

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/go-logr/logr"
	"github.com/juju/clock"
	"github.com/juju/retry"

	"ocm.software/open-component-model/fontcache/internal/resolution"
)

// RetryOptions configure a RetryFetcher.
type RetryOptions struct {
	// Attempts is the total number of tries. Values below 2 disable retrying.
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
	Clock    clock.Clock
	Logger   logr.Logger
}

// RetryFetcher repeats transient failures of the wrapped Fetcher. It only retries within a
// single fetch: once it gives up the failure is final for the key.
type RetryFetcher struct {
	fetcher resolution.Fetcher
	opts    RetryOptions
}

var _ resolution.Fetcher = (*RetryFetcher)(nil)

func NewRetryFetcher(fetcher resolution.Fetcher, opts RetryOptions) *RetryFetcher {
	if opts.Clock == nil {
		opts.Clock = clock.WallClock
	}
	if opts.Delay <= 0 {
		opts.Delay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 5 * time.Second
	}
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	return &RetryFetcher{fetcher: fetcher, opts: opts}
}

func (f *RetryFetcher) Fetch(ctx context.Context, locator string, key resolution.ResourceKey) error {
	if f.opts.Attempts < 2 {
		return f.fetcher.Fetch(ctx, locator, key)
	}

	// retry.Call traces fatal errors, which hides them from errors.Is and errors.As
	var last error
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			last = f.fetcher.Fetch(ctx, locator, key)
			return last
		},
		IsFatalError: func(err error) bool {
			return !IsTransient(err)
		},
		NotifyFunc: func(err error, attempt int) {
			f.opts.Logger.V(1).Info("fetch attempt failed", "key", key, "attempt", attempt, "error", err)
		},
		Attempts:    f.opts.Attempts,
		Delay:       f.opts.Delay,
		MaxDelay:    f.opts.MaxDelay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       f.opts.Clock,
		Stop:        ctx.Done(),
	})
	switch {
	case err == nil:
		return nil
	case last != nil:
		return last
	default:
		// stopped before the first attempt
		return err
	}
}

// IsTransient reports whether err may disappear when the fetch is repeated.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
