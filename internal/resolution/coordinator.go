package resolution

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"ocm.software/open-component-model/fontcache/internal/resolution/workerpool"
)

// Options configures a Coordinator.
type Options struct {
	Fetcher Fetcher
	Decoder Decoder
	// Sink applies resolved artifacts to consumers on Request. Optional.
	Sink Sink
	// Pool runs fetches. It must be started separately.
	Pool   *workerpool.WorkerPool
	Logger logr.Logger
}

// Coordinator deduplicates fetches of font faces, caches their outcome for the process
// lifetime and notifies batches and single requests once a resource is resolved.
//
// A single lock guards the FamilyDirectory, EncounterLedger, ResultCache and
// WaiterRegistry. Fetching and decoding run on the worker pool outside of that lock.
type Coordinator struct {
	mu        sync.Mutex
	directory *FamilyDirectory
	ledger    *EncounterLedger
	cache     *ResultCache
	waiters   *WaiterRegistry

	fetcher Fetcher
	decoder Decoder
	sink    Sink
	pool    *workerpool.WorkerPool
	logger  logr.Logger
}

// NewCoordinator creates a new Coordinator.
func NewCoordinator(opts Options) (*Coordinator, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if opts.Decoder == nil {
		return nil, errors.New("decoder is required")
	}
	if opts.Pool == nil {
		return nil, errors.New("worker pool is required")
	}
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}

	return &Coordinator{
		directory: NewFamilyDirectory(),
		ledger:    NewEncounterLedger(),
		cache:     NewResultCache(),
		waiters:   NewWaiterRegistry(),
		fetcher:   opts.Fetcher,
		decoder:   opts.Decoder,
		sink:      opts.Sink,
		pool:      opts.Pool,
		logger:    opts.Logger,
	}, nil
}

type scheduledFetch struct {
	key   ResourceKey
	entry Entry
}

// SubmitBatch replaces the configured font faces with entries and calls done once every
// valid entry reached a terminal state. Entries without locator or family are ignored.
// done is called exactly once, even when some or all faces fail, and may be called before
// SubmitBatch returns. It runs under the Coordinator lock and must not call back into the
// Coordinator.
func (c *Coordinator) SubmitBatch(ctx context.Context, entries []Entry, done CompletionFunc) {
	valid, malformed := Sanitize(entries)
	if malformed > 0 {
		c.logger.V(1).Info("ignoring malformed font faces", "count", malformed)
	}

	keys := make([]ResourceKey, len(valid))
	for i, e := range valid {
		keys[i] = Resolve(e.Family, e.Variant, e.Locator)
	}

	var fetches []scheduledFetch

	c.mu.Lock()
	c.directory.Replace(valid)
	batch := NewBatchAggregator(keys, func(result BatchResult) {
		BatchCompletedCounterTotal.Inc()
		c.logger.V(1).Info("batch completed", "size", result.Size)
		if done != nil {
			done(result)
		}
	})

	handled := make(map[ResourceKey]struct{}, len(keys))
	for i, e := range valid {
		key := keys[i]
		classification := c.ledger.Classify(key, e.Locator)

		if _, ok := handled[key]; ok {
			// the key already takes part in this batch, only conflicts are worth reporting
			if classification == Conflict {
				c.rejectConflict(key, e)
			}
			continue
		}
		handled[key] = struct{}{}

		switch classification {
		case New:
			CacheMissCounterTotal.WithLabelValues(e.Family, e.Variant).Inc()
			c.waiters.Register(key, batch)
			fetches = append(fetches, scheduledFetch{key: key, entry: e})
		case SeenSame:
			if outcome, ok := c.cache.Get(key); ok {
				CacheHitCounterTotal.WithLabelValues(e.Family, e.Variant).Inc()
				batch.ReportOutcome(key, outcome)
			} else {
				CacheShareCounterTotal.WithLabelValues(e.Family, e.Variant).Inc()
				c.waiters.Register(key, batch)
			}
		case Conflict:
			batch.ReportOutcome(key, Failed(c.rejectConflict(key, e)))
		}
	}
	c.mu.Unlock()

	for _, f := range fetches {
		c.ensureFetch(ctx, f.key, f.entry)
	}
}

// Submit is SubmitBatch with the completion delivered through a channel.
func (c *Coordinator) Submit(ctx context.Context, entries []Entry) <-chan BatchResult {
	ch := make(chan BatchResult, 1)
	c.SubmitBatch(ctx, entries, func(result BatchResult) {
		ch <- result
	})
	return ch
}

// Request resolves a single font face by its logical identity. If the face is already
// resolved it returns immediately, if it is being fetched it waits for the fetch. ctx only
// bounds the wait, the fetch itself is not cancelled.
//
// If handle is not empty the artifact is applied to the consumer identified by handle
// through the configured Sink. A failing Sink is reported as ErrConsumerUnavailable and
// does not affect the cached outcome.
func (c *Coordinator) Request(ctx context.Context, family, variant, handle string) (*Artifact, error) {
	variant = NormalizeVariant(variant)

	c.mu.Lock()
	locator, ok := c.directory.Lookup(family, variant)
	if !ok {
		c.mu.Unlock()
		return nil, familyNotConfigured(family, variant)
	}

	entry := Entry{Locator: locator, Family: family, Variant: variant}
	key := Resolve(family, variant, locator)

	var (
		outcome Outcome
		cached  bool
		wait    chan Outcome
	)
	classification := c.ledger.Classify(key, locator)
	switch classification {
	case Conflict:
		err := c.rejectConflict(key, entry)
		c.mu.Unlock()
		return nil, err
	case SeenSame:
		outcome, cached = c.cache.Get(key)
	}
	if cached {
		CacheHitCounterTotal.WithLabelValues(family, variant).Inc()
	} else {
		wait = make(chan Outcome, 1)
		c.waiters.Register(key, channelWaiter(wait))
	}
	c.mu.Unlock()

	if classification == New {
		CacheMissCounterTotal.WithLabelValues(family, variant).Inc()
		c.ensureFetch(ctx, key, entry)
	} else if !cached {
		CacheShareCounterTotal.WithLabelValues(family, variant).Inc()
	}

	if !cached {
		select {
		case outcome = <-wait:
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", key, ctx.Err())
		}
	}

	if !outcome.OK() {
		return nil, decodeOrFetchFailed(family, variant, locator, outcome.Error)
	}

	if handle != "" {
		if err := c.apply(ctx, handle, outcome.Artifact); err != nil {
			return nil, err
		}
	}

	return outcome.Artifact, nil
}

// Outcome returns the cached outcome of key.
func (c *Coordinator) Outcome(key ResourceKey) (Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Get(key)
}

// Locator returns the locator key was first encountered with.
func (c *Coordinator) Locator(key ResourceKey) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Locator(key)
}

func (c *Coordinator) apply(ctx context.Context, handle string, artifact *Artifact) error {
	if c.sink == nil {
		return fmt.Errorf("%w: no sink configured to apply %s to %q", ErrConsumerUnavailable, artifact.Key, handle)
	}
	if err := c.sink.Apply(ctx, handle, artifact); err != nil {
		if errors.Is(err, ErrConsumerUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrConsumerUnavailable, err)
	}
	return nil
}

// rejectConflict records a conflicting request. It must be called with the lock held.
func (c *Coordinator) rejectConflict(key ResourceKey, e Entry) error {
	recorded, _ := c.ledger.Locator(key)
	err := resourceConflict(key, recorded, e.Locator)
	ConflictCounterTotal.WithLabelValues(e.Family, e.Variant).Inc()
	c.logger.Error(err, "rejecting conflicting font face", "key", key, "family", e.Family, "variant", e.Variant)
	return err
}

// ensureFetch schedules the single fetch of a key that was just classified as New. It
// must be called without holding the lock.
func (c *Coordinator) ensureFetch(ctx context.Context, key ResourceKey, e Entry) {
	item := &workerpool.WorkItem{
		Fn:      c.fetchAndDecode,
		Context: ctx,
		Opts: workerpool.FetchOptions{
			Key:     key.String(),
			Locator: e.Locator,
			Family:  e.Family,
			Variant: e.Variant,
		},
		Done: func(result workerpool.Result) {
			c.complete(key, outcomeOf(result))
		},
	}

	err := c.pool.Enqueue(context.WithoutCancel(ctx), item)
	switch {
	case err == nil:
	case errors.Is(err, workerpool.ErrFetchInProgress):
		// the running fetch completes the key
	default:
		c.logger.Error(err, "failed to schedule fetch", "key", key, "locator", e.Locator)
		c.complete(key, Failed(err))
	}
}

// fetchAndDecode runs on a worker without holding the lock.
func (c *Coordinator) fetchAndDecode(ctx context.Context, opts workerpool.FetchOptions) (any, error) {
	key := ResourceKey(opts.Key)
	if err := c.fetcher.Fetch(ctx, opts.Locator, key); err != nil {
		return nil, fmt.Errorf("failed to fetch %s from %q: %w", key, opts.Locator, err)
	}
	artifact, err := c.decoder.Decode(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return artifact, nil
}

// complete records the terminal outcome of key and notifies its waiters as one step.
func (c *Coordinator) complete(key ResourceKey, outcome Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cache.SetOnce(key, outcome) {
		c.logger.V(1).Info("ignoring outcome for already resolved key", "key", key)
		return
	}
	if !outcome.OK() {
		FailedOutcomeCounterTotal.Inc()
	}

	notified := c.waiters.NotifyAll(key, outcome)
	c.logger.V(1).Info("resolved font face", "key", key, "waiters", notified, "failed", !outcome.OK())
}

func outcomeOf(result workerpool.Result) Outcome {
	if result.Error != nil {
		return Failed(result.Error)
	}
	artifact, ok := result.Value.(*Artifact)
	if !ok || artifact == nil {
		return Failed(fmt.Errorf("unexpected fetch result %T", result.Value))
	}
	return Resolved(artifact)
}

// channelWaiter delivers an outcome to a single request. It is buffered so delivery under
// the lock never blocks.
type channelWaiter chan Outcome

func (w channelWaiter) Notify(_ ResourceKey, outcome Outcome) {
	w <- outcome
}
