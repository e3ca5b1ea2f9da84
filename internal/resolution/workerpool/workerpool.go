package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// FetchOptions contains everything a worker needs to know about the resource it fetches.
type FetchOptions struct {
	// Key identifies the resource. At most one work item per key is in progress.
	Key     string
	Locator string
	Family  string
	Variant string
}

// Result contains the result of a work item including any errors that might have occurred.
type Result struct {
	Value any
	Error error
}

// WorkItem represents a single work item to be processed by the worker pool.
type WorkItem struct {
	// Fn performs the work.
	Fn WorkFunc
	// Context for the work item. Cancellation of the context is not propagated to Fn: once
	// a work item is picked up it runs to completion.
	Context context.Context
	// Opts contains the fetch options.
	Opts FetchOptions
	// Done receives the result. It is called exactly once, either by the worker that
	// processed the item or with ErrPoolStopped if the pool shut down before that.
	Done func(Result)
}

// WorkFunc is the signature for functions that process work items.
type WorkFunc func(ctx context.Context, opts FetchOptions) (any, error)

// PoolOptions configures the worker pool.
type PoolOptions struct {
	// WorkerCount is the number of concurrent workers.
	WorkerCount int
	// QueueSize is the size of the work queue buffer.
	QueueSize int
	// Logger for the worker pool.
	Logger logr.Logger
	// Events, if set, receives a FetchEvent for every processed work item. Events are
	// dropped instead of blocking a worker when the channel is full.
	Events chan<- FetchEvent
}

// WorkerPool manages a pool of workers that process work items concurrently.
type WorkerPool struct {
	PoolOptions
	workQueue   chan *WorkItem
	inProgress  sync.Map // map[string]struct{} - tracks keys currently being processed
	workersDone sync.WaitGroup

	mu       sync.RWMutex
	stopped  bool
	stopping chan struct{}
	once     sync.Once
}

var (
	// ErrFetchInProgress is returned when a work item for the same key is already queued or running.
	ErrFetchInProgress = errors.New("fetch already in progress")
	// ErrPoolStopped is returned for work items that could not be processed because the pool shut down.
	ErrPoolStopped = errors.New("worker pool stopped")
)

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(opts PoolOptions) *WorkerPool {
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}

	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 10
	}

	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}

	return &WorkerPool{
		PoolOptions: opts,
		workQueue:   make(chan *WorkItem, opts.QueueSize),
		stopping:    make(chan struct{}),
	}
}

// Start begins the worker pool.
// This method blocks until the context is cancelled to implement graceful shutdown. Work
// items that are running finish, work items still queued are completed with ErrPoolStopped.
func (wp *WorkerPool) Start(ctx context.Context) error {
	wp.Logger.Info("starting worker pool", "workers", wp.WorkerCount, "queueSize", wp.QueueSize)

	for i := range wp.WorkerCount {
		wp.workersDone.Add(1)
		go wp.worker(ctx, i)
	}

	// wait for context cancellation
	<-ctx.Done()
	wp.Logger.Info("worker pool shutting down, draining queue")

	// unblock producers waiting for queue capacity
	wp.once.Do(func() { close(wp.stopping) })

	// wait for all workers to finish
	wp.workersDone.Wait()

	wp.mu.Lock()
	wp.stopped = true
	drained := 0
drain:
	for {
		select {
		case item := <-wp.workQueue:
			drained++
			wp.finish(item, Result{Error: fmt.Errorf("fetch of %s not started: %w", item.Opts.Key, ErrPoolStopped)})
		default:
			break drain
		}
	}
	wp.mu.Unlock()
	QueueSizeGauge.Set(0)

	wp.Logger.Info("worker pool shutdown complete", "drained", drained)
	return nil
}

// Enqueue schedules item. It blocks while the queue is full until there is capacity, the
// pool stops, or ctx is cancelled. Only one item per key can be queued or running at a time.
func (wp *WorkerPool) Enqueue(ctx context.Context, item *WorkItem) error {
	key := item.Opts.Key
	if _, exists := wp.inProgress.LoadOrStore(key, struct{}{}); exists {
		wp.Logger.V(1).Info("fetch already in progress", "key", key)
		return ErrFetchInProgress
	}

	InProgressGauge.Inc()

	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.stopped {
		wp.release(key)
		return fmt.Errorf("failed to enqueue fetch of %s: %w", key, ErrPoolStopped)
	}

	select {
	case wp.workQueue <- item:
		QueueSizeGauge.Set(float64(len(wp.workQueue)))
		wp.Logger.V(1).Info("enqueued fetch", "key", key, "locator", item.Opts.Locator)
		return nil
	case <-wp.stopping:
		wp.release(key)
		return fmt.Errorf("failed to enqueue fetch of %s: %w", key, ErrPoolStopped)
	case <-ctx.Done():
		wp.release(key)
		return fmt.Errorf("failed to enqueue fetch of %s: %w", key, ctx.Err())
	}
}

// InProgress reports whether a work item for key is queued or running.
func (wp *WorkerPool) InProgress(key string) bool {
	_, ok := wp.inProgress.Load(key)
	return ok
}

// worker is the main worker loop that processes work items.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.workersDone.Done()
	logger := wp.Logger.WithValues("worker", id)
	logger.V(1).Info("worker started")
	defer logger.V(1).Info("worker stopped")

	for {
		// queued items are left to the drain once cancelled
		if ctx.Err() != nil {
			logger.V(1).Info("worker stopped due to context cancellation")
			return
		}
		select {
		case <-ctx.Done():
			logger.V(1).Info("worker stopped due to context cancellation")
			return
		case item := <-wp.workQueue:
			QueueSizeGauge.Set(float64(len(wp.workQueue)))
			wp.handleWorkItem(logger, item)
		}
	}
}

func (wp *WorkerPool) handleWorkItem(logger logr.Logger, item *WorkItem) {
	logger.V(1).Info("processing work item", "key", item.Opts.Key)

	ctx := item.Context
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	value, err := item.Fn(context.WithoutCancel(ctx), item.Opts)
	duration := time.Since(start)

	// Track metrics
	FetchDurationHistogram.WithLabelValues(item.Opts.Family, item.Opts.Variant).Observe(duration.Seconds())

	if err != nil {
		logger.Error(err, "failed to process work item",
			"key", item.Opts.Key,
			"locator", item.Opts.Locator,
			"duration", duration)
	} else {
		logger.V(1).Info("processed work item",
			"key", item.Opts.Key,
			"locator", item.Opts.Locator,
			"duration", duration)
	}

	wp.finish(item, Result{Value: value, Error: err})
	wp.emit(FetchEvent{
		Key:      item.Opts.Key,
		Locator:  item.Opts.Locator,
		Family:   item.Opts.Family,
		Variant:  item.Opts.Variant,
		Duration: duration,
		Error:    err,
	})
}

// finish hands the result to the item and removes it from the in-progress set.
func (wp *WorkerPool) finish(item *WorkItem, result Result) {
	if item.Done != nil {
		item.Done(result)
	}
	wp.release(item.Opts.Key)
}

func (wp *WorkerPool) release(key string) {
	wp.inProgress.Delete(key)
	InProgressGauge.Dec()
}

func (wp *WorkerPool) emit(event FetchEvent) {
	if wp.Events == nil {
		return
	}
	select {
	case wp.Events <- event:
	default:
		EventChannelDropsTotal.WithLabelValues(event.Family, event.Variant).Inc()
	}
}
