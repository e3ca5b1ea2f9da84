package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"golang.org/x/sync/errgroup"

	"ocm.software/open-component-model/fontcache/internal/configuration"
	"ocm.software/open-component-model/fontcache/internal/consumer"
	"ocm.software/open-component-model/fontcache/internal/decode"
	"ocm.software/open-component-model/fontcache/internal/fetch"
	"ocm.software/open-component-model/fontcache/internal/log"
	"ocm.software/open-component-model/fontcache/internal/metrics"
	"ocm.software/open-component-model/fontcache/internal/resolution"
	"ocm.software/open-component-model/fontcache/internal/resolution/workerpool"
	"ocm.software/open-component-model/fontcache/internal/storage"
)

const metricsShutdownTimeout = 5 * time.Second

// runtime wires the coordinator with its worker pool, storage and consumers for the
// lifetime of one command.
type runtime struct {
	logger      *slog.Logger
	store       *storage.Store
	pool        *workerpool.WorkerPool
	coordinator *resolution.Coordinator
	consumers   *consumer.Registry
	events      chan workerpool.FetchEvent
	metricsAddr string
}

func newRuntime(cfg *configuration.Config, logger *slog.Logger, metricsAddr string) (*runtime, error) {
	coreLogger := log.Logr(logger)
	fs := osfs.New()
	store := storage.New(fs, cfg.CacheDir)

	httpFetcher := fetch.NewHTTPFetcher(store, fetch.HTTPOptions{
		Timeout:   cfg.HTTP.Timeout.Value(),
		UserAgent: cfg.HTTP.UserAgent,
	})
	fetcher := fetch.NewRetryFetcher(fetch.NewSchemeFetcher(map[string]resolution.Fetcher{
		"http":  httpFetcher,
		"https": httpFetcher,
		"file":  fetch.NewFileFetcher(fs, store),
	}), fetch.RetryOptions{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay.Value(),
		MaxDelay: cfg.Retry.MaxDelay.Value(),
		Logger:   coreLogger.WithName("fetch"),
	})

	events := make(chan workerpool.FetchEvent, max(cfg.QueueSize, 1))
	pool := workerpool.NewWorkerPool(workerpool.PoolOptions{
		WorkerCount: cfg.Workers,
		QueueSize:   cfg.QueueSize,
		Logger:      coreLogger.WithName("workerpool"),
		Events:      events,
	})

	consumers := consumer.NewRegistry()
	coordinator, err := resolution.NewCoordinator(resolution.Options{
		Fetcher: fetcher,
		Decoder: decode.NewSFNTDecoder(store),
		Sink:    consumers,
		Pool:    pool,
		Logger:  coreLogger.WithName("resolution"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create coordinator: %w", err)
	}

	return &runtime{
		logger:      logger,
		store:       store,
		pool:        pool,
		coordinator: coordinator,
		consumers:   consumers,
		events:      events,
		metricsAddr: metricsAddr,
	}, nil
}

// run starts the worker pool, the event reporter and, if configured, the metrics server,
// and calls fn. Everything is shut down once fn returns.
func (rt *runtime) run(ctx context.Context, fn func(ctx context.Context) error) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return rt.pool.Start(gctx)
	})
	g.Go(func() error {
		rt.reportEvents(gctx)
		return nil
	})
	if rt.metricsAddr != "" {
		server := &http.Server{
			Addr:              rt.metricsAddr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			rt.logger.Info("serving metrics", slog.String("addr", rt.metricsAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), metricsShutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		defer cancel()
		return fn(gctx)
	})

	return g.Wait()
}

func (rt *runtime) reportEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-rt.events:
			attrs := []any{
				slog.String("key", event.Key),
				slog.String("locator", event.Locator),
				slog.Duration("duration", event.Duration),
			}
			if event.Error != nil {
				rt.logger.WarnContext(ctx, "fetch failed", append(attrs, slog.String("error", event.Error.Error()))...)
				continue
			}
			rt.logger.InfoContext(ctx, "fetched", attrs...)
		}
	}
}
