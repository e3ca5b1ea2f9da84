// Package consumer holds the external consumers resolved artifacts are applied to.
// Consumers are addressed by an opaque handle that is passed to Request.
package consumer

import (
	"context"
	"fmt"
	"sync"

	"ocm.software/open-component-model/fontcache/internal/resolution"
)

// Consumer receives resolved artifacts.
type Consumer interface {
	Apply(ctx context.Context, artifact *resolution.Artifact) error
}

// Func adapts a function to a Consumer.
type Func func(ctx context.Context, artifact *resolution.Artifact) error

func (f Func) Apply(ctx context.Context, artifact *resolution.Artifact) error {
	return f(ctx, artifact)
}

// Registry maps handles to consumers and serves as the resolution.Sink of a Coordinator.
// Consumers may come and go at any time, applying to a handle that is no longer registered
// fails with resolution.ErrConsumerUnavailable.
type Registry struct {
	mu        sync.RWMutex
	consumers map[string]Consumer
}

var _ resolution.Sink = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{consumers: make(map[string]Consumer)}
}

// Register adds c under handle, replacing any previous consumer.
func (r *Registry) Register(handle string, c Consumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumers[handle] = c
}

func (r *Registry) Unregister(handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.consumers, handle)
}

func (r *Registry) Apply(ctx context.Context, handle string, artifact *resolution.Artifact) error {
	r.mu.RLock()
	c, ok := r.consumers[handle]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: no consumer registered for handle %q", resolution.ErrConsumerUnavailable, handle)
	}
	return c.Apply(ctx, artifact)
}
