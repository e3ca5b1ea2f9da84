package resolution

// Waiter is a party awaiting the Outcome of a single key.
type Waiter interface {
	Notify(key ResourceKey, outcome Outcome)
}

// WaiterFunc adapts a function to the Waiter interface.
type WaiterFunc func(key ResourceKey, outcome Outcome)

func (f WaiterFunc) Notify(key ResourceKey, outcome Outcome) {
	f(key, outcome)
}

// WaiterRegistry holds, per in-flight key, the waiters in registration order.
//
// WaiterRegistry is not safe for concurrent use; the Coordinator guards it with its lock.
type WaiterRegistry struct {
	waiters map[ResourceKey][]Waiter
}

func NewWaiterRegistry() *WaiterRegistry {
	return &WaiterRegistry{waiters: make(map[ResourceKey][]Waiter)}
}

// Register appends w to the waiters of key.
func (r *WaiterRegistry) Register(key ResourceKey, w Waiter) {
	r.waiters[key] = append(r.waiters[key], w)
}

// NotifyAll delivers outcome to every waiter of key in registration order and forgets
// them. It returns the number of notified waiters.
func (r *WaiterRegistry) NotifyAll(key ResourceKey, outcome Outcome) int {
	waiters := r.waiters[key]
	delete(r.waiters, key)
	for _, w := range waiters {
		w.Notify(key, outcome)
	}
	return len(waiters)
}

// Pending returns the number of waiters registered for key.
func (r *WaiterRegistry) Pending(key ResourceKey) int {
	return len(r.waiters[key])
}
