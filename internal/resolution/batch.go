package resolution

// BatchAggregator tracks the keys of one batch that have not reached a terminal state and
// fires its completion exactly once when none remain.
//
// BatchAggregator is not safe for concurrent use; the Coordinator guards it with its lock.
type BatchAggregator struct {
	pending map[ResourceKey]struct{}
	size    int
	failed  int
	done    CompletionFunc
	fired   bool
}

// NewBatchAggregator creates an aggregator waiting for keys. Duplicate keys are collapsed.
// An aggregator without keys completes immediately.
func NewBatchAggregator(keys []ResourceKey, done CompletionFunc) *BatchAggregator {
	pending := make(map[ResourceKey]struct{}, len(keys))
	for _, key := range keys {
		pending[key] = struct{}{}
	}
	b := &BatchAggregator{
		pending: pending,
		size:    len(pending),
		done:    done,
	}
	if b.size == 0 {
		b.fire()
	}
	return b
}

// ReportOutcome marks key as terminal. Reports for keys that are not (or no longer)
// pending are ignored. It returns true if this report completed the batch.
func (b *BatchAggregator) ReportOutcome(key ResourceKey, outcome Outcome) bool {
	if _, ok := b.pending[key]; !ok {
		return false
	}
	delete(b.pending, key)
	if !outcome.OK() {
		b.failed++
	}
	if len(b.pending) > 0 {
		return false
	}
	return b.fire()
}

// Notify makes the aggregator usable as a Waiter for its member keys.
func (b *BatchAggregator) Notify(key ResourceKey, outcome Outcome) {
	b.ReportOutcome(key, outcome)
}

func (b *BatchAggregator) fire() bool {
	if b.fired {
		return false
	}
	b.fired = true
	if b.done != nil {
		b.done(BatchResult{Size: b.size})
	}
	// drop the reference so the completion handle is not retained after it fired
	b.done = nil
	return true
}

// Remaining returns the number of keys still pending.
func (b *BatchAggregator) Remaining() int {
	return len(b.pending)
}

// Failed returns the number of members that reached a failed terminal state so far.
func (b *BatchAggregator) Failed() int {
	return b.failed
}

func (b *BatchAggregator) Complete() bool {
	return b.fired
}
