package resolution

import (
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ResultCache stores the terminal Outcome of every resolved key. The backing LRU has no
// size limit and no TTL, so entries live for the process lifetime.
type ResultCache struct {
	store *expirable.LRU[ResourceKey, Outcome]
}

func NewResultCache() *ResultCache {
	return &ResultCache{
		store: expirable.NewLRU[ResourceKey, Outcome](0, nil, 0),
	}
}

// Get returns the cached Outcome of key.
func (c *ResultCache) Get(key ResourceKey) (Outcome, bool) {
	return c.store.Get(key)
}

// SetOnce stores outcome for key unless an outcome is already present. It reports whether
// outcome was stored; a second call for the same key is a no-op returning false.
//
// SetOnce is only atomic under the Coordinator lock.
func (c *ResultCache) SetOnce(key ResourceKey, outcome Outcome) bool {
	if c.store.Contains(key) {
		return false
	}
	c.store.Add(key, outcome)
	return true
}

func (c *ResultCache) Len() int {
	return c.store.Len()
}
