package fetcher

import "sync"

// Cache memoizes values for the lifetime of one Fetcher.
type Cache[V any] struct {
	data sync.Map
}

func NewCache[V any]() *Cache[V] {
	return &Cache[V]{}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	v, ok := c.data.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

func (c *Cache[V]) Set(key string, value V) {
	c.data.Store(key, value)
}
