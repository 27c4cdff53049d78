package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// NewLRU returns a plain LRU, onEvict may be nil.
func NewLRU(size int, onEvict EvictFn) (*LRU, error) {
	var fn func(key, value interface{})
	if onEvict != nil {
		fn = onEvict
	}

	c, err := lru.NewWithEvict(size, fn)
	if err != nil {
		return nil, fmt.Errorf("lru new instance of lru cache: %w", err)
	}

	return &LRU{cache: c}, nil
}

var _ Cache = (*LRU)(nil)

type LRU struct {
	cache *lru.Cache
}

func (c *LRU) Get(key interface{}) (interface{}, bool) {
	return c.cache.Get(key)
}

func (c *LRU) Add(key, value interface{}) {
	c.cache.Add(key, value)
}

func (c *LRU) Keys() []interface{} {
	return c.cache.Keys()
}

func (c *LRU) Delete(key interface{}) {
	c.cache.Remove(key)
}

func (c *LRU) Len() int {
	return c.cache.Len()
}

// Purge drops every entry, calling the evict function for each.
func (c *LRU) Purge() {
	c.cache.Purge()
}
