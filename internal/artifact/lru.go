package artifact

import (
	"bytes"
	"container/list"
	"context"
	"sync"
)

// CachedStore wraps a Store with an in-memory LRU of artifact contents.
// Artifacts never change once written, so a cached copy cannot go stale.
type CachedStore struct {
	inner Store
	cache *lruCache[[]byte]
}

// NewCachedStore creates a read-through cache decorator around a store.
func NewCachedStore(inner Store, maxEntries int) *CachedStore {
	return &CachedStore{
		inner: inner,
		cache: newLRUCache[[]byte](maxEntries),
	}
}

func (c *CachedStore) Exists(ctx context.Context, key string) (bool, error) {
	if _, ok := c.cache.get(key); ok {
		return true, nil
	}
	return c.inner.Exists(ctx, key)
}

func (c *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	if data, ok := c.cache.get(key); ok {
		return bytes.Clone(data), nil
	}
	data, err := c.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, bytes.Clone(data))
	return data, nil
}

// Put writes through without caching: with a create-only backend another writer
// may have won, and the next Get should see the stored bytes.
func (c *CachedStore) Put(ctx context.Context, key string, data []byte) error {
	return c.inner.Put(ctx, key, data)
}

// lruCache is a mutex-guarded LRU keyed by artifact key. Front of order is
// the most recently used entry.
type lruCache[V any] struct {
	max   int
	mu    sync.Mutex
	order *list.List
	items map[string]*list.Element
}

type lruItem[V any] struct {
	key   string
	value V
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	return &lruCache[V]{
		max:   maxEntries,
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruItem[V]).value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*lruItem[V]).value = value
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&lruItem[V]{key: key, value: value})

	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*lruItem[V]).key)
	}
}

func (c *lruCache[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
