package storage

import (
	"sync"
)

type entry[V any] struct {
	mu    sync.Mutex
	value V
}

// CachedStorage keeps a full in-memory mirror of one collection. The outer
// RWMutex guards the map skeleton, each entry carries its own lock, so
// distinct keys can be mutated concurrently. The cache is the source of
// truth: a failed disk write leaves the cache holding unpersisted data,
// which callers get told about through the returned error.
//
// Values never share memory across the cache boundary. Everything handed
// out is a Clone of the cached entry and everything stored is a Clone of
// the caller's value, so a holder of a returned value can never observe
// or cause a mutation of the cache.
type CachedStorage[K comparable, V Value[K, V]] struct {
	storage *Storage[K, V]

	mu    sync.RWMutex
	items map[K]*entry[V]
}

func NewCachedStorage[K comparable, V Value[K, V]](storage *Storage[K, V]) (*CachedStorage[K, V], error) {
	keys, err := storage.LoadIndex()
	if err != nil {
		return nil, err
	}

	items := make(map[K]*entry[V], len(keys))
	for _, key := range keys {
		value, err := storage.Load(key)
		if err != nil {
			storage.logger.Warn().Err(err).Any("key", key).Msg("skipping unreadable value")
			continue
		}
		items[key] = &entry[V]{value: value}
	}

	storage.logger.Info().Int("count", len(items)).Msg("collection loaded")

	return &CachedStorage[K, V]{
		storage: storage,
		items:   items,
	}, nil
}

func (c *CachedStorage[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}

	e.mu.Lock()
	value := e.value.Clone()
	e.mu.Unlock()

	return value, true
}

func (c *CachedStorage[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *CachedStorage[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]K, 0, len(c.items))
	for key := range c.items {
		keys = append(keys, key)
	}
	return keys
}

func (c *CachedStorage[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()

	values := make([]V, 0, len(c.items))
	for _, e := range c.items {
		e.mu.Lock()
		values = append(values, e.value.Clone())
		e.mu.Unlock()
	}
	return values
}

func (c *CachedStorage[K, V]) Filtered(keep func(V) bool) []V {
	var values []V
	for _, value := range c.Values() {
		if keep(value) {
			values = append(values, value)
		}
	}
	return values
}

// Set overwrites or inserts. The outer lock is released before the disk
// write; only a brand-new key rewrites the index, after its value file.
func (c *CachedStorage[K, V]) Set(key K, value V) (V, error) {
	c.mu.RLock()
	if e, ok := c.items[key]; ok {
		e.mu.Lock()
		e.value = value.Clone()
		e.mu.Unlock()
		c.mu.RUnlock()

		return value, c.storage.Save(value)
	}
	c.mu.RUnlock()

	c.mu.Lock()
	if e, ok := c.items[key]; ok {
		e.mu.Lock()
		e.value = value.Clone()
		e.mu.Unlock()
		c.mu.Unlock()

		return value, c.storage.Save(value)
	}
	c.items[key] = &entry[V]{value: value.Clone()}
	c.mu.Unlock()

	if err := c.storage.Save(value); err != nil {
		return value, err
	}
	return value, c.UpdateIndex()
}

// GetAndModifyOrInsert mutates an existing value under its per-key lock, or
// asks insert for a fresh one. insert returning false means no insertion;
// the caller gets ErrNotFound.
func (c *CachedStorage[K, V]) GetAndModifyOrInsert(key K, modify func(*V), insert func() (V, bool)) (V, error) {
	c.mu.Lock()

	if e, ok := c.items[key]; ok {
		e.mu.Lock()
		modify(&e.value)
		value := e.value.Clone()
		e.mu.Unlock()
		c.mu.Unlock()

		return value, c.storage.Save(value)
	}

	value, ok := insert()
	if !ok {
		c.mu.Unlock()
		var zero V
		return zero, ErrNotFound
	}

	c.items[key] = &entry[V]{value: value.Clone()}
	c.mu.Unlock()

	if err := c.storage.Save(value); err != nil {
		return value, err
	}
	return value, c.UpdateIndex()
}

func (c *CachedStorage[K, V]) Remove(key K) (bool, error) {
	c.mu.Lock()
	_, ok := c.items[key]
	if ok {
		delete(c.items, key)
	}
	c.mu.Unlock()

	if !ok {
		return false, nil
	}

	if err := c.storage.Remove(key); err != nil {
		return true, err
	}
	return true, c.UpdateIndex()
}

// Restore atomically replaces the whole collection: values are persisted
// first, then the map is swapped and the index rewritten.
func (c *CachedStorage[K, V]) Restore(values []V) error {
	items := make(map[K]*entry[V], len(values))
	for _, value := range values {
		if err := c.storage.Save(value); err != nil {
			return err
		}
		items[value.StorageKey()] = &entry[V]{value: value.Clone()}
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()

	return c.UpdateIndex()
}

func (c *CachedStorage[K, V]) UpdateIndex() error {
	return c.storage.SaveIndex(c.Keys())
}
