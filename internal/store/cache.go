package store

import (
	"slices"
	"sync"
)

// Entity is anything the cache can hold.
type Entity[T any] interface {
	Key() string
	Clone() T
}

// Cache maps ids to the last known value of an entity and remembers the
// order entries were inserted in. Values are cloned on the way in and out,
// callers never share memory with the cache.
type Cache[T Entity[T]] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

func NewCache[T Entity[T]]() *Cache[T] {
	return &Cache[T]{items: make(map[string]T)}
}

func (c *Cache[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	return v.Clone(), true
}

func (c *Cache[T]) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.items[id]
	return ok
}

// Put inserts or overwrites an entry. An overwritten entry keeps its place.
func (c *Cache[T]) Put(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := v.Key()
	if _, ok := c.items[id]; !ok {
		c.order = append(c.order, id)
	}
	c.items[id] = v.Clone()
}

// Remove drops id. Removing an absent id is a no-op.
func (c *Cache[T]) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(id)
}

func (c *Cache[T]) removeLocked(id string) {
	if _, ok := c.items[id]; !ok {
		return
	}
	delete(c.items, id)
	if i := slices.Index(c.order, id); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
}

// Replace stores v at the position oldID occupied. It is how a temporary
// entity is swapped for the server's copy. If v's id is already cached
// elsewhere that entry is dropped first; if oldID is absent v is appended.
func (c *Cache[T]) Replace(oldID string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	newID := v.Key()
	if newID != oldID {
		c.removeLocked(newID)
	}

	i := slices.Index(c.order, oldID)
	if i < 0 {
		c.order = append(c.order, newID)
	} else {
		c.order[i] = newID
		delete(c.items, oldID)
	}
	c.items[newID] = v.Clone()
}

// IndexOf returns the ordinal of id, or -1.
func (c *Cache[T]) IndexOf(id string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Index(c.order, id)
}

// Insert puts v at ordinal i (clamped). An existing entry with the same id
// is moved.
func (c *Cache[T]) Insert(i int, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := v.Key()
	c.removeLocked(id)
	i = max(0, min(i, len(c.order)))
	c.order = slices.Insert(c.order, i, id)
	c.items[id] = v.Clone()
}

// Reset replaces the whole content with vs, in order.
func (c *Cache[T]) Reset(vs []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]T, len(vs))
	c.order = make([]string, 0, len(vs))
	for _, v := range vs {
		id := v.Key()
		if _, dup := c.items[id]; !dup {
			c.order = append(c.order, id)
		}
		c.items[id] = v.Clone()
	}
}

func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]T)
	c.order = nil
}

// Values returns copies of every entry in insertion order.
func (c *Cache[T]) Values() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id].Clone())
	}
	return out
}

func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
