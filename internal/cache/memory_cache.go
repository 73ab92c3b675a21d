package cache

import (
	"container/list"
	"sync"

	"tileview/internal/tile"
)

type entry[H any] struct {
	key   tile.Key
	value H
}

// MemoryCache implements an in-memory LRU cache keyed by tile.Key.
// A maxSize <= 0 disables eviction.
type MemoryCache[H any] struct {
	mu        sync.Mutex
	maxSize   int
	items     map[tile.Key]*list.Element
	lruList   *list.List
	providers map[tile.ProviderID]int
	onEvict   EvictFunc[H]
}

// NewMemoryCache creates a new in-memory LRU cache
func NewMemoryCache[H any](maxSize int, onEvict EvictFunc[H]) *MemoryCache[H] {
	return &MemoryCache[H]{
		maxSize:   maxSize,
		items:     make(map[tile.Key]*list.Element),
		lruList:   list.New(),
		providers: make(map[tile.ProviderID]int),
		onEvict:   onEvict,
	}
}

func (c *MemoryCache[H]) Has(key tile.Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[key]
	return ok
}

func (c *MemoryCache[H]) Get(key tile.Key) (H, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		var zero H
		return zero, false
	}

	c.lruList.MoveToFront(elem)
	return elem.Value.(*entry[H]).value, true
}

// Set stores value under key. Replacing an existing entry releases the old
// handle, so a key never owns more than one entry.
func (c *MemoryCache[H]) Set(key tile.Key, value H) {
	c.mu.Lock()
	var evicted []*entry[H]
	defer func() {
		c.mu.Unlock()
		c.release(evicted)
	}()

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[H])
		evicted = append(evicted, &entry[H]{key: key, value: ent.value})
		ent.value = value
		c.lruList.MoveToFront(elem)
		return
	}

	for c.maxSize > 0 && c.lruList.Len() >= c.maxSize {
		oldest := c.lruList.Back()
		if oldest == nil {
			break
		}
		ent := oldest.Value.(*entry[H])
		c.remove(oldest)
		evicted = append(evicted, ent)
	}

	ent := &entry[H]{key: key, value: value}
	elem := c.lruList.PushFront(ent)
	c.items[key] = elem
	c.providers[key.Provider]++
}

func (c *MemoryCache[H]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lruList.Len()
}

func (c *MemoryCache[H]) LenProvider(id tile.ProviderID) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.providers[id]
}

func (c *MemoryCache[H]) Clear() {
	c.mu.Lock()
	var evicted []*entry[H]
	for elem := c.lruList.Front(); elem != nil; elem = elem.Next() {
		evicted = append(evicted, elem.Value.(*entry[H]))
	}
	c.items = make(map[tile.Key]*list.Element)
	c.lruList = list.New()
	c.providers = make(map[tile.ProviderID]int)
	c.mu.Unlock()

	c.release(evicted)
}

func (c *MemoryCache[H]) remove(elem *list.Element) {
	ent := elem.Value.(*entry[H])
	delete(c.items, ent.key)
	c.lruList.Remove(elem)
	c.providers[ent.key.Provider]--
	if c.providers[ent.key.Provider] == 0 {
		delete(c.providers, ent.key.Provider)
	}
}

func (c *MemoryCache[H]) release(evicted []*entry[H]) {
	if c.onEvict == nil {
		return
	}
	for _, ent := range evicted {
		c.onEvict(ent.key, ent.value)
	}
}
