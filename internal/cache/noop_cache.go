package cache

import (
	"tileview/internal/tile"
)

// NoopCache keeps nothing; every lookup goes back to disk. Handles passed to
// Set stay owned by the caller that decoded them.
type NoopCache[H any] struct{}

func NewNoopCache[H any]() *NoopCache[H] {
	return &NoopCache[H]{}
}

func (c *NoopCache[H]) Get(key tile.Key) (H, bool) {
	var zero H
	return zero, false
}

func (c *NoopCache[H]) Set(key tile.Key, value H) {
}

func (c *NoopCache[H]) Has(key tile.Key) bool {
	return false
}

func (c *NoopCache[H]) Len() int {
	return 0
}

func (c *NoopCache[H]) LenProvider(id tile.ProviderID) int {
	return 0
}

func (c *NoopCache[H]) Clear() {
}
