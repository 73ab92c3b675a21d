package cache

import (
	"tileview/internal/tile"
)

// Cache holds decoded, render-ready tile handles.
type Cache[H any] interface {
	Get(key tile.Key) (H, bool)
	Set(key tile.Key, value H)
	Has(key tile.Key) bool // Check presence without touching recency
	Len() int
	LenProvider(id tile.ProviderID) int
	Clear()
}

// EvictFunc releases a handle dropped from a cache.
type EvictFunc[H any] func(key tile.Key, value H)
