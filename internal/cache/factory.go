package cache

import (
	"fmt"

	"go.uber.org/zap"
)

const (
	TypeLRU       = "lru"
	TypeUnbounded = "unbounded"
	TypeDisabled  = "disabled"
)

// NewCache creates a memory cache instance based on the cache type
func NewCache[H any](cacheType string, maxTiles int, onEvict EvictFunc[H], log *zap.Logger) (Cache[H], error) {
	switch cacheType {
	case TypeLRU:
		if maxTiles <= 0 {
			return nil, fmt.Errorf("lru cache needs a positive size, got %d", maxTiles)
		}
		log.Info("Using LRU memory cache", zap.Int("max_tiles", maxTiles))
		return NewMemoryCache(maxTiles, onEvict), nil
	case TypeUnbounded:
		log.Info("Using unbounded memory cache")
		return NewMemoryCache(0, onEvict), nil
	case TypeDisabled:
		log.Info("Memory cache disabled")
		return NewNoopCache[H](), nil
	default:
		return nil, fmt.Errorf("unknown cache type: %s (supported: lru, unbounded, disabled)", cacheType)
	}
}
