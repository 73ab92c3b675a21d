package cache

import (
	"testing"

	"go.uber.org/zap"

	"tileview/internal/tile"
)

func key(p tile.ProviderID, z, x, y int) tile.Key {
	return tile.Key{Provider: p, Zoom: z, X: x, Y: y}
}

func TestMemoryCacheLRU(t *testing.T) {
	var evicted []tile.Key
	c := NewMemoryCache[string](2, func(k tile.Key, v string) {
		evicted = append(evicted, k)
	})

	c.Set(key(tile.OSM, 1, 0, 0), "a")
	c.Set(key(tile.OSM, 1, 1, 0), "b")
	if _, ok := c.Get(key(tile.OSM, 1, 0, 0)); !ok {
		t.Fatal("expected hit")
	}
	c.Set(key(tile.OSM, 1, 0, 1), "c")

	if c.Has(key(tile.OSM, 1, 1, 0)) {
		t.Fatal("least recently used entry should be evicted")
	}
	if len(evicted) != 1 || evicted[0] != key(tile.OSM, 1, 1, 0) {
		t.Fatalf("unexpected evictions %v", evicted)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d", c.Len())
	}
}

func TestMemoryCacheSingleEntryPerKey(t *testing.T) {
	var released []string
	c := NewMemoryCache[string](0, func(k tile.Key, v string) {
		released = append(released, v)
	})

	k := key(tile.OSM, 3, 4, 2)
	for i := 0; i < 5; i++ {
		c.Set(k, "v")
	}
	if c.Len() != 1 || c.LenProvider(tile.OSM) != 1 {
		t.Fatalf("expected one entry, got %d (provider %d)", c.Len(), c.LenProvider(tile.OSM))
	}
	if len(released) != 4 {
		t.Fatalf("expected replaced handles to be released, got %d", len(released))
	}
}

func TestMemoryCachePartitions(t *testing.T) {
	c := NewMemoryCache[int](0, nil)
	c.Set(key(tile.OSM, 3, 4, 2), 1)
	c.Set(key(tile.ArcGIS, 3, 4, 2), 2)
	c.Set(key(tile.ArcGIS, 3, 5, 2), 3)

	if got := c.LenProvider(tile.OSM); got != 1 {
		t.Fatalf("osm partition = %d", got)
	}
	if got := c.LenProvider(tile.ArcGIS); got != 2 {
		t.Fatalf("arcgis partition = %d", got)
	}
	if v, _ := c.Get(key(tile.ArcGIS, 3, 4, 2)); v != 2 {
		t.Fatalf("providers must not share entries, got %d", v)
	}

	c.Clear()
	if c.Len() != 0 || c.LenProvider(tile.ArcGIS) != 0 {
		t.Fatal("Clear left entries behind")
	}
}

func TestNewCache(t *testing.T) {
	log := zap.NewNop()

	if _, err := NewCache[int](TypeLRU, 10, nil, log); err != nil {
		t.Fatal(err)
	}
	if _, err := NewCache[int](TypeLRU, 0, nil, log); err == nil {
		t.Fatal("expected error for zero-sized lru")
	}
	if _, err := NewCache[int]("redis", 10, nil, log); err == nil {
		t.Fatal("expected error for unknown type")
	}

	released := 0
	noop, err := NewCache[int](TypeDisabled, 0, func(tile.Key, int) { released++ }, log)
	if err != nil {
		t.Fatal(err)
	}
	noop.Set(key(tile.OSM, 1, 0, 0), 1)
	if noop.Has(key(tile.OSM, 1, 0, 0)) || noop.Len() != 0 {
		t.Fatal("disabled cache must not retain handles")
	}
	if released != 0 {
		t.Fatal("disabled cache must not release a handle the caller is still using")
	}
}
