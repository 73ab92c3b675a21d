package tile

import (
	"fmt"
)

const (
	MinZoom = 1
	MaxZoom = 22
)

// ProviderID indexes Providers.
type ProviderID int

// Key identifies one raster tile. X and Y are canonical (never swapped) and
// X is expected to be normalized into [0, 2^Zoom).
type Key struct {
	Provider ProviderID
	Zoom     int
	X        int
	Y        int
}

func (k Key) Valid() bool {
	if int(k.Provider) < 0 || int(k.Provider) >= len(Providers) {
		return false
	}
	if k.Zoom < MinZoom || k.Zoom > MaxZoom {
		return false
	}
	n := 1 << k.Zoom
	return k.X >= 0 && k.X < n && k.Y >= 0 && k.Y < n
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%d/%d", k.Provider.Name(), k.Zoom, k.X, k.Y)
}
