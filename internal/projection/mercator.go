// Package projection converts between geographic coordinates, Web Mercator
// world pixels and tile indices.
package projection

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

const (
	TileSize = 256

	// MaxLatitude is the Web Mercator latitude limit in degrees.
	MaxLatitude = 85.05112878
)

// WorldSize returns the edge length in pixels of the world square at zoom.
func WorldSize(zoom int) float64 {
	return math.Exp2(float64(zoom)) * TileSize
}

// GeoToWorldPixel projects lon/lat (degrees) to world pixels at zoom.
// Latitude is clamped to ±MaxLatitude, longitude is not reduced.
func GeoToWorldPixel(lon, lat float64, zoom int) (px, py float64) {
	lat = math.Max(math.Min(lat, MaxLatitude), -MaxLatitude)

	x := (lon + 180.0) / 360.0
	s := math.Sin(lat * math.Pi / 180.0)
	y := 0.5 - math.Log((1+s)/(1-s))/(4*math.Pi)

	size := WorldSize(zoom)
	return x * size, y * size
}

// WorldPixelToGeo is the inverse of GeoToWorldPixel. It is defined for any
// px, py and is periodic in px.
func WorldPixelToGeo(px, py float64, zoom int) (lon, lat float64) {
	size := WorldSize(zoom)
	x := px / size
	y := py / size

	lon = x*360.0 - 180.0
	a := math.Pi * (1 - 2*y)
	lat = 180.0 / math.Pi * math.Atan(0.5*(math.Exp(a)-math.Exp(-a)))
	return lon, lat
}

func PointToWorldPixel(p orb.Point, zoom int) (px, py float64) {
	return GeoToWorldPixel(p.Lon(), p.Lat(), zoom)
}

func WorldPixelToPoint(px, py float64, zoom int) orb.Point {
	lon, lat := WorldPixelToGeo(px, py, zoom)
	return orb.Point{lon, lat}
}

// WorldPixelToTile returns the (unwrapped) tile index containing a world pixel.
func WorldPixelToTile(px, py float64) (x, y int) {
	return int(math.Floor(px / TileSize)), int(math.Floor(py / TileSize))
}

// TileAt returns the tile containing p at zoom.
func TileAt(p orb.Point, zoom int) (x, y int) {
	t := maptile.At(p, maptile.Zoom(zoom))
	return int(t.X), int(t.Y)
}

// TileBound returns the geographic bounds of a tile.
func TileBound(zoom, x, y int) orb.Bound {
	return maptile.New(uint32(x), uint32(y), maptile.Zoom(zoom)).Bound()
}

// Imod is a modulo whose result is always in [0, m).
func Imod(a, m int) int {
	r := a % m
	if r < 0 {
		return r + m
	}
	return r
}
