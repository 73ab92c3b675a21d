// Package viewport works out which tiles cover a window onto the map.
package viewport

import (
	"iter"
	"math"

	"tileview/internal/projection"
	"tileview/internal/tile"
)

// View is a window of Width x Height screen pixels centred on a world pixel.
type View struct {
	Provider tile.ProviderID
	Width    int
	Height   int
	CenterX  float64
	CenterY  float64
	Zoom     int
}

// Visible is a tile to draw and the screen position of its top-left corner.
type Visible struct {
	Key     tile.Key
	ScreenX float64
	ScreenY float64
}

// WrapCenter returns v with CenterX wrapped into [0, world width).
func WrapCenter(v View) View {
	worldWidth := projection.WorldSize(v.Zoom)
	v.CenterX = math.Mod(v.CenterX, worldWidth)
	if v.CenterX < 0 {
		v.CenterX += worldWidth
	}
	return v
}

// Tiles yields the tiles covering v row by row, with one tile of margin on
// each side. X wraps around the antimeridian; rows beyond the poles are
// skipped. The sequence holds no state and can be ranged over repeatedly.
func Tiles(v View) iter.Seq[Visible] {
	return func(yield func(Visible) bool) {
		v := WrapCenter(v)
		n := 1 << v.Zoom

		left := v.CenterX - float64(v.Width)/2
		top := v.CenterY - float64(v.Height)/2

		firstX, firstY := projection.WorldPixelToTile(left, top)
		cols := int(math.Ceil(float64(v.Width)/projection.TileSize)) + 2
		rows := int(math.Ceil(float64(v.Height)/projection.TileSize)) + 2

		for row := 0; row < rows; row++ {
			ty := firstY + row
			if ty < 0 || ty >= n {
				continue
			}
			for col := 0; col < cols; col++ {
				tx := firstX + col
				visible := Visible{
					Key: tile.Key{
						Provider: v.Provider,
						Zoom:     v.Zoom,
						X:        projection.Imod(tx, n),
						Y:        ty,
					},
					ScreenX: float64(tx)*projection.TileSize - left,
					ScreenY: float64(ty)*projection.TileSize - top,
				}
				if !yield(visible) {
					return
				}
			}
		}
	}
}

// ZoomCenter changes zoom keeping the geographic centre fixed.
func ZoomCenter(v View, zoom int) View {
	lon, lat := projection.WorldPixelToGeo(v.CenterX, v.CenterY, v.Zoom)
	v.Zoom = zoom
	v.CenterX, v.CenterY = projection.GeoToWorldPixel(lon, lat, zoom)
	return v
}

// ZoomAround changes zoom keeping the world point under the screen
// position (sx, sy) in place.
func ZoomAround(v View, sx, sy float64, zoom int) View {
	worldX := v.CenterX - float64(v.Width)/2 + sx
	worldY := v.CenterY - float64(v.Height)/2 + sy

	lon, lat := projection.WorldPixelToGeo(worldX, worldY, v.Zoom)
	worldX, worldY = projection.GeoToWorldPixel(lon, lat, zoom)

	v.Zoom = zoom
	v.CenterX = worldX - sx + float64(v.Width)/2
	v.CenterY = worldY - sy + float64(v.Height)/2
	return v
}

// Pan moves the centre by (dx, dy) world pixels.
func Pan(v View, dx, dy float64) View {
	v.CenterX += dx
	v.CenterY += dy
	return v
}
