package viewport

import (
	"fmt"

	"tileview/internal/projection"
	"tileview/internal/tile"
)

// KeyPanStep is how far one arrow key press moves the map, in screen pixels.
const KeyPanStep = 200

// Camera is the interactive state of a map window.
type Camera struct {
	view View
}

func NewCamera(provider tile.ProviderID, width, height int, lon, lat float64, zoom int) *Camera {
	zoom = clampZoom(zoom)
	cx, cy := projection.GeoToWorldPixel(lon, lat, zoom)
	return &Camera{view: WrapCenter(View{
		Provider: provider,
		Width:    width,
		Height:   height,
		CenterX:  cx,
		CenterY:  cy,
		Zoom:     zoom,
	})}
}

func (c *Camera) View() View {
	return c.view
}

// Pan moves the map by (dx, dy) screen pixels. Dragging the mouse right by
// d is Pan(-d, 0).
func (c *Camera) Pan(dx, dy float64) {
	c.view = WrapCenter(Pan(c.view, dx, dy))
}

// Zoom steps the zoom level around the window centre. It reports false when
// the step would leave the supported range.
func (c *Camera) Zoom(step int) bool {
	zoom := c.view.Zoom + step
	if step == 0 || zoom != clampZoom(zoom) {
		return false
	}
	c.view = WrapCenter(ZoomCenter(c.view, zoom))
	return true
}

// ZoomAt steps the zoom level keeping the map under (sx, sy) in place.
func (c *Camera) ZoomAt(sx, sy float64, step int) bool {
	zoom := c.view.Zoom + step
	if step == 0 || zoom != clampZoom(zoom) {
		return false
	}
	c.view = WrapCenter(ZoomAround(c.view, sx, sy, zoom))
	return true
}

func (c *Camera) SetProvider(id tile.ProviderID) bool {
	if int(id) < 0 || int(id) >= len(tile.Providers) || id == c.view.Provider {
		return false
	}
	c.view.Provider = id
	return true
}

func (c *Camera) Resize(width, height int) {
	c.view.Width = width
	c.view.Height = height
}

// Center returns the geographic position at the middle of the window.
func (c *Camera) Center() (lon, lat float64) {
	return projection.WorldPixelToGeo(c.view.CenterX, c.view.CenterY, c.view.Zoom)
}

func (c *Camera) Status() string {
	lon, lat := c.Center()
	return fmt.Sprintf("Zoom %d | Center: lon %.5f lat %.5f | Provider %s",
		c.view.Zoom, lon, lat, c.view.Provider.Name())
}

func clampZoom(zoom int) int {
	return min(max(zoom, tile.MinZoom), tile.MaxZoom)
}
