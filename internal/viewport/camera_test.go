package viewport

import (
	"math"
	"strings"
	"testing"

	"tileview/internal/tile"
)

func TestCameraZoomLimits(t *testing.T) {
	c := NewCamera(tile.OSM, 1024, 768, 0, 0, tile.MinZoom)
	if c.Zoom(-1) {
		t.Fatal("zoomed out below the minimum")
	}
	if c.View().Zoom != tile.MinZoom {
		t.Fatalf("zoom = %d", c.View().Zoom)
	}

	c = NewCamera(tile.OSM, 1024, 768, 0, 0, 99)
	if c.View().Zoom != tile.MaxZoom {
		t.Fatalf("initial zoom not clamped: %d", c.View().Zoom)
	}
	if c.Zoom(1) || c.ZoomAt(10, 10, 1) {
		t.Fatal("zoomed in beyond the maximum")
	}
}

func TestCameraZoomKeepsCenter(t *testing.T) {
	c := NewCamera(tile.OSM, 1024, 768, -54.10793, -31.33244, 1)
	for range 5 {
		if !c.Zoom(1) {
			t.Fatal("zoom in refused")
		}
	}
	lon, lat := c.Center()
	if math.Abs(lon+54.10793) > 1e-6 || math.Abs(lat+31.33244) > 1e-6 {
		t.Fatalf("center moved to %f, %f", lon, lat)
	}
}

func TestCameraZoomAtKeepsCursorPoint(t *testing.T) {
	c := NewCamera(tile.OSM, 1024, 768, 10, 20, 4)
	before := c.View()
	sx, sy := 100.0, 600.0
	wantLon, wantLat := worldGeo(before, sx, sy)

	if !c.ZoomAt(sx, sy, 1) {
		t.Fatal("zoom refused")
	}
	lon, lat := worldGeo(c.View(), sx, sy)
	if math.Abs(lon-wantLon) > 1e-6 || math.Abs(lat-wantLat) > 1e-6 {
		t.Fatalf("cursor point moved from %f,%f to %f,%f", wantLon, wantLat, lon, lat)
	}
}

func TestCameraPanWraps(t *testing.T) {
	c := NewCamera(tile.OSM, 1024, 768, 0, 0, 1)
	for range 10 {
		c.Pan(KeyPanStep, 0)
	}
	v := c.View()
	if v.CenterX < 0 || v.CenterX >= 512 {
		t.Fatalf("center x not wrapped: %f", v.CenterX)
	}
	c.Pan(-3000, 0)
	if v := c.View(); v.CenterX < 0 || v.CenterX >= 512 {
		t.Fatalf("center x not wrapped: %f", v.CenterX)
	}
}

func TestCameraProviderAndStatus(t *testing.T) {
	c := NewCamera(tile.OSM, 1024, 768, 0, 0, 1)
	if c.SetProvider(tile.OSM) || c.SetProvider(tile.ProviderID(len(tile.Providers))) {
		t.Fatal("no-op or unknown provider accepted")
	}
	if !c.SetProvider(tile.CartoDark) {
		t.Fatal("provider switch refused")
	}
	c.Resize(800, 600)
	if v := c.View(); v.Width != 800 || v.Height != 600 {
		t.Fatalf("resize ignored: %+v", v)
	}
	status := c.Status()
	if !strings.HasPrefix(status, "Zoom 1 |") || !strings.HasSuffix(status, "Provider carto_dark") {
		t.Fatalf("status = %q", status)
	}
}

func worldGeo(v View, sx, sy float64) (float64, float64) {
	c := &Camera{view: View{
		CenterX: v.CenterX - float64(v.Width)/2 + sx,
		CenterY: v.CenterY - float64(v.Height)/2 + sy,
		Zoom:    v.Zoom,
	}}
	lon, lat := c.Center()
	return math.Mod(lon+540, 360) - 180, lat
}
