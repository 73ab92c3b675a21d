package projection

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

const tolerance = 1e-6

func TestRoundTrip(t *testing.T) {
	points := []orb.Point{
		{0, 0},
		{-54.10793, -31.33244},
		{24.780103, 60.258812},
		{179.999, 85.05},
		{-179.999, -85.05},
		{36.841963, 55.269203},
	}
	for zoom := 1; zoom <= 22; zoom++ {
		for _, p := range points {
			px, py := GeoToWorldPixel(p.Lon(), p.Lat(), zoom)
			lon, lat := WorldPixelToGeo(px, py, zoom)
			if math.Abs(lon-p.Lon()) > tolerance || math.Abs(lat-p.Lat()) > tolerance {
				t.Errorf("zoom %d: round trip of %v gave (%f, %f)", zoom, p, lon, lat)
			}
		}
	}
}

func TestLatitudeClamp(t *testing.T) {
	for _, zoom := range []int{1, 5, 22} {
		px1, py1 := GeoToWorldPixel(10, 90, zoom)
		px2, py2 := GeoToWorldPixel(10, MaxLatitude, zoom)
		if px1 != px2 || py1 != py2 {
			t.Errorf("zoom %d: (%f, %f) != (%f, %f)", zoom, px1, py1, px2, py2)
		}

		_, py := GeoToWorldPixel(10, -90, zoom)
		if math.IsInf(py, 0) || math.IsNaN(py) {
			t.Errorf("zoom %d: south pole projected to %f", zoom, py)
		}
	}
}

func TestGeoToWorldPixelOrigin(t *testing.T) {
	px, py := GeoToWorldPixel(0, 0, 1)
	if math.Abs(px-256) > tolerance || math.Abs(py-256) > tolerance {
		t.Fatalf("expected (256, 256), got (%f, %f)", px, py)
	}
	px, py = GeoToWorldPixel(-180, MaxLatitude, 3)
	if math.Abs(px) > tolerance || math.Abs(py) > 1e-3 {
		t.Fatalf("expected top-left corner, got (%f, %f)", px, py)
	}
}

func TestWorldPixelToGeoPeriodic(t *testing.T) {
	zoom := 4
	size := WorldSize(zoom)
	lon1, lat1 := WorldPixelToGeo(100, 900, zoom)
	lon2, lat2 := WorldPixelToGeo(100+size, 900, zoom)
	if math.Abs((lon2-lon1)-360) > tolerance || lat1 != lat2 {
		t.Fatalf("expected a 360 degree shift, got %f -> %f", lon1, lon2)
	}
}

func TestImod(t *testing.T) {
	tests := []struct {
		a, m, want int
	}{
		{-1, 8, 7},
		{-8, 8, 0},
		{-9, 8, 7},
		{0, 8, 0},
		{9, 8, 1},
		{3, 2, 1},
	}
	for _, tt := range tests {
		if got := Imod(tt.a, tt.m); got != tt.want {
			t.Errorf("Imod(%d, %d) = %d, want %d", tt.a, tt.m, got, tt.want)
		}
	}
	for x := -100; x <= 100; x++ {
		if r := Imod(x, 16); r < 0 || r >= 16 {
			t.Fatalf("Imod(%d, 16) = %d out of range", x, r)
		}
	}
}

func TestTileAt(t *testing.T) {
	x, y := TileAt(orb.Point{36.841963, 55.269203}, 14)
	if x != 9868 || y != 5160 {
		t.Fatalf("TileAt = (%d, %d), want (9868, 5160)", x, y)
	}

	px, py := GeoToWorldPixel(36.841963, 55.269203, 14)
	wx, wy := WorldPixelToTile(px, py)
	if wx != x || wy != y {
		t.Fatalf("WorldPixelToTile = (%d, %d), want (%d, %d)", wx, wy, x, y)
	}
}

func TestTileBound(t *testing.T) {
	b := TileBound(1, 0, 0)
	if math.Abs(b.Min.Lon()+180) > tolerance || math.Abs(b.Max.Lon()) > tolerance {
		t.Fatalf("unexpected longitude bounds %v", b)
	}
	if math.Abs(b.Min.Lat()) > tolerance || b.Max.Lat() < 85 {
		t.Fatalf("unexpected latitude bounds %v", b)
	}
}
