package main

import (
	"testing"

	"tileview/internal/tile"
)

func TestParseKey(t *testing.T) {
	key, err := parseKey([]string{"arcgis", "5", "3", "7"})
	if err != nil {
		t.Fatal(err)
	}
	want := tile.Key{Provider: tile.ArcGIS, Zoom: 5, X: 3, Y: 7}
	if key != want {
		t.Fatalf("key = %+v, want %+v", key, want)
	}

	bad := [][]string{
		{"bing", "1", "0", "0"},
		{"osm", "z", "0", "0"},
		{"osm", "1", "2", "0"},
		{"osm", "0", "0", "0"},
	}
	for _, args := range bad {
		if _, err := parseKey(args); err == nil {
			t.Errorf("parseKey(%v) should fail", args)
		}
	}
}
