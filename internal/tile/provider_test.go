package tile

import (
	"testing"
)

func TestProviderURLSwap(t *testing.T) {
	key := Key{Provider: ArcGIS, Zoom: 5, X: 3, Y: 7}
	want := "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/5/7/3"
	if got := key.Provider.Provider().URL(key); got != want {
		t.Fatalf("URL() = %q, want %q", got, want)
	}
}

func TestProviderURLCanonical(t *testing.T) {
	key := Key{Provider: OSM, Zoom: 3, X: 4, Y: 2}
	want := "https://tile.openstreetmap.org/3/4/2.png"
	if got := key.Provider.Provider().URL(key); got != want {
		t.Fatalf("URL() = %q, want %q", got, want)
	}

	key = Key{Provider: Google, Zoom: 2, X: 1, Y: 3}
	want = "https://khms2.google.com/kh/v=1000?z=2&x=1&y=3"
	if got := key.Provider.Provider().URL(key); got != want {
		t.Fatalf("URL() = %q, want %q", got, want)
	}
}

func TestProviderTable(t *testing.T) {
	if len(Providers) != 5 {
		t.Fatalf("expected 5 providers, got %d", len(Providers))
	}
	for i, p := range Providers {
		if int(p.ID) != i {
			t.Errorf("provider %s has id %d at index %d", p.Name, p.ID, i)
		}
		got, err := ProviderByName(p.Name)
		if err != nil {
			t.Fatalf("ProviderByName(%q): %v", p.Name, err)
		}
		if got.ID != p.ID {
			t.Errorf("ProviderByName(%q).ID = %d, want %d", p.Name, got.ID, p.ID)
		}
	}
	if _, err := ProviderByName("bing"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestKeyValid(t *testing.T) {
	tests := []struct {
		key  Key
		want bool
	}{
		{Key{Provider: OSM, Zoom: 3, X: 4, Y: 2}, true},
		{Key{Provider: OSM, Zoom: 3, X: 8, Y: 2}, false},
		{Key{Provider: OSM, Zoom: 3, X: 0, Y: -1}, false},
		{Key{Provider: OSM, Zoom: 0, X: 0, Y: 0}, false},
		{Key{Provider: OSM, Zoom: 23, X: 0, Y: 0}, false},
		{Key{Provider: ProviderID(9), Zoom: 3, X: 0, Y: 0}, false},
	}
	for _, tt := range tests {
		if got := tt.key.Valid(); got != tt.want {
			t.Errorf("%+v.Valid() = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestKeyString(t *testing.T) {
	key := Key{Provider: CartoDark, Zoom: 5, X: 3, Y: 7}
	if got := key.String(); got != "carto_dark/5/3/7" {
		t.Fatalf("String() = %q", got)
	}
}
