package tile

import (
	"fmt"
)

// Provider describes a remote tile source.
// SwapXY marks templates that take (y, x) instead of (x, y).
type Provider struct {
	ID          ProviderID `json:"id"`
	Name        string     `json:"name"`
	URLTemplate string     `json:"url_template"`
	SwapXY      bool       `json:"swap_xy"`
	Ext         string     `json:"ext"`
}

const (
	OSM ProviderID = iota
	Google
	ArcGIS
	CartoLight
	CartoDark
)

// Respect the usage policies of these services for anything beyond local use.
var Providers = []Provider{
	{ID: OSM, Name: "osm", URLTemplate: "https://tile.openstreetmap.org/%d/%d/%d.png", Ext: "png"},
	{ID: Google, Name: "google", URLTemplate: "https://khms2.google.com/kh/v=1000?z=%d&x=%d&y=%d", Ext: "png"},
	{ID: ArcGIS, Name: "arcgis", URLTemplate: "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/%d/%d/%d", SwapXY: true, Ext: "png"},
	{ID: CartoLight, Name: "carto_light", URLTemplate: "https://d.basemaps.cartocdn.com/light_nolabels/%d/%d/%d.png", Ext: "png"},
	{ID: CartoDark, Name: "carto_dark", URLTemplate: "https://d.basemaps.cartocdn.com/dark_nolabels/%d/%d/%d.png", Ext: "png"},
}

func (id ProviderID) Provider() Provider {
	return Providers[id]
}

func (id ProviderID) Name() string {
	if int(id) < 0 || int(id) >= len(Providers) {
		return fmt.Sprintf("provider(%d)", int(id))
	}
	return Providers[id].Name
}

// URL builds the upstream request for key. The swap only ever applies here,
// cache keys and paths stay in (x, y) order.
func (p Provider) URL(key Key) string {
	a, b := key.X, key.Y
	if p.SwapXY {
		a, b = b, a
	}
	return fmt.Sprintf(p.URLTemplate, key.Zoom, a, b)
}

// ProviderByName resolves a provider from its directory name.
func ProviderByName(name string) (Provider, error) {
	for _, p := range Providers {
		if p.Name == name {
			return p, nil
		}
	}
	return Provider{}, fmt.Errorf("unknown provider: %s", name)
}

func ProviderNames() []string {
	names := make([]string, 0, len(Providers))
	for _, p := range Providers {
		names = append(names, p.Name)
	}
	return names
}
