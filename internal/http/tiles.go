package http

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"tileview/internal/inventory"
	"tileview/internal/projection"
	"tileview/internal/tile"
	"tileview/internal/viewport"
)

const maxViewportSide = 8192

type TileInput struct {
	Provider    string `path:"provider" doc:"Provider name" example:"osm"`
	Z           int    `path:"z" doc:"Zoom level" example:"3"`
	X           int    `path:"x" doc:"Tile column" example:"4"`
	Y           int    `path:"y" doc:"Tile row" example:"2"`
	IfNoneMatch string `header:"If-None-Match" doc:"ETag of a previously served copy"`
}

// key resolves the input into a tile key, or the HTTP error to return.
func (in *TileInput) key() (tile.Key, error) {
	p, err := tile.ProviderByName(in.Provider)
	if err != nil {
		return tile.Key{}, huma.Error404NotFound(err.Error())
	}
	key := tile.Key{Provider: p.ID, Zoom: in.Z, X: in.X, Y: in.Y}
	if !key.Valid() {
		return tile.Key{}, huma.Error400BadRequest(fmt.Sprintf("invalid tile coordinates %d/%d/%d", in.Z, in.X, in.Y))
	}
	return key, nil
}

type TileOutput struct {
	Status       int
	ContentType  string `header:"Content-Type"`
	ETag         string `header:"ETag"`
	CacheControl string `header:"Cache-Control"`
	RetryAfter   string `header:"Retry-After"`
	Body         []byte
}

// GetTile serves a cached tile. A tile that is not on disk yet is scheduled
// for download and answered with 202 so the client can come back later.
func (h *Handlers) GetTile(ctx context.Context, input *TileInput) (*TileOutput, error) {
	key, err := input.key()
	if err != nil {
		return nil, err
	}

	t, ok := h.tiles.Lookup(key)
	if !ok {
		return &TileOutput{
			Status:      http.StatusAccepted,
			ContentType: "text/plain",
			RetryAfter:  retryAfter,
			Body:        []byte("tile scheduled\n"),
		}, nil
	}

	etag := `"` + t.ETag + `"`
	if input.IfNoneMatch == etag {
		return &TileOutput{Status: http.StatusNotModified, ETag: etag, CacheControl: tileCacheControl}, nil
	}

	return &TileOutput{
		Status:       http.StatusOK,
		ContentType:  t.ContentType(),
		ETag:         etag,
		CacheControl: tileCacheControl,
		Body:         t.Data,
	}, nil
}

type BoundBody struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

func newBoundBody(b orb.Bound) BoundBody {
	return BoundBody{MinLon: b.Min.Lon(), MinLat: b.Min.Lat(), MaxLon: b.Max.Lon(), MaxLat: b.Max.Lat()}
}

type TileInfoBody struct {
	Key      string    `json:"key" doc:"provider/z/x/y" example:"osm/3/4/2"`
	Path     string    `json:"path" doc:"Location in the disk cache"`
	URL      string    `json:"url" doc:"Upstream URL the tile is fetched from"`
	OnDisk   bool      `json:"on_disk"`
	InMemory bool      `json:"in_memory"`
	Pending  bool      `json:"pending" doc:"Waiting in the download queue"`
	Bound    BoundBody `json:"bound" doc:"Geographic extent of the tile"`
}

// GetTileInfo describes a tile without scheduling a download.
func (h *Handlers) GetTileInfo(ctx context.Context, input *TileInput) (*struct{ Body TileInfoBody }, error) {
	key, err := input.key()
	if err != nil {
		return nil, err
	}

	return &struct{ Body TileInfoBody }{Body: TileInfoBody{
		Key:      key.String(),
		Path:     h.tiles.Store().PathFor(key),
		URL:      key.Provider.Provider().URL(key),
		OnDisk:   h.tiles.Store().Exists(key),
		InMemory: h.tiles.Cache().Has(key),
		Pending:  h.tiles.Queue().Pending(key),
		Bound:    newBoundBody(projection.TileBound(key.Zoom, key.X, key.Y)),
	}}, nil
}

type GeoJSONOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func tileFeature(key tile.Key) *geojson.Feature {
	f := geojson.NewFeature(projection.TileBound(key.Zoom, key.X, key.Y).ToPolygon())
	f.Properties["key"] = key.String()
	f.Properties["provider"] = key.Provider.Name()
	f.Properties["z"] = key.Zoom
	f.Properties["x"] = key.X
	f.Properties["y"] = key.Y
	return f
}

func geoJSON(v interface{ MarshalJSON() ([]byte, error) }) (*GeoJSONOutput, error) {
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to encode geojson", err)
	}
	return &GeoJSONOutput{ContentType: "application/geo+json", Body: data}, nil
}

// GetTileGeoJSON returns the tile outline as a GeoJSON feature.
func (h *Handlers) GetTileGeoJSON(ctx context.Context, input *TileInput) (*GeoJSONOutput, error) {
	key, err := input.key()
	if err != nil {
		return nil, err
	}
	return geoJSON(tileFeature(key))
}

type ViewportInput struct {
	Provider string  `query:"provider" default:"osm" doc:"Provider name"`
	Width    int     `query:"width" default:"1024" doc:"Window width in pixels"`
	Height   int     `query:"height" default:"768" doc:"Window height in pixels"`
	Lon      float64 `query:"lon" doc:"Longitude of the window centre"`
	Lat      float64 `query:"lat" doc:"Latitude of the window centre"`
	Zoom     int     `query:"zoom" default:"1" doc:"Zoom level"`
	Schedule bool    `query:"schedule" doc:"Queue downloads for tiles that are missing"`
}

type VisibleTile struct {
	Key       string  `json:"key"`
	Z         int     `json:"z"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	ScreenX   float64 `json:"screen_x" doc:"Left edge of the tile in window pixels"`
	ScreenY   float64 `json:"screen_y" doc:"Top edge of the tile in window pixels"`
	Available bool    `json:"available"`
}

type ViewportBody struct {
	Provider string        `json:"provider"`
	Zoom     int           `json:"zoom"`
	CenterX  float64       `json:"center_x" doc:"World pixel x of the centre"`
	CenterY  float64       `json:"center_y" doc:"World pixel y of the centre"`
	Tiles    []VisibleTile `json:"tiles"`
}

// checkPosition rejects NaN and infinite coordinates, which strconv accepts.
func checkPosition(lon, lat float64) error {
	for _, v := range []float64{lon, lat} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return huma.Error400BadRequest("lon and lat must be finite numbers")
		}
	}
	return nil
}

func (in *ViewportInput) view() (viewport.View, error) {
	p, err := tile.ProviderByName(in.Provider)
	if err != nil {
		return viewport.View{}, huma.Error404NotFound(err.Error())
	}
	if err := checkPosition(in.Lon, in.Lat); err != nil {
		return viewport.View{}, err
	}
	if in.Zoom < tile.MinZoom || in.Zoom > tile.MaxZoom {
		return viewport.View{}, huma.Error400BadRequest(fmt.Sprintf("zoom must be between %d and %d", tile.MinZoom, tile.MaxZoom))
	}
	if in.Width <= 0 || in.Height <= 0 || in.Width > maxViewportSide || in.Height > maxViewportSide {
		return viewport.View{}, huma.Error400BadRequest(fmt.Sprintf("window size must be between 1 and %d", maxViewportSide))
	}

	cx, cy := projection.GeoToWorldPixel(in.Lon, in.Lat, in.Zoom)
	return viewport.View{
		Provider: p.ID,
		Width:    in.Width,
		Height:   in.Height,
		CenterX:  cx,
		CenterY:  cy,
		Zoom:     in.Zoom,
	}, nil
}

// GetViewport lists the tiles a window of the given size would draw.
func (h *Handlers) GetViewport(ctx context.Context, input *ViewportInput) (*struct{ Body ViewportBody }, error) {
	v, err := input.view()
	if err != nil {
		return nil, err
	}
	v = viewport.WrapCenter(v)

	body := ViewportBody{
		Provider: v.Provider.Name(),
		Zoom:     v.Zoom,
		CenterX:  v.CenterX,
		CenterY:  v.CenterY,
		Tiles:    []VisibleTile{},
	}
	for visible := range viewport.Tiles(v) {
		available := h.tiles.Available(visible.Key)
		if input.Schedule && !available {
			_, available = h.tiles.Lookup(visible.Key)
		}
		body.Tiles = append(body.Tiles, VisibleTile{
			Key:       visible.Key.String(),
			Z:         visible.Key.Zoom,
			X:         visible.Key.X,
			Y:         visible.Key.Y,
			ScreenX:   visible.ScreenX,
			ScreenY:   visible.ScreenY,
			Available: available,
		})
	}

	h.logger.Debug("Viewport listed",
		zap.String("provider", body.Provider),
		zap.Int("zoom", body.Zoom),
		zap.Int("tiles", len(body.Tiles)),
	)
	return &struct{ Body ViewportBody }{Body: body}, nil
}

// GetViewportGeoJSON returns the outlines of the visible tiles.
func (h *Handlers) GetViewportGeoJSON(ctx context.Context, input *ViewportInput) (*GeoJSONOutput, error) {
	v, err := input.view()
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for visible := range viewport.Tiles(v) {
		fc.Append(tileFeature(visible.Key))
	}
	return geoJSON(fc)
}

type ProjectInput struct {
	Lon  float64 `query:"lon" doc:"Longitude in degrees"`
	Lat  float64 `query:"lat" doc:"Latitude in degrees"`
	Zoom int     `query:"zoom" default:"1" doc:"Zoom level"`
}

type ProjectBody struct {
	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat" doc:"Latitude after clamping to the Mercator limit"`
	Zoom   int     `json:"zoom"`
	PixelX float64 `json:"pixel_x" doc:"World pixel x"`
	PixelY float64 `json:"pixel_y" doc:"World pixel y"`
	TileX  int     `json:"tile_x"`
	TileY  int     `json:"tile_y"`
}

// GetProject converts a geographic position to world pixel and tile
// coordinates.
func (h *Handlers) GetProject(ctx context.Context, input *ProjectInput) (*struct{ Body ProjectBody }, error) {
	if input.Zoom < tile.MinZoom || input.Zoom > tile.MaxZoom {
		return nil, huma.Error400BadRequest(fmt.Sprintf("zoom must be between %d and %d", tile.MinZoom, tile.MaxZoom))
	}
	if err := checkPosition(input.Lon, input.Lat); err != nil {
		return nil, err
	}

	px, py := projection.GeoToWorldPixel(input.Lon, input.Lat, input.Zoom)
	lon, lat := projection.WorldPixelToGeo(px, py, input.Zoom)
	tx, ty := projection.WorldPixelToTile(px, py)
	n := 1 << input.Zoom

	return &struct{ Body ProjectBody }{Body: ProjectBody{
		Lon:    lon,
		Lat:    lat,
		Zoom:   input.Zoom,
		PixelX: px,
		PixelY: py,
		TileX:  projection.Imod(tx, n),
		TileY:  min(max(ty, 0), n-1),
	}}, nil
}

type ProviderStats struct {
	Provider string `json:"provider"`
	InMemory int    `json:"in_memory" doc:"Decoded tiles held in memory"`
}

type CacheStatsBody struct {
	Disk     *inventory.Report `json:"disk" doc:"Inventory of the disk cache"`
	Queue    int               `json:"queue" doc:"Downloads waiting"`
	InMemory int               `json:"in_memory"`
	Memory   []ProviderStats   `json:"memory"`
}

func (h *Handlers) GetCacheStats(ctx context.Context, input *struct{}) (*struct{ Body CacheStatsBody }, error) {
	report, err := h.scanner.Scan()
	if err != nil {
		h.logger.Error("Failed to scan cache", zap.Error(err))
		return nil, huma.Error500InternalServerError("failed to scan cache", err)
	}

	memory := h.tiles.Cache()
	body := CacheStatsBody{
		Disk:     report,
		Queue:    h.tiles.Queue().Len(),
		InMemory: memory.Len(),
		Memory:   make([]ProviderStats, 0, len(tile.Providers)),
	}
	for _, p := range tile.Providers {
		body.Memory = append(body.Memory, ProviderStats{Provider: p.Name, InMemory: memory.LenProvider(p.ID)})
	}
	return &struct{ Body CacheStatsBody }{Body: body}, nil
}
