package main

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/image/font/basicfont"

	"tileview/internal/cache"
	"tileview/internal/config"
	"tileview/internal/decode"
	"tileview/internal/fetch"
	"tileview/internal/inventory"
	"tileview/internal/logger"
	"tileview/internal/projection"
	"tileview/internal/tile"
	"tileview/internal/tiles"
	"tileview/internal/viewport"
)

const (
	windowWidth  = 1024
	windowHeight = 768

	initialLon  = -54.10793
	initialLat  = -31.33244
	initialZoom = 1

	statusInterval = time.Second
)

var (
	placeholderFill   = color.RGBA{200, 200, 200, 255}
	placeholderBorder = color.RGBA{150, 150, 150, 255}
	hudColor          = color.RGBA{20, 20, 20, 255}
)

type Game struct {
	camera  *viewport.Camera
	tiles   *tiles.Service[*ebiten.Image]
	logger  *zap.Logger
	blank   *ebiten.Image
	showHUD bool

	dragging   bool
	lastX      int
	lastY      int
	lastStatus time.Time
}

func NewGame(camera *viewport.Camera, svc *tiles.Service[*ebiten.Image], log *zap.Logger) *Game {
	return &Game{
		camera:  camera,
		tiles:   svc,
		logger:  log,
		blank:   newPlaceholder(),
		showHUD: true,
	}
}

func newPlaceholder() *ebiten.Image {
	img := ebiten.NewImage(projection.TileSize, projection.TileSize)
	img.Fill(placeholderBorder)
	inner := img.SubImage(image.Rect(1, 1, projection.TileSize-1, projection.TileSize-1)).(*ebiten.Image)
	inner.Fill(placeholderFill)
	return img
}

var providerKeys = []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft):
		g.camera.Pan(-viewport.KeyPanStep, 0)
	case inpututil.IsKeyJustPressed(ebiten.KeyRight):
		g.camera.Pan(viewport.KeyPanStep, 0)
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		g.camera.Pan(0, -viewport.KeyPanStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		g.camera.Pan(0, viewport.KeyPanStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyKPAdd):
		g.camera.Zoom(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract):
		g.camera.Zoom(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		g.showHUD = !g.showHUD
	}

	for i, key := range providerKeys {
		if inpututil.IsKeyJustPressed(key) && g.camera.SetProvider(tile.ProviderID(i)) {
			g.logger.Info("Provider changed", zap.String("provider", tile.ProviderID(i).Name()))
		}
	}

	x, y := ebiten.CursorPosition()
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.dragging = true
		g.lastX, g.lastY = x, y
	}
	if g.dragging {
		if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
			g.camera.Pan(float64(g.lastX-x), float64(g.lastY-y))
			g.lastX, g.lastY = x, y
		} else {
			g.dragging = false
		}
	}

	if _, wheelDy := ebiten.Wheel(); wheelDy != 0 {
		step := 1
		if wheelDy < 0 {
			step = -1
		}
		g.camera.ZoomAt(float64(x), float64(y), step)
	}

	if time.Since(g.lastStatus) > statusInterval {
		g.logger.Debug(g.camera.Status())
		g.lastStatus = time.Now()
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(placeholderFill)

	for visible := range viewport.Tiles(g.camera.View()) {
		img, ok := g.tiles.Lookup(visible.Key)
		if !ok {
			img = g.blank
		}
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(visible.ScreenX, visible.ScreenY)
		screen.DrawImage(img, op)
	}

	if g.showHUD {
		status := fmt.Sprintf("%s | queued %d | cached %d", g.camera.Status(), g.tiles.Queue().Len(), g.tiles.Cache().Len())
		text.Draw(screen, status, basicfont.Face7x13, 10, 20, hudColor)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.camera.Resize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

type options struct {
	configPath string
	provider   string
	lon        float64
	lat        float64
	zoom       int
}

func main() {
	var opts options

	root := &cobra.Command{
		Use:           "viewer",
		Short:         "Interactive slippy map viewer backed by the tile cache",
		Long:          "Arrow keys or mouse drag to pan, +/- or the wheel to zoom, 1..5 to change provider, H to toggle the status line, Esc to quit.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	root.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file (default $TILEVIEW_CONFIG)")
	root.Flags().StringVarP(&opts.provider, "provider", "p", "osm", "initial provider")
	root.Flags().Float64Var(&opts.lon, "lon", initialLon, "initial longitude")
	root.Flags().Float64Var(&opts.lat, "lat", initialLat, "initial latitude")
	root.Flags().IntVarP(&opts.zoom, "zoom", "z", initialZoom, "initial zoom level")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel, "console")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	provider, err := tile.ProviderByName(opts.provider)
	if err != nil {
		return err
	}

	store, err := cache.NewDiskStore(cfg.CacheRoot)
	if err != nil {
		return err
	}
	if _, err := inventory.New(cfg.CacheRoot, log.Named("inventory")).CleanupTempFiles(); err != nil {
		log.Warn("Initial cache scan failed", zap.Error(err))
	}

	release := func(key tile.Key, img *ebiten.Image) {
		img.Deallocate()
	}
	memory, err := cache.NewCache[*ebiten.Image](cfg.CacheType, cfg.CacheMemoryTiles, release, log)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	svc := tiles.New(tiles.Options[*ebiten.Image]{
		Store:  store,
		Memory: memory,
		Decoder: tiles.DecoderFunc[*ebiten.Image](func(path string) (*ebiten.Image, error) {
			rgba, err := decode.Image{}.Decode(path)
			if err != nil {
				return nil, err
			}
			return ebiten.NewImageFromImage(rgba), nil
		}),
		Downloader: fetch.NewHTTPFetcher(fetch.FetcherOptions{
			UserAgent:      cfg.UserAgent,
			ConnectTimeout: cfg.ConnectTimeout,
			Timeout:        cfg.FetchTimeout,
		}),
		OnEvict: release,
		Logger:  log.Named("tiles"),
	})
	svc.Start()
	// Lets the in-flight download finish before exiting.
	defer svc.Close()

	camera := viewport.NewCamera(provider.ID, windowWidth, windowHeight, opts.lon, opts.lat, opts.zoom)
	game := NewGame(camera, svc, log)

	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowTitle("tileview")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	log.Info("Starting viewer", zap.String("provider", provider.Name), zap.Int("zoom", camera.View().Zoom))
	return ebiten.RunGame(game)
}
