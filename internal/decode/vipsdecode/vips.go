// Package vipsdecode validates tiles with libvips.
package vipsdecode

import (
	"fmt"

	"github.com/cshum/vipsgen/vips"
	"go.uber.org/zap"

	"tileview/internal/decode"
)

type Config struct {
	MaxCacheMB  int
	Concurrency int
}

// Start initialises libvips and routes its warnings to log. Pair with
// Shutdown.
func Start(cfg Config, log *zap.Logger) {
	vipsConfig := &vips.Config{
		ConcurrencyLevel: cfg.Concurrency,
		MaxCacheMem:      cfg.MaxCacheMB * 1024 * 1024,
		MaxCacheFiles:    0, // Tiles are already files; no vips disk cache
		MaxCacheSize:     0,
		ReportLeaks:      false,
		CacheTrace:       false,
		VectorEnabled:    true,
	}

	vips.SetLogging(func(domain string, level vips.LogLevel, message string) {
		if level >= vips.LogLevelError {
			log.Error("vips", zap.String("domain", domain), zap.Int("level", int(level)), zap.String("message", message))
		} else if level >= vips.LogLevelWarning {
			log.Warn("vips", zap.String("domain", domain), zap.Int("level", int(level)), zap.String("message", message))
		}
	}, vips.LogLevelError)

	vips.Startup(vipsConfig)

	log.Info("VIPS initialized",
		zap.Int("max_cache_mb", cfg.MaxCacheMB),
		zap.Int("concurrency", cfg.Concurrency),
	)
}

func Shutdown() {
	vips.Shutdown()
}

// Decoder validates tiles by loading them with libvips.
type Decoder struct{}

func (Decoder) Decode(path string) (*decode.Tile, error) {
	data, format, err := decode.ReadFile(path)
	if err != nil {
		return nil, err
	}

	image, err := loadImage(path, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", decode.ErrDecode, path, err)
	}
	defer image.Close()

	// Loading is lazy; reading the pixels is what catches truncated files.
	if _, err := image.Avg(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", decode.ErrDecode, path, err)
	}

	return &decode.Tile{
		Data:   data,
		Width:  image.Width(),
		Height: image.Height(),
		Format: format,
		ETag:   decode.ETag(data),
	}, nil
}

// loadImage picks the vips loader for a sniffed format
func loadImage(path, format string) (*vips.Image, error) {
	// Tiles are small and read once
	access := vips.AccessSequential

	switch format {
	case decode.FormatJPEG:
		opts := vips.DefaultJpegloadOptions()
		opts.Access = access
		opts.FailOn = vips.FailOnTruncated
		return vips.NewJpegload(path, opts)
	case decode.FormatPNG:
		opts := vips.DefaultPngloadOptions()
		opts.Access = access
		opts.FailOn = vips.FailOnTruncated
		return vips.NewPngload(path, opts)
	case decode.FormatWebP:
		opts := vips.DefaultWebploadOptions()
		opts.Access = access
		opts.FailOn = vips.FailOnTruncated
		return vips.NewWebpload(path, opts)
	default:
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}
}
