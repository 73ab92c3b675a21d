// Package decode turns tile files into render-ready handles.
//
// Every provider stores tiles as {y}.png whatever the payload, so the format
// is sniffed from the content and never taken from the extension.
package decode

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
)

var ErrDecode = errors.New("tile decode failed")

const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatWebP = "webp"
)

// Tile is a validated, undecoded tile ready to be served as-is.
type Tile struct {
	Data   []byte
	Width  int
	Height int
	Format string
	ETag   string
}

func (t *Tile) ContentType() string {
	return "image/" + t.Format
}

// Sniff returns the image format of data, or an error for anything that is
// not a supported raster.
func Sniff(data []byte) (string, error) {
	switch http.DetectContentType(data) {
	case "image/png":
		return FormatPNG, nil
	case "image/jpeg":
		return FormatJPEG, nil
	case "image/webp":
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("%w: unsupported content %q", ErrDecode, http.DetectContentType(data))
	}
}

// ReadFile loads a tile and sniffs its format.
func ReadFile(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	format, err := Sniff(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return data, format, nil
}

// ETag is a content hash suitable for HTTP caching.
func ETag(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])[:16]
}
