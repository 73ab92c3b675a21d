package decode

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Image decodes tiles into *image.RGBA with the pure Go codecs.
type Image struct{}

func (Image) Decode(path string) (*image.RGBA, error) {
	data, _, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return toRGBA(img), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Raw validates a tile by decoding every pixel and keeps only its bytes.
type Raw struct{}

func (Raw) Decode(path string) (*Tile, error) {
	data, format, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	b := img.Bounds()

	return &Tile{
		Data:   data,
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: format,
		ETag:   ETag(data),
	}, nil
}
