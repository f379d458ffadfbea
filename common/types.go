// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// FromImage converts any decoded image to tightly packed RGBA.
//
// Parameters:
//   - img: the source image
//
// Returns:
//   - *TextureStagingData: the pixels ready for upload
func FromImage(img image.Image) *TextureStagingData {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return &TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}
}

// FromColor returns a 1x1 texture of c.
//
// Parameters:
//   - c: the colour, components in [0, 1]
//
// Returns:
//   - *TextureStagingData: the single pixel texture
func FromColor(r, g, b, a float32) *TextureStagingData {
	c := color.RGBA{R: unit(r), G: unit(g), B: unit(b), A: unit(a)}
	return &TextureStagingData{Pixels: []byte{c.R, c.G, c.B, c.A}, Width: 1, Height: 1}
}

func unit(f float32) uint8 {
	f = min(max(f, 0), 1)
	return uint8(f*255 + 0.5)
}

// DecodeImage decodes png, jpeg, bmp or webp data.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - r: the encoded image
//
// Returns:
//   - *TextureStagingData: the decoded RGBA pixels
//   - error: error if decoding fails
func DecodeImage(r io.Reader) (*TextureStagingData, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("common: failed to decode image: %w", err)
	}
	return FromImage(img), nil
}

// LoadImage decodes the image file at path.
//
// Parameters:
//   - path: the image file
//
// Returns:
//   - *TextureStagingData: the decoded RGBA pixels
//   - error: error if the file cannot be opened or decoded
func LoadImage(path string) (*TextureStagingData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("common: failed to open texture file %s: %w", path, err)
	}
	defer file.Close()

	data, err := DecodeImage(file)
	if err != nil {
		return nil, fmt.Errorf("common: %s: %w", path, err)
	}
	return data, nil
}
