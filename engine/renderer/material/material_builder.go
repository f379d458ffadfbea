package material

import (
	"image"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
)

// MaterialBuilderOption is a function that configures a textured material during construction.
type MaterialBuilderOption func(*BasicMaterial)

// WithColor shades the material with a flat colour, uploaded as a 1x1 texture.
//
// Parameters:
//   - r, g, b, a: colour components in [0, 1]
//
// Returns:
//   - MaterialBuilderOption: a function that sets the colour source
func WithColor(r, g, b, a float32) MaterialBuilderOption {
	return func(m *BasicMaterial) {
		m.color = &[4]float32{r, g, b, a}
	}
}

// WithTexture samples an existing texture view. The caller keeps ownership of the view.
//
// Parameters:
//   - view: a view of an RGBA texture
//
// Returns:
//   - MaterialBuilderOption: a function that sets the texture source
func WithTexture(view gpu.TextureView) MaterialBuilderOption {
	return func(m *BasicMaterial) {
		m.view = view
	}
}

// WithSampler replaces the default linear repeating sampler. The caller keeps ownership of the sampler.
//
// Parameters:
//   - s: the sampler
//
// Returns:
//   - MaterialBuilderOption: a function that sets the sampler
func WithSampler(s gpu.Sampler) MaterialBuilderOption {
	return func(m *BasicMaterial) {
		m.sampler = s
	}
}

// WithBitmap uploads an in-memory image.
//
// Parameters:
//   - img: the image
//
// Returns:
//   - MaterialBuilderOption: a function that sets the bitmap source
func WithBitmap(img image.Image) MaterialBuilderOption {
	return func(m *BasicMaterial) {
		m.bitmap = img
	}
}

// WithImageFile decodes a png, jpeg, bmp or webp file when the material is created.
//
// Parameters:
//   - path: the image file
//
// Returns:
//   - MaterialBuilderOption: a function that sets the file source
func WithImageFile(path string) MaterialBuilderOption {
	return func(m *BasicMaterial) {
		m.path = path
	}
}

// WithLabel overrides the generated debug label.
func WithLabel(label string) MaterialBuilderOption {
	return func(m *BasicMaterial) {
		m.label = label
	}
}
