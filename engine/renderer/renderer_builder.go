package renderer

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/profiler"
)

// RendererBuilderOption is a function that configures a Renderer during construction.
type RendererBuilderOption func(*renderer)

// WithClearColor sets the color the main pass clears to. Defaults to opaque white.
//
// Parameters:
//   - r, g, b, a: the clear color components in [0, 1]
//
// Returns:
//   - RendererBuilderOption: a function that sets the clear color
func WithClearColor(r, g, b, a float64) RendererBuilderOption {
	return func(rd *renderer) {
		rd.clearColor = gpu.Color{R: r, G: g, B: b, A: a}
	}
}

// WithDepthFormat sets the format of the depth attachment. Defaults to depth24plus-stencil8.
//
// Parameters:
//   - format: a depth texture format
//
// Returns:
//   - RendererBuilderOption: a function that sets the depth format
func WithDepthFormat(format gpu.TextureFormat) RendererBuilderOption {
	return func(rd *renderer) {
		rd.depthFormat = format
	}
}

// WithFrustumCulling enables skipping meshes outside the camera frustum in the main pass.
//
// Parameters:
//   - enabled: whether to cull
//
// Returns:
//   - RendererBuilderOption: a function that toggles culling
func WithFrustumCulling(enabled bool) RendererBuilderOption {
	return func(rd *renderer) {
		rd.frustumCulling = enabled
	}
}

// WithProfiler reports the draw counts of every frame to p.
//
// Parameters:
//   - p: the profiler to tick once per frame
//
// Returns:
//   - RendererBuilderOption: a function that sets the profiler
func WithProfiler(p *profiler.Profiler) RendererBuilderOption {
	return func(rd *renderer) {
		rd.profiler = p
	}
}

// WithExtensions adds extensions right after construction, in order.
func WithExtensions(exts ...RendererExtension) RendererBuilderOption {
	return func(rd *renderer) {
		for _, ext := range exts {
			rd.AddExtension(ext)
		}
	}
}
