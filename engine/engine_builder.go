package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-scene/engine/config"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig replaces the default configuration.
//
// Parameters:
//   - cfg: the configuration, usually from config.Parse
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg *config.Config) EngineBuilderOption {
	return func(e *engine) {
		if cfg != nil {
			e.cfg = cfg
		}
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.SetTickRate(fps)
	}
}

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally. The engine still closes it when Run returns.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer renders through r instead of creating a wgpu device. The caller keeps ownership of r and its
// device.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithScene sets the camera and scene drawn by the frame loop.
//
// Parameters:
//   - camera: the camera to draw through
//   - s: the scene to draw
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(camera scene.Camera, s *scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.camera, e.scene = camera, s
	}
}

// WithTickCallback registers the tick callback.
func WithTickCallback(callback func(dt float32)) EngineBuilderOption {
	return func(e *engine) {
		e.tickCallback = callback
	}
}

// withClock replaces time.Now.
func withClock(now func() time.Time) EngineBuilderOption {
	return func(e *engine) {
		e.now = now
	}
}
