// Package engine drives a window, a wgpu device and a renderer from a single frame loop.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/engine/config"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu/wgpu_backend"
	"github.com/Carmen-Shannon/oxy-scene/engine/logger"
	"github.com/Carmen-Shannon/oxy-scene/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/shadow"
	"github.com/Carmen-Shannon/oxy-scene/engine/window"
	"go.uber.org/zap"
)

// maxTicksPerFrame bounds the catch-up ticks after a stall.
const maxTicksPerFrame = 5

// ErrNoScene is returned by Run when no scene was set.
var ErrNoScene = errors.New("engine: no scene to render")

// engine implements the Engine interface.
type engine struct {
	cfg *config.Config

	window   window.Window
	device   *wgpu_backend.Device
	surface  *wgpu_backend.Surface
	renderer renderer.Renderer
	profiler *profiler.Profiler
	shadows  *shadow.ShadowPass

	camera scene.Camera
	scene  *scene.Scene

	tickRate     time.Duration
	tickCallback func(dt float32)
	frameLimit   time.Duration
	now          func() time.Time

	quitChannel chan struct{}
	quitOnce    sync.Once
}

// Engine owns the window, the device and the renderer of an application and runs its frame loop. Ticks run at a
// fixed rate and frames as fast as the present mode allows, all on the goroutine that called Run, so tick
// callbacks may mutate the scene freely.
type Engine interface {
	// Window returns the window the engine renders into.
	Window() window.Window

	// Renderer returns the renderer.
	Renderer() renderer.Renderer

	// Shadows returns the shadow pass, or nil when shadows are disabled.
	Shadows() *shadow.ShadowPass

	// Profiler returns the profiler, or nil when profiling is disabled.
	Profiler() *profiler.Profiler

	// Config returns the configuration the engine was built from.
	Config() *config.Config

	// SetScene selects what the next frames draw.
	//
	// Parameters:
	//   - camera: the camera to draw through
	//   - s: the scene to draw
	SetScene(camera scene.Camera, s *scene.Scene)

	// SetTickRate sets the fixed tick rate.
	//
	// Parameters:
	//   - fps: ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each tick with the tick length in seconds.
	SetTickCallback(callback func(dt float32))

	// HandleInput installs window event callbacks. Resizes always reach the renderer first.
	//
	// Parameters:
	//   - h: the application's callbacks
	HandleInput(h window.Handler)

	// Run polls window events, ticks and renders until the window closes or Quit is called, then releases
	// everything the engine created.
	//
	// Returns:
	//   - error: ErrNoScene if no scene was set
	Run() error

	// Quit stops Run after the current frame. Safe to call multiple times and from any goroutine.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates the window, device and renderer described by the configuration. Options that supply a
// window or renderer skip creating them.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the engine
//   - error: error if logging, the window or the device cannot be set up
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		cfg:         config.Default(),
		tickRate:    time.Second / 60,
		now:         time.Now,
		quitChannel: make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}
	if err := e.setup(); err != nil {
		e.release()
		return nil, err
	}
	return e, nil
}

func (e *engine) setup() error {
	cfg := e.cfg
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if cfg.Window.FPSLimit > 0 {
		e.frameLimit = time.Second / time.Duration(cfg.Window.FPSLimit)
	}

	if e.window == nil {
		w, err := window.New(
			window.WithTitle(cfg.Window.Title),
			window.WithSize(cfg.Window.Width, cfg.Window.Height),
		)
		if err != nil {
			return fmt.Errorf("engine: %w", err)
		}
		e.window = w
	}

	if e.renderer == nil {
		present := wgpu_backend.PresentModeUncapped
		if cfg.Window.VSync {
			present = wgpu_backend.PresentModeVSync
		}
		width, height := e.window.Size()
		device, surface, err := wgpu_backend.New(e.window.SurfaceDescriptor(), width, height,
			wgpu_backend.WithPresentMode(present),
			wgpu_backend.WithCompileWorkers(cfg.Renderer.CompileWorkers),
			wgpu_backend.WithValidation(cfg.Renderer.Validation),
			wgpu_backend.WithForceFallbackAdapter(cfg.Renderer.FallbackAdapter),
		)
		if err != nil {
			return fmt.Errorf("engine: %w", err)
		}
		e.device, e.surface = device, surface

		opts := []renderer.RendererBuilderOption{
			renderer.WithClearColor(cfg.Renderer.ClearColor[0], cfg.Renderer.ClearColor[1],
				cfg.Renderer.ClearColor[2], cfg.Renderer.ClearColor[3]),
			renderer.WithFrustumCulling(cfg.Renderer.FrustumCulling),
		}
		if cfg.Renderer.Profile {
			e.profiler = profiler.NewProfiler(profiler.WithInterval(cfg.Renderer.ProfileInterval))
			opts = append(opts, renderer.WithProfiler(e.profiler))
		}
		e.renderer = renderer.NewRenderer(device, surface, opts...)
	}

	if cfg.Shadows.Enabled {
		strategy, err := shadow.ParseStrategy(cfg.Shadows.Strategy)
		if err != nil {
			return fmt.Errorf("engine: %w", err)
		}
		e.shadows = shadow.New(shadow.WithTileSize(cfg.Shadows.TileSize), shadow.WithStrategy(strategy))
		e.renderer.AddExtension(e.shadows)
	}

	e.HandleInput(window.Handler{})
	return nil
}

func (e *engine) Window() window.Window               { return e.window }
func (e *engine) Renderer() renderer.Renderer         { return e.renderer }
func (e *engine) Shadows() *shadow.ShadowPass         { return e.shadows }
func (e *engine) Profiler() *profiler.Profiler        { return e.profiler }
func (e *engine) Config() *config.Config              { return e.cfg }
func (e *engine) SetTickCallback(cb func(dt float32)) { e.tickCallback = cb }

func (e *engine) HandleInput(h window.Handler) {
	resize := h.Resize
	h.Resize = func(width, height int) {
		e.renderer.Resize(width, height)
		if resize != nil {
			resize(width, height)
		}
	}
	e.window.SetHandler(h)
}

func (e *engine) SetScene(camera scene.Camera, s *scene.Scene) {
	e.camera, e.scene = camera, s
}

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	e.tickRate = time.Duration(float64(time.Second) / fps)
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) quitting() bool {
	select {
	case <-e.quitChannel:
		return true
	default:
		return false
	}
}

func (e *engine) Run() error {
	defer e.release()
	if e.scene == nil || e.camera == nil {
		return ErrNoScene
	}

	log := logger.Named("engine")
	log.Info("frame loop started", zap.Duration("tick", e.tickRate), zap.Duration("frame_limit", e.frameLimit))

	last := e.now()
	var acc time.Duration
	for !e.quitting() && e.window.PollEvents() {
		frameStart := e.now()
		acc += frameStart.Sub(last)
		last = frameStart

		acc = e.tick(acc)

		// A failed frame is dropped; the next one starts from scratch.
		if err := e.renderer.Render(e.camera, e.scene); err != nil {
			log.Warn("frame dropped", zap.Error(err))
		}

		if e.frameLimit > 0 {
			if remaining := e.frameLimit - e.now().Sub(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
	log.Info("frame loop stopped")
	return nil
}

// tick runs the fixed-rate callbacks owed for acc and returns the remainder. After a long stall the backlog is
// dropped rather than replayed.
func (e *engine) tick(acc time.Duration) time.Duration {
	if e.tickCallback == nil {
		return 0
	}
	dt := float32(e.tickRate.Seconds())
	for n := 0; acc >= e.tickRate; n++ {
		if n == maxTicksPerFrame {
			return 0
		}
		e.tickCallback(dt)
		acc -= e.tickRate
	}
	return acc
}

// release frees what the engine created, in reverse order of creation.
func (e *engine) release() {
	if e.shadows != nil {
		e.shadows.Release()
	}
	if e.device != nil {
		e.renderer.Release()
		e.surface.Release()
		e.device.Release()
		e.device = nil
	}
	if e.window != nil {
		if err := e.window.Close(); err != nil {
			logger.Named("engine").Debug("closing window", zap.Error(err))
		}
	}
	logger.Sync()
}
