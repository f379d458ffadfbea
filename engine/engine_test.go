package engine

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/config"
	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-scene/engine/light"
	"github.com/Carmen-Shannon/oxy-scene/engine/mesh"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWindow stays open for a fixed number of polls.
type fakeWindow struct {
	polls   int
	handler window.Handler
	closed  bool
}

func (w *fakeWindow) SetHandler(h window.Handler)                 { w.handler = h }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *fakeWindow) Size() (int, int)                           { return 320, 240 }
func (w *fakeWindow) SetTitle(string)                            {}
func (w *fakeWindow) Close() error                               { w.closed = true; return nil }
func (w *fakeWindow) PollEvents() bool {
	w.polls--
	return w.polls >= 0
}

// stepClock advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

type rig struct {
	device *gputest.Device
	win    *fakeWindow
	cfg    *config.Config
	r      renderer.Renderer
}

func newRig(t *testing.T, polls int) *rig {
	t.Helper()
	t.Cleanup(material.Reset)
	device := gputest.NewDevice()
	cfg := config.Default()
	cfg.Logging.Level = "error"
	return &rig{
		device: device,
		win:    &fakeWindow{polls: polls},
		cfg:    cfg,
		r:      renderer.NewRenderer(device, gputest.NewSurface(320, 240)),
	}
}

func testScene() (scene.Camera, *scene.Scene) {
	s := scene.NewScene()
	s.Add(
		mesh.New(geometry.NewBox(1, 1, 1), material.NewUV()),
		light.NewDirectional(light.WithPosition(0, 5, 5), light.WithTarget(0, 0, 0)),
	)
	return camera.NewPerspective(camera.WithPosition(0, 2, 6), camera.WithTarget(0, 0, 0)), s
}

func TestRunRendersUntilWindowCloses(t *testing.T) {
	rg := newRig(t, 3)
	cam, s := testScene()
	e, err := NewEngine(WithConfig(rg.cfg), WithWindow(rg.win), WithRenderer(rg.r), WithScene(cam, s))
	require.NoError(t, err)

	require.NoError(t, e.Run())
	assert.Len(t, rg.device.RecordingQueue().Submitted, 3)
	assert.True(t, rg.win.closed)
}

func TestRunWithoutScene(t *testing.T) {
	rg := newRig(t, 3)
	e, err := NewEngine(WithConfig(rg.cfg), WithWindow(rg.win), WithRenderer(rg.r))
	require.NoError(t, err)

	assert.ErrorIs(t, e.Run(), ErrNoScene)
	assert.Empty(t, rg.device.RecordingQueue().Submitted)
	assert.True(t, rg.win.closed)
}

func TestShadowsFollowConfig(t *testing.T) {
	rg := newRig(t, 0)
	e, err := NewEngine(WithConfig(rg.cfg), WithWindow(rg.win), WithRenderer(rg.r))
	require.NoError(t, err)
	require.NotNil(t, e.Shadows())
	assert.Equal(t, rg.cfg.Shadows.TileSize, e.Shadows().TileSize())
	assert.Contains(t, rg.r.Extensions(), renderer.RendererExtension(e.Shadows()))

	rg = newRig(t, 0)
	rg.cfg.Shadows.Enabled = false
	e, err = NewEngine(WithConfig(rg.cfg), WithWindow(rg.win), WithRenderer(rg.r))
	require.NoError(t, err)
	assert.Nil(t, e.Shadows())
	assert.Empty(t, rg.r.Extensions())

	rg = newRig(t, 0)
	rg.cfg.Shadows.Strategy = "sometimes"
	_, err = NewEngine(WithConfig(rg.cfg), WithWindow(rg.win), WithRenderer(rg.r))
	assert.Error(t, err)
	assert.True(t, rg.win.closed)
}

func TestFixedTicks(t *testing.T) {
	rg := newRig(t, 4)
	cam, s := testScene()
	var ticks []float32
	e, err := NewEngine(
		WithConfig(rg.cfg), WithWindow(rg.win), WithRenderer(rg.r), WithScene(cam, s),
		WithTickRate(20),
		WithTickCallback(func(dt float32) { ticks = append(ticks, dt) }),
		// One clock read per frame, so a tick every second frame.
		withClock(stepClock(25*time.Millisecond)),
	)
	require.NoError(t, err)
	require.NoError(t, e.Run())

	require.Len(t, ticks, 2)
	for _, dt := range ticks {
		assert.InDelta(t, 0.05, dt, 1e-6)
	}
}

func TestTickBacklogIsDropped(t *testing.T) {
	e := &engine{tickRate: 10 * time.Millisecond}
	n := 0
	e.tickCallback = func(float32) { n++ }

	assert.Equal(t, 5*time.Millisecond, e.tick(25*time.Millisecond))
	assert.Equal(t, 2, n)

	n = 0
	assert.Zero(t, e.tick(time.Second))
	assert.Equal(t, maxTicksPerFrame, n)
}

func TestQuitFromTick(t *testing.T) {
	rg := newRig(t, 100)
	cam, s := testScene()
	e, err := NewEngine(
		WithConfig(rg.cfg), WithWindow(rg.win), WithRenderer(rg.r), WithScene(cam, s),
		withClock(stepClock(time.Second)),
	)
	require.NoError(t, err)
	e.SetTickCallback(func(float32) { e.Quit() })

	require.NoError(t, e.Run())
	assert.Len(t, rg.device.RecordingQueue().Submitted, 1, "the frame that quit still renders")
	e.Quit()
}

func TestResizeReachesRenderer(t *testing.T) {
	rg := newRig(t, 0)
	surface := rg.r.Surface().(*gputest.Surface)
	_, err := NewEngine(WithConfig(rg.cfg), WithWindow(rg.win), WithRenderer(rg.r))
	require.NoError(t, err)

	require.NotNil(t, rg.win.handler.Resize)
	rg.win.handler.Resize(640, 480)
	w, h := surface.Size()
	assert.Equal(t, uint32(640), w)
	assert.Equal(t, uint32(480), h)
}

func TestHandleInputKeepsRendererResize(t *testing.T) {
	rg := newRig(t, 0)
	surface := rg.r.Surface().(*gputest.Surface)
	e, err := NewEngine(WithConfig(rg.cfg), WithWindow(rg.win), WithRenderer(rg.r))
	require.NoError(t, err)

	var resized [2]int
	var scrolled float32
	e.HandleInput(window.Handler{
		Resize: func(w, h int) { resized = [2]int{w, h} },
		Scroll: func(d float32) { scrolled = d },
	})
	rg.win.handler.Resize(800, 600)
	rg.win.handler.Scroll(2)

	assert.Equal(t, [2]int{800, 600}, resized)
	assert.Equal(t, float32(2), scrolled)
	w, _ := surface.Size()
	assert.Equal(t, uint32(800), w)
}
