// Package shadow renders shadow maps for the scene's shadow lights into a single depth atlas.
//
// A ShadowPass is a renderer extension. Before every main pass it draws the shadow casters once per shadow light,
// each into its own atlas tile, through a depth-only pipeline. The atlas itself belongs to a scene extension that
// allocates it before the scene first mounts its light buffer, so the light bind group samples the real atlas
// from the first frame on.
package shadow

import (
	"fmt"
	"maps"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/logger"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// DefaultTileSize is the edge length in texels of one light's tile.
const DefaultTileSize uint32 = 1024

// AtlasFormat is the depth format of the shadow atlas.
const AtlasFormat = gpu.TextureFormatDepth32Float

// Strategy decides which shadow lights are redrawn on a frame.
type Strategy int

const (
	// EveryFrame redraws every shadow light on every frame.
	EveryFrame Strategy = iota
	// WhenDirty redraws a light when its light matrix or atlas slot changed since it was last drawn.
	WhenDirty
	// Manual redraws only the lights passed to Stage.
	Manual
)

func (s Strategy) String() string {
	switch s {
	case EveryFrame:
		return "everyFrame"
	case WhenDirty:
		return "whenDirty"
	case Manual:
		return "manual"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy returns the strategy with the given String name.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range []Strategy{EveryFrame, WhenDirty, Manual} {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("shadow: unknown strategy %q", name)
}

type compileState int

const (
	idle compileState = iota
	compiling
	ready
	failed
)

// ShadowPass is the renderer extension drawing the shadow atlas.
type ShadowPass struct {
	tileSize uint32
	strategy Strategy

	state     compileState
	depth     gpu.RenderPipeline
	tileClear gpu.RenderPipeline
	compiled  int

	scenes      []*sceneExtension
	staged      map[scene.ShadowLight]struct{}
	invalidated bool
}

var _ renderer.RendererExtension = &ShadowPass{}

// New creates a shadow pass. Add it to a renderer with AddExtension; scenes rendered by that renderer get an
// atlas on the first frame unless one was attached earlier through SceneExtension.
//
// Parameters:
//   - options: variadic list of ShadowPassBuilderOption functions to configure the pass
//
// Returns:
//   - *ShadowPass: the new pass
func New(options ...ShadowPassBuilderOption) *ShadowPass {
	p := &ShadowPass{
		tileSize: DefaultTileSize,
		strategy: EveryFrame,
		staged:   map[scene.ShadowLight]struct{}{},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// TileSize returns the edge length of one atlas tile.
func (p *ShadowPass) TileSize() uint32 { return p.tileSize }

// Strategy returns the update strategy.
func (p *ShadowPass) Strategy() Strategy { return p.strategy }

// Ready reports whether the depth pipelines finished compiling.
func (p *ShadowPass) Ready() bool { return p.state == ready }

// Init registers the atlas sweep on the renderer's beginRender event.
func (p *ShadowPass) Init(r renderer.Renderer) {
	r.Hooks().Pre(renderer.EventBeginRender, p.render)
}

// SceneExtension returns a scene extension that allocates this pass's atlas before the scene first mounts.
//
// Returns:
//   - scene.SceneExtension: the extension to add to a scene
func (p *ShadowPass) SceneExtension() scene.SceneExtension {
	return &sceneExtension{pass: p}
}

// Stage adds lights to the set redrawn on the next frame. Only the Manual strategy reads it.
//
// Parameters:
//   - lights: the lights to redraw
func (p *ShadowPass) Stage(lights ...scene.ShadowLight) {
	for _, l := range lights {
		p.staged[l] = struct{}{}
	}
}

// Invalidate forces a full sweep that clears the atlas on the next frame, whatever the strategy.
func (p *ShadowPass) Invalidate() {
	p.invalidated = true
}

// Release frees the pipelines and the atlases of every scene the pass drew into.
func (p *ShadowPass) Release() {
	for _, se := range p.scenes {
		se.release()
	}
	for _, pl := range []gpu.RenderPipeline{p.depth, p.tileClear} {
		if pl != nil {
			pl.Release()
		}
	}
	p.depth, p.tileClear = nil, nil
	p.state, p.compiled = idle, 0
}

// sceneFor returns the scene extension owning the atlas of the frame's scene, attaching one when the scene has none.
func (p *ShadowPass) sceneFor(f *renderer.Frame) (*sceneExtension, error) {
	for _, ext := range f.Scene.Extensions() {
		if se, ok := ext.(*sceneExtension); ok && se.pass == p {
			return se, nil
		}
	}

	se := &sceneExtension{pass: p}
	f.Scene.AddExtension(se)
	// The scene already mounted this frame, so the mount hook missed it.
	if err := se.allocate(f.Device); err != nil {
		return nil, err
	}
	if err := f.Scene.UpdateLights(f.Device); err != nil {
		return nil, fmt.Errorf("shadow: %w", err)
	}
	return se, nil
}

// compile requests both depth pipelines once. It reports whether they are usable.
func (p *ShadowPass) compile(f *renderer.Frame) bool {
	switch p.state {
	case ready:
		return true
	case compiling, failed:
		return false
	}

	layouts, err := bind_group_provider.For(f.Device)
	if err != nil {
		p.fail(f, err)
		return false
	}
	clearModule, err := shader.TileClearVertex.CreateModule(f.Device, nil)
	if err != nil {
		p.fail(f, err)
		return false
	}

	depth := pipeline.NewPipeline("shadow_depth",
		pipeline.WithDepthOnly(),
		pipeline.WithDepthBias(2, 2.0),
	).Descriptor(pipeline.Target{
		Layouts:     []gpu.BindGroupLayout{layouts.View, layouts.Transform},
		Vertex:      f.VertexState,
		DepthFormat: AtlasFormat,
	})
	tileClear := pipeline.NewPipeline("shadow_tile_clear",
		pipeline.WithDepthOnly(),
		pipeline.WithDepthCompare(gpu.CompareFunctionAlways),
		pipeline.WithCullMode(gpu.CullModeNone),
	).Descriptor(pipeline.Target{
		Vertex:      gpu.VertexState{Module: clearModule, EntryPoint: shader.TileClearVertex.EntryPoint()},
		DepthFormat: AtlasFormat,
	})

	p.state = compiling
	logger.Named("shadow").Debug("compiling shadow pipelines")
	f.Device.CreateRenderPipelineAsync(depth, p.onCompiled(&p.depth))
	f.Device.CreateRenderPipelineAsync(tileClear, p.onCompiled(&p.tileClear))
	return false
}

func (p *ShadowPass) onCompiled(dst *gpu.RenderPipeline) gpu.PipelineCallback {
	return func(rp gpu.RenderPipeline, err error) {
		if err != nil {
			p.state = failed
			logger.Named("shadow").Error("shadow pipeline failed", zap.Error(err))
			return
		}
		*dst = rp
		p.compiled++
		if p.compiled == 2 && p.state == compiling {
			p.state = ready
			logger.Named("shadow").Debug("shadow pipelines ready")
		}
	}
}

func (p *ShadowPass) fail(f *renderer.Frame, err error) {
	p.state = failed
	f.Fail(fmt.Errorf("shadow: %w", err))
}

// render is the beginRender pre hook.
func (p *ShadowPass) render(f *renderer.Frame) {
	se, err := p.sceneFor(f)
	if err != nil {
		f.Fail(err)
		return
	}
	atlas := f.Scene.ShadowAtlas()
	lights := f.Scene.ShadowLights()
	if atlas == nil || len(lights) == 0 {
		return
	}
	if !p.compile(f) {
		return
	}

	full := !se.cleared || p.invalidated || p.strategy == EveryFrame
	pending := se.pending(f.Scene, lights, p.strategy, p.staged, full)
	if len(pending) == 0 {
		clear(p.staged)
		return
	}

	load := gpu.LoadOpLoad
	if full {
		load = gpu.LoadOpClear
	}
	pass := f.Encoder.BeginRenderPass(gpu.RenderPassDescriptor{
		Label: scene.ShadowPassLabel,
		DepthStencilAttachment: &gpu.RenderPassDepthStencilAttachment{
			View:            atlas.View,
			DepthLoadOp:     load,
			DepthStoreOp:    gpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})

	tile := float32(atlas.TileSize)
	for _, l := range pending {
		slot, _ := f.Scene.ShadowSlot(l)
		x, y := common.AtlasTile(slot, atlas.MapsX, atlas.TileSize)
		pass.SetViewport(float32(x), float32(y), tile, tile, 0, 1)
		if !full {
			pass.SetPipeline(p.tileClear)
			pass.Draw(3, 1, 0, 0)
		}

		if err := l.Update(f.Device); err != nil {
			f.Fail(fmt.Errorf("shadow: updating light %q: %w", l.Object().Name(), err))
			continue
		}
		pass.SetPipeline(p.depth)
		op := scene.NewDrawOperation(f.Device, pass,
			scene.WithScene(f.Scene),
			scene.WithView(l),
			scene.WithVertexState(f.VertexState),
			scene.WithFormats(gpu.TextureFormatUndefined, AtlasFormat),
			scene.WithUseMaterials(false),
			scene.WithLabel(scene.ShadowPassLabel),
			scene.WithFilter(scene.ShadowCasters),
		)
		op.Visit(f.Scene)
		if err := op.Err(); err != nil {
			f.Fail(fmt.Errorf("shadow: %w", err))
		}
		se.rendered[l] = drawn{matrix: l.LightMatrix(), slot: slot}
	}
	pass.End()

	if full {
		se.cleared = true
	}
	p.invalidated = false
	clear(p.staged)
	if f.Stats != nil {
		f.Stats.ShadowPasses += len(pending)
	}
	logger.Named("shadow").Debug("shadow atlas drawn",
		zap.Int("lights", len(pending)),
		zap.Bool("full", full),
		zap.Stringer("strategy", p.strategy))
}

// drawn is what a tile was last drawn with.
type drawn struct {
	matrix mgl32.Mat4
	slot   int
}

// sceneExtension owns the atlas of one scene and what each of its tiles holds.
type sceneExtension struct {
	pass  *ShadowPass
	scene *scene.Scene

	texture gpu.Texture
	view    gpu.TextureView
	sampler gpu.Sampler

	cleared  bool
	rendered map[scene.ShadowLight]drawn
}

var _ scene.SceneExtension = &sceneExtension{}

func (se *sceneExtension) Init(s *scene.Scene) {
	se.scene = s
	se.pass.scenes = append(se.pass.scenes, se)
	se.rendered = map[scene.ShadowLight]drawn{}
	s.Hooks().Pre(scene.EventMount, func(device gpu.Device) {
		if se.texture != nil {
			return
		}
		if err := se.allocate(device); err != nil {
			logger.Named("shadow").Error("shadow atlas unavailable", zap.String("scene", s.Name()), zap.Error(err))
		}
	})
}

// allocate creates the atlas texture sized to the scene's light capacity and publishes it.
func (se *sceneExtension) allocate(device gpu.Device) error {
	mapsX, mapsY := common.AtlasGrid(se.scene.MaxNumLights())
	tile := se.pass.tileSize

	var err error
	if se.texture, err = device.CreateTexture(gpu.TextureDescriptor{
		Label:         se.scene.Name() + "_shadow_atlas",
		Width:         tile * uint32(mapsX),
		Height:        tile * uint32(mapsY),
		Format:        AtlasFormat,
		Usage:         gpu.TextureUsageRenderAttachment | gpu.TextureUsageTextureBinding,
		SampleCount:   1,
		MipLevelCount: 1,
	}); err != nil {
		return fmt.Errorf("shadow: creating atlas: %w", err)
	}
	if se.view, err = se.texture.CreateView(); err != nil {
		se.release()
		return fmt.Errorf("shadow: creating atlas view: %w", err)
	}
	if se.sampler, err = device.CreateSampler(gpu.SamplerDescriptor{
		Label:        se.scene.Name() + "_shadow_atlas_sampler",
		AddressModeU: gpu.AddressModeClampToEdge,
		AddressModeV: gpu.AddressModeClampToEdge,
		AddressModeW: gpu.AddressModeClampToEdge,
		Compare:      gpu.CompareFunctionLess,
	}); err != nil {
		se.release()
		return fmt.Errorf("shadow: creating atlas sampler: %w", err)
	}

	se.cleared = false
	clear(se.rendered)
	logger.Named("shadow").Info("shadow atlas allocated",
		zap.String("scene", se.scene.Name()),
		zap.Int("maps_x", mapsX),
		zap.Int("maps_y", mapsY),
		zap.Uint32("tile_size", tile))
	return se.scene.SetShadowAtlas(device, &scene.ShadowAtlas{
		View:     se.view,
		Sampler:  se.sampler,
		TileSize: tile,
		MapsX:    mapsX,
		MapsY:    mapsY,
	})
}

// pending returns the lights to draw this frame in slot order. Lights that stopped casting are forgotten so they
// are drawn again when they resume.
func (se *sceneExtension) pending(s *scene.Scene, lights []scene.ShadowLight, strategy Strategy,
	staged map[scene.ShadowLight]struct{}, full bool) []scene.ShadowLight {
	var out []scene.ShadowLight
	live := make(map[scene.ShadowLight]struct{}, len(lights))
	for _, l := range lights {
		if !l.Object().CastShadow() {
			continue
		}
		live[l] = struct{}{}
		if full {
			out = append(out, l)
			continue
		}
		switch strategy {
		case WhenDirty:
			slot, _ := s.ShadowSlot(l)
			last, ok := se.rendered[l]
			if !ok || last.slot != slot || last.matrix != l.LightMatrix() {
				out = append(out, l)
			}
		case Manual:
			if _, ok := staged[l]; ok {
				out = append(out, l)
			}
		}
	}
	maps.DeleteFunc(se.rendered, func(l scene.ShadowLight, _ drawn) bool {
		_, ok := live[l]
		return !ok
	})
	return out
}

func (se *sceneExtension) release() {
	for _, r := range []gpu.Releaser{se.sampler, se.view, se.texture} {
		if r != nil {
			r.Release()
		}
	}
	se.texture, se.view, se.sampler = nil, nil, nil
}
