// Package renderer draws a scene through a camera once per frame.
//
// A frame polls the device for finished pipeline compiles, updates the camera and mounts the scene, runs the
// beginRender hooks of every extension around the main pass, then submits and presents inside endRender.
package renderer

import (
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/extension"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/logger"
	"github.com/Carmen-Shannon/oxy-scene/engine/mesh"
	"github.com/Carmen-Shannon/oxy-scene/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"go.uber.org/zap"
)

const (
	// EventBeginRender wraps the main pass. Pre hooks record into the frame encoder before it.
	EventBeginRender extension.Event = "beginRender"
	// EventEndRender wraps submission and presentation.
	EventEndRender extension.Event = "endRender"
)

// MainPassLabel is the label of the main pass draw operation.
const MainPassLabel = "mainPass"

// RendererExtension is a feature module attached to a renderer.
type RendererExtension = extension.Extension[Renderer]

var frameCount atomic.Uint64

// Frame is the context handed to renderer hooks.
type Frame struct {
	Device      gpu.Device
	Encoder     gpu.CommandEncoder
	Camera      scene.Camera
	Scene       *scene.Scene
	VertexState gpu.VertexState
	ColorFormat gpu.TextureFormat
	DepthFormat gpu.TextureFormat
	Stats       *profiler.Frame

	// Err is set by a hook whose work failed. The frame is still submitted.
	Err error
}

// Fail records the first hook error of the frame.
func (f *Frame) Fail(err error) {
	if f.Err == nil {
		f.Err = err
	}
}

// Renderer defines the interface for the rendering system.
//
// The Renderer owns the depth attachment and the shared mesh vertex stage. Feature modules such as shadows
// attach through AddExtension and run from the frame hooks.
type Renderer interface {
	// Render draws s through camera and presents the result.
	//
	// Parameters:
	//   - camera: the camera to draw through
	//   - s: the scene to draw
	//
	// Returns:
	//   - error: an error if a frame resource could not be created or a draw recorded a failure
	Render(camera scene.Camera, s *scene.Scene) error

	// Resize configures the surface and recreates the depth attachment on the next frame.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// AddExtension records ext and calls its Init. Adding the same extension twice is a no-op.
	//
	// Parameters:
	//   - ext: the extension to add
	AddExtension(ext RendererExtension)

	// Extensions returns the added extensions in insertion order.
	Extensions() []RendererExtension

	// Hooks returns the frame hooks extensions register on.
	Hooks() *extension.Hooks[*Frame]

	// VertexState returns the mesh vertex stage, compiling its module on first use.
	//
	// Returns:
	//   - gpu.VertexState: the vertex stage shared by every mesh pipeline
	//   - error: an error if the module could not be created
	VertexState() (gpu.VertexState, error)

	Device() gpu.Device
	Surface() gpu.Surface
	ClearColor() gpu.Color
	DepthFormat() gpu.TextureFormat

	// Release frees the depth attachment and the vertex module.
	Release()
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	device  gpu.Device
	surface gpu.Surface

	clearColor     gpu.Color
	depthFormat    gpu.TextureFormat
	frustumCulling bool
	profiler       *profiler.Profiler

	depth       gpu.Texture
	depthView   gpu.TextureView
	depthStale  bool
	vertexState *gpu.VertexState
	aspect      float32
	// fitted is the camera the current aspect was last applied to.
	fitted scene.Camera

	host  extension.Host[Renderer]
	hooks extension.Hooks[*Frame]
}

var _ Renderer = &renderer{}

// NewRenderer creates a renderer drawing into surface.
//
// Parameters:
//   - device: the device every resource is created on
//   - surface: the presentable target
//   - options: functional options to configure the renderer
//
// Returns:
//   - Renderer: the renderer
func NewRenderer(device gpu.Device, surface gpu.Surface, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		device:      device,
		surface:     surface,
		clearColor:  gpu.Color{R: 1, G: 1, B: 1, A: 1},
		depthFormat: gpu.TextureFormatDepth24PlusStencil8,
		depthStale:  true,
	}
	for _, option := range options {
		option(r)
	}
	w, h := surface.Size()
	r.aspect = aspectOf(w, h)
	return r
}

func (r *renderer) Device() gpu.Device             { return r.device }
func (r *renderer) Surface() gpu.Surface           { return r.surface }
func (r *renderer) ClearColor() gpu.Color          { return r.clearColor }
func (r *renderer) DepthFormat() gpu.TextureFormat { return r.depthFormat }
func (r *renderer) Hooks() *extension.Hooks[*Frame] {
	return &r.hooks
}

func (r *renderer) AddExtension(ext RendererExtension) {
	r.host.Add(r, ext)
	logger.Named("renderer").Debug("extension added", zap.String("extension", extension.Name(ext)))
}

func (r *renderer) Extensions() []RendererExtension {
	return r.host.Extensions()
}

func (r *renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.surface.Configure(uint32(width), uint32(height))
	r.aspect = aspectOf(uint32(width), uint32(height))
	r.depthStale = true
	r.fitted = nil
}

func (r *renderer) VertexState() (gpu.VertexState, error) {
	if r.vertexState != nil {
		return *r.vertexState, nil
	}
	module, err := shader.MeshVertex.CreateModule(r.device, nil)
	if err != nil {
		return gpu.VertexState{}, fmt.Errorf("renderer: mesh vertex module: %w", err)
	}
	r.vertexState = &gpu.VertexState{
		Module:     module,
		EntryPoint: shader.MeshVertex.EntryPoint(),
		Buffers:    []gpu.VertexBufferLayout{gpu.MeshVertexLayout()},
	}
	return *r.vertexState, nil
}

func (r *renderer) Render(camera scene.Camera, s *scene.Scene) error {
	r.device.Poll()

	vs, err := r.VertexState()
	if err != nil {
		return err
	}
	if err := r.ensureDepth(); err != nil {
		return err
	}

	if r.fitted != camera {
		camera.SetAspect(r.aspect)
		r.fitted = camera
	}
	if err := camera.Update(r.device); err != nil {
		return fmt.Errorf("renderer: updating camera: %w", err)
	}
	if err := s.Mount(r.device); err != nil {
		return fmt.Errorf("renderer: mounting scene %q: %w", s.Name(), err)
	}

	encoder, err := r.device.CreateCommandEncoder(fmt.Sprintf("frame_%d", frameCount.Add(1)))
	if err != nil {
		return fmt.Errorf("renderer: command encoder: %w", err)
	}

	var stats profiler.Frame
	frame := &Frame{
		Device:      r.device,
		Encoder:     encoder,
		Camera:      camera,
		Scene:       s,
		VertexState: vs,
		ColorFormat: r.surface.Format(),
		DepthFormat: r.depthFormat,
		Stats:       &stats,
	}

	err = r.hooks.Run(EventBeginRender, frame, func() error {
		return r.mainPass(frame)
	})
	if err == nil {
		err = frame.Err
	}

	submitErr := r.hooks.Run(EventEndRender, frame, func() error {
		cmd, err := encoder.Finish()
		if err != nil {
			return fmt.Errorf("renderer: finishing frame: %w", err)
		}
		r.device.Queue().Submit(cmd)
		r.surface.Present()
		return nil
	})

	if r.profiler != nil {
		r.profiler.Tick(stats)
	}
	if err != nil {
		logger.Named("renderer").Error("frame recorded a failure", zap.String("scene", s.Name()), zap.Error(err))
		return err
	}
	return submitErr
}

func (r *renderer) mainPass(frame *Frame) error {
	view, err := r.surface.CurrentView()
	if err != nil {
		return fmt.Errorf("renderer: acquiring surface view: %w", err)
	}

	var pass gpu.RenderPassEncoder = frame.Encoder.BeginRenderPass(gpu.RenderPassDescriptor{
		Label: MainPassLabel,
		ColorAttachments: []gpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gpu.LoadOpClear,
			StoreOp:    gpu.StoreOpStore,
			ClearValue: r.clearColor,
		}},
		DepthStencilAttachment: &gpu.RenderPassDepthStencilAttachment{
			View:            r.depthView,
			DepthLoadOp:     gpu.LoadOpClear,
			DepthStoreOp:    gpu.StoreOpStore,
			DepthClearValue: 1,
			StencilLoadOp:   gpu.LoadOpClear,
			StencilStoreOp:  gpu.StoreOpDiscard,
		},
	})
	if r.profiler != nil {
		pass = &countingPass{RenderPassEncoder: pass, stats: frame.Stats}
	}

	options := []scene.DrawOperationBuilderOption{
		scene.WithScene(frame.Scene),
		scene.WithView(frame.Camera),
		scene.WithVertexState(frame.VertexState),
		scene.WithFormats(frame.ColorFormat, r.depthFormat),
		scene.WithLabel(MainPassLabel),
	}
	if r.frustumCulling {
		options = append(options, scene.WithFilter(FrustumFilter(frame.Camera)))
	}
	op := scene.NewDrawOperation(r.device, pass, options...)
	op.Visit(frame.Scene)
	pass.End()
	return op.Err()
}

func (r *renderer) ensureDepth() error {
	if !r.depthStale && r.depth != nil {
		return nil
	}
	w, h := r.surface.Size()
	if r.depthView != nil {
		r.depthView.Release()
	}
	if r.depth != nil {
		r.depth.Release()
	}
	r.depth, r.depthView = nil, nil

	tex, err := r.device.CreateTexture(gpu.TextureDescriptor{
		Label:         "depth",
		Width:         common.OrDefault(w, 1),
		Height:        common.OrDefault(h, 1),
		Format:        r.depthFormat,
		Usage:         gpu.TextureUsageRenderAttachment,
		SampleCount:   1,
		MipLevelCount: 1,
	})
	if err != nil {
		return fmt.Errorf("renderer: depth texture: %w", err)
	}
	view, err := tex.CreateView()
	if err != nil {
		tex.Release()
		return fmt.Errorf("renderer: depth view: %w", err)
	}
	r.depth, r.depthView = tex, view
	r.depthStale = false
	logger.Named("renderer").Debug("depth attachment created", zap.Uint32("width", w), zap.Uint32("height", h))
	return nil
}

func (r *renderer) Release() {
	if r.depthView != nil {
		r.depthView.Release()
	}
	if r.depth != nil {
		r.depth.Release()
	}
	if r.vertexState != nil {
		r.vertexState.Module.Release()
	}
	r.depth, r.depthView, r.vertexState = nil, nil, nil
	r.depthStale = true
}

// FrustumFilter accepts nodes whose world bounding sphere intersects the view volume of camera. Nodes without
// bounds are always accepted.
//
// Parameters:
//   - camera: the camera whose frustum is tested
//
// Returns:
//   - scene.Filter: the filter
func FrustumFilter(camera scene.Camera) scene.Filter {
	f := common.ExtractFrustumFromMatrix(camera.ViewProjectionMatrix())
	return func(n scene.Node) bool {
		b, ok := n.(mesh.Bounded)
		if !ok {
			return true
		}
		center, radius := b.WorldBoundingSphere()
		return f.ContainsSphere(center, radius)
	}
}

func aspectOf(w, h uint32) float32 {
	if w == 0 || h == 0 {
		return 1
	}
	return float32(w) / float32(h)
}

// countingPass counts the draw calls recorded into the main pass for the profiler.
type countingPass struct {
	gpu.RenderPassEncoder
	stats *profiler.Frame
}

func (p *countingPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.stats.Draws++
	p.RenderPassEncoder.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *countingPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.stats.Draws++
	p.RenderPassEncoder.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *countingPass) ExecuteBundles(bundles ...gpu.RenderBundle) {
	p.stats.Bundles += len(bundles)
	p.RenderPassEncoder.ExecuteBundles(bundles...)
}
