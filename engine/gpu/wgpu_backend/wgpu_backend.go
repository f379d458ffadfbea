// Package wgpu_backend implements the gpu interfaces on top of wgpu-native.
//
// Asynchronous pipeline compiles validate their WGSL on a worker pool and create the pipeline on the goroutine
// that calls Poll, so completion callbacks always run on the frame loop.
package wgpu_backend

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/logger"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// ErrNoAdapter is returned when no adapter can drive the surface.
var ErrNoAdapter = errors.New("wgpu_backend: no compatible adapter")

// PresentMode selects how frames are synchronized with the display.
type PresentMode int

const (
	// PresentModeUncapped presents immediately and may tear.
	PresentModeUncapped PresentMode = iota
	// PresentModeVSync waits for vertical blank.
	PresentModeVSync
)

type completion struct {
	desc gpu.RenderPipelineDescriptor
	done gpu.PipelineCallback
	err  error
}

// Device is a gpu.Device backed by a wgpu device.
type Device struct {
	device   *wgpu.Device
	queue    *queue
	instance *wgpu.Instance
	adapter  *wgpu.Adapter

	pool    worker.DynamicWorkerPool
	workers int
	nextID  int

	mu       sync.Mutex
	finished []completion

	forceFallbackAdapter bool
	presentMode          PresentMode
	validate             bool
}

var _ gpu.Device = &Device{}

// New creates a device and a surface for the given platform surface.
//
// Parameters:
//   - surfaceDescriptor: the platform surface, usually from the window
//   - width, height: the initial surface size in pixels
//   - options: functional options to configure the backend
//
// Returns:
//   - *Device: the device
//   - *Surface: the configured surface
//   - error: an error if no adapter or device could be obtained
func New(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...BackendBuilderOption) (*Device, *Surface, error) {
	runtime.LockOSThread()

	d := &Device{
		workers:  max(runtime.NumCPU()/2, 1),
		validate: true,
	}
	for _, option := range options {
		option(d)
	}

	d.instance = wgpu.CreateInstance(nil)
	raw := d.instance.CreateSurface(surfaceDescriptor)

	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
		CompatibleSurface:    raw,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}
	d.adapter = a

	// The standard material binds groups 0 to 3; request headroom above the default of four.
	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wgpu_backend: requesting device: %w", err)
	}
	d.device = dev
	d.queue = &queue{q: dev.GetQueue()}
	d.pool = worker.NewDynamicWorkerPool(d.workers, 256, 1*time.Second)

	s := &Surface{surface: raw, adapter: a, device: dev, presentMode: d.presentMode}
	s.Configure(uint32(width), uint32(height))

	logger.Named("wgpu_backend").Info("device ready",
		zap.Int("compile_workers", d.workers),
		zap.String("surface_format", s.Format().String()))
	return d, s, nil
}

func (d *Device) Queue() gpu.Queue { return d.queue }

func (d *Device) CreateBuffer(desc gpu.BufferDescriptor) (gpu.Buffer, error) {
	usage := bufferUsage(desc.Usage)
	var (
		b   *wgpu.Buffer
		err error
	)
	if desc.Contents != nil {
		b, err = d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    desc.Label,
			Contents: desc.Contents,
			Usage:    usage,
		})
	} else {
		b, err = d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: desc.Label,
			Size:  desc.Size,
			Usage: usage,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("wgpu_backend: buffer %q: %w", desc.Label, err)
	}
	size := desc.Size
	if desc.Contents != nil {
		size = uint64(len(desc.Contents))
	}
	return &buffer{b: b, label: desc.Label, size: size}, nil
}

func (d *Device) CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	t, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     desc.Label,
		Usage:     textureUsage(desc.Usage),
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        textureFormat(desc.Format),
		MipLevelCount: common.OrDefault(desc.MipLevelCount, 1),
		SampleCount:   common.OrDefault(desc.SampleCount, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu_backend: texture %q: %w", desc.Label, err)
	}
	return &texture{t: t, desc: desc, format: desc.Format}, nil
}

func (d *Device) CreateSampler(desc gpu.SamplerDescriptor) (gpu.Sampler, error) {
	s, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  addressMode(desc.AddressModeU),
		AddressModeV:  addressMode(desc.AddressModeV),
		AddressModeW:  addressMode(desc.AddressModeW),
		MagFilter:     filterMode(desc.MagFilter),
		MinFilter:     filterMode(desc.MinFilter),
		MipmapFilter:  mipmapFilterMode(desc.MipmapFilter),
		LodMinClamp:   desc.LodMinClamp,
		LodMaxClamp:   common.OrDefault(desc.LodMaxClamp, 32.0),
		MaxAnisotropy: common.OrDefault(desc.MaxAnisotropy, 1),
		Compare:       compareFunction(desc.Compare),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu_backend: sampler %q: %w", desc.Label, err)
	}
	return &sampler{s: s}, nil
}

func (d *Device) CreateBindGroupLayout(desc gpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Visibility: shaderStage(e.Visibility),
		}
		switch {
		case e.Texture.SampleType != gpu.TextureSampleTypeUndefined:
			entry.Texture = wgpu.TextureBindingLayout{
				SampleType:    textureSampleType(e.Texture.SampleType),
				ViewDimension: wgpu.TextureViewDimension2D,
			}
		case e.Sampler.Type != gpu.SamplerBindingTypeUndefined:
			entry.Sampler = wgpu.SamplerBindingLayout{Type: samplerBindingType(e.Sampler.Type)}
		default:
			entry.Buffer = wgpu.BufferBindingLayout{
				Type:           bufferBindingType(e.Buffer.Type),
				MinBindingSize: e.Buffer.MinBindingSize,
			}
		}
		entries[i] = entry
	}
	l, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{Label: desc.Label, Entries: entries})
	if err != nil {
		return nil, fmt.Errorf("wgpu_backend: bind group layout %q: %w", desc.Label, err)
	}
	return &bindGroupLayout{l: l}, nil
}

func (d *Device) CreateBindGroup(desc gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.TextureView != nil:
			entry.TextureView = rawView(e.TextureView)
		case e.Sampler != nil:
			entry.Sampler = rawSampler(e.Sampler)
		default:
			entry.Buffer = rawBuffer(e.Buffer)
			entry.Offset = e.Offset
			entry.Size = common.OrDefault(e.Size, wgpu.WholeSize)
		}
		entries[i] = entry
	}
	g, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  desc.Layout.(*bindGroupLayout).l,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu_backend: bind group %q: %w", desc.Label, err)
	}
	return &bindGroup{g: g}, nil
}

func (d *Device) CreateShaderModule(desc gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	m, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.Code},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu_backend: shader module %q: %w", desc.Label, err)
	}
	return &shaderModule{m: m, code: desc.Code}, nil
}

func (d *Device) CreateRenderPipeline(desc gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	layouts := make([]*wgpu.BindGroupLayout, len(desc.BindGroupLayouts))
	for i, l := range desc.BindGroupLayouts {
		layouts[i] = l.(*bindGroupLayout).l
	}
	layout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu_backend: pipeline layout %q: %w", desc.Label, err)
	}

	raw := &wgpu.RenderPipelineDescriptor{
		Label:  desc.Label + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     rawModule(desc.Vertex.Module),
			EntryPoint: desc.Vertex.EntryPoint,
			Buffers:    vertexBuffers(desc.Vertex.Buffers),
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology(desc.Primitive.Topology),
			FrontFace: frontFace(desc.Primitive.FrontFace),
			CullMode:  cullMode(desc.Primitive.CullMode),
		},
		Multisample: wgpu.MultisampleState{
			Count: common.OrDefault(desc.SampleCount, 1),
			Mask:  0xFFFFFFFF,
		},
	}
	if f := desc.Fragment; f != nil {
		targets := make([]wgpu.ColorTargetState, len(f.Targets))
		for i, t := range f.Targets {
			targets[i] = wgpu.ColorTargetState{
				Format:    textureFormat(t.Format),
				Blend:     blendState(t.Blend),
				WriteMask: wgpu.ColorWriteMask(t.WriteMask),
			}
		}
		raw.Fragment = &wgpu.FragmentState{
			Module:     rawModule(f.Module),
			EntryPoint: f.EntryPoint,
			Targets:    targets,
		}
	}
	if ds := desc.DepthStencil; ds != nil {
		raw.DepthStencil = &wgpu.DepthStencilState{
			Format:              textureFormat(ds.Format),
			DepthWriteEnabled:   ds.DepthWriteEnabled,
			DepthCompare:        compareFunction(ds.DepthCompare),
			DepthBias:           ds.DepthBias,
			DepthBiasSlopeScale: ds.DepthBiasSlopeScale,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	p, err := d.device.CreateRenderPipeline(raw)
	if err != nil {
		layout.Release()
		return nil, fmt.Errorf("wgpu_backend: render pipeline %q: %w", desc.Label, err)
	}
	return &renderPipeline{p: p, layout: layout, label: desc.Label}, nil
}

// CreateRenderPipelineAsync validates the stage sources on the compile pool. The pipeline itself is created
// and handed to done by the Poll call that finds the validation finished.
func (d *Device) CreateRenderPipelineAsync(desc gpu.RenderPipelineDescriptor, done gpu.PipelineCallback) {
	d.nextID++
	d.pool.SubmitTask(worker.Task{
		ID: d.nextID,
		Do: func() (any, error) {
			err := d.validateStages(desc)
			d.mu.Lock()
			d.finished = append(d.finished, completion{desc: desc, done: done, err: err})
			d.mu.Unlock()
			return nil, err
		},
	})
}

func (d *Device) validateStages(desc gpu.RenderPipelineDescriptor) error {
	if !d.validate {
		return nil
	}
	modules := []gpu.ShaderModule{desc.Vertex.Module}
	if desc.Fragment != nil {
		modules = append(modules, desc.Fragment.Module)
	}
	for _, m := range modules {
		sm, ok := m.(*shaderModule)
		if !ok {
			continue
		}
		if err := shader.Validate(sm.code); err != nil {
			if shader.IsUnsupported(err) {
				logger.Named("wgpu_backend").Debug("skipping validation of unsupported shader feature",
					zap.String("pipeline", desc.Label), zap.Error(err))
				continue
			}
			return fmt.Errorf("wgpu_backend: pipeline %q: %w", desc.Label, err)
		}
	}
	return nil
}

func (d *Device) Poll() int {
	d.device.Poll(false, nil)

	d.mu.Lock()
	ready := d.finished
	d.finished = nil
	d.mu.Unlock()

	for _, c := range ready {
		if c.err != nil {
			c.done(nil, c.err)
			continue
		}
		c.done(d.CreateRenderPipeline(c.desc))
	}
	return len(ready)
}

func (d *Device) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	enc, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("wgpu_backend: command encoder %q: %w", label, err)
	}
	return &commandEncoder{enc: enc, label: label}, nil
}

func (d *Device) CreateRenderBundleEncoder(desc gpu.RenderBundleEncoderDescriptor) (gpu.RenderBundleEncoder, error) {
	formats := make([]wgpu.TextureFormat, len(desc.ColorFormats))
	for i, f := range desc.ColorFormats {
		formats[i] = textureFormat(f)
	}
	enc, err := d.device.CreateRenderBundleEncoder(&wgpu.RenderBundleEncoderDescriptor{
		Label:              desc.Label,
		ColorFormats:       formats,
		DepthStencilFormat: textureFormat(desc.DepthStencilFormat),
		SampleCount:        common.OrDefault(desc.SampleCount, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu_backend: bundle encoder %q: %w", desc.Label, err)
	}
	return &bundleEncoder{enc: enc, label: desc.Label}, nil
}

// Release frees the device and its instance.
func (d *Device) Release() {
	d.queue.q.Release()
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
}

type queue struct {
	q *wgpu.Queue
}

func (q *queue) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) {
	q.q.WriteBuffer(rawBuffer(buf), offset, data)
}

func (q *queue) WriteTexture(write gpu.TextureWrite) {
	q.q.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  write.Texture.(*texture).t,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		write.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  write.Width * 4,
			RowsPerImage: write.Height,
		},
		&wgpu.Extent3D{
			Width:              write.Width,
			Height:             write.Height,
			DepthOrArrayLayers: 1,
		},
	)
}

func (q *queue) Submit(buffers ...gpu.CommandBuffer) {
	raw := make([]*wgpu.CommandBuffer, len(buffers))
	for i, b := range buffers {
		raw[i] = b.(*commandBuffer).c
	}
	q.q.Submit(raw...)
	for _, b := range raw {
		b.Release()
	}
}
