package wgpu_backend

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

type buffer struct {
	b     *wgpu.Buffer
	label string
	size  uint64
}

func (b *buffer) Label() string { return b.label }
func (b *buffer) Size() uint64  { return b.size }
func (b *buffer) Release()      { b.b.Release() }

type texture struct {
	t      *wgpu.Texture
	desc   gpu.TextureDescriptor
	format gpu.TextureFormat
}

func (t *texture) Width() uint32             { return t.desc.Width }
func (t *texture) Height() uint32            { return t.desc.Height }
func (t *texture) Format() gpu.TextureFormat { return t.format }
func (t *texture) Release()                  { t.t.Release() }

func (t *texture) CreateView() (gpu.TextureView, error) {
	v, err := t.t.CreateView(nil)
	if err != nil {
		return nil, err
	}
	return &textureView{v: v, stencil: t.format.HasStencil()}, nil
}

type textureView struct {
	v *wgpu.TextureView
	// owned is the surface texture released together with its view.
	owned   *wgpu.Texture
	stencil bool
}

func (v *textureView) Release() {
	v.v.Release()
	if v.owned != nil {
		v.owned.Release()
	}
}

type sampler struct{ s *wgpu.Sampler }

func (s *sampler) Release() { s.s.Release() }

type bindGroupLayout struct{ l *wgpu.BindGroupLayout }

func (l *bindGroupLayout) Release() { l.l.Release() }

type bindGroup struct{ g *wgpu.BindGroup }

func (g *bindGroup) Release() { g.g.Release() }

type shaderModule struct {
	m    *wgpu.ShaderModule
	code string
}

func (m *shaderModule) Release() { m.m.Release() }

type renderPipeline struct {
	p      *wgpu.RenderPipeline
	layout *wgpu.PipelineLayout
	label  string
}

func (p *renderPipeline) Label() string { return p.label }
func (p *renderPipeline) Release() {
	p.p.Release()
	p.layout.Release()
}

type renderBundle struct{ b *wgpu.RenderBundle }

func (b *renderBundle) Release() { b.b.Release() }

type commandBuffer struct{ c *wgpu.CommandBuffer }

func (c *commandBuffer) Release() { c.c.Release() }

// unwrap helpers accept nil so optional bindings pass through.

func rawBuffer(b gpu.Buffer) *wgpu.Buffer {
	if b == nil {
		return nil
	}
	return b.(*buffer).b
}

func rawView(v gpu.TextureView) *wgpu.TextureView {
	if v == nil {
		return nil
	}
	return v.(*textureView).v
}

func rawSampler(s gpu.Sampler) *wgpu.Sampler {
	if s == nil {
		return nil
	}
	return s.(*sampler).s
}

func rawModule(m gpu.ShaderModule) *wgpu.ShaderModule {
	if m == nil {
		return nil
	}
	return m.(*shaderModule).m
}
