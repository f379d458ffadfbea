package wgpu_backend

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

type renderPass struct {
	pass *wgpu.RenderPassEncoder
}

var _ gpu.RenderPassEncoder = &renderPass{}

func (p *renderPass) SetPipeline(pl gpu.RenderPipeline) {
	p.pass.SetPipeline(pl.(*renderPipeline).p)
}

func (p *renderPass) SetBindGroup(index uint32, g gpu.BindGroup) {
	p.pass.SetBindGroup(index, g.(*bindGroup).g, nil)
}

func (p *renderPass) SetVertexBuffer(slot uint32, buf gpu.Buffer) {
	p.pass.SetVertexBuffer(slot, rawBuffer(buf), 0, wgpu.WholeSize)
}

func (p *renderPass) SetIndexBuffer(buf gpu.Buffer, format gpu.IndexFormat) {
	p.pass.SetIndexBuffer(rawBuffer(buf), indexFormat(format), 0, wgpu.WholeSize)
}

func (p *renderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *renderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *renderPass) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	p.pass.SetViewport(x, y, width, height, minDepth, maxDepth)
}

func (p *renderPass) ExecuteBundles(bundles ...gpu.RenderBundle) {
	raw := make([]*wgpu.RenderBundle, len(bundles))
	for i, b := range bundles {
		raw[i] = b.(*renderBundle).b
	}
	p.pass.ExecuteBundles(raw...)
}

func (p *renderPass) End() {
	p.pass.End()
	p.pass.Release()
}

type bundleEncoder struct {
	enc   *wgpu.RenderBundleEncoder
	label string
}

var _ gpu.RenderBundleEncoder = &bundleEncoder{}

func (e *bundleEncoder) SetPipeline(pl gpu.RenderPipeline) {
	e.enc.SetPipeline(pl.(*renderPipeline).p)
}

func (e *bundleEncoder) SetBindGroup(index uint32, g gpu.BindGroup) {
	e.enc.SetBindGroup(index, g.(*bindGroup).g, nil)
}

func (e *bundleEncoder) SetVertexBuffer(slot uint32, buf gpu.Buffer) {
	e.enc.SetVertexBuffer(slot, rawBuffer(buf), 0, wgpu.WholeSize)
}

func (e *bundleEncoder) SetIndexBuffer(buf gpu.Buffer, format gpu.IndexFormat) {
	e.enc.SetIndexBuffer(rawBuffer(buf), indexFormat(format), 0, wgpu.WholeSize)
}

func (e *bundleEncoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	e.enc.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (e *bundleEncoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	e.enc.DrawIndexed(indexCount, instanceCount, firstIndex, uint32(baseVertex), firstInstance)
}

func (e *bundleEncoder) Finish() (gpu.RenderBundle, error) {
	b := e.enc.Finish(&wgpu.RenderBundleDescriptor{Label: e.label})
	e.enc.Release()
	return &renderBundle{b: b}, nil
}

type commandEncoder struct {
	enc   *wgpu.CommandEncoder
	label string
}

var _ gpu.CommandEncoder = &commandEncoder{}

func (e *commandEncoder) BeginRenderPass(desc gpu.RenderPassDescriptor) gpu.RenderPassEncoder {
	colors := make([]wgpu.RenderPassColorAttachment, len(desc.ColorAttachments))
	for i, c := range desc.ColorAttachments {
		colors[i] = wgpu.RenderPassColorAttachment{
			View:       rawView(c.View),
			LoadOp:     loadOp(c.LoadOp),
			StoreOp:    storeOp(c.StoreOp),
			ClearValue: wgpu.Color{R: c.ClearValue.R, G: c.ClearValue.G, B: c.ClearValue.B, A: c.ClearValue.A},
		}
	}

	raw := &wgpu.RenderPassDescriptor{
		Label:            desc.Label,
		ColorAttachments: colors,
	}
	if d := desc.DepthStencilAttachment; d != nil {
		att := &wgpu.RenderPassDepthStencilAttachment{
			View:            rawView(d.View),
			DepthLoadOp:     loadOp(d.DepthLoadOp),
			DepthStoreOp:    storeOp(d.DepthStoreOp),
			DepthClearValue: d.DepthClearValue,
		}
		// Stencil ops must stay undefined for formats without a stencil aspect.
		if tv, ok := d.View.(*textureView); ok && tv.stencil {
			att.StencilLoadOp = loadOp(d.StencilLoadOp)
			att.StencilStoreOp = storeOp(d.StencilStoreOp)
		}
		raw.DepthStencilAttachment = att
	}

	return &renderPass{pass: e.enc.BeginRenderPass(raw)}
}

func (e *commandEncoder) Finish() (gpu.CommandBuffer, error) {
	cmd, err := e.enc.Finish(&wgpu.CommandBufferDescriptor{Label: e.label})
	e.enc.Release()
	if err != nil {
		return nil, fmt.Errorf("wgpu_backend: finishing %q: %w", e.label, err)
	}
	return &commandBuffer{c: cmd}, nil
}
