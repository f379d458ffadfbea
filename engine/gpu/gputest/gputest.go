// Package gputest provides an in-memory gpu.Device that records every call made against it.
//
// Buffers keep a CPU copy of their contents so tests can decode what was uploaded, queue writes are counted
// per buffer, render passes and bundles keep their command streams, and asynchronous pipeline compiles stay
// pending until the test calls CompletePipelines or FailPipelines.
package gputest

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
)

// Op names a recorded encoder command.
type Op string

const (
	OpSetPipeline     Op = "setPipeline"
	OpSetBindGroup    Op = "setBindGroup"
	OpSetVertexBuffer Op = "setVertexBuffer"
	OpSetIndexBuffer  Op = "setIndexBuffer"
	OpDraw            Op = "draw"
	OpDrawIndexed     Op = "drawIndexed"
	OpSetViewport     Op = "setViewport"
	OpExecuteBundles  Op = "executeBundles"
)

// ErrInjected is returned by creation calls after FailCreate has been armed.
var ErrInjected = errors.New("gputest: injected failure")

// Command is one recorded encoder call.
type Command struct {
	Op         Op
	Index      uint32
	Pipeline   gpu.RenderPipeline
	BindGroup  gpu.BindGroup
	Buffer     gpu.Buffer
	Count      uint32
	Instances  uint32
	FirstIndex uint32
	Viewport   [6]float32
	Bundles    []gpu.RenderBundle
}

// Buffer is a recorded buffer allocation.
type Buffer struct {
	Desc     gpu.BufferDescriptor
	Data     []byte
	Writes   int
	Released bool
}

func (b *Buffer) Label() string { return b.Desc.Label }
func (b *Buffer) Size() uint64 { return b.Desc.Size }
func (b *Buffer) Release() { b.Released = true }

// Texture is a recorded texture allocation.
type Texture struct {
	Desc     gpu.TextureDescriptor
	Pixels   []byte
	Released bool
}

func (t *Texture) Release() { t.Released = true }
func (t *Texture) Width() uint32 { return t.Desc.Width }
func (t *Texture) Height() uint32 { return t.Desc.Height }
func (t *Texture) Format() gpu.TextureFormat { return t.Desc.Format }
func (t *Texture) CreateView() (gpu.TextureView, error) {
	return &TextureView{Texture: t}, nil
}

// TextureView is a view onto a recorded Texture.
type TextureView struct {
	Texture  *Texture
	Released bool
}

func (v *TextureView) Release() { v.Released = true }

// Sampler is a recorded sampler.
type Sampler struct {
	Desc     gpu.SamplerDescriptor
	Released bool
}

func (s *Sampler) Release() { s.Released = true }

// BindGroupLayout is a recorded bind group layout.
type BindGroupLayout struct {
	Desc     gpu.BindGroupLayoutDescriptor
	Released bool
}

func (l *BindGroupLayout) Release() { l.Released = true }

// BindGroup is a recorded bind group.
type BindGroup struct {
	Desc     gpu.BindGroupDescriptor
	Released bool
}

func (g *BindGroup) Release() { g.Released = true }

// ShaderModule is a recorded shader module.
type ShaderModule struct {
	Desc     gpu.ShaderModuleDescriptor
	Released bool
}

func (m *ShaderModule) Release() { m.Released = true }

// RenderPipeline is a recorded pipeline.
type RenderPipeline struct {
	Desc     gpu.RenderPipelineDescriptor
	Released bool
}

func (p *RenderPipeline) Label() string { return p.Desc.Label }
func (p *RenderPipeline) Release() { p.Released = true }

// RenderBundle is a finished bundle with the commands it replays.
type RenderBundle struct {
	Desc     gpu.RenderBundleEncoderDescriptor
	Commands []Command
	Released bool
}

func (b *RenderBundle) Release() { b.Released = true }

// Count returns how many recorded commands have the given op.
func (b *RenderBundle) Count(op Op) int {
	return count(b.Commands, op)
}

// CommandBuffer is a finished command list.
type CommandBuffer struct {
	Label    string
	Passes   []*RenderPass
	Released bool
}

func (c *CommandBuffer) Release() { c.Released = true }

// Count returns how many commands with the given op were recorded directly into the passes of this buffer.
// Commands replayed from bundles are not included.
func (c *CommandBuffer) Count(op Op) int {
	n := 0
	for _, p := range c.Passes {
		n += p.Count(op)
	}
	return n
}

// recorder implements gpu.RenderEncoder by appending to a command list.
type recorder struct {
	Commands []Command
}

func (r *recorder) SetPipeline(p gpu.RenderPipeline) {
	r.Commands = append(r.Commands, Command{Op: OpSetPipeline, Pipeline: p})
}

func (r *recorder) SetBindGroup(index uint32, g gpu.BindGroup) {
	r.Commands = append(r.Commands, Command{Op: OpSetBindGroup, Index: index, BindGroup: g})
}

func (r *recorder) SetVertexBuffer(slot uint32, buf gpu.Buffer) {
	r.Commands = append(r.Commands, Command{Op: OpSetVertexBuffer, Index: slot, Buffer: buf})
}

func (r *recorder) SetIndexBuffer(buf gpu.Buffer, _ gpu.IndexFormat) {
	r.Commands = append(r.Commands, Command{Op: OpSetIndexBuffer, Buffer: buf})
}

func (r *recorder) Draw(vertexCount, instanceCount, firstVertex, _ uint32) {
	r.Commands = append(r.Commands, Command{Op: OpDraw, Count: vertexCount, Instances: instanceCount, FirstIndex: firstVertex})
}

func (r *recorder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, _ int32, _ uint32) {
	r.Commands = append(r.Commands, Command{Op: OpDrawIndexed, Count: indexCount, Instances: instanceCount, FirstIndex: firstIndex})
}

// Count returns how many recorded commands have the given op.
func (r *recorder) Count(op Op) int {
	return count(r.Commands, op)
}

// Filter returns the recorded commands with the given op, in order.
func (r *recorder) Filter(op Op) []Command {
	var out []Command
	for _, c := range r.Commands {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// RenderPass is a recorded render pass.
type RenderPass struct {
	recorder
	Desc  gpu.RenderPassDescriptor
	Ended bool
}

func (p *RenderPass) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	p.Commands = append(p.Commands, Command{Op: OpSetViewport, Viewport: [6]float32{x, y, width, height, minDepth, maxDepth}})
}

func (p *RenderPass) ExecuteBundles(bundles ...gpu.RenderBundle) {
	p.Commands = append(p.Commands, Command{Op: OpExecuteBundles, Bundles: bundles})
}

func (p *RenderPass) End() { p.Ended = true }

// BundleEncoder records a RenderBundle.
type BundleEncoder struct {
	recorder
	Desc   gpu.RenderBundleEncoderDescriptor
	device *Device
}

func (e *BundleEncoder) Finish() (gpu.RenderBundle, error) {
	b := &RenderBundle{Desc: e.Desc, Commands: e.Commands}
	e.device.mu.Lock()
	e.device.Bundles = append(e.device.Bundles, b)
	e.device.mu.Unlock()
	return b, nil
}

// CommandEncoder records passes.
type CommandEncoder struct {
	Label  string
	Passes []*RenderPass
}

func (e *CommandEncoder) BeginRenderPass(desc gpu.RenderPassDescriptor) gpu.RenderPassEncoder {
	p := &RenderPass{Desc: desc}
	e.Passes = append(e.Passes, p)
	return p
}

func (e *CommandEncoder) Finish() (gpu.CommandBuffer, error) {
	return &CommandBuffer{Label: e.Label, Passes: e.Passes}, nil
}

func count(cmds []Command, op Op) int {
	n := 0
	for _, c := range cmds {
		if c.Op == op {
			n++
		}
	}
	return n
}
