package gputest

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
)

// BufferWrite is one recorded queue write.
type BufferWrite struct {
	Buffer *Buffer
	Offset uint64
	Data   []byte
}

// Queue records writes and submissions.
type Queue struct {
	mu            sync.Mutex
	Writes        []BufferWrite
	TextureWrites []gpu.TextureWrite
	Submitted     []*CommandBuffer
}

func (q *Queue) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()

	b := buf.(*Buffer)
	end := offset + uint64(len(data))
	if uint64(len(b.Data)) < end {
		grown := make([]byte, end)
		copy(grown, b.Data)
		b.Data = grown
	}
	copy(b.Data[offset:], data)
	b.Writes++

	cp := make([]byte, len(data))
	copy(cp, data)
	q.Writes = append(q.Writes, BufferWrite{Buffer: b, Offset: offset, Data: cp})
}

func (q *Queue) WriteTexture(write gpu.TextureWrite) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if t, ok := write.Texture.(*Texture); ok {
		t.Pixels = append([]byte(nil), write.Pixels...)
	}
	q.TextureWrites = append(q.TextureWrites, write)
}

func (q *Queue) Submit(buffers ...gpu.CommandBuffer) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, b := range buffers {
		q.Submitted = append(q.Submitted, b.(*CommandBuffer))
	}
}

// WriteCount returns the total number of buffer writes recorded so far.
func (q *Queue) WriteCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.Writes)
}

// WritesTo returns the number of writes that targeted buf.
func (q *Queue) WritesTo(buf gpu.Buffer) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, w := range q.Writes {
		if gpu.Buffer(w.Buffer) == buf {
			n++
		}
	}
	return n
}

// Last returns the most recently submitted command buffer, or nil.
func (q *Queue) Last() *CommandBuffer {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.Submitted) == 0 {
		return nil
	}
	return q.Submitted[len(q.Submitted)-1]
}

type pendingPipeline struct {
	desc gpu.RenderPipelineDescriptor
	done gpu.PipelineCallback
}

// Device is a recording gpu.Device.
type Device struct {
	mu sync.Mutex

	Buffers         []*Buffer
	Textures        []*Texture
	Samplers        []*Sampler
	Layouts         []*BindGroupLayout
	BindGroups      []*BindGroup
	Modules         []*ShaderModule
	Pipelines       []*RenderPipeline
	Encoders        []*CommandEncoder
	BundleEncoders  []*BundleEncoder
	Bundles         []*RenderBundle
	AsyncRequests   int
	SyncPipelines   int
	CompletedPolled int

	pending   []pendingPipeline
	completed []func()
	failNext  bool

	queue *Queue
}

var _ gpu.Device = &Device{}

// NewDevice creates an empty recording device.
//
// Returns:
//   - *Device: the device
func NewDevice() *Device {
	return &Device{queue: &Queue{}}
}

// RecordingQueue returns the concrete queue for assertions.
func (d *Device) RecordingQueue() *Queue {
	return d.queue
}

// FailCreate makes the next resource creation call return ErrInjected.
func (d *Device) FailCreate() {
	d.mu.Lock()
	d.failNext = true
	d.mu.Unlock()
}

func (d *Device) injected() bool {
	if d.failNext {
		d.failNext = false
		return true
	}
	return false
}

func (d *Device) CreateBuffer(desc gpu.BufferDescriptor) (gpu.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.injected() {
		return nil, ErrInjected
	}
	b := &Buffer{Desc: desc, Data: make([]byte, desc.Size)}
	copy(b.Data, desc.Contents)
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

func (d *Device) CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.injected() {
		return nil, ErrInjected
	}
	t := &Texture{Desc: desc}
	d.Textures = append(d.Textures, t)
	return t, nil
}

func (d *Device) CreateSampler(desc gpu.SamplerDescriptor) (gpu.Sampler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := &Sampler{Desc: desc}
	d.Samplers = append(d.Samplers, s)
	return s, nil
}

func (d *Device) CreateBindGroupLayout(desc gpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	l := &BindGroupLayout{Desc: desc}
	d.Layouts = append(d.Layouts, l)
	return l, nil
}

func (d *Device) CreateBindGroup(desc gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.injected() {
		return nil, ErrInjected
	}
	g := &BindGroup{Desc: desc}
	d.BindGroups = append(d.BindGroups, g)
	return g, nil
}

func (d *Device) CreateShaderModule(desc gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	m := &ShaderModule{Desc: desc}
	d.Modules = append(d.Modules, m)
	return m, nil
}

func (d *Device) CreateRenderPipeline(desc gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.SyncPipelines++
	p := &RenderPipeline{Desc: desc}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

func (d *Device) CreateRenderPipelineAsync(desc gpu.RenderPipelineDescriptor, done gpu.PipelineCallback) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.AsyncRequests++
	d.pending = append(d.pending, pendingPipeline{desc: desc, done: done})
}

// PendingPipelines returns the number of asynchronous compiles still in flight.
func (d *Device) PendingPipelines() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// CompletePipelines finishes every in-flight compile. Callbacks run on the next Poll.
//
// Returns:
//   - int: the number of compiles completed
func (d *Device) CompletePipelines() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.pending)
	for _, pp := range d.pending {
		p := &RenderPipeline{Desc: pp.desc}
		d.Pipelines = append(d.Pipelines, p)
		done := pp.done
		d.completed = append(d.completed, func() { done(p, nil) })
	}
	d.pending = nil
	return n
}

// FailPipelines fails every in-flight compile with err. Callbacks run on the next Poll.
func (d *Device) FailPipelines(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, pp := range d.pending {
		done := pp.done
		d.completed = append(d.completed, func() { done(nil, err) })
	}
	d.pending = nil
}

func (d *Device) Poll() int {
	d.mu.Lock()
	ready := d.completed
	d.completed = nil
	d.mu.Unlock()

	for _, fn := range ready {
		fn()
	}
	d.mu.Lock()
	d.CompletedPolled += len(ready)
	d.mu.Unlock()
	return len(ready)
}

func (d *Device) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e := &CommandEncoder{Label: label}
	d.Encoders = append(d.Encoders, e)
	return e, nil
}

func (d *Device) CreateRenderBundleEncoder(desc gpu.RenderBundleEncoderDescriptor) (gpu.RenderBundleEncoder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e := &BundleEncoder{Desc: desc, device: d}
	d.BundleEncoders = append(d.BundleEncoders, e)
	return e, nil
}

func (d *Device) Queue() gpu.Queue {
	return d.queue
}

// Surface is a fixed-size presentable target.
type Surface struct {
	Width, Height uint32
	Fmt           gpu.TextureFormat
	Presents      int
	Acquired      int
}

var _ gpu.Surface = &Surface{}

// NewSurface creates a bgra8unorm surface of the given size.
func NewSurface(width, height uint32) *Surface {
	return &Surface{Width: width, Height: height, Fmt: gpu.TextureFormatBGRA8Unorm}
}

func (s *Surface) CurrentView() (gpu.TextureView, error) {
	s.Acquired++
	t := &Texture{Desc: gpu.TextureDescriptor{Label: "surface", Width: s.Width, Height: s.Height, Format: s.Fmt}}
	return &TextureView{Texture: t}, nil
}

func (s *Surface) Present() { s.Presents++ }
func (s *Surface) Format() gpu.TextureFormat { return s.Fmt }
func (s *Surface) Size() (uint32, uint32) { return s.Width, s.Height }
func (s *Surface) Configure(width, height uint32) { s.Width, s.Height = width, height }
