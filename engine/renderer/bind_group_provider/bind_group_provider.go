package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// bindGroup is the GPU bind group created by Init, or nil before it.
	bindGroup gpu.BindGroup
	// bindGroupLayout is the shared layout the bind group was created against. It is not owned by the provider.
	bindGroupLayout gpu.BindGroupLayout
	// buffers holds the GPU buffers created for this provider, keyed by binding index.
	buffers map[int]gpu.Buffer
	// ownedBuffers marks the buffers the provider allocated itself and must release.
	ownedBuffers map[int]bool
	// textureViews holds the GPU texture views bound by this provider, keyed by binding index.
	textureViews map[int]gpu.TextureView
	// samplers holds the GPU samplers bound by this provider, keyed by binding index.
	samplers map[int]gpu.Sampler
	// sizes overrides the allocation size of buffer bindings, keyed by binding index.
	sizes map[int]uint64
}

// BindGroupProvider owns the GPU resources behind one bind group.
//
// Entities that bind data to shaders (transforms, cameras, shadow lights, the scene light buffer, textured
// materials) hold a provider. The provider is created empty and cheap; GPU resources are only allocated by Init,
// which the owning entity calls lazily the first time it is drawn.
//
// Usage pattern:
//  1. Entity creates a BindGroupProvider with a label and optional buffer size overrides
//  2. Entity stores externally owned texture views and samplers via SetTextureView/SetSampler
//  3. On first use the entity calls Init with the shared layout and its entries
//  4. Each frame the entity calls Write for dirty uniforms
//  5. Draw code binds BindGroup()
type BindGroupProvider interface {
	// Release releases the bind group and every buffer the provider allocated.
	// Texture views and samplers are owned by their creators and are only forgotten.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Initialized reports whether Init has created the bind group.
	//
	// Returns:
	//   - bool: true once the bind group exists
	Initialized() bool

	// Init allocates a buffer for every buffer entry that has not been supplied already, then creates the bind
	// group. Calling Init again after success is a no-op.
	//
	// Parameters:
	//   - device: the device to allocate on
	//   - layout: the shared layout to create the bind group against
	//   - entries: the entries the layout was created from
	//
	// Returns:
	//   - error: an error if a buffer or the bind group could not be created
	Init(device gpu.Device, layout gpu.BindGroupLayout, entries []gpu.BindGroupLayoutEntry) error

	// Write uploads data into the buffer at binding.
	//
	// Parameters:
	//   - queue: the queue to write through
	//   - binding: the binding index of the target buffer
	//   - offset: the byte offset into the buffer
	//   - data: the bytes to write
	//
	// Returns:
	//   - error: an error if no buffer exists at binding
	Write(queue gpu.Queue, binding int, offset uint64, data []byte) error

	// BindGroup returns the created bind group for shader binding.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - gpu.BindGroup: the bind group or nil
	BindGroup() gpu.BindGroup

	// BindGroupLayout returns the layout the bind group was created against.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - gpu.BindGroupLayout: the bind group layout or nil
	BindGroupLayout() gpu.BindGroupLayout

	// Buffer returns the buffer at binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - gpu.Buffer: the buffer or nil
	Buffer(binding int) gpu.Buffer

	// TextureView returns the texture view at binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - gpu.TextureView: the texture view or nil
	TextureView(binding int) gpu.TextureView

	// Sampler returns the sampler at binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - gpu.Sampler: the sampler or nil
	Sampler(binding int) gpu.Sampler

	// SetBuffer supplies an externally owned buffer for a binding. It must be called before Init.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer to bind
	SetBuffer(binding int, buf gpu.Buffer)

	// SetTextureView supplies the texture view for a binding. It must be called before Init.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tv: the texture view to bind
	SetTextureView(binding int, tv gpu.TextureView)

	// SetSampler supplies the sampler for a binding. It must be called before Init.
	//
	// Parameters:
	//   - binding: the binding index
	//   - s: the sampler to bind
	SetSampler(binding int, s gpu.Sampler)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new, uninitialized BindGroupProvider.
//
// Parameters:
//   - label: the debug label used for the bind group and every buffer it allocates
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]gpu.Buffer),
		ownedBuffers: make(map[int]bool),
		textureViews: make(map[int]gpu.TextureView),
		samplers:     make(map[int]gpu.Sampler),
		sizes:        make(map[int]uint64),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Initialized() bool {
	return p.bindGroup != nil
}

func (p *bindGroupProvider) Init(device gpu.Device, layout gpu.BindGroupLayout, entries []gpu.BindGroupLayoutEntry) error {
	if p.bindGroup != nil {
		return nil
	}

	groupEntries := make([]gpu.BindGroupEntry, 0, len(entries))
	for _, e := range entries {
		binding := int(e.Binding)
		switch {
		case e.IsBuffer():
			buf := p.buffers[binding]
			if buf == nil {
				var err error
				buf, err = device.CreateBuffer(gpu.BufferDescriptor{
					Label: fmt.Sprintf("%s_binding_%d", p.label, binding),
					Size:  p.bufferSize(e),
					Usage: bufferUsage(e.Buffer.Type),
				})
				if err != nil {
					return fmt.Errorf("bind_group_provider: failed to create buffer %d for %s: %w", binding, p.label, err)
				}
				p.buffers[binding] = buf
				p.ownedBuffers[binding] = true
			}
			groupEntries = append(groupEntries, gpu.BindGroupEntry{Binding: e.Binding, Buffer: buf, Size: buf.Size()})
		case e.IsSampler():
			s := p.samplers[binding]
			if s == nil {
				return fmt.Errorf("bind_group_provider: no sampler supplied for binding %d of %s", binding, p.label)
			}
			groupEntries = append(groupEntries, gpu.BindGroupEntry{Binding: e.Binding, Sampler: s})
		case e.IsTexture():
			tv := p.textureViews[binding]
			if tv == nil {
				return fmt.Errorf("bind_group_provider: no texture view supplied for binding %d of %s", binding, p.label)
			}
			groupEntries = append(groupEntries, gpu.BindGroupEntry{Binding: e.Binding, TextureView: tv})
		}
	}

	bg, err := device.CreateBindGroup(gpu.BindGroupDescriptor{
		Label:   p.label,
		Layout:  layout,
		Entries: groupEntries,
	})
	if err != nil {
		return fmt.Errorf("bind_group_provider: failed to create bind group %s: %w", p.label, err)
	}
	p.bindGroup = bg
	p.bindGroupLayout = layout
	return nil
}

func (p *bindGroupProvider) Write(queue gpu.Queue, binding int, offset uint64, data []byte) error {
	buf := p.buffers[binding]
	if buf == nil {
		return fmt.Errorf("bind_group_provider: %s has no buffer at binding %d", p.label, binding)
	}
	queue.WriteBuffer(buf, offset, data)
	return nil
}

func (p *bindGroupProvider) BindGroup() gpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() gpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) gpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) TextureView(binding int) gpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) gpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) SetBuffer(binding int, buf gpu.Buffer) {
	p.buffers[binding] = buf
	delete(p.ownedBuffers, binding)
}

func (p *bindGroupProvider) SetTextureView(binding int, tv gpu.TextureView) {
	p.textureViews[binding] = tv
}

func (p *bindGroupProvider) SetSampler(binding int, s gpu.Sampler) {
	p.samplers[binding] = s
}

func (p *bindGroupProvider) Release() {
	for i, buf := range p.buffers {
		if buf != nil && p.ownedBuffers[i] {
			buf.Release()
		}
		delete(p.buffers, i)
		delete(p.ownedBuffers, i)
	}
	clear(p.textureViews)
	clear(p.samplers)

	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	p.bindGroupLayout = nil
}

// bufferSize returns the allocation size for a buffer entry: an explicit override, else the entry's minimum
// binding size.
func (p *bindGroupProvider) bufferSize(e gpu.BindGroupLayoutEntry) uint64 {
	if size, ok := p.sizes[int(e.Binding)]; ok {
		return size
	}
	return e.Buffer.MinBindingSize
}

// bufferUsage maps a binding type to the usage flags of the buffer backing it.
func bufferUsage(t gpu.BufferBindingType) gpu.BufferUsage {
	switch t {
	case gpu.BufferBindingTypeStorage, gpu.BufferBindingTypeReadOnlyStorage:
		return gpu.BufferUsageStorage | gpu.BufferUsageCopyDst
	default:
		return gpu.BufferUsageUniform | gpu.BufferUsageCopyDst
	}
}
