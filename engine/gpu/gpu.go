// Package gpu defines the device backend boundary the scene graph renders through.
//
// The scene, materials and renderer only ever talk to these interfaces. The wgpu_backend package implements
// them on top of WebGPU and the gputest package provides a recording fake used by the tests.
package gpu

// Releaser is implemented by every GPU handle.
type Releaser interface {
	// Release frees the underlying GPU object. Calling Release more than once is a no-op.
	Release()
}

// Buffer is a GPU buffer handle.
type Buffer interface {
	Releaser

	// Label returns the debug label the buffer was created with.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Size returns the allocation size in bytes.
	//
	// Returns:
	//   - uint64: the buffer size in bytes
	Size() uint64
}

// Texture is a GPU texture handle.
type Texture interface {
	Releaser

	// CreateView creates a default view covering the whole texture.
	//
	// Returns:
	//   - TextureView: the created view
	//   - error: an error if the view could not be created
	CreateView() (TextureView, error)

	// Width returns the texture width in texels.
	Width() uint32

	// Height returns the texture height in texels.
	Height() uint32

	// Format returns the texel format.
	Format() TextureFormat
}

// TextureView is a view onto a Texture.
type TextureView interface {
	Releaser
}

// Sampler is a GPU sampler handle.
type Sampler interface {
	Releaser
}

// BindGroupLayout is a GPU bind group layout handle.
type BindGroupLayout interface {
	Releaser
}

// BindGroup is a GPU bind group handle.
type BindGroup interface {
	Releaser
}

// ShaderModule is a compiled shader module handle.
type ShaderModule interface {
	Releaser
}

// RenderPipeline is a compiled render pipeline handle.
type RenderPipeline interface {
	Releaser

	// Label returns the debug label the pipeline was created with.
	//
	// Returns:
	//   - string: the debug label
	Label() string
}

// RenderBundle is a pre-recorded, replayable sequence of draw commands.
type RenderBundle interface {
	Releaser
}

// CommandBuffer is a finished command list ready for submission.
type CommandBuffer interface {
	Releaser
}

// Queue uploads data and submits command buffers.
type Queue interface {
	// WriteBuffer schedules data to be copied into buf at offset.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - offset: byte offset into the destination buffer
	//   - data: the bytes to write
	WriteBuffer(buf Buffer, offset uint64, data []byte)

	// WriteTexture uploads tightly packed RGBA8 pixels into a whole texture.
	//
	// Parameters:
	//   - write: the texture, pixels and extent to upload
	WriteTexture(write TextureWrite)

	// Submit submits finished command buffers for execution.
	//
	// Parameters:
	//   - buffers: the command buffers to submit, in order
	Submit(buffers ...CommandBuffer)
}

// RenderEncoder is the command surface shared by render passes and render bundle encoders.
type RenderEncoder interface {
	SetPipeline(pipeline RenderPipeline)
	SetBindGroup(index uint32, group BindGroup)
	SetVertexBuffer(slot uint32, buf Buffer)
	SetIndexBuffer(buf Buffer, format IndexFormat)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}

// RenderPassEncoder records commands into a render pass.
type RenderPassEncoder interface {
	RenderEncoder

	// SetViewport restricts rasterisation to a sub-rectangle of the attachments.
	SetViewport(x, y, width, height, minDepth, maxDepth float32)

	// ExecuteBundles replays pre-recorded bundles. Bind group state set before the call is not inherited
	// by the bundles and is undefined after it.
	ExecuteBundles(bundles ...RenderBundle)

	// End finishes the pass. The encoder must not be used afterwards.
	End()
}

// RenderBundleEncoder records commands into a RenderBundle.
type RenderBundleEncoder interface {
	RenderEncoder

	// Finish completes recording.
	//
	// Returns:
	//   - RenderBundle: the recorded bundle
	//   - error: an error if recording failed
	Finish() (RenderBundle, error)
}

// CommandEncoder records passes into a CommandBuffer.
type CommandEncoder interface {
	// BeginRenderPass opens a render pass.
	//
	// Parameters:
	//   - desc: the attachments of the pass
	//
	// Returns:
	//   - RenderPassEncoder: the pass encoder
	BeginRenderPass(desc RenderPassDescriptor) RenderPassEncoder

	// Finish completes recording.
	//
	// Returns:
	//   - CommandBuffer: the finished command buffer
	//   - error: an error if encoding failed
	Finish() (CommandBuffer, error)
}

// PipelineCallback receives the result of an asynchronous pipeline compile.
type PipelineCallback func(pipeline RenderPipeline, err error)

// Device allocates GPU resources and compiles pipelines.
//
// Asynchronous pipeline creation never invokes its callback from inside CreateRenderPipelineAsync or from a
// background goroutine: completions are queued and delivered by Poll, which the frame loop calls once per frame.
type Device interface {
	// CreateBuffer allocates a buffer.
	//
	// Parameters:
	//   - desc: the buffer description
	//
	// Returns:
	//   - Buffer: the created buffer
	//   - error: an error if allocation failed
	CreateBuffer(desc BufferDescriptor) (Buffer, error)

	// CreateTexture allocates a texture.
	//
	// Parameters:
	//   - desc: the texture description
	//
	// Returns:
	//   - Texture: the created texture
	//   - error: an error if allocation failed
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// CreateSampler creates a sampler.
	//
	// Parameters:
	//   - desc: the sampler description
	//
	// Returns:
	//   - Sampler: the created sampler
	//   - error: an error if creation failed
	CreateSampler(desc SamplerDescriptor) (Sampler, error)

	// CreateBindGroupLayout creates a bind group layout.
	//
	// Parameters:
	//   - desc: the layout description
	//
	// Returns:
	//   - BindGroupLayout: the created layout
	//   - error: an error if creation failed
	CreateBindGroupLayout(desc BindGroupLayoutDescriptor) (BindGroupLayout, error)

	// CreateBindGroup creates a bind group.
	//
	// Parameters:
	//   - desc: the bind group description
	//
	// Returns:
	//   - BindGroup: the created bind group
	//   - error: an error if creation failed
	CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error)

	// CreateShaderModule compiles WGSL source into a module.
	//
	// Parameters:
	//   - desc: the module label and source
	//
	// Returns:
	//   - ShaderModule: the compiled module
	//   - error: an error if compilation failed
	CreateShaderModule(desc ShaderModuleDescriptor) (ShaderModule, error)

	// CreateRenderPipeline compiles a render pipeline synchronously.
	//
	// Parameters:
	//   - desc: the pipeline description
	//
	// Returns:
	//   - RenderPipeline: the compiled pipeline
	//   - error: an error if compilation failed
	CreateRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error)

	// CreateRenderPipelineAsync starts compiling a render pipeline. done is invoked from a later Poll call.
	//
	// Parameters:
	//   - desc: the pipeline description
	//   - done: the completion callback
	CreateRenderPipelineAsync(desc RenderPipelineDescriptor, done PipelineCallback)

	// CreateCommandEncoder starts a new command list.
	//
	// Parameters:
	//   - label: a debug label
	//
	// Returns:
	//   - CommandEncoder: the encoder
	//   - error: an error if the encoder could not be created
	CreateCommandEncoder(label string) (CommandEncoder, error)

	// CreateRenderBundleEncoder starts recording a render bundle.
	//
	// Parameters:
	//   - desc: the attachment formats the bundle will be executed against
	//
	// Returns:
	//   - RenderBundleEncoder: the encoder
	//   - error: an error if the encoder could not be created
	CreateRenderBundleEncoder(desc RenderBundleEncoderDescriptor) (RenderBundleEncoder, error)

	// Queue returns the device queue.
	Queue() Queue

	// Poll delivers completed asynchronous work on the calling goroutine.
	//
	// Returns:
	//   - int: the number of completion callbacks that ran
	Poll() int
}

// Surface is the presentable target the renderer draws the main pass into.
type Surface interface {
	// CurrentView acquires the view for the next frame.
	//
	// Returns:
	//   - TextureView: the view to render into
	//   - error: an error if no image could be acquired
	CurrentView() (TextureView, error)

	// Present shows the most recently acquired view.
	Present()

	// Format returns the colour format of the surface.
	Format() TextureFormat

	// Size returns the surface size in pixels.
	Size() (width, height uint32)

	// Configure resizes the surface.
	Configure(width, height uint32)
}
