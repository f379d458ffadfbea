package gpu

// BufferDescriptor describes a buffer allocation. When Contents is set the buffer is created
// mapped, filled and unmapped, which is how immutable geometry is uploaded.
type BufferDescriptor struct {
	Label    string
	Size     uint64
	Usage    BufferUsage
	Contents []byte
}

// TextureDescriptor describes a 2D texture allocation.
type TextureDescriptor struct {
	Label         string
	Width         uint32
	Height        uint32
	Format        TextureFormat
	Usage         TextureUsage
	SampleCount   uint32
	MipLevelCount uint32
}

// SamplerDescriptor describes a sampler. Zero values fall back to linear filtering and repeat addressing.
type SamplerDescriptor struct {
	Label                                    string
	AddressModeU, AddressModeV, AddressModeW AddressMode
	MagFilter, MinFilter, MipmapFilter       FilterMode
	LodMinClamp, LodMaxClamp                 float32
	Compare                                  CompareFunction
	MaxAnisotropy                            uint16
}

// BufferBindingLayout is the buffer half of a BindGroupLayoutEntry.
type BufferBindingLayout struct {
	Type           BufferBindingType
	MinBindingSize uint64
}

// SamplerBindingLayout is the sampler half of a BindGroupLayoutEntry.
type SamplerBindingLayout struct {
	Type SamplerBindingType
}

// TextureBindingLayout is the texture half of a BindGroupLayoutEntry.
type TextureBindingLayout struct {
	SampleType TextureSampleType
}

// BindGroupLayoutEntry describes one binding slot. Exactly one of Buffer, Sampler or Texture is set.
type BindGroupLayoutEntry struct {
	Binding    uint32
	Visibility ShaderStage
	Buffer     BufferBindingLayout
	Sampler    SamplerBindingLayout
	Texture    TextureBindingLayout
}

// IsBuffer reports whether the entry describes a buffer binding.
func (e BindGroupLayoutEntry) IsBuffer() bool {
	return e.Buffer.Type != BufferBindingTypeUndefined
}

// IsSampler reports whether the entry describes a sampler binding.
func (e BindGroupLayoutEntry) IsSampler() bool {
	return e.Sampler.Type != SamplerBindingTypeUndefined
}

// IsTexture reports whether the entry describes a texture binding.
func (e BindGroupLayoutEntry) IsTexture() bool {
	return e.Texture.SampleType != TextureSampleTypeUndefined
}

// BindGroupLayoutDescriptor describes a bind group layout.
type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// BindGroupEntry binds one resource. Exactly one of Buffer, Sampler or TextureView is set.
type BindGroupEntry struct {
	Binding     uint32
	Buffer      Buffer
	Offset      uint64
	Size        uint64
	Sampler     Sampler
	TextureView TextureView
}

// BindGroupDescriptor describes a bind group.
type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

// ShaderModuleDescriptor describes a WGSL module.
type ShaderModuleDescriptor struct {
	Label string
	Code  string
}

// VertexAttribute is a single attribute within a vertex buffer layout.
type VertexAttribute struct {
	Format         VertexFormat
	Offset         uint64
	ShaderLocation uint32
}

// VertexBufferLayout describes how a vertex buffer is read.
type VertexBufferLayout struct {
	ArrayStride uint64
	StepMode    VertexStepMode
	Attributes  []VertexAttribute
}

// VertexState is the vertex stage of a pipeline. It is shared by every material drawing meshes.
type VertexState struct {
	Module     ShaderModule
	EntryPoint string
	Buffers    []VertexBufferLayout
}

// BlendComponent is one half (colour or alpha) of a blend state.
type BlendComponent struct {
	SrcFactor BlendFactor
	DstFactor BlendFactor
	Operation BlendOperation
}

// BlendState enables blending on a colour target.
type BlendState struct {
	Color BlendComponent
	Alpha BlendComponent
}

// ColorTargetState describes one colour attachment of a pipeline.
type ColorTargetState struct {
	Format    TextureFormat
	Blend     *BlendState
	WriteMask ColorWriteMask
}

// FragmentState is the fragment stage of a pipeline.
type FragmentState struct {
	Module     ShaderModule
	EntryPoint string
	Targets    []ColorTargetState
}

// PrimitiveState controls primitive assembly and culling.
type PrimitiveState struct {
	Topology  PrimitiveTopology
	FrontFace FrontFace
	CullMode  CullMode
}

// DepthStencilState controls depth testing for a pipeline.
type DepthStencilState struct {
	Format              TextureFormat
	DepthWriteEnabled   bool
	DepthCompare        CompareFunction
	DepthBias           int32
	DepthBiasSlopeScale float32
}

// RenderPipelineDescriptor describes a render pipeline. A nil Fragment yields a depth-only pipeline.
type RenderPipelineDescriptor struct {
	Label            string
	BindGroupLayouts []BindGroupLayout
	Vertex           VertexState
	Fragment         *FragmentState
	Primitive        PrimitiveState
	DepthStencil     *DepthStencilState
	SampleCount      uint32
}

// RenderPassColorAttachment is a colour attachment of a render pass.
type RenderPassColorAttachment struct {
	View       TextureView
	LoadOp     LoadOp
	StoreOp    StoreOp
	ClearValue Color
}

// RenderPassDepthStencilAttachment is the depth attachment of a render pass.
type RenderPassDepthStencilAttachment struct {
	View            TextureView
	DepthLoadOp     LoadOp
	DepthStoreOp    StoreOp
	DepthClearValue float32
	StencilLoadOp   LoadOp
	StencilStoreOp  StoreOp
}

// RenderPassDescriptor describes a render pass.
type RenderPassDescriptor struct {
	Label                  string
	ColorAttachments       []RenderPassColorAttachment
	DepthStencilAttachment *RenderPassDepthStencilAttachment
}

// RenderBundleEncoderDescriptor describes the attachments a render bundle will be executed against.
type RenderBundleEncoderDescriptor struct {
	Label              string
	ColorFormats       []TextureFormat
	DepthStencilFormat TextureFormat
	SampleCount        uint32
}

// TextureWrite describes a full-texture upload of tightly packed RGBA8 pixels.
type TextureWrite struct {
	Texture Texture
	Pixels  []byte
	Width   uint32
	Height  uint32
}
