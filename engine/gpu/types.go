package gpu

// BufferUsage is a bit set describing how a Buffer may be used.
type BufferUsage uint32

const (
	BufferUsageMapRead  BufferUsage = 0x0001
	BufferUsageMapWrite BufferUsage = 0x0002
	BufferUsageCopySrc  BufferUsage = 0x0004
	BufferUsageCopyDst  BufferUsage = 0x0008
	BufferUsageIndex    BufferUsage = 0x0010
	BufferUsageVertex   BufferUsage = 0x0020
	BufferUsageUniform  BufferUsage = 0x0040
	BufferUsageStorage  BufferUsage = 0x0080
	BufferUsageIndirect BufferUsage = 0x0100
)

// Has reports whether every bit of flag is set.
func (u BufferUsage) Has(flag BufferUsage) bool {
	return u&flag == flag
}

// TextureUsage is a bit set describing how a Texture may be used.
type TextureUsage uint32

const (
	TextureUsageCopySrc          TextureUsage = 0x01
	TextureUsageCopyDst          TextureUsage = 0x02
	TextureUsageTextureBinding   TextureUsage = 0x04
	TextureUsageStorageBinding   TextureUsage = 0x08
	TextureUsageRenderAttachment TextureUsage = 0x10
)

// ShaderStage is a bit set of shader stages a binding is visible to.
type ShaderStage uint32

const (
	ShaderStageNone     ShaderStage = 0x0
	ShaderStageVertex   ShaderStage = 0x1
	ShaderStageFragment ShaderStage = 0x2
	ShaderStageCompute  ShaderStage = 0x4
)

// TextureFormat identifies the texel format of a texture or attachment.
type TextureFormat int

const (
	TextureFormatUndefined TextureFormat = iota
	TextureFormatRGBA8Unorm
	TextureFormatRGBA8UnormSrgb
	TextureFormatBGRA8Unorm
	TextureFormatBGRA8UnormSrgb
	TextureFormatDepth24Plus
	TextureFormatDepth24PlusStencil8
	TextureFormatDepth32Float
)

// String returns the WebGPU spelling of the format.
func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA8Unorm:
		return "rgba8unorm"
	case TextureFormatRGBA8UnormSrgb:
		return "rgba8unorm-srgb"
	case TextureFormatBGRA8Unorm:
		return "bgra8unorm"
	case TextureFormatBGRA8UnormSrgb:
		return "bgra8unorm-srgb"
	case TextureFormatDepth24Plus:
		return "depth24plus"
	case TextureFormatDepth24PlusStencil8:
		return "depth24plus-stencil8"
	case TextureFormatDepth32Float:
		return "depth32float"
	default:
		return "undefined"
	}
}

// HasStencil reports whether the format carries a stencil aspect.
func (f TextureFormat) HasStencil() bool {
	return f == TextureFormatDepth24PlusStencil8
}

// IsDepth reports whether the format is a depth format.
func (f TextureFormat) IsDepth() bool {
	switch f {
	case TextureFormatDepth24Plus, TextureFormatDepth24PlusStencil8, TextureFormatDepth32Float:
		return true
	}
	return false
}

// BufferBindingType selects how a buffer binding is exposed to shaders.
type BufferBindingType int

const (
	BufferBindingTypeUndefined BufferBindingType = iota
	BufferBindingTypeUniform
	BufferBindingTypeStorage
	BufferBindingTypeReadOnlyStorage
)

// SamplerBindingType selects the kind of sampler a binding expects.
type SamplerBindingType int

const (
	SamplerBindingTypeUndefined SamplerBindingType = iota
	SamplerBindingTypeFiltering
	SamplerBindingTypeNonFiltering
	SamplerBindingTypeComparison
)

// TextureSampleType selects how a texture binding is sampled.
type TextureSampleType int

const (
	TextureSampleTypeUndefined TextureSampleType = iota
	TextureSampleTypeFloat
	TextureSampleTypeUnfilterableFloat
	TextureSampleTypeDepth
	TextureSampleTypeSint
	TextureSampleTypeUint
)

// AddressMode controls texture coordinate wrapping.
type AddressMode int

const (
	AddressModeUndefined AddressMode = iota
	AddressModeRepeat
	AddressModeMirrorRepeat
	AddressModeClampToEdge
)

// FilterMode controls texel filtering.
type FilterMode int

const (
	FilterModeUndefined FilterMode = iota
	FilterModeNearest
	FilterModeLinear
)

// CompareFunction is used for depth tests and comparison samplers.
type CompareFunction int

const (
	CompareFunctionUndefined CompareFunction = iota
	CompareFunctionNever
	CompareFunctionLess
	CompareFunctionLessEqual
	CompareFunctionEqual
	CompareFunctionGreater
	CompareFunctionAlways
)

// PrimitiveTopology controls how vertices are assembled.
type PrimitiveTopology int

const (
	PrimitiveTopologyTriangleList PrimitiveTopology = iota
	PrimitiveTopologyTriangleStrip
	PrimitiveTopologyLineList
	PrimitiveTopologyPointList
)

// CullMode selects which faces are culled.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// FrontFace selects the winding of front facing triangles.
type FrontFace int

const (
	FrontFaceCCW FrontFace = iota
	FrontFaceCW
)

// IndexFormat is the element type of an index buffer.
type IndexFormat int

const (
	IndexFormatUint16 IndexFormat = iota
	IndexFormatUint32
)

// Size returns the byte width of one index.
func (f IndexFormat) Size() int {
	if f == IndexFormatUint16 {
		return 2
	}
	return 4
}

// VertexFormat is the type of a single vertex attribute.
type VertexFormat int

const (
	VertexFormatFloat32 VertexFormat = iota
	VertexFormatFloat32x2
	VertexFormatFloat32x3
	VertexFormatFloat32x4
)

// VertexStepMode controls whether a buffer advances per vertex or per instance.
type VertexStepMode int

const (
	VertexStepModeVertex VertexStepMode = iota
	VertexStepModeInstance
)

// BlendFactor is a blend equation factor.
type BlendFactor int

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
)

// BlendOperation combines source and destination terms.
type BlendOperation int

const (
	BlendOperationAdd BlendOperation = iota
	BlendOperationSubtract
)

// ColorWriteMask selects the colour channels written by a target.
type ColorWriteMask uint32

const (
	ColorWriteMaskNone  ColorWriteMask = 0x0
	ColorWriteMaskRed   ColorWriteMask = 0x1
	ColorWriteMaskGreen ColorWriteMask = 0x2
	ColorWriteMaskBlue  ColorWriteMask = 0x4
	ColorWriteMaskAlpha ColorWriteMask = 0x8
	ColorWriteMaskAll   ColorWriteMask = 0xF
)

// LoadOp selects what happens to an attachment at the start of a pass.
type LoadOp int

const (
	LoadOpClear LoadOp = iota
	LoadOpLoad
)

// StoreOp selects what happens to an attachment at the end of a pass.
type StoreOp int

const (
	StoreOpStore StoreOp = iota
	StoreOpDiscard
)

// WholeSize binds a buffer from its offset to its end.
const WholeSize = ^uint64(0)

// Color is a linear RGBA clear colour.
type Color struct {
	R, G, B, A float64
}
