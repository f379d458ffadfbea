package wgpu_backend

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

var textureFormats = map[gpu.TextureFormat]wgpu.TextureFormat{
	gpu.TextureFormatUndefined:           wgpu.TextureFormatUndefined,
	gpu.TextureFormatRGBA8Unorm:          wgpu.TextureFormatRGBA8Unorm,
	gpu.TextureFormatRGBA8UnormSrgb:      wgpu.TextureFormatRGBA8UnormSrgb,
	gpu.TextureFormatBGRA8Unorm:          wgpu.TextureFormatBGRA8Unorm,
	gpu.TextureFormatBGRA8UnormSrgb:      wgpu.TextureFormatBGRA8UnormSrgb,
	gpu.TextureFormatDepth24Plus:         wgpu.TextureFormatDepth24Plus,
	gpu.TextureFormatDepth24PlusStencil8: wgpu.TextureFormatDepth24PlusStencil8,
	gpu.TextureFormatDepth32Float:        wgpu.TextureFormatDepth32Float,
}

func textureFormat(f gpu.TextureFormat) wgpu.TextureFormat {
	return textureFormats[f]
}

// fromTextureFormat maps a surface format back. Formats the core has no name for report undefined.
func fromTextureFormat(f wgpu.TextureFormat) gpu.TextureFormat {
	for k, v := range textureFormats {
		if v == f {
			return k
		}
	}
	return gpu.TextureFormatUndefined
}

func bufferUsage(u gpu.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	for flag, w := range map[gpu.BufferUsage]wgpu.BufferUsage{
		gpu.BufferUsageMapRead:  wgpu.BufferUsageMapRead,
		gpu.BufferUsageMapWrite: wgpu.BufferUsageMapWrite,
		gpu.BufferUsageCopySrc:  wgpu.BufferUsageCopySrc,
		gpu.BufferUsageCopyDst:  wgpu.BufferUsageCopyDst,
		gpu.BufferUsageIndex:    wgpu.BufferUsageIndex,
		gpu.BufferUsageVertex:   wgpu.BufferUsageVertex,
		gpu.BufferUsageUniform:  wgpu.BufferUsageUniform,
		gpu.BufferUsageStorage:  wgpu.BufferUsageStorage,
		gpu.BufferUsageIndirect: wgpu.BufferUsageIndirect,
	} {
		if u.Has(flag) {
			out |= w
		}
	}
	return out
}

func textureUsage(u gpu.TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	for flag, w := range map[gpu.TextureUsage]wgpu.TextureUsage{
		gpu.TextureUsageCopySrc:          wgpu.TextureUsageCopySrc,
		gpu.TextureUsageCopyDst:          wgpu.TextureUsageCopyDst,
		gpu.TextureUsageTextureBinding:   wgpu.TextureUsageTextureBinding,
		gpu.TextureUsageStorageBinding:   wgpu.TextureUsageStorageBinding,
		gpu.TextureUsageRenderAttachment: wgpu.TextureUsageRenderAttachment,
	} {
		if u&flag == flag {
			out |= w
		}
	}
	return out
}

func shaderStage(s gpu.ShaderStage) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&gpu.ShaderStageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&gpu.ShaderStageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	if s&gpu.ShaderStageCompute != 0 {
		out |= wgpu.ShaderStageCompute
	}
	return out
}

func bufferBindingType(t gpu.BufferBindingType) wgpu.BufferBindingType {
	switch t {
	case gpu.BufferBindingTypeUniform:
		return wgpu.BufferBindingTypeUniform
	case gpu.BufferBindingTypeStorage:
		return wgpu.BufferBindingTypeStorage
	case gpu.BufferBindingTypeReadOnlyStorage:
		return wgpu.BufferBindingTypeReadOnlyStorage
	default:
		return wgpu.BufferBindingTypeUndefined
	}
}

func samplerBindingType(t gpu.SamplerBindingType) wgpu.SamplerBindingType {
	switch t {
	case gpu.SamplerBindingTypeFiltering:
		return wgpu.SamplerBindingTypeFiltering
	case gpu.SamplerBindingTypeNonFiltering:
		return wgpu.SamplerBindingTypeNonFiltering
	case gpu.SamplerBindingTypeComparison:
		return wgpu.SamplerBindingTypeComparison
	default:
		return wgpu.SamplerBindingTypeUndefined
	}
}

func textureSampleType(t gpu.TextureSampleType) wgpu.TextureSampleType {
	switch t {
	case gpu.TextureSampleTypeFloat:
		return wgpu.TextureSampleTypeFloat
	case gpu.TextureSampleTypeUnfilterableFloat:
		return wgpu.TextureSampleTypeUnfilterableFloat
	case gpu.TextureSampleTypeDepth:
		return wgpu.TextureSampleTypeDepth
	case gpu.TextureSampleTypeSint:
		return wgpu.TextureSampleTypeSint
	case gpu.TextureSampleTypeUint:
		return wgpu.TextureSampleTypeUint
	default:
		return wgpu.TextureSampleTypeUndefined
	}
}

func addressMode(m gpu.AddressMode) wgpu.AddressMode {
	switch m {
	case gpu.AddressModeMirrorRepeat:
		return wgpu.AddressModeMirrorRepeat
	case gpu.AddressModeClampToEdge:
		return wgpu.AddressModeClampToEdge
	default:
		return wgpu.AddressModeRepeat
	}
}

func filterMode(m gpu.FilterMode) wgpu.FilterMode {
	if m == gpu.FilterModeNearest {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

func mipmapFilterMode(m gpu.FilterMode) wgpu.MipmapFilterMode {
	if m == gpu.FilterModeNearest {
		return wgpu.MipmapFilterModeNearest
	}
	return wgpu.MipmapFilterModeLinear
}

func compareFunction(c gpu.CompareFunction) wgpu.CompareFunction {
	switch c {
	case gpu.CompareFunctionNever:
		return wgpu.CompareFunctionNever
	case gpu.CompareFunctionLess:
		return wgpu.CompareFunctionLess
	case gpu.CompareFunctionLessEqual:
		return wgpu.CompareFunctionLessEqual
	case gpu.CompareFunctionEqual:
		return wgpu.CompareFunctionEqual
	case gpu.CompareFunctionGreater:
		return wgpu.CompareFunctionGreater
	case gpu.CompareFunctionAlways:
		return wgpu.CompareFunctionAlways
	default:
		return wgpu.CompareFunctionUndefined
	}
}

func topology(t gpu.PrimitiveTopology) wgpu.PrimitiveTopology {
	switch t {
	case gpu.PrimitiveTopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	case gpu.PrimitiveTopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	case gpu.PrimitiveTopologyPointList:
		return wgpu.PrimitiveTopologyPointList
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func cullMode(c gpu.CullMode) wgpu.CullMode {
	switch c {
	case gpu.CullModeFront:
		return wgpu.CullModeFront
	case gpu.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func frontFace(f gpu.FrontFace) wgpu.FrontFace {
	if f == gpu.FrontFaceCW {
		return wgpu.FrontFaceCW
	}
	return wgpu.FrontFaceCCW
}

func indexFormat(f gpu.IndexFormat) wgpu.IndexFormat {
	if f == gpu.IndexFormatUint16 {
		return wgpu.IndexFormatUint16
	}
	return wgpu.IndexFormatUint32
}

func vertexFormat(f gpu.VertexFormat) wgpu.VertexFormat {
	switch f {
	case gpu.VertexFormatFloat32:
		return wgpu.VertexFormatFloat32
	case gpu.VertexFormatFloat32x2:
		return wgpu.VertexFormatFloat32x2
	case gpu.VertexFormatFloat32x3:
		return wgpu.VertexFormatFloat32x3
	default:
		return wgpu.VertexFormatFloat32x4
	}
}

func stepMode(m gpu.VertexStepMode) wgpu.VertexStepMode {
	if m == gpu.VertexStepModeInstance {
		return wgpu.VertexStepModeInstance
	}
	return wgpu.VertexStepModeVertex
}

func blendFactor(f gpu.BlendFactor) wgpu.BlendFactor {
	switch f {
	case gpu.BlendFactorOne:
		return wgpu.BlendFactorOne
	case gpu.BlendFactorSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case gpu.BlendFactorOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	default:
		return wgpu.BlendFactorZero
	}
}

func blendOperation(o gpu.BlendOperation) wgpu.BlendOperation {
	if o == gpu.BlendOperationSubtract {
		return wgpu.BlendOperationSubtract
	}
	return wgpu.BlendOperationAdd
}

func loadOp(o gpu.LoadOp) wgpu.LoadOp {
	if o == gpu.LoadOpLoad {
		return wgpu.LoadOpLoad
	}
	return wgpu.LoadOpClear
}

func storeOp(o gpu.StoreOp) wgpu.StoreOp {
	if o == gpu.StoreOpDiscard {
		return wgpu.StoreOpDiscard
	}
	return wgpu.StoreOpStore
}

func vertexBuffers(layouts []gpu.VertexBufferLayout) []wgpu.VertexBufferLayout {
	out := make([]wgpu.VertexBufferLayout, len(layouts))
	for i, l := range layouts {
		attrs := make([]wgpu.VertexAttribute, len(l.Attributes))
		for j, a := range l.Attributes {
			attrs[j] = wgpu.VertexAttribute{
				Format:         vertexFormat(a.Format),
				Offset:         a.Offset,
				ShaderLocation: a.ShaderLocation,
			}
		}
		out[i] = wgpu.VertexBufferLayout{
			ArrayStride: l.ArrayStride,
			StepMode:    stepMode(l.StepMode),
			Attributes:  attrs,
		}
	}
	return out
}

func blendState(b *gpu.BlendState) *wgpu.BlendState {
	if b == nil {
		return nil
	}
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: blendFactor(b.Color.SrcFactor),
			DstFactor: blendFactor(b.Color.DstFactor),
			Operation: blendOperation(b.Color.Operation),
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: blendFactor(b.Alpha.SrcFactor),
			DstFactor: blendFactor(b.Alpha.DstFactor),
			Operation: blendOperation(b.Alpha.Operation),
		},
	}
}
