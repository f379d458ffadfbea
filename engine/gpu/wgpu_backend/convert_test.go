package wgpu_backend

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestTextureFormatRoundTrip(t *testing.T) {
	for f := range textureFormats {
		assert.Equal(t, f, fromTextureFormat(textureFormat(f)), f.String())
	}
	assert.Equal(t, gpu.TextureFormatUndefined, fromTextureFormat(wgpu.TextureFormatR8Unorm))
}

func TestUsageBits(t *testing.T) {
	assert.Equal(t, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst, bufferUsage(gpu.BufferUsageUniform|gpu.BufferUsageCopyDst))
	assert.Equal(t, wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding,
		textureUsage(gpu.TextureUsageRenderAttachment|gpu.TextureUsageTextureBinding))
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, shaderStage(gpu.ShaderStageVertex|gpu.ShaderStageFragment))
}

func TestVertexBuffers(t *testing.T) {
	out := vertexBuffers([]gpu.VertexBufferLayout{gpu.MeshVertexLayout()})
	assert.Len(t, out, 1)
	assert.Equal(t, uint64(gpu.VertexStride), out[0].ArrayStride)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, out[0].Attributes[2].Format)
	assert.Equal(t, uint32(2), out[0].Attributes[2].ShaderLocation)
}

func TestBlendState(t *testing.T) {
	assert.Nil(t, blendState(nil))
	b := blendState(&gpu.BlendState{
		Color: gpu.BlendComponent{SrcFactor: gpu.BlendFactorSrcAlpha, DstFactor: gpu.BlendFactorOneMinusSrcAlpha},
		Alpha: gpu.BlendComponent{SrcFactor: gpu.BlendFactorOne, DstFactor: gpu.BlendFactorZero},
	})
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, b.Color.SrcFactor)
	assert.Equal(t, wgpu.BlendOperationAdd, b.Alpha.Operation)
}
