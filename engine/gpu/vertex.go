package gpu

// VertexStride is the byte stride of the interleaved mesh vertex: position, normal and uv.
const VertexStride = 8 * 4

// MeshVertexLayout is the buffer layout every mesh vertex buffer follows.
//
// Returns:
//   - VertexBufferLayout: position float32x3 at 0, normal float32x3 at 12, uv float32x2 at 24
func MeshVertexLayout() VertexBufferLayout {
	return VertexBufferLayout{
		ArrayStride: VertexStride,
		StepMode:    VertexStepModeVertex,
		Attributes: []VertexAttribute{
			{Format: VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
		},
	}
}

// DefaultPrimitiveState is used by every mesh pipeline.
func DefaultPrimitiveState() PrimitiveState {
	return PrimitiveState{
		Topology:  PrimitiveTopologyTriangleList,
		FrontFace: FrontFaceCCW,
		CullMode:  CullModeBack,
	}
}
