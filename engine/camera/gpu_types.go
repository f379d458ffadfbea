package camera

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUViewUniform is the GPU-aligned representation of the group 0 view bindings.
// Binding 0 holds ViewProj, binding 1 holds Position padded to a vec4.
// Size: 80 bytes.
type GPUViewUniform struct {
	ViewProj mgl32.Mat4 // offset  0: combined view-projection matrix (mat4x4<f32>)
	Position mgl32.Vec3 // offset 64: world-space eye position (vec3<f32>)
	_pad     float32    // offset 76: padding to 80 bytes
}

// Size returns the size of the GPUViewUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (g *GPUViewUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// MarshalViewProj serializes the binding 0 matrix.
//
// Returns:
//   - []byte: 64 little-endian bytes
func (g *GPUViewUniform) MarshalViewProj() []byte {
	buf := make([]byte, 64)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
	}
	return buf
}

// MarshalPosition serializes the binding 1 eye position.
//
// Returns:
//   - []byte: 16 little-endian bytes, the last four zero
func (g *GPUViewUniform) MarshalPosition() []byte {
	buf := make([]byte, 16)
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Position[i]))
	}
	return buf
}

// Marshal serializes both bindings back to back.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUViewUniform) Marshal() []byte {
	buf := make([]byte, 0, g.Size())
	buf = append(buf, g.MarshalViewProj()...)
	return append(buf, g.MarshalPosition()...)
}
