package transform

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUTransformUniform is the GPU-aligned representation of the transform uniform buffer.
// Size: 64 bytes (mat4x4<f32>, column-major).
type GPUTransformUniform struct {
	Model mgl32.Mat4 // offset 0: world matrix
}

// Size returns the size of the GPUTransformUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPUTransformUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUTransformUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUTransformUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Model[i]))
	}
	return buf
}
