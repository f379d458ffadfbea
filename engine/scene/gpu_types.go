package scene

import (
	"encoding/binary"
	"unsafe"
)

// GPULightCount is the light count uniform. The count is padded to a 16 byte uniform.
type GPULightCount struct {
	Count uint32
	_     [3]uint32
}

// Size returns the size of GPULightCount in bytes.
func (c GPULightCount) Size() int {
	return int(unsafe.Sizeof(c))
}

// Marshal serializes the count uniform to little-endian bytes.
func (c GPULightCount) Marshal() []byte {
	buf := make([]byte, c.Size())
	binary.LittleEndian.PutUint32(buf[0:4], c.Count)
	return buf
}

// GPUShadowIndices is the per-light atlas slot table. -1 marks a light without a usable tile.
type GPUShadowIndices []int32

// Marshal serializes the slot table to little-endian bytes.
func (s GPUShadowIndices) Marshal() []byte {
	buf := make([]byte, len(s)*4)
	for i, v := range s {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return buf
}
