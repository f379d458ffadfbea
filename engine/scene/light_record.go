package scene

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

// Float offsets inside a light record.
const (
	RecordPosition      = 0
	RecordColor         = 4
	RecordType          = 8
	RecordIntensity     = 9
	RecordDecay         = 10
	RecordInnerCone     = 11
	RecordOuterCone     = 12
	RecordTarget        = 13
	RecordSpotIntensity = 16
	RecordCastShadow    = 17
	RecordShadowSlot    = 18
	RecordMatrix        = 24
)

// LightRecord is one light's slot in the shared light storage buffer.
type LightRecord [bind_group_provider.LightRecordFloats]float32

// NewLightRecord returns a zeroed record with the type tag set and no shadow slot.
func NewLightRecord(t LightType) LightRecord {
	var r LightRecord
	r[RecordType] = float32(t)
	r[RecordShadowSlot] = -1
	return r
}

// SetVec3 writes v at float offset at.
func (r *LightRecord) SetVec3(at int, v mgl32.Vec3) {
	copy(r[at:at+3], v[:])
}

// SetMatrix writes the column-major light matrix.
func (r *LightRecord) SetMatrix(m mgl32.Mat4) {
	copy(r[RecordMatrix:RecordMatrix+16], m[:])
}

// SetBool writes 1 or 0 at float offset at.
func (r *LightRecord) SetBool(at int, b bool) {
	r[at] = 0
	if b {
		r[at] = 1
	}
}

// Marshal encodes the record little-endian.
func (r *LightRecord) Marshal() []byte {
	buf := make([]byte, bind_group_provider.LightRecordSize)
	for i, f := range r {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeLightRecord reads the record at index from a marshalled light buffer.
func DecodeLightRecord(data []byte, index int) LightRecord {
	var r LightRecord
	base := index * bind_group_provider.LightRecordSize
	for i := range r {
		r[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[base+i*4:]))
	}
	return r
}
