package scene

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// Material decides how a mesh is shaded. Pipelines are shared by every instance of one material kind; instances
// only differ in their bind group contents.
type Material interface {
	// Mount starts compiling the material's pipeline if nothing is compiled or compiling yet. onMounted runs once,
	// from a later device Poll, when a compile this call joined finishes. Mounting a ready material is a no-op.
	//
	// Parameters:
	//   - op: the draw operation of the current pass
	//   - base: the bind group layouts every mesh pipeline starts with, view then transform
	//   - onMounted: completion callback, nil when nobody waits for it
	Mount(op *DrawOperation, base []gpu.BindGroupLayout, onMounted func())

	// Use binds the pipeline and the material's own bind groups to the active target.
	//
	// Parameters:
	//   - op: the draw operation of the current pass
	//
	// Returns:
	//   - bool: false while the pipeline or the material's own resources are not ready; the caller skips the draw
	Use(op *DrawOperation) bool
}

// ViewBinder provides the group 0 bind group a pass renders through: a camera in the main pass, a shadow casting
// light in the shadow pass.
type ViewBinder interface {
	// BindGroup returns the view bind group, creating it on first use.
	//
	// Parameters:
	//   - device: the device to allocate on
	//
	// Returns:
	//   - gpu.BindGroup: the view bind group
	//   - error: an error if GPU resources could not be created
	BindGroup(device gpu.Device) (gpu.BindGroup, error)
}

// Camera is a node that projects the scene.
type Camera interface {
	Node
	ViewBinder

	// ViewProjectionMatrix returns projection * view.
	ViewProjectionMatrix() mgl32.Mat4

	// SetAspect updates the aspect ratio after the surface was resized.
	SetAspect(aspect float32)

	// Update uploads the view uniform if the camera changed.
	//
	// Parameters:
	//   - device: the device the uniform lives on
	//
	// Returns:
	//   - error: an error if the upload failed
	Update(device gpu.Device) error
}

// LightType is the type tag stored in every light record.
type LightType uint32

const (
	LightAmbient     LightType = 0
	LightDirectional LightType = 1
	LightSpot        LightType = 2
	LightPoint       LightType = 3
	LightSun         LightType = 4
)

func (t LightType) String() string {
	switch t {
	case LightAmbient:
		return "ambient"
	case LightDirectional:
		return "directional"
	case LightSpot:
		return "spot"
	case LightPoint:
		return "point"
	case LightSun:
		return "sun"
	default:
		return "unknown"
	}
}

// Light is a node contributing one record to the scene light buffer.
type Light interface {
	Node

	// LightType returns the record's type tag.
	LightType() LightType

	// IsDirty reports whether the record changed since the last Clean.
	IsDirty() bool

	// Clean clears the light's own dirty bits. The node transform is cleaned by the frame walk instead.
	Clean()

	// Record serialises the light into the canonical record layout.
	//
	// Returns:
	//   - LightRecord: the record, unused fields zero
	Record() LightRecord
}

// ShadowLight is a light that renders itself into a tile of the shadow atlas.
type ShadowLight interface {
	Light
	ViewBinder

	// LightMatrix returns the light-space view-projection matrix.
	LightMatrix() mgl32.Mat4

	// Update uploads the light's view uniform if it changed.
	//
	// Parameters:
	//   - device: the device the uniform lives on
	//
	// Returns:
	//   - error: an error if the upload failed
	Update(device gpu.Device) error
}
