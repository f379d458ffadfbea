// Package transform implements the position/scale/rotation of a scene node and the lazily created GPU uniform
// that carries its world matrix.
package transform

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-scene/engine/dirty"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrNotRenderable is the panic value when a bind group is requested from a transform that may not own GPU state.
var ErrNotRenderable = errors.New("transform: transform is not renderable")

// transformCount is an atomic counter used to generate unique bind group provider names.
var transformCount atomic.Uint64

// Transform is the local placement of a node relative to its parent.
//
// Dirtiness is inherited: a transform is dirty when any of its own fields changed or when its parent is dirty,
// because the world matrix composes along the same chain.
type Transform struct {
	Position *dirty.Vec3
	Scale    *dirty.Vec3
	Rotation *dirty.Quat

	parent     *Transform
	renderable bool

	provider bind_group_provider.BindGroupProvider
}

// New creates an identity transform.
//
// Parameters:
//   - options: functional options to configure the transform
//
// Returns:
//   - *Transform: the new transform
func New(options ...TransformBuilderOption) *Transform {
	t := &Transform{
		Position: dirty.NewVec3(0, 0, 0),
		Scale:    dirty.NewVec3(1, 1, 1),
		Rotation: dirty.NewQuat(),
	}
	for _, option := range options {
		option(t)
	}
	return t
}

// Parent returns the parent transform, or nil.
func (t *Transform) Parent() *Transform {
	return t.parent
}

// SetParent links the transform under parent. A nil parent detaches it. Changing the parent marks the transform
// dirty since its world matrix changes with it.
func (t *Transform) SetParent(parent *Transform) {
	if t.parent == parent {
		return
	}
	t.parent = parent
	t.Position.Mark()
}

// Renderable reports whether the transform may own a GPU uniform.
func (t *Transform) Renderable() bool {
	return t.renderable
}

// SetRenderable toggles whether the transform may own a GPU uniform.
func (t *Transform) SetRenderable(renderable bool) {
	t.renderable = renderable
}

// LocalMatrix returns translate * rotate * scale.
func (t *Transform) LocalMatrix() mgl32.Mat4 {
	p := t.Position.Get()
	s := t.Scale.Get()
	return mgl32.Translate3D(p[0], p[1], p[2]).
		Mul4(t.Rotation.Get().Normalize().Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// WorldMatrix returns the local matrix composed with every ancestor, parent applied last.
func (t *Transform) WorldMatrix() mgl32.Mat4 {
	m := t.LocalMatrix()
	if t.parent != nil {
		m = t.parent.WorldMatrix().Mul4(m)
	}
	return m
}

// WorldPosition returns the translation of the world matrix.
func (t *Transform) WorldPosition() mgl32.Vec3 {
	return t.WorldMatrix().Col(3).Vec3()
}

// IsDirty reports whether the world matrix changed since the last Clean.
func (t *Transform) IsDirty() bool {
	if dirty.Any(t.Position, t.Scale, t.Rotation) {
		return true
	}
	return t.parent != nil && t.parent.IsDirty()
}

// Clean clears the transform's own dirty bits. The parent is left untouched, so IsDirty stays true while the
// parent is still dirty.
func (t *Transform) Clean() {
	dirty.CleanAll(t.Position, t.Scale, t.Rotation)
}

// Copy takes over position, scale and rotation of other. The parent link is not copied.
func (t *Transform) Copy(other *Transform) {
	t.Position.SetVec(other.Position.Get())
	t.Scale.SetVec(other.Scale.Get())
	t.Rotation.Set(other.Rotation.Get())
}

// Identity resets position, scale and rotation.
func (t *Transform) Identity() {
	t.Copy(New())
}

// Update uploads the world matrix when it changed. Non-renderable transforms are only cleaned. Transforms whose
// bind group has not been requested yet stay dirty; the upload happens when BindGroup first runs.
//
// Parameters:
//   - device: the device the uniform lives on
//
// Returns:
//   - error: an error if the upload failed
func (t *Transform) Update(device gpu.Device) error {
	if !t.renderable {
		t.Clean()
		return nil
	}
	if t.provider == nil || !t.provider.Initialized() || !t.IsDirty() {
		return nil
	}
	return t.upload(device)
}

// BindGroup returns the bind group holding the world matrix, creating and filling it on first use.
//
// Parameters:
//   - device: the device to allocate on
//
// Returns:
//   - gpu.BindGroup: the transform bind group
//   - error: an error if GPU resources could not be created
func (t *Transform) BindGroup(device gpu.Device) (gpu.BindGroup, error) {
	if !t.renderable {
		panic(ErrNotRenderable)
	}
	if t.provider != nil && t.provider.Initialized() {
		return t.provider.BindGroup(), nil
	}

	layouts, err := bind_group_provider.For(device)
	if err != nil {
		return nil, err
	}
	if t.provider == nil {
		t.provider = bind_group_provider.NewBindGroupProvider("transform_" + strconv.FormatUint(transformCount.Add(1), 10))
	}
	if err := t.provider.Init(device, layouts.Transform, bind_group_provider.TransformEntries); err != nil {
		return nil, err
	}
	if err := t.upload(device); err != nil {
		return nil, err
	}
	return t.provider.BindGroup(), nil
}

// Release frees the GPU uniform. The transform can be bound again afterwards.
func (t *Transform) Release() {
	if t.provider != nil {
		t.provider.Release()
		t.provider = nil
	}
}

// Snapshot remembers a world matrix. Owners that must not clean the transform themselves, such as lights and
// cameras whose children still need the inherited dirty bit, use it to notice movement.
type Snapshot struct {
	world mgl32.Mat4
	valid bool
}

// Changed reports whether the world matrix of t differs from the last Take.
func (s *Snapshot) Changed(t *Transform) bool {
	return !s.valid || s.world != t.WorldMatrix()
}

// Take records the current world matrix of t.
func (s *Snapshot) Take(t *Transform) {
	s.world = t.WorldMatrix()
	s.valid = true
}

func (t *Transform) upload(device gpu.Device) error {
	u := GPUTransformUniform{Model: t.WorldMatrix()}
	if err := t.provider.Write(device.Queue(), 0, 0, u.Marshal()); err != nil {
		return err
	}
	t.Clean()
	return nil
}
