package camera

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/bind_group_provider"
)

// ViewUniform owns the group 0 bind group of anything a pass can look through. Cameras and shadow casting lights
// both embed one.
type ViewUniform struct {
	provider bind_group_provider.BindGroupProvider
}

// NewViewUniform creates an uninitialized view uniform.
//
// Parameters:
//   - label: the debug label of the bind group and its buffers
//
// Returns:
//   - *ViewUniform: the view uniform
func NewViewUniform(label string) *ViewUniform {
	return &ViewUniform{provider: bind_group_provider.NewBindGroupProvider(label)}
}

// Initialized reports whether the bind group exists.
func (v *ViewUniform) Initialized() bool {
	return v.provider.Initialized()
}

// Label returns the debug label.
func (v *ViewUniform) Label() string {
	return v.provider.Label()
}

// BindGroup returns the bind group, creating it and uploading u on first use.
//
// Parameters:
//   - device: the device to allocate on
//   - u: the current uniform, only written on first use
//
// Returns:
//   - gpu.BindGroup: the view bind group
//   - bool: true when the bind group was created by this call
//   - error: an error if GPU resources could not be created
func (v *ViewUniform) BindGroup(device gpu.Device, u func() GPUViewUniform) (gpu.BindGroup, bool, error) {
	if v.provider.Initialized() {
		return v.provider.BindGroup(), false, nil
	}
	layouts, err := bind_group_provider.For(device)
	if err != nil {
		return nil, false, err
	}
	if err := v.provider.Init(device, layouts.View, bind_group_provider.ViewEntries); err != nil {
		return nil, false, err
	}
	if err := v.Write(device, u()); err != nil {
		return nil, false, err
	}
	return v.provider.BindGroup(), true, nil
}

// Write uploads u. It is a no-op before the bind group exists.
//
// Parameters:
//   - device: the device the buffers live on
//   - u: the uniform to upload
//
// Returns:
//   - error: an error if a buffer is missing
func (v *ViewUniform) Write(device gpu.Device, u GPUViewUniform) error {
	if !v.provider.Initialized() {
		return nil
	}
	return bind_group_provider.Flush(device.Queue(),
		bind_group_provider.BufferWrite{Provider: v.provider, Binding: 0, Data: u.MarshalViewProj()},
		bind_group_provider.BufferWrite{Provider: v.provider, Binding: 1, Data: u.MarshalPosition()},
	)
}

// Release frees the bind group and its buffers.
func (v *ViewUniform) Release() {
	v.provider.Release()
}
