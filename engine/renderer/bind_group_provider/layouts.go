package bind_group_provider

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
)

// Group indices every mesh pipeline agrees on.
const (
	GroupView      = 0
	GroupTransform = 1
	GroupImage     = 2
	GroupLight     = 3
)

// Uniform sizes in bytes.
const (
	ViewMatrixSize    = 64
	ViewPositionSize  = 16
	TransformSize     = 64
	LightCountSize    = 16
	LightRecordFloats = 40
	LightRecordSize   = LightRecordFloats * 4
	ShadowIndexSize   = 4
)

// ViewEntries describes group 0: the view-projection matrix and the eye position. Cameras and shadow-casting
// lights both bind against it.
var ViewEntries = []gpu.BindGroupLayoutEntry{
	{Binding: 0, Visibility: gpu.ShaderStageVertex | gpu.ShaderStageFragment, Buffer: gpu.BufferBindingLayout{Type: gpu.BufferBindingTypeUniform, MinBindingSize: ViewMatrixSize}},
	{Binding: 1, Visibility: gpu.ShaderStageFragment, Buffer: gpu.BufferBindingLayout{Type: gpu.BufferBindingTypeUniform, MinBindingSize: ViewPositionSize}},
}

// TransformEntries describes group 1: the model matrix of one transform.
var TransformEntries = []gpu.BindGroupLayoutEntry{
	{Binding: 0, Visibility: gpu.ShaderStageVertex, Buffer: gpu.BufferBindingLayout{Type: gpu.BufferBindingTypeUniform, MinBindingSize: TransformSize}},
}

// ImageEntries describes group 2 of textured materials: a filtering sampler and a float texture.
var ImageEntries = []gpu.BindGroupLayoutEntry{
	{Binding: 0, Visibility: gpu.ShaderStageFragment, Sampler: gpu.SamplerBindingLayout{Type: gpu.SamplerBindingTypeFiltering}},
	{Binding: 1, Visibility: gpu.ShaderStageFragment, Texture: gpu.TextureBindingLayout{SampleType: gpu.TextureSampleTypeFloat}},
}

// DepthImageEntries describes group 2 of the shadow atlas debug material: a sampler and a depth texture.
var DepthImageEntries = []gpu.BindGroupLayoutEntry{
	{Binding: 0, Visibility: gpu.ShaderStageFragment, Sampler: gpu.SamplerBindingLayout{Type: gpu.SamplerBindingTypeNonFiltering}},
	{Binding: 1, Visibility: gpu.ShaderStageFragment, Texture: gpu.TextureBindingLayout{SampleType: gpu.TextureSampleTypeDepth}},
}

// LightEntries describes group 3: light count, the light records, the shadow atlas with its comparison sampler
// and the per-light atlas slot indices.
var LightEntries = []gpu.BindGroupLayoutEntry{
	{Binding: 0, Visibility: gpu.ShaderStageFragment, Buffer: gpu.BufferBindingLayout{Type: gpu.BufferBindingTypeUniform, MinBindingSize: LightCountSize}},
	{Binding: 1, Visibility: gpu.ShaderStageFragment, Buffer: gpu.BufferBindingLayout{Type: gpu.BufferBindingTypeReadOnlyStorage, MinBindingSize: LightRecordSize}},
	{Binding: 2, Visibility: gpu.ShaderStageFragment, Texture: gpu.TextureBindingLayout{SampleType: gpu.TextureSampleTypeDepth}},
	{Binding: 3, Visibility: gpu.ShaderStageFragment, Sampler: gpu.SamplerBindingLayout{Type: gpu.SamplerBindingTypeComparison}},
	{Binding: 4, Visibility: gpu.ShaderStageFragment, Buffer: gpu.BufferBindingLayout{Type: gpu.BufferBindingTypeReadOnlyStorage, MinBindingSize: ShadowIndexSize}},
}

// Layouts holds the bind group layouts shared by every pipeline created on one device.
type Layouts struct {
	View       gpu.BindGroupLayout
	Transform  gpu.BindGroupLayout
	Image      gpu.BindGroupLayout
	DepthImage gpu.BindGroupLayout
	Light      gpu.BindGroupLayout
}

var (
	layoutsMu sync.Mutex
	layouts   = map[gpu.Device]*Layouts{}
)

// For returns the shared layouts of device, creating them on first use.
//
// Parameters:
//   - device: the device the layouts belong to
//
// Returns:
//   - *Layouts: the cached layouts
//   - error: an error if a layout could not be created
func For(device gpu.Device) (*Layouts, error) {
	layoutsMu.Lock()
	defer layoutsMu.Unlock()

	if l, ok := layouts[device]; ok {
		return l, nil
	}

	l := &Layouts{}
	for _, def := range []struct {
		label   string
		entries []gpu.BindGroupLayoutEntry
		dst     *gpu.BindGroupLayout
	}{
		{"view", ViewEntries, &l.View},
		{"transform", TransformEntries, &l.Transform},
		{"image", ImageEntries, &l.Image},
		{"depth_image", DepthImageEntries, &l.DepthImage},
		{"light", LightEntries, &l.Light},
	} {
		layout, err := device.CreateBindGroupLayout(gpu.BindGroupLayoutDescriptor{Label: def.label, Entries: def.entries})
		if err != nil {
			return nil, fmt.Errorf("bind_group_provider: failed to create %s layout: %w", def.label, err)
		}
		*def.dst = layout
	}
	layouts[device] = l
	return l, nil
}

// MustFor is For that panics on failure. Layout creation only fails on a lost device.
func MustFor(device gpu.Device) *Layouts {
	l, err := For(device)
	if err != nil {
		panic(err)
	}
	return l
}

// Forget drops the cached layouts of device and releases them.
func Forget(device gpu.Device) {
	layoutsMu.Lock()
	defer layoutsMu.Unlock()

	l, ok := layouts[device]
	if !ok {
		return
	}
	for _, layout := range []gpu.BindGroupLayout{l.View, l.Transform, l.Image, l.DepthImage, l.Light} {
		layout.Release()
	}
	delete(layouts, device)
}
