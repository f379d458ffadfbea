package scene

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-scene/engine/extension"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/logger"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/bind_group_provider"
	"go.uber.org/zap"
)

// EventMount is the scene event wrapped around Mount.
const EventMount extension.Event = "mount"

// DefaultMaxNumLights is the light buffer capacity used when WithMaxNumLights is not given.
const DefaultMaxNumLights = 16

// SceneExtension is a feature module attached to a scene.
type SceneExtension = extension.Extension[*Scene]

// ShadowAtlas describes the depth texture shadow casting lights render into, one tile per light.
type ShadowAtlas struct {
	View     gpu.TextureView
	Sampler  gpu.Sampler
	TileSize uint32
	MapsX    int
	MapsY    int
}

// Width returns the atlas width in texels.
func (a *ShadowAtlas) Width() uint32 { return a.TileSize * uint32(a.MapsX) }

// Height returns the atlas height in texels.
func (a *ShadowAtlas) Height() uint32 { return a.TileSize * uint32(a.MapsY) }

// Scene is the root of a renderable tree. It owns the light buffers every lit material binds at group 3.
//
// The light bind group always exposes a depth texture and a comparison sampler: the shadow atlas when an
// extension published one, otherwise a 1x1 placeholder, so the layout never depends on shadows being enabled.
type Scene struct {
	Object3D

	maxNumLights int

	ext   extension.Host[*Scene]
	hooks extension.Hooks[gpu.Device]

	countBuf gpu.Buffer
	lightBuf gpu.Buffer
	indexBuf gpu.Buffer

	placeholder     gpu.Texture
	placeholderView gpu.TextureView
	compareSampler  gpu.Sampler

	provider bind_group_provider.BindGroupProvider
	atlas    *ShadowAtlas

	lights      []Light
	slots       map[Light]int
	slotsStale  bool
	mountedOnce bool
}

// NewScene creates an empty scene.
//
// Parameters:
//   - options: functional options to configure the scene
//
// Returns:
//   - *Scene: the new scene
func NewScene(options ...SceneBuilderOption) *Scene {
	s := &Scene{
		maxNumLights: DefaultMaxNumLights,
		slots:        make(map[Light]int),
	}
	s.Init(s, KindScene)
	s.SetName("scene")
	for _, option := range options {
		option(s)
	}
	return s
}

// MaxNumLights returns the light buffer capacity.
func (s *Scene) MaxNumLights() int { return s.maxNumLights }

// AddExtension attaches ext. Adding the same extension twice is a no-op.
func (s *Scene) AddExtension(ext SceneExtension) {
	s.ext.Add(s, ext)
}

// Extensions returns the attached extensions in insertion order.
func (s *Scene) Extensions() []SceneExtension {
	return s.ext.Extensions()
}

// Hooks returns the hook table extensions register scene events on.
func (s *Scene) Hooks() *extension.Hooks[gpu.Device] {
	return &s.hooks
}

// Mount refreshes the GPU-resident scene state: it allocates the light buffers on first call and re-uploads the
// light records when any light changed. Pre and after hooks of EventMount run around it.
//
// Parameters:
//   - device: the device to allocate on
//
// Returns:
//   - error: an error if GPU resources could not be created
func (s *Scene) Mount(device gpu.Device) error {
	return s.hooks.Run(EventMount, device, func() error {
		if err := s.ensureResources(device); err != nil {
			return err
		}
		return s.UpdateLights(device)
	})
}

// Mounted reports whether the light buffers exist.
func (s *Scene) Mounted() bool {
	return s.mountedOnce
}

// LightBindGroup returns the group 3 bind group, or nil before the first Mount.
func (s *Scene) LightBindGroup() gpu.BindGroup {
	if s.provider == nil {
		return nil
	}
	return s.provider.BindGroup()
}

// LightBuffer returns the light record storage buffer, or nil before the first Mount.
func (s *Scene) LightBuffer() gpu.Buffer { return s.lightBuf }

// LightCountBuffer returns the light count uniform buffer, or nil before the first Mount.
func (s *Scene) LightCountBuffer() gpu.Buffer { return s.countBuf }

// ShadowIndexBuffer returns the per-light atlas slot buffer, or nil before the first Mount.
func (s *Scene) ShadowIndexBuffer() gpu.Buffer { return s.indexBuf }

// ShadowAtlas returns the published atlas, or nil.
func (s *Scene) ShadowAtlas() *ShadowAtlas { return s.atlas }

// SetShadowAtlas publishes the atlas lights render into. The light bind group is rebuilt against it and the
// slot table is rewritten by the next UpdateLights.
//
// Parameters:
//   - device: the device the bind group is created on
//   - atlas: the atlas, or nil to fall back to the placeholder
//
// Returns:
//   - error: an error if the bind group could not be rebuilt
func (s *Scene) SetShadowAtlas(device gpu.Device, atlas *ShadowAtlas) error {
	s.atlas = atlas
	s.slotsStale = true
	if s.provider == nil {
		return nil
	}
	return s.rebind(device)
}

// Lights returns the lights in the order of the last UpdateLights. The order is the index space of the light
// buffer and of shadow slots.
func (s *Scene) Lights() []Light {
	return s.lights
}

// ShadowSlot returns the dense atlas slot of a shadow light.
//
// Returns:
//   - int: the slot
//   - bool: false for lights without a slot
func (s *Scene) ShadowSlot(l Light) (int, bool) {
	slot, ok := s.slots[l]
	return slot, ok
}

// ShadowLights returns the shadow lights in slot order.
func (s *Scene) ShadowLights() []ShadowLight {
	var out []ShadowLight
	for _, l := range s.lights {
		if sl, ok := l.(ShadowLight); ok {
			out = append(out, sl)
		}
	}
	return out
}

// UpdateLights re-serialises every light when any of them changed, when lights were added or removed, or when
// the atlas changed. Otherwise it performs no GPU writes.
//
// Parameters:
//   - device: the device the light buffers live on
//
// Returns:
//   - error: an error if the light buffers were never allocated
func (s *Scene) UpdateLights(device gpu.Device) error {
	if s.provider == nil {
		return fmt.Errorf("scene: %s: UpdateLights called before Mount", s.Name())
	}

	lights := collectLights(s)
	if len(lights) > s.maxNumLights {
		logger.Named("scene").Warn("light buffer full, dropping lights",
			zap.String("scene", s.Name()),
			zap.Int("lights", len(lights)),
			zap.Int("max", s.maxNumLights))
		lights = lights[:s.maxNumLights]
	}

	changed := s.slotsStale || !slices.Equal(lights, s.lights)
	for _, l := range lights {
		if l.IsDirty() {
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}

	s.lights = lights
	clear(s.slots)
	slot := 0
	for _, l := range lights {
		if _, ok := l.(ShadowLight); ok {
			s.slots[l] = slot
			slot++
		}
	}

	data := make([]byte, s.maxNumLights*bind_group_provider.LightRecordSize)
	indices := make(GPUShadowIndices, s.maxNumLights)
	for i := range indices {
		indices[i] = -1
	}
	for i, l := range lights {
		rec := l.Record()
		if slot, ok := s.slots[l]; ok && s.atlas != nil && l.Object().CastShadow() {
			indices[i] = int32(slot)
		}
		rec[RecordShadowSlot] = float32(indices[i])
		copy(data[i*bind_group_provider.LightRecordSize:], rec.Marshal())
	}

	queue := device.Queue()
	writes := []bind_group_provider.BufferWrite{
		{Provider: s.provider, Binding: 1, Data: data},
		{Provider: s.provider, Binding: 0, Data: GPULightCount{Count: uint32(len(lights))}.Marshal()},
	}
	if s.atlas != nil {
		writes = append(writes, bind_group_provider.BufferWrite{Provider: s.provider, Binding: 4, Data: indices.Marshal()})
	}
	if err := bind_group_provider.Flush(queue, writes...); err != nil {
		return err
	}

	for _, l := range lights {
		l.Clean()
	}
	s.slotsStale = false

	logger.Named("scene").Debug("uploaded lights",
		zap.String("scene", s.Name()),
		zap.Int("count", len(lights)),
		zap.Int("shadow_slots", slot))
	return nil
}

// Release frees the scene's own GPU resources. Extension resources are released by their owners.
func (s *Scene) Release() {
	if s.provider != nil {
		s.provider.Release()
		s.provider = nil
	}
	for _, r := range []gpu.Releaser{s.countBuf, s.lightBuf, s.indexBuf, s.placeholderView, s.placeholder, s.compareSampler} {
		if r != nil {
			r.Release()
		}
	}
	s.countBuf, s.lightBuf, s.indexBuf = nil, nil, nil
	s.placeholder, s.placeholderView, s.compareSampler = nil, nil, nil
	s.lights = nil
	clear(s.slots)
	s.mountedOnce = false
}

func collectLights(root Node) []Light {
	var lights []Light
	for l := range ReadObjects[Light](root) {
		lights = append(lights, l)
	}
	return lights
}

func (s *Scene) ensureResources(device gpu.Device) error {
	if s.provider != nil {
		return nil
	}

	var err error
	if s.countBuf, err = device.CreateBuffer(gpu.BufferDescriptor{
		Label: s.Name() + "_light_count",
		Size:  bind_group_provider.LightCountSize,
		Usage: gpu.BufferUsageUniform | gpu.BufferUsageCopyDst,
	}); err != nil {
		return fmt.Errorf("scene: failed to create light count buffer: %w", err)
	}
	if s.lightBuf, err = device.CreateBuffer(gpu.BufferDescriptor{
		Label: s.Name() + "_lights",
		Size:  uint64(s.maxNumLights * bind_group_provider.LightRecordSize),
		Usage: gpu.BufferUsageStorage | gpu.BufferUsageCopyDst,
	}); err != nil {
		return fmt.Errorf("scene: failed to create light buffer: %w", err)
	}
	if s.indexBuf, err = device.CreateBuffer(gpu.BufferDescriptor{
		Label: s.Name() + "_shadow_indices",
		Size:  uint64(s.maxNumLights * bind_group_provider.ShadowIndexSize),
		Usage: gpu.BufferUsageStorage | gpu.BufferUsageCopyDst,
	}); err != nil {
		return fmt.Errorf("scene: failed to create shadow index buffer: %w", err)
	}

	if s.placeholder, err = device.CreateTexture(gpu.TextureDescriptor{
		Label:         s.Name() + "_shadow_placeholder",
		Width:         1,
		Height:        1,
		Format:        gpu.TextureFormatDepth32Float,
		Usage:         gpu.TextureUsageTextureBinding | gpu.TextureUsageRenderAttachment,
		SampleCount:   1,
		MipLevelCount: 1,
	}); err != nil {
		return fmt.Errorf("scene: failed to create shadow placeholder: %w", err)
	}
	if s.placeholderView, err = s.placeholder.CreateView(); err != nil {
		return fmt.Errorf("scene: failed to create shadow placeholder view: %w", err)
	}
	if s.compareSampler, err = device.CreateSampler(gpu.SamplerDescriptor{
		Label:   s.Name() + "_shadow_sampler",
		Compare: gpu.CompareFunctionLess,
	}); err != nil {
		return fmt.Errorf("scene: failed to create shadow sampler: %w", err)
	}

	if err := s.rebind(device); err != nil {
		return err
	}
	s.mountedOnce = true
	return nil
}

// rebind creates the light bind group against the current atlas. The buffers outlive the bind group.
func (s *Scene) rebind(device gpu.Device) error {
	layouts, err := bind_group_provider.For(device)
	if err != nil {
		return err
	}

	view, sampler := s.placeholderView, s.compareSampler
	if s.atlas != nil {
		view, sampler = s.atlas.View, s.atlas.Sampler
	}
	p := bind_group_provider.NewBindGroupProvider(s.Name()+"_light_group",
		bind_group_provider.WithBuffer(0, s.countBuf),
		bind_group_provider.WithBuffer(1, s.lightBuf),
		bind_group_provider.WithTextureView(2, view),
		bind_group_provider.WithSampler(3, sampler),
		bind_group_provider.WithBuffer(4, s.indexBuf),
	)
	if err := p.Init(device, layouts.Light, bind_group_provider.LightEntries); err != nil {
		return fmt.Errorf("scene: failed to bind lights: %w", err)
	}
	if s.provider != nil {
		s.provider.Release()
	}
	s.provider = p
	return nil
}
