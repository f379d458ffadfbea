// Package material provides the engine's materials. Every material kind compiles one pipeline per device, shared by
// all of its instances; instances only differ in the bind groups they add.
package material

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/logger"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"go.uber.org/zap"
)

var (
	// ErrConflictingOptions is returned when more than one colour source is given to a textured material.
	ErrConflictingOptions = errors.New("material: only one of color, texture, bitmap or image file may be set")

	// ErrNoSource is returned when a textured material has no colour source.
	ErrNoSource = errors.New("material: no color, texture, bitmap or image file set")
)

// Material kind keys.
const (
	KeyBasic       = "basic"
	KeyStandard    = "standard"
	KeyUV          = "uv"
	KeyShadowDepth = "shadow_depth"
)

var materialCount atomic.Uint64

// BasicMaterial shades meshes with a texture or a flat colour and no lighting.
type BasicMaterial struct {
	label string

	color   *[4]float32
	view    gpu.TextureView
	sampler gpu.Sampler
	bitmap  image.Image
	path    string

	staging     *common.TextureStagingData
	texture     gpu.Texture
	ownsView    bool
	ownsSampler bool
	provider    bind_group_provider.BindGroupProvider
	failed      bool
}

var _ scene.Material = &BasicMaterial{}

// NewBasic creates an unlit textured material. Exactly one of WithColor, WithTexture, WithBitmap or WithImageFile
// must be given.
//
// Parameters:
//   - options: functional options to configure the material
//
// Returns:
//   - *BasicMaterial: the material
//   - error: ErrConflictingOptions, ErrNoSource, or an image decoding error
func NewBasic(options ...MaterialBuilderOption) (*BasicMaterial, error) {
	m := &BasicMaterial{label: "material_" + strconv.FormatUint(materialCount.Add(1), 10)}
	for _, option := range options {
		option(m)
	}

	sources := 0
	for _, set := range []bool{m.color != nil, m.view != nil, m.bitmap != nil, m.path != ""} {
		if set {
			sources++
		}
	}
	switch {
	case sources > 1:
		return nil, ErrConflictingOptions
	case sources == 0:
		return nil, ErrNoSource
	}

	switch {
	case m.color != nil:
		m.staging = common.FromColor(m.color[0], m.color[1], m.color[2], m.color[3])
	case m.bitmap != nil:
		m.staging = common.FromImage(m.bitmap)
	case m.path != "":
		data, err := common.LoadImage(m.path)
		if err != nil {
			return nil, fmt.Errorf("material: %w", err)
		}
		m.staging = data
	}
	m.provider = bind_group_provider.NewBindGroupProvider(m.label)
	return m, nil
}

// Label returns the material's debug label.
func (m *BasicMaterial) Label() string { return m.label }

// Key returns the material kind.
func (m *BasicMaterial) Key() string { return KeyBasic }

// Ready reports whether the material's own bind group exists.
func (m *BasicMaterial) Ready() bool { return m.provider.Initialized() }

func (m *BasicMaterial) program() program {
	return program{
		key:      KeyBasic,
		fragment: shader.BasicFragment,
		groups: func(l *bind_group_provider.Layouts) []gpu.BindGroupLayout {
			return []gpu.BindGroupLayout{l.Image}
		},
		options: []pipeline.PipelineBuilderOption{pipeline.WithBlendEnabled(true)},
	}
}

func (m *BasicMaterial) Mount(op *scene.DrawOperation, base []gpu.BindGroupLayout, onMounted func()) {
	m.prepare(op.Device())
	mount(op, m.program(), base, onMounted)
}

func (m *BasicMaterial) Use(op *scene.DrawOperation) bool {
	if !m.provider.Initialized() || !bindPipeline(op, KeyBasic) {
		return false
	}
	op.Target().SetBindGroup(bind_group_provider.GroupImage, m.provider.BindGroup())
	return true
}

// prepare creates the image bind group on first use. A failure is logged once and leaves the material unusable.
func (m *BasicMaterial) prepare(device gpu.Device) {
	if m.failed || m.provider.Initialized() {
		return
	}
	if err := m.initImage(device); err != nil {
		m.failed = true
		m.releaseImage()
		logger.Named("material").Error("image bind group", zap.String("material", m.label), zap.Error(err))
	}
}

func (m *BasicMaterial) initImage(device gpu.Device) error {
	layouts, err := bind_group_provider.For(device)
	if err != nil {
		return err
	}

	if m.view == nil {
		tex, err := device.CreateTexture(gpu.TextureDescriptor{
			Label:         m.label + "_texture",
			Width:         m.staging.Width,
			Height:        m.staging.Height,
			Format:        gpu.TextureFormatRGBA8Unorm,
			Usage:         gpu.TextureUsageTextureBinding | gpu.TextureUsageCopyDst,
			SampleCount:   1,
			MipLevelCount: 1,
		})
		if err != nil {
			return fmt.Errorf("material: texture: %w", err)
		}
		m.texture = tex
		device.Queue().WriteTexture(gpu.TextureWrite{
			Texture: tex,
			Pixels:  m.staging.Pixels,
			Width:   m.staging.Width,
			Height:  m.staging.Height,
		})
		view, err := tex.CreateView()
		if err != nil {
			return fmt.Errorf("material: texture view: %w", err)
		}
		m.view = view
		m.ownsView = true
	}

	if m.sampler == nil {
		s, err := device.CreateSampler(gpu.SamplerDescriptor{
			Label:        m.label + "_sampler",
			AddressModeU: gpu.AddressModeRepeat,
			AddressModeV: gpu.AddressModeRepeat,
			AddressModeW: gpu.AddressModeRepeat,
			MagFilter:    gpu.FilterModeLinear,
			MinFilter:    gpu.FilterModeLinear,
			MipmapFilter: gpu.FilterModeLinear,
			LodMaxClamp:  32,
		})
		if err != nil {
			return fmt.Errorf("material: sampler: %w", err)
		}
		m.sampler = s
		m.ownsSampler = true
	}

	m.provider.SetSampler(0, m.sampler)
	m.provider.SetTextureView(1, m.view)
	return m.provider.Init(device, layouts.Image, bind_group_provider.ImageEntries)
}

func (m *BasicMaterial) releaseImage() {
	m.provider.Release()
	if m.ownsView && m.view != nil {
		m.view.Release()
		m.view = nil
	}
	if m.texture != nil {
		m.texture.Release()
		m.texture = nil
	}
	if m.ownsSampler && m.sampler != nil {
		m.sampler.Release()
		m.sampler = nil
	}
}

// Release frees the material's own GPU resources. The shared pipeline stays cached.
func (m *BasicMaterial) Release() {
	m.releaseImage()
}

// StandardMaterial is a BasicMaterial lit by the scene lights, with shadows when the scene has a shadow atlas.
type StandardMaterial struct {
	*BasicMaterial
}

var _ scene.Material = &StandardMaterial{}

// NewStandard creates a lit textured material. It accepts the same options as NewBasic.
//
// Parameters:
//   - options: functional options to configure the material
//
// Returns:
//   - *StandardMaterial: the material
//   - error: ErrConflictingOptions, ErrNoSource, or an image decoding error
func NewStandard(options ...MaterialBuilderOption) (*StandardMaterial, error) {
	basic, err := NewBasic(options...)
	if err != nil {
		return nil, err
	}
	return &StandardMaterial{BasicMaterial: basic}, nil
}

// StandardConstants returns the shader constants a standard pipeline is compiled with for s.
//
// Parameters:
//   - s: the scene being drawn, may be nil
//
// Returns:
//   - shader.Constants: the constants
func StandardConstants(s *scene.Scene) shader.Constants {
	consts := shader.Constants{
		"hasShadowMap":           false,
		"shadowDepthTextureSize": 1,
		"mapsX":                  1,
		"mapsY":                  1,
		"maxNumLights":           scene.DefaultMaxNumLights,
	}
	if s == nil {
		return consts
	}
	consts["maxNumLights"] = s.MaxNumLights()
	if atlas := s.ShadowAtlas(); atlas != nil {
		consts["hasShadowMap"] = true
		consts["shadowDepthTextureSize"] = atlas.TileSize
		consts["mapsX"] = atlas.MapsX
		consts["mapsY"] = atlas.MapsY
	}
	return consts
}

// standardKey names the standard pipeline variant compiled for consts.
func standardKey(consts shader.Constants) string {
	if consts["hasShadowMap"] == true {
		return fmt.Sprintf("%s_l%v_s%vx%v_%v", KeyStandard, consts["maxNumLights"], consts["mapsX"], consts["mapsY"], consts["shadowDepthTextureSize"])
	}
	return fmt.Sprintf("%s_l%v", KeyStandard, consts["maxNumLights"])
}

// Key returns the standard pipeline variant for s.
func (m *StandardMaterial) Key(s *scene.Scene) string {
	return standardKey(StandardConstants(s))
}

func (m *StandardMaterial) program(s *scene.Scene) program {
	consts := StandardConstants(s)
	return program{
		key:      standardKey(consts),
		fragment: shader.StandardFragment,
		consts:   consts,
		groups: func(l *bind_group_provider.Layouts) []gpu.BindGroupLayout {
			return []gpu.BindGroupLayout{l.Image, l.Light}
		},
		options: []pipeline.PipelineBuilderOption{pipeline.WithBlendEnabled(true)},
	}
}

func (m *StandardMaterial) Mount(op *scene.DrawOperation, base []gpu.BindGroupLayout, onMounted func()) {
	m.prepare(op.Device())
	mount(op, m.program(op.Scene()), base, onMounted)
}

func (m *StandardMaterial) Use(op *scene.DrawOperation) bool {
	s := op.Scene()
	if s == nil || s.LightBindGroup() == nil || !m.provider.Initialized() {
		return false
	}
	if !bindPipeline(op, m.Key(s)) {
		return false
	}
	op.Target().SetBindGroup(bind_group_provider.GroupImage, m.provider.BindGroup())
	op.Target().SetBindGroup(bind_group_provider.GroupLight, s.LightBindGroup())
	return true
}

// UVMaterial colours fragments by their texture coordinates.
type UVMaterial struct{}

var _ scene.Material = &UVMaterial{}

// NewUV creates a texture coordinate debug material.
func NewUV() *UVMaterial { return &UVMaterial{} }

func (m *UVMaterial) Key() string { return KeyUV }

func (m *UVMaterial) Mount(op *scene.DrawOperation, base []gpu.BindGroupLayout, onMounted func()) {
	mount(op, program{key: KeyUV, fragment: shader.UVFragment}, base, onMounted)
}

func (m *UVMaterial) Use(op *scene.DrawOperation) bool {
	return bindPipeline(op, KeyUV)
}

// ShadowDepthMaterial draws the scene's shadow atlas over the whole viewport. It draws a full-screen triangle
// and needs no geometry buffers.
type ShadowDepthMaterial struct {
	label    string
	provider bind_group_provider.BindGroupProvider
	bound    gpu.TextureView
	sampler  gpu.Sampler
}

var _ scene.Material = &ShadowDepthMaterial{}

// NewShadowDepth creates the shadow atlas debug material.
func NewShadowDepth() *ShadowDepthMaterial {
	return &ShadowDepthMaterial{label: "shadow_depth_" + strconv.FormatUint(materialCount.Add(1), 10)}
}

func (m *ShadowDepthMaterial) Key() string { return KeyShadowDepth }

func (m *ShadowDepthMaterial) Mount(op *scene.DrawOperation, base []gpu.BindGroupLayout, onMounted func()) {
	if err := m.prepare(op); err != nil {
		logger.Named("material").Warn("shadow atlas bind group", zap.String("material", m.label), zap.Error(err))
	}
	mount(op, program{
		key:      KeyShadowDepth,
		vertex:   shader.ShadowDepthVertex,
		fragment: shader.ShadowDepthFragment,
		groups: func(l *bind_group_provider.Layouts) []gpu.BindGroupLayout {
			return []gpu.BindGroupLayout{l.DepthImage}
		},
		options: []pipeline.PipelineBuilderOption{
			pipeline.WithDepthWriteEnabled(false),
			pipeline.WithDepthCompare(gpu.CompareFunctionAlways),
			pipeline.WithCullMode(gpu.CullModeNone),
		},
	}, base, onMounted)
}

func (m *ShadowDepthMaterial) Use(op *scene.DrawOperation) bool {
	if m.provider == nil || !m.provider.Initialized() || !bindPipeline(op, KeyShadowDepth) {
		return false
	}
	op.Target().SetBindGroup(bind_group_provider.GroupImage, m.provider.BindGroup())
	return true
}

// prepare binds the scene's current atlas, rebuilding the bind group when the atlas was replaced.
func (m *ShadowDepthMaterial) prepare(op *scene.DrawOperation) error {
	s := op.Scene()
	if s == nil || s.ShadowAtlas() == nil {
		return nil
	}
	view := s.ShadowAtlas().View
	if m.provider != nil && m.bound == view {
		return nil
	}
	if m.provider != nil {
		m.provider.Release()
		m.provider = nil
	}

	device := op.Device()
	layouts, err := bind_group_provider.For(device)
	if err != nil {
		return err
	}
	if m.sampler == nil {
		m.sampler, err = device.CreateSampler(gpu.SamplerDescriptor{
			Label:        m.label + "_sampler",
			AddressModeU: gpu.AddressModeClampToEdge,
			AddressModeV: gpu.AddressModeClampToEdge,
			AddressModeW: gpu.AddressModeClampToEdge,
			MagFilter:    gpu.FilterModeNearest,
			MinFilter:    gpu.FilterModeNearest,
			MipmapFilter: gpu.FilterModeNearest,
		})
		if err != nil {
			return fmt.Errorf("material: sampler: %w", err)
		}
	}
	p := bind_group_provider.NewBindGroupProvider(m.label,
		bind_group_provider.WithSampler(0, m.sampler),
		bind_group_provider.WithTextureView(1, view),
	)
	if err := p.Init(device, layouts.DepthImage, bind_group_provider.DepthImageEntries); err != nil {
		return err
	}
	m.provider = p
	m.bound = view
	return nil
}

// Release frees the material's bind group and sampler.
func (m *ShadowDepthMaterial) Release() {
	if m.provider != nil {
		m.provider.Release()
		m.provider = nil
	}
	if m.sampler != nil {
		m.sampler.Release()
		m.sampler = nil
	}
	m.bound = nil
}
