package light

import (
	"strconv"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// shadowLightCount is an atomic counter used to generate unique view uniform labels.
var shadowLightCount atomic.Uint64

// shadowView is the light-space view uniform a shadow light renders the atlas through. It tracks what it last
// uploaded on its own, because the scene cleans the light record before the shadow pass runs.
type shadowView struct {
	view     *camera.ViewUniform
	uploaded mgl32.Mat4
	valid    bool
}

func newShadowView() shadowView {
	return shadowView{
		view: camera.NewViewUniform("shadow_light_" + strconv.FormatUint(shadowLightCount.Add(1), 10)),
	}
}

func (s *shadowView) bindGroup(device gpu.Device, u func() camera.GPUViewUniform) (gpu.BindGroup, error) {
	bg, created, err := s.view.BindGroup(device, u)
	if err != nil {
		return nil, err
	}
	if created {
		s.uploaded, s.valid = u().ViewProj, true
	}
	return bg, nil
}

func (s *shadowView) update(device gpu.Device, u camera.GPUViewUniform) error {
	if !s.view.Initialized() || (s.valid && s.uploaded == u.ViewProj) {
		return nil
	}
	if err := s.view.Write(device, u); err != nil {
		return err
	}
	s.uploaded, s.valid = u.ViewProj, true
	return nil
}

// Release frees the light's view uniform.
func (s *shadowView) Release() {
	s.view.Release()
	s.valid = false
}

func shadowProjection() mgl32.Mat4 {
	e := DefaultShadowHalfExtent
	return common.Ortho(-e, e, -e, e, DefaultShadowNear, DefaultShadowFar)
}

// DirectionalLight shines from its world position towards a target, with an optional cone falloff.
type DirectionalLight struct {
	lightImpl
	shadowView
}

var _ scene.ShadowLight = &DirectionalLight{}

// NewDirectional creates a shadow casting directional light at the origin aimed at the origin. Position it with
// its transform.
//
// Parameters:
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - *DirectionalLight: the new light
func NewDirectional(opts ...LightBuilderOption) *DirectionalLight {
	l := &DirectionalLight{lightImpl: newLightImpl(), shadowView: newShadowView()}
	l.Init(l, scene.KindLight)
	l.SetName("directional_light")
	for _, opt := range opts {
		opt(&l.lightImpl)
	}
	return l
}

func (l *DirectionalLight) LightType() scene.LightType { return scene.LightDirectional }

// Target returns the point the light is aimed at.
func (l *DirectionalLight) Target() mgl32.Vec3 { return l.target.Get() }

// SetTarget aims the light at a world position.
func (l *DirectionalLight) SetTarget(x, y, z float32) { l.target.Set(x, y, z) }

// Decay returns the distance attenuation exponent.
func (l *DirectionalLight) Decay() float32 { return l.decay.Get() }

// SetDecay sets the distance attenuation exponent.
func (l *DirectionalLight) SetDecay(decay float32) { l.decay.Set(decay) }

// SetCone sets the cone falloff from angles in radians. Fragments inside inner get full spot intensity, outside
// outer none.
func (l *DirectionalLight) SetCone(inner, outer float32) {
	l.innerCone.Set(common.ConeCos(inner))
	l.outerCone.Set(common.ConeCos(outer))
}

// SetSpotIntensity sets the intensity multiplier inside the cone.
func (l *DirectionalLight) SetSpotIntensity(i float32) { l.spotIntensity.Set(i) }

func (l *DirectionalLight) LightMatrix() mgl32.Mat4 {
	return shadowProjection().Mul4(common.LookAt(l.Position(), l.target.Get(), mgl32.Vec3{0, 1, 0}))
}

func (l *DirectionalLight) Record() scene.LightRecord {
	rec := l.baseRecord(scene.LightDirectional)
	rec.SetVec3(scene.RecordPosition, l.Position())
	rec[scene.RecordDecay] = l.decay.Get()
	rec[scene.RecordInnerCone] = l.innerCone.Get()
	rec[scene.RecordOuterCone] = l.outerCone.Get()
	rec.SetVec3(scene.RecordTarget, l.target.Get())
	rec[scene.RecordSpotIntensity] = l.spotIntensity.Get()
	rec.SetBool(scene.RecordCastShadow, l.CastShadow())
	rec.SetMatrix(l.LightMatrix())
	return rec
}

func (l *DirectionalLight) uniform() camera.GPUViewUniform {
	return camera.GPUViewUniform{ViewProj: l.LightMatrix(), Position: l.Position()}
}

func (l *DirectionalLight) BindGroup(device gpu.Device) (gpu.BindGroup, error) {
	return l.bindGroup(device, l.uniform)
}

func (l *DirectionalLight) Update(device gpu.Device) error {
	return l.update(device, l.uniform())
}

// SunLight is an infinitely distant light shining along a direction. Its node position is ignored.
type SunLight struct {
	lightImpl
	shadowView

	distance float32
}

var _ scene.ShadowLight = &SunLight{}

// NewSun creates a shadow casting sun light shining straight down.
//
// Parameters:
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - *SunLight: the new light
func NewSun(opts ...LightBuilderOption) *SunLight {
	l := &SunLight{lightImpl: newLightImpl(), shadowView: newShadowView(), distance: DefaultSunDistance}
	l.Init(l, scene.KindLight)
	l.SetName("sun_light")
	for _, opt := range opts {
		opt(&l.lightImpl)
	}
	return l
}

func (l *SunLight) LightType() scene.LightType { return scene.LightSun }

// Direction returns the direction the light travels in.
func (l *SunLight) Direction() mgl32.Vec3 { return l.direction.Get() }

// SetDirection sets the direction the light travels in.
func (l *SunLight) SetDirection(x, y, z float32) { l.direction.Set(x, y, z) }

// eye is where the shadow camera sits: back along the direction from the origin.
func (l *SunLight) eye() mgl32.Vec3 {
	d := l.direction.Get()
	if d.Len() == 0 {
		d = mgl32.Vec3{0, -1, 0}
	}
	return d.Normalize().Mul(-l.distance)
}

func (l *SunLight) LightMatrix() mgl32.Mat4 {
	return shadowProjection().Mul4(common.LookAt(l.eye(), mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}))
}

func (l *SunLight) Record() scene.LightRecord {
	rec := l.baseRecord(scene.LightSun)
	rec.SetVec3(scene.RecordPosition, l.direction.Get())
	rec.SetBool(scene.RecordCastShadow, l.CastShadow())
	rec.SetMatrix(l.LightMatrix())
	return rec
}

func (l *SunLight) uniform() camera.GPUViewUniform {
	return camera.GPUViewUniform{ViewProj: l.LightMatrix(), Position: l.eye()}
}

func (l *SunLight) BindGroup(device gpu.Device) (gpu.BindGroup, error) {
	return l.bindGroup(device, l.uniform)
}

func (l *SunLight) Update(device gpu.Device) error {
	return l.update(device, l.uniform())
}
