// Package light provides the concrete scene lights. Every light serialises into the same fixed-size record in
// the scene's light buffer; sun and directional lights additionally render into the shadow atlas.
package light

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/dirty"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// lightImpl holds every field any light type records. Each concrete type only serialises the ones it uses.
type lightImpl struct {
	scene.Object3D

	color         *dirty.Color
	intensity     *dirty.Float
	decay         *dirty.Float
	innerCone     *dirty.Float // cosine
	outerCone     *dirty.Float // cosine
	spotIntensity *dirty.Float
	target        *dirty.Vec3
	direction     *dirty.Vec3

	moved transform.Snapshot
}

func newLightImpl() lightImpl {
	return lightImpl{
		color:         dirty.NewColor(1, 1, 1),
		intensity:     dirty.NewFloat(1),
		decay:         dirty.NewFloat(2),
		innerCone:     dirty.NewFloat(math32.Cos(math32.Pi / 8)),
		outerCone:     dirty.NewFloat(math32.Cos(math32.Pi / 6)),
		spotIntensity: dirty.NewFloat(1),
		target:        dirty.NewVec3(0, 0, 0),
		direction:     dirty.NewVec3(0, -1, 0),
	}
}

func (l *lightImpl) tracked() []dirty.Tracked {
	return []dirty.Tracked{
		l.color, l.intensity, l.decay, l.innerCone, l.outerCone, l.spotIntensity, l.target, l.direction,
		l.CastShadowValue(),
	}
}

// IsDirty reports whether the light's record changed since the last Clean, including moves of the light or any
// of its ancestors.
func (l *lightImpl) IsDirty() bool {
	return dirty.Any(l.tracked()...) || l.moved.Changed(l.Transform())
}

func (l *lightImpl) Clean() {
	dirty.CleanAll(l.tracked()...)
	l.moved.Take(l.Transform())
}

// Color returns the light colour.
func (l *lightImpl) Color() mgl32.Vec3 { return l.color.Get() }

// SetColor sets the light colour.
func (l *lightImpl) SetColor(r, g, b float32) { l.color.Set(r, g, b) }

// Intensity returns the brightness multiplier.
func (l *lightImpl) Intensity() float32 { return l.intensity.Get() }

// SetIntensity sets the brightness multiplier.
func (l *lightImpl) SetIntensity(intensity float32) { l.intensity.Set(intensity) }

// Position returns the light's world position.
func (l *lightImpl) Position() mgl32.Vec3 { return l.Transform().WorldPosition() }

func (l *lightImpl) baseRecord(t scene.LightType) scene.LightRecord {
	rec := scene.NewLightRecord(t)
	rec.SetVec3(scene.RecordColor, l.color.Get())
	rec[scene.RecordIntensity] = l.intensity.Get()
	return rec
}

// AmbientLight lights every surface evenly.
type AmbientLight struct {
	lightImpl
}

var _ scene.Light = &AmbientLight{}

// NewAmbient creates an ambient light.
//
// Parameters:
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - *AmbientLight: the new light
func NewAmbient(opts ...LightBuilderOption) *AmbientLight {
	l := &AmbientLight{lightImpl: newLightImpl()}
	l.Init(l, scene.KindLight)
	l.SetName("ambient_light")
	l.SetCastShadow(false)
	for _, opt := range opts {
		opt(&l.lightImpl)
	}
	return l
}

func (l *AmbientLight) LightType() scene.LightType { return scene.LightAmbient }

// Record stores the colour premultiplied by the intensity.
func (l *AmbientLight) Record() scene.LightRecord {
	rec := l.baseRecord(scene.LightAmbient)
	rec.SetVec3(scene.RecordColor, l.color.Get().Mul(l.intensity.Get()))
	return rec
}

// PointLight emits in every direction from its world position.
type PointLight struct {
	lightImpl
}

var _ scene.Light = &PointLight{}

// NewPoint creates a point light at the origin. Point lights never render into the shadow atlas.
//
// Parameters:
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - *PointLight: the new light
func NewPoint(opts ...LightBuilderOption) *PointLight {
	l := &PointLight{lightImpl: newLightImpl()}
	l.Init(l, scene.KindLight)
	l.SetName("point_light")
	l.SetCastShadow(false)
	for _, opt := range opts {
		opt(&l.lightImpl)
	}
	return l
}

func (l *PointLight) LightType() scene.LightType { return scene.LightPoint }

// Decay returns the distance attenuation exponent.
func (l *PointLight) Decay() float32 { return l.decay.Get() }

// SetDecay sets the distance attenuation exponent.
func (l *PointLight) SetDecay(decay float32) { l.decay.Set(decay) }

func (l *PointLight) Record() scene.LightRecord {
	rec := l.baseRecord(scene.LightPoint)
	rec.SetVec3(scene.RecordPosition, l.Position())
	rec[scene.RecordDecay] = l.decay.Get()
	return rec
}
