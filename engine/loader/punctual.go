package loader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/light"
	"github.com/Carmen-Shannon/oxy-scene/engine/logger"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// ErrUnsupportedComponentType is returned for accessor component types that cannot hold indices.
var ErrUnsupportedComponentType = errors.New("loader: unsupported index component type")

// ComponentType is a glTF accessor component type code.
type ComponentType int

const (
	ComponentByte          ComponentType = 5120
	ComponentUnsignedByte  ComponentType = 5121
	ComponentShort         ComponentType = 5122
	ComponentUnsignedShort ComponentType = 5123
	ComponentUnsignedInt   ComponentType = 5125
	ComponentFloat         ComponentType = 5126
)

// Size returns the byte size of one component, or 0 for unknown codes.
func (c ComponentType) Size() int {
	switch c {
	case ComponentByte, ComponentUnsignedByte:
		return 1
	case ComponentShort, ComponentUnsignedShort:
		return 2
	case ComponentUnsignedInt, ComponentFloat:
		return 4
	}
	return 0
}

// IndexComponentType validates a glTF component code for use as an index type. Signed codes are accepted and
// read as their unsigned bit pattern.
//
// Parameters:
//   - code: the accessor componentType
//
// Returns:
//   - ComponentType: the component type
//   - error: ErrUnsupportedComponentType for float and unknown codes
func IndexComponentType(code int) (ComponentType, error) {
	switch c := ComponentType(code); c {
	case ComponentByte, ComponentUnsignedByte, ComponentShort, ComponentUnsignedShort, ComponentUnsignedInt:
		return c, nil
	}
	logger.Named("loader").Warn("unsupported index component type", zap.Int("component_type", code))
	return 0, fmt.Errorf("%w: %d", ErrUnsupportedComponentType, code)
}

// LightDef is a KHR_lights_punctual light definition together with the world pose of the node that instantiates
// it.
type LightDef struct {
	Name      string      `json:"name,omitempty"`
	Type      string      `json:"type"`
	Color     *[3]float32 `json:"color,omitempty"`
	Intensity *float32    `json:"intensity,omitempty"`
	Range     *float32    `json:"range,omitempty"`
	Spot      *struct {
		InnerConeAngle *float32 `json:"innerConeAngle,omitempty"`
		OuterConeAngle *float32 `json:"outerConeAngle,omitempty"`
	} `json:"spot,omitempty"`

	// Translation is the node's world position. Spot lights aim from it.
	Translation mgl32.Vec3 `json:"-"`
	// Rotation is the node's world orientation. The zero value is the identity.
	Rotation mgl32.Quat `json:"-"`
}

// forward is the direction the light shines along: the node's -Z axis.
func (d LightDef) forward() mgl32.Vec3 {
	q := d.Rotation
	if q.W == 0 && q.V == (mgl32.Vec3{}) {
		q = mgl32.QuatIdent()
	}
	return q.Rotate(mgl32.Vec3{0, 0, -1})
}

// PunctualLight maps a KHR_lights_punctual light onto the engine's lights: point becomes a PointLight, spot a
// DirectionalLight with a cone aimed along the node's -Z axis, and directional a SunLight. Any other type is
// logged and returned as an empty Group so the rest of the tree still loads.
//
// Parameters:
//   - def: the light definition
//
// Returns:
//   - scene.Node: the light, or an inert group
func PunctualLight(def LightDef) scene.Node {
	color := [3]float32{1, 1, 1}
	if def.Color != nil {
		color = *def.Color
	}
	intensity := float32(1)
	if def.Intensity != nil {
		intensity = *def.Intensity
	}
	opts := []light.LightBuilderOption{
		light.WithColor(color[0], color[1], color[2]),
		light.WithIntensity(intensity),
	}
	if def.Name != "" {
		opts = append(opts, light.WithName(def.Name))
	}

	switch def.Type {
	case "point":
		return light.NewPoint(append(opts, light.WithDecay(2))...)
	case "spot":
		inner, outer := float32(0), float32(math32.Pi/4)
		if def.Spot != nil {
			if def.Spot.InnerConeAngle != nil {
				inner = *def.Spot.InnerConeAngle
			}
			if def.Spot.OuterConeAngle != nil {
				outer = *def.Spot.OuterConeAngle
			}
		}
		target := def.Translation.Add(def.forward())
		return light.NewDirectional(append(opts,
			light.WithCone(inner, outer),
			light.WithTarget(target[0], target[1], target[2]),
		)...)
	case "directional":
		dir := def.forward()
		return light.NewSun(append(opts, light.WithDirection(dir[0], dir[1], dir[2]))...)
	}

	logger.Named("loader").Warn("unsupported punctual light type",
		zap.String("type", def.Type),
		zap.String("name", def.Name))
	name := def.Name
	if name == "" {
		name = "unsupported_light"
	}
	return scene.NewGroup(name)
}
