package light

import "github.com/Carmen-Shannon/oxy-scene/common"

// LightBuilderOption is a function that configures a light during construction. Options that set a field the light
// type does not record are accepted and ignored.
type LightBuilderOption func(*lightImpl)

// WithPosition is an option builder that sets the local position of the light's node.
//
// Parameters:
//   - x: the x position component
//   - y: the y position component
//   - z: the z position component
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a lightImpl
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.Transform().Position.Set(x, y, z)
	}
}

// WithDirection is an option builder that sets the direction a sun light travels in.
//
// Parameters:
//   - x: the x direction component
//   - y: the y direction component
//   - z: the z direction component
//
// Returns:
//   - LightBuilderOption: a function that applies the direction option to a lightImpl
func WithDirection(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.direction.Set(x, y, z)
	}
}

// WithTarget is an option builder that sets the point a directional light is aimed at.
//
// Parameters:
//   - x, y, z: the world-space target
//
// Returns:
//   - LightBuilderOption: a function that applies the target option to a lightImpl
func WithTarget(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.target.Set(x, y, z)
	}
}

// WithColor is an option builder that sets the RGB color of the light.
//
// Parameters:
//   - r: the red component (0.0 to 1.0)
//   - g: the green component (0.0 to 1.0)
//   - b: the blue component (0.0 to 1.0)
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.color.Set(r, g, b)
	}
}

// WithIntensity is an option builder that sets the scalar intensity multiplier of the light.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity option to a lightImpl
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity.Set(intensity)
	}
}

// WithDecay sets the distance attenuation exponent of point and directional lights.
func WithDecay(decay float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.decay.Set(decay)
	}
}

// WithCone is an option builder that sets the inner and outer cone angles of a directional light.
// Angles are specified in radians and stored internally as cosines for efficient shader comparison.
//
// Parameters:
//   - inner: the inner cone half angle in radians (full intensity)
//   - outer: the outer cone half angle in radians (zero intensity)
//
// Returns:
//   - LightBuilderOption: a function that applies the cone angles to a lightImpl
func WithCone(inner, outer float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.innerCone.Set(common.ConeCos(inner))
		l.outerCone.Set(common.ConeCos(outer))
	}
}

// WithSpotIntensity sets the intensity multiplier inside a directional light's cone.
func WithSpotIntensity(i float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.spotIntensity.Set(i)
	}
}

// WithCastShadow is an option builder that sets whether the light renders into the shadow atlas. Only sun and
// directional lights can cast shadows.
//
// Parameters:
//   - cast: true to render the light's shadow
//
// Returns:
//   - LightBuilderOption: a function that applies the shadow option to a lightImpl
func WithCastShadow(cast bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetCastShadow(cast)
	}
}

// WithName sets the light's node name.
func WithName(name string) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetName(name)
	}
}
