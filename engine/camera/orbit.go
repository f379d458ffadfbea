package camera

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/chewxy/math32"
)

// Orientable is anything an OrbitController can steer.
type Orientable interface {
	Transform() *transform.Transform
	LookAt(x, y, z float32)
}

// OrbitController places a camera on a sphere around a pivot point using spherical coordinates
// (radius, azimuth, elevation).
type OrbitController interface {
	// Orbit rotates around the target. Elevation is clamped to the configured range.
	//
	// Parameters:
	//   - dAzimuth: horizontal angle delta in radians
	//   - dElevation: vertical angle delta in radians
	Orbit(dAzimuth, dElevation float32)

	// Zoom adjusts the distance to the target. Positive delta moves closer.
	//
	// Parameters:
	//   - delta: zoom amount scaled by the zoom speed
	Zoom(delta float32)

	// Radius returns the current distance from the target.
	Radius() float32

	// SetRadius sets the distance from the target, clamped to the configured range.
	SetRadius(radius float32)

	// Azimuth returns the horizontal angle around the Y axis in radians.
	Azimuth() float32

	// Elevation returns the vertical angle from the horizontal plane in radians.
	Elevation() float32

	// Target returns the pivot point.
	Target() (x, y, z float32)

	// SetTarget moves the pivot point.
	SetTarget(x, y, z float32)

	// Position returns the eye position derived from the spherical coordinates.
	Position() (x, y, z float32)

	// Apply writes the eye position into the camera's transform and points it at the target.
	//
	// Parameters:
	//   - c: the camera to steer
	Apply(c Orientable)
}

type orbitControllerImpl struct {
	target   [3]float32
	position [3]float32

	radius    float32
	azimuth   float32
	elevation float32

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	zoomSpeed float32
}

var _ OrbitController = &orbitControllerImpl{}

// NewOrbitController creates an orbit controller looking at the origin from 30 degrees above the horizon.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - OrbitController: the new controller
func NewOrbitController(options ...OrbitControllerOption) OrbitController {
	oc := &orbitControllerImpl{
		radius:    25.0,
		azimuth:   0.0,
		elevation: math32.Pi / 6,

		minRadius:    1.0,
		maxRadius:    500.0,
		minElevation: -math32.Pi/2 + 0.05,
		maxElevation: math32.Pi/2 - 0.05,

		zoomSpeed: 1.0,
	}
	for _, option := range options {
		option(oc)
	}
	oc.radius = clamp(oc.radius, oc.minRadius, oc.maxRadius)
	oc.elevation = clamp(oc.elevation, oc.minElevation, oc.maxElevation)
	oc.updatePosition()
	return oc
}

// updatePosition recomputes the eye from the spherical coordinates.
func (oc *orbitControllerImpl) updatePosition() {
	sinElev, cosElev := math32.Sincos(oc.elevation)
	sinAzim, cosAzim := math32.Sincos(oc.azimuth)

	oc.position[0] = oc.target[0] + oc.radius*cosElev*sinAzim
	oc.position[1] = oc.target[1] + oc.radius*sinElev
	oc.position[2] = oc.target[2] + oc.radius*cosElev*cosAzim
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}

func (oc *orbitControllerImpl) Orbit(dAzimuth, dElevation float32) {
	oc.azimuth += dAzimuth
	oc.elevation = clamp(oc.elevation+dElevation, oc.minElevation, oc.maxElevation)
	oc.updatePosition()
}

func (oc *orbitControllerImpl) Zoom(delta float32) {
	oc.SetRadius(oc.radius - delta*oc.zoomSpeed)
}

func (oc *orbitControllerImpl) Radius() float32 { return oc.radius }

func (oc *orbitControllerImpl) SetRadius(radius float32) {
	oc.radius = clamp(radius, oc.minRadius, oc.maxRadius)
	oc.updatePosition()
}

func (oc *orbitControllerImpl) Azimuth() float32   { return oc.azimuth }
func (oc *orbitControllerImpl) Elevation() float32 { return oc.elevation }

func (oc *orbitControllerImpl) Target() (x, y, z float32) {
	return oc.target[0], oc.target[1], oc.target[2]
}

func (oc *orbitControllerImpl) SetTarget(x, y, z float32) {
	oc.target = [3]float32{x, y, z}
	oc.updatePosition()
}

func (oc *orbitControllerImpl) Position() (x, y, z float32) {
	return oc.position[0], oc.position[1], oc.position[2]
}

func (oc *orbitControllerImpl) Apply(c Orientable) {
	c.Transform().Position.Set(oc.position[0], oc.position[1], oc.position[2])
	c.LookAt(oc.target[0], oc.target[1], oc.target[2])
}
