package camera

// OrbitControllerOption is a function that configures an OrbitController during construction.
type OrbitControllerOption func(*orbitControllerImpl)

// WithOrbitTarget sets the pivot point.
//
// Parameters:
//   - x, y, z: world-space pivot
//
// Returns:
//   - OrbitControllerOption: a function that sets the target
func WithOrbitTarget(x, y, z float32) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.target = [3]float32{x, y, z}
	}
}

// WithRadius sets the initial distance from the target.
//
// Parameters:
//   - radius: distance from the target
//
// Returns:
//   - OrbitControllerOption: a function that sets the radius
func WithRadius(radius float32) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.radius = radius
	}
}

// WithAzimuth sets the initial horizontal angle in radians.
func WithAzimuth(azimuth float32) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.azimuth = azimuth
	}
}

// WithElevation sets the initial vertical angle in radians.
func WithElevation(elevation float32) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.elevation = elevation
	}
}

// WithRadiusLimits sets the allowed radius range.
//
// Parameters:
//   - minRadius: closest allowed distance
//   - maxRadius: farthest allowed distance
//
// Returns:
//   - OrbitControllerOption: a function that sets the limits
func WithRadiusLimits(minRadius, maxRadius float32) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.minRadius = minRadius
		oc.maxRadius = maxRadius
	}
}

// WithZoomSpeed scales Zoom deltas.
func WithZoomSpeed(speed float32) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.zoomSpeed = speed
	}
}
