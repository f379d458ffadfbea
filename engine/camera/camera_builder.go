package camera

// CameraBuilderOption is a function that configures a camera during construction.
type CameraBuilderOption func(*cameraImpl)

// WithUp sets the camera's up vector.
//
// Parameters:
//   - x, y, z: up vector components
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's up vector
func WithUp(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.SetUp(x, y, z)
	}
}

// WithFov sets the camera's field of view in radians. Orthographic cameras ignore it.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.SetFov(fov)
	}
}

// WithAspect sets the camera's aspect ratio.
//
// Parameters:
//   - aspect: aspect ratio (width / height)
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.SetAspect(aspect)
	}
}

// WithNear sets the camera's near clipping plane distance.
//
// Parameters:
//   - near: near clipping plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's near clipping plane
func WithNear(near float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.SetNear(near)
	}
}

// WithFar sets the camera's far clipping plane distance.
//
// Parameters:
//   - far: far clipping plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's far clipping plane
func WithFar(far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.SetFar(far)
	}
}

// WithPosition sets the camera's local position.
//
// Parameters:
//   - x, y, z: position components
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's position
func WithPosition(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.Transform().Position.Set(x, y, z)
	}
}

// WithTarget sets the point the camera looks at.
//
// Parameters:
//   - x, y, z: target components
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's target
func WithTarget(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.LookAt(x, y, z)
	}
}

// WithBounds sets the orthographic view box. Perspective cameras ignore it.
//
// Parameters:
//   - left, right, bottom, top: the box extents before aspect scaling
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's extents
func WithBounds(left, right, bottom, top float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.left, c.right, c.bottom, c.top = left, right, bottom, top
		c.projectionChanged.Mark()
	}
}

// WithName sets the camera's node name.
func WithName(name string) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.SetName(name)
	}
}
