package transform

import "github.com/go-gl/mathgl/mgl32"

// TransformBuilderOption is a function that configures a Transform during construction.
type TransformBuilderOption func(*Transform)

// WithPosition sets the initial position.
//
// Parameters:
//   - x, y, z: position components
//
// Returns:
//   - TransformBuilderOption: a function that sets the position
func WithPosition(x, y, z float32) TransformBuilderOption {
	return func(t *Transform) {
		t.Position.Set(x, y, z)
	}
}

// WithScale sets the initial scale.
//
// Parameters:
//   - x, y, z: scale components
//
// Returns:
//   - TransformBuilderOption: a function that sets the scale
func WithScale(x, y, z float32) TransformBuilderOption {
	return func(t *Transform) {
		t.Scale.Set(x, y, z)
	}
}

// WithRotation sets the initial rotation.
//
// Parameters:
//   - q: the rotation
//
// Returns:
//   - TransformBuilderOption: a function that sets the rotation
func WithRotation(q mgl32.Quat) TransformBuilderOption {
	return func(t *Transform) {
		t.Rotation.Set(q)
	}
}

// WithRenderable marks the transform as allowed to own a GPU uniform.
//
// Parameters:
//   - renderable: whether the transform is renderable
//
// Returns:
//   - TransformBuilderOption: a function that sets the renderable flag
func WithRenderable(renderable bool) TransformBuilderOption {
	return func(t *Transform) {
		t.renderable = renderable
	}
}
