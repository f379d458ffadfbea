package mesh

import "github.com/Carmen-Shannon/oxy-scene/engine/scene"

// MeshBuilderOption is a functional option applied to the node of any mesh type.
type MeshBuilderOption func(o *scene.Object3D)

// WithName sets the node name.
//
// Parameters:
//   - name: the node name
//
// Returns:
//   - MeshBuilderOption: option function to apply
func WithName(name string) MeshBuilderOption {
	return func(o *scene.Object3D) {
		o.SetName(name)
	}
}

// WithPosition sets the local position.
//
// Parameters:
//   - x, y, z: position components
//
// Returns:
//   - MeshBuilderOption: option function to apply
func WithPosition(x, y, z float32) MeshBuilderOption {
	return func(o *scene.Object3D) {
		o.Transform().Position.Set(x, y, z)
	}
}

// WithScale sets the local scale.
//
// Parameters:
//   - x, y, z: scale factors
//
// Returns:
//   - MeshBuilderOption: option function to apply
func WithScale(x, y, z float32) MeshBuilderOption {
	return func(o *scene.Object3D) {
		o.Transform().Scale.Set(x, y, z)
	}
}

// WithCastShadow toggles whether the mesh is drawn into shadow maps. Meshes cast shadows by default.
//
// Parameters:
//   - cast: whether the mesh casts shadows
//
// Returns:
//   - MeshBuilderOption: option function to apply
func WithCastShadow(cast bool) MeshBuilderOption {
	return func(o *scene.Object3D) {
		o.SetCastShadow(cast)
	}
}
