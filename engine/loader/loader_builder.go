package loader

import "github.com/Carmen-Shannon/oxy-scene/engine/scene"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithUnlit is an option builder that makes loaded materials unlit BasicMaterials instead of StandardMaterials.
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithUnlit() LoaderBuilderOption {
	return func(l *loader) {
		l.materials.unlit = true
	}
}

// WithFallbackMaterial is an option builder that sets the material for meshes whose file gives them none.
//
// Parameters:
//   - m: the material shared by every such mesh
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithFallbackMaterial(m scene.Material) LoaderBuilderOption {
	return func(l *loader) {
		l.materials.override = m
	}
}
