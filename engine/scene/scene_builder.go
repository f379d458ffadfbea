package scene

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *Scene)

// WithMaxNumLights sets the capacity of the light buffer. It is fixed for the lifetime of the scene.
//
// Parameters:
//   - n: the maximum number of lights (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMaxNumLights(n int) SceneBuilderOption {
	return func(s *Scene) {
		if n < 1 {
			n = 1
		}
		s.maxNumLights = n
	}
}

// WithName sets the scene's name.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *Scene) {
		s.SetName(name)
	}
}

// WithExtensions adds extensions right after construction, in order.
//
// Parameters:
//   - exts: the extensions to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithExtensions(exts ...SceneExtension) SceneBuilderOption {
	return func(s *Scene) {
		for _, ext := range exts {
			s.AddExtension(ext)
		}
	}
}
