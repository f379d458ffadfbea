package geometry

// GeometryBuilderOption is a functional option for configuring a Geometry via New.
type GeometryBuilderOption func(*Geometry)

// WithLabel is an option builder that sets the debug label of the geometry's buffers.
//
// Parameters:
//   - label: the buffer label prefix
//
// Returns:
//   - GeometryBuilderOption: a function that applies the label option to a Geometry
func WithLabel(label string) GeometryBuilderOption {
	return func(g *Geometry) {
		g.label = label
	}
}
