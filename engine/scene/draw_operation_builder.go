package scene

import "github.com/Carmen-Shannon/oxy-scene/engine/gpu"

// DrawOperationBuilderOption is a functional option for configuring a DrawOperation.
type DrawOperationBuilderOption func(op *DrawOperation)

// WithScene sets the scene materials read lights and shadow settings from.
//
// Parameters:
//   - s: the scene being drawn
//
// Returns:
//   - DrawOperationBuilderOption: option function to apply
func WithScene(s *Scene) DrawOperationBuilderOption {
	return func(op *DrawOperation) {
		op.scene = s
	}
}

// WithView sets the provider of the group 0 bind group.
//
// Parameters:
//   - v: a camera or shadow light
//
// Returns:
//   - DrawOperationBuilderOption: option function to apply
func WithView(v ViewBinder) DrawOperationBuilderOption {
	return func(op *DrawOperation) {
		op.view = v
	}
}

// WithVertexState sets the vertex stage shared by every mesh pipeline.
//
// Parameters:
//   - vs: the vertex stage
//
// Returns:
//   - DrawOperationBuilderOption: option function to apply
func WithVertexState(vs gpu.VertexState) DrawOperationBuilderOption {
	return func(op *DrawOperation) {
		op.vertex = vs
	}
}

// WithFormats sets the attachment formats pipelines and bundles are created for.
//
// Parameters:
//   - color: the colour attachment format
//   - depth: the depth attachment format
//
// Returns:
//   - DrawOperationBuilderOption: option function to apply
func WithFormats(color, depth gpu.TextureFormat) DrawOperationBuilderOption {
	return func(op *DrawOperation) {
		op.colorFormat = color
		op.depthFormat = depth
	}
}

// WithUseMaterials toggles material binding. Depth-only passes disable it.
//
// Parameters:
//   - use: whether meshes bind their materials
//
// Returns:
//   - DrawOperationBuilderOption: option function to apply
func WithUseMaterials(use bool) DrawOperationBuilderOption {
	return func(op *DrawOperation) {
		op.useMaterials = use
	}
}

// WithLabel names the pass so nodes can recognise it.
//
// Parameters:
//   - label: the pass label
//
// Returns:
//   - DrawOperationBuilderOption: option function to apply
func WithLabel(label string) DrawOperationBuilderOption {
	return func(op *DrawOperation) {
		op.label = label
	}
}

// WithFilter sets the node filter. A nil filter accepts everything.
//
// Parameters:
//   - f: the filter
//
// Returns:
//   - DrawOperationBuilderOption: option function to apply
func WithFilter(f Filter) DrawOperationBuilderOption {
	return func(op *DrawOperation) {
		if f == nil {
			f = AcceptAll
		}
		op.filter = f
	}
}
