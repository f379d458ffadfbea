// Package shader holds the engine's WGSL sources and the pre-processor that expands their @oxy: annotations.
package shader

import (
	_ "embed"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
)

var (
	//go:embed assets/vertex.wgsl
	vertexSource string
	//go:embed assets/varyings.wgsl
	varyingsSource string
	//go:embed assets/fullscreen.wgsl
	fullscreenSource string
	//go:embed assets/light.wgsl
	lightSource string
	//go:embed assets/light_count.wgsl
	lightCountSource string

	//go:embed assets/mesh.vert.wgsl
	meshVertexSource string
	//go:embed assets/basic.frag.wgsl
	basicFragmentSource string
	//go:embed assets/standard.frag.wgsl
	standardFragmentSource string
	//go:embed assets/uv.frag.wgsl
	uvFragmentSource string
	//go:embed assets/shadow_depth.vert.wgsl
	shadowDepthVertexSource string
	//go:embed assets/shadow_depth.frag.wgsl
	shadowDepthFragmentSource string
	//go:embed assets/tile_clear.vert.wgsl
	tileClearVertexSource string
)

// EntryPoint is the entry point name of every engine shader.
const EntryPoint = "main"

// Stage identifies the pipeline stage a shader runs in.
type Stage int

const (
	// StageVertex is the vertex stage.
	StageVertex Stage = iota

	// StageFragment is the fragment stage.
	StageFragment
)

func (s Stage) String() string {
	if s == StageVertex {
		return "vertex"
	}
	return "fragment"
}

// shader is the implementation of the Shader interface.
type shader struct {
	key    string
	stage  Stage
	source string
}

// Shader is a WGSL source with @oxy: annotations that is turned into a device module once its constants are
// known.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used as the module label.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Stage returns the pipeline stage the shader's entry point belongs to.
	//
	// Returns:
	//   - Stage: the shader stage
	Stage() Stage

	// EntryPoint returns the name of the shader's entry function.
	//
	// Returns:
	//   - string: the entry point name
	EntryPoint() string

	// Source retrieves the raw, unprocessed WGSL source.
	//
	// Returns:
	//   - string: the annotated WGSL source code
	Source() string

	// Process expands the shader's annotations.
	//
	// Parameters:
	//   - consts: values for the shader's @oxy:const annotations
	//
	// Returns:
	//   - string: the plain WGSL source
	//   - []Annotation: the binding declarations found in the source
	//   - error: an error if the annotations could not be expanded
	Process(consts Constants) (string, []Annotation, error)

	// CreateModule processes the shader and compiles it on device.
	//
	// Parameters:
	//   - device: the device to compile on
	//   - consts: values for the shader's @oxy:const annotations
	//
	// Returns:
	//   - gpu.ShaderModule: the compiled module
	//   - error: an error if processing or compilation failed
	CreateModule(device gpu.Device, consts Constants) (gpu.ShaderModule, error)
}

var _ Shader = &shader{}

// NewShader wraps annotated WGSL source.
//
// Parameters:
//   - key: the unique identifier for the shader
//   - stage: the stage of the shader's main entry point
//   - source: the annotated WGSL source
//
// Returns:
//   - Shader: the shader
func NewShader(key string, stage Stage, source string) Shader {
	return &shader{key: key, stage: stage, source: source}
}

// The engine's built-in shaders.
var (
	MeshVertex          = NewShader("mesh_vertex", StageVertex, meshVertexSource)
	BasicFragment       = NewShader("basic_fragment", StageFragment, basicFragmentSource)
	StandardFragment    = NewShader("standard_fragment", StageFragment, standardFragmentSource)
	UVFragment          = NewShader("uv_fragment", StageFragment, uvFragmentSource)
	ShadowDepthVertex   = NewShader("shadow_depth_vertex", StageVertex, shadowDepthVertexSource)
	ShadowDepthFragment = NewShader("shadow_depth_fragment", StageFragment, shadowDepthFragmentSource)
	TileClearVertex     = NewShader("tile_clear_vertex", StageVertex, tileClearVertexSource)
)

// Builtins returns every built-in shader.
func Builtins() []Shader {
	return []Shader{
		MeshVertex, BasicFragment, StandardFragment, UVFragment, ShadowDepthVertex, ShadowDepthFragment, TileClearVertex,
	}
}

func (s *shader) Key() string        { return s.key }
func (s *shader) Stage() Stage       { return s.stage }
func (s *shader) EntryPoint() string { return EntryPoint }
func (s *shader) Source() string     { return s.source }

func (s *shader) Process(consts Constants) (string, []Annotation, error) {
	pp := NewPreProcessor()
	src, err := pp.Process(s.source, consts)
	if err != nil {
		return "", nil, fmt.Errorf("shader: %s: %w", s.key, err)
	}
	return src, pp.Declarations(), nil
}

func (s *shader) CreateModule(device gpu.Device, consts Constants) (gpu.ShaderModule, error) {
	src, _, err := s.Process(consts)
	if err != nil {
		return nil, err
	}
	module, err := device.CreateShaderModule(gpu.ShaderModuleDescriptor{Label: s.key, Code: src})
	if err != nil {
		return nil, fmt.Errorf("shader: compile %s: %w", s.key, err)
	}
	return module, nil
}
