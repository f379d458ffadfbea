package pipeline

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
)

// pipeline is the implementation of the Pipeline interface.
// It holds the fixed-function configuration a render pipeline is compiled with. It owns no GPU objects; the
// material registry compiles Descriptor() and caches the result.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used as the debug label of the compiled pipeline
	pipelineKey string

	// The following properties are used to configure the pipeline during creation and can be toggled/set with the builder options.

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthCompare        gpu.CompareFunction
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            gpu.CullMode
	topology            gpu.PrimitiveTopology
	frontFace           gpu.FrontFace
	writeMask           gpu.ColorWriteMask
	blendState          *gpu.BlendState
	colorTarget         bool
}

// Target names the shaders, layouts and attachment formats a pipeline is compiled against.
type Target struct {
	// Layouts are the bind group layouts in group order.
	Layouts []gpu.BindGroupLayout
	// Vertex is the vertex stage.
	Vertex gpu.VertexState
	// Fragment is the fragment module. It is ignored for depth-only pipelines.
	Fragment gpu.ShaderModule
	// FragmentEntryPoint defaults to "main".
	FragmentEntryPoint string
	// ColorFormat is the format of the single colour attachment.
	ColorFormat gpu.TextureFormat
	// DepthFormat is the format of the depth attachment.
	DepthFormat gpu.TextureFormat
}

// Pipeline defines the fixed-function state of a render pipeline. It is combined with a Target to produce the
// descriptor handed to the device.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth testing is enabled, false otherwise
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writing is enabled, false otherwise
	DepthWriteEnabled() bool

	// DepthBias returns the depth bias value configured for this pipeline.
	//
	// Returns:
	//   - int32: the depth bias value for this pipeline
	DepthBias() int32

	// BlendEnabled returns whether blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled, false otherwise
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - gpu.CullMode: the cull mode for this pipeline
	CullMode() gpu.CullMode

	// ColorTarget reports whether the pipeline writes a colour attachment. Depth-only pipelines return false.
	//
	// Returns:
	//   - bool: true if a fragment stage with a colour target is attached
	ColorTarget() bool

	// Descriptor builds the device descriptor for target.
	//
	// Parameters:
	//   - target: the shaders, layouts and formats to compile against
	//
	// Returns:
	//   - gpu.RenderPipelineDescriptor: the descriptor
	Descriptor(target Target) gpu.RenderPipelineDescriptor
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		depthCompare:      gpu.CompareFunctionLess,
		cullMode:          gpu.CullModeBack,
		topology:          gpu.PrimitiveTopologyTriangleList,
		frontFace:         gpu.FrontFaceCCW,
		writeMask:         gpu.ColorWriteMaskAll,
		colorTarget:       true,
		blendState: &gpu.BlendState{
			Color: gpu.BlendComponent{
				SrcFactor: gpu.BlendFactorSrcAlpha,
				DstFactor: gpu.BlendFactorOneMinusSrcAlpha,
				Operation: gpu.BlendOperationAdd,
			},
			Alpha: gpu.BlendComponent{
				SrcFactor: gpu.BlendFactorSrcAlpha,
				DstFactor: gpu.BlendFactorOneMinusSrcAlpha,
				Operation: gpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() gpu.CullMode {
	return p.cullMode
}

func (p *pipeline) ColorTarget() bool {
	return p.colorTarget
}

func (p *pipeline) Descriptor(target Target) gpu.RenderPipelineDescriptor {
	desc := gpu.RenderPipelineDescriptor{
		Label:            p.pipelineKey,
		BindGroupLayouts: target.Layouts,
		Vertex:           target.Vertex,
		Primitive: gpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		SampleCount: 1,
	}

	if p.depthTestEnabled {
		desc.DepthStencil = &gpu.DepthStencilState{
			Format:              target.DepthFormat,
			DepthWriteEnabled:   p.depthWriteEnabled,
			DepthCompare:        p.depthCompare,
			DepthBias:           p.depthBias,
			DepthBiasSlopeScale: p.depthBiasSlopeScale,
		}
	}

	if p.colorTarget {
		entry := target.FragmentEntryPoint
		if entry == "" {
			entry = "main"
		}
		colorTarget := gpu.ColorTargetState{Format: target.ColorFormat, WriteMask: p.writeMask}
		if p.blendEnabled {
			colorTarget.Blend = p.blendState
		}
		desc.Fragment = &gpu.FragmentState{
			Module:     target.Fragment,
			EntryPoint: entry,
			Targets:    []gpu.ColorTargetState{colorTarget},
		}
	}
	return desc
}
