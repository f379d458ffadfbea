package material

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/logger"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"go.uber.org/zap"
)

// State is the lifecycle of one material kind's pipeline.
type State int

const (
	// Unmounted means no compile was requested yet.
	Unmounted State = iota
	// Mounting means a compile is in flight. Draws with the material are skipped.
	Mounting
	// Ready means the pipeline is compiled and cached.
	Ready
	// Failed means compilation failed. It is never retried.
	Failed
)

func (s State) String() string {
	switch s {
	case Unmounted:
		return "unmounted"
	case Mounting:
		return "mounting"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// entry is the cached pipeline of one material kind on one device.
type entry struct {
	state    State
	pipeline gpu.RenderPipeline
	modules  []gpu.ShaderModule
	waiters  []func()
}

// registry holds every compiled material pipeline, per device and material key. It is populated on first use and
// never evicted. Only the frame loop goroutine touches it; compile completions arrive through device Poll.
var registry = map[gpu.Device]map[string]*entry{}

func lookup(device gpu.Device, key string) *entry {
	byKey, ok := registry[device]
	if !ok {
		byKey = map[string]*entry{}
		registry[device] = byKey
	}
	e, ok := byKey[key]
	if !ok {
		e = &entry{}
		byKey[key] = e
	}
	return e
}

// StateOf returns the pipeline state of the material kind key on device.
//
// Parameters:
//   - device: the device pipelines are compiled on
//   - key: the material kind, as returned by a material's Key
//
// Returns:
//   - State: the current state
func StateOf(device gpu.Device, key string) State {
	if e, ok := registry[device][key]; ok {
		return e.state
	}
	return Unmounted
}

// Pipeline returns the compiled pipeline of the material kind key on device, or nil when it is not ready.
func Pipeline(device gpu.Device, key string) gpu.RenderPipeline {
	if e, ok := registry[device][key]; ok && e.state == Ready {
		return e.pipeline
	}
	return nil
}

// Reset releases every cached pipeline and forgets all material state. In-flight compiles finish into entries
// that are no longer reachable.
func Reset() {
	for _, byKey := range registry {
		for _, e := range byKey {
			release(e)
		}
	}
	registry = map[gpu.Device]map[string]*entry{}
}

func release(e *entry) {
	if e.pipeline != nil {
		e.pipeline.Release()
		e.pipeline = nil
	}
	for _, m := range e.modules {
		m.Release()
	}
	e.modules = nil
}

// program describes how one material kind compiles.
type program struct {
	key      string
	vertex   shader.Shader
	fragment shader.Shader
	consts   shader.Constants
	groups   func(l *bind_group_provider.Layouts) []gpu.BindGroupLayout
	options  []pipeline.PipelineBuilderOption
}

// descriptor compiles the program's shader modules and builds its pipeline descriptor. A nil vertex shader
// uses the pass's shared mesh vertex stage.
func (p program) descriptor(op *scene.DrawOperation, base []gpu.BindGroupLayout) (gpu.RenderPipelineDescriptor, []gpu.ShaderModule, error) {
	device := op.Device()
	layouts, err := bind_group_provider.For(device)
	if err != nil {
		return gpu.RenderPipelineDescriptor{}, nil, err
	}

	var modules []gpu.ShaderModule
	vertex := op.VertexState()
	if p.vertex != nil {
		vm, err := p.vertex.CreateModule(device, p.consts)
		if err != nil {
			return gpu.RenderPipelineDescriptor{}, nil, err
		}
		modules = append(modules, vm)
		vertex = gpu.VertexState{Module: vm, EntryPoint: p.vertex.EntryPoint()}
	}
	if vertex.Module == nil {
		return gpu.RenderPipelineDescriptor{}, modules, fmt.Errorf("material: %s: pass has no vertex stage", p.key)
	}

	fm, err := p.fragment.CreateModule(device, p.consts)
	if err != nil {
		return gpu.RenderPipelineDescriptor{}, modules, err
	}
	modules = append(modules, fm)

	groups := append([]gpu.BindGroupLayout{}, base...)
	if p.groups != nil {
		groups = append(groups, p.groups(layouts)...)
	}
	desc := pipeline.NewPipeline(p.key, p.options...).Descriptor(pipeline.Target{
		Layouts:            groups,
		Vertex:             vertex,
		Fragment:           fm,
		FragmentEntryPoint: p.fragment.EntryPoint(),
		ColorFormat:        op.ColorFormat(),
		DepthFormat:        op.DepthFormat(),
	})
	return desc, modules, nil
}

// mount requests the program's pipeline unless it is compiled, compiling or failed. onMounted is queued while
// a compile is in flight and runs once it succeeds.
func mount(op *scene.DrawOperation, p program, base []gpu.BindGroupLayout, onMounted func()) {
	device := op.Device()
	e := lookup(device, p.key)
	switch e.state {
	case Ready, Failed:
		return
	case Mounting:
		if onMounted != nil {
			e.waiters = append(e.waiters, onMounted)
		}
		return
	}

	e.state = Mounting
	if onMounted != nil {
		e.waiters = append(e.waiters, onMounted)
	}

	desc, modules, err := p.descriptor(op, base)
	e.modules = modules
	if err != nil {
		fail(e, p.key, err)
		return
	}

	logger.Named("material").Debug("compiling pipeline", zap.String("material", p.key))
	device.CreateRenderPipelineAsync(desc, func(rp gpu.RenderPipeline, err error) {
		if err != nil {
			fail(e, p.key, err)
			return
		}
		e.pipeline = rp
		e.state = Ready
		waiters := e.waiters
		e.waiters = nil
		for _, fn := range waiters {
			fn()
		}
	})
}

func fail(e *entry, key string, err error) {
	e.state = Failed
	e.waiters = nil
	release(e)
	logger.Named("material").Error("pipeline compilation failed", zap.String("material", key), zap.Error(err))
}

// bindPipeline sets the cached pipeline of key on the active target.
func bindPipeline(op *scene.DrawOperation, key string) bool {
	rp := Pipeline(op.Device(), key)
	if rp == nil {
		return false
	}
	op.Target().SetPipeline(rp)
	return true
}
