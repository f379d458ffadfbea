package scene

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
)

// ErrNoRenderPass is recorded when a bundle is executed while the active target is not a render pass.
var ErrNoRenderPass = errors.New("scene: bundles can only be executed on a render pass")

// ShadowPassLabel is the label of the depth-only pass that renders the shadow atlas.
const ShadowPassLabel = "shadowPass"

// Filter decides whether a node is drawn in a pass.
type Filter func(n Node) bool

// AcceptAll is the default filter.
func AcceptAll(Node) bool { return true }

// ShadowCasters accepts every node except meshes that do not cast shadows.
func ShadowCasters(n Node) bool {
	o := n.Object()
	return o.Kind() != KindMesh || o.CastShadow()
}

type listener struct {
	id int
	fn func()
}

// DrawOperation is the context of one render pass, threaded through the tree walk. It is created per pass and
// must not be kept across frames.
type DrawOperation struct {
	device  gpu.Device
	targets []gpu.RenderEncoder
	scene   *Scene
	view    ViewBinder

	vertex       gpu.VertexState
	colorFormat  gpu.TextureFormat
	depthFormat  gpu.TextureFormat
	sampleCount  uint32
	useMaterials bool
	label        string
	filter       Filter

	listeners []listener
	nextID    int

	err error
}

// NewDrawOperation creates the context of a pass recording into target. The view bind group is bound to target
// immediately.
//
// Parameters:
//   - device: the device resources are created on
//   - target: the pass encoder
//   - options: functional options to configure the operation
//
// Returns:
//   - *DrawOperation: the operation, check Err for a failed view binding
func NewDrawOperation(device gpu.Device, target gpu.RenderEncoder, options ...DrawOperationBuilderOption) *DrawOperation {
	op := &DrawOperation{
		device:       device,
		targets:      []gpu.RenderEncoder{target},
		useMaterials: true,
		filter:       AcceptAll,
		colorFormat:  gpu.TextureFormatBGRA8Unorm,
		depthFormat:  gpu.TextureFormatDepth24PlusStencil8,
		sampleCount:  1,
	}
	for _, option := range options {
		option(op)
	}
	op.bindView(target)
	return op
}

func (op *DrawOperation) Device() gpu.Device { return op.device }

// Scene returns the scene being drawn, or nil.
func (op *DrawOperation) Scene() *Scene { return op.scene }

// View returns the view binder of the pass.
func (op *DrawOperation) View() ViewBinder { return op.view }

// Target returns the encoder on top of the target stack.
func (op *DrawOperation) Target() gpu.RenderEncoder { return op.targets[len(op.targets)-1] }

// Depth returns the number of targets on the stack.
func (op *DrawOperation) Depth() int { return len(op.targets) }

func (op *DrawOperation) VertexState() gpu.VertexState { return op.vertex }

func (op *DrawOperation) ColorFormat() gpu.TextureFormat { return op.colorFormat }

func (op *DrawOperation) DepthFormat() gpu.TextureFormat { return op.depthFormat }

func (op *DrawOperation) SampleCount() uint32 { return op.sampleCount }

// UseMaterials is false in depth-only passes, where geometry is drawn with the pass pipeline.
func (op *DrawOperation) UseMaterials() bool { return op.useMaterials }

func (op *DrawOperation) Label() string { return op.label }

// Accept reports whether the pass filter draws n.
func (op *DrawOperation) Accept(n Node) bool { return op.filter(n) }

// Fail records the first error of the pass. The renderer drops the frame when a pass failed.
func (op *DrawOperation) Fail(err error) {
	if op.err == nil && err != nil {
		op.err = err
	}
}

// Err returns the first recorded error.
func (op *DrawOperation) Err() error { return op.err }

// PushRenderPass makes target the active encoder and binds the view to it.
//
// Parameters:
//   - target: the encoder to record into, usually a bundle encoder
func (op *DrawOperation) PushRenderPass(target gpu.RenderEncoder) {
	op.targets = append(op.targets, target)
	op.bindView(target)
}

// PopRenderPass restores the previous target. The pass encoder itself is never popped.
func (op *DrawOperation) PopRenderPass() gpu.RenderEncoder {
	if len(op.targets) == 1 {
		panic("scene: PopRenderPass without matching PushRenderPass")
	}
	top := op.targets[len(op.targets)-1]
	op.targets = op.targets[:len(op.targets)-1]
	return top
}

// ExecuteBundle replays bundle on the active pass and binds the view again, since bundles leave bind group state
// undefined.
//
// Parameters:
//   - bundle: the bundle to replay
func (op *DrawOperation) ExecuteBundle(bundle gpu.RenderBundle) {
	pass, ok := op.Target().(gpu.RenderPassEncoder)
	if !ok {
		op.Fail(ErrNoRenderPass)
		return
	}
	pass.ExecuteBundles(bundle)
	op.bindView(pass)
}

// UseMaterial mounts m and reports whether it is ready to draw with. Subscribers registered through
// OnMaterialMounted at the time of the call are notified when a compile this call joined finishes.
//
// Parameters:
//   - m: the material to use
//
// Returns:
//   - bool: true when the material bound its pipeline to the active target
func (op *DrawOperation) UseMaterial(m Material) bool {
	layouts, err := bind_group_provider.For(op.device)
	if err != nil {
		op.Fail(err)
		return false
	}

	// Without subscribers there is nothing to notify, and a nil callback keeps the registry from queueing one
	// closure per draw while a compile is in flight.
	var onMounted func()
	if len(op.listeners) > 0 {
		snapshot := make([]func(), len(op.listeners))
		for i, l := range op.listeners {
			snapshot[i] = l.fn
		}
		onMounted = func() {
			for _, fn := range snapshot {
				fn()
			}
		}
	}
	m.Mount(op, []gpu.BindGroupLayout{layouts.View, layouts.Transform}, onMounted)
	return m.Use(op)
}

// OnMaterialMounted subscribes fn to materials used while it is subscribed.
//
// Parameters:
//   - fn: called when a material mounted during the subscription becomes ready
//
// Returns:
//   - func(): unsubscribes fn
func (op *DrawOperation) OnMaterialMounted(fn func()) func() {
	id := op.nextID
	op.nextID++
	op.listeners = append(op.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range op.listeners {
			if l.id == id {
				op.listeners = append(op.listeners[:i], op.listeners[i+1:]...)
				return
			}
		}
	}
}

// BindTransform binds the bind group of t at the transform group.
//
// Returns:
//   - bool: false when the bind group could not be created; the error is recorded
func (op *DrawOperation) BindTransform(t *transform.Transform) bool {
	bg, err := t.BindGroup(op.device)
	if err != nil {
		op.Fail(fmt.Errorf("scene: transform bind group: %w", err))
		return false
	}
	op.Target().SetBindGroup(bind_group_provider.GroupTransform, bg)
	return true
}

// Visit walks the subtree of n, children before their parent. Every node's transform is updated after its
// descendants, so children still see an inherited dirty bit, and nodes accepted by the filter are drawn.
//
// Parameters:
//   - n: the subtree root
func (op *DrawOperation) Visit(n Node) {
	o := n.Object()
	for _, child := range o.children {
		op.Visit(child)
	}
	if c, ok := n.(Composite); ok {
		for _, m := range c.Members() {
			op.UpdateTransforms(m)
		}
	}
	if err := o.transform.Update(op.device); err != nil {
		op.Fail(fmt.Errorf("scene: updating transform of %q: %w", o.name, err))
	}
	if op.Accept(n) {
		n.Draw(op)
	}
}

// UpdateTransforms uploads dirty transforms of the subtree of n without drawing.
func (op *DrawOperation) UpdateTransforms(n Node) {
	o := n.Object()
	for _, child := range o.children {
		op.UpdateTransforms(child)
	}
	if c, ok := n.(Composite); ok {
		for _, m := range c.Members() {
			op.UpdateTransforms(m)
		}
	}
	if err := o.transform.Update(op.device); err != nil {
		op.Fail(fmt.Errorf("scene: updating transform of %q: %w", o.name, err))
	}
}

// DrawTree draws the accepted nodes of the subtree of n, children first, without touching transforms.
func (op *DrawOperation) DrawTree(n Node) {
	for _, child := range n.Object().children {
		op.DrawTree(child)
	}
	if op.Accept(n) {
		n.Draw(op)
	}
}

func (op *DrawOperation) bindView(target gpu.RenderEncoder) {
	if op.view == nil {
		return
	}
	bg, err := op.view.BindGroup(op.device)
	if err != nil {
		op.Fail(fmt.Errorf("scene: view bind group: %w", err))
		return
	}
	target.SetBindGroup(bind_group_provider.GroupView, bg)
}
