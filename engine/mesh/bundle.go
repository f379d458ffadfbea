package mesh

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
)

// ErrNestedBundle is the panic value when a bundle is added to another bundle.
var ErrNestedBundle = errors.New("mesh: bundles cannot contain bundles")

var bundleCount atomic.Uint64

// BundleMesh records its members into a render bundle once and replays it every frame. Members are held outside
// Children, so they are not visited by the frame walk; their transforms are still updated each frame.
//
// The bundle is recorded again when a member is added or removed, when a material one of its members waited on
// finishes compiling, or after Invalidate.
type BundleMesh struct {
	scene.Object3D

	label   string
	members []scene.Node
	bundle  gpu.RenderBundle
	stale   bool
	builds  int
}

var (
	_ scene.Composite     = &BundleMesh{}
	_ scene.ChildDetacher = &BundleMesh{}
)

// NewBundle creates a bundle of members.
//
// Parameters:
//   - members: the nodes to record, with their subtrees
//
// Returns:
//   - *BundleMesh: the new bundle
func NewBundle(members ...scene.Node) *BundleMesh {
	b := &BundleMesh{}
	b.init(b)
	b.AddMember(members...)
	return b
}

func (b *BundleMesh) init(self scene.Node) {
	b.Init(self, scene.KindMesh)
	b.label = "bundle_" + strconv.FormatUint(bundleCount.Add(1), 10)
	b.SetName(b.label)
	b.stale = true
}

// AddMember adopts nodes as members. It panics with ErrNestedBundle if a node's subtree holds a bundle.
func (b *BundleMesh) AddMember(nodes ...scene.Node) {
	for _, n := range nodes {
		for d := range n.Object().Traverse() {
			if _, ok := d.(scene.Composite); ok {
				panic(fmt.Errorf("%w: %q", ErrNestedBundle, d.Object().Name()))
			}
		}
	}
	for _, n := range nodes {
		b.Adopt(n)
		b.members = append(b.members, n)
	}
	b.stale = true
}

// RemoveMember detaches n from the bundle.
func (b *BundleMesh) RemoveMember(n scene.Node) {
	if slices.Contains(b.members, n) {
		n.Object().Remove()
	}
}

// DetachChild drops a member that was re-parented elsewhere.
func (b *BundleMesh) DetachChild(child scene.Node) {
	if i := slices.Index(b.members, child); i >= 0 {
		b.members = slices.Delete(b.members, i, i+1)
		b.stale = true
	}
}

func (b *BundleMesh) Members() []scene.Node { return b.members }

// Invalidate forces the bundle to be recorded again on its next draw.
func (b *BundleMesh) Invalidate() { b.stale = true }

// Builds returns how many times the bundle was recorded.
func (b *BundleMesh) Builds() int { return b.builds }

// Draw replays the bundle, recording it first when stale. Passes that do not use materials draw the members
// directly with the pass pipeline.
func (b *BundleMesh) Draw(op *scene.DrawOperation) {
	if !op.UseMaterials() {
		for _, m := range b.members {
			op.DrawTree(m)
		}
		return
	}
	if b.stale || b.bundle == nil {
		if err := b.record(op); err != nil {
			op.Fail(err)
			return
		}
	}
	op.ExecuteBundle(b.bundle)
}

func (b *BundleMesh) record(op *scene.DrawOperation) error {
	enc, err := op.Device().CreateRenderBundleEncoder(gpu.RenderBundleEncoderDescriptor{
		Label:              b.label,
		ColorFormats:       []gpu.TextureFormat{op.ColorFormat()},
		DepthStencilFormat: op.DepthFormat(),
		SampleCount:        op.SampleCount(),
	})
	if err != nil {
		return fmt.Errorf("mesh: bundle encoder for %q: %w", b.Name(), err)
	}

	unsubscribe := op.OnMaterialMounted(b.Invalidate)
	op.PushRenderPass(enc)
	for _, m := range b.members {
		drawAll(op, m)
	}
	op.PopRenderPass()
	unsubscribe()

	bundle, err := enc.Finish()
	if err != nil {
		return fmt.Errorf("mesh: bundle %q: %w", b.Name(), err)
	}
	if b.bundle != nil {
		b.bundle.Release()
	}
	b.bundle = bundle
	b.stale = false
	b.builds++
	return nil
}

// drawAll draws a member subtree, children first, ignoring the pass filter. The filter applies to the bundle as
// a whole.
func drawAll(op *scene.DrawOperation, n scene.Node) {
	for _, child := range n.Object().Children() {
		drawAll(op, child)
	}
	n.Draw(op)
}

// Release frees the recorded bundle.
func (b *BundleMesh) Release() {
	if b.bundle != nil {
		b.bundle.Release()
		b.bundle = nil
	}
	b.stale = true
}

// ArrayMesh draws many placements of one mesh through a single bundle.
type ArrayMesh struct {
	BundleMesh

	source *Mesh
}

// NewArray creates an empty array of source. source itself is never drawn, only its clones.
//
// Parameters:
//   - source: the mesh to replicate
//
// Returns:
//   - *ArrayMesh: the new array
func NewArray(source *Mesh) *ArrayMesh {
	a := &ArrayMesh{source: source}
	a.init(a)
	return a
}

// Source returns the replicated mesh.
func (a *ArrayMesh) Source() *Mesh { return a.source }

// AddVariant adds a clone of the source placed at t.
//
// Parameters:
//   - t: the local placement of the variant, copied
//
// Returns:
//   - *Mesh: the variant
func (a *ArrayMesh) AddVariant(t *transform.Transform) *Mesh {
	v := a.source.Clone()
	if t != nil {
		v.Transform().Copy(t)
	}
	a.AddMember(v)
	return v
}

// RemoveVariant removes a variant returned by AddVariant.
//
// Returns:
//   - bool: false if v is not a variant of a
func (a *ArrayMesh) RemoveVariant(v *Mesh) bool {
	if !slices.Contains(a.members, scene.Node(v)) {
		return false
	}
	a.RemoveMember(v)
	return true
}

// Variants returns the current variants in insertion order.
func (a *ArrayMesh) Variants() []*Mesh {
	out := make([]*Mesh, 0, len(a.members))
	for _, m := range a.members {
		if v, ok := m.(*Mesh); ok {
			out = append(out, v)
		}
	}
	return out
}
