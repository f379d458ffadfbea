package scene

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/Carmen-Shannon/oxy-scene/engine/dirty"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/google/uuid"
)

// ErrCycle is the panic value when a node would become its own ancestor.
var ErrCycle = errors.New("scene: node cannot be added to itself or one of its descendants")

// Kind tags the concrete role of a node so traversal filters stay exhaustive.
type Kind uint8

const (
	KindGroup Kind = iota
	KindMesh
	KindCamera
	KindLight
	KindScene
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindMesh:
		return "mesh"
	case KindCamera:
		return "camera"
	case KindLight:
		return "light"
	case KindScene:
		return "scene"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Node is anything that can live in the scene tree. Concrete nodes embed Object3D and call Init from their
// constructor.
type Node interface {
	// Object returns the embedded tree node.
	//
	// Returns:
	//   - *Object3D: the tree node
	Object() *Object3D

	// Draw records the node's draw calls into op. It is only called when the active filter accepts the node.
	//
	// Parameters:
	//   - op: the draw operation of the current pass
	Draw(op *DrawOperation)
}

// ChildDetacher is implemented by nodes that hold children outside Children, such as bundled meshes. It is
// called when one of those children is re-parented elsewhere.
type ChildDetacher interface {
	DetachChild(child Node)
}

// Composite is implemented by nodes whose draw covers member nodes that are not tree children. Their member
// transforms are updated by the frame walk before the composite itself.
type Composite interface {
	Members() []Node
}

// Object3D is the tree node embedded by every scene object.
type Object3D struct {
	self       Node
	kind       Kind
	id         uuid.UUID
	name       string
	transform  *transform.Transform
	parent     Node
	children   []Node
	castShadow *dirty.Bool
}

// Init wires the embedded node to its owner. It must be called exactly once, from the owner's constructor.
//
// Parameters:
//   - self: the concrete node embedding o
//   - kind: the node kind
func (o *Object3D) Init(self Node, kind Kind) {
	o.self = self
	o.kind = kind
	o.id = uuid.New()
	o.transform = transform.New()
	o.castShadow = dirty.NewBool(true)
}

func (o *Object3D) Object() *Object3D { return o }

// Draw is the default no-op draw.
func (o *Object3D) Draw(*DrawOperation) {}

// ID returns the node's unique identifier.
func (o *Object3D) ID() uuid.UUID { return o.id }

// Kind returns the node kind.
func (o *Object3D) Kind() Kind { return o.kind }

// Name returns the node name.
func (o *Object3D) Name() string { return o.name }

// SetName renames the node.
func (o *Object3D) SetName(name string) { o.name = name }

// Transform returns the node's transform.
func (o *Object3D) Transform() *transform.Transform { return o.transform }

// Parent returns the parent node, or nil.
func (o *Object3D) Parent() Node { return o.parent }

// Children returns the children in insertion order. The slice must not be modified.
func (o *Object3D) Children() []Node { return o.children }

// CastShadow reports whether the node is drawn into shadow maps, or for lights whether it casts shadows.
func (o *Object3D) CastShadow() bool { return o.castShadow.Get() }

// SetCastShadow toggles shadow casting.
func (o *Object3D) SetCastShadow(cast bool) { o.castShadow.Set(cast) }

// CastShadowValue exposes the dirty-tracked flag so owners can fold it into their own dirtiness.
func (o *Object3D) CastShadowValue() *dirty.Bool { return o.castShadow }

// Add attaches children in order. A child that already has a parent is detached from it first.
//
// Parameters:
//   - children: the nodes to attach
func (o *Object3D) Add(children ...Node) {
	for _, child := range children {
		o.Adopt(child)
		o.children = append(o.children, child)
	}
}

// Adopt makes o the parent of child without listing it in Children. Composite nodes use it for members.
//
// Parameters:
//   - child: the node to adopt
func (o *Object3D) Adopt(child Node) {
	c := child.Object()
	for n := o.self; n != nil; n = n.Object().parent {
		if n.Object() == c {
			panic(fmt.Errorf("%w: %q", ErrCycle, c.name))
		}
	}
	c.Remove()
	c.parent = o.self
	c.transform.SetParent(o.transform)
}

// Remove detaches the node from its parent. It is a no-op for roots.
func (o *Object3D) Remove() {
	if o.parent == nil {
		return
	}
	p := o.parent.Object()
	if i := slices.Index(p.children, o.self); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	} else if d, ok := o.parent.(ChildDetacher); ok {
		d.DetachChild(o.self)
	}
	o.parent = nil
	o.transform.SetParent(nil)
}

// Traverse yields the node and every descendant, depth first, parents before children, children in insertion
// order. Each call starts a new traversal.
func (o *Object3D) Traverse() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		traverse(o.self, yield)
	}
}

func traverse(n Node, yield func(Node) bool) bool {
	if !yield(n) {
		return false
	}
	for _, child := range n.Object().children {
		if !traverse(child, yield) {
			return false
		}
	}
	return true
}

// Find returns the first node in traversal order with the given name.
func (o *Object3D) Find(name string) (Node, bool) {
	for n := range o.Traverse() {
		if n.Object().name == name {
			return n, true
		}
	}
	return nil, false
}

// Root returns the topmost ancestor.
func (o *Object3D) Root() Node {
	n := o.self
	for n.Object().parent != nil {
		n = n.Object().parent
	}
	return n
}

// ReadObjects yields every node below root, root included, that implements T, in traversal order.
//
// Parameters:
//   - root: the subtree root
//
// Returns:
//   - iter.Seq[T]: the matching nodes
func ReadObjects[T any](root Node) iter.Seq[T] {
	return func(yield func(T) bool) {
		for n := range root.Object().Traverse() {
			if t, ok := n.(T); ok {
				if !yield(t) {
					return
				}
			}
		}
	}
}

// OfKind yields every node below root, root included, of the given kind.
func OfKind(root Node, kind Kind) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for n := range root.Object().Traverse() {
			if n.Object().kind == kind && !yield(n) {
				return
			}
		}
	}
}

// Group is a node that only carries a transform and children.
type Group struct {
	Object3D
}

// NewGroup creates an empty group.
func NewGroup(name string) *Group {
	g := &Group{}
	g.Init(g, KindGroup)
	g.SetName(name)
	return g
}
