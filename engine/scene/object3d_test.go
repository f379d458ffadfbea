package scene

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(seq func(func(Node) bool)) []string {
	var out []string
	for n := range seq {
		out = append(out, n.Object().Name())
	}
	return out
}

func TestAddReparents(t *testing.T) {
	a, b, c := NewGroup("a"), NewGroup("b"), NewGroup("c")
	a.Add(c)
	b.Add(c)

	assert.Empty(t, a.Children())
	assert.Equal(t, []Node{c}, b.Children())
	assert.Same(t, b, c.Parent())
	assert.Same(t, b.Transform(), c.Transform().Parent())

	b.Add(c)
	assert.Len(t, b.Children(), 1, "re-adding to the same parent keeps a single entry")
}

func TestRemove(t *testing.T) {
	a, b := NewGroup("a"), NewGroup("b")
	a.Add(b)
	b.Remove()

	assert.Empty(t, a.Children())
	assert.Nil(t, b.Parent())
	assert.Nil(t, b.Transform().Parent())
	assert.NotPanics(t, b.Remove)
}

func TestAddRejectsCycles(t *testing.T) {
	a, b, c := NewGroup("a"), NewGroup("b"), NewGroup("c")
	a.Add(b)
	b.Add(c)

	for _, tc := range []struct {
		name   string
		parent *Group
		child  *Group
	}{
		{"self", a, a},
		{"ancestor", c, a},
		{"parent", c, b},
	} {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				r := recover()
				require.NotNil(t, r)
				err, ok := r.(error)
				require.True(t, ok)
				assert.True(t, errors.Is(err, ErrCycle))
			}()
			tc.parent.Add(tc.child)
		})
	}
	assert.Same(t, a, b.Parent(), "a rejected add leaves the tree unchanged")
}

func TestTraverseOrder(t *testing.T) {
	root := NewGroup("root")
	a, b := NewGroup("a"), NewGroup("b")
	a1, a2 := NewGroup("a1"), NewGroup("a2")
	b1 := NewGroup("b1")
	root.Add(a, b)
	a.Add(a1, a2)
	b.Add(b1)

	want := []string{"root", "a", "a1", "a2", "b", "b1"}
	assert.Equal(t, want, names(root.Traverse()))
	assert.Equal(t, want, names(root.Traverse()), "each call restarts the traversal")

	var first []string
	for n := range root.Traverse() {
		first = append(first, n.Object().Name())
		if len(first) == 3 {
			break
		}
	}
	assert.Equal(t, want[:3], first)
}

func TestFindAndRoot(t *testing.T) {
	root := NewGroup("root")
	a, b := NewGroup("a"), NewGroup("b")
	root.Add(a)
	a.Add(b)

	found, ok := root.Find("b")
	require.True(t, ok)
	assert.Same(t, b, found)

	_, ok = root.Find("missing")
	assert.False(t, ok)

	assert.Same(t, root, b.Root())
}

type tagged struct {
	Group
}

func TestReadObjectsAndKind(t *testing.T) {
	root := NewGroup("root")
	x := &tagged{}
	x.Init(x, KindMesh)
	x.SetName("x")
	root.Add(NewGroup("g"), x)

	got := slices.Collect(ReadObjects[*tagged](root))
	assert.Equal(t, []*tagged{x}, got)
	assert.Equal(t, []string{"x"}, names(OfKind(root, KindMesh)))
	assert.Equal(t, "mesh", x.Kind().String())
}

type detacher struct {
	Group
	members  []Node
	detached []Node
}

func (d *detacher) Members() []Node { return d.members }

func (d *detacher) DetachChild(n Node) {
	d.detached = append(d.detached, n)
	d.members = slices.DeleteFunc(d.members, func(m Node) bool { return m == n })
}

func TestAddNotifiesDetacher(t *testing.T) {
	d := &detacher{}
	d.Init(d, KindMesh)
	m := NewGroup("member")
	d.Adopt(m)
	d.members = append(d.members, m)

	other := NewGroup("other")
	other.Add(m)

	assert.Equal(t, []Node{m}, d.detached)
	assert.Empty(t, d.members)
	assert.Same(t, other, m.Parent())
}

func TestWorldMatrixFollowsTree(t *testing.T) {
	root := NewGroup("root")
	child := NewGroup("child")
	root.Add(child)
	root.Transform().Position.Set(1, 0, 0)
	child.Transform().Position.Set(0, 2, 0)

	p := child.Transform().WorldPosition()
	assert.InDelta(t, 1, p.X(), 1e-6)
	assert.InDelta(t, 2, p.Y(), 1e-6)
}

func TestReparentMarksTransformDirty(t *testing.T) {
	g1 := NewGroup("g1")
	g2 := NewGroup("g2")
	child := NewGroup("child")
	g1.Transform().Position.Set(5, 0, 0)
	g1.Add(child)
	for _, n := range []*Group{g1, g2, child} {
		n.Transform().Clean()
	}
	require.False(t, child.Transform().IsDirty())

	g2.Add(child)
	assert.True(t, child.Transform().IsDirty(), "moving under a new parent changes the world matrix")
	assert.InDelta(t, 0, child.Transform().WorldPosition().X(), 1e-6)

	child.Transform().Clean()
	child.Remove()
	assert.True(t, child.Transform().IsDirty())
}
