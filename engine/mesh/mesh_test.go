package mesh

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	op   *scene.DrawOperation
	pass *gputest.RenderPass
}

func newFrame(device *gputest.Device, options ...scene.DrawOperationBuilderOption) frame {
	enc := &gputest.CommandEncoder{}
	pass := enc.BeginRenderPass(gpu.RenderPassDescriptor{}).(*gputest.RenderPass)
	options = append([]scene.DrawOperationBuilderOption{
		scene.WithVertexState(gpu.VertexState{
			Module:     &gputest.ShaderModule{},
			EntryPoint: "main",
			Buffers:    []gpu.VertexBufferLayout{gpu.MeshVertexLayout()},
		}),
	}, options...)
	return frame{op: scene.NewDrawOperation(device, pass, options...), pass: pass}
}

func compile(device *gputest.Device) {
	device.CompletePipelines()
	device.Poll()
}

func TestMeshSkipsUntilMaterialReady(t *testing.T) {
	t.Cleanup(material.Reset)
	device := gputest.NewDevice()
	m := New(geometry.NewBox(1, 1, 1), material.NewUV())

	f := newFrame(device)
	f.op.Visit(m)
	require.NoError(t, f.op.Err())
	assert.Zero(t, f.pass.Count(gputest.OpDrawIndexed), "no draw while the pipeline compiles")
	assert.True(t, m.Geometry().Mounted(), "geometry is uploaded regardless")

	compile(device)

	f = newFrame(device)
	f.op.Visit(m)
	assert.Equal(t, 1, f.pass.Count(gputest.OpDrawIndexed))
	draws := f.pass.Filter(gputest.OpDrawIndexed)
	assert.Equal(t, uint32(36), draws[0].Count)
}

func TestMeshDrawsWithoutMaterialsInDepthPasses(t *testing.T) {
	device := gputest.NewDevice()
	m := New(geometry.NewBox(1, 1, 1), nil)

	f := newFrame(device, scene.WithUseMaterials(false))
	f.op.Visit(m)
	assert.Equal(t, 1, f.pass.Count(gputest.OpDrawIndexed))
	assert.Zero(t, f.pass.Count(gputest.OpSetPipeline))

	f = newFrame(device)
	f.op.Visit(m)
	assert.Zero(t, f.pass.Count(gputest.OpDrawIndexed), "no material, nothing to shade with")
}

func TestCloneSharesGeometryAndMaterial(t *testing.T) {
	uv := material.NewUV()
	m := New(geometry.NewBox(1, 1, 1), uv, WithName("crate"), WithPosition(1, 2, 3), WithCastShadow(false))
	parent := scene.NewGroup("parent")
	parent.Add(m)

	c := m.Clone()
	assert.Same(t, m.Geometry(), c.Geometry())
	assert.Same(t, uv, c.Material())
	assert.Equal(t, "crate", c.Name())
	assert.False(t, c.CastShadow())
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, c.Transform().Position.Get())
	assert.Nil(t, c.Parent())
	assert.NotEqual(t, m.ID(), c.ID())
}

func TestWorldBoundingSphere(t *testing.T) {
	m := New(geometry.NewBox(2, 2, 2), nil, WithPosition(5, 0, 0), WithScale(3, 1, 1))
	center, radius := m.WorldBoundingSphere()
	assert.InDelta(t, 5, center.X(), 1e-5)
	_, local := m.Geometry().BoundingSphere()
	assert.InDelta(t, local*3, radius, 1e-5)
}

func TestCompositeMismatch(t *testing.T) {
	_, err := NewComposite(geometry.NewBox(1, 1, 1), []Part{{0, 6}}, nil)
	assert.ErrorIs(t, err, ErrPartMaterialMismatch)
}

func TestCompositeDrawsReadyParts(t *testing.T) {
	t.Cleanup(material.Reset)
	device := gputest.NewDevice()

	uv := material.NewUV()
	f := newFrame(device)
	f.op.UseMaterial(uv)
	compile(device)

	basic, err := material.NewBasic(material.WithColor(1, 0, 0, 1))
	require.NoError(t, err)
	c, err := NewComposite(geometry.NewBox(1, 1, 1), []Part{{0, 12}, {12, 24}}, []scene.Material{uv, basic})
	require.NoError(t, err)

	f = newFrame(device)
	f.op.Visit(c)
	draws := f.pass.Filter(gputest.OpDrawIndexed)
	require.Len(t, draws, 1, "the basic part is still compiling")
	assert.Equal(t, uint32(12), draws[0].Count)

	compile(device)
	f = newFrame(device)
	f.op.Visit(c)
	draws = f.pass.Filter(gputest.OpDrawIndexed)
	require.Len(t, draws, 2)
	assert.Equal(t, uint32(12), draws[1].FirstIndex)
	assert.Equal(t, uint32(24), draws[1].Count)
}

func TestBundleRebuildsOnceWhenMaterialBecomesReady(t *testing.T) {
	t.Cleanup(material.Reset)
	device := gputest.NewDevice()
	box := geometry.NewBox(1, 1, 1)
	uv := material.NewUV()
	b := NewBundle(New(box, uv), New(box, uv))

	f := newFrame(device)
	f.op.Visit(b)
	require.NoError(t, f.op.Err())
	assert.Equal(t, 1, b.Builds())
	assert.Zero(t, device.Bundles[0].Count(gputest.OpDrawIndexed))
	assert.Equal(t, 1, f.pass.Count(gputest.OpExecuteBundles))

	compile(device)

	f = newFrame(device)
	f.op.Visit(b)
	assert.Equal(t, 2, b.Builds(), "rebuilt after the material compiled")
	assert.Equal(t, 2, device.Bundles[1].Count(gputest.OpDrawIndexed))

	for range 3 {
		f = newFrame(device)
		f.op.Visit(b)
	}
	assert.Equal(t, 2, b.Builds(), "unchanged frames replay the cached bundle")
	assert.Equal(t, 1, f.pass.Count(gputest.OpExecuteBundles))
	assert.Zero(t, f.pass.Count(gputest.OpDrawIndexed), "draws live in the bundle")
}

func TestBundleMembersAreNotChildren(t *testing.T) {
	box := geometry.NewBox(1, 1, 1)
	a, c := New(box, nil), New(box, nil)
	b := NewBundle(a, c)

	assert.Empty(t, b.Children())
	assert.Len(t, b.Members(), 2)
	assert.Same(t, scene.Node(b), a.Parent())

	other := scene.NewGroup("other")
	other.Add(a)
	assert.Equal(t, []scene.Node{c}, b.Members(), "re-parenting detaches the member")

	b.RemoveMember(c)
	assert.Empty(t, b.Members())
	assert.Nil(t, c.Parent())
}

func TestBundleRejectsBundles(t *testing.T) {
	inner := NewBundle()
	assert.PanicsWithError(t, ErrNestedBundle.Error()+`: "`+inner.Name()+`"`, func() {
		NewBundle(inner)
	})

	g := scene.NewGroup("wrapper")
	g.Add(NewArray(New(geometry.NewBox(1, 1, 1), nil)))
	assert.Panics(t, func() { NewBundle(g) }, "bundles nested deeper are rejected too")
}

func TestBundleDrawsMembersDirectlyInDepthPasses(t *testing.T) {
	device := gputest.NewDevice()
	box := geometry.NewBox(1, 1, 1)
	caster := New(box, nil)
	receiver := New(box, nil, WithCastShadow(false))
	b := NewBundle(caster, receiver)

	f := newFrame(device, scene.WithUseMaterials(false), scene.WithFilter(scene.ShadowCasters))
	f.op.Visit(b)
	assert.Equal(t, 1, f.pass.Count(gputest.OpDrawIndexed), "only the caster is drawn")
	assert.Zero(t, f.pass.Count(gputest.OpExecuteBundles))
	assert.Zero(t, b.Builds())
}

func TestBundleUpdatesMemberTransforms(t *testing.T) {
	t.Cleanup(material.Reset)
	device := gputest.NewDevice()
	m := New(geometry.NewBox(1, 1, 1), material.NewUV())
	b := NewBundle(m)

	f := newFrame(device)
	f.op.Visit(b)
	compile(device)
	f = newFrame(device)
	f.op.Visit(b)

	writes := device.RecordingQueue().WriteCount()
	m.Transform().Position.Set(0, 1, 0)
	f = newFrame(device)
	f.op.Visit(b)
	assert.Equal(t, writes+1, device.RecordingQueue().WriteCount())
	assert.False(t, m.Transform().IsDirty())
	assert.Equal(t, 2, b.Builds(), "moving a member does not re-record")
}

func TestArrayVariants(t *testing.T) {
	t.Cleanup(material.Reset)
	device := gputest.NewDevice()
	src := New(geometry.NewBox(1, 1, 1), material.NewUV(), WithName("tree"))
	a := NewArray(src)

	var placements []*Mesh
	for i := range 3 {
		placements = append(placements, a.AddVariant(transform.New(transform.WithPosition(float32(i), 0, 0))))
	}
	assert.Len(t, a.Variants(), 3)
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, placements[2].Transform().Position.Get())
	assert.Equal(t, "tree", placements[0].Name())

	assert.True(t, a.RemoveVariant(placements[1]))
	assert.False(t, a.RemoveVariant(placements[1]))
	assert.False(t, a.RemoveVariant(src))
	assert.Equal(t, []*Mesh{placements[0], placements[2]}, a.Variants())

	f := newFrame(device)
	f.op.Visit(a)
	compile(device)
	f = newFrame(device)
	f.op.Visit(a)
	assert.Equal(t, 2, device.Bundles[len(device.Bundles)-1].Count(gputest.OpDrawIndexed))
}

func TestDebugMeshSkipsShadowPass(t *testing.T) {
	t.Cleanup(material.Reset)
	device := gputest.NewDevice()
	s := scene.NewScene()
	require.NoError(t, s.Mount(device))
	require.NoError(t, s.SetShadowAtlas(device, &scene.ShadowAtlas{
		View: &gputest.TextureView{}, Sampler: &gputest.Sampler{}, TileSize: 64, MapsX: 1, MapsY: 1,
	}))
	d := NewDebug()
	assert.False(t, d.CastShadow())

	f := newFrame(device, scene.WithScene(s), scene.WithLabel(scene.ShadowPassLabel))
	f.op.Visit(d)
	assert.Zero(t, device.AsyncRequests)

	f = newFrame(device, scene.WithScene(s))
	f.op.Visit(d)
	compile(device)
	f = newFrame(device, scene.WithScene(s))
	f.op.Visit(d)
	draws := f.pass.Filter(gputest.OpDraw)
	require.Len(t, draws, 1)
	assert.Equal(t, uint32(3), draws[0].Count)
}
