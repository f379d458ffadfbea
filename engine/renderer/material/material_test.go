package material

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOp(t *testing.T, device *gputest.Device, s *scene.Scene) (*scene.DrawOperation, *gputest.RenderPass) {
	t.Helper()
	t.Cleanup(Reset)
	enc := &gputest.CommandEncoder{}
	pass := enc.BeginRenderPass(gpu.RenderPassDescriptor{}).(*gputest.RenderPass)
	op := scene.NewDrawOperation(device, pass,
		scene.WithScene(s),
		scene.WithVertexState(gpu.VertexState{
			Module:     &gputest.ShaderModule{},
			EntryPoint: "main",
			Buffers:    []gpu.VertexBufferLayout{gpu.MeshVertexLayout()},
		}),
	)
	return op, pass
}

func TestNewBasicOptions(t *testing.T) {
	_, err := NewBasic()
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = NewBasic(WithColor(1, 0, 0, 1), WithBitmap(image.NewRGBA(image.Rect(0, 0, 1, 1))))
	assert.ErrorIs(t, err, ErrConflictingOptions)

	_, err = NewStandard(WithColor(1, 0, 0, 1), WithTexture(&gputest.TextureView{}))
	assert.ErrorIs(t, err, ErrConflictingOptions)

	_, err = NewBasic(WithImageFile(filepath.Join(t.TempDir(), "missing.png")))
	assert.Error(t, err)

	m, err := NewBasic(WithColor(1, 1, 1, 1), WithSampler(&gputest.Sampler{}), WithLabel("white"))
	require.NoError(t, err)
	assert.Equal(t, "white", m.Label())
}

func TestImageFileIsDecoded(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{G: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(t.TempDir(), "green.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	m, err := NewBasic(WithImageFile(path))
	require.NoError(t, err)

	device := gputest.NewDevice()
	op, _ := newOp(t, device, nil)
	op.UseMaterial(m)

	require.Len(t, device.Textures, 1)
	assert.Equal(t, uint32(2), device.Textures[0].Desc.Width)
	assert.Equal(t, []byte{0, 255, 0, 255}, device.Textures[0].Pixels[:4])
}

func TestInstancesShareOneCompile(t *testing.T) {
	device := gputest.NewDevice()
	op, _ := newOp(t, device, nil)

	a, err := NewBasic(WithColor(1, 0, 0, 1))
	require.NoError(t, err)
	b, err := NewBasic(WithColor(0, 0, 1, 1))
	require.NoError(t, err)

	assert.False(t, op.UseMaterial(a))
	assert.False(t, op.UseMaterial(b))
	assert.False(t, op.UseMaterial(a))
	assert.Equal(t, 1, device.AsyncRequests)
	assert.Equal(t, Mounting, StateOf(device, KeyBasic))

	device.CompletePipelines()
	device.Poll()

	assert.Equal(t, Ready, StateOf(device, KeyBasic))
	assert.True(t, op.UseMaterial(a))
	assert.True(t, op.UseMaterial(b))
	assert.Equal(t, 1, device.AsyncRequests)
	assert.Same(t, Pipeline(device, KeyBasic), device.Pipelines[0])
}

func TestSkipWhileMountingThenDraw(t *testing.T) {
	device := gputest.NewDevice()
	op, pass := newOp(t, device, nil)
	m := NewUV()

	notified := 0
	op.OnMaterialMounted(func() { notified++ })

	assert.False(t, op.UseMaterial(m))
	assert.Zero(t, pass.Count(gputest.OpSetPipeline))

	device.CompletePipelines()
	assert.False(t, op.UseMaterial(m), "completion is only delivered by Poll")
	assert.Zero(t, notified)

	device.Poll()
	assert.Equal(t, 2, notified, "both uses joined the in-flight compile")
	assert.True(t, op.UseMaterial(m))
	assert.Equal(t, 1, pass.Count(gputest.OpSetPipeline))

	op.UseMaterial(m)
	device.Poll()
	assert.Equal(t, 2, notified, "no notification once ready")
}

func TestMountingQueuesNoCallbacksWithoutSubscribers(t *testing.T) {
	device := gputest.NewDevice()
	op, _ := newOp(t, device, nil)
	m := NewUV()

	for range 10 {
		assert.False(t, op.UseMaterial(m))
	}
	assert.Empty(t, lookup(device, KeyUV).waiters)

	unsubscribe := op.OnMaterialMounted(func() {})
	op.UseMaterial(m)
	unsubscribe()
	op.UseMaterial(m)
	assert.Len(t, lookup(device, KeyUV).waiters, 1)

	device.CompletePipelines()
	device.Poll()
	assert.Empty(t, lookup(device, KeyUV).waiters)
	assert.Equal(t, Ready, StateOf(device, KeyUV))
}

func TestFailedCompileIsTerminal(t *testing.T) {
	device := gputest.NewDevice()
	op, _ := newOp(t, device, nil)
	m := NewUV()

	op.UseMaterial(m)
	device.FailPipelines(errors.New("bad shader"))
	device.Poll()

	assert.Equal(t, Failed, StateOf(device, KeyUV))
	assert.False(t, op.UseMaterial(m))
	assert.Equal(t, 1, device.AsyncRequests, "failed pipelines are not retried")
	assert.Nil(t, Pipeline(device, KeyUV))
}

func TestBasicBindsImageGroup(t *testing.T) {
	device := gputest.NewDevice()
	op, pass := newOp(t, device, nil)
	m, err := NewBasic(WithColor(1, 0.5, 0, 1))
	require.NoError(t, err)

	op.UseMaterial(m)
	assert.True(t, m.Ready(), "resources are created on first mount")
	require.Len(t, device.Textures, 1)
	assert.Equal(t, []byte{255, 128, 0, 255}, device.Textures[0].Pixels)

	device.CompletePipelines()
	device.Poll()
	require.True(t, op.UseMaterial(m))

	groups := pass.Filter(gputest.OpSetBindGroup)
	last := groups[len(groups)-1]
	assert.Equal(t, uint32(2), last.Index)
}

func TestBasicResourceFailureDisablesMaterial(t *testing.T) {
	device := gputest.NewDevice()
	op, _ := newOp(t, device, nil)
	m, err := NewBasic(WithColor(1, 1, 1, 1))
	require.NoError(t, err)

	_, err = bind_group_provider.For(device)
	require.NoError(t, err)
	device.FailCreate()
	op.UseMaterial(m)
	device.CompletePipelines()
	device.Poll()

	assert.False(t, m.Ready())
	assert.False(t, op.UseMaterial(m))
}

func TestStandardNeedsMountedScene(t *testing.T) {
	device := gputest.NewDevice()
	s := scene.NewScene(scene.WithMaxNumLights(4))
	op, pass := newOp(t, device, s)
	m, err := NewStandard(WithColor(1, 1, 1, 1))
	require.NoError(t, err)

	op.UseMaterial(m)
	device.CompletePipelines()
	device.Poll()
	assert.Equal(t, Ready, StateOf(device, m.Key(s)))
	assert.False(t, op.UseMaterial(m), "no light bind group before the scene mounts")

	require.NoError(t, s.Mount(device))
	require.True(t, op.UseMaterial(m))

	var indices []uint32
	for _, c := range pass.Filter(gputest.OpSetBindGroup) {
		indices = append(indices, c.Index)
	}
	assert.Equal(t, []uint32{2, 3}, indices[len(indices)-2:])
}

func TestStandardVariantFollowsShadowAtlas(t *testing.T) {
	device := gputest.NewDevice()
	s := scene.NewScene(scene.WithMaxNumLights(5))
	require.NoError(t, s.Mount(device))
	op, _ := newOp(t, device, s)
	m, err := NewStandard(WithColor(1, 1, 1, 1))
	require.NoError(t, err)

	plain := m.Key(s)
	assert.Equal(t, "standard_l5", plain)
	op.UseMaterial(m)
	device.CompletePipelines()
	device.Poll()
	require.True(t, op.UseMaterial(m))

	require.NoError(t, s.SetShadowAtlas(device, &scene.ShadowAtlas{
		View: &gputest.TextureView{}, Sampler: &gputest.Sampler{}, TileSize: 512, MapsX: 3, MapsY: 2,
	}))
	assert.Equal(t, "standard_l5_s3x2_512", m.Key(s))
	assert.False(t, op.UseMaterial(m), "the shadowed variant compiles separately")
	assert.Equal(t, 2, device.AsyncRequests)

	code := device.Modules[len(device.Modules)-1].Desc.Code
	assert.Contains(t, code, "const hasShadowMap: bool = true;")
	assert.Contains(t, code, "const mapsX: u32 = 3u;")
}

func TestShadowDepthWaitsForAtlas(t *testing.T) {
	device := gputest.NewDevice()
	s := scene.NewScene()
	require.NoError(t, s.Mount(device))
	op, _ := newOp(t, device, s)
	m := NewShadowDepth()

	op.UseMaterial(m)
	device.CompletePipelines()
	device.Poll()
	assert.Equal(t, Ready, StateOf(device, KeyShadowDepth))
	assert.False(t, op.UseMaterial(m), "no atlas published")

	desc := device.Pipelines[0].Desc
	assert.Empty(t, desc.Vertex.Buffers, "full-screen triangle has no vertex buffers")
	require.NotNil(t, desc.DepthStencil)
	assert.False(t, desc.DepthStencil.DepthWriteEnabled)

	atlas := &scene.ShadowAtlas{View: &gputest.TextureView{}, Sampler: &gputest.Sampler{}, TileSize: 256, MapsX: 1, MapsY: 1}
	require.NoError(t, s.SetShadowAtlas(device, atlas))
	assert.True(t, op.UseMaterial(m))
}
