package shadow

import (
	"errors"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-scene/engine/light"
	"github.com/Carmen-Shannon/oxy-scene/engine/mesh"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rig struct {
	device *gputest.Device
	r      renderer.Renderer
	pass   *ShadowPass
	cam    scene.Camera
	scene  *scene.Scene
}

func newRig(t *testing.T, maxLights int, options ...ShadowPassBuilderOption) *rig {
	t.Helper()
	t.Cleanup(material.Reset)
	device := gputest.NewDevice()
	r := renderer.NewRenderer(device, gputest.NewSurface(320, 240))
	p := New(options...)
	r.AddExtension(p)

	s := scene.NewScene(scene.WithMaxNumLights(maxLights))
	s.Add(mesh.New(geometry.NewBox(1, 1, 1), material.NewUV()))
	return &rig{
		device: device,
		r:      r,
		pass:   p,
		cam:    camera.NewPerspective(camera.WithPosition(0, 2, 8), camera.WithTarget(0, 0, 0)),
		scene:  s,
	}
}

// frame renders once and returns the shadow pass of that frame, or nil.
func (rg *rig) frame(t *testing.T) *gputest.RenderPass {
	t.Helper()
	require.NoError(t, rg.r.Render(rg.cam, rg.scene))
	cmd := rg.device.RecordingQueue().Last()
	require.NotNil(t, cmd)
	for _, p := range cmd.Passes {
		if p.Desc.Label == scene.ShadowPassLabel {
			return p
		}
	}
	return nil
}

// warm renders the frame that requests the pipelines and completes them.
func (rg *rig) warm(t *testing.T) {
	t.Helper()
	assert.Nil(t, rg.frame(t), "shadow pipelines are compiling")
	rg.device.CompletePipelines()
}

func directional(x float32) *light.DirectionalLight {
	return light.NewDirectional(light.WithPosition(x, 10, 5), light.WithTarget(0, 0, 0))
}

func TestAtlasTilesFollowSlots(t *testing.T) {
	rg := newRig(t, 5, WithTileSize(256))
	for i := range 5 {
		rg.scene.Add(directional(float32(i)))
	}
	rg.warm(t)

	atlas := rg.scene.ShadowAtlas()
	require.NotNil(t, atlas)
	assert.Equal(t, 3, atlas.MapsX)
	assert.Equal(t, 2, atlas.MapsY)
	assert.Equal(t, uint32(768), atlas.Width())
	assert.Equal(t, uint32(512), atlas.Height())

	pass := rg.frame(t)
	require.NotNil(t, pass)
	assert.True(t, pass.Ended)
	assert.Empty(t, pass.Desc.ColorAttachments)
	assert.Equal(t, gpu.LoadOpClear, pass.Desc.DepthStencilAttachment.DepthLoadOp)
	assert.Equal(t, atlas.View, pass.Desc.DepthStencilAttachment.View)

	viewports := pass.Filter(gputest.OpSetViewport)
	require.Len(t, viewports, 5)
	assert.Equal(t, [6]float32{0, 0, 256, 256, 0, 1}, viewports[0].Viewport)
	assert.Equal(t, [6]float32{512, 0, 256, 256, 0, 1}, viewports[2].Viewport)
	assert.Equal(t, [6]float32{256, 256, 256, 256, 0, 1}, viewports[4].Viewport)
	assert.Equal(t, 5, pass.Count(gputest.OpDrawIndexed), "the box is drawn once per light")
}

func TestAtlasTextureFormat(t *testing.T) {
	rg := newRig(t, 4)
	rg.scene.Add(directional(0))
	rg.frame(t)

	var atlases []*gputest.Texture
	for _, tex := range rg.device.Textures {
		if strings.HasSuffix(tex.Desc.Label, "_shadow_atlas") {
			atlases = append(atlases, tex)
		}
	}
	require.Len(t, atlases, 1)
	desc := atlases[0].Desc
	assert.Equal(t, AtlasFormat, desc.Format)
	assert.Equal(t, 2*DefaultTileSize, desc.Width)
	assert.Equal(t, 2*DefaultTileSize, desc.Height)
	assert.NotZero(t, desc.Usage&gpu.TextureUsageRenderAttachment)
	assert.NotZero(t, desc.Usage&gpu.TextureUsageTextureBinding)
}

func TestDepthPipelineHasNoFragmentStage(t *testing.T) {
	rg := newRig(t, 4)
	rg.scene.Add(directional(0))
	rg.warm(t)

	var found bool
	for _, p := range rg.device.Pipelines {
		if p.Desc.Label != "shadow_depth" {
			continue
		}
		found = true
		assert.Nil(t, p.Desc.Fragment)
		require.NotNil(t, p.Desc.DepthStencil)
		assert.Equal(t, AtlasFormat, p.Desc.DepthStencil.Format)
		assert.Len(t, p.Desc.BindGroupLayouts, 2)
	}
	assert.True(t, found)

	rg.frame(t)
	assert.True(t, rg.pass.Ready())
}

func TestSceneExtensionAllocatesBeforeMount(t *testing.T) {
	rg := newRig(t, 4, WithTileSize(512))
	rg.scene.AddExtension(rg.pass.SceneExtension())
	require.NoError(t, rg.scene.Mount(rg.device))

	atlas := rg.scene.ShadowAtlas()
	require.NotNil(t, atlas)
	assert.Equal(t, uint32(512), atlas.TileSize)
	assert.Equal(t, uint32(1024), atlas.Width())

	rg.scene.Add(directional(0))
	rg.frame(t)
	assert.Same(t, atlas, rg.scene.ShadowAtlas(), "an attached scene extension is reused")
}

func TestNoShadowLightsSkipsPass(t *testing.T) {
	rg := newRig(t, 4)
	rg.scene.Add(light.NewAmbient(), light.NewPoint(light.WithPosition(0, 3, 0)))
	rg.warm(t)

	assert.Nil(t, rg.frame(t))
	assert.False(t, rg.pass.Ready(), "pipelines are only compiled once a shadow light exists")
}

func TestShadowPassSkipsNonCasters(t *testing.T) {
	rg := newRig(t, 4)
	hidden := mesh.New(geometry.NewSphere(1, 8, 8), material.NewUV())
	hidden.SetCastShadow(false)
	rg.scene.Add(hidden, directional(0))
	rg.warm(t)

	pass := rg.frame(t)
	require.NotNil(t, pass)
	assert.Equal(t, 1, pass.Count(gputest.OpDrawIndexed))

	main := rg.device.RecordingQueue().Last().Passes[1]
	assert.Equal(t, renderer.MainPassLabel, main.Desc.Label)
	assert.Equal(t, 2, main.Count(gputest.OpDrawIndexed))
}

func TestCastShadowOffDropsLight(t *testing.T) {
	rg := newRig(t, 4)
	a, b := directional(0), directional(3)
	rg.scene.Add(a, b)
	rg.warm(t)
	require.Len(t, rg.frame(t).Filter(gputest.OpSetViewport), 2)

	a.SetCastShadow(false)
	pass := rg.frame(t)
	require.NotNil(t, pass)
	viewports := pass.Filter(gputest.OpSetViewport)
	require.Len(t, viewports, 1)
	assert.Equal(t, float32(DefaultTileSize), viewports[0].Viewport[0], "b keeps slot 1")
}

func TestWhenDirtyRedrawsChangedLights(t *testing.T) {
	rg := newRig(t, 4, WithTileSize(128), WithStrategy(WhenDirty))
	a, b := directional(0), directional(3)
	rg.scene.Add(a, b)
	rg.warm(t)

	first := rg.frame(t)
	require.NotNil(t, first)
	assert.Equal(t, gpu.LoadOpClear, first.Desc.DepthStencilAttachment.DepthLoadOp)
	assert.Len(t, first.Filter(gputest.OpSetViewport), 2)

	assert.Nil(t, rg.frame(t), "nothing changed")

	b.Transform().Position.Set(-6, 10, 5)
	pass := rg.frame(t)
	require.NotNil(t, pass)
	assert.Equal(t, gpu.LoadOpLoad, pass.Desc.DepthStencilAttachment.DepthLoadOp)
	viewports := pass.Filter(gputest.OpSetViewport)
	require.Len(t, viewports, 1)
	assert.Equal(t, [6]float32{128, 0, 128, 128, 0, 1}, viewports[0].Viewport)
	assert.Equal(t, 1, pass.Count(gputest.OpDraw), "the stale tile is reset before redrawing")

	assert.Nil(t, rg.frame(t))
}

func TestManualRedrawsStagedLights(t *testing.T) {
	rg := newRig(t, 4, WithTileSize(128), WithStrategy(Manual))
	a, b := directional(0), directional(3)
	rg.scene.Add(a, b)
	rg.warm(t)

	require.NotNil(t, rg.frame(t), "the first sweep fills the atlas")
	a.Transform().Position.Set(1, 12, 5)
	assert.Nil(t, rg.frame(t), "moves are ignored until staged")

	rg.pass.Stage(a)
	pass := rg.frame(t)
	require.NotNil(t, pass)
	viewports := pass.Filter(gputest.OpSetViewport)
	require.Len(t, viewports, 1)
	assert.Equal(t, [6]float32{0, 0, 128, 128, 0, 1}, viewports[0].Viewport)
	assert.Nil(t, rg.frame(t), "the staged set is cleared after the sweep")

	rg.pass.Invalidate()
	pass = rg.frame(t)
	require.NotNil(t, pass)
	assert.Equal(t, gpu.LoadOpClear, pass.Desc.DepthStencilAttachment.DepthLoadOp)
	assert.Len(t, pass.Filter(gputest.OpSetViewport), 2)
}

func TestPipelineFailureDisablesPass(t *testing.T) {
	rg := newRig(t, 4)
	rg.scene.Add(directional(0))
	assert.Nil(t, rg.frame(t))
	rg.device.FailPipelines(errors.New("boom"))

	assert.Nil(t, rg.frame(t))
	assert.Nil(t, rg.frame(t))
	assert.False(t, rg.pass.Ready())
}

func TestReleaseFreesAtlas(t *testing.T) {
	rg := newRig(t, 4)
	rg.scene.Add(directional(0))
	rg.warm(t)
	rg.frame(t)

	rg.pass.Release()
	for _, tex := range rg.device.Textures {
		if strings.HasSuffix(tex.Desc.Label, "_shadow_atlas") {
			assert.True(t, tex.Released)
		}
	}
	assert.False(t, rg.pass.Ready())
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "whenDirty", WhenDirty.String())
	assert.Equal(t, "Strategy(9)", Strategy(9).String())

	s, err := ParseStrategy("manual")
	require.NoError(t, err)
	assert.Equal(t, Manual, s)
	_, err = ParseStrategy("sometimes")
	assert.Error(t, err)
}
