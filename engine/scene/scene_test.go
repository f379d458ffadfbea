package scene

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu/gputest"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLight struct {
	Object3D
	tag       LightType
	intensity float32
	dirty     bool
}

func newFakeLight(name string, tag LightType, intensity float32) *fakeLight {
	l := &fakeLight{tag: tag, intensity: intensity, dirty: true}
	l.Init(l, KindLight)
	l.SetName(name)
	return l
}

func (l *fakeLight) LightType() LightType { return l.tag }
func (l *fakeLight) IsDirty() bool        { return l.dirty || l.CastShadowValue().Dirty() }
func (l *fakeLight) Clean() {
	l.dirty = false
	l.CastShadowValue().Clean()
}
func (l *fakeLight) Record() LightRecord {
	r := NewLightRecord(l.tag)
	r[RecordIntensity] = l.intensity
	r.SetBool(RecordCastShadow, l.CastShadow())
	return r
}

type fakeShadowLight struct {
	fakeLight
}

func newFakeShadowLight(name string, tag LightType) *fakeShadowLight {
	l := &fakeShadowLight{fakeLight{tag: tag, intensity: 1, dirty: true}}
	l.Init(l, KindLight)
	l.SetName(name)
	return l
}

func (l *fakeShadowLight) LightMatrix() mgl32.Mat4                     { return mgl32.Ident4() }
func (l *fakeShadowLight) Update(gpu.Device) error                     { return nil }
func (l *fakeShadowLight) BindGroup(gpu.Device) (gpu.BindGroup, error) { return &gputest.BindGroup{}, nil }

func testAtlas(tile uint32, x, y int) *ShadowAtlas {
	tex := &gputest.Texture{Desc: gpu.TextureDescriptor{Width: tile * uint32(x), Height: tile * uint32(y), Format: gpu.TextureFormatDepth32Float}}
	view, _ := tex.CreateView()
	return &ShadowAtlas{View: view, Sampler: &gputest.Sampler{}, TileSize: tile, MapsX: x, MapsY: y}
}

func indices(buf *gputest.Buffer, n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(buf.Data[i*4:]))
	}
	return out
}

func TestMountAllocatesPlaceholderBindings(t *testing.T) {
	device := gputest.NewDevice()
	s := NewScene(WithMaxNumLights(4))
	require.NoError(t, s.Mount(device))

	assert.True(t, s.Mounted())
	require.NotNil(t, s.LightBindGroup())
	assert.Equal(t, uint64(4*160), s.LightBuffer().Size())
	assert.Equal(t, uint64(16), s.LightCountBuffer().Size())
	assert.Equal(t, uint64(4*4), s.ShadowIndexBuffer().Size())

	bg := s.LightBindGroup().(*gputest.BindGroup)
	require.Len(t, bg.Desc.Entries, 5)
	view := bg.Desc.Entries[2].TextureView.(*gputest.TextureView)
	assert.Equal(t, uint32(1), view.Texture.Desc.Width)
	assert.Equal(t, gpu.TextureFormatDepth32Float, view.Texture.Desc.Format)
	sampler := bg.Desc.Entries[3].Sampler.(*gputest.Sampler)
	assert.Equal(t, gpu.CompareFunctionLess, sampler.Desc.Compare)
}

func TestUpdateLightsBeforeMountFails(t *testing.T) {
	assert.Error(t, NewScene().UpdateLights(gputest.NewDevice()))
}

func TestShadowSlotsAreDenseInTraversalOrder(t *testing.T) {
	device := gputest.NewDevice()
	s := NewScene(WithMaxNumLights(4))
	ambient := newFakeLight("ambient", LightAmbient, 0.1)
	sun := newFakeShadowLight("sun", LightSun)
	point := newFakeLight("point", LightPoint, 1)
	dir := newFakeShadowLight("directional", LightDirectional)
	s.Add(ambient, sun, point, dir)

	require.NoError(t, s.SetShadowAtlas(device, testAtlas(256, 2, 2)))
	require.NoError(t, s.Mount(device))

	assert.Equal(t, []Light{ambient, sun, point, dir}, s.Lights())
	slot, ok := s.ShadowSlot(sun)
	assert.True(t, ok)
	assert.Equal(t, 0, slot)
	slot, ok = s.ShadowSlot(dir)
	assert.True(t, ok)
	assert.Equal(t, 1, slot)
	_, ok = s.ShadowSlot(ambient)
	assert.False(t, ok)
	_, ok = s.ShadowSlot(point)
	assert.False(t, ok)
	assert.Equal(t, []ShadowLight{sun, dir}, s.ShadowLights())

	idx := indices(s.ShadowIndexBuffer().(*gputest.Buffer), 4)
	assert.Equal(t, []int32{-1, 0, -1, 1}, idx)

	rec := DecodeLightRecord(s.LightBuffer().(*gputest.Buffer).Data, 3)
	assert.Equal(t, float32(1), rec[RecordShadowSlot])
}

func TestCastShadowOffWritesNoSlot(t *testing.T) {
	device := gputest.NewDevice()
	s := NewScene(WithMaxNumLights(2))
	sun := newFakeShadowLight("sun", LightSun)
	s.Add(sun)
	require.NoError(t, s.SetShadowAtlas(device, testAtlas(64, 2, 1)))
	require.NoError(t, s.Mount(device))

	sun.SetCastShadow(false)
	require.NoError(t, s.UpdateLights(device))

	assert.Equal(t, []int32{-1, -1}, indices(s.ShadowIndexBuffer().(*gputest.Buffer), 2))
	slot, ok := s.ShadowSlot(sun)
	assert.True(t, ok, "the tile stays reserved")
	assert.Equal(t, 0, slot)
}

func TestUpdateLightsIsNoOpWhenClean(t *testing.T) {
	device := gputest.NewDevice()
	queue := device.RecordingQueue()
	s := NewScene(WithMaxNumLights(2))
	l := newFakeLight("point", LightPoint, 1)
	s.Add(l)

	require.NoError(t, s.Mount(device))
	before := queue.WriteCount()
	require.NoError(t, s.UpdateLights(device))
	require.NoError(t, s.Mount(device))
	assert.Equal(t, before, queue.WriteCount())

	l.dirty = true
	require.NoError(t, s.UpdateLights(device))
	assert.Greater(t, queue.WriteCount(), before)
}

func TestUpdateLightsNoticesRemovedLights(t *testing.T) {
	device := gputest.NewDevice()
	s := NewScene(WithMaxNumLights(2))
	a, b := newFakeLight("a", LightPoint, 1), newFakeLight("b", LightPoint, 2)
	s.Add(a, b)
	require.NoError(t, s.Mount(device))

	a.Remove()
	require.NoError(t, s.UpdateLights(device))

	count := binary.LittleEndian.Uint32(s.LightCountBuffer().(*gputest.Buffer).Data)
	assert.Equal(t, uint32(1), count)
	rec := DecodeLightRecord(s.LightBuffer().(*gputest.Buffer).Data, 1)
	assert.Equal(t, LightRecord{}, rec, "unused capacity is zero filled")
}

func TestUpdateLightsRecordLayout(t *testing.T) {
	device := gputest.NewDevice()
	s := NewScene(WithMaxNumLights(2))
	s.Add(newFakeShadowLight("sun", LightSun), newFakeLight("ambient", LightAmbient, 0.1))
	require.NoError(t, s.Mount(device))

	data := s.LightBuffer().(*gputest.Buffer).Data
	f := func(light, field int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[light*160+field*4:]))
	}
	assert.Equal(t, float32(LightSun), f(0, RecordType))
	assert.Equal(t, float32(LightAmbient), f(1, RecordType))
	assert.InDelta(t, 0.1, f(1, RecordIntensity), 1e-6)
	assert.Equal(t, float32(-1), f(0, RecordShadowSlot), "no atlas published")
}

func TestTooManyLightsAreDropped(t *testing.T) {
	device := gputest.NewDevice()
	s := NewScene(WithMaxNumLights(1))
	s.Add(newFakeLight("a", LightPoint, 1), newFakeLight("b", LightPoint, 1))
	require.NoError(t, s.Mount(device))
	assert.Len(t, s.Lights(), 1)
}

func TestSetShadowAtlasRebindsWithoutReallocating(t *testing.T) {
	device := gputest.NewDevice()
	s := NewScene()
	require.NoError(t, s.Mount(device))
	old := s.LightBindGroup().(*gputest.BindGroup)
	lightBuf := s.LightBuffer()

	atlas := testAtlas(256, 2, 2)
	require.NoError(t, s.SetShadowAtlas(device, atlas))

	assert.True(t, old.Released)
	assert.False(t, lightBuf.(*gputest.Buffer).Released)
	assert.Same(t, lightBuf, s.LightBuffer())
	bg := s.LightBindGroup().(*gputest.BindGroup)
	assert.Same(t, atlas.View, bg.Desc.Entries[2].TextureView)
	assert.Equal(t, uint32(512), s.ShadowAtlas().Width())
}

type mountRecorder struct {
	log *[]string
}

func (r mountRecorder) Init(s *Scene) {
	s.Hooks().Pre(EventMount, func(gpu.Device) { *r.log = append(*r.log, "pre") })
	s.Hooks().After(EventMount, func(gpu.Device) {
		if s.Mounted() {
			*r.log = append(*r.log, "after")
		}
	})
}

func TestMountRunsHooks(t *testing.T) {
	var log []string
	s := NewScene(WithExtensions(mountRecorder{log: &log}))
	require.NoError(t, s.Mount(gputest.NewDevice()))
	assert.Equal(t, []string{"pre", "after"}, log)
	assert.Len(t, s.Extensions(), 1)
}
