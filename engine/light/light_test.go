package light

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSunAndAmbientRecords(t *testing.T) {
	device := gputest.NewDevice()
	s := scene.NewScene(scene.WithMaxNumLights(2))
	s.Add(
		NewSun(WithIntensity(1.5)),
		NewAmbient(WithIntensity(0.1), WithColor(1, 1, 1)),
	)
	require.NoError(t, s.Mount(device))

	count := s.LightCountBuffer().(*gputest.Buffer)
	assert.Equal(t, uint32(2), uint32(count.Data[0]))

	data := s.LightBuffer().(*gputest.Buffer).Data
	sun := scene.DecodeLightRecord(data, 0)
	assert.Equal(t, float32(scene.LightSun), sun[scene.RecordType])
	assert.Equal(t, float32(1.5), sun[scene.RecordIntensity])

	ambient := scene.DecodeLightRecord(data, 1)
	assert.Equal(t, float32(scene.LightAmbient), ambient[scene.RecordType])
	assert.InDelta(t, 0.1, ambient[scene.RecordIntensity], 1e-6)
	assert.InDelta(t, 0.1, ambient[scene.RecordColor], 1e-6, "colour premultiplied by intensity")
}

func TestShadowSlotsFollowTraversalOrder(t *testing.T) {
	device := gputest.NewDevice()
	s := scene.NewScene(scene.WithMaxNumLights(4))
	ambient, sun, point, dir := NewAmbient(), NewSun(), NewPoint(), NewDirectional()
	s.Add(ambient, sun, point, dir)
	require.NoError(t, s.Mount(device))

	for _, tc := range []struct {
		light scene.Light
		slot  int
		ok    bool
	}{
		{ambient, 0, false},
		{sun, 0, true},
		{point, 0, false},
		{dir, 1, true},
	} {
		slot, ok := s.ShadowSlot(tc.light)
		assert.Equal(t, tc.ok, ok, tc.light.Object().Name())
		assert.Equal(t, tc.slot, slot, tc.light.Object().Name())
	}
}

func TestLightsCleanAfterUpload(t *testing.T) {
	device := gputest.NewDevice()
	s := scene.NewScene()
	p := NewPoint(WithPosition(1, 2, 3), WithDecay(1))
	s.Add(p)
	require.NoError(t, s.Mount(device))
	assert.False(t, p.IsDirty())

	writes := device.RecordingQueue().WriteCount()
	require.NoError(t, s.UpdateLights(device))
	assert.Equal(t, writes, device.RecordingQueue().WriteCount())

	p.Transform().Position.Set(4, 5, 6)
	assert.True(t, p.IsDirty())
	require.NoError(t, s.UpdateLights(device))
	rec := scene.DecodeLightRecord(s.LightBuffer().(*gputest.Buffer).Data, 0)
	assert.Equal(t, []float32{4, 5, 6}, rec[scene.RecordPosition:scene.RecordPosition+3])
	assert.Equal(t, float32(1), rec[scene.RecordDecay])
}

func TestLightMovesWithParent(t *testing.T) {
	rig := scene.NewGroup("rig")
	p := NewPoint(WithPosition(0, 1, 0))
	rig.Add(p)
	p.Clean()

	rig.Transform().Position.Set(10, 0, 0)
	assert.True(t, p.IsDirty())
	assert.Equal(t, mgl32.Vec3{10, 1, 0}, p.Position())
}

func TestDirectionalRecordLayout(t *testing.T) {
	l := NewDirectional(
		WithPosition(0, 10, 0),
		WithTarget(1, 0, 0),
		WithCone(0.2, 0.4),
		WithSpotIntensity(3),
		WithDecay(0.5),
	)
	rec := l.Record()
	assert.Equal(t, float32(scene.LightDirectional), rec[scene.RecordType])
	assert.Equal(t, []float32{0, 10, 0}, rec[scene.RecordPosition:scene.RecordPosition+3])
	assert.Equal(t, []float32{1, 0, 0}, rec[scene.RecordTarget:scene.RecordTarget+3])
	assert.Equal(t, common.ConeCos(0.2), rec[scene.RecordInnerCone])
	assert.Equal(t, common.ConeCos(0.4), rec[scene.RecordOuterCone])
	assert.Equal(t, float32(3), rec[scene.RecordSpotIntensity])
	assert.Equal(t, float32(1), rec[scene.RecordCastShadow])
	assert.Equal(t, float32(-1), rec[scene.RecordShadowSlot])

	m := l.LightMatrix()
	assert.Equal(t, m[:], rec[scene.RecordMatrix:scene.RecordMatrix+16])

	// the target lands in the middle of the light's view
	c := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 0, c.X(), 1e-4)
	assert.InDelta(t, 0, c.Y(), 1e-4)
}

func TestSunLightLooksAtOrigin(t *testing.T) {
	l := NewSun(WithDirection(0, -1, -1))
	c := l.LightMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, c.X(), 1e-4)
	assert.InDelta(t, 0, c.Y(), 1e-4)
	assert.Greater(t, c.Z(), float32(0))
	assert.Less(t, c.Z(), float32(1))

	rec := l.Record()
	assert.Equal(t, []float32{0, -1, -1}, rec[scene.RecordPosition:scene.RecordPosition+3])
}

func TestShadowLightViewUploadsOnChange(t *testing.T) {
	device := gputest.NewDevice()
	l := NewDirectional(WithPosition(0, 10, 0))

	require.NoError(t, l.Update(device), "no-op before the bind group exists")
	_, err := l.BindGroup(device)
	require.NoError(t, err)
	writes := device.RecordingQueue().WriteCount()

	l.Clean()
	require.NoError(t, l.Update(device))
	assert.Equal(t, writes, device.RecordingQueue().WriteCount())

	l.SetTarget(5, 0, 0)
	l.Clean()
	require.NoError(t, l.Update(device), "the view tracks its own uploads")
	assert.Equal(t, writes+2, device.RecordingQueue().WriteCount())
}

func TestCastShadowToggleMarksDirty(t *testing.T) {
	l := NewSun()
	l.Clean()
	l.SetCastShadow(false)
	assert.True(t, l.IsDirty())
	assert.Equal(t, float32(0), l.Record()[scene.RecordCastShadow])
}

func TestLightTypes(t *testing.T) {
	assert.Equal(t, scene.LightAmbient, NewAmbient().LightType())
	assert.Equal(t, scene.LightPoint, NewPoint().LightType())
	assert.Equal(t, scene.LightSun, NewSun().LightType())
	assert.Equal(t, scene.LightDirectional, NewDirectional().LightType())
	assert.False(t, NewAmbient().CastShadow())
	assert.True(t, NewSun().CastShadow())
}
