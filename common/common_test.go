package common

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtlasGrid(t *testing.T) {
	for _, tc := range []struct {
		n, x, y int
	}{
		{0, 1, 1},
		{1, 1, 1},
		{2, 2, 1},
		{4, 2, 2},
		{5, 3, 2},
		{16, 4, 4},
		{17, 5, 4},
	} {
		x, y := AtlasGrid(tc.n)
		assert.Equal(t, tc.x, x, "columns for %d", tc.n)
		assert.Equal(t, tc.y, y, "rows for %d", tc.n)
	}
}

func TestAtlasTile(t *testing.T) {
	x, y := AtlasTile(4, 3, 512)
	assert.Equal(t, uint32(512), x)
	assert.Equal(t, uint32(512), y)

	x, y = AtlasTile(2, 3, 512)
	assert.Equal(t, uint32(1024), x)
	assert.Equal(t, uint32(0), y)
}

func TestPerspectiveDepthRange(t *testing.T) {
	p := Perspective(mgl32.DegToRad(60), 1, 1, 10)
	near := p.Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	far := p.Mul4x1(mgl32.Vec4{0, 0, -10, 1})
	assert.InDelta(t, 0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-5)
}

func TestOrthoDepthRange(t *testing.T) {
	o := Ortho(-1, 1, -1, 1, 0.5, 20)
	assert.InDelta(t, 0, o.Mul4x1(mgl32.Vec4{0, 0, -0.5, 1}).Z(), 1e-5)
	assert.InDelta(t, 1, o.Mul4x1(mgl32.Vec4{0, 0, -20, 1}).Z(), 1e-5)
}

func TestFrustumContainsSphere(t *testing.T) {
	vp := Perspective(mgl32.DegToRad(60), 1, 0.1, 100).Mul4(LookAt(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}))
	f := ExtractFrustumFromMatrix(vp)

	assert.True(t, f.ContainsSphere(mgl32.Vec3{}, 1))
	assert.False(t, f.ContainsSphere(mgl32.Vec3{0, 0, 50}, 1), "behind the camera")
	assert.False(t, f.ContainsSphere(mgl32.Vec3{500, 0, 0}, 1))
	assert.True(t, f.ContainsSphere(mgl32.Vec3{0, 0, 6}, 2), "straddles the near plane")
}

func TestLookAtDegenerateInputs(t *testing.T) {
	m := LookAt(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	for _, v := range m {
		assert.False(t, v != v, "no NaN when up is parallel to the view direction")
	}
	m = LookAt(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, 1, 0})
	for _, v := range m {
		assert.False(t, v != v)
	}
}

func TestFromColor(t *testing.T) {
	px := FromColor(1, 0.5, 0, 2)
	assert.Equal(t, []byte{255, 128, 0, 255}, px.Pixels)
	assert.Equal(t, uint32(1), px.Width)
}

func TestDecodeImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.NRGBA{R: 255, A: 255})
	src.Set(1, 0, color.NRGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	data, err := DecodeImage(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), data.Width)
	assert.Equal(t, uint32(1), data.Height)
	assert.Equal(t, []byte{255, 0, 0, 255, 0, 0, 255, 255}, data.Pixels)

	_, err = DecodeImage(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes[float32](nil))
	assert.Len(t, SliceToBytes([]float32{1, 2, 3}), 12)
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, uint32(1), OrDefault(uint32(0), 1))
	assert.Equal(t, uint32(4), OrDefault(uint32(4), 1))
	assert.Equal(t, "x", OrDefault("", "x"))
}
