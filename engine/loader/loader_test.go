package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/light"
	"github.com/Carmen-Shannon/oxy-scene/engine/mesh"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadOBJ = `# a quad and a triangle
o quad
v 0 0 0
v 1 0 0
v 1 0 -1
v 0 0 -1
vt 0 0
vt 1 1
f 1/1 2/1 3/2 4/2
s 1
o tri
v 0 1 0
v 1 1 0
v 0 1 -1
vn 0 1 0
f -3//1 -2//1 -1//1
`

func TestParseOBJFansAndObjects(t *testing.T) {
	meshes, err := ParseOBJ(strings.NewReader(quadOBJ))
	require.NoError(t, err)
	require.Len(t, meshes, 2)

	quad := meshes[0]
	assert.Equal(t, "quad", quad.Name())
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, quad.Geometry().Indices())
	assert.Equal(t, 4, quad.Geometry().VertexCount())
	for _, v := range quad.Geometry().Vertices() {
		assert.InDelta(t, 1, v.Normal[1], 1e-6, "missing normals are computed from the faces")
	}
	assert.Equal(t, [2]float32{1, 0}, quad.Geometry().Vertices()[2].TexCoord, "v is flipped")

	tri := meshes[1]
	assert.Equal(t, "tri", tri.Name())
	assert.Equal(t, []uint32{0, 1, 2}, tri.Geometry().Indices())
	assert.Equal(t, [3]float32{1, 1, 0}, tri.Geometry().Vertices()[1].Position, "negative indices are relative to the end")
}

func TestParseOBJSharesCorners(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3\nf 1 3 4\n"
	meshes, err := ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, meshes, 1)
	assert.Equal(t, "default", meshes[0].Name())
	assert.Equal(t, 4, meshes[0].Geometry().VertexCount())
	assert.Equal(t, 6, meshes[0].Geometry().IndexCount())
}

func TestParseOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"out of range", "v 0 0 0\nf 1 2 3\n"},
		{"two corners", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{"bad float", "v 0 x 0\n"},
		{"bad index", "v 0 0 0\nf a b c\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ(strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestIndexComponentType(t *testing.T) {
	for _, code := range []int{5120, 5121, 5122, 5123, 5125} {
		ct, err := IndexComponentType(code)
		require.NoError(t, err)
		assert.Equal(t, ComponentType(code), ct)
	}
	assert.Equal(t, 2, ComponentUnsignedShort.Size())

	_, err := IndexComponentType(5126)
	assert.ErrorIs(t, err, ErrUnsupportedComponentType)
	_, err = IndexComponentType(1)
	assert.ErrorIs(t, err, ErrUnsupportedComponentType)
}

func ptr[T any](v T) *T { return &v }

func TestPunctualLight(t *testing.T) {
	point := PunctualLight(LightDef{Type: "point", Name: "bulb", Intensity: ptr(float32(3))})
	p, ok := point.(*light.PointLight)
	require.True(t, ok)
	assert.Equal(t, "bulb", p.Name())
	assert.Equal(t, float32(3), p.Intensity())
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, p.Color())

	sun := PunctualLight(LightDef{Type: "directional", Color: &[3]float32{1, 0, 0}})
	s, ok := sun.(*light.SunLight)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, s.Color())
	assert.True(t, s.Direction().ApproxEqual(mgl32.Vec3{0, 0, -1}))

	spot := PunctualLight(LightDef{Type: "spot", Translation: mgl32.Vec3{0, 2, 0}})
	d, ok := spot.(*light.DirectionalLight)
	require.True(t, ok)
	assert.True(t, d.Target().ApproxEqual(mgl32.Vec3{0, 2, -1}))

	inert := PunctualLight(LightDef{Type: "area", Name: "panel"})
	g, ok := inert.(*scene.Group)
	require.True(t, ok)
	assert.Equal(t, "panel", g.Name())
	assert.Equal(t, "unsupported_light", PunctualLight(LightDef{Type: "area"}).Object().Name())
}

// testGLTF builds a document with one triangle drawn by two primitives, a spot light and an unsupported light.
func testGLTF() string {
	var buf bytes.Buffer
	for _, v := range []float32{0, 0, 0, 1, 0, 0, 0, 0, -1} {
		_ = binary.Write(&buf, binary.LittleEndian, math.Float32bits(v))
	}
	for _, i := range []uint16{0, 1, 2} {
		_ = binary.Write(&buf, binary.LittleEndian, i)
	}
	data := base64.StdEncoding.EncodeToString(buf.Bytes())
	s45 := float32(math.Sqrt2 / 2)

	return fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0, 3]}],
  "nodes": [
    {"name": "root", "translation": [1, 2, 3], "children": [1, 2]},
    {"name": "tri", "mesh": 0, "rotation": [0, %[2]f, 0, %[2]f]},
    {"name": "lamp", "translation": [0, 5, 0], "rotation": [-%[2]f, 0, 0, %[2]f],
     "extensions": {"KHR_lights_punctual": {"light": 0}}},
    {"name": "panel", "extensions": {"KHR_lights_punctual": {"light": 1}}}
  ],
  "meshes": [{"name": "tri", "primitives": [
    {"attributes": {"POSITION": 0}, "indices": 1},
    {"attributes": {"POSITION": 0}, "indices": 1, "material": 0}
  ]}],
  "materials": [{"pbrMetallicRoughness": {"baseColorFactor": [1, 0, 0, 1]}}],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
  ],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 6}
  ],
  "buffers": [{"byteLength": 42, "uri": "data:application/octet-stream;base64,%[1]s"}],
  "extensions": {"KHR_lights_punctual": {"lights": [
    {"type": "spot", "intensity": 2, "spot": {"outerConeAngle": 0.5}},
    {"type": "area"}
  ]}}
}`, data, s45)
}

func TestLoadGLTFHierarchy(t *testing.T) {
	t.Cleanup(material.Reset)
	l := NewLoader()
	root, err := l.LoadReader("test.gltf", strings.NewReader(testGLTF()), FormatGLTF)
	require.NoError(t, err)

	group, ok := root.(*scene.Group)
	require.True(t, ok, "two scene roots are grouped")
	assert.Equal(t, "test.gltf", group.Name())
	require.Len(t, group.Children(), 2)

	top := group.Children()[0].Object()
	assert.Equal(t, "root", top.Name())
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, top.Transform().Position.Get())
	require.Len(t, top.Children(), 2)

	tri, ok := top.Children()[0].(*mesh.CompositeMesh)
	require.True(t, ok, "two primitives make a composite mesh")
	assert.Equal(t, "tri", tri.Name())
	assert.Equal(t, []mesh.Part{{IndexOffset: 0, IndexCount: 3}, {IndexOffset: 3, IndexCount: 3}}, tri.Parts())
	assert.Equal(t, 6, tri.Geometry().VertexCount())
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5}, tri.Geometry().Indices())
	assert.InDelta(t, 1, tri.Geometry().Vertices()[0].Normal[1], 1e-6)
	assert.NotSame(t, tri.Materials()[0], tri.Materials()[1])
	assert.True(t, tri.Transform().Rotation.Get().ApproxEqualThreshold(
		mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 1, 0}), 1e-5))

	lamp, ok := top.Children()[1].(*light.DirectionalLight)
	require.True(t, ok)
	assert.Equal(t, float32(2), lamp.Intensity())
	assertVec3(t, mgl32.Vec3{1, 6, 3}, lamp.Target(), "spot aims down its world -Z axis")

	_, ok = group.Children()[1].(*scene.Group)
	assert.True(t, ok, "unsupported light types load as groups")
}

func assertVec3(t *testing.T, want, got mgl32.Vec3, msg string) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "%s: component %d of %v", msg, i, got)
	}
}

func TestNestedAimsUseWorldPose(t *testing.T) {
	t.Cleanup(material.Reset)
	s45 := float32(math.Sqrt2 / 2)
	doc := fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "nodes": [
    {"name": "rig", "translation": [1, 2, 3], "rotation": [0, %[1]f, 0, %[1]f], "children": [1, 2]},
    {"name": "eye", "camera": 0, "translation": [0, 0, 2]},
    {"name": "sun", "extensions": {"KHR_lights_punctual": {"light": 0}}}
  ],
  "cameras": [{"type": "perspective", "perspective": {"yfov": 0.8, "znear": 0.1}}],
  "extensions": {"KHR_lights_punctual": {"lights": [{"type": "directional"}]}}
}`, s45)
	root, err := NewLoader().LoadReader("rig.gltf", strings.NewReader(doc), FormatGLTF)
	require.NoError(t, err)

	eye, ok := root.Object().Find("eye")
	require.True(t, ok)
	cam, ok := eye.(*camera.PerspectiveCamera)
	require.True(t, ok)
	// A quarter turn about Y maps local -Z to world -X and local +Z to world +X.
	assertVec3(t, mgl32.Vec3{3, 2, 3}, cam.Position(), "camera position")
	assertVec3(t, mgl32.Vec3{2, 2, 3}, cam.Target(), "camera aims down its world -Z axis")

	sunNode, ok := root.Object().Find("sun")
	require.True(t, ok)
	sun, ok := sunNode.(*light.SunLight)
	require.True(t, ok)
	assertVec3(t, mgl32.Vec3{-1, 0, 0}, sun.Direction(), "sun direction follows the parent rotation")
}

func TestUnsupportedIndicesSkipPrimitive(t *testing.T) {
	t.Cleanup(material.Reset)
	// Only the second primitive keeps usable indices.
	doc := strings.Replace(testGLTF(),
		`{"attributes": {"POSITION": 0}, "indices": 1},`,
		`{"attributes": {"POSITION": 0}, "indices": 0},`, 1)
	root, err := NewLoader().LoadReader("bad.gltf", strings.NewReader(doc), FormatGLTF)
	require.NoError(t, err, "one bad primitive does not abort the asset")

	found, ok := root.Object().Find("tri")
	require.True(t, ok)
	tri, ok := found.(*mesh.Mesh)
	require.True(t, ok, "the remaining primitive loads as a plain mesh")
	assert.Equal(t, []uint32{0, 1, 2}, tri.Geometry().Indices())

	_, ok = root.Object().Find("lamp")
	assert.True(t, ok, "the rest of the tree still loads")
}

func TestLoaderCachesParses(t *testing.T) {
	t.Cleanup(material.Reset)
	l := NewLoader()
	first, err := l.LoadReader("test.gltf", strings.NewReader(testGLTF()), FormatGLTF)
	require.NoError(t, err)
	assert.True(t, l.Cached("test.gltf"))

	second, err := l.LoadReader("test.gltf", nil, FormatGLTF)
	require.NoError(t, err)
	assert.NotSame(t, first, second, "each load builds a new tree")

	find := func(n scene.Node) *mesh.CompositeMesh {
		found, ok := n.Object().Find("tri")
		require.True(t, ok)
		return found.(*mesh.CompositeMesh)
	}
	assert.Same(t, find(first).Geometry(), find(second).Geometry())

	l.Forget("test.gltf")
	assert.False(t, l.Cached("test.gltf"))
}

func TestLoadOBJFile(t *testing.T) {
	t.Cleanup(material.Reset)
	fallback := material.NewUV()
	dir := t.TempDir()
	path := filepath.Join(dir, "tri.obj")
	require.NoError(t, os.WriteFile(path, []byte("o tri\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0o644))

	l := NewLoader(WithFallbackMaterial(fallback))
	node, err := l.Load(path)
	require.NoError(t, err)
	m, ok := node.(*mesh.Mesh)
	require.True(t, ok)
	assert.Equal(t, "tri", m.Name())
	assert.Same(t, fallback, m.Material())

	meshes, err := LoadOBJ(path)
	require.NoError(t, err)
	assert.Len(t, meshes, 1)

	_, err = l.Load(filepath.Join(dir, "scene.fbx"))
	assert.Error(t, err)
}

func TestGLBParse(t *testing.T) {
	doc := []byte(`{"asset":{"version":"2.0"},"nodes":[{"name":"empty"}]}  `)
	var glb bytes.Buffer
	total := 12 + 8 + len(doc)
	for _, v := range []uint32{gltfGLBMagic, gltfGLBVersion, uint32(total), uint32(len(doc)), gltfGLBChunkJSON} {
		_ = binary.Write(&glb, binary.LittleEndian, v)
	}
	glb.Write(doc)

	p := newGLTFParser()
	require.NoError(t, p.ParseReader(&glb, true, "."))
	require.Len(t, p.Document().Nodes, 1)

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.gltf")
	require.NoError(t, os.WriteFile(path, []byte(`{"asset":{"version":"1.0"}}`), 0o644))
	assert.ErrorIs(t, newGLTFParser().Parse(path), errInvalidGLTFVersion)
}
