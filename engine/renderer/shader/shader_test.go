package shader

import (
	"errors"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standardConstants() Constants {
	return Constants{
		"hasShadowMap":           true,
		"shadowDepthTextureSize": 1024,
		"mapsX":                  2,
		"mapsY":                  uint32(1),
		"maxNumLights":           16,
	}
}

func TestProcessInclude(t *testing.T) {
	out, err := NewPreProcessor().Process("//@oxy:include varyings\nfn f() {}", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "struct VertexOutput")
	assert.NotContains(t, out, "@oxy:")
	assert.True(t, strings.HasSuffix(out, "fn f() {}"))
}

func TestProcessIncludeBuiltinFails(t *testing.T) {
	_, err := NewPreProcessor().Process("//@oxy:include mat4", nil)
	assert.Error(t, err)
}

func TestProcessGroup(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process(strings.Join([]string{
		"//@oxy:group 0 0 uniform view_proj mat4",
		"//@oxy:group 3 1 storage_read lights array<light>",
	}, "\n"), nil)
	require.NoError(t, err)

	assert.Contains(t, out, "@group(0) @binding(0) var<uniform> view_proj: mat4x4<f32>;")
	assert.Contains(t, out, "@group(3) @binding(1) var<storage, read> lights: array<Light>;")

	decls := pp.Declarations()
	require.Len(t, decls, 2)
	assert.Equal(t, 3, *decls[1].Group)
	assert.Equal(t, 1, *decls[1].Binding)
	assert.Equal(t, 2, decls[1].Line)
}

func TestProcessConst(t *testing.T) {
	out, err := NewPreProcessor().Process(strings.Join([]string{
		"//@oxy:const on bool",
		"//@oxy:const size f32",
		"//@oxy:const count u32",
		"//@oxy:const offset i32",
	}, "\n"), Constants{"on": false, "size": 512, "count": 3, "offset": -2})
	require.NoError(t, err)

	assert.Contains(t, out, "const on: bool = false;")
	assert.Contains(t, out, "const size: f32 = 512.0;")
	assert.Contains(t, out, "const count: u32 = 3u;")
	assert.Contains(t, out, "const offset: i32 = -2i;")
}

func TestProcessConstErrors(t *testing.T) {
	pp := NewPreProcessor()

	_, err := pp.Process("//@oxy:const count u32", nil)
	assert.ErrorContains(t, err, "no value")

	_, err = pp.Process("//@oxy:const count u32", Constants{"count": -1})
	assert.Error(t, err)

	_, err = pp.Process("//@oxy:const count u32", Constants{"count": 1.5})
	assert.Error(t, err)

	_, err = pp.Process("//@oxy:const on bool", Constants{"on": 1})
	assert.Error(t, err)
}

func TestParseAnnotationErrors(t *testing.T) {
	for _, line := range []string{
		"//@oxy:",
		"//@oxy:include",
		"//@oxy:include nothing",
		"//@oxy:group 0 0 uniform view_proj",
		"//@oxy:group x 0 uniform view_proj mat4",
		"//@oxy:group 0 0 private view_proj mat4",
		"//@oxy:group 0 0 uniform view_proj array<nothing>",
		"//@oxy:const x vec3",
		"//@oxy:bogus",
	} {
		_, err := parseAnnotation(line, 1)
		assert.Error(t, err, line)
	}

	a, err := parseAnnotation("let x = 1; // @oxy:include vertex", 1)
	assert.NoError(t, err)
	assert.Nil(t, a, "annotations must start the line")
}

func TestBuiltinsProcess(t *testing.T) {
	for _, s := range Builtins() {
		out, _, err := s.Process(standardConstants())
		require.NoError(t, err, s.Key())
		assert.NotContains(t, out, "@oxy:", s.Key())
		assert.Equal(t, "main", s.EntryPoint())
	}
}

func TestBuiltinsValidate(t *testing.T) {
	for _, s := range Builtins() {
		for _, shadows := range []bool{true, false} {
			consts := standardConstants()
			consts["hasShadowMap"] = shadows
			out, _, err := s.Process(consts)
			require.NoError(t, err)

			if err := Validate(out); err != nil {
				if IsUnsupported(err) && s.Key() != StandardFragment.Key() {
					t.Logf("%s: naga: %v", s.Key(), err)
					continue
				}
				t.Errorf("%s: %v", s.Key(), err)
			}
		}
	}
}

func TestStandardFragmentValidates(t *testing.T) {
	for _, shadows := range []bool{true, false} {
		consts := standardConstants()
		consts["hasShadowMap"] = shadows
		out, _, err := StandardFragment.Process(consts)
		require.NoError(t, err)
		assert.NotContains(t, out, "all(")
		assert.NoError(t, Validate(out), "shadows=%v", shadows)
	}
}

func TestIsUnsupported(t *testing.T) {
	assert.False(t, IsUnsupported(nil))
	assert.True(t, IsUnsupported(errors.New("SPIR-V generation error: unsupported expression kind: ir.ExprRelational")))
	assert.True(t, IsUnsupported(errors.New("feature not yet implemented")))
	assert.False(t, IsUnsupported(errors.New("unknown identifier 'foo'")))
}

func TestStandardDeclarations(t *testing.T) {
	_, decls, err := StandardFragment.Process(standardConstants())
	require.NoError(t, err)

	var groups []int
	for _, d := range decls {
		groups = append(groups, *d.Group)
	}
	assert.Equal(t, []int{0, 3, 3, 3}, groups)
}

func TestCreateModule(t *testing.T) {
	device := gputest.NewDevice()

	module, err := UVFragment.CreateModule(device, nil)
	require.NoError(t, err)
	sm, ok := module.(*gputest.ShaderModule)
	require.True(t, ok)
	assert.Equal(t, "uv_fragment", sm.Desc.Label)
	assert.NotContains(t, sm.Desc.Code, "@oxy:")

	_, err = StandardFragment.CreateModule(device, nil)
	assert.Error(t, err, "missing constants")
}
