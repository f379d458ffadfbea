// annotations.go defines the annotation types, argument constants, and parser for the WGSL shader pre-processor.
// Annotations are single-line WGSL comments prefixed with @oxy: that inject shared struct definitions, generate
// @group/@binding declarations for the engine's fixed bind group layouts, and splice in override constants that
// are only known when a pipeline is compiled.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an annotation within a WGSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered struct definition at the annotation site.
	//
	// Syntax: //@oxy:include <struct_type>
	//
	// Example: //@oxy:include varyings
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a WGSL @group/@binding variable declaration and records it in the
	// pre-processor's declarations list.
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@oxy:group 3 1 storage_read lights array<light>
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeConst generates a module-scope constant whose value is supplied when the shader is
	// processed. A missing value is an error.
	//
	// Syntax: //@oxy:const <name> <scalar_type>
	//
	// Example: //@oxy:const maxNumLights u32
	AnnotationTypeConst AnnotationType = "const"
)

// Annotation represents a single parsed @oxy: annotation from a WGSL shader source line.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include: [0] = struct type key
	//   - group:   [0] = address space, [1] = var name, [2] = type key
	//   - const:   [0] = constant name, [1] = scalar type
	Args []AnnotationArg

	// Line is the 1-based line number in the original WGSL source where this annotation was found.
	Line int

	// Group is the @group index for group annotations. Nil otherwise.
	Group *int

	// Binding is the @binding index for group annotations. Nil otherwise.
	Binding *int
}

// AnnotationArg is a typed string used as an argument in annotations.
type AnnotationArg string

// ── Struct type arguments ──────────────────────────────────────────────────────
// These identify registered WGSL types. They can appear in @oxy:include annotations (structs only) and as the
// type field of @oxy:group annotations, optionally wrapped in array<>.

const (
	// annotationArgVertex identifies the VertexInput struct matching gpu.MeshVertexLayout.
	annotationArgVertex AnnotationArg = "vertex"

	// annotationArgVaryings identifies the VertexOutput struct passed from the mesh vertex shader to every mesh
	// fragment shader.
	annotationArgVaryings AnnotationArg = "varyings"

	// annotationArgFullscreen identifies the FullscreenOutput struct of the full-screen triangle shaders.
	annotationArgFullscreen AnnotationArg = "fullscreen"

	// AnnotationArgLight identifies the 160 byte Light record struct.
	AnnotationArgLight AnnotationArg = "light"

	// AnnotationArgLightCount identifies the LightCount uniform struct.
	AnnotationArgLightCount AnnotationArg = "light_count"

	// annotationArgMat4 is the builtin mat4x4<f32> type.
	annotationArgMat4 AnnotationArg = "mat4"

	// annotationArgVec4 is the builtin vec4<f32> type.
	annotationArgVec4 AnnotationArg = "vec4"

	// annotationArgI32 is the builtin i32 type.
	annotationArgI32 AnnotationArg = "i32"
)

// ── Address space arguments ────────────────────────────────────────────────────

const (
	annotationArgStorageTypeUniform AnnotationArg = "uniform"
	annotationArgStorageTypeRead    AnnotationArg = "storage_read"
)

// ── Scalar type arguments ──────────────────────────────────────────────────────

const (
	annotationArgBool AnnotationArg = "bool"
	annotationArgU32  AnnotationArg = "u32"
	annotationArgF32  AnnotationArg = "f32"
)

// validStructTypes lists every type key accepted by include and group annotations.
var validStructTypes = []AnnotationArg{
	annotationArgVertex,
	annotationArgVaryings,
	annotationArgFullscreen,
	AnnotationArgLight,
	AnnotationArgLightCount,
	annotationArgMat4,
	annotationArgVec4,
	annotationArgI32,
}

// validAddressSpaces lists the address spaces accepted by group annotations.
var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeRead,
}

// validScalarTypes lists the types accepted by const annotations.
var validScalarTypes = []AnnotationArg{
	annotationArgBool,
	annotationArgU32,
	annotationArgI32,
	annotationArgF32,
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch args[0] {
	case string(annotationTypeInclude):
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case string(AnnotationTypeBindingGroup):
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @oxy group annotation requires exactly five arguments (group, binding, address space, var name, type)", lineNum)
		}
		groupInt, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid group number %q in @oxy group annotation: %w", lineNum, args[1], err)
		}
		bindingInt, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid binding number %q in @oxy group annotation: %w", lineNum, args[2], err)
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @oxy group annotation", lineNum, args[3])
		}
		typeArg := args[5]
		if inner, ok := strings.CutPrefix(typeArg, "array<"); ok {
			typeArg = strings.TrimSuffix(inner, ">")
		}
		if !slices.Contains(validStructTypes, AnnotationArg(typeArg)) {
			return nil, fmt.Errorf("line %d: unknown type %q in @oxy group annotation", lineNum, args[5])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &groupInt,
			Binding: &bindingInt,
		}, nil
	case string(AnnotationTypeConst):
		if len(args) != 3 {
			return nil, fmt.Errorf("line %d: @oxy const annotation requires exactly two arguments (name, type)", lineNum)
		}
		if !slices.Contains(validScalarTypes, AnnotationArg(args[2])) {
			return nil, fmt.Errorf("line %d: unsupported constant type %q in @oxy const annotation", lineNum, args[2])
		}
		return &Annotation{
			Type: AnnotationTypeConst,
			Args: []AnnotationArg{AnnotationArg(args[1]), AnnotationArg(args[2])},
			Line: lineNum,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}
