// pre_processor.go implements the WGSL shader pre-processor. It scans shader source code for @oxy: annotations,
// replaces them with injected struct sources, generated binding declarations or constants, and collects a
// declarations list of the bindings the shader expects.
//
// The pre-processor maintains two registries:
//   - structRegistry: maps AnnotationArg keys to embedded WGSL struct sources and their resolved type names.
//   - addressSpaceRegistry: maps address space argument keys to WGSL var<> syntax strings.
package shader

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Constants are the values substituted for @oxy:const annotations, keyed by constant name. Values may be any Go
// bool, integer or float type; they are converted to the annotated WGSL type.
type Constants map[string]any

// registryEntry pairs a WGSL struct source string with the resolved WGSL type name used in generated
// @group/@binding declarations. Builtin types have no source.
type registryEntry struct {
	// Source is the raw WGSL struct definition text injected by @oxy:include.
	Source string

	// Type is the WGSL type name emitted in @oxy:group declarations.
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// structRegistry maps struct type argument keys to their embedded WGSL source and type name.
	structRegistry map[AnnotationArg]registryEntry

	// addressSpaceRegistry maps address space argument keys to WGSL var<> syntax strings.
	addressSpaceRegistry map[AnnotationArg]string

	// declarations accumulates annotations of type AnnotationTypeBindingGroup during a Process call.
	// Reset at the start of each Process invocation.
	declarations []Annotation
}

// PreProcessor processes raw WGSL shader source code containing @oxy: annotations.
type PreProcessor interface {
	// Process replaces every annotation in source with its WGSL output. @oxy:include annotations become the
	// embedded struct source, @oxy:group annotations become @group/@binding declarations, and @oxy:const
	// annotations become module-scope constants taken from consts.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations to be processed
	//   - consts: the values of the shader's @oxy:const annotations, may be nil when there are none
	//
	// Returns:
	//   - string: the processed WGSL shader source code with annotations replaced
	//   - error: an error if any annotation is malformed, references an unknown type or lacks a constant value
	Process(source string, consts Constants) (string, error)

	// Declarations returns the AnnotationTypeBindingGroup annotations collected during the most recent call to
	// Process, in source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor with all registered struct types and address space mappings
// pre-populated.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			annotationArgVertex:     {Source: vertexSource, Type: "VertexInput"},
			annotationArgVaryings:   {Source: varyingsSource, Type: "VertexOutput"},
			annotationArgFullscreen: {Source: fullscreenSource, Type: "FullscreenOutput"},
			AnnotationArgLight:      {Source: lightSource, Type: "Light"},
			AnnotationArgLightCount: {Source: lightCountSource, Type: "LightCount"},
			annotationArgMat4:       {Type: "mat4x4<f32>"},
			annotationArgVec4:       {Type: "vec4<f32>"},
			annotationArgI32:        {Type: "i32"},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform: "var<uniform>",
			annotationArgStorageTypeRead:    "var<storage, read>",
		},
	}
}

func (p *preProcessor) Process(source string, consts Constants) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			entry := p.structRegistry[a.Args[0]]
			if entry.Source == "" {
				return "", fmt.Errorf("line %d: %q is a builtin type and cannot be included", i+1, a.Args[0])
			}
			out = append(out, entry.Source)
		case AnnotationTypeBindingGroup:
			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			varName := string(a.Args[1])
			var wgslType string
			if inner, ok := strings.CutPrefix(string(a.Args[2]), "array<"); ok {
				inner = strings.TrimSuffix(inner, ">")
				wgslType = fmt.Sprintf("array<%s>", p.structRegistry[AnnotationArg(inner)].Type)
			} else {
				wgslType = p.structRegistry[a.Args[2]].Type
			}

			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addrSpace, varName, wgslType))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeConst:
			name, typ := string(a.Args[0]), a.Args[1]
			v, ok := consts[name]
			if !ok {
				return "", fmt.Errorf("line %d: no value for constant %q", i+1, name)
			}
			lit, err := literal(v, typ)
			if err != nil {
				return "", fmt.Errorf("line %d: constant %q: %w", i+1, name, err)
			}
			out = append(out, fmt.Sprintf("const %s: %s = %s;", name, typ, lit))
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", i+1, a.Type)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

// literal formats v as a WGSL literal of type typ.
func literal(v any, typ AnnotationArg) (string, error) {
	if typ == annotationArgBool {
		b, ok := v.(bool)
		if !ok {
			return "", fmt.Errorf("want bool, got %T", v)
		}
		return strconv.FormatBool(b), nil
	}

	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	default:
		return "", fmt.Errorf("want a number, got %T", v)
	}

	switch typ {
	case annotationArgU32:
		if f < 0 || f != math.Trunc(f) || f > math.MaxUint32 {
			return "", fmt.Errorf("%v is not a u32", v)
		}
		return strconv.FormatUint(uint64(f), 10) + "u", nil
	case annotationArgI32:
		if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
			return "", fmt.Errorf("%v is not an i32", v)
		}
		return strconv.FormatInt(int64(f), 10) + "i", nil
	default:
		s := strconv.FormatFloat(f, 'f', -1, 32)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return s, nil
	}
}
