package loader

import (
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
)

// Format identifies a scene file format.
type Format int

const (
	FormatOBJ Format = iota
	FormatGLTF
	FormatGLB
)

// String returns the file extension of the format.
func (f Format) String() string {
	switch f {
	case FormatOBJ:
		return "obj"
	case FormatGLTF:
		return "gltf"
	case FormatGLB:
		return "glb"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatOf selects a format from a file extension.
//
// Parameters:
//   - path: a file path or name
//
// Returns:
//   - Format: the format
//   - error: error if the extension is not supported
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		return FormatOBJ, nil
	case ".gltf":
		return FormatGLTF, nil
	case ".glb":
		return FormatGLB, nil
	default:
		return 0, fmt.Errorf("loader: unsupported format %q", ext)
	}
}

// loaderBackend turns one file format into an asset prototype.
type loaderBackend interface {
	// Parse reads a whole file.
	//
	// Parameters:
	//   - r: the file contents
	//   - baseDir: the directory relative references resolve against
	//   - materials: creates the materials the file refers to
	//
	// Returns:
	//   - *asset: the parsed prototype
	//   - error: error if the file is malformed
	Parse(r io.Reader, baseDir string, materials materialFactory) (*asset, error)
}

var (
	_ loaderBackend = objBackend{}
	_ loaderBackend = gltfBackend{}
)

func backendFor(f Format) loaderBackend {
	switch f {
	case FormatGLTF:
		return gltfBackend{}
	case FormatGLB:
		return gltfBackend{glb: true}
	default:
		return objBackend{}
	}
}

// materialFactory creates lit or unlit materials from a colour or an image.
type materialFactory struct {
	unlit    bool
	override scene.Material
}

func (f materialFactory) build(opts ...material.MaterialBuilderOption) (scene.Material, error) {
	if f.unlit {
		m, err := material.NewBasic(opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	m, err := material.NewStandard(opts...)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (f materialFactory) fallback() (scene.Material, error) {
	if f.override != nil {
		return f.override, nil
	}
	return defaultMaterial(!f.unlit)
}

func (f materialFactory) color(c [4]float32) (scene.Material, error) {
	return f.build(material.WithColor(c[0], c[1], c[2], c[3]))
}

func (f materialFactory) bitmap(img image.Image) (scene.Material, error) {
	return f.build(material.WithBitmap(img))
}

// defaultMaterial is the light grey used for meshes without a material.
func defaultMaterial(lit bool) (scene.Material, error) {
	return materialFactory{unlit: !lit}.color([4]float32{0.8, 0.8, 0.8, 1})
}
