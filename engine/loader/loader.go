// Package loader builds scene graph nodes from OBJ, glTF and GLB files.
package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/logger"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"go.uber.org/zap"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	cache     map[string]*asset
	materials materialFactory
}

// Loader loads scene files into node trees and caches the parsed files. Every Load returns a fresh tree, so a
// cached file can be added to a scene more than once; geometry and materials are shared between the trees.
type Loader interface {
	// Load parses the file at path, or reuses the cached parse, and instantiates its node tree. The format is
	// chosen by extension.
	//
	// Parameters:
	//   - path: path to an .obj, .gltf or .glb file
	//
	// Returns:
	//   - scene.Node: the root of the loaded tree
	//   - error: error if the file cannot be read or parsed
	Load(path string) (scene.Node, error)

	// LoadReader parses a stream and caches it under name. Relative references in glTF files resolve against the
	// working directory.
	//
	// Parameters:
	//   - name: the cache key, also the name of the root group when the file has several roots
	//   - r: the file contents
	//   - format: the file format
	//
	// Returns:
	//   - scene.Node: the root of the loaded tree
	//   - error: error if parsing fails
	LoadReader(name string, r io.Reader, format Format) (scene.Node, error)

	// Cached reports whether a file or stream name has been parsed.
	Cached(name string) bool

	// Forget drops a cached parse. Trees already instantiated are not affected.
	Forget(name string)
}

var _ Loader = &loader{}

// NewLoader creates a Loader.
//
// Parameters:
//   - options: functional options to configure the loader
//
// Returns:
//   - Loader: the loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		cache: make(map[string]*asset),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (scene.Node, error) {
	if a := l.cached(path); a != nil {
		return a.instantiate()
	}

	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	defer f.Close()

	return l.parse(path, f, filepath.Dir(path), format)
}

func (l *loader) LoadReader(name string, r io.Reader, format Format) (scene.Node, error) {
	if a := l.cached(name); a != nil {
		return a.instantiate()
	}
	return l.parse(name, r, ".", format)
}

func (l *loader) parse(name string, r io.Reader, baseDir string, format Format) (scene.Node, error) {
	a, err := backendFor(format).Parse(r, baseDir, l.materials)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", name, err)
	}
	a.name = filepath.Base(name)

	l.mu.Lock()
	l.cache[name] = a
	l.mu.Unlock()

	logger.Named("loader").Info("loaded scene file",
		zap.String("name", name),
		zap.Stringer("format", format),
		zap.Int("roots", len(a.roots)))
	return a.instantiate()
}

func (l *loader) cached(name string) *asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[name]
}

func (l *loader) Cached(name string) bool {
	return l.cached(name) != nil
}

func (l *loader) Forget(name string) {
	l.mu.Lock()
	delete(l.cache, name)
	l.mu.Unlock()
}
