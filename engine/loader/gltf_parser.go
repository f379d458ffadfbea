package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Common errors returned by the parser
var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.0")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI   = errors.New("invalid buffer URI")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
)

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	baseDir        string
	document       *gltfDocument
	glbBinaryChunk []byte
}

// gltfParser loads glTF/GLB documents and reads typed accessor data out of their buffers.
type gltfParser interface {
	// Parse loads and parses a glTF/GLB file from the given path.
	// Automatically detects .gltf (JSON) vs .glb (binary) format.
	//
	// Parameters:
	//   - path: path to the glTF or GLB file
	//
	// Returns:
	//   - error: error if parsing fails
	Parse(path string) error

	// ParseReader parses a glTF document from a reader. External buffers and images resolve against baseDir.
	//
	// Parameters:
	//   - r: reader containing glTF JSON or GLB data
	//   - isGLB: true if the data is in GLB format
	//   - baseDir: the directory relative URIs resolve against
	//
	// Returns:
	//   - error: error if parsing fails
	ParseReader(r io.Reader, isGLB bool, baseDir string) error

	// Document returns the parsed glTF document, or nil before a successful parse.
	Document() *gltfDocument

	// ReadVec2Accessor reads a VEC2 FLOAT accessor.
	ReadVec2Accessor(accessorIndex int) ([][2]float32, error)

	// ReadVec3Accessor reads a VEC3 FLOAT accessor.
	ReadVec3Accessor(accessorIndex int) ([][3]float32, error)

	// ReadIndicesAccessor reads a SCALAR accessor as uint32 indices. The component type is checked with
	// IndexComponentType.
	ReadIndicesAccessor(accessorIndex int) ([]uint32, error)

	// ReadImage returns the encoded bytes of an image, from its buffer view or URI.
	ReadImage(imageIndex int) ([]byte, error)
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a new glTF parser instance.
//
// Returns:
//   - gltfParser: a new parser instance
func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) Parse(path string) error {
	p.baseDir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".glb" || (len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic) {
		return p.parseGLB(data)
	}
	return p.parseGLTF(data)
}

func (p *gltfParserImpl) ParseReader(r io.Reader, isGLB bool, baseDir string) error {
	p.baseDir = baseDir
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}

	if isGLB {
		return p.parseGLB(data)
	}
	return p.parseGLTF(data)
}

// parseGLTF parses a glTF JSON file.
func (p *gltfParserImpl) parseGLTF(data []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	return p.accept(&doc)
}

// parseGLB parses a GLB binary file.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func (p *gltfParserImpl) parseGLB(data []byte) error {
	if len(data) < 12 {
		return errors.New("GLB file too small")
	}

	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != gltfGLBMagic {
		return errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return errInvalidGLBVersion
	}

	var jsonData []byte
	for {
		var chunkHeader gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunkHeader); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read chunk header: %w", err)
		}

		chunkData := make([]byte, chunkHeader.ChunkLength)
		if _, err := io.ReadFull(r, chunkData); err != nil {
			return fmt.Errorf("failed to read chunk data: %w", err)
		}

		switch chunkHeader.ChunkType {
		case gltfGLBChunkJSON:
			jsonData = chunkData
		case gltfGLBChunkBIN:
			p.glbBinaryChunk = chunkData
		}
	}
	if jsonData == nil {
		return errMissingJSONChunk
	}

	var doc gltfDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	return p.accept(&doc)
}

// accept checks the version and loads the buffers of doc.
func (p *gltfParserImpl) accept(doc *gltfDocument) error {
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}
	if err := p.loadBuffers(doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}
	p.document = doc
	return nil
}

// loadBuffers loads all buffer data (from URIs, embedded data, or GLB binary chunk).
func (p *gltfParserImpl) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		switch {
		case buf.URI == "" && i == 0 && p.glbBinaryChunk != nil:
			buf.Data = p.glbBinaryChunk
		case buf.URI == "":
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		default:
			data, err := p.loadURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		}

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}
	return nil
}

// loadURI loads data from a base64 data URI or a path relative to the document.
func (p *gltfParserImpl) loadURI(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		return decodeDataURI(uri)
	}

	data, err := os.ReadFile(filepath.Join(p.baseDir, uri))
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", uri, err)
	}
	return data, nil
}

// decodeDataURI decodes data:[<mediatype>][;base64],<data>.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, errInvalidBufferURI
	}
	if !strings.Contains(header, "base64") {
		return nil, fmt.Errorf("unsupported data URI encoding: %s", header)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}

// --- Accessor Data Reading ---

// accessorData returns the tightly packed elements of an accessor, undoing any buffer view stride.
func (p *gltfParserImpl) accessorData(accessorIndex int, typ string, componentSize int) (*gltfAccessor, []byte, error) {
	if p.document == nil {
		return nil, nil, errors.New("no document loaded")
	}
	if accessorIndex < 0 || accessorIndex >= len(p.document.Accessors) {
		return nil, nil, fmt.Errorf("accessor index %d out of range", accessorIndex)
	}

	acc := &p.document.Accessors[accessorIndex]
	if acc.Type != typ {
		return nil, nil, fmt.Errorf("accessor %d is %s, want %s", accessorIndex, acc.Type, typ)
	}
	if acc.Sparse != nil {
		return nil, nil, errors.New("sparse accessors not supported")
	}
	if acc.BufferView == nil {
		return nil, nil, errors.New("accessor has no bufferView")
	}

	bv := &p.document.BufferViews[*acc.BufferView]
	buf := &p.document.Buffers[bv.Buffer]

	elementSize := componentSize * gltfAccessorTypeComponentCount(acc.Type)
	stride := elementSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}

	start := bv.ByteOffset + acc.ByteOffset
	if acc.Count > 0 && start+(acc.Count-1)*stride+elementSize > len(buf.Data) {
		return nil, nil, fmt.Errorf("accessor %d: %w", accessorIndex, errBufferSizeMismatch)
	}

	result := make([]byte, acc.Count*elementSize)
	for i := 0; i < acc.Count; i++ {
		src := start + i*stride
		copy(result[i*elementSize:(i+1)*elementSize], buf.Data[src:src+elementSize])
	}
	return acc, result, nil
}

// readFloats reads an accessor of float vectors with n components.
func (p *gltfParserImpl) readFloats(accessorIndex int, typ string, n int) ([][]float32, error) {
	acc, data, err := p.accessorData(accessorIndex, typ, 4)
	if err != nil {
		return nil, err
	}
	if ComponentType(acc.ComponentType) != ComponentFloat {
		return nil, fmt.Errorf("accessor %d is not FLOAT: componentType=%d", accessorIndex, acc.ComponentType)
	}

	out := make([][]float32, acc.Count)
	for i := range out {
		out[i] = make([]float32, n)
		for j := range n {
			out[i][j] = math.Float32frombits(binary.LittleEndian.Uint32(data[(i*n+j)*4:]))
		}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadVec2Accessor(accessorIndex int) ([][2]float32, error) {
	raw, err := p.readFloats(accessorIndex, gltfAccessorTypeVec2, 2)
	if err != nil {
		return nil, err
	}
	out := make([][2]float32, len(raw))
	for i, v := range raw {
		out[i] = [2]float32(v)
	}
	return out, nil
}

func (p *gltfParserImpl) ReadVec3Accessor(accessorIndex int) ([][3]float32, error) {
	raw, err := p.readFloats(accessorIndex, gltfAccessorTypeVec3, 3)
	if err != nil {
		return nil, err
	}
	out := make([][3]float32, len(raw))
	for i, v := range raw {
		out[i] = [3]float32(v)
	}
	return out, nil
}

func (p *gltfParserImpl) ReadIndicesAccessor(accessorIndex int) ([]uint32, error) {
	if p.document == nil || accessorIndex < 0 || accessorIndex >= len(p.document.Accessors) {
		return nil, fmt.Errorf("index accessor %d out of range", accessorIndex)
	}
	ct, err := IndexComponentType(p.document.Accessors[accessorIndex].ComponentType)
	if err != nil {
		return nil, err
	}

	acc, data, err := p.accessorData(accessorIndex, gltfAccessorTypeScalar, ct.Size())
	if err != nil {
		return nil, err
	}

	result := make([]uint32, acc.Count)
	for i := range result {
		switch ct.Size() {
		case 1:
			result[i] = uint32(data[i])
		case 2:
			result[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		case 4:
			result[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	}
	return result, nil
}

func (p *gltfParserImpl) ReadImage(imageIndex int) ([]byte, error) {
	if p.document == nil || imageIndex < 0 || imageIndex >= len(p.document.Images) {
		return nil, fmt.Errorf("image index %d out of range", imageIndex)
	}
	img := &p.document.Images[imageIndex]
	if img.BufferView == nil {
		return p.loadURI(img.URI)
	}

	bv := &p.document.BufferViews[*img.BufferView]
	data := p.document.Buffers[bv.Buffer].Data
	if bv.ByteOffset+bv.ByteLength > len(data) {
		return nil, fmt.Errorf("image %d: %w", imageIndex, errBufferSizeMismatch)
	}
	return data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength], nil
}

// gltfAccessorTypeComponentCount returns the number of components for an accessor type.
func gltfAccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4:
		return 4
	case gltfAccessorTypeMat4:
		return 16
	default:
		return 0
	}
}
