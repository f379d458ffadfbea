package loader

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"github.com/Carmen-Shannon/oxy-scene/engine/logger"
	"github.com/Carmen-Shannon/oxy-scene/engine/mesh"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// gltfBackend turns a glTF or GLB document into an asset. Node hierarchy, local transforms, meshes, cameras and
// KHR_lights_punctual lights are kept; skins and animations are ignored.
type gltfBackend struct {
	glb bool
}

// gltfMeshProto is the shared geometry of one glTF mesh. Several primitives become parts of one composite.
type gltfMeshProto struct {
	geometry  *geometry.Geometry
	parts     []mesh.Part
	materials []scene.Material
}

// gltfBuild carries the per-document caches while the node tree is walked.
type gltfBuild struct {
	parser    gltfParser
	doc       *gltfDocument
	factory   materialFactory
	meshes    map[int]*gltfMeshProto
	materials map[int]scene.Material
	visiting  map[int]bool
}

func (b gltfBackend) Parse(r io.Reader, baseDir string, materials materialFactory) (*asset, error) {
	p := newGLTFParser()
	if err := p.ParseReader(r, b.glb, baseDir); err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}

	build := &gltfBuild{
		parser:    p,
		doc:       p.Document(),
		factory:   materials,
		meshes:    make(map[int]*gltfMeshProto),
		materials: make(map[int]scene.Material),
		visiting:  make(map[int]bool),
	}

	a := &asset{}
	for _, i := range build.rootNodes() {
		n, err := build.node(i)
		if err != nil {
			return nil, err
		}
		a.roots = append(a.roots, n)
	}
	return a, nil
}

// rootNodes returns the nodes of the default scene, or every parentless node when the document has no scenes.
func (b *gltfBuild) rootNodes() []int {
	if len(b.doc.Scenes) > 0 {
		i := 0
		if b.doc.Scene != nil && *b.doc.Scene < len(b.doc.Scenes) {
			i = *b.doc.Scene
		}
		return b.doc.Scenes[i].Nodes
	}

	child := make([]bool, len(b.doc.Nodes))
	for _, n := range b.doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(child) {
				child[c] = true
			}
		}
	}
	var roots []int
	for i, isChild := range child {
		if !isChild {
			roots = append(roots, i)
		}
	}
	return roots
}

func (b *gltfBuild) node(i int) (*assetNode, error) {
	if i < 0 || i >= len(b.doc.Nodes) {
		return nil, fmt.Errorf("loader: node %d out of range", i)
	}
	if b.visiting[i] {
		return nil, fmt.Errorf("loader: node %d: %w", i, scene.ErrCycle)
	}
	b.visiting[i] = true
	defer delete(b.visiting, i)

	src := &b.doc.Nodes[i]
	n := newAssetNode(src.Name)
	n.position, n.rotation, n.scale = nodePose(src)

	switch {
	case src.Mesh != nil:
		proto, err := b.mesh(*src.Mesh)
		if err != nil {
			return nil, err
		}
		if proto != nil {
			n.geometry, n.parts, n.materials = proto.geometry, proto.parts, proto.materials
		}
	case src.Camera != nil:
		if err := b.camera(n, *src.Camera); err != nil {
			return nil, err
		}
	case src.Extensions.LightsPunctual != nil:
		b.light(n, src.Extensions.LightsPunctual.Light)
	}

	for _, c := range src.Children {
		child, err := b.node(c)
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, child)
	}
	return n, nil
}

// nodePose returns the local transform of a node, decomposing its matrix when one is given.
func nodePose(n *gltfNode) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	if n.Matrix != nil {
		m := mgl32.Mat4(*n.Matrix)
		pos := m.Col(3).Vec3()
		scale := mgl32.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
		var rot mgl32.Mat4
		for c := range 3 {
			col := m.Col(c).Vec3()
			if scale[c] != 0 {
				col = col.Mul(1 / scale[c])
			}
			rot.SetCol(c, col.Vec4(0))
		}
		rot.Set(3, 3, 1)
		return pos, mgl32.Mat4ToQuat(rot).Normalize(), scale
	}

	pos, rot, scale := mgl32.Vec3{}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1}
	if n.Translation != nil {
		pos = *n.Translation
	}
	if n.Rotation != nil {
		r := *n.Rotation
		rot = mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
	}
	if n.Scale != nil {
		scale = *n.Scale
	}
	return pos, rot, scale
}

// mesh merges the triangle primitives of a glTF mesh into one geometry. It returns nil when no primitive is
// drawable.
func (b *gltfBuild) mesh(i int) (*gltfMeshProto, error) {
	if proto, ok := b.meshes[i]; ok {
		return proto, nil
	}
	if i < 0 || i >= len(b.doc.Meshes) {
		return nil, fmt.Errorf("loader: mesh %d out of range", i)
	}
	src := &b.doc.Meshes[i]

	var (
		vertices  []geometry.GPUVertex
		indices   []uint32
		parts     []mesh.Part
		materials []scene.Material
	)
	for pi, prim := range src.Primitives {
		if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
			logger.Named("loader").Warn("skipping non-triangle primitive",
				zap.String("mesh", src.Name),
				zap.Int("primitive", pi),
				zap.Int("mode", *prim.Mode))
			continue
		}
		pv, pix, err := b.primitive(&prim)
		if errors.Is(err, ErrUnsupportedComponentType) {
			logger.Named("loader").Warn("skipping primitive with unsupported indices",
				zap.String("mesh", src.Name),
				zap.Int("primitive", pi),
				zap.Error(err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loader: mesh %q primitive %d: %w", src.Name, pi, err)
		}
		mat, err := b.material(prim.Material)
		if err != nil {
			return nil, err
		}

		base := uint32(len(vertices))
		parts = append(parts, mesh.Part{IndexOffset: uint32(len(indices)), IndexCount: uint32(len(pix))})
		for _, idx := range pix {
			indices = append(indices, idx+base)
		}
		vertices = append(vertices, pv...)
		materials = append(materials, mat)
	}

	var proto *gltfMeshProto
	if len(parts) > 0 {
		proto = &gltfMeshProto{
			geometry:  geometry.New(vertices, indices, geometry.WithLabel(src.Name)),
			materials: materials,
		}
		if len(parts) > 1 {
			proto.parts = parts
		}
	}
	b.meshes[i] = proto
	return proto, nil
}

// primitive reads the vertices and indices of one primitive. Normals are computed when absent and
// non-indexed primitives get a sequential index list.
func (b *gltfBuild) primitive(prim *gltfPrimitive) ([]geometry.GPUVertex, []uint32, error) {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := b.parser.ReadVec3Accessor(posIdx)
	if err != nil {
		return nil, nil, err
	}
	vertices := make([]geometry.GPUVertex, len(positions))
	for i, p := range positions {
		vertices[i].Position = p
	}

	hasNormals := false
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		normals, err := b.parser.ReadVec3Accessor(idx)
		if err != nil {
			return nil, nil, err
		}
		for i := 0; i < len(normals) && i < len(vertices); i++ {
			vertices[i].Normal = normals[i]
		}
		hasNormals = true
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, err := b.parser.ReadVec2Accessor(idx)
		if err != nil {
			return nil, nil, err
		}
		for i := 0; i < len(uvs) && i < len(vertices); i++ {
			vertices[i].TexCoord = uvs[i]
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = b.parser.ReadIndicesAccessor(*prim.Indices)
		if err != nil {
			return nil, nil, err
		}
		for _, idx := range indices {
			if int(idx) >= len(vertices) {
				return nil, nil, fmt.Errorf("index %d out of range", idx)
			}
		}
	} else {
		indices = make([]uint32, len(vertices))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	if !hasNormals {
		computeNormals(vertices, indices)
	}
	return vertices, indices, nil
}

// material returns the material for a primitive. Base colour textures win over base colour factors; anything
// without either uses the fallback.
func (b *gltfBuild) material(index *int) (scene.Material, error) {
	if index == nil {
		if m, ok := b.materials[-1]; ok {
			return m, nil
		}
		m, err := b.factory.fallback()
		if err != nil {
			return nil, err
		}
		b.materials[-1] = m
		return m, nil
	}
	if m, ok := b.materials[*index]; ok {
		return m, nil
	}
	if *index < 0 || *index >= len(b.doc.Materials) {
		return nil, fmt.Errorf("loader: material %d out of range", *index)
	}

	src := &b.doc.Materials[*index]
	var (
		m   scene.Material
		err error
	)
	pbr := src.PbrMetallicRoughness
	switch {
	case pbr != nil && pbr.BaseColorTexture != nil:
		var img image.Image
		img, err = b.image(pbr.BaseColorTexture.Index)
		if err == nil {
			m, err = b.factory.bitmap(img)
		}
	case pbr != nil && pbr.BaseColorFactor != nil:
		m, err = b.factory.color(*pbr.BaseColorFactor)
	default:
		m, err = b.factory.fallback()
	}
	if err != nil {
		return nil, fmt.Errorf("loader: material %q: %w", src.Name, err)
	}
	b.materials[*index] = m
	return m, nil
}

func (b *gltfBuild) image(textureIndex int) (image.Image, error) {
	if textureIndex < 0 || textureIndex >= len(b.doc.Textures) || b.doc.Textures[textureIndex].Source == nil {
		return nil, fmt.Errorf("texture %d has no source", textureIndex)
	}
	data, err := b.parser.ReadImage(*b.doc.Textures[textureIndex].Source)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode texture %d: %w", textureIndex, err)
	}
	return img, nil
}

func (b *gltfBuild) camera(n *assetNode, i int) error {
	if i < 0 || i >= len(b.doc.Cameras) {
		return fmt.Errorf("loader: camera %d out of range", i)
	}
	c := &b.doc.Cameras[i]
	switch {
	case strings.EqualFold(c.Type, "perspective") && c.Perspective != nil:
		n.camera = perspectiveCamera(c)
	case strings.EqualFold(c.Type, "orthographic") && c.Orthographic != nil:
		n.camera = orthographicCamera(c)
	default:
		logger.Named("loader").Warn("unsupported camera", zap.String("type", c.Type), zap.Int("camera", i))
	}
	return nil
}

func (b *gltfBuild) light(n *assetNode, i int) {
	ext := b.doc.Extensions.LightsPunctual
	if ext == nil || i < 0 || i >= len(ext.Lights) {
		logger.Named("loader").Warn("node refers to a missing punctual light", zap.Int("light", i))
		return
	}
	def := ext.Lights[i]
	n.light = &def
}
