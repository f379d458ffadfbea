package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"github.com/Carmen-Shannon/oxy-scene/engine/logger"
	"github.com/Carmen-Shannon/oxy-scene/engine/mesh"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// objCorner is one face corner: 1-based position, texcoord and normal indices, 0 when absent.
type objCorner struct {
	v, t, n int
}

// objObject collects the faces of one `o` block. Vertices are deduplicated by corner.
type objObject struct {
	name     string
	vertices []geometry.GPUVertex
	indices  []uint32
	seen     map[objCorner]uint32
	normals  bool
}

func newOBJObject(name string) *objObject {
	return &objObject{name: name, seen: make(map[objCorner]uint32), normals: true}
}

// objReader holds the global attribute pools of a file. OBJ indices are global across objects.
type objReader struct {
	positions []mgl32.Vec3
	texcoords []mgl32.Vec2
	normals   []mgl32.Vec3

	objects []*objObject
	current *objObject
}

// ParseOBJ parses a Wavefront OBJ stream into one mesh per object. Faces with more than three corners are fan
// triangulated, and missing normals are computed from the faces. Smoothing groups are accepted and ignored since
// shared corners are already merged. Meshes use a standard material the caller may replace.
//
// Parameters:
//   - r: the OBJ text
//
// Returns:
//   - []*mesh.Mesh: the meshes in file order
//   - error: error if a line cannot be parsed
func ParseOBJ(r io.Reader) ([]*mesh.Mesh, error) {
	objects, err := parseOBJObjects(r)
	if err != nil {
		return nil, err
	}

	mat, err := defaultMaterial(true)
	if err != nil {
		return nil, err
	}
	meshes := make([]*mesh.Mesh, 0, len(objects))
	for _, o := range objects {
		meshes = append(meshes, mesh.New(o.geometry(), mat, mesh.WithName(o.name)))
	}
	return meshes, nil
}

// LoadOBJ opens and parses an OBJ file.
//
// Parameters:
//   - path: path to the .obj file
//
// Returns:
//   - []*mesh.Mesh: the meshes in file order
//   - error: error if the file cannot be read or parsed
func LoadOBJ(path string) ([]*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	defer f.Close()
	return ParseOBJ(f)
}

func parseOBJObjects(r io.Reader) ([]*objObject, error) {
	p := &objReader{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if err := p.line(fields); err != nil {
			return nil, fmt.Errorf("loader: obj line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}

	objects := p.objects[:0]
	for _, o := range p.objects {
		if len(o.indices) > 0 {
			objects = append(objects, o)
		}
	}
	return objects, nil
}

func (p *objReader) line(fields []string) error {
	switch fields[0] {
	case "v":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		p.positions = append(p.positions, mgl32.Vec3{v[0], v[1], v[2]})
	case "vt":
		v, err := parseFloats(fields[1:], 2)
		if err != nil {
			return err
		}
		// OBJ puts the texture origin bottom-left.
		p.texcoords = append(p.texcoords, mgl32.Vec2{v[0], 1 - v[1]})
	case "vn":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		p.normals = append(p.normals, mgl32.Vec3{v[0], v[1], v[2]}.Normalize())
	case "o":
		name := strings.Join(fields[1:], " ")
		p.current = newOBJObject(name)
		p.objects = append(p.objects, p.current)
	case "f":
		return p.face(fields[1:])
	case "s", "g", "usemtl", "mtllib", "l", "p":
	default:
		logger.Named("loader").Debug("skipping obj statement", zap.String("statement", fields[0]))
	}
	return nil
}

func (p *objReader) face(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("face has %d corners", len(fields))
	}
	if p.current == nil {
		p.current = newOBJObject("default")
		p.objects = append(p.objects, p.current)
	}

	corners := make([]uint32, len(fields))
	for i, f := range fields {
		c, err := p.corner(f)
		if err != nil {
			return err
		}
		corners[i] = p.current.vertex(c, p)
	}
	for i := 1; i+1 < len(corners); i++ {
		p.current.indices = append(p.current.indices, corners[0], corners[i], corners[i+1])
	}
	return nil
}

// corner parses v, v/t, v//n or v/t/n and resolves negative indices to absolute ones.
func (p *objReader) corner(s string) (objCorner, error) {
	parts := strings.Split(s, "/")
	var idx [3]int
	pools := [3]int{len(p.positions), len(p.texcoords), len(p.normals)}
	for i := 0; i < len(parts) && i < 3; i++ {
		if parts[i] == "" {
			continue
		}
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return objCorner{}, fmt.Errorf("bad index %q", s)
		}
		if n < 0 {
			n += pools[i] + 1
		}
		if n < 1 || n > pools[i] {
			return objCorner{}, fmt.Errorf("index %q out of range", s)
		}
		idx[i] = n
	}
	if idx[0] == 0 {
		return objCorner{}, fmt.Errorf("corner %q has no position", s)
	}
	return objCorner{v: idx[0], t: idx[1], n: idx[2]}, nil
}

func (o *objObject) vertex(c objCorner, p *objReader) uint32 {
	if i, ok := o.seen[c]; ok {
		return i
	}
	var v geometry.GPUVertex
	v.Position = p.positions[c.v-1]
	if c.t > 0 {
		v.TexCoord = p.texcoords[c.t-1]
	}
	if c.n > 0 {
		v.Normal = p.normals[c.n-1]
	} else {
		o.normals = false
	}
	i := uint32(len(o.vertices))
	o.vertices = append(o.vertices, v)
	o.seen[c] = i
	return i
}

// geometry builds the object's geometry, filling in area weighted vertex normals when any corner lacked one.
func (o *objObject) geometry() *geometry.Geometry {
	if !o.normals {
		computeNormals(o.vertices, o.indices)
	}
	return geometry.New(o.vertices, o.indices, geometry.WithLabel(o.name))
}

func computeNormals(vertices []geometry.GPUVertex, indices []uint32) {
	acc := make([]mgl32.Vec3, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		pa, pb, pc := mgl32.Vec3(vertices[a].Position), mgl32.Vec3(vertices[b].Position), mgl32.Vec3(vertices[c].Position)
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		acc[a], acc[b], acc[c] = acc[a].Add(n), acc[b].Add(n), acc[c].Add(n)
	}
	for i := range vertices {
		if vertices[i].Normal != ([3]float32{}) {
			continue
		}
		if acc[i].Len() > 0 {
			vertices[i].Normal = acc[i].Normalize()
		} else {
			vertices[i].Normal = [3]float32{0, 1, 0}
		}
	}
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("want %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := range n {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// objBackend turns an OBJ file into an asset with one node per object.
type objBackend struct{}

func (objBackend) Parse(r io.Reader, _ string, materials materialFactory) (*asset, error) {
	objects, err := parseOBJObjects(r)
	if err != nil {
		return nil, err
	}
	mat, err := materials.fallback()
	if err != nil {
		return nil, err
	}
	a := &asset{}
	for _, o := range objects {
		n := newAssetNode(o.name)
		n.geometry = o.geometry()
		n.materials = []scene.Material{mat}
		a.roots = append(a.roots, n)
	}
	return a, nil
}
