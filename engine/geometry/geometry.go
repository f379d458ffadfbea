// Package geometry holds mesh vertex and index data and mirrors it into GPU buffers on first use.
package geometry

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// geometryCount is an atomic counter used to generate unique buffer labels.
var geometryCount atomic.Uint64

// Geometry is immutable vertex and index data. Meshes and their clones share one Geometry, so the data is only
// uploaded once.
type Geometry struct {
	label    string
	vertices []GPUVertex
	indices  []uint32

	center mgl32.Vec3
	radius float32

	vertexBuf gpu.Buffer
	indexBuf  gpu.Buffer
}

// New creates a geometry. With no indices the vertices are drawn as a plain triangle list.
//
// Parameters:
//   - vertices: the interleaved vertices
//   - indices: triangle list indices into vertices, may be nil
//   - options: functional options to configure the geometry
//
// Returns:
//   - *Geometry: the new geometry
func New(vertices []GPUVertex, indices []uint32, options ...GeometryBuilderOption) *Geometry {
	g := &Geometry{
		label:    "geometry_" + strconv.FormatUint(geometryCount.Add(1), 10),
		vertices: vertices,
		indices:  indices,
	}
	for _, option := range options {
		option(g)
	}
	g.computeBounds()
	return g
}

// computeBounds fits a sphere around the bounding box of the vertices.
func (g *Geometry) computeBounds() {
	if len(g.vertices) == 0 {
		return
	}
	lo := mgl32.Vec3(g.vertices[0].Position)
	hi := lo
	for _, v := range g.vertices[1:] {
		for i := range 3 {
			lo[i] = min(lo[i], v.Position[i])
			hi[i] = max(hi[i], v.Position[i])
		}
	}
	g.center = lo.Add(hi).Mul(0.5)
	for _, v := range g.vertices {
		g.radius = max(g.radius, mgl32.Vec3(v.Position).Sub(g.center).Len())
	}
}

func (g *Geometry) Label() string         { return g.label }
func (g *Geometry) Vertices() []GPUVertex { return g.vertices }
func (g *Geometry) Indices() []uint32     { return g.indices }
func (g *Geometry) VertexCount() int      { return len(g.vertices) }
func (g *Geometry) IndexCount() int       { return len(g.indices) }
func (g *Geometry) Indexed() bool         { return len(g.indices) > 0 }

// BoundingSphere returns the local-space sphere enclosing every vertex.
func (g *Geometry) BoundingSphere() (center mgl32.Vec3, radius float32) {
	return g.center, g.radius
}

// Mounted reports whether the GPU buffers exist.
func (g *Geometry) Mounted() bool {
	return g.vertexBuf != nil
}

// Mount uploads the vertex and index data. Calls after the first successful one do nothing.
//
// Parameters:
//   - device: the device to allocate on
//
// Returns:
//   - error: an error if a buffer could not be created
func (g *Geometry) Mount(device gpu.Device) error {
	if g.Mounted() {
		return nil
	}
	if len(g.vertices) == 0 {
		return fmt.Errorf("geometry: %s has no vertices", g.label)
	}

	vb, err := device.CreateBuffer(gpu.BufferDescriptor{
		Label:    g.label + "_vertices",
		Size:     uint64(len(g.vertices) * gpu.VertexStride),
		Usage:    gpu.BufferUsageVertex | gpu.BufferUsageCopyDst,
		Contents: MarshalVertices(g.vertices),
	})
	if err != nil {
		return fmt.Errorf("geometry: failed to create vertex buffer for %s: %w", g.label, err)
	}

	if g.Indexed() {
		ib, err := device.CreateBuffer(gpu.BufferDescriptor{
			Label:    g.label + "_indices",
			Size:     uint64(len(g.indices) * 4),
			Usage:    gpu.BufferUsageIndex | gpu.BufferUsageCopyDst,
			Contents: MarshalIndices(g.indices),
		})
		if err != nil {
			vb.Release()
			return fmt.Errorf("geometry: failed to create index buffer for %s: %w", g.label, err)
		}
		g.indexBuf = ib
	}
	g.vertexBuf = vb
	return nil
}

// VertexBuffer returns the GPU vertex buffer, nil before Mount.
func (g *Geometry) VertexBuffer() gpu.Buffer { return g.vertexBuf }

// IndexBuffer returns the GPU index buffer, nil before Mount or for non-indexed geometry.
func (g *Geometry) IndexBuffer() gpu.Buffer { return g.indexBuf }

// Bind sets the vertex buffer at slot 0 and the index buffer, if any.
func (g *Geometry) Bind(enc gpu.RenderEncoder) {
	enc.SetVertexBuffer(0, g.vertexBuf)
	if g.indexBuf != nil {
		enc.SetIndexBuffer(g.indexBuf, gpu.IndexFormatUint32)
	}
}

// DrawRange issues one draw of count elements starting at first. Indices when indexed, vertices otherwise.
func (g *Geometry) DrawRange(enc gpu.RenderEncoder, first, count uint32) {
	if g.Indexed() {
		enc.DrawIndexed(count, 1, first, 0, 0)
		return
	}
	enc.Draw(count, 1, first, 0)
}

// Draw binds and draws the whole geometry.
func (g *Geometry) Draw(enc gpu.RenderEncoder) {
	g.Bind(enc)
	if g.Indexed() {
		g.DrawRange(enc, 0, uint32(len(g.indices)))
		return
	}
	g.DrawRange(enc, 0, uint32(len(g.vertices)))
}

// Release frees the GPU buffers. The geometry may be mounted again.
func (g *Geometry) Release() {
	if g.vertexBuf != nil {
		g.vertexBuf.Release()
		g.vertexBuf = nil
	}
	if g.indexBuf != nil {
		g.indexBuf.Release()
		g.indexBuf = nil
	}
}
