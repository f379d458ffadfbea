// Package mesh provides the drawable scene nodes: plain meshes, multi-material composites, render bundles of
// meshes, instanced arrays and the shadow atlas debug overlay.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrPartMaterialMismatch is returned when a composite mesh gets a different number of parts and materials.
var ErrPartMaterialMismatch = errors.New("mesh: part and material counts differ")

// Bounded is implemented by nodes with a world-space bounding sphere.
type Bounded interface {
	WorldBoundingSphere() (center mgl32.Vec3, radius float32)
}

// Mesh draws one geometry with one material.
type Mesh struct {
	scene.Object3D

	geometry *geometry.Geometry
	material scene.Material
}

var (
	_ scene.Node = &Mesh{}
	_ Bounded    = &Mesh{}
)

// New creates a mesh.
//
// Parameters:
//   - g: the geometry, shared with clones
//   - m: the material, may be nil for meshes only drawn into shadow maps
//   - options: functional options to configure the mesh
//
// Returns:
//   - *Mesh: the new mesh
func New(g *geometry.Geometry, m scene.Material, options ...MeshBuilderOption) *Mesh {
	mesh := &Mesh{geometry: g, material: m}
	mesh.Init(mesh, scene.KindMesh)
	mesh.Transform().SetRenderable(true)
	mesh.SetName("mesh")
	for _, option := range options {
		option(&mesh.Object3D)
	}
	return mesh
}

func (m *Mesh) Geometry() *geometry.Geometry { return m.geometry }
func (m *Mesh) Material() scene.Material     { return m.material }

// SetMaterial swaps the material. Bundles holding the mesh must be invalidated by the caller.
func (m *Mesh) SetMaterial(mat scene.Material) { m.material = mat }

// Clone returns a detached copy sharing geometry and material, with a copy of the local transform.
func (m *Mesh) Clone() *Mesh {
	c := New(m.geometry, m.material, WithName(m.Name()), WithCastShadow(m.CastShadow()))
	c.Transform().Copy(m.Transform())
	return c
}

// WorldBoundingSphere returns the geometry's bounding sphere in world space.
func (m *Mesh) WorldBoundingSphere() (mgl32.Vec3, float32) {
	return worldSphere(m.geometry, m.Transform().WorldMatrix())
}

func (m *Mesh) Draw(op *scene.DrawOperation) {
	if err := m.geometry.Mount(op.Device()); err != nil {
		op.Fail(fmt.Errorf("mesh: %q: %w", m.Name(), err))
		return
	}
	if op.UseMaterials() && (m.material == nil || !op.UseMaterial(m.material)) {
		return
	}
	if !op.BindTransform(m.Transform()) {
		return
	}
	m.geometry.Draw(op.Target())
}

// worldSphere transforms a geometry's bounding sphere by world, scaling the radius by the largest axis scale.
func worldSphere(g *geometry.Geometry, world mgl32.Mat4) (mgl32.Vec3, float32) {
	center, radius := g.BoundingSphere()
	c := world.Mul4x1(center.Vec4(1)).Vec3()
	scale := max(world.Col(0).Vec3().Len(), world.Col(1).Vec3().Len(), world.Col(2).Vec3().Len())
	return c, radius * scale
}

// Part is one index range of a composite mesh, drawn with its own material.
type Part struct {
	IndexOffset uint32
	IndexCount  uint32
}

// CompositeMesh draws index ranges of one geometry with different materials.
type CompositeMesh struct {
	scene.Object3D

	geometry  *geometry.Geometry
	parts     []Part
	materials []scene.Material
}

var (
	_ scene.Node = &CompositeMesh{}
	_ Bounded    = &CompositeMesh{}
)

// NewComposite creates a multi-material mesh. parts[i] is drawn with materials[i].
//
// Parameters:
//   - g: the geometry
//   - parts: the index ranges
//   - materials: one material per part
//   - options: functional options to configure the mesh
//
// Returns:
//   - *CompositeMesh: the new mesh
//   - error: ErrPartMaterialMismatch when the counts differ
func NewComposite(g *geometry.Geometry, parts []Part, materials []scene.Material, options ...MeshBuilderOption) (*CompositeMesh, error) {
	if len(parts) != len(materials) {
		return nil, fmt.Errorf("%w: %d parts, %d materials", ErrPartMaterialMismatch, len(parts), len(materials))
	}
	c := &CompositeMesh{geometry: g, parts: parts, materials: materials}
	c.Init(c, scene.KindMesh)
	c.Transform().SetRenderable(true)
	c.SetName("composite_mesh")
	for _, option := range options {
		option(&c.Object3D)
	}
	return c, nil
}

func (c *CompositeMesh) Geometry() *geometry.Geometry { return c.geometry }
func (c *CompositeMesh) Parts() []Part                { return c.parts }
func (c *CompositeMesh) Materials() []scene.Material  { return c.materials }

func (c *CompositeMesh) WorldBoundingSphere() (mgl32.Vec3, float32) {
	return worldSphere(c.geometry, c.Transform().WorldMatrix())
}

// Draw draws each part whose material is ready. Parts still compiling are skipped for the frame.
func (c *CompositeMesh) Draw(op *scene.DrawOperation) {
	if err := c.geometry.Mount(op.Device()); err != nil {
		op.Fail(fmt.Errorf("mesh: %q: %w", c.Name(), err))
		return
	}
	if !op.BindTransform(c.Transform()) {
		return
	}
	c.geometry.Bind(op.Target())
	for i, part := range c.parts {
		if op.UseMaterials() && !op.UseMaterial(c.materials[i]) {
			continue
		}
		c.geometry.DrawRange(op.Target(), part.IndexOffset, part.IndexCount)
	}
}
