package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"github.com/Carmen-Shannon/oxy-scene/engine/mesh"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// asset is a parsed file. It is cached by the Loader and instantiated into a fresh node tree on every load, so
// the same file can be placed in a scene several times. Geometries and materials are shared between instances.
type asset struct {
	name  string
	roots []*assetNode
}

// assetNode is the prototype of one scene node.
type assetNode struct {
	name     string
	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3

	geometry  *geometry.Geometry
	parts     []mesh.Part
	materials []scene.Material

	light  *LightDef
	camera func(world pose) scene.Node

	children []*assetNode
}

// pose is a node's placement in the asset's root space. Aims of lights and cameras are derived from it because
// their targets are world positions.
type pose struct {
	matrix   mgl32.Mat4
	rotation mgl32.Quat
}

func rootPose() pose {
	return pose{matrix: mgl32.Ident4(), rotation: mgl32.QuatIdent()}
}

// child composes a local TRS under p.
func (p pose) child(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) pose {
	local := mgl32.Translate3D(position[0], position[1], position[2]).
		Mul4(rotation.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
	return pose{matrix: p.matrix.Mul4(local), rotation: p.rotation.Mul(rotation).Normalize()}
}

func (p pose) position() mgl32.Vec3 { return p.matrix.Col(3).Vec3() }

// aim returns the point one unit down the pose's -Z axis.
func (p pose) aim() mgl32.Vec3 {
	return p.position().Add(p.rotation.Rotate(mgl32.Vec3{0, 0, -1}))
}

func newAssetNode(name string) *assetNode {
	return &assetNode{name: name, rotation: mgl32.QuatIdent(), scale: mgl32.Vec3{1, 1, 1}}
}

// instantiate builds the node tree. A single root is returned as is; several roots are grouped under a node
// named after the asset.
func (a *asset) instantiate() (scene.Node, error) {
	if len(a.roots) == 1 {
		return a.roots[0].instantiate(rootPose())
	}
	group := scene.NewGroup(a.name)
	for _, r := range a.roots {
		n, err := r.instantiate(rootPose())
		if err != nil {
			return nil, err
		}
		group.Add(n)
	}
	return group, nil
}

func (n *assetNode) instantiate(parent pose) (scene.Node, error) {
	world := parent.child(n.position, n.rotation, n.scale)
	var node scene.Node
	switch {
	case n.geometry != nil && len(n.parts) > 0:
		c, err := mesh.NewComposite(n.geometry, n.parts, n.materials, mesh.WithName(n.name))
		if err != nil {
			return nil, fmt.Errorf("loader: %q: %w", n.name, err)
		}
		node = c
	case n.geometry != nil:
		var m scene.Material
		if len(n.materials) > 0 {
			m = n.materials[0]
		}
		node = mesh.New(n.geometry, m, mesh.WithName(n.name))
	case n.light != nil:
		def := *n.light
		def.Translation, def.Rotation = world.position(), world.rotation
		node = PunctualLight(def)
	case n.camera != nil:
		node = n.camera(world)
	default:
		node = scene.NewGroup(n.name)
	}

	o := node.Object()
	if n.name != "" {
		o.SetName(n.name)
	}
	t := o.Transform()
	t.Position.SetVec(n.position)
	t.Rotation.Set(n.rotation)
	t.Scale.SetVec(n.scale)

	for _, c := range n.children {
		child, err := c.instantiate(world)
		if err != nil {
			return nil, err
		}
		o.Add(child)
	}
	return node, nil
}

// perspectiveCamera returns a camera factory looking down the node's -Z axis.
func perspectiveCamera(c *gltfCamera) func(world pose) scene.Node {
	return func(world pose) scene.Node {
		target := world.aim()
		opts := []camera.CameraBuilderOption{
			camera.WithFov(c.Perspective.YFov),
			camera.WithNear(c.Perspective.ZNear),
			camera.WithTarget(target[0], target[1], target[2]),
		}
		if c.Perspective.AspectRatio != nil {
			opts = append(opts, camera.WithAspect(*c.Perspective.AspectRatio))
		}
		if c.Perspective.ZFar != nil {
			opts = append(opts, camera.WithFar(*c.Perspective.ZFar))
		}
		return camera.NewPerspective(opts...)
	}
}

func orthographicCamera(c *gltfCamera) func(world pose) scene.Node {
	return func(world pose) scene.Node {
		o := c.Orthographic
		target := world.aim()
		return camera.NewOrthographic(
			camera.WithBounds(-o.XMag, o.XMag, -o.YMag, o.YMag),
			camera.WithNear(o.ZNear),
			camera.WithFar(o.ZFar),
			camera.WithTarget(target[0], target[1], target[2]),
		)
	}
}
