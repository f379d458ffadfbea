// Package camera provides the perspective and orthographic scene cameras.
package camera

import (
	"math"
	"strconv"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/dirty"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

// cameraCount is an atomic counter used to generate unique bind group provider names for each camera instance.
var cameraCount atomic.Uint64

// cameraImpl holds what both projections share. The camera sits at its node's world position and looks at
// target.
type cameraImpl struct {
	scene.Object3D

	up     mgl32.Vec3
	target *dirty.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	left, right, bottom, top float32

	// projectionChanged covers every projection parameter above.
	projectionChanged dirty.Flag
	moved             transform.Snapshot

	project func() mgl32.Mat4
	view    *ViewUniform
}

func newCameraImpl() cameraImpl {
	return cameraImpl{
		up:                mgl32.Vec3{0, 1, 0},
		target:            dirty.NewVec3(0, 0, 0),
		fov:               45.0 * (math.Pi / 180.0), // radians
		aspect:            1.0,
		near:              0.1,
		far:               100.0,
		left:              -1,
		right:             1,
		bottom:            -1,
		top:               1,
		projectionChanged: dirty.Flag{},
		view:              NewViewUniform("camera_" + strconv.FormatUint(cameraCount.Add(1), 10)),
	}
}

// Up returns the camera's up vector.
func (c *cameraImpl) Up() mgl32.Vec3 { return c.up }

// Target returns the point the camera looks at.
func (c *cameraImpl) Target() mgl32.Vec3 { return c.target.Get() }

func (c *cameraImpl) Fov() float32    { return c.fov }
func (c *cameraImpl) Aspect() float32 { return c.aspect }
func (c *cameraImpl) Near() float32   { return c.near }
func (c *cameraImpl) Far() float32    { return c.far }

// SetUp sets the camera's up vector.
func (c *cameraImpl) SetUp(x, y, z float32) {
	c.up = mgl32.Vec3{x, y, z}
	c.projectionChanged.Mark()
}

// LookAt points the camera at a world position.
func (c *cameraImpl) LookAt(x, y, z float32) {
	c.target.Set(x, y, z)
}

// SetFov sets the vertical field of view in radians.
func (c *cameraImpl) SetFov(fov float32) {
	c.fov = fov
	c.projectionChanged.Mark()
}

// SetAspect sets the aspect ratio (width / height).
func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.aspect = aspect
	c.projectionChanged.Mark()
}

// SetNear sets the near clipping plane distance.
func (c *cameraImpl) SetNear(near float32) {
	c.near = near
	c.projectionChanged.Mark()
}

// SetFar sets the far clipping plane distance.
func (c *cameraImpl) SetFar(far float32) {
	c.far = far
	c.projectionChanged.Mark()
}

// Position returns the world-space eye position.
func (c *cameraImpl) Position() mgl32.Vec3 {
	return c.Transform().WorldPosition()
}

// ViewMatrix returns the world to view transform.
func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	return common.LookAt(c.Position(), c.target.Get(), c.up)
}

// ProjectionMatrix returns the view to clip transform.
func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	return c.project()
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	return c.project().Mul4(c.ViewMatrix())
}

// IsDirty reports whether the view uniform is out of date.
func (c *cameraImpl) IsDirty() bool {
	return c.projectionChanged.Dirty() || c.target.Dirty() || c.moved.Changed(c.Transform())
}

func (c *cameraImpl) uniform() GPUViewUniform {
	return GPUViewUniform{ViewProj: c.ViewProjectionMatrix(), Position: c.Position()}
}

func (c *cameraImpl) clean() {
	c.projectionChanged.Clean()
	c.target.Clean()
	c.moved.Take(c.Transform())
}

func (c *cameraImpl) Update(device gpu.Device) error {
	if !c.view.Initialized() || !c.IsDirty() {
		return nil
	}
	if err := c.view.Write(device, c.uniform()); err != nil {
		return err
	}
	c.clean()
	return nil
}

func (c *cameraImpl) BindGroup(device gpu.Device) (gpu.BindGroup, error) {
	bg, created, err := c.view.BindGroup(device, c.uniform)
	if err != nil {
		return nil, err
	}
	if created {
		c.clean()
	}
	return bg, nil
}

// Release frees the camera's view uniform.
func (c *cameraImpl) Release() {
	c.view.Release()
}

// PerspectiveCamera projects with a vertical field of view.
type PerspectiveCamera struct {
	cameraImpl
}

var _ scene.Camera = &PerspectiveCamera{}

// NewPerspective creates a perspective camera at the origin looking down -Z.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - *PerspectiveCamera: the new camera
func NewPerspective(options ...CameraBuilderOption) *PerspectiveCamera {
	c := &PerspectiveCamera{cameraImpl: newCameraImpl()}
	c.Init(c, scene.KindCamera)
	c.SetName("perspective_camera")
	c.target.Set(0, 0, -1)
	c.project = func() mgl32.Mat4 {
		return common.Perspective(c.fov, c.aspect, c.near, c.far)
	}
	for _, option := range options {
		option(&c.cameraImpl)
	}
	return c
}

// OrthographicCamera projects a box without perspective.
type OrthographicCamera struct {
	cameraImpl
}

var _ scene.Camera = &OrthographicCamera{}

// NewOrthographic creates an orthographic camera at the origin looking down -Z. The extents are scaled by the
// aspect ratio horizontally.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - *OrthographicCamera: the new camera
func NewOrthographic(options ...CameraBuilderOption) *OrthographicCamera {
	c := &OrthographicCamera{cameraImpl: newCameraImpl()}
	c.Init(c, scene.KindCamera)
	c.SetName("orthographic_camera")
	c.target.Set(0, 0, -1)
	c.project = func() mgl32.Mat4 {
		return common.Ortho(c.left*c.aspect, c.right*c.aspect, c.bottom, c.top, c.near, c.far)
	}
	for _, option := range options {
		option(&c.cameraImpl)
	}
	return c
}

// Extents returns the orthographic view box before aspect scaling.
func (c *OrthographicCamera) Extents() (left, right, bottom, top float32) {
	return c.left, c.right, c.bottom, c.top
}

// SetExtents replaces the orthographic view box.
func (c *OrthographicCamera) SetExtents(left, right, bottom, top float32) {
	c.left, c.right, c.bottom, c.top = left, right, bottom, top
	c.projectionChanged.Mark()
}
