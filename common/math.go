package common

import (
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// Perspective creates a perspective projection matrix for WebGPU clip space, where depth runs from 0 to 1.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / math32.Tan(fovY/2.0)
	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}

// Ortho creates an orthographic projection matrix for WebGPU clip space, where depth runs from 0 to 1.
//
// Parameters:
//   - left, right, bottom, top: the view volume extents
//   - near, far: the clipping plane distances
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func Ortho(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	out := mgl32.Ident4()
	out[0] = 2 / (right - left)
	out[5] = 2 / (top - bottom)
	out[10] = 1 / (near - far)
	out[12] = -(right + left) / (right - left)
	out[13] = -(top + bottom) / (top - bottom)
	out[14] = near / (near - far)
	return out
}

// LookAt creates a view matrix that positions and orients the camera. When eye and center coincide the view
// looks down -Z from eye. When up is parallel to the view direction a fallback up axis is used.
//
// Parameters:
//   - eye: camera position in world space
//   - center: target point the camera looks at
//   - up: up vector defining camera orientation (typically 0,1,0)
//
// Returns:
//   - mgl32.Mat4: the view matrix
func LookAt(eye, center, up mgl32.Vec3) mgl32.Mat4 {
	dir := center.Sub(eye)
	if dir.Len() < 1e-6 {
		dir = mgl32.Vec3{0, 0, -1}
		center = eye.Add(dir)
	}
	if dir.Normalize().Cross(up.Normalize()).Len() < 1e-4 {
		up = mgl32.Vec3{0, 0, 1}
	}
	return mgl32.LookAtV(eye, center, up)
}

// AtlasGrid returns the near-square tiling used to pack n tiles into one texture: ceil(sqrt(n)) columns and as
// many rows as needed.
//
// Parameters:
//   - n: the number of tiles
//
// Returns:
//   - x: the number of columns
//   - y: the number of rows
func AtlasGrid(n int) (x, y int) {
	if n < 1 {
		return 1, 1
	}
	x = int(math32.Ceil(math32.Sqrt(float32(n))))
	y = int(math32.Ceil(float32(n) / float32(x)))
	return x, y
}

// AtlasTile returns the texel origin of tile index in a grid mapsX columns wide.
//
// Parameters:
//   - index: the tile index
//   - mapsX: the number of columns
//   - tileSize: the edge length of one tile in texels
//
// Returns:
//   - x, y: the origin of the tile
func AtlasTile(index, mapsX int, tileSize uint32) (x, y uint32) {
	return tileSize * uint32(index%mapsX), tileSize * uint32(index/mapsX)
}

// ConeCos converts a cone half angle in radians to the cosine stored in light records.
func ConeCos(angle float32) float32 {
	return math32.Cos(angle)
}
