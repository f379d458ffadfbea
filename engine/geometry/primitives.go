package geometry

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type face struct {
	normal, u, v mgl32.Vec3
}

// boxFaces lists each face with axes chosen so u x v = normal, which makes the quads counter-clockwise from
// outside.
var boxFaces = []face{
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
}

func scale3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// appendQuad adds one face quad centred at c with half axes u and v.
func appendQuad(vertices []GPUVertex, indices []uint32, c, n, u, v mgl32.Vec3) ([]GPUVertex, []uint32) {
	base := uint32(len(vertices))
	corners := [4]struct {
		su, sv float32
		uv     [2]float32
	}{
		{-1, -1, [2]float32{0, 1}},
		{1, -1, [2]float32{1, 1}},
		{1, 1, [2]float32{1, 0}},
		{-1, 1, [2]float32{0, 0}},
	}
	for _, k := range corners {
		p := c.Add(u.Mul(k.su)).Add(v.Mul(k.sv))
		vertices = append(vertices, GPUVertex{Position: p, Normal: n, TexCoord: k.uv})
	}
	return vertices, append(indices, base, base+1, base+2, base, base+2, base+3)
}

// NewBox creates an axis aligned box centred on the origin.
//
// Parameters:
//   - width, height, depth: the size along x, y and z
//
// Returns:
//   - *Geometry: 24 vertices, 36 indices
func NewBox(width, height, depth float32, options ...GeometryBuilderOption) *Geometry {
	half := mgl32.Vec3{width / 2, height / 2, depth / 2}
	vertices := make([]GPUVertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range boxFaces {
		vertices, indices = appendQuad(vertices, indices, scale3(f.normal, half), f.normal, scale3(f.u, half), scale3(f.v, half))
	}
	return New(vertices, indices, options...)
}

// NewPlane creates a horizontal plane facing +Y centred on the origin.
//
// Parameters:
//   - width: the size along x
//   - depth: the size along z
//
// Returns:
//   - *Geometry: 4 vertices, 6 indices
func NewPlane(width, depth float32, options ...GeometryBuilderOption) *Geometry {
	f := boxFaces[4]
	vertices, indices := appendQuad(nil, nil, mgl32.Vec3{}, f.normal, f.u.Mul(width/2), f.v.Mul(depth/2))
	return New(vertices, indices, options...)
}

// NewSphere creates a UV sphere centred on the origin.
//
// Parameters:
//   - radius: the sphere radius
//   - segments: divisions around the equator, at least 3
//   - rings: divisions from pole to pole, at least 2
//
// Returns:
//   - *Geometry: the sphere
func NewSphere(radius float32, segments, rings int, options ...GeometryBuilderOption) *Geometry {
	segments = max(segments, 3)
	rings = max(rings, 2)

	vertices := make([]GPUVertex, 0, (segments+1)*(rings+1))
	for iy := 0; iy <= rings; iy++ {
		v := float32(iy) / float32(rings)
		sinT, cosT := math32.Sincos(v * math32.Pi)
		for ix := 0; ix <= segments; ix++ {
			u := float32(ix) / float32(segments)
			sinP, cosP := math32.Sincos(u * 2 * math32.Pi)
			n := mgl32.Vec3{-cosP * sinT, cosT, sinP * sinT}
			vertices = append(vertices, GPUVertex{Position: n.Mul(radius), Normal: n, TexCoord: [2]float32{u, v}})
		}
	}

	row := uint32(segments + 1)
	indices := make([]uint32, 0, segments*rings*6)
	for iy := range uint32(rings) {
		for ix := range uint32(segments) {
			a := iy*row + ix + 1
			b := iy*row + ix
			c := (iy+1)*row + ix
			d := (iy+1)*row + ix + 1
			if iy != 0 {
				indices = append(indices, a, b, d)
			}
			if iy != uint32(rings)-1 {
				indices = append(indices, b, c, d)
			}
		}
	}
	return New(vertices, indices, options...)
}
