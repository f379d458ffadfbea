// Package dirty provides value wrappers that remember whether they were mutated since the owner last
// uploaded them to the GPU.
package dirty

import "github.com/go-gl/mathgl/mgl32"

// Flag is the shared dirty bit embedded by every value type.
type Flag struct {
	dirty bool
}

// Dirty reports whether the value changed since the last Clean.
func (f *Flag) Dirty() bool {
	return f.dirty
}

// Mark flags the value as changed.
func (f *Flag) Mark() {
	f.dirty = true
}

// Clean clears the dirty bit.
func (f *Flag) Clean() {
	f.dirty = false
}

// Vec3 is a dirty-tracked three component vector.
type Vec3 struct {
	Flag
	v mgl32.Vec3
}

// NewVec3 creates a Vec3 that starts dirty so the first upload always happens.
func NewVec3(x, y, z float32) *Vec3 {
	return &Vec3{Flag: Flag{dirty: true}, v: mgl32.Vec3{x, y, z}}
}

// Get returns the current value.
func (d *Vec3) Get() mgl32.Vec3 { return d.v }

// X returns the first component.
func (d *Vec3) X() float32 { return d.v[0] }

// Y returns the second component.
func (d *Vec3) Y() float32 { return d.v[1] }

// Z returns the third component.
func (d *Vec3) Z() float32 { return d.v[2] }

// Set replaces the value and marks it dirty.
func (d *Vec3) Set(x, y, z float32) {
	d.v = mgl32.Vec3{x, y, z}
	d.dirty = true
}

// SetVec replaces the value and marks it dirty.
func (d *Vec3) SetVec(v mgl32.Vec3) {
	d.v = v
	d.dirty = true
}

// SetX replaces the first component and marks the value dirty.
func (d *Vec3) SetX(x float32) { d.v[0] = x; d.dirty = true }

// SetY replaces the second component and marks the value dirty.
func (d *Vec3) SetY(y float32) { d.v[1] = y; d.dirty = true }

// SetZ replaces the third component and marks the value dirty.
func (d *Vec3) SetZ(z float32) { d.v[2] = z; d.dirty = true }

// Add offsets the value and marks it dirty.
func (d *Vec3) Add(x, y, z float32) {
	d.v = d.v.Add(mgl32.Vec3{x, y, z})
	d.dirty = true
}

// Quat is a dirty-tracked rotation.
type Quat struct {
	Flag
	q mgl32.Quat
}

// NewQuat creates an identity rotation that starts dirty.
func NewQuat() *Quat {
	return &Quat{Flag: Flag{dirty: true}, q: mgl32.QuatIdent()}
}

// Get returns the current rotation.
func (d *Quat) Get() mgl32.Quat { return d.q }

// Set replaces the rotation and marks it dirty.
func (d *Quat) Set(q mgl32.Quat) {
	d.q = q
	d.dirty = true
}

// SetAxisAngle replaces the rotation with angle radians around axis.
func (d *Quat) SetAxisAngle(angle float32, axis mgl32.Vec3) {
	d.q = mgl32.QuatRotate(angle, axis.Normalize())
	d.dirty = true
}

// SetEuler replaces the rotation from XYZ euler angles in radians.
func (d *Quat) SetEuler(x, y, z float32) {
	d.q = mgl32.AnglesToQuat(x, y, z, mgl32.XYZ)
	d.dirty = true
}

// Rotate applies an additional rotation of angle radians around axis.
func (d *Quat) Rotate(angle float32, axis mgl32.Vec3) {
	d.q = mgl32.QuatRotate(angle, axis.Normalize()).Mul(d.q).Normalize()
	d.dirty = true
}

// Color is a dirty-tracked linear RGB colour.
type Color struct {
	Flag
	c mgl32.Vec3
}

// NewColor creates a colour that starts dirty.
func NewColor(r, g, b float32) *Color {
	return &Color{Flag: Flag{dirty: true}, c: mgl32.Vec3{r, g, b}}
}

// Get returns the colour as an RGB vector.
func (d *Color) Get() mgl32.Vec3 { return d.c }

// Set replaces the colour and marks it dirty.
func (d *Color) Set(r, g, b float32) {
	d.c = mgl32.Vec3{r, g, b}
	d.dirty = true
}

// Float is a dirty-tracked scalar.
type Float struct {
	Flag
	f float32
}

// NewFloat creates a scalar that starts dirty.
func NewFloat(f float32) *Float {
	return &Float{Flag: Flag{dirty: true}, f: f}
}

// Get returns the scalar.
func (d *Float) Get() float32 { return d.f }

// Set replaces the scalar and marks it dirty. Setting the same value still marks it dirty.
func (d *Float) Set(f float32) {
	d.f = f
	d.dirty = true
}

// Bool is a dirty-tracked flag.
type Bool struct {
	Flag
	b bool
}

// NewBool creates a flag value that starts dirty.
func NewBool(b bool) *Bool {
	return &Bool{Flag: Flag{dirty: true}, b: b}
}

// Get returns the flag.
func (d *Bool) Get() bool { return d.b }

// Set replaces the flag and marks it dirty.
func (d *Bool) Set(b bool) {
	d.b = b
	d.dirty = true
}

// Tracked is implemented by every value in this package.
type Tracked interface {
	Dirty() bool
	Clean()
}

// Any reports whether any of values is dirty.
func Any(values ...Tracked) bool {
	for _, v := range values {
		if v.Dirty() {
			return true
		}
	}
	return false
}

// CleanAll clears every value.
func CleanAll(values ...Tracked) {
	for _, v := range values {
		v.Clean()
	}
}
