package dirty

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestNewValuesStartDirty(t *testing.T) {
	assert.True(t, NewVec3(0, 0, 0).Dirty())
	assert.True(t, NewQuat().Dirty())
	assert.True(t, NewColor(1, 1, 1).Dirty())
	assert.True(t, NewFloat(1).Dirty())
	assert.True(t, NewBool(false).Dirty())
}

func TestSettersMarkDirty(t *testing.T) {
	v := NewVec3(1, 2, 3)
	v.Clean()
	assert.False(t, v.Dirty())

	v.SetY(5)
	assert.True(t, v.Dirty())
	assert.Equal(t, mgl32.Vec3{1, 5, 3}, v.Get())

	v.Clean()
	v.Add(1, 1, 1)
	assert.True(t, v.Dirty())
	assert.Equal(t, mgl32.Vec3{2, 6, 4}, v.Get())

	q := NewQuat()
	q.Clean()
	q.SetAxisAngle(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	assert.True(t, q.Dirty())

	f := NewFloat(1)
	f.Clean()
	f.Set(1)
	assert.True(t, f.Dirty(), "assigning the same value still counts as a mutation")
}

func TestAnyAndCleanAll(t *testing.T) {
	a := NewVec3(0, 0, 0)
	b := NewFloat(0)
	CleanAll(a, b)
	assert.False(t, Any(a, b))

	b.Set(2)
	assert.True(t, Any(a, b))

	CleanAll(a, b)
	assert.False(t, Any(a, b))
}
