package mesh

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
)

// DebugMesh overlays the scene's shadow atlas on the whole viewport.
type DebugMesh struct {
	scene.Object3D

	material *material.ShadowDepthMaterial
}

// NewDebug creates the shadow atlas overlay. It never casts shadows.
func NewDebug() *DebugMesh {
	d := &DebugMesh{material: material.NewShadowDepth()}
	d.Init(d, scene.KindMesh)
	d.Transform().SetRenderable(true)
	d.SetName("shadow_atlas_debug")
	d.SetCastShadow(false)
	return d
}

func (d *DebugMesh) Draw(op *scene.DrawOperation) {
	if op.Label() == scene.ShadowPassLabel || !op.UseMaterials() {
		return
	}
	if !op.UseMaterial(d.material) || !op.BindTransform(d.Transform()) {
		return
	}
	op.Target().Draw(3, 1, 0, 0)
}

// Release frees the overlay's bind group.
func (d *DebugMesh) Release() {
	d.material.Release()
}
