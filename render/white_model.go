package render

import (
	"github.com/gekko3d/lumen/ecs"
	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/scene"
)

// WhiteModelRenderer draws every material entity except terrain in flat
// white, ignoring material textures.
type WhiteModelRenderer struct {
	rendererBase
}

func NewWhiteModelRenderer(ctx *gfx.RenderContext, sw *scene.SceneWorld, target *gfx.RenderTarget) *WhiteModelRenderer {
	return &WhiteModelRenderer{rendererBase: newRendererBase("WhiteModelRenderer", ctx, sw, target)}
}

func (r *WhiteModelRenderer) Init() {
	r.rendererBase.Init()
	r.registerProgram("WhiteModelProgram", "vs_whiteModel", "fs_whiteModel")
	r.declareUniform(uCameraPos, gfx.UniformVec4, 1)
	createLightUniforms(&r.rendererBase)
}

func (r *WhiteModelRenderer) Render(dt float32) {
	terrain := r.scene.TerrainMaterialType()
	program := r.program("WhiteModelProgram")

	accept := func(_ ecs.Entity, m *scene.MaterialComponent) bool { return m.MaterialType() != terrain }
	r.forEachDrawable(accept, func(e ecs.Entity, m *scene.MaterialComponent) {
		r.ctx.FillVec4(uCameraPos, r.camera().Eye().Vec4(1))
		fillLightUniforms(r.ctx, r.scene)
		r.ctx.SetState(gfx.StateDefault)
		r.ctx.Submit(r.view, program)
	})
}
