package render

import (
	"github.com/gekko3d/lumen/ecs"
	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/scene"
)

// WorldRenderer draws the entities of one material type with the variant of
// its uber program that matches each material's features and the sky mode.
type WorldRenderer struct {
	rendererBase
	materialType *scene.MaterialType
}

// NewWorldRenderer draws PBR materials into target.
func NewWorldRenderer(ctx *gfx.RenderContext, sw *scene.SceneWorld, target *gfx.RenderTarget) *WorldRenderer {
	return &WorldRenderer{
		rendererBase: newRendererBase("WorldRenderer", ctx, sw, target),
		materialType: sw.PBRMaterialType(),
	}
}

// NewTerrainRenderer draws terrain materials into target.
func NewTerrainRenderer(ctx *gfx.RenderContext, sw *scene.SceneWorld, target *gfx.RenderTarget) *WorldRenderer {
	return &WorldRenderer{
		rendererBase: newRendererBase("TerrainRenderer", ctx, sw, target),
		materialType: sw.TerrainMaterialType(),
	}
}

func (r *WorldRenderer) Init() {
	r.rendererBase.Init()
	r.registerMaterialProgram(r.materialType)
	r.declareMaterialUniforms()
	r.declareSkyUniforms()
	createLightUniforms(&r.rendererBase)
}

func (r *WorldRenderer) Render(dt float32) {
	sky := r.scene.GetSky()
	skyFeature := sky.Type.ShaderFeature()

	r.forEachDrawable(r.accepts, func(e ecs.Entity, m *scene.MaterialComponent) {
		combine := m.FeaturesCombine(skyFeature)
		program := r.ctx.GetShaderProgram(r.materialType.ProgramName(), combine)
		if !program.IsValid() {
			r.warnOnce(combine, "no program variant %q", combine)
			return
		}
		r.bindMaterial(m)
		r.bindSky(sky)
		fillLightUniforms(r.ctx, r.scene)
		r.ctx.SetState(materialState(m))
		r.ctx.Submit(r.view, program)
	})
}

func (r *WorldRenderer) accepts(_ ecs.Entity, m *scene.MaterialComponent) bool {
	return m.MaterialType() == r.materialType
}
