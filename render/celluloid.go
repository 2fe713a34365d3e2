package render

import (
	"github.com/gekko3d/lumen/ecs"
	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/scene"
)

const (
	uDividLine         = "u_dividLine"
	uFirstShadowColor  = "u_firstShadowColor"
	uSecondShadowColor = "u_secondShadowColor"
	uRimLightColor     = "u_rimLightColor"
	uSpecular          = "u_specular"
	uRimLight          = "u_rimLight"
	uOutline           = "u_outlineColorAndWidth"
)

// CelluloidRenderer draws toon-shaded materials with banded shadows and a
// rim light.
type CelluloidRenderer struct {
	rendererBase
}

func NewCelluloidRenderer(ctx *gfx.RenderContext, sw *scene.SceneWorld, target *gfx.RenderTarget) *CelluloidRenderer {
	return &CelluloidRenderer{rendererBase: newRendererBase("CelluloidRenderer", ctx, sw, target)}
}

func (r *CelluloidRenderer) Init() {
	r.rendererBase.Init()
	r.registerMaterialProgram(r.scene.CelluloidMaterialType())
	r.declareMaterialUniforms()
	r.declareSkyUniforms()
	createLightUniforms(&r.rendererBase)
	for _, name := range []string{uDividLine, uFirstShadowColor, uSecondShadowColor, uRimLightColor, uSpecular, uRimLight, uOutline} {
		r.declareUniform(name, gfx.UniformVec4, 1)
	}
}

func (r *CelluloidRenderer) Render(dt float32) {
	mt := r.scene.CelluloidMaterialType()
	sky := r.scene.GetSky()
	skyFeature := sky.Type.ShaderFeature()

	accept := func(_ ecs.Entity, m *scene.MaterialComponent) bool { return m.MaterialType() == mt }
	r.forEachDrawable(accept, func(e ecs.Entity, m *scene.MaterialComponent) {
		combine := m.FeaturesCombine(skyFeature)
		program := r.ctx.GetShaderProgram(mt.ProgramName(), combine)
		if !program.IsValid() {
			r.warnOnce(combine, "no program variant %q", combine)
			return
		}
		r.bindMaterial(m)
		r.bindSky(sky)
		fillLightUniforms(r.ctx, r.scene)

		p := &m.Celluloid
		r.ctx.FillVec4(uDividLine, p.DividLine)
		r.ctx.FillVec4(uFirstShadowColor, p.FirstShadowColor.Vec4(1))
		r.ctx.FillVec4(uSecondShadowColor, p.SecondShadowColor.Vec4(1))
		r.ctx.FillVec4(uRimLightColor, p.RimLightColor.Vec4(1))
		r.ctx.FillVec4(uSpecular, p.Specular)
		r.ctx.FillVec4(uRimLight, p.RimLight)
		r.ctx.FillVec4(uOutline, p.OutlineColor.Vec4(p.OutlineWidth))

		r.ctx.SetState(materialState(m))
		r.ctx.Submit(r.view, program)
	})
}
