package render

import (
	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/scene"
)

// AnimationRenderer draws skinned meshes with their bone palette. The static
// mesh passes leave these entities out.
type AnimationRenderer struct {
	rendererBase
}

func NewAnimationRenderer(ctx *gfx.RenderContext, sw *scene.SceneWorld, target *gfx.RenderTarget) *AnimationRenderer {
	return &AnimationRenderer{rendererBase: newRendererBase("AnimationRenderer", ctx, sw, target)}
}

func (r *AnimationRenderer) Init() {
	r.rendererBase.Init()
	r.registerMaterialProgram(r.scene.AnimationMaterialType())
	r.declareMaterialUniforms()
	r.declareSkyUniforms()
	createLightUniforms(&r.rendererBase)
	r.declareUniform(uBoneMatrices, gfx.UniformMat4, scene.MaxBoneCount)
}

func (r *AnimationRenderer) Render(dt float32) {
	mt := r.scene.AnimationMaterialType()
	sky := r.scene.GetSky()
	skyFeature := sky.Type.ShaderFeature()

	for _, e := range r.scene.GetAnimationEntities() {
		anim := r.scene.GetAnimationComponent(e)
		if anim.Playing {
			anim.Time += dt
		}
		m := r.scene.GetMaterialComponent(e)
		if m == nil || m.MaterialType() != mt {
			continue
		}
		combine := m.FeaturesCombine(skyFeature)
		program := r.ctx.GetShaderProgram(mt.ProgramName(), combine)
		if !program.IsValid() {
			r.warnOnce(combine, "no program variant %q", combine)
			continue
		}
		if !r.bindMesh(e) {
			continue
		}
		if bones := anim.BoneData(); len(bones) > 0 {
			r.ctx.FillUniform(uBoneMatrices, bones)
		}
		r.bindMaterial(m)
		r.bindSky(sky)
		fillLightUniforms(r.ctx, r.scene)
		r.ctx.SetState(materialState(m))
		r.ctx.Submit(r.view, program)
	}
}
