package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/scene"
)

const (
	uVolumeLightParams = "u_volumeLightParams"
	uLightViewProj     = "u_lightViewProj"
	uInvViewProj       = "u_invViewProj"
)

// VolumeLightRenderer ray-marches the shadow map of every volumetric light
// in screen space and adds the in-scattered light to the scene target.
type VolumeLightRenderer struct {
	rendererBase
	quad screenQuad

	// Steps is the number of ray-march samples per pixel.
	Steps int
}

func NewVolumeLightRenderer(ctx *gfx.RenderContext, sw *scene.SceneWorld, target *gfx.RenderTarget) *VolumeLightRenderer {
	return &VolumeLightRenderer{
		rendererBase: newRendererBase("VolumeLightRenderer", ctx, sw, target),
		Steps:        32,
	}
}

func (r *VolumeLightRenderer) Init() {
	r.rendererBase.Init()
	r.registerProgram("VolumeLightProgram", "vs_fullscreen", "fs_volumeLight")
	r.declareUniform(sShadowMap, gfx.UniformSampler, 1)
	r.declareUniform(uLightWorldPosFarPlane, gfx.UniformVec4, 1)
	r.declareUniform(uLightDir, gfx.UniformVec4, 1)
	r.declareUniform(uVolumeLightParams, gfx.UniformVec4, 1)
	r.declareUniform(uLightViewProj, gfx.UniformMat4, 1)
	r.declareUniform(uInvViewProj, gfx.UniformMat4, 1)
	r.declareUniform(uCameraPos, gfx.UniformVec4, 1)
}

func (r *VolumeLightRenderer) Warmup() error {
	if err := r.rendererBase.Warmup(); err != nil {
		return err
	}
	return r.quad.create(r.ctx)
}

func (r *VolumeLightRenderer) UpdateView(view, proj mgl32.Mat4) {
	r.bindViewTarget(r.view)
	r.ctx.SetViewTransform(r.view, mgl32.Ident4(), screenProjection(r.camera().NDCDepth()))
}

// VolumetricLights groups the shadow-casting lights that cast volumes and
// already have shadow maps by type.
func (r *VolumeLightRenderer) VolumetricLights() map[scene.LightType][]*scene.LightComponent {
	out := make(map[scene.LightType][]*scene.LightComponent)
	for _, e := range r.scene.GetLightEntities() {
		l := r.scene.GetLightComponent(e)
		if !l.IsCastVolume() || !l.IsCastShadow() || !l.IsShadowMapFBsValid() || len(l.GetLightViewProjMatrices()) == 0 {
			continue
		}
		switch l.Type() {
		case scene.LightTypeDirectional, scene.LightTypePoint, scene.LightTypeSpot:
			out[l.Type()] = append(out[l.Type()], l)
		}
	}
	return out
}

func (r *VolumeLightRenderer) Render(dt float32) {
	camera := r.camera()
	invViewProj := camera.GetProjectionMatrix().Mul4(camera.GetViewMatrix()).Inv()
	program := r.program("VolumeLightProgram")

	lights := r.VolumetricLights()
	for _, t := range []scene.LightType{scene.LightTypeDirectional, scene.LightTypePoint, scene.LightTypeSpot} {
		for _, l := range lights[t] {
			shadow := r.ctx.GetFrameBufferTexture(l.GetShadowMapFBs()[0], 0)
			if !r.ctx.IsTextureValid(shadow) {
				continue
			}
			r.quad.bind(r.ctx)
			r.ctx.SetTexture(0, sShadowMap, shadow, gfx.SamplerClamp)
			r.ctx.FillVec4(uLightWorldPosFarPlane, l.Position().Vec4(l.Range()))
			r.ctx.FillVec4(uLightDir, l.Direction().Vec4(0))
			r.ctx.FillVec4(uVolumeLightParams, mgl32.Vec4{float32(t), l.Intensity(), float32(r.Steps), l.ShadowBias()})
			r.ctx.FillMat4(uLightViewProj, l.GetLightViewProjMatrices()[0])
			r.ctx.FillMat4(uInvViewProj, invViewProj)
			r.ctx.FillVec4(uCameraPos, camera.Eye().Vec4(1))
			r.ctx.SetState(gfx.StateWriteRGB | gfx.StateBlendAdd)
			r.ctx.Submit(r.view, program)
		}
	}
}

func (r *VolumeLightRenderer) Close() {
	r.quad.destroy(r.ctx)
}
