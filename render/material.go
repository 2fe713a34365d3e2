package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lumen/ecs"
	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/scene"
)

// declareMaterialUniforms declares the samplers and factors bindMaterial fills.
func (r *rendererBase) declareMaterialUniforms() {
	for _, kind := range scene.MaterialTextureTypes() {
		r.declareUniform(kind.SamplerName(), gfx.UniformSampler, 1)
	}
	r.declareUniform(uAlbedoColor, gfx.UniformVec4, 1)
	r.declareUniform(uEmissiveColor, gfx.UniformVec4, 1)
	r.declareUniform(uMetallicRoughness, gfx.UniformVec4, 1)
	r.declareUniform(uAlbedoUVOffsetScale, gfx.UniformVec4, 1)
	r.declareUniform(uAlphaCutOff, gfx.UniformVec4, 1)
	r.declareUniform(uCameraPos, gfx.UniformVec4, 1)
}

func (r *rendererBase) declareSkyUniforms() {
	r.declareUniform(sTexCubeIrr, gfx.UniformSampler, 1)
	r.declareUniform(sTexCubeRad, gfx.UniformSampler, 1)
	r.declareUniform(sTexLUT, gfx.UniformSampler, 1)
	r.declareUniform(uLightDir, gfx.UniformVec4, 1)
	r.declareUniform(uHeightOffsetShadowLen, gfx.UniformVec4, 1)
}

// forEachDrawable runs the per-entity loop shared by the material passes:
// skip entities accept rejects, skip entities without a mesh, skip entities
// another pass deforms, cull, then bind transform and geometry and call draw.
func (r *rendererBase) forEachDrawable(accept func(e ecs.Entity, m *scene.MaterialComponent) bool, draw func(e ecs.Entity, m *scene.MaterialComponent)) {
	frustum := r.camera().GetFrustum()
	sky := r.scene.GetSkyEntity()
	for _, e := range r.scene.GetMaterialEntities() {
		m := r.scene.GetMaterialComponent(e)
		if e == sky || !accept(e, m) {
			continue
		}
		if mesh := r.scene.GetStaticMeshComponent(e); mesh == nil || !mesh.HasGeometry() {
			continue
		}
		if r.isDelegated(e) || !r.isVisible(e, frustum) {
			continue
		}
		r.bindMesh(e)
		draw(e, m)
	}
}

// bindMaterial binds the texture slots and scalar factors of m.
func (r *rendererBase) bindMaterial(m *scene.MaterialComponent) {
	for _, kind := range scene.MaterialTextureTypes() {
		info, ok := m.Texture(kind)
		if !ok || !r.ctx.IsTextureValid(info.Texture) {
			continue
		}
		r.ctx.SetTexture(info.Slot, kind.SamplerName(), info.Texture, gfx.SamplerDefault)
		if kind == scene.TextureBaseColor {
			r.ctx.FillVec4(uAlbedoUVOffsetScale, mgl32.Vec4{info.UVOffset.X(), info.UVOffset.Y(), info.UVScale.X(), info.UVScale.Y()})
		}
	}
	r.ctx.FillVec4(uAlbedoColor, m.AlbedoColor)
	r.ctx.FillVec4(uEmissiveColor, m.EmissiveColor)
	r.ctx.FillVec4(uMetallicRoughness, mgl32.Vec4{m.Metallic, m.Roughness, 0, 0})
	if m.BlendMode == scene.BlendMask {
		r.ctx.FillVec4(uAlphaCutOff, mgl32.Vec4{m.AlphaCutOff, 0, 0, 0})
	}
	r.ctx.FillVec4(uCameraPos, r.camera().Eye().Vec4(1))
}

// bindSky binds the image based lighting maps or the atmosphere terms,
// whichever the sky type selects.
func (r *rendererBase) bindSky(sky *scene.SkyComponent) {
	switch sky.Type {
	case scene.SkyTypeSkyBox:
		sky.IrradianceTexture = r.loadTexture(sky.IrradiancePath, gfx.SamplerClamp)
		sky.RadianceTexture = r.loadTexture(sky.RadiancePath, gfx.SamplerClamp)
		lut := r.loadTexture(iblBRDFLUT, gfx.SamplerClamp)
		if sky.IrradianceTexture.IsValid() {
			r.ctx.SetTexture(stageIrradiance, sTexCubeIrr, sky.IrradianceTexture, gfx.SamplerClamp)
		}
		if sky.RadianceTexture.IsValid() {
			r.ctx.SetTexture(stageRadiance, sTexCubeRad, sky.RadianceTexture, gfx.SamplerClamp)
		}
		if lut.IsValid() {
			r.ctx.SetTexture(stageLUT, sTexLUT, lut, gfx.SamplerClamp)
		}
	case scene.SkyTypeAtmosphericScattering:
		r.ctx.FillVec4(uLightDir, sky.SunDirection.Vec4(0))
		r.ctx.FillVec4(uHeightOffsetShadowLen, mgl32.Vec4{sky.HeightOffset, sky.ShadowLength, 0, 0})
	}
}

// loadTexture returns the texture at path, loading it on first use. A path
// that failed to load is reported once and not retried.
func (r *rendererBase) loadTexture(path string, flags gfx.SamplerFlags) gfx.TextureHandle {
	if path == "" {
		return gfx.InvalidTexture
	}
	if h := r.ctx.GetTexture(path); h.IsValid() {
		return h
	}
	if r.failedTextures[path] {
		return gfx.InvalidTexture
	}
	h, err := r.ctx.CreateTextureFromFile(path, flags)
	if err != nil {
		if r.failedTextures == nil {
			r.failedTextures = make(map[string]bool)
		}
		r.failedTextures[path] = true
		r.logger.Warnf("%s: %v", r.name, err)
		return gfx.InvalidTexture
	}
	return h
}

func materialState(m *scene.MaterialComponent) gfx.RenderState {
	state := gfx.StateDefault
	if m.TwoSided {
		state &^= gfx.StateCullCCW
	}
	if m.BlendMode == scene.BlendTransparent {
		state = state&^gfx.StateWriteZ | gfx.StateBlendAlpha
	}
	return state
}
