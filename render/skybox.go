package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/scene"
)

const skyboxClearColor = 0x303030ff

// SkyboxRenderer clears the scene target and draws the radiance cube map
// around the camera. It is the first pass writing to the target.
type SkyboxRenderer struct {
	rendererBase

	// ClearColor is the RGBA the scene target is cleared to.
	ClearColor uint32
}

func NewSkyboxRenderer(ctx *gfx.RenderContext, sw *scene.SceneWorld, target *gfx.RenderTarget) *SkyboxRenderer {
	return &SkyboxRenderer{
		rendererBase: newRendererBase("SkyboxRenderer", ctx, sw, target),
		ClearColor:   skyboxClearColor,
	}
}

func (r *SkyboxRenderer) Init() {
	r.rendererBase.Init()
	r.registerProgram("SkyboxProgram", "vs_skybox", "fs_skybox")
	r.declareUniform(sTexSkybox, gfx.UniformSampler, 1)
}

// UpdateView drops the camera translation so the cube stays centered on
// the eye.
func (r *SkyboxRenderer) UpdateView(view, proj mgl32.Mat4) {
	view[12], view[13], view[14] = 0, 0, 0

	r.bindViewTarget(r.view)
	r.ctx.SetViewClear(r.view, gfx.ClearColor|gfx.ClearDepth, r.ClearColor, 1)
	r.ctx.SetViewTransform(r.view, view, proj)
}

func (r *SkyboxRenderer) Render(dt float32) {
	sky := r.scene.GetSky()
	if sky == nil || !sky.UsesSkyBoxPass() {
		return
	}
	mesh := r.scene.GetStaticMeshComponent(r.scene.GetSkyEntity())
	if mesh == nil || !mesh.HasGeometry() {
		return
	}

	// cached by path, so an unchanged path uploads nothing
	texture := r.loadTexture(sky.RadiancePath, gfx.SamplerClamp)
	if !texture.IsValid() {
		return
	}
	sky.RadianceTexture = texture

	r.ctx.SetTransform(mgl32.Ident4())
	r.ctx.SetVertexBuffer(0, mesh.VertexBuffer)
	r.ctx.SetIndexBuffer(mesh.IndexBuffer)
	r.ctx.SetTexture(0, sTexSkybox, texture, gfx.SamplerClamp)
	r.ctx.SetState(gfx.StateWriteRGB | gfx.StateWriteA | gfx.StateWriteZ | gfx.StateDepthTestLEqual | gfx.StateCullCW | gfx.StateMSAA)
	r.ctx.Submit(r.view, r.program("SkyboxProgram"))
}
