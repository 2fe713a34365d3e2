package render

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/scene"
)

const (
	// SceneTargetName is the render target the scene passes draw into.
	SceneTargetName = "SceneTarget"

	uExposure = "u_exposure"
)

// CreateSceneTarget creates the back-buffer sized target with color,
// emissive and depth attachments, in that order.
func CreateSceneTarget(ctx *gfx.RenderContext) (*gfx.RenderTarget, error) {
	return ctx.CreateRenderTarget(SceneTargetName, 0, 0,
		gputypes.TextureFormatRGBA16Float,
		gputypes.TextureFormatRGBA16Float,
		gputypes.TextureFormatDepth24PlusStencil8,
	)
}

// PresentRenderer tone maps the scene color attachment onto the back buffer.
type PresentRenderer struct {
	rendererBase
	source *gfx.RenderTarget
	quad   screenQuad

	Exposure float32
}

func NewPresentRenderer(ctx *gfx.RenderContext, sw *scene.SceneWorld, source *gfx.RenderTarget) *PresentRenderer {
	return &PresentRenderer{
		rendererBase: newRendererBase("PresentRenderer", ctx, sw, nil),
		source:       source,
		Exposure:     1,
	}
}

func (r *PresentRenderer) Init() {
	r.rendererBase.Init()
	r.registerProgram("PresentProgram", "vs_fullscreen", "fs_present")
	r.declareUniform(sTexture, gfx.UniformSampler, 1)
	r.declareUniform(uExposure, gfx.UniformVec4, 1)
}

func (r *PresentRenderer) Warmup() error {
	if err := r.rendererBase.Warmup(); err != nil {
		return err
	}
	return r.quad.create(r.ctx)
}

func (r *PresentRenderer) UpdateView(view, proj mgl32.Mat4) {
	r.bindViewTarget(r.view)
	r.ctx.SetViewClear(r.view, gfx.ClearColor|gfx.ClearDepth, 0x000000ff, 1)
	r.ctx.SetViewTransform(r.view, mgl32.Ident4(), screenProjection(r.camera().NDCDepth()))
}

func (r *PresentRenderer) Render(dt float32) {
	color := r.source.Texture(0)
	if !r.ctx.IsTextureValid(color) {
		return
	}
	r.quad.bind(r.ctx)
	r.ctx.SetTexture(0, sTexture, color, gfx.SamplerClamp)
	r.ctx.FillVec4(uExposure, mgl32.Vec4{r.Exposure, 0, 0, 0})
	r.ctx.SetState(gfx.StateWriteRGB | gfx.StateWriteA)
	r.ctx.Submit(r.view, r.program("PresentProgram"))
}

func (r *PresentRenderer) Close() {
	r.quad.destroy(r.ctx)
}
