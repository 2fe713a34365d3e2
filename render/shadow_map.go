package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gekko3d/lumen/ecs"
	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/scene"
)

const (
	// MaxShadowLights is the number of shadow-casting lights rendered per frame.
	MaxShadowLights = 3
	// shadowViewsPerLight covers the six faces of a point light.
	shadowViewsPerLight = 6

	shadowDepthFormat  = gputypes.TextureFormatDepth32Float
	shadowLinearFormat = gputypes.TextureFormatR32Float
)

// ShadowMapRenderer renders depth from up to MaxShadowLights casting
// lights. Every light owns a fixed block of six views; map m of light l
// renders in view ShadowView(l, m).
type ShadowMapRenderer struct {
	rendererBase
	firstView gfx.ViewID
}

func NewShadowMapRenderer(ctx *gfx.RenderContext, sw *scene.SceneWorld) *ShadowMapRenderer {
	return &ShadowMapRenderer{rendererBase: newRendererBase("ShadowMapRenderer", ctx, sw, nil)}
}

func (r *ShadowMapRenderer) Init() {
	r.firstView = r.ctx.CreateViews(r.name, MaxShadowLights*shadowViewsPerLight)
	r.view = r.firstView
	r.registerProgram("ShadowMapProgram", "vs_shadowMap", "fs_shadowMap")
	r.registerProgram("LinearShadowMapProgram", "vs_shadowMap", "fs_shadowMap_linear")
	r.declareUniform(uLightWorldPosFarPlane, gfx.UniformVec4, 1)
}

// ShadowView is the view shadow map mapIndex of the lightIndex-th casting
// light renders in.
func (r *ShadowMapRenderer) ShadowView(lightIndex, mapIndex int) gfx.ViewID {
	return r.firstView + gfx.ViewID(lightIndex*shadowViewsPerLight+mapIndex)
}

// UpdateView does nothing; every light binds its own views in Render.
func (r *ShadowMapRenderer) UpdateView(view, proj mgl32.Mat4) {}

func (r *ShadowMapRenderer) Render(dt float32) {
	camera := r.camera()
	ndc := camera.NDCDepth()
	invViewProj := camera.GetProjectionMatrix().Mul4(camera.GetViewMatrix()).Inv()

	index := 0
	for _, e := range r.scene.GetLightEntities() {
		if index >= MaxShadowLights {
			break
		}
		light := r.scene.GetLightComponent(e)
		if !light.IsCastShadow() {
			continue
		}

		switch light.Type() {
		case scene.LightTypeDirectional:
			fbs := r.shadowMaps(e, light, shadowDepthFormat)
			r.renderDirectional(index, light, fbs, invViewProj, ndc)
		case scene.LightTypePoint:
			fbs := r.shadowMaps(e, light, shadowLinearFormat, shadowDepthFormat)
			r.renderPoint(index, light, fbs, ndc)
		case scene.LightTypeSpot:
			fbs := r.shadowMaps(e, light, shadowDepthFormat)
			r.renderSpot(index, light, fbs, ndc)
		default:
			continue
		}
		index++
	}
}

// shadowMaps returns the frame buffers of light, creating them on first
// use. Existing maps are never recreated here: a light whose type or cascade
// count changed keeps its old maps until ClearShadowMapFBs, and only the maps
// both sides agree on are rendered.
func (r *ShadowMapRenderer) shadowMaps(e ecs.Entity, light *scene.LightComponent, formats ...gputypes.TextureFormat) []gfx.FrameBufferHandle {
	required := light.RequiredShadowMapCount()
	if !light.IsShadowMapFBsValid() {
		size := light.ShadowMapSize()
		for i := 0; i < required; i++ {
			fb, err := r.ctx.CreateFrameBuffer(size, size, formats...)
			if err != nil {
				r.logger.Errorf("%s: light %d: %v", r.name, e, err)
				break
			}
			light.AddShadowMapFB(r.ctx, fb)
		}
	}

	fbs := light.GetShadowMapFBs()
	if len(fbs) != required {
		r.warnOnce(shadowMismatchKey(e), "light %d has %d shadow maps, its type %s needs %d; call ClearShadowMapFBs to rebuild",
			e, len(fbs), light.Type(), required)
	}
	return fbs[:min(len(fbs), required)]
}

func shadowMismatchKey(e ecs.Entity) string {
	return fmt.Sprintf("shadow-mismatch-%d", e)
}

func (r *ShadowMapRenderer) beginShadowView(view gfx.ViewID, fb gfx.FrameBufferHandle, clear gfx.ClearFlags, v, p mgl32.Mat4) {
	w, h := r.ctx.FrameBufferSize(fb)
	r.ctx.SetViewFrameBuffer(view, fb)
	r.ctx.SetViewRect(view, 0, 0, w, h)
	r.ctx.SetViewClear(view, clear, 0xffffffff, 1)
	r.ctx.SetViewTransform(view, v, p)
}

func (r *ShadowMapRenderer) renderDirectional(index int, light *scene.LightComponent, fbs []gfx.FrameBufferHandle, invViewProj mgl32.Mat4, ndc scene.NDCDepth) {
	camera := r.camera()
	corners := FrustumCorners(invViewProj, ndc)
	splits := light.CascadeSplits(camera.NearPlane(), camera.FarPlane())

	light.ClearLightViewProjMatrix()
	from := float32(0)
	for i, fb := range fbs {
		to := splits[min(i, len(splits)-1)]
		fit := FitDirectionalShadow(SliceCorners(corners, from, to), light.Direction(), ndc)
		from = to

		view := r.ShadowView(index, i)
		r.beginShadowView(view, fb, gfx.ClearDepth, fit.View, fit.Proj)
		light.AddLightViewProjMatrix(fit.ViewProj())
		r.drawCasters(view, r.program("ShadowMapProgram"))
	}
}

func (r *ShadowMapRenderer) renderPoint(index int, light *scene.LightComponent, fbs []gfx.FrameBufferHandle, ndc scene.NDCDepth) {
	views, proj := PointShadowViews(light.Position(), light.Range(), ndc)

	light.ClearLightViewProjMatrix()
	for i, fb := range fbs {
		view := r.ShadowView(index, i)
		r.beginShadowView(view, fb, gfx.ClearColor|gfx.ClearDepth, views[i], proj)
		light.AddLightViewProjMatrix(proj.Mul4(views[i]))
		r.ctx.FillVec4(uLightWorldPosFarPlane, light.Position().Vec4(light.Range()))
		r.drawCasters(view, r.program("LinearShadowMapProgram"))
	}
}

func (r *ShadowMapRenderer) renderSpot(index int, light *scene.LightComponent, fbs []gfx.FrameBufferHandle, ndc scene.NDCDepth) {
	_, outer := light.GetInnerAndOuter()
	v, p := SpotShadowViewProj(light.Position(), light.Direction(), outer, light.Range(), ndc)

	light.ClearLightViewProjMatrix()
	for i, fb := range fbs {
		view := r.ShadowView(index, i)
		r.beginShadowView(view, fb, gfx.ClearDepth, v, p)
		light.AddLightViewProjMatrix(p.Mul4(v))
		r.drawCasters(view, r.program("ShadowMapProgram"))
	}
}

// drawCasters submits every static mesh except the sky. Blend-shaped meshes
// are left out since their deformed positions live in compute buffers.
func (r *ShadowMapRenderer) drawCasters(view gfx.ViewID, program gfx.ProgramHandle) {
	sky := r.scene.GetSkyEntity()
	for _, e := range r.scene.GetStaticMeshEntities() {
		if e == sky || r.scene.GetBlendShapeComponent(e) != nil {
			continue
		}
		if !r.bindMesh(e) {
			continue
		}
		r.ctx.SetState(gfx.StateWriteRGB | gfx.StateWriteA | gfx.StateWriteZ | gfx.StateDepthTestLess | gfx.StateCullCCW)
		r.ctx.Submit(view, program)
	}
}
