package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lumen/ecs"
	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/scene"
)

const uAABBColor = "u_aabbColor"

type AABBMode uint8

const (
	// AABBAll outlines every mesh in the scene.
	AABBAll AABBMode = iota
	// AABBSelected outlines only the selected entity.
	AABBSelected
)

// AABBRenderer draws bounding box outlines as a debug overlay.
type AABBRenderer struct {
	rendererBase
	mode        AABBMode
	programName string
	Color       mgl32.Vec4
}

func NewAABBRenderer(ctx *gfx.RenderContext, sw *scene.SceneWorld, target *gfx.RenderTarget, mode AABBMode) *AABBRenderer {
	name, program, color := "AABBRenderer", "AABBAllProgram", mgl32.Vec4{0.2, 1, 0.2, 0.6}
	if mode == AABBSelected {
		name, program, color = "SelectedAABBRenderer", "AABBProgram", mgl32.Vec4{1, 0.6, 0, 1}
	}
	return &AABBRenderer{
		rendererBase: newRendererBase(name, ctx, sw, target),
		mode:         mode,
		programName:  program,
		Color:        color,
	}
}

func (r *AABBRenderer) Init() {
	r.rendererBase.Init()
	r.registerProgram(r.programName, "vs_AABB", "fs_AABB")
	r.declareUniform(uAABBColor, gfx.UniformVec4, 1)
}

func (r *AABBRenderer) entities() []ecs.Entity {
	if r.mode == AABBSelected {
		if e := r.scene.GetSelectedEntity(); e != ecs.InvalidEntity {
			return []ecs.Entity{e}
		}
		return nil
	}
	return r.scene.GetStaticMeshEntities()
}

func (r *AABBRenderer) Render(dt float32) {
	program := r.program(r.programName)
	sky := r.scene.GetSkyEntity()
	for _, e := range r.entities() {
		if e == sky {
			continue
		}
		mesh := r.scene.GetStaticMeshComponent(e)
		if mesh == nil || !mesh.HasAABBGeometry() {
			continue
		}
		if t := r.scene.GetTransformComponent(e); t != nil {
			r.ctx.SetTransform(t.GetWorldMatrix())
		} else {
			r.ctx.SetTransform(mgl32.Ident4())
		}
		r.ctx.SetVertexBuffer(0, mesh.AABBVertexBuffer)
		r.ctx.SetIndexBuffer(mesh.AABBIndexBuffer)
		r.ctx.FillVec4(uAABBColor, r.Color)
		r.ctx.SetState(gfx.StateWriteRGB | gfx.StateWriteA | gfx.StateWriteZ | gfx.StateDepthTestLess |
			gfx.StateBlendAlpha | gfx.StatePrimitiveLines | gfx.StateMSAA)
		r.ctx.Submit(r.view, program)
	}
}
