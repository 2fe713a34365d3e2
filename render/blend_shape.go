package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lumen/ecs"
	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/scene"
)

const (
	uMorphCountVertexCount = "u_morphCount_vertexCount"
	uChangedWeight         = "u_changedWeight"

	blendShapeGroupSize = 64
)

// BlendShapeRenderer deforms blend-shaped meshes on the GPU and draws them.
// A dirty component runs the full rebuild: per-morph weights, weighted
// positions, then final positions. A component with queued weight deltas
// runs one incremental dispatch that patches the last result.
type BlendShapeRenderer struct {
	rendererBase
	computeView gfx.ViewID
}

func NewBlendShapeRenderer(ctx *gfx.RenderContext, sw *scene.SceneWorld, target *gfx.RenderTarget) *BlendShapeRenderer {
	return &BlendShapeRenderer{rendererBase: newRendererBase("BlendShapeRenderer", ctx, sw, target)}
}

func (r *BlendShapeRenderer) Init() {
	r.computeView = r.ctx.CreateView("BlendShapeCompute")
	r.rendererBase.Init()

	r.registerProgram("BlendShapeWeightsProgram", "cs_blendshape_weights")
	r.registerProgram("BlendShapeWeightPosProgram", "cs_blendshape_weight_pos")
	r.registerProgram("BlendShapeFinalPosProgram", "cs_blendshape_final_pos")
	r.registerProgram("BlendShapeUpdatePosProgram", "cs_blendshape_update_pos")
	r.registerProgram("BlendShapeProgram", "vs_blendshape", "fs_blendshape")

	r.declareUniform(uMorphCountVertexCount, gfx.UniformVec4, 1)
	r.declareUniform(uChangedWeight, gfx.UniformVec4, 1)
	r.declareMaterialUniforms()
	createLightUniforms(&r.rendererBase)
}

// ComputeView is the view every dispatch of the pass is recorded in.
func (r *BlendShapeRenderer) ComputeView() gfx.ViewID { return r.computeView }

func (r *BlendShapeRenderer) CheckResources() bool {
	return r.ctx.Caps().Compute && r.rendererBase.CheckResources()
}

func (r *BlendShapeRenderer) Render(dt float32) {
	for _, e := range r.scene.GetBlendShapeEntities() {
		bs := r.scene.GetBlendShapeComponent(e)
		if bs.MorphCount() == 0 || bs.VertexCount() == 0 {
			continue
		}
		if !bs.Buffers.IsValid() && !r.createBuffers(e, bs) {
			continue
		}

		if bs.IsDirty() {
			r.rebuild(bs)
			bs.SetDirty(false)
			bs.ClearNeedUpdate()
		} else if bs.NeedUpdate() {
			r.update(bs)
			bs.ClearNeedUpdate()
		}
		r.draw(e, bs)
	}
}

func (r *BlendShapeRenderer) createBuffers(e ecs.Entity, bs *scene.BlendShapeComponent) bool {
	morphs := uint32(bs.MorphCount())
	var b scene.BlendShapeBuffers

	create := func(size uint32, data []byte) gfx.BufferHandle {
		h, err := r.ctx.CreateDynamicBuffer(size, data)
		if err != nil {
			r.logger.Errorf("%s: entity %d: %v", r.name, e, err)
			return gfx.InvalidBuffer
		}
		return h
	}
	b.BasePositions = create(0, bs.BasePositionData())
	b.MorphVertexIDs = create(0, bs.MorphVertexIDData())
	b.MorphOffsets = create(0, bs.MorphOffsetData())
	b.ActiveMorphs = create(morphs*16, nil)
	b.ChangedMorphs = create(morphs*16, nil)
	b.Weights = create(morphs*4, nil)
	b.FinalPositions = create(uint32(bs.VertexCount())*16, bs.BasePositionData())

	bs.SetBuffers(r.ctx, b)
	if !b.IsValid() {
		bs.ReleaseResources()
		return false
	}
	bs.SetDirty(true)
	return true
}

func groups(n int) uint32 {
	return uint32(max((n+blendShapeGroupSize-1)/blendShapeGroupSize, 1))
}

func (r *BlendShapeRenderer) rebuild(bs *scene.BlendShapeComponent) {
	b := &bs.Buffers
	active := bs.ActiveMorphCount()
	r.ctx.UpdateDynamicBuffer(b.ActiveMorphs, 0, bs.ActiveMorphData())
	r.ctx.UpdateDynamicBuffer(b.Weights, 0, bs.WeightData())
	r.ctx.FillVec4(uMorphCountVertexCount, mgl32.Vec4{float32(active), float32(bs.VertexCount()), float32(bs.MorphVertexCount()), 0})

	r.ctx.SetComputeBuffer(0, b.ActiveMorphs, gfx.AccessRead)
	r.ctx.SetComputeBuffer(1, b.Weights, gfx.AccessReadWrite)
	r.ctx.Dispatch(r.computeView, r.program("BlendShapeWeightsProgram"), groups(active), 1, 1)

	r.ctx.SetComputeBuffer(0, b.ActiveMorphs, gfx.AccessRead)
	r.ctx.SetComputeBuffer(1, b.MorphVertexIDs, gfx.AccessRead)
	r.ctx.SetComputeBuffer(2, b.MorphOffsets, gfx.AccessRead)
	r.ctx.SetComputeBuffer(3, b.FinalPositions, gfx.AccessReadWrite)
	r.ctx.Dispatch(r.computeView, r.program("BlendShapeWeightPosProgram"), groups(bs.MorphVertexCount()), 1, 1)

	r.ctx.SetComputeBuffer(0, b.BasePositions, gfx.AccessRead)
	r.ctx.SetComputeBuffer(1, b.FinalPositions, gfx.AccessReadWrite)
	r.ctx.Dispatch(r.computeView, r.program("BlendShapeFinalPosProgram"), groups(bs.VertexCount()), 1, 1)
}

func (r *BlendShapeRenderer) update(bs *scene.BlendShapeComponent) {
	b := &bs.Buffers
	changed := bs.ChangedCount()
	r.ctx.UpdateDynamicBuffer(b.ChangedMorphs, 0, bs.UpdateChanged())
	r.ctx.UpdateDynamicBuffer(b.Weights, 0, bs.WeightData())
	r.ctx.FillVec4(uChangedWeight, mgl32.Vec4{float32(changed), float32(bs.VertexCount()), 0, 0})

	r.ctx.SetComputeBuffer(0, b.ChangedMorphs, gfx.AccessRead)
	r.ctx.SetComputeBuffer(1, b.MorphVertexIDs, gfx.AccessRead)
	r.ctx.SetComputeBuffer(2, b.MorphOffsets, gfx.AccessRead)
	r.ctx.SetComputeBuffer(3, b.FinalPositions, gfx.AccessReadWrite)
	r.ctx.Dispatch(r.computeView, r.program("BlendShapeUpdatePosProgram"), groups(bs.MorphVertexCount()), 1, 1)
}

// draw submits the mesh with the deformed positions on stream 1.
func (r *BlendShapeRenderer) draw(e ecs.Entity, bs *scene.BlendShapeComponent) {
	if !r.bindMesh(e) {
		return
	}
	r.ctx.SetVertexBuffer(1, bs.Buffers.FinalPositions)
	state := gfx.StateDefault
	if m := r.scene.GetMaterialComponent(e); m != nil {
		r.bindMaterial(m)
		state = materialState(m)
	}
	fillLightUniforms(r.ctx, r.scene)
	r.ctx.SetState(state)
	r.ctx.Submit(r.view, r.program("BlendShapeProgram"))
}
