package render

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/scene"
)

// screenQuad is a unit quad over [0,1]x[0,1] with matching uvs, drawn
// under screenProjection.
type screenQuad struct {
	vertices gfx.BufferHandle
	indices  gfx.BufferHandle
}

var screenQuadLayout = gfx.VertexLayout{
	Stride: 16,
	Attributes: []gfx.VertexAttribute{
		{Name: "a_position", Format: gputypes.VertexFormatFloat32x2, Offset: 0},
		{Name: "a_texcoord0", Format: gputypes.VertexFormatFloat32x2, Offset: 8},
	},
}

func (q *screenQuad) create(ctx *gfx.RenderContext) error {
	if ctx.IsBufferValid(q.vertices) && ctx.IsBufferValid(q.indices) {
		return nil
	}
	vertices := packFloats([]float32{
		0, 0, 0, 1,
		1, 0, 1, 1,
		1, 1, 1, 0,
		0, 1, 0, 0,
	})
	vb, err := ctx.CreateVertexBuffer(vertices, screenQuadLayout)
	if err != nil {
		return err
	}
	ib, err := ctx.CreateIndexBuffer(packIndices16([]uint16{0, 1, 2, 0, 2, 3}), false)
	if err != nil {
		ctx.DestroyBuffer(vb)
		return err
	}
	q.vertices, q.indices = vb, ib
	return nil
}

func (q *screenQuad) bind(ctx *gfx.RenderContext) {
	ctx.SetTransform(mgl32.Ident4())
	ctx.SetVertexBuffer(0, q.vertices)
	ctx.SetIndexBuffer(q.indices)
}

func (q *screenQuad) destroy(ctx *gfx.RenderContext) {
	for _, h := range []*gfx.BufferHandle{&q.vertices, &q.indices} {
		if ctx.IsBufferValid(*h) {
			ctx.DestroyBuffer(*h)
		}
		*h = gfx.InvalidBuffer
	}
}

func screenProjection(ndc scene.NDCDepth) mgl32.Mat4 {
	return scene.Ortho(0, 1, 0, 1, -1, 1, ndc)
}

func packFloats(values []float32) []byte {
	out := make([]byte, 0, len(values)*4)
	for _, v := range values {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

func packIndices16(values []uint16) []byte {
	out := make([]byte, 0, len(values)*2)
	for _, v := range values {
		out = binary.LittleEndian.AppendUint16(out, v)
	}
	return out
}
