package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/scene"
)

// MeshLayout is the vertex layout of generated meshes: position, normal, uv.
var MeshLayout = gfx.VertexLayout{
	Stride: 40,
	Attributes: []gfx.VertexAttribute{
		{Name: "a_position", Format: gputypes.VertexFormatFloat32x4, Offset: 0},
		{Name: "a_normal", Format: gputypes.VertexFormatFloat32x4, Offset: 16},
		{Name: "a_texcoord0", Format: gputypes.VertexFormatFloat32x2, Offset: 32},
	},
}

var outlineLayout = gfx.VertexLayout{
	Stride: 16,
	Attributes: []gfx.VertexAttribute{
		{Name: "a_position", Format: gputypes.VertexFormatFloat32x4, Offset: 0},
	},
}

var boxFaces = [6]struct{ normal, u, v mgl32.Vec3 }{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
}

// CreateBoxMesh uploads a box centered at the origin into mesh, replacing
// its geometry and bounds, and uploads the bounds outline.
func CreateBoxMesh(ctx *gfx.RenderContext, mesh *scene.StaticMeshComponent, halfExtents mgl32.Vec3) error {
	var vertices []float32
	var indices []uint16
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for f, face := range boxFaces {
		for _, c := range corners {
			p := face.normal.Add(face.u.Mul(c[0])).Add(face.v.Mul(c[1]))
			p = mgl32.Vec3{p[0] * halfExtents[0], p[1] * halfExtents[1], p[2] * halfExtents[2]}
			vertices = append(vertices,
				p[0], p[1], p[2], 1,
				face.normal[0], face.normal[1], face.normal[2], 0,
				(c[0]+1)/2, (1-c[1])/2,
			)
		}
		base := uint16(f * 4)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}

	box := scene.AABB{Min: halfExtents.Mul(-1), Max: halfExtents}
	if err := uploadMesh(ctx, mesh, vertices, indices, box); err != nil {
		return err
	}
	return CreateAABBOutline(ctx, mesh)
}

// CreatePlaneMesh uploads a quad in the XZ plane facing +Y.
func CreatePlaneMesh(ctx *gfx.RenderContext, mesh *scene.StaticMeshComponent, halfWidth, halfDepth float32) error {
	vertices := []float32{
		-halfWidth, 0, halfDepth, 1, 0, 1, 0, 0, 0, 1,
		halfWidth, 0, halfDepth, 1, 0, 1, 0, 0, 1, 1,
		halfWidth, 0, -halfDepth, 1, 0, 1, 0, 0, 1, 0,
		-halfWidth, 0, -halfDepth, 1, 0, 1, 0, 0, 0, 0,
	}
	box := scene.AABB{Min: mgl32.Vec3{-halfWidth, 0, -halfDepth}, Max: mgl32.Vec3{halfWidth, 0, halfDepth}}
	if err := uploadMesh(ctx, mesh, vertices, []uint16{0, 1, 2, 0, 2, 3}, box); err != nil {
		return err
	}
	return CreateAABBOutline(ctx, mesh)
}

func uploadMesh(ctx *gfx.RenderContext, mesh *scene.StaticMeshComponent, vertices []float32, indices []uint16, box scene.AABB) error {
	vb, err := ctx.CreateVertexBuffer(packFloats(vertices), MeshLayout)
	if err != nil {
		return fmt.Errorf("mesh vertices: %w", err)
	}
	ib, err := ctx.CreateIndexBuffer(packIndices16(indices), false)
	if err != nil {
		ctx.DestroyBuffer(vb)
		return fmt.Errorf("mesh indices: %w", err)
	}
	mesh.VertexBuffer, mesh.IndexBuffer = vb, ib
	mesh.VertexCount = uint32(len(vertices) * 4 / int(MeshLayout.Stride))
	mesh.IndexCount = uint32(len(indices))
	mesh.AABB = box
	return nil
}

var outlineIndices = []uint16{
	0, 1, 1, 3, 3, 2, 2, 0,
	4, 5, 5, 7, 7, 6, 6, 4,
	0, 4, 1, 5, 2, 6, 3, 7,
}

// CreateAABBOutline uploads the twelve edges of mesh.AABB as a line list.
func CreateAABBOutline(ctx *gfx.RenderContext, mesh *scene.StaticMeshComponent) error {
	if mesh.AABB.IsEmpty() {
		return fmt.Errorf("mesh outline: empty bounds")
	}
	var vertices []float32
	for _, c := range mesh.AABB.Corners() {
		vertices = append(vertices, c[0], c[1], c[2], 1)
	}
	vb, err := ctx.CreateVertexBuffer(packFloats(vertices), outlineLayout)
	if err != nil {
		return fmt.Errorf("mesh outline: %w", err)
	}
	ib, err := ctx.CreateIndexBuffer(packIndices16(outlineIndices), false)
	if err != nil {
		ctx.DestroyBuffer(vb)
		return fmt.Errorf("mesh outline: %w", err)
	}
	mesh.AABBVertexBuffer, mesh.AABBIndexBuffer = vb, ib
	return nil
}
