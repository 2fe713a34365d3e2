package scene

import (
	"github.com/gekko3d/lumen/gfx"
)

// StaticMeshComponent references GPU buffers owned by the render context.
type StaticMeshComponent struct {
	VertexBuffer gfx.BufferHandle
	IndexBuffer  gfx.BufferHandle
	VertexCount  uint32
	IndexCount   uint32

	// Line-list geometry of the bounding box, used by debug passes.
	AABBVertexBuffer gfx.BufferHandle
	AABBIndexBuffer  gfx.BufferHandle

	AABB AABB
}

func (m *StaticMeshComponent) Reset() {
	*m = StaticMeshComponent{
		VertexBuffer:     gfx.InvalidBuffer,
		IndexBuffer:      gfx.InvalidBuffer,
		AABBVertexBuffer: gfx.InvalidBuffer,
		AABBIndexBuffer:  gfx.InvalidBuffer,
		AABB:             EmptyAABB(),
	}
}

func (m *StaticMeshComponent) HasGeometry() bool {
	return m.VertexBuffer.IsValid() && m.IndexBuffer.IsValid()
}

func (m *StaticMeshComponent) HasAABBGeometry() bool {
	return m.AABBVertexBuffer.IsValid() && m.AABBIndexBuffer.IsValid()
}
