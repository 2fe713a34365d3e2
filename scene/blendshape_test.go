package scene

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/resource"
)

func newBlendShape(t *testing.T) *BlendShapeComponent {
	t.Helper()
	b := &BlendShapeComponent{}
	b.Reset()
	base := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	morphs := []Morph{
		{Name: "smile", VertexIDs: []uint32{0, 1}, Positions: []mgl32.Vec3{{0, 0.1, 0}, {0, 0.2, 0}}},
		{Name: "blink", VertexIDs: []uint32{2}, Positions: []mgl32.Vec3{{0, -0.1, 0}}},
	}
	require.NoError(t, b.Init(base, morphs))
	return b
}

func TestBlendShape_InitMarksDirty(t *testing.T) {
	b := newBlendShape(t)
	assert.True(t, b.IsDirty())
	assert.False(t, b.NeedUpdate())
	assert.Equal(t, 2, b.MorphCount())
	assert.Equal(t, 3, b.VertexCount())
	assert.Equal(t, 3, b.MorphVertexCount())
	assert.Equal(t, 0, b.ActiveMorphCount())
	assert.False(t, b.Buffers.IsValid())
}

func TestBlendShape_InitRejectsBadMorphs(t *testing.T) {
	b := &BlendShapeComponent{}
	b.Reset()
	base := []mgl32.Vec3{{0, 0, 0}}

	err := b.Init(base, []Morph{{Name: "m", VertexIDs: []uint32{0}}})
	assert.Error(t, err)

	err = b.Init(base, []Morph{{Name: "m", VertexIDs: []uint32{4}, Positions: []mgl32.Vec3{{}}}})
	assert.Error(t, err)
}

func TestBlendShape_ActivationForcesRebuild(t *testing.T) {
	b := newBlendShape(t)
	b.SetDirty(false)

	b.SetWeight(0, 0.5)
	assert.True(t, b.IsDirty())
	assert.False(t, b.NeedUpdate())
	assert.Equal(t, 1, b.ActiveMorphCount())

	b.SetDirty(false)
	b.SetWeight(0, 0)
	assert.True(t, b.IsDirty())
	assert.Equal(t, 0, b.ActiveMorphCount())
}

func TestBlendShape_WeightChangeQueuesDelta(t *testing.T) {
	b := newBlendShape(t)
	b.SetWeight(0, 0.5)
	b.SetDirty(false)

	b.SetWeight(0, 0.75)
	assert.False(t, b.IsDirty())
	assert.True(t, b.NeedUpdate())
	assert.Equal(t, 1, b.ChangedCount())

	b.SetWeight(0, 0.75)
	assert.Equal(t, 1, b.ChangedCount())

	data := b.UpdateChanged()
	require.Len(t, data, 16)
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[0:]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[4:]))
	assert.InDelta(t, 0.25, math.Float32frombits(binary.LittleEndian.Uint32(data[8:])), 1e-6)
	assert.Equal(t, 0, b.ChangedCount())
}

func TestBlendShape_Payloads(t *testing.T) {
	b := newBlendShape(t)
	b.SetWeight(1, 1)

	assert.Len(t, b.BasePositionData(), 3*16)
	assert.Len(t, b.MorphVertexIDData(), 3*4)
	assert.Len(t, b.MorphOffsetData(), 3*16)
	assert.Len(t, b.WeightData(), 2*4)

	active := b.ActiveMorphData()
	require.Len(t, active, 16)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(active[0:]), "blink starts after smile's two vertices")
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(active[12:]))
}

func TestBlendShape_RepeatedChangesMergePerMorph(t *testing.T) {
	b := newBlendShape(t)
	b.SetWeight(0, 0.5)
	b.SetWeight(1, 0.5)
	b.SetDirty(false)

	b.SetWeight(0, 0.6)
	b.SetWeight(0, 0.7)
	b.SetWeight(0, 0.8)
	b.SetWeight(1, 0.9)
	require.Equal(t, 2, b.ChangedCount())
	assert.LessOrEqual(t, b.ChangedCount(), b.MorphCount())

	data := b.UpdateChanged()
	require.Len(t, data, 2*16)
	assert.InDelta(t, 0.3, math.Float32frombits(binary.LittleEndian.Uint32(data[8:])), 1e-6)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[28:]))
	assert.InDelta(t, 0.4, math.Float32frombits(binary.LittleEndian.Uint32(data[24:])), 1e-6)
}

func TestBlendShape_ReinitReleasesBuffers(t *testing.T) {
	b := newBlendShape(t)
	rc := gfx.NewRenderContext(gfx.NewRecordingBackend(gfx.Caps{}), resource.NewMemoryLoader(), gfx.Options{})
	var buffers BlendShapeBuffers
	for _, h := range buffers.all() {
		created, err := rc.CreateDynamicBuffer(16, nil)
		require.NoError(t, err)
		*h = created
	}
	b.SetBuffers(rc, buffers)
	require.True(t, b.Buffers.IsValid())

	require.NoError(t, b.Init([]mgl32.Vec3{{}, {}, {}, {}}, []Morph{{Name: "m", VertexIDs: []uint32{3}, Positions: []mgl32.Vec3{{1, 0, 0}}}}))
	assert.False(t, b.Buffers.IsValid())
	assert.Zero(t, rc.LiveResources())
	assert.True(t, b.IsDirty())
	assert.Equal(t, 4, b.VertexCount())
}
