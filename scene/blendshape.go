package scene

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/logging"
)

type Morph struct {
	Name      string
	VertexIDs []uint32
	// Positions are per-vertex offsets, parallel to VertexIDs.
	Positions []mgl32.Vec3
}

// BlendShapeBuffers are the compute buffers of one blend-shaped mesh.
type BlendShapeBuffers struct {
	BasePositions  gfx.BufferHandle
	MorphVertexIDs gfx.BufferHandle
	MorphOffsets   gfx.BufferHandle
	ActiveMorphs   gfx.BufferHandle
	ChangedMorphs  gfx.BufferHandle
	Weights        gfx.BufferHandle
	FinalPositions gfx.BufferHandle
}

func (b *BlendShapeBuffers) all() []*gfx.BufferHandle {
	return []*gfx.BufferHandle{
		&b.BasePositions, &b.MorphVertexIDs, &b.MorphOffsets, &b.ActiveMorphs,
		&b.ChangedMorphs, &b.Weights, &b.FinalPositions,
	}
}

func (b *BlendShapeBuffers) IsValid() bool {
	for _, h := range b.all() {
		if !h.IsValid() {
			return false
		}
	}
	return true
}

type BufferReleaser interface {
	DestroyBuffer(h gfx.BufferHandle) error
	Logger() logging.Logger
}

type morphChange struct {
	index uint32
	delta float32
}

// BlendShapeComponent tracks morph weights with two independent flags:
// dirty forces the full three-stage rebuild, needUpdate applies only the
// recorded weight deltas on top of the last result.
type BlendShapeComponent struct {
	basePositions []mgl32.Vec3
	morphs        []Morph
	morphOffsets  []uint32
	weights       []float32

	dirty      bool
	needUpdate bool
	changed    []morphChange

	Buffers  BlendShapeBuffers
	releaser BufferReleaser
}

func (b *BlendShapeComponent) Reset() {
	b.ReleaseResources()
	*b = BlendShapeComponent{}
	for _, h := range b.Buffers.all() {
		*h = gfx.InvalidBuffer
	}
}

// Init assigns base mesh positions and morph targets. All weights start at 0.
// Buffers sized for earlier data are released; the next render recreates them.
func (b *BlendShapeComponent) Init(base []mgl32.Vec3, morphs []Morph) error {
	offsets := make([]uint32, len(morphs))
	var total uint32
	for i, m := range morphs {
		if len(m.VertexIDs) != len(m.Positions) {
			return fmt.Errorf("morph %s: %d vertex ids for %d positions", m.Name, len(m.VertexIDs), len(m.Positions))
		}
		for _, id := range m.VertexIDs {
			if int(id) >= len(base) {
				return fmt.Errorf("morph %s: vertex %d out of range %d", m.Name, id, len(base))
			}
		}
		offsets[i] = total
		total += uint32(len(m.VertexIDs))
	}

	b.ReleaseResources()
	b.basePositions = base
	b.morphs = morphs
	b.morphOffsets = offsets
	b.weights = make([]float32, len(morphs))
	b.changed = nil
	b.needUpdate = false
	b.dirty = true
	return nil
}

func (b *BlendShapeComponent) MorphCount() int  { return len(b.morphs) }
func (b *BlendShapeComponent) VertexCount() int { return len(b.basePositions) }

func (b *BlendShapeComponent) MorphVertexCount() int {
	n := 0
	for _, m := range b.morphs {
		n += len(m.VertexIDs)
	}
	return n
}

func (b *BlendShapeComponent) Weight(index int) float32 { return b.weights[index] }

// SetWeight changes one morph weight. Turning a morph on or off changes the
// active set and needs the full rebuild; other changes are queued as deltas.
func (b *BlendShapeComponent) SetWeight(index int, weight float32) {
	old := b.weights[index]
	if old == weight {
		return
	}
	b.weights[index] = weight

	if (old == 0) != (weight == 0) {
		b.dirty = true
	}
	if b.dirty {
		b.changed = b.changed[:0]
		b.needUpdate = false
		return
	}
	b.queueDelta(uint32(index), weight-old)
}

// queueDelta keeps at most one pending record per morph, so the queue never
// outgrows the MorphCount records the GPU buffer holds.
func (b *BlendShapeComponent) queueDelta(index uint32, delta float32) {
	for i := range b.changed {
		if b.changed[i].index == index {
			b.changed[i].delta += delta
			b.needUpdate = true
			return
		}
	}
	b.changed = append(b.changed, morphChange{index: index, delta: delta})
	b.needUpdate = true
}

func (b *BlendShapeComponent) IsDirty() bool         { return b.dirty }
func (b *BlendShapeComponent) SetDirty(dirty bool)   { b.dirty = dirty }
func (b *BlendShapeComponent) NeedUpdate() bool      { return b.needUpdate }
func (b *BlendShapeComponent) ChangedCount() int     { return len(b.changed) }
func (b *BlendShapeComponent) ClearNeedUpdate()      { b.needUpdate = false }
func (b *BlendShapeComponent) ActiveMorphCount() int { return len(b.activeMorphs()) }

func (b *BlendShapeComponent) activeMorphs() []int {
	var active []int
	for i, w := range b.weights {
		if w != 0 {
			active = append(active, i)
		}
	}
	return active
}

// Buffer payloads, little-endian, four 32-bit values per record where noted.

func (b *BlendShapeComponent) BasePositionData() []byte {
	return packVec3s(b.basePositions)
}

func (b *BlendShapeComponent) MorphVertexIDData() []byte {
	out := make([]byte, 0, b.MorphVertexCount()*4)
	for _, m := range b.morphs {
		for _, id := range m.VertexIDs {
			out = binary.LittleEndian.AppendUint32(out, id)
		}
	}
	return out
}

func (b *BlendShapeComponent) MorphOffsetData() []byte {
	var positions []mgl32.Vec3
	for _, m := range b.morphs {
		positions = append(positions, m.Positions...)
	}
	return packVec3s(positions)
}

// ActiveMorphData packs {offset, length, weight, morph index} per active morph.
func (b *BlendShapeComponent) ActiveMorphData() []byte {
	active := b.activeMorphs()
	out := make([]byte, 0, len(active)*16)
	for _, i := range active {
		out = b.appendMorphRecord(out, i, b.weights[i])
	}
	return out
}

func (b *BlendShapeComponent) WeightData() []byte {
	out := make([]byte, 0, len(b.weights)*4)
	for _, w := range b.weights {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(w))
	}
	return out
}

// UpdateChanged packs the queued deltas as {offset, length, delta, morph
// index} records and clears the queue.
func (b *BlendShapeComponent) UpdateChanged() []byte {
	out := make([]byte, 0, len(b.changed)*16)
	for _, c := range b.changed {
		out = b.appendMorphRecord(out, int(c.index), c.delta)
	}
	b.changed = b.changed[:0]
	return out
}

func (b *BlendShapeComponent) appendMorphRecord(out []byte, index int, weight float32) []byte {
	out = binary.LittleEndian.AppendUint32(out, b.morphOffsets[index])
	out = binary.LittleEndian.AppendUint32(out, uint32(len(b.morphs[index].VertexIDs)))
	out = binary.LittleEndian.AppendUint32(out, math.Float32bits(weight))
	return binary.LittleEndian.AppendUint32(out, uint32(index))
}

func (b *BlendShapeComponent) SetBuffers(releaser BufferReleaser, buffers BlendShapeBuffers) {
	b.releaser = releaser
	b.Buffers = buffers
}

func (b *BlendShapeComponent) ReleaseResources() {
	for _, h := range b.Buffers.all() {
		if h.IsValid() && b.releaser != nil {
			if err := b.releaser.DestroyBuffer(*h); err != nil {
				logging.OrNop(b.releaser.Logger()).Warnf("blend shape buffer %s: %v", *h, err)
			}
		}
		*h = gfx.InvalidBuffer
	}
	b.releaser = nil
}

func packVec3s(vs []mgl32.Vec3) []byte {
	out := make([]byte, 0, len(vs)*16)
	for _, v := range vs {
		for _, f := range [4]float32{v[0], v[1], v[2], 0} {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
	}
	return out
}
