package gfx

import (
	"errors"
	"fmt"
	"math"
)

const InvalidIndex = math.MaxUint16

var (
	ErrStaleHandle      = errors.New("stale or invalid handle")
	ErrResourceCreation = errors.New("gpu resource creation failed")
	ErrResourceMissing  = errors.New("resource missing")
	ErrSlotsExhausted   = errors.New("handle slots exhausted")
)

// Handle is a non-owning reference into a RenderContext resource table.
// The zero value is invalid. K only distinguishes handle kinds at compile time.
type Handle[K any] struct {
	index      uint16
	generation uint16
}

func (h Handle[K]) Index() uint16 {
	return h.index
}

func (h Handle[K]) Generation() uint16 {
	return h.generation
}

func (h Handle[K]) IsValid() bool {
	return h.index != InvalidIndex && h.generation != 0
}

func (h Handle[K]) String() string {
	if !h.IsValid() {
		return "invalid"
	}
	return fmt.Sprintf("%d.%d", h.index, h.generation)
}

type (
	textureKind     struct{}
	frameBufferKind struct{}
	uniformKind     struct{}
	shaderKind      struct{}
	programKind     struct{}
	bufferKind      struct{}
)

type (
	TextureHandle     = Handle[textureKind]
	FrameBufferHandle = Handle[frameBufferKind]
	UniformHandle     = Handle[uniformKind]
	ShaderHandle      = Handle[shaderKind]
	ProgramHandle     = Handle[programKind]
	BufferHandle      = Handle[bufferKind]
)

var (
	InvalidTexture     = TextureHandle{index: InvalidIndex}
	InvalidFrameBuffer = FrameBufferHandle{index: InvalidIndex}
	InvalidUniform     = UniformHandle{index: InvalidIndex}
	InvalidShader      = ShaderHandle{index: InvalidIndex}
	InvalidProgram     = ProgramHandle{index: InvalidIndex}
	InvalidBuffer      = BufferHandle{index: InvalidIndex}
)

type slot[V any] struct {
	generation uint16
	live       bool
	value      V
}

// SlotMap stores values behind generation-checked handles. Freed slots are
// reused with a bumped generation so old handles stop resolving.
type SlotMap[K any, V any] struct {
	slots []slot[V]
	free  []uint16
	count int
}

func (m *SlotMap[K, V]) Insert(value V) (Handle[K], error) {
	var index uint16
	if n := len(m.free); n > 0 {
		index = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		if len(m.slots) >= InvalidIndex {
			return Handle[K]{index: InvalidIndex}, ErrSlotsExhausted
		}
		index = uint16(len(m.slots))
		m.slots = append(m.slots, slot[V]{})
	}

	s := &m.slots[index]
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	s.live = true
	s.value = value
	m.count++
	return Handle[K]{index: index, generation: s.generation}, nil
}

func (m *SlotMap[K, V]) lookup(h Handle[K]) *slot[V] {
	if !h.IsValid() || int(h.index) >= len(m.slots) {
		return nil
	}
	s := &m.slots[h.index]
	if !s.live || s.generation != h.generation {
		return nil
	}
	return s
}

func (m *SlotMap[K, V]) Contains(h Handle[K]) bool {
	return m.lookup(h) != nil
}

func (m *SlotMap[K, V]) Get(h Handle[K]) (V, bool) {
	if s := m.lookup(h); s != nil {
		return s.value, true
	}
	var zero V
	return zero, false
}

// GetPtr returns nil for stale handles.
func (m *SlotMap[K, V]) GetPtr(h Handle[K]) *V {
	if s := m.lookup(h); s != nil {
		return &s.value
	}
	return nil
}

func (m *SlotMap[K, V]) Remove(h Handle[K]) (V, error) {
	s := m.lookup(h)
	if s == nil {
		var zero V
		return zero, fmt.Errorf("remove %s: %w", h, ErrStaleHandle)
	}
	value := s.value
	var zero V
	s.value = zero
	s.live = false
	m.free = append(m.free, h.index)
	m.count--
	return value, nil
}

func (m *SlotMap[K, V]) Len() int {
	return m.count
}

// Handles lists live handles in slot order.
func (m *SlotMap[K, V]) Handles() []Handle[K] {
	handles := make([]Handle[K], 0, m.count)
	for i := range m.slots {
		if m.slots[i].live {
			handles = append(handles, Handle[K]{index: uint16(i), generation: m.slots[i].generation})
		}
	}
	return handles
}
