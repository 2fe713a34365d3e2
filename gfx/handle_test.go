package gfx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_ZeroValueIsInvalid(t *testing.T) {
	var h TextureHandle
	assert.False(t, h.IsValid())
	assert.False(t, InvalidTexture.IsValid())
	assert.Equal(t, uint16(InvalidIndex), InvalidProgram.Index())
	assert.Equal(t, "invalid", h.String())
}

func TestSlotMap_GenerationCatchesReuse(t *testing.T) {
	var m SlotMap[textureKind, string]

	a, err := m.Insert("a")
	require.NoError(t, err)
	assert.True(t, a.IsValid())

	v, ok := m.Get(a)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	_, err = m.Remove(a)
	require.NoError(t, err)

	b, err := m.Insert("b")
	require.NoError(t, err)
	assert.Equal(t, a.Index(), b.Index())
	assert.NotEqual(t, a.Generation(), b.Generation())

	assert.False(t, m.Contains(a))
	assert.Nil(t, m.GetPtr(a))
	_, err = m.Remove(a)
	assert.True(t, errors.Is(err, ErrStaleHandle))

	assert.Equal(t, 1, m.Len())
	assert.Equal(t, []TextureHandle{b}, m.Handles())
}

func TestSlotMap_RemoveInvalid(t *testing.T) {
	var m SlotMap[bufferKind, int]
	_, err := m.Remove(InvalidBuffer)
	assert.ErrorIs(t, err, ErrStaleHandle)

	_, err = m.Remove(BufferHandle{index: 7, generation: 1})
	assert.ErrorIs(t, err, ErrStaleHandle)
}
