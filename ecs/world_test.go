package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transformComponent struct {
	x, y, z float32
}

type handleComponent struct {
	released *int
}

func (h *handleComponent) ReleaseResources() {
	*h.released++
}

func TestWorld_CreateComponentLookup(t *testing.T) {
	w := NewWorld()
	Register[transformComponent](w)

	e := w.CreateEntity()
	c := CreateComponent[transformComponent](w, e)
	c.x = 3

	got := GetComponent[transformComponent](w, e)
	if got == nil {
		t.Fatalf("Expected component for entity %d", e)
	}
	if got.x != 3 {
		t.Errorf("Expected x to be 3, got %v", got.x)
	}

	other := w.CreateEntity()
	if GetComponent[transformComponent](w, other) != nil {
		t.Errorf("Expected nil component for entity %d", other)
	}
}

func TestWorld_EntityIdsAreUniquePerWorld(t *testing.T) {
	w := NewWorld()
	seen := map[Entity]bool{}
	for i := 0; i < 100; i++ {
		e := w.CreateEntity()
		if seen[e] {
			t.Fatalf("Entity %d allocated twice", e)
		}
		seen[e] = true
	}

	other := NewWorld()
	assert.Equal(t, Entity(0), other.CreateEntity())
}

func TestWorld_RegisterTwicePanics(t *testing.T) {
	w := NewWorld()
	Register[transformComponent](w)

	require.PanicsWithValue(t, "ecs.transformComponent is already registered", func() {
		Register[transformComponent](w)
	})
}

func TestWorld_UnregisteredTypePanics(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()

	require.PanicsWithValue(t, "ecs.transformComponent is not registered", func() {
		CreateComponent[transformComponent](w, e)
	})
	assert.False(t, IsRegistered[transformComponent](w))
}

func TestWorld_CreateComponentTwicePanics(t *testing.T) {
	w := NewWorld()
	Register[transformComponent](w)
	e := w.CreateEntity()
	CreateComponent[transformComponent](w, e)

	assert.Panics(t, func() { CreateComponent[transformComponent](w, e) })
	assert.Panics(t, func() { CreateComponent[transformComponent](w, InvalidEntity) })
}

func TestStorage_RemoveKeepsOrderAndContiguity(t *testing.T) {
	w := NewWorld()
	storage := Register[transformComponent](w)

	var entities []Entity
	for i := 0; i < 5; i++ {
		e := w.CreateEntity()
		storage.CreateComponent(e).x = float32(i)
		entities = append(entities, e)
	}

	storage.RemoveComponent(entities[1])
	storage.RemoveComponent(entities[3])
	storage.RemoveComponent(entities[3])

	require.Equal(t, 3, storage.Count())
	assert.Equal(t, []Entity{entities[0], entities[2], entities[4]}, storage.GetEntities())

	xs := []float32{}
	for _, c := range storage.Components() {
		xs = append(xs, c.x)
	}
	assert.Equal(t, []float32{0, 2, 4}, xs)
	assert.Equal(t, float32(4), storage.GetComponent(entities[4]).x)
	assert.Nil(t, storage.GetComponent(entities[1]))
}

func TestStorage_EachStopsEarly(t *testing.T) {
	w := NewWorld()
	storage := Register[transformComponent](w)
	for i := 0; i < 4; i++ {
		storage.CreateComponent(w.CreateEntity())
	}

	visited := 0
	storage.Each(func(e Entity, c *transformComponent) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}

func TestWorld_DeleteEntityRemovesAllComponents(t *testing.T) {
	w := NewWorld()
	Register[transformComponent](w)
	Register[handleComponent](w)

	released := 0
	e := w.CreateEntity()
	CreateComponent[transformComponent](w, e)
	CreateComponent[handleComponent](w, e).released = &released

	w.DeleteEntity(e)

	assert.False(t, HasComponent[transformComponent](w, e))
	assert.False(t, HasComponent[handleComponent](w, e))
	assert.Equal(t, 1, released)
}

func TestWorld_DestroyReleasesOnce(t *testing.T) {
	w := NewWorld()
	Register[handleComponent](w)

	released := 0
	for i := 0; i < 3; i++ {
		CreateComponent[handleComponent](w, w.CreateEntity()).released = &released
	}

	w.Destroy()
	w.Destroy()

	assert.Equal(t, 3, released)
	assert.Equal(t, 0, Storage[handleComponent](w).Count())
	assert.Equal(t, []string{"ecs.handleComponent"}, w.ComponentTypes())
}
