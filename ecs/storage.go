package ecs

import (
	"fmt"
	"reflect"
)

// ComponentsStorage keeps every T of a world in one dense slice, in creation
// order. Removal compacts the slice so live components stay contiguous.
// Pointers returned by CreateComponent and GetComponent are valid until the
// next create or remove on the same storage.
type ComponentsStorage[T any] struct {
	entities      []Entity
	components    []T
	entityToIndex map[Entity]int
}

func newComponentsStorage[T any]() *ComponentsStorage[T] {
	return &ComponentsStorage[T]{
		entityToIndex: make(map[Entity]int),
	}
}

func (s *ComponentsStorage[T]) CreateComponent(entity Entity) *T {
	if entity == InvalidEntity {
		panic(fmt.Sprintf("cannot create %s for invalid entity", s.typeName()))
	}
	if _, ok := s.entityToIndex[entity]; ok {
		panic(fmt.Sprintf("entity %d already has %s", entity, s.typeName()))
	}

	var zero T
	s.entityToIndex[entity] = len(s.components)
	s.entities = append(s.entities, entity)
	s.components = append(s.components, zero)
	return &s.components[len(s.components)-1]
}

// GetComponent returns nil when the entity has no component of this type.
func (s *ComponentsStorage[T]) GetComponent(entity Entity) *T {
	index, ok := s.entityToIndex[entity]
	if !ok {
		return nil
	}
	return &s.components[index]
}

func (s *ComponentsStorage[T]) Contains(entity Entity) bool {
	_, ok := s.entityToIndex[entity]
	return ok
}

// RemoveComponent drops the entity's component and shifts the tail down,
// preserving the relative order of the remaining components.
func (s *ComponentsStorage[T]) RemoveComponent(entity Entity) {
	index, ok := s.entityToIndex[entity]
	if !ok {
		return
	}

	releaseComponent(&s.components[index])

	copy(s.entities[index:], s.entities[index+1:])
	copy(s.components[index:], s.components[index+1:])
	last := len(s.components) - 1
	var zero T
	s.components[last] = zero
	s.entities = s.entities[:last]
	s.components = s.components[:last]

	delete(s.entityToIndex, entity)
	for i := index; i < len(s.entities); i++ {
		s.entityToIndex[s.entities[i]] = i
	}
}

// GetEntities returns the owning entities in storage order. The slice is
// shared with the storage and must not be modified.
func (s *ComponentsStorage[T]) GetEntities() []Entity {
	return s.entities
}

// Components returns the dense component slice, parallel to GetEntities.
func (s *ComponentsStorage[T]) Components() []T {
	return s.components
}

func (s *ComponentsStorage[T]) Count() int {
	return len(s.components)
}

// Each visits components in storage order until fn returns false.
func (s *ComponentsStorage[T]) Each(fn func(Entity, *T) bool) {
	for i := range s.components {
		if !fn(s.entities[i], &s.components[i]) {
			return
		}
	}
}

func (s *ComponentsStorage[T]) release() {
	for i := range s.components {
		releaseComponent(&s.components[i])
	}
	s.entities = nil
	s.components = nil
	s.entityToIndex = make(map[Entity]int)
}

func (s *ComponentsStorage[T]) typeName() string {
	return reflect.TypeFor[T]().String()
}

func releaseComponent[T any](component *T) {
	if r, ok := any(component).(ResourceReleaser); ok {
		r.ReleaseResources()
	}
}
