package ecs

import (
	"fmt"
	"math"
	"reflect"
	"sync"
)

type Entity uint32

const InvalidEntity Entity = math.MaxUint32

// ResourceReleaser is implemented by components holding handles that must be
// given back before their storage goes away, e.g. shadow-map framebuffers.
type ResourceReleaser interface {
	ReleaseResources()
}

type componentStore interface {
	Contains(entity Entity) bool
	RemoveComponent(entity Entity)
	Count() int
	release()
	typeName() string
}

// World owns one storage per registered component type. It is driven from a
// single frame loop; only entity id allocation is guarded.
type World struct {
	idGeneratorLock sync.Mutex
	entityIdCounter Entity

	storages  map[reflect.Type]componentStore
	order     []reflect.Type
	destroyed bool
}

func NewWorld() *World {
	return &World{
		storages: make(map[reflect.Type]componentStore),
	}
}

func (w *World) CreateEntity() Entity {
	w.idGeneratorLock.Lock()
	defer w.idGeneratorLock.Unlock()

	if w.entityIdCounter == InvalidEntity {
		panic("entity ids exhausted")
	}
	id := w.entityIdCounter
	w.entityIdCounter++
	return id
}

// Register declares T. Registering the same type twice panics.
func Register[T any](w *World) *ComponentsStorage[T] {
	t := reflect.TypeFor[T]()
	if _, ok := w.storages[t]; ok {
		panic(fmt.Sprintf("%s is already registered", t))
	}

	storage := newComponentsStorage[T]()
	w.storages[t] = storage
	w.order = append(w.order, t)
	return storage
}

func IsRegistered[T any](w *World) bool {
	_, ok := w.storages[reflect.TypeFor[T]()]
	return ok
}

// Storage returns the storage of a registered type and panics otherwise.
func Storage[T any](w *World) *ComponentsStorage[T] {
	t := reflect.TypeFor[T]()
	store, ok := w.storages[t]
	if !ok {
		panic(fmt.Sprintf("%s is not registered", t))
	}
	return store.(*ComponentsStorage[T])
}

func CreateComponent[T any](w *World, entity Entity) *T {
	return Storage[T](w).CreateComponent(entity)
}

func GetComponent[T any](w *World, entity Entity) *T {
	return Storage[T](w).GetComponent(entity)
}

func HasComponent[T any](w *World, entity Entity) bool {
	return Storage[T](w).Contains(entity)
}

func RemoveComponent[T any](w *World, entity Entity) {
	Storage[T](w).RemoveComponent(entity)
}

// DeleteEntity removes every component the entity owns.
func (w *World) DeleteEntity(entity Entity) {
	for _, t := range w.order {
		w.storages[t].RemoveComponent(entity)
	}
}

// ComponentTypes lists registered component type names in registration order.
func (w *World) ComponentTypes() []string {
	names := make([]string, 0, len(w.order))
	for _, t := range w.order {
		names = append(names, w.storages[t].typeName())
	}
	return names
}

// Destroy releases component-held resources and clears every storage.
// Calling it again is a no-op.
func (w *World) Destroy() {
	if w.destroyed {
		return
	}
	w.destroyed = true

	for _, t := range w.order {
		w.storages[t].release()
	}
}
