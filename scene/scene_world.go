package scene

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gekko3d/lumen/ecs"
	"github.com/gekko3d/lumen/logging"
	"github.com/gekko3d/lumen/shader"
)

// SceneWorld is the typed view of an ecs.World the renderer works with. It
// always has one main camera entity and one sky entity.
type SceneWorld struct {
	world  *ecs.World
	logger logging.Logger

	transforms  *ecs.ComponentsStorage[TransformComponent]
	cameras     *ecs.ComponentsStorage[CameraComponent]
	lights      *ecs.ComponentsStorage[LightComponent]
	meshes      *ecs.ComponentsStorage[StaticMeshComponent]
	materials   *ecs.ComponentsStorage[MaterialComponent]
	skies       *ecs.ComponentsStorage[SkyComponent]
	blendShapes *ecs.ComponentsStorage[BlendShapeComponent]
	animations  *ecs.ComponentsStorage[AnimationComponent]
	ddgis       *ecs.ComponentsStorage[DDGIComponent]
	names       *ecs.ComponentsStorage[NameComponent]
	hierarchies *ecs.ComponentsStorage[HierarchyComponent]

	mainCameraEntity ecs.Entity
	skyEntity        ecs.Entity
	selectedEntity   ecs.Entity
	ddgiEntity       ecs.Entity

	pbrMaterialType       *MaterialType
	celluloidMaterialType *MaterialType
	animationMaterialType *MaterialType
	ddgiMaterialType      *MaterialType
	terrainMaterialType   *MaterialType
	materialTypes         []*MaterialType
}

func NewSceneWorld(logger logging.Logger) *SceneWorld {
	logger = logging.OrNop(logger)
	w := ecs.NewWorld()
	s := &SceneWorld{
		world:          w,
		logger:         logger,
		transforms:     ecs.Register[TransformComponent](w),
		cameras:        ecs.Register[CameraComponent](w),
		lights:         ecs.Register[LightComponent](w),
		meshes:         ecs.Register[StaticMeshComponent](w),
		materials:      ecs.Register[MaterialComponent](w),
		skies:          ecs.Register[SkyComponent](w),
		blendShapes:    ecs.Register[BlendShapeComponent](w),
		animations:     ecs.Register[AnimationComponent](w),
		ddgis:          ecs.Register[DDGIComponent](w),
		names:          ecs.Register[NameComponent](w),
		hierarchies:    ecs.Register[HierarchyComponent](w),
		selectedEntity: ecs.InvalidEntity,
		ddgiEntity:     ecs.InvalidEntity,
	}
	s.createMaterialTypes()

	s.mainCameraEntity = s.CreateNamedEntity("MainCamera")
	s.CreateCameraComponent(s.mainCameraEntity)
	s.CreateTransformComponent(s.mainCameraEntity)

	s.skyEntity = s.CreateNamedEntity("Sky")
	s.CreateSkyComponent(s.skyEntity)
	return s
}

func (s *SceneWorld) createMaterialTypes() {
	textureSets := func(schema *shader.ShaderSchema) *shader.ShaderSchema {
		for _, kind := range MaterialTextureTypes() {
			schema.AddFeatureSet(shader.NewFeatureSet(kind.Feature()))
		}
		return schema
	}
	skySet := shader.NewFeatureSet(shader.FeatureIBL, shader.FeatureATM)

	pbr := textureSets(shader.NewShaderSchema(s.logger))
	pbr.AddFeatureSet(skySet)
	s.pbrMaterialType = NewMaterialType("PBR", "WorldProgram", []string{"vs_PBR", "fs_PBR"}, pbr)

	cel := shader.NewShaderSchema(s.logger)
	cel.AddFeatureSet(shader.NewFeatureSet(shader.FeatureAlbedoMap))
	cel.AddFeatureSet(skySet)
	s.celluloidMaterialType = NewMaterialType("Celluloid", "CelluloidProgram", []string{"vs_celluloid", "fs_celluloid"}, cel)

	anim := textureSets(shader.NewShaderSchema(s.logger))
	anim.AddFeatureSet(skySet)
	s.animationMaterialType = NewMaterialType("Animation", "AnimationProgram", []string{"vs_animation", "fs_animation"}, anim)

	ddgi := textureSets(shader.NewShaderSchema(s.logger))
	s.ddgiMaterialType = NewMaterialType("DDGI", "DDGIProgram", []string{"vs_PBR", "fs_DDGI"}, ddgi)

	terrain := shader.NewShaderSchema(s.logger)
	s.terrainMaterialType = NewMaterialType("Terrain", "TerrainProgram", []string{"vs_terrain", "fs_terrain"}, terrain)

	s.materialTypes = []*MaterialType{
		s.pbrMaterialType, s.celluloidMaterialType, s.animationMaterialType,
		s.ddgiMaterialType, s.terrainMaterialType,
	}
}

func (s *SceneWorld) World() *ecs.World       { return s.world }
func (s *SceneWorld) Logger() logging.Logger  { return s.logger }
func (s *SceneWorld) CreateEntity() ecs.Entity { return s.world.CreateEntity() }

// CreateNamedEntity creates an entity with a NameComponent carrying a fresh GUID.
func (s *SceneWorld) CreateNamedEntity(name string) ecs.Entity {
	e := s.world.CreateEntity()
	c := s.names.CreateComponent(e)
	c.Name = name
	c.GUID = uuid.New()
	return e
}

// DeleteEntity removes every component of e and unlinks it from its parent.
// The main camera and sky entities cannot be deleted.
func (s *SceneWorld) DeleteEntity(e ecs.Entity) bool {
	if e == s.mainCameraEntity || e == s.skyEntity {
		s.logger.Warnf("scene: entity %d is the main camera or sky and cannot be deleted", e)
		return false
	}
	if h := s.hierarchies.GetComponent(e); h != nil {
		if parent := s.hierarchies.GetComponent(h.Parent); parent != nil {
			parent.removeChild(e)
		}
		for _, child := range h.Children {
			if ch := s.hierarchies.GetComponent(child); ch != nil {
				ch.Parent = ecs.InvalidEntity
			}
		}
	}
	if e == s.selectedEntity {
		s.selectedEntity = ecs.InvalidEntity
	}
	if e == s.ddgiEntity {
		s.ddgiEntity = ecs.InvalidEntity
	}
	s.world.DeleteEntity(e)
	return true
}

// Destroy releases component-held GPU handles and clears all storages.
func (s *SceneWorld) Destroy() {
	s.world.Destroy()
}

// Special entities

func (s *SceneWorld) GetMainCameraEntity() ecs.Entity { return s.mainCameraEntity }

func (s *SceneWorld) SetMainCameraEntity(e ecs.Entity) {
	if !s.cameras.Contains(e) {
		panic(fmt.Sprintf("entity %d has no CameraComponent", e))
	}
	s.mainCameraEntity = e
}

func (s *SceneWorld) GetSkyEntity() ecs.Entity { return s.skyEntity }

func (s *SceneWorld) SetSkyEntity(e ecs.Entity) {
	if !s.skies.Contains(e) {
		panic(fmt.Sprintf("entity %d has no SkyComponent", e))
	}
	s.skyEntity = e
}

func (s *SceneWorld) GetSelectedEntity() ecs.Entity  { return s.selectedEntity }
func (s *SceneWorld) SetSelectedEntity(e ecs.Entity) { s.selectedEntity = e }

func (s *SceneWorld) GetDDGIEntity() ecs.Entity { return s.ddgiEntity }

func (s *SceneWorld) SetDDGIEntity(e ecs.Entity) {
	if !s.ddgis.Contains(e) {
		panic(fmt.Sprintf("entity %d has no DDGIComponent", e))
	}
	s.ddgiEntity = e
}

func (s *SceneWorld) GetMainCamera() *CameraComponent { return s.cameras.GetComponent(s.mainCameraEntity) }
func (s *SceneWorld) GetSky() *SkyComponent           { return s.skies.GetComponent(s.skyEntity) }

// Material types

func (s *SceneWorld) PBRMaterialType() *MaterialType       { return s.pbrMaterialType }
func (s *SceneWorld) CelluloidMaterialType() *MaterialType { return s.celluloidMaterialType }
func (s *SceneWorld) AnimationMaterialType() *MaterialType { return s.animationMaterialType }
func (s *SceneWorld) DDGIMaterialType() *MaterialType      { return s.ddgiMaterialType }
func (s *SceneWorld) TerrainMaterialType() *MaterialType   { return s.terrainMaterialType }
func (s *SceneWorld) MaterialTypes() []*MaterialType       { return s.materialTypes }

// AssignMaterialType binds e to exactly one material type, replacing any
// previous one. Each pass draws only the entities of its own type.
func (s *SceneWorld) AssignMaterialType(e ecs.Entity, t *MaterialType) error {
	m := s.materials.GetComponent(e)
	if m == nil {
		return fmt.Errorf("assign material type: entity %d has no MaterialComponent", e)
	}
	known := false
	for _, mt := range s.materialTypes {
		if mt == t {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("assign material type: %v is not a material type of this scene", t)
	}
	m.materialType = t
	return nil
}

// GetMaterialTypeEntities lists the entities whose material is of type t.
func (s *SceneWorld) GetMaterialTypeEntities(t *MaterialType) []ecs.Entity {
	var out []ecs.Entity
	s.materials.Each(func(e ecs.Entity, m *MaterialComponent) bool {
		if m.materialType == t {
			out = append(out, e)
		}
		return true
	})
	return out
}

// RendererAssignments groups material entities by material type.
func (s *SceneWorld) RendererAssignments() map[*MaterialType][]ecs.Entity {
	out := make(map[*MaterialType][]ecs.Entity, len(s.materialTypes))
	s.materials.Each(func(e ecs.Entity, m *MaterialComponent) bool {
		if m.materialType != nil {
			out[m.materialType] = append(out[m.materialType], e)
		}
		return true
	})
	return out
}

// Hierarchy

// SetParent links child under parent, creating hierarchy components as needed.
func (s *SceneWorld) SetParent(child, parent ecs.Entity) {
	if child == parent {
		panic(fmt.Sprintf("entity %d cannot parent itself", child))
	}
	ch := s.hierarchies.GetComponent(child)
	if ch == nil {
		ch = s.CreateHierarchyComponent(child)
	}
	if old := s.hierarchies.GetComponent(ch.Parent); old != nil {
		old.removeChild(child)
	}
	p := s.hierarchies.GetComponent(parent)
	if p == nil {
		p = s.CreateHierarchyComponent(parent)
		ch = s.hierarchies.GetComponent(child)
	}
	ch.Parent = parent
	p.addChild(child)
}

// SceneAABB is the world-space bounds of all meshes with a transform,
// excluding the sky.
func (s *SceneWorld) SceneAABB() AABB {
	box := EmptyAABB()
	s.meshes.Each(func(e ecs.Entity, m *StaticMeshComponent) bool {
		if e == s.skyEntity {
			return true
		}
		if t := s.transforms.GetComponent(e); t != nil {
			box = box.Merge(m.AABB.Transform(t.GetWorldMatrix()))
		}
		return true
	})
	return box
}

// Typed accessors

func (s *SceneWorld) GetTransformComponent(e ecs.Entity) *TransformComponent {
	return s.transforms.GetComponent(e)
}
func (s *SceneWorld) GetTransformEntities() []ecs.Entity { return s.transforms.GetEntities() }
func (s *SceneWorld) CreateTransformComponent(e ecs.Entity) *TransformComponent {
	c := s.transforms.CreateComponent(e)
	c.Reset()
	return c
}
func (s *SceneWorld) DeleteTransformComponent(e ecs.Entity) { s.transforms.RemoveComponent(e) }

func (s *SceneWorld) GetCameraComponent(e ecs.Entity) *CameraComponent {
	return s.cameras.GetComponent(e)
}
func (s *SceneWorld) GetCameraEntities() []ecs.Entity { return s.cameras.GetEntities() }
func (s *SceneWorld) CreateCameraComponent(e ecs.Entity) *CameraComponent {
	c := s.cameras.CreateComponent(e)
	c.Reset()
	return c
}
func (s *SceneWorld) DeleteCameraComponent(e ecs.Entity) {
	if e == s.mainCameraEntity {
		s.logger.Warnf("scene: main camera component cannot be deleted")
		return
	}
	s.cameras.RemoveComponent(e)
}

func (s *SceneWorld) GetLightComponent(e ecs.Entity) *LightComponent {
	return s.lights.GetComponent(e)
}
func (s *SceneWorld) GetLightEntities() []ecs.Entity { return s.lights.GetEntities() }

// GetLightComponents returns the contiguous light array in entity order.
func (s *SceneWorld) GetLightComponents() []LightComponent { return s.lights.Components() }
func (s *SceneWorld) CreateLightComponent(e ecs.Entity) *LightComponent {
	c := s.lights.CreateComponent(e)
	c.Reset()
	return c
}
func (s *SceneWorld) DeleteLightComponent(e ecs.Entity) { s.lights.RemoveComponent(e) }

func (s *SceneWorld) GetStaticMeshComponent(e ecs.Entity) *StaticMeshComponent {
	return s.meshes.GetComponent(e)
}
func (s *SceneWorld) GetStaticMeshEntities() []ecs.Entity { return s.meshes.GetEntities() }
func (s *SceneWorld) CreateStaticMeshComponent(e ecs.Entity) *StaticMeshComponent {
	c := s.meshes.CreateComponent(e)
	c.Reset()
	return c
}
func (s *SceneWorld) DeleteStaticMeshComponent(e ecs.Entity) { s.meshes.RemoveComponent(e) }

func (s *SceneWorld) GetMaterialComponent(e ecs.Entity) *MaterialComponent {
	return s.materials.GetComponent(e)
}
func (s *SceneWorld) GetMaterialEntities() []ecs.Entity { return s.materials.GetEntities() }

// CreateMaterialComponent creates a material of type t, or PBR when t is nil.
func (s *SceneWorld) CreateMaterialComponent(e ecs.Entity, t *MaterialType) *MaterialComponent {
	c := s.materials.CreateComponent(e)
	c.Reset()
	if t == nil {
		t = s.pbrMaterialType
	}
	c.materialType = t
	return c
}
func (s *SceneWorld) DeleteMaterialComponent(e ecs.Entity) { s.materials.RemoveComponent(e) }

func (s *SceneWorld) GetSkyComponent(e ecs.Entity) *SkyComponent { return s.skies.GetComponent(e) }
func (s *SceneWorld) GetSkyEntities() []ecs.Entity              { return s.skies.GetEntities() }
func (s *SceneWorld) CreateSkyComponent(e ecs.Entity) *SkyComponent {
	c := s.skies.CreateComponent(e)
	c.Reset()
	return c
}
func (s *SceneWorld) DeleteSkyComponent(e ecs.Entity) {
	if e == s.skyEntity {
		s.logger.Warnf("scene: sky component of the sky entity cannot be deleted")
		return
	}
	s.skies.RemoveComponent(e)
}

func (s *SceneWorld) GetBlendShapeComponent(e ecs.Entity) *BlendShapeComponent {
	return s.blendShapes.GetComponent(e)
}
func (s *SceneWorld) GetBlendShapeEntities() []ecs.Entity { return s.blendShapes.GetEntities() }
func (s *SceneWorld) CreateBlendShapeComponent(e ecs.Entity) *BlendShapeComponent {
	c := s.blendShapes.CreateComponent(e)
	c.Reset()
	return c
}
func (s *SceneWorld) DeleteBlendShapeComponent(e ecs.Entity) { s.blendShapes.RemoveComponent(e) }

func (s *SceneWorld) GetAnimationComponent(e ecs.Entity) *AnimationComponent {
	return s.animations.GetComponent(e)
}
func (s *SceneWorld) GetAnimationEntities() []ecs.Entity { return s.animations.GetEntities() }
func (s *SceneWorld) CreateAnimationComponent(e ecs.Entity) *AnimationComponent {
	c := s.animations.CreateComponent(e)
	c.Reset()
	return c
}
func (s *SceneWorld) DeleteAnimationComponent(e ecs.Entity) { s.animations.RemoveComponent(e) }

func (s *SceneWorld) GetDDGIComponent(e ecs.Entity) *DDGIComponent { return s.ddgis.GetComponent(e) }
func (s *SceneWorld) GetDDGIEntities() []ecs.Entity               { return s.ddgis.GetEntities() }
func (s *SceneWorld) CreateDDGIComponent(e ecs.Entity) *DDGIComponent {
	c := s.ddgis.CreateComponent(e)
	c.Reset()
	return c
}
func (s *SceneWorld) DeleteDDGIComponent(e ecs.Entity) {
	if e == s.ddgiEntity {
		s.ddgiEntity = ecs.InvalidEntity
	}
	s.ddgis.RemoveComponent(e)
}

func (s *SceneWorld) GetNameComponent(e ecs.Entity) *NameComponent { return s.names.GetComponent(e) }
func (s *SceneWorld) GetNameEntities() []ecs.Entity               { return s.names.GetEntities() }

// FindEntityByName returns the first entity with the given name.
func (s *SceneWorld) FindEntityByName(name string) ecs.Entity {
	found := ecs.InvalidEntity
	s.names.Each(func(e ecs.Entity, n *NameComponent) bool {
		if n.Name == name {
			found = e
			return false
		}
		return true
	})
	return found
}

func (s *SceneWorld) GetHierarchyComponent(e ecs.Entity) *HierarchyComponent {
	return s.hierarchies.GetComponent(e)
}
func (s *SceneWorld) CreateHierarchyComponent(e ecs.Entity) *HierarchyComponent {
	c := s.hierarchies.CreateComponent(e)
	c.Reset()
	return c
}
