package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/lumen/ecs"
	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/resource"
	"github.com/gekko3d/lumen/shader"
)

func TestSceneWorld_DefaultEntities(t *testing.T) {
	s := NewSceneWorld(nil)

	cam := s.GetMainCameraEntity()
	sky := s.GetSkyEntity()
	require.NotEqual(t, cam, sky)
	require.NotNil(t, s.GetMainCamera())
	require.NotNil(t, s.GetSky())
	assert.Equal(t, SkyTypeSkyBox, s.GetSky().Type)

	name := s.GetNameComponent(cam)
	require.NotNil(t, name)
	assert.Equal(t, "MainCamera", name.Name)
	assert.NotEqual(t, uuid.Nil, name.GUID)
	assert.Equal(t, sky, s.FindEntityByName("Sky"))
	assert.Equal(t, ecs.InvalidEntity, s.FindEntityByName("nope"))

	assert.Equal(t, ecs.InvalidEntity, s.GetSelectedEntity())
	assert.Equal(t, ecs.InvalidEntity, s.GetDDGIEntity())
}

func TestSceneWorld_ProtectedEntities(t *testing.T) {
	s := NewSceneWorld(nil)

	assert.False(t, s.DeleteEntity(s.GetMainCameraEntity()))
	assert.False(t, s.DeleteEntity(s.GetSkyEntity()))
	s.DeleteCameraComponent(s.GetMainCameraEntity())
	s.DeleteSkyComponent(s.GetSkyEntity())
	assert.NotNil(t, s.GetMainCamera())
	assert.NotNil(t, s.GetSky())

	e := s.CreateEntity()
	s.CreateTransformComponent(e)
	s.CreateLightComponent(e)
	s.SetSelectedEntity(e)
	assert.True(t, s.DeleteEntity(e))
	assert.Nil(t, s.GetLightComponent(e))
	assert.Nil(t, s.GetTransformComponent(e))
	assert.Equal(t, ecs.InvalidEntity, s.GetSelectedEntity())
}

func TestSceneWorld_SetSpecialEntityRequiresComponent(t *testing.T) {
	s := NewSceneWorld(nil)
	e := s.CreateEntity()

	assert.Panics(t, func() { s.SetMainCameraEntity(e) })
	assert.Panics(t, func() { s.SetSkyEntity(e) })
	assert.Panics(t, func() { s.SetDDGIEntity(e) })

	s.CreateCameraComponent(e)
	s.SetMainCameraEntity(e)
	assert.Equal(t, e, s.GetMainCameraEntity())

	s.CreateDDGIComponent(e)
	s.SetDDGIEntity(e)
	s.DeleteDDGIComponent(e)
	assert.Equal(t, ecs.InvalidEntity, s.GetDDGIEntity())
}

func TestSceneWorld_LightsAreContiguous(t *testing.T) {
	s := NewSceneWorld(nil)
	var entities []ecs.Entity
	for i := 0; i < 3; i++ {
		e := s.CreateEntity()
		s.CreateLightComponent(e).SetIntensity(float32(i + 1))
		entities = append(entities, e)
	}
	s.DeleteLightComponent(entities[1])

	lights := s.GetLightComponents()
	require.Len(t, lights, 2)
	assert.Equal(t, float32(1), lights[0].Intensity())
	assert.Equal(t, float32(3), lights[1].Intensity())
	assert.Equal(t, []ecs.Entity{entities[0], entities[2]}, s.GetLightEntities())
}

func TestSceneWorld_MaterialTypes(t *testing.T) {
	s := NewSceneWorld(nil)
	require.Len(t, s.MaterialTypes(), 5)

	pbr := s.PBRMaterialType()
	assert.Equal(t, "WorldProgram", pbr.ProgramName())
	assert.False(t, pbr.Schema().IsDirty())
	// four texture sets of one feature plus the two-feature sky set
	assert.Len(t, pbr.Schema().GetAllFeatureCombines(), 48)
	assert.Len(t, s.TerrainMaterialType().Schema().GetAllFeatureCombines(), 1)
}

func TestSceneWorld_AssignMaterialType(t *testing.T) {
	s := NewSceneWorld(nil)
	a := s.CreateEntity()
	b := s.CreateEntity()
	s.CreateMaterialComponent(a, nil)
	s.CreateMaterialComponent(b, s.CelluloidMaterialType())

	assert.Equal(t, s.PBRMaterialType(), s.GetMaterialComponent(a).MaterialType())
	assert.Equal(t, []ecs.Entity{a}, s.GetMaterialTypeEntities(s.PBRMaterialType()))

	require.NoError(t, s.AssignMaterialType(a, s.CelluloidMaterialType()))
	assert.Empty(t, s.GetMaterialTypeEntities(s.PBRMaterialType()))
	assert.Equal(t, []ecs.Entity{a, b}, s.RendererAssignments()[s.CelluloidMaterialType()])

	assert.Error(t, s.AssignMaterialType(s.CreateEntity(), s.PBRMaterialType()))
	foreign := NewMaterialType("Foreign", "ForeignProgram", nil, shader.NewShaderSchema(nil))
	assert.Error(t, s.AssignMaterialType(a, foreign))
}

func TestSceneWorld_MaterialFeaturesCombine(t *testing.T) {
	s := NewSceneWorld(nil)
	e := s.CreateEntity()
	m := s.CreateMaterialComponent(e, nil)
	assert.Equal(t, "", m.FeaturesCombine())

	rc := gfx.NewRenderContext(gfx.NewRecordingBackend(gfx.Caps{}), resource.NewMemoryLoader(), gfx.Options{})
	tex, err := rc.CreateTexture("albedo", gfx.TextureDesc{Width: 4, Height: 4}, nil)
	require.NoError(t, err)
	m.SetTexture(TextureBaseColor, tex)

	combine := m.FeaturesCombine(s.GetSky().Type.ShaderFeature())
	assert.Equal(t, "ALBEDOMAP;IBL;", combine)
	assert.True(t, s.PBRMaterialType().Schema().IsFeatureCombineValid(combine))

	// features outside the schema are dropped from the key
	cel := s.CreateEntity()
	cm := s.CreateMaterialComponent(cel, s.CelluloidMaterialType())
	cm.SetTexture(TextureNormal, tex)
	assert.Equal(t, "", cm.FeaturesCombine())
}

func TestSceneWorld_SetParent(t *testing.T) {
	s := NewSceneWorld(nil)
	root := s.CreateEntity()
	child := s.CreateEntity()
	other := s.CreateEntity()

	s.SetParent(child, root)
	assert.Equal(t, root, s.GetHierarchyComponent(child).Parent)
	assert.Equal(t, []ecs.Entity{child}, s.GetHierarchyComponent(root).Children)

	s.SetParent(child, other)
	assert.Empty(t, s.GetHierarchyComponent(root).Children)
	assert.Equal(t, []ecs.Entity{child}, s.GetHierarchyComponent(other).Children)

	s.DeleteEntity(other)
	assert.Equal(t, ecs.InvalidEntity, s.GetHierarchyComponent(child).Parent)
	assert.Panics(t, func() { s.SetParent(root, root) })
}

func TestSceneWorld_SceneAABB(t *testing.T) {
	s := NewSceneWorld(nil)
	assert.True(t, s.SceneAABB().IsEmpty())

	e := s.CreateEntity()
	s.CreateTransformComponent(e).SetPosition(mgl32.Vec3{10, 0, 0})
	mesh := s.CreateStaticMeshComponent(e)
	mesh.AABB = AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}

	box := s.SceneAABB()
	assert.InDelta(t, 9, box.Min.X(), 1e-5)
	assert.InDelta(t, 11, box.Max.X(), 1e-5)
}

func TestSceneWorld_DestroyReleasesShadowMaps(t *testing.T) {
	s := NewSceneWorld(nil)
	r := &fbReleaser{}
	e := s.CreateEntity()
	s.CreateLightComponent(e).AddShadowMapFB(r, gfx.FrameBufferHandle{})

	s.Destroy()
	assert.Len(t, r.destroyed, 1)
	s.Destroy()
	assert.Len(t, r.destroyed, 1)
}
