package lumen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/lumen/scene"
)

const demoScene = `
camera:
  eye: [0, 4, 12]
  target: [0, 0, 0]
  fov: 50
  far: 200
sky:
  type: atmosphere
objects:
  - name: Ground
    mesh: plane
    size: [20, 0, 20]
    material: terrain
  - name: Crate
    mesh: box
    position: [0, 1, 0]
    rotation: [0, 45, 0]
    albedo: [1, 0.5, 0.2, 1]
    selected: true
  - name: Lid
    mesh: box
    size: [1, 0.1, 1]
    material: celluloid
    parent: Crate
  - mesh: box
    material: none
lights:
  - name: Sun
    type: directional
    direction: [0.3, -1, 0.2]
    cast_shadow: true
    cascades: 3
  - type: spot
    position: [0, 5, 0]
    direction: [0, -1, 0]
    outer_degree: 40
    cast_shadow: true
    shadow_map_size: 512
`

func TestParseScene(t *testing.T) {
	def, err := ParseScene([]byte(demoScene))
	require.NoError(t, err)

	require.Len(t, def.Objects, 4)
	require.Len(t, def.Lights, 2)
	assert.Equal(t, mgl32.Vec3{20, 0, 20}, def.Objects[0].Size)
	assert.Equal(t, &mgl32.Vec4{1, 0.5, 0.2, 1}, def.Objects[1].Albedo)
	assert.Nil(t, def.Objects[1].Scale)
	assert.Equal(t, &mgl32.Vec3{0, 4, 12}, def.Camera.Eye)
	assert.Equal(t, 3, def.Lights[0].Cascades)
}

func TestSceneDef_ValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"sky type", "sky: {type: starfield}"},
		{"light type", "lights: [{type: laser}]"},
		{"mesh", "objects: [{mesh: teapot}]"},
		{"material", "objects: [{mesh: box, material: glass}]"},
		{"duplicate name", "objects: [{name: A, mesh: box}, {name: A, mesh: box}]"},
		{"missing parent", "objects: [{name: A, mesh: box, parent: B}]"},
		{"self parent", "objects: [{name: A, mesh: box, parent: A}]"},
		{"clip range", "camera: {near: 10, far: 1}"},
		{"shadow map size", "lights: [{type: point, shadow_map_size: -1}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScene([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidScene)
		})
	}

	_, err := ParseScene([]byte("objects: {"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidScene)
}

func TestLoadSceneFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(demoScene), 0o644))

	def, err := LoadSceneFile(path)
	require.NoError(t, err)
	assert.Len(t, def.Objects, 4)

	_, err = LoadSceneFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSpawnScene(t *testing.T) {
	te := newTestEngine(t)
	defer te.Close()

	def, err := ParseScene([]byte(demoScene))
	require.NoError(t, err)
	spawned, err := te.SpawnScene(def)
	require.NoError(t, err)
	require.Len(t, spawned, 6)

	sw := te.SceneWorld()
	assert.Equal(t, scene.SkyTypeAtmosphericScattering, sw.GetSky().Type)
	skyMesh := sw.GetStaticMeshComponent(sw.GetSkyEntity())
	require.NotNil(t, skyMesh)
	assert.True(t, skyMesh.HasGeometry())

	ground := sw.FindEntityByName("Ground")
	crate := sw.FindEntityByName("Crate")
	lid := sw.FindEntityByName("Lid")
	assert.Equal(t, spawned[0], ground)
	assert.Same(t, sw.TerrainMaterialType(), sw.GetMaterialComponent(ground).MaterialType())
	assert.Same(t, sw.PBRMaterialType(), sw.GetMaterialComponent(crate).MaterialType())
	assert.Same(t, sw.CelluloidMaterialType(), sw.GetMaterialComponent(lid).MaterialType())
	assert.Nil(t, sw.GetMaterialComponent(spawned[3]))
	assert.Equal(t, "Object3", sw.GetNameComponent(spawned[3]).Name)

	assert.Equal(t, mgl32.Vec4{1, 0.5, 0.2, 1}, sw.GetMaterialComponent(crate).AlbedoColor)
	assert.Equal(t, crate, sw.GetSelectedEntity())
	assert.Equal(t, crate, sw.GetHierarchyComponent(lid).Parent)

	rot := sw.GetTransformComponent(crate).Rotation()
	turned := rot.Rotate(mgl32.Vec3{1, 0, 0})
	assert.InDelta(t, 0.7071, turned.X(), 1e-3)

	sun := sw.GetLightComponent(sw.FindEntityByName("Sun"))
	require.NotNil(t, sun)
	assert.Equal(t, scene.LightTypeDirectional, sun.Type())
	assert.Equal(t, uint16(te.Config().Renderer.ShadowMapSize), sun.ShadowMapSize())
	assert.Equal(t, 3, sun.CascadeNum())
	assert.InDelta(t, 1, sun.Direction().Len(), 1e-5)

	spot := sw.GetLightComponent(spawned[5])
	assert.Equal(t, "Light1", sw.GetNameComponent(spawned[5]).Name)
	assert.Equal(t, uint16(512), spot.ShadowMapSize())
	inner, outer := spot.GetInnerAndOuter()
	assert.InDelta(t, 30, inner, 1e-4)
	assert.InDelta(t, 40, outer, 1e-4)

	camera := sw.GetMainCamera()
	assert.Equal(t, mgl32.Vec3{0, 4, 12}, camera.Eye())
	assert.InDelta(t, 0, camera.LookAt().Sub(mgl32.Vec3{0, -4, -12}.Normalize()).Len(), 1e-5)
	assert.Equal(t, float32(50), camera.Fov())
	assert.Equal(t, float32(200), camera.FarPlane())
}

func TestSpawnScene_FrameAll(t *testing.T) {
	te := newTestEngine(t)
	defer te.Close()

	_, err := te.SpawnScene(&SceneDef{
		Camera:  CameraDef{FrameAll: true},
		Objects: []ObjectDef{{Mesh: "box", Position: mgl32.Vec3{50, 0, 0}}},
	})
	require.NoError(t, err)

	camera := te.SceneWorld().GetMainCamera()
	toBox := mgl32.Vec3{50, 0, 0}.Sub(camera.Eye()).Normalize()
	assert.InDelta(t, 1, toBox.Dot(camera.LookAt()), 1e-3)
}

func TestSpawnScene_SkyMeshCreatedOnce(t *testing.T) {
	te := newTestEngine(t)
	defer te.Close()

	_, err := te.SpawnScene(&SceneDef{})
	require.NoError(t, err)
	live := te.backend.LiveTotal()
	_, err = te.SpawnScene(&SceneDef{Sky: SkyDef{Type: "none"}})
	require.NoError(t, err)
	assert.Equal(t, live, te.backend.LiveTotal())
	assert.Equal(t, scene.SkyTypeNone, te.SceneWorld().GetSky().Type)
}

func TestSpawnScene_LightLimitCountsExistingLights(t *testing.T) {
	te := newTestEngine(t)
	defer te.Close()

	lights := func(n int) *SceneDef {
		def := &SceneDef{}
		for range n {
			def.Lights = append(def.Lights, LightDef{Type: "point"})
		}
		return def
	}

	_, err := te.SpawnScene(lights(scene.MaxLightCount - 2))
	require.NoError(t, err)

	spawned, err := te.SpawnScene(lights(3))
	assert.ErrorIs(t, err, ErrInvalidScene)
	assert.Empty(t, spawned)
	assert.Len(t, te.SceneWorld().GetLightEntities(), scene.MaxLightCount-2)

	_, err = te.SpawnScene(lights(2))
	require.NoError(t, err)
	assert.Len(t, te.SceneWorld().GetLightEntities(), scene.MaxLightCount)
	assert.NotPanics(t, func() { require.NoError(t, te.RunFrame()) })
}

func TestSpawnScene_EmptyMeshIsBox(t *testing.T) {
	def, err := ParseScene([]byte("objects: [{name: Crate}]"))
	require.NoError(t, err)

	te := newTestEngine(t)
	defer te.Close()
	spawned, err := te.SpawnScene(def)
	require.NoError(t, err)
	require.Len(t, spawned, 1)
	assert.True(t, te.SceneWorld().GetStaticMeshComponent(spawned[0]).HasGeometry())
}
