package lumen

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/gekko3d/lumen/ecs"
	"github.com/gekko3d/lumen/render"
	"github.com/gekko3d/lumen/scene"
)

var ErrInvalidScene = errors.New("invalid scene")

// SceneDef defines the initial state of a scene.
type SceneDef struct {
	Camera  CameraDef   `yaml:"camera"`
	Sky     SkyDef      `yaml:"sky"`
	Lights  []LightDef  `yaml:"lights"`
	Objects []ObjectDef `yaml:"objects"`
}

// CameraDef places the main camera. Zero fields keep the camera defaults.
type CameraDef struct {
	Eye    *mgl32.Vec3 `yaml:"eye"`
	Target *mgl32.Vec3 `yaml:"target"`
	Fov    float32     `yaml:"fov"`
	Near   float32     `yaml:"near"`
	Far    float32     `yaml:"far"`

	// FrameAll moves the eye to frame every spawned mesh.
	FrameAll bool `yaml:"frame_all"`
}

type SkyDef struct {
	Type       string `yaml:"type"` // "skybox", "atmosphere", "none"
	Radiance   string `yaml:"radiance"`
	Irradiance string `yaml:"irradiance"`
}

// LightDef defines a light instantiation.
type LightDef struct {
	Name        string     `yaml:"name"`
	Type        string     `yaml:"type"`
	Position    mgl32.Vec3 `yaml:"position"`
	Direction   mgl32.Vec3 `yaml:"direction"`
	Color       mgl32.Vec3 `yaml:"color"`
	Intensity   float32    `yaml:"intensity"`
	Range       float32    `yaml:"range"`
	Radius      float32    `yaml:"radius"`
	Width       float32    `yaml:"width"`
	Height      float32    `yaml:"height"`
	InnerDegree float32    `yaml:"inner_degree"`
	OuterDegree float32    `yaml:"outer_degree"`

	CastShadow    bool    `yaml:"cast_shadow"`
	CastVolume    bool    `yaml:"cast_volume"`
	ShadowBias    float32 `yaml:"shadow_bias"`
	ShadowMapSize int     `yaml:"shadow_map_size"`
	Cascades      int     `yaml:"cascades"`
}

// ObjectDef defines a primitive mesh instantiation.
type ObjectDef struct {
	Name     string      `yaml:"name"`
	Mesh     string      `yaml:"mesh"` // "box" (default), "plane"
	Size     mgl32.Vec3  `yaml:"size"` // half extents; a plane uses x and z
	Position mgl32.Vec3  `yaml:"position"`
	Rotation mgl32.Vec3  `yaml:"rotation"` // euler angles in degrees
	Scale    *mgl32.Vec3 `yaml:"scale"`
	Material string      `yaml:"material"`
	Albedo   *mgl32.Vec4 `yaml:"albedo"`
	Parent   string      `yaml:"parent"`
	Selected bool        `yaml:"selected"`
}

var skyTypes = map[string]scene.SkyType{
	"skybox":     scene.SkyTypeSkyBox,
	"atmosphere": scene.SkyTypeAtmosphericScattering,
	"none":       scene.SkyTypeNone,
}

var lightTypes = map[string]scene.LightType{
	"point":       scene.LightTypePoint,
	"directional": scene.LightTypeDirectional,
	"spot":        scene.LightTypeSpot,
	"sphere":      scene.LightTypeSphere,
	"disk":        scene.LightTypeDisk,
	"rectangle":   scene.LightTypeRectangle,
	"tube":        scene.LightTypeTube,
}

// materialNames are the accepted object material names; empty means PBR.
var materialNames = []string{"", "pbr", "celluloid", "terrain", "ddgi", "none"}

func materialTypeByName(sw *scene.SceneWorld, name string) *scene.MaterialType {
	switch strings.ToLower(name) {
	case "", "pbr":
		return sw.PBRMaterialType()
	case "celluloid":
		return sw.CelluloidMaterialType()
	case "terrain":
		return sw.TerrainMaterialType()
	case "ddgi":
		return sw.DDGIMaterialType()
	}
	return nil
}

func ParseScene(data []byte) (*SceneDef, error) {
	var def SceneDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("scene: unmarshal: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

func LoadSceneFile(path string) (*SceneDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: load %s: %w", path, err)
	}
	def, err := ParseScene(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Validate checks every name in the description. Material names are
// checked against the built-in material types.
func (d *SceneDef) Validate() error {
	var errs []error
	if d.Sky.Type != "" {
		if _, ok := skyTypes[d.Sky.Type]; !ok {
			errs = append(errs, fmt.Errorf("sky type %q", d.Sky.Type))
		}
	}
	if d.Camera.Near < 0 || d.Camera.Far < 0 || (d.Camera.Far > 0 && d.Camera.Near >= d.Camera.Far) {
		errs = append(errs, fmt.Errorf("camera clip range %g..%g", d.Camera.Near, d.Camera.Far))
	}
	if len(d.Lights) > scene.MaxLightCount {
		errs = append(errs, fmt.Errorf("%d lights, at most %d", len(d.Lights), scene.MaxLightCount))
	}
	for i, l := range d.Lights {
		if _, ok := lightTypes[l.Type]; !ok {
			errs = append(errs, fmt.Errorf("light %d: type %q", i, l.Type))
		}
		if l.ShadowMapSize < 0 || l.ShadowMapSize > 0xffff {
			errs = append(errs, fmt.Errorf("light %d: shadow map size %d", i, l.ShadowMapSize))
		}
	}

	names := make(map[string]bool)
	for i, o := range d.Objects {
		if o.Mesh != "" && o.Mesh != "box" && o.Mesh != "plane" {
			errs = append(errs, fmt.Errorf("object %d: mesh %q", i, o.Mesh))
		}
		if !slices.Contains(materialNames, strings.ToLower(o.Material)) {
			errs = append(errs, fmt.Errorf("object %d: material %q", i, o.Material))
		}
		if o.Name != "" {
			if names[o.Name] {
				errs = append(errs, fmt.Errorf("object %d: duplicate name %q", i, o.Name))
			}
			names[o.Name] = true
		}
	}
	for i, o := range d.Objects {
		if o.Parent != "" && (!names[o.Parent] || o.Parent == o.Name) {
			errs = append(errs, fmt.Errorf("object %d: parent %q", i, o.Parent))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("scene: %w: %w", ErrInvalidScene, errors.Join(errs...))
	}
	return nil
}

// SpawnScene applies the camera and sky settings and creates the objects
// and lights of def. It returns the created entities, objects first.
// Lights already in the world count against scene.MaxLightCount.
func (e *Engine) SpawnScene(def *SceneDef) ([]ecs.Entity, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	sw := e.scene
	if existing := len(sw.GetLightEntities()); existing+len(def.Lights) > scene.MaxLightCount {
		return nil, fmt.Errorf("scene: %w: %d lights on top of %d, at most %d",
			ErrInvalidScene, len(def.Lights), existing, scene.MaxLightCount)
	}

	if err := e.spawnSky(def.Sky); err != nil {
		return nil, err
	}

	var spawned []ecs.Entity
	byName := make(map[string]ecs.Entity)
	for i, obj := range def.Objects {
		ent, err := e.spawnObject(i, obj)
		if err != nil {
			return spawned, err
		}
		if obj.Name != "" {
			byName[obj.Name] = ent
		}
		spawned = append(spawned, ent)
	}
	for i, obj := range def.Objects {
		if obj.Parent != "" {
			sw.SetParent(spawned[i], byName[obj.Parent])
		}
	}

	for i, l := range def.Lights {
		spawned = append(spawned, e.spawnLight(i, l))
	}

	e.placeCamera(def.Camera)
	e.Logger().Infof("Spawned %d objects and %d lights", len(def.Objects), len(def.Lights))
	return spawned, nil
}

func (e *Engine) spawnSky(def SkyDef) error {
	sw := e.scene
	sky := sw.GetSky()
	if def.Type != "" {
		sky.Type = skyTypes[def.Type]
	}
	if def.Radiance != "" {
		sky.RadiancePath = def.Radiance
	}
	if def.Irradiance != "" {
		sky.IrradiancePath = def.Irradiance
	}

	mesh := sw.GetStaticMeshComponent(sw.GetSkyEntity())
	if mesh == nil {
		mesh = sw.CreateStaticMeshComponent(sw.GetSkyEntity())
	}
	if mesh.HasGeometry() {
		return nil
	}
	if err := render.CreateBoxMesh(e.ctx, mesh, mgl32.Vec3{1, 1, 1}); err != nil {
		return fmt.Errorf("scene: sky mesh: %w", err)
	}
	return nil
}

func (e *Engine) spawnObject(i int, def ObjectDef) (ecs.Entity, error) {
	sw := e.scene
	name := def.Name
	if name == "" {
		name = fmt.Sprintf("Object%d", i)
	}
	ent := sw.CreateNamedEntity(name)

	tr := sw.CreateTransformComponent(ent)
	tr.SetPosition(def.Position)
	tr.SetRotation(mgl32.AnglesToQuat(
		mgl32.DegToRad(def.Rotation.X()),
		mgl32.DegToRad(def.Rotation.Y()),
		mgl32.DegToRad(def.Rotation.Z()),
		mgl32.XYZ,
	))
	if def.Scale != nil {
		tr.SetScale(*def.Scale)
	}

	size := def.Size
	if size == (mgl32.Vec3{}) {
		size = mgl32.Vec3{1, 1, 1}
	}
	mesh := sw.CreateStaticMeshComponent(ent)
	var err error
	switch def.Mesh {
	case "plane":
		err = render.CreatePlaneMesh(e.ctx, mesh, size.X(), size.Z())
	default:
		err = render.CreateBoxMesh(e.ctx, mesh, size)
	}
	if err != nil {
		return ent, fmt.Errorf("scene: object %s: %w", name, err)
	}

	if t := materialTypeByName(sw, def.Material); t != nil {
		m := sw.CreateMaterialComponent(ent, t)
		if def.Albedo != nil {
			m.AlbedoColor = *def.Albedo
		}
	}
	if def.Selected {
		sw.SetSelectedEntity(ent)
	}
	return ent, nil
}

func (e *Engine) spawnLight(i int, def LightDef) ecs.Entity {
	sw := e.scene
	name := def.Name
	if name == "" {
		name = fmt.Sprintf("Light%d", i)
	}
	ent := sw.CreateNamedEntity(name)

	l := sw.CreateLightComponent(ent)
	l.SetType(lightTypes[def.Type])
	l.SetPosition(def.Position)
	l.SetDirection(def.Direction)
	if def.Color != (mgl32.Vec3{}) {
		l.SetColor(def.Color)
	}
	if def.Intensity > 0 {
		l.SetIntensity(def.Intensity)
	}
	if def.Range > 0 {
		l.SetRange(def.Range)
	}
	l.SetRadius(def.Radius)
	l.SetWidth(def.Width)
	l.SetHeight(def.Height)
	switch {
	case def.InnerDegree > 0 && def.OuterDegree > 0:
		l.SetInnerAndOuter(def.InnerDegree, def.OuterDegree)
	case def.InnerDegree > 0:
		l.SetInnerDegree(def.InnerDegree)
	case def.OuterDegree > 0:
		l.SetOuterDegree(def.OuterDegree)
	}

	l.SetCastShadow(def.CastShadow)
	l.SetCastVolume(def.CastVolume)
	if def.ShadowBias > 0 {
		l.SetShadowBias(def.ShadowBias)
	}
	size := def.ShadowMapSize
	if size == 0 {
		size = e.config.Renderer.ShadowMapSize
	}
	l.SetShadowMapSize(uint16(size))
	if def.Cascades > 0 {
		l.SetCascadeNum(def.Cascades)
	}
	return ent
}

func (e *Engine) placeCamera(def CameraDef) {
	camera := e.scene.GetMainCamera()
	if def.Fov > 0 {
		camera.SetFov(def.Fov)
	}
	if def.Near > 0 {
		camera.SetNearPlane(def.Near)
	}
	if def.Far > 0 {
		camera.SetFarPlane(def.Far)
	}
	if def.Eye != nil {
		camera.SetEye(*def.Eye)
	}
	if def.Target != nil {
		camera.SetLookAt(def.Target.Sub(camera.Eye()))
	}
	if def.FrameAll {
		camera.FrameAll(e.scene.SceneAABB())
	}
}
