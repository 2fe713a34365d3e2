package render

import (
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/lumen/ecs"
	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/resource"
	"github.com/gekko3d/lumen/scene"
)

type captureLogger struct {
	warnings []string
	errors   []string
}

func (l *captureLogger) DebugEnabled() bool    { return false }
func (l *captureLogger) SetDebug(bool)         {}
func (l *captureLogger) Debugf(string, ...any) {}
func (l *captureLogger) Infof(string, ...any)  {}

func (l *captureLogger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}
func (l *captureLogger) Errorf(format string, args ...any) {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

type fixture struct {
	t       *testing.T
	backend *gfx.RecordingBackend
	loader  *resource.MemoryLoader
	logger  *captureLogger
	ctx     *gfx.RenderContext
	scene   *scene.SceneWorld
	target  *gfx.RenderTarget
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithCaps(t, gfx.Caps{HomogeneousDepth: true, Compute: true})
}

func newFixtureWithCaps(t *testing.T, caps gfx.Caps) *fixture {
	t.Helper()
	f := &fixture{
		t:       t,
		backend: gfx.NewRecordingBackend(caps),
		loader:  resource.NewMemoryLoader(),
		logger:  &captureLogger{},
	}
	f.ctx = gfx.NewRenderContext(f.backend, f.loader, gfx.Options{Logger: f.logger, Width: 64, Height: 32})
	f.scene = scene.NewSceneWorld(f.logger)

	target, err := CreateSceneTarget(f.ctx)
	require.NoError(t, err)
	f.target = target
	return f
}

// provideShaders makes a binary available for every variant of every
// program registered so far.
func (f *fixture) provideShaders() {
	variants := f.ctx.ShaderVariants()
	for _, program := range variants.Programs() {
		for _, combine := range variants.GetFeatureCombines(program) {
			for _, name := range variants.GetShaders(program) {
				f.loader.Add(f.ctx.ShaderPath(name, combine), []byte(name))
			}
		}
	}
}

// ready initializes p and provides every shader so the next Update warms
// all passes up.
func (f *fixture) ready(p *Pipeline) {
	p.Init()
	f.provideShaders()
}

func (f *fixture) box(name string, t *scene.MaterialType) ecs.Entity {
	f.t.Helper()
	e := f.scene.CreateNamedEntity(name)
	f.scene.CreateTransformComponent(e)
	mesh := f.scene.CreateStaticMeshComponent(e)
	require.NoError(f.t, CreateBoxMesh(f.ctx, mesh, mgl32.Vec3{1, 1, 1}))
	if t != nil {
		f.scene.CreateMaterialComponent(e, t)
	}
	return e
}

func (f *fixture) skyMesh() {
	f.t.Helper()
	mesh := f.scene.CreateStaticMeshComponent(f.scene.GetSkyEntity())
	require.NoError(f.t, CreateBoxMesh(f.ctx, mesh, mgl32.Vec3{1, 1, 1}))
	f.loader.Add(scene.DefaultRadiancePath, []byte("dds"))
}

func (f *fixture) light(t scene.LightType, castShadow bool) (ecs.Entity, *scene.LightComponent) {
	e := f.scene.CreateEntity()
	l := f.scene.CreateLightComponent(e)
	l.SetType(t)
	l.SetCastShadow(castShadow)
	l.SetShadowMapSize(256)
	return e, l
}

func (f *fixture) submits(view gfx.ViewID) int {
	n := 0
	for _, c := range f.backend.Filter(gfx.CmdSubmit) {
		if c.View == view {
			n++
		}
	}
	return n
}

func (f *fixture) dispatches() int {
	return f.backend.Count(gfx.CmdDispatch)
}
