package render

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/lumen/gfx"
)

type stubRenderer struct {
	name      string
	log       *[]string
	resources bool
	warmupErr error
	enabled   bool
	renders   int
}

func newStub(name string, log *[]string) *stubRenderer {
	return &stubRenderer{name: name, log: log, resources: true, enabled: true}
}

func (s *stubRenderer) Name() string { return s.name }
func (s *stubRenderer) Init()        { *s.log = append(*s.log, s.name+".Init") }
func (s *stubRenderer) CheckResources() bool {
	return s.resources
}
func (s *stubRenderer) Warmup() error {
	*s.log = append(*s.log, s.name+".Warmup")
	return s.warmupErr
}
func (s *stubRenderer) UpdateView(view, proj mgl32.Mat4) {}
func (s *stubRenderer) Render(dt float32)                { s.renders++ }
func (s *stubRenderer) Close()                           { *s.log = append(*s.log, s.name+".Close") }
func (s *stubRenderer) IsEnabled() bool                  { return s.enabled }
func (s *stubRenderer) SetEnabled(enabled bool)          { s.enabled = enabled }

func TestPipeline_LifecycleOrder(t *testing.T) {
	f := newFixture(t)
	var log []string
	a, b := newStub("A", &log), newStub("B", &log)

	p := NewPipeline(f.ctx, f.scene).Add(a).Add(b)
	assert.Equal(t, StateUninitialized, p.State("A"))

	p.Init()
	assert.Equal(t, StateInitialized, p.State("A"))
	p.Update(0.016)
	p.Update(0.016)
	assert.Equal(t, StateReady, p.State("B"))
	assert.Equal(t, 2, a.renders)

	p.Close()
	p.Close()
	assert.Equal(t, []string{"A.Init", "B.Init", "A.Warmup", "B.Warmup", "B.Close", "A.Close"}, log)
	assert.Equal(t, StateClosed, p.State("A"))

	p.Update(0.016)
	assert.Equal(t, 2, a.renders)
}

func TestPipeline_AddRules(t *testing.T) {
	f := newFixture(t)
	var log []string
	p := NewPipeline(f.ctx, f.scene).Add(newStub("A", &log))

	assert.Panics(t, func() { p.Add(newStub("A", &log)) })
	p.Init()
	assert.Panics(t, func() { p.Add(newStub("B", &log)) })

	assert.NotNil(t, p.Get("A"))
	assert.Nil(t, p.Get("B"))
	assert.Len(t, p.Renderers(), 1)
}

func TestPipeline_SkipsUntilResourcesExist(t *testing.T) {
	f := newFixture(t)
	var log []string
	s := newStub("A", &log)
	s.resources = false

	p := NewPipeline(f.ctx, f.scene).Add(s)
	p.Init()
	p.Update(0.016)
	p.Update(0.016)
	assert.Equal(t, StateInitialized, p.State("A"))
	assert.Zero(t, s.renders)

	s.resources = true
	p.Update(0.016)
	assert.Equal(t, StateReady, p.State("A"))
	assert.Equal(t, 1, s.renders)
}

func TestPipeline_RetriesFailedWarmup(t *testing.T) {
	f := newFixture(t)
	var log []string
	s := newStub("A", &log)
	s.warmupErr = errors.New("boom")

	p := NewPipeline(f.ctx, f.scene).Add(s)
	p.Init()
	p.Update(0.016)
	assert.Equal(t, StateInitialized, p.State("A"))
	require.NotEmpty(t, f.logger.warnings)

	s.warmupErr = nil
	p.Update(0.016)
	assert.Equal(t, StateReady, p.State("A"))
	assert.Equal(t, []string{"A.Init", "A.Warmup", "A.Warmup"}, log)
}

func TestPipeline_DisabledRendererDoesNotRender(t *testing.T) {
	f := newFixture(t)
	var log []string
	s := newStub("A", &log)
	p := NewPipeline(f.ctx, f.scene).Add(s)
	p.Init()

	s.SetEnabled(false)
	p.Update(0.016)
	assert.Equal(t, StateReady, p.State("A"))
	assert.Zero(t, s.renders)
}

func TestPipeline_SetsCameraAspectFromBackBuffer(t *testing.T) {
	f := newFixture(t)
	p := NewPipeline(f.ctx, f.scene)
	p.Init()
	p.Update(0)
	assert.InDelta(t, 2.0, f.scene.GetMainCamera().Aspect(), 1e-6)

	require.NoError(t, p.Resize(100, 50))
	assert.Equal(t, uint16(100), f.target.Width())
	assert.Equal(t, uint16(50), f.target.Height())
}

func TestPipeline_SkyboxSkippedWithoutShaders(t *testing.T) {
	f := newFixture(t)
	f.skyMesh()
	sky := NewSkyboxRenderer(f.ctx, f.scene, f.target)
	p := NewPipeline(f.ctx, f.scene).Add(sky)
	p.Init()

	p.Update(0.016)
	assert.Equal(t, StateInitialized, p.State(sky.Name()))
	assert.Zero(t, f.backend.Count(gfx.CmdSubmit))

	f.provideShaders()
	p.Update(0.016)
	assert.Equal(t, StateReady, p.State(sky.Name()))
	assert.Equal(t, 1, f.submits(sky.View()))
}

// standardPasses builds every scene pass in frame order.
func standardPasses(f *fixture) []Renderer {
	return []Renderer{
		NewShadowMapRenderer(f.ctx, f.scene),
		NewSkyboxRenderer(f.ctx, f.scene, f.target),
		NewBlendShapeRenderer(f.ctx, f.scene, f.target),
		NewWorldRenderer(f.ctx, f.scene, f.target),
		NewTerrainRenderer(f.ctx, f.scene, f.target),
		NewCelluloidRenderer(f.ctx, f.scene, f.target),
		NewDDGIRenderer(f.ctx, f.scene, f.target),
		NewAnimationRenderer(f.ctx, f.scene, f.target),
		NewWhiteModelRenderer(f.ctx, f.scene, f.target),
		NewAABBRenderer(f.ctx, f.scene, f.target, AABBAll),
		NewAABBRenderer(f.ctx, f.scene, f.target, AABBSelected),
		NewVolumeLightRenderer(f.ctx, f.scene, f.target),
		NewBloomRenderer(f.ctx, f.scene, f.target),
		NewPresentRenderer(f.ctx, f.scene, f.target),
	}
}

func TestPipeline_WarmupIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.skyMesh()
	f.box("Box", f.scene.PBRMaterialType())

	passes := standardPasses(f)
	p := NewPipeline(f.ctx, f.scene)
	for _, r := range passes {
		p.Add(r)
	}
	f.ready(p)
	p.Update(0.016)
	for _, r := range passes {
		if r.Name() == "DDGIRenderer" {
			continue
		}
		assert.Equal(t, StateReady, p.State(r.Name()), r.Name())
	}

	live := f.backend.LiveTotal()
	creates := f.backend.Count(gfx.CmdCreateProgram) + f.backend.Count(gfx.CmdCreateUniform)
	for _, r := range passes {
		if p.State(r.Name()) == StateReady {
			require.NoError(t, r.Warmup(), r.Name())
		}
	}
	assert.Equal(t, live, f.backend.LiveTotal())
	assert.Equal(t, creates, f.backend.Count(gfx.CmdCreateProgram)+f.backend.Count(gfx.CmdCreateUniform))

	p.Close()
}
