package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lumen/ecs"
	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/logging"
	"github.com/gekko3d/lumen/scene"
)

// Renderer is one pass of the frame. The pipeline drives it through
// Init once, Warmup once CheckResources passes, then UpdateView and Render
// every frame while it is enabled.
type Renderer interface {
	Name() string
	Init()
	CheckResources() bool
	Warmup() error
	UpdateView(view, proj mgl32.Mat4)
	Render(dt float32)
	Close()

	IsEnabled() bool
	SetEnabled(enabled bool)
}

// rendererBase carries what every pass needs. Passes embed it and override
// the lifecycle methods they care about.
type rendererBase struct {
	name   string
	ctx    *gfx.RenderContext
	scene  *scene.SceneWorld
	logger logging.Logger
	target *gfx.RenderTarget

	view     gfx.ViewID
	enabled  bool
	programs []string
	uniforms []uniformDecl

	failedTextures map[string]bool
	warned         map[string]bool
}

type uniformDecl struct {
	name string
	typ  gfx.UniformType
	num  uint16
}

func newRendererBase(name string, ctx *gfx.RenderContext, sw *scene.SceneWorld, target *gfx.RenderTarget) rendererBase {
	return rendererBase{
		name:    name,
		ctx:     ctx,
		scene:   sw,
		logger:  ctx.Logger(),
		target:  target,
		view:    gfx.InvalidView,
		enabled: true,
	}
}

func (r *rendererBase) Name() string            { return r.name }
func (r *rendererBase) IsEnabled() bool         { return r.enabled }
func (r *rendererBase) SetEnabled(enabled bool) { r.enabled = enabled }
func (r *rendererBase) View() gfx.ViewID        { return r.view }

func (r *rendererBase) Init() {
	r.view = r.ctx.CreateView(r.name)
}

func (r *rendererBase) registerProgram(program string, shaders ...string) {
	r.ctx.RegisterShaderProgram(program, shaders...)
	r.programs = append(r.programs, program)
}

// registerMaterialProgram registers the uber program of t with every
// feature combine its schema produces.
func (r *rendererBase) registerMaterialProgram(t *scene.MaterialType) {
	r.ctx.RegisterUberShaderProgram(t.ProgramName(), t.Shaders(), t.Schema().GetAllFeatureCombines())
	r.programs = append(r.programs, t.ProgramName())
}

func (r *rendererBase) declareUniform(name string, typ gfx.UniformType, num uint16) {
	r.uniforms = append(r.uniforms, uniformDecl{name: name, typ: typ, num: num})
}

// CheckResources reports whether every shader binary of the pass exists.
func (r *rendererBase) CheckResources() bool {
	for _, program := range r.programs {
		if !r.ctx.CheckShaderProgram(program) {
			return false
		}
	}
	return true
}

// Warmup uploads the registered programs and creates the declared uniforms.
// Both go through the context caches, so a second call creates nothing.
func (r *rendererBase) Warmup() error {
	for _, program := range r.programs {
		if err := r.ctx.UploadShaderProgram(program); err != nil {
			return fmt.Errorf("%s: %w", r.name, err)
		}
	}
	for _, u := range r.uniforms {
		if _, err := r.ctx.CreateUniform(u.name, u.typ, u.num); err != nil {
			return fmt.Errorf("%s: %w", r.name, err)
		}
	}
	return nil
}

func (r *rendererBase) UpdateView(view, proj mgl32.Mat4) {
	r.bindViewTarget(r.view)
	r.ctx.SetViewTransform(r.view, view, proj)
}

func (r *rendererBase) Render(dt float32) {}

func (r *rendererBase) Close() {}

// bindViewTarget points view at the pass target, or the back buffer when the
// pass has none.
func (r *rendererBase) bindViewTarget(view gfx.ViewID) {
	w, h := r.targetSize()
	fb := gfx.InvalidFrameBuffer
	if r.target != nil {
		fb = r.target.FrameBuffer()
	}
	r.ctx.SetViewFrameBuffer(view, fb)
	r.ctx.SetViewRect(view, 0, 0, w, h)
}

func (r *rendererBase) targetSize() (uint16, uint16) {
	if r.target != nil {
		return r.target.Width(), r.target.Height()
	}
	return r.ctx.BackBufferSize()
}

// warnOnce logs msg the first time key is seen by this pass.
func (r *rendererBase) warnOnce(key string, format string, args ...any) {
	if r.warned[key] {
		return
	}
	if r.warned == nil {
		r.warned = make(map[string]bool)
	}
	r.warned[key] = true
	r.logger.Warnf(r.name+": "+format, args...)
}

func (r *rendererBase) program(name string) gfx.ProgramHandle {
	return r.ctx.GetShaderProgram(name, "")
}

func (r *rendererBase) camera() *scene.CameraComponent {
	return r.scene.GetMainCamera()
}

// bindMesh sets the world transform and geometry of e. It reports false
// when e has nothing to draw.
func (r *rendererBase) bindMesh(e ecs.Entity) bool {
	mesh := r.scene.GetStaticMeshComponent(e)
	if mesh == nil || !mesh.HasGeometry() {
		return false
	}
	if t := r.scene.GetTransformComponent(e); t != nil {
		r.ctx.SetTransform(t.GetWorldMatrix())
	} else {
		r.ctx.SetTransform(mgl32.Ident4())
	}
	r.ctx.SetVertexBuffer(0, mesh.VertexBuffer)
	r.ctx.SetIndexBuffer(mesh.IndexBuffer)
	return true
}

// isDelegated is true for entities drawn by the blend-shape or skinning
// passes instead of the static mesh passes.
func (r *rendererBase) isDelegated(e ecs.Entity) bool {
	return r.scene.GetBlendShapeComponent(e) != nil || r.scene.GetAnimationComponent(e) != nil
}

// isVisible culls e against the camera frustum. Meshes without bounds are
// always drawn.
func (r *rendererBase) isVisible(e ecs.Entity, frustum scene.Frustum) bool {
	mesh := r.scene.GetStaticMeshComponent(e)
	if mesh == nil || mesh.AABB.IsEmpty() {
		return true
	}
	box := mesh.AABB
	if t := r.scene.GetTransformComponent(e); t != nil {
		box = box.Transform(t.GetWorldMatrix())
	}
	return frustum.IntersectsAABB(box)
}
