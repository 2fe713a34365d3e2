package render

import (
	"fmt"
	"slices"

	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/logging"
	"github.com/gekko3d/lumen/scene"
)

type LifecycleState uint8

const (
	StateUninitialized LifecycleState = iota
	StateInitialized
	StateReady
	StateClosed
)

func (s LifecycleState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("LifecycleState(%d)", uint8(s))
}

type stage struct {
	renderer Renderer
	state    LifecycleState
	skipped  bool
}

// Pipeline runs an ordered list of renderers. Init order fixes the view id
// layout: passes added first get the lower ids and execute first.
type Pipeline struct {
	ctx    *gfx.RenderContext
	scene  *scene.SceneWorld
	logger logging.Logger
	stages []*stage
	inited bool
	closed bool
}

func NewPipeline(ctx *gfx.RenderContext, sw *scene.SceneWorld) *Pipeline {
	return &Pipeline{ctx: ctx, scene: sw, logger: ctx.Logger()}
}

// Add appends r. Adding after Init or adding a second pass with the same
// name panics.
func (p *Pipeline) Add(r Renderer) *Pipeline {
	if p.inited {
		panic(fmt.Sprintf("renderer %s added after pipeline init", r.Name()))
	}
	if p.find(r.Name()) != nil {
		panic(fmt.Sprintf("renderer %s already in pipeline", r.Name()))
	}
	p.stages = append(p.stages, &stage{renderer: r})
	return p
}

func (p *Pipeline) find(name string) *stage {
	i := slices.IndexFunc(p.stages, func(s *stage) bool { return s.renderer.Name() == name })
	if i < 0 {
		return nil
	}
	return p.stages[i]
}

func (p *Pipeline) Get(name string) Renderer {
	if s := p.find(name); s != nil {
		return s.renderer
	}
	return nil
}

func (p *Pipeline) State(name string) LifecycleState {
	if s := p.find(name); s != nil {
		return s.state
	}
	return StateUninitialized
}

func (p *Pipeline) Renderers() []Renderer {
	out := make([]Renderer, len(p.stages))
	for i, s := range p.stages {
		out[i] = s.renderer
	}
	return out
}

func (p *Pipeline) Init() {
	if p.inited {
		return
	}
	p.inited = true
	for _, s := range p.stages {
		s.renderer.Init()
		s.state = StateInitialized
	}
}

// Update advances every pass one frame. Passes whose resources are missing
// stay Initialized and are skipped; a failed Warmup is retried next frame.
func (p *Pipeline) Update(dt float32) {
	if !p.inited || p.closed {
		return
	}

	camera := p.scene.GetMainCamera()
	w, h := p.ctx.BackBufferSize()
	if h > 0 {
		camera.SetAspect(float32(w) / float32(h))
	}
	camera.Build()
	view, proj := camera.GetViewMatrix(), camera.GetProjectionMatrix()

	for _, s := range p.stages {
		r := s.renderer
		if s.state == StateInitialized {
			if !r.CheckResources() {
				if !s.skipped {
					p.logger.Debugf("renderer %s skipped: resources not available", r.Name())
					s.skipped = true
				}
				continue
			}
			if err := r.Warmup(); err != nil {
				p.logger.Warnf("renderer %s warmup failed: %v", r.Name(), err)
				continue
			}
			s.state = StateReady
			p.logger.Debugf("renderer %s ready", r.Name())
		}
		if s.state != StateReady || !r.IsEnabled() {
			continue
		}
		r.UpdateView(view, proj)
		r.Render(dt)
	}
}

func (p *Pipeline) Resize(width, height uint16) error {
	return p.ctx.Resize(width, height)
}

// Close closes the passes in reverse order. Later calls do nothing.
func (p *Pipeline) Close() {
	if p.closed {
		return
	}
	p.closed = true
	for i := len(p.stages) - 1; i >= 0; i-- {
		s := p.stages[i]
		if s.state != StateUninitialized {
			s.renderer.Close()
		}
		s.state = StateClosed
	}
}
