// Package lumen wires the scene world, the render context and a render
// pipeline into a frame loop driven by a Window.
package lumen

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/gekko3d/lumen/config"
	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/logging"
	"github.com/gekko3d/lumen/render"
	"github.com/gekko3d/lumen/scene"
)

// fixedFrameTime is the delta time used when no TimeModule is installed.
const fixedFrameTime = float32(1.0 / 60.0)

var ErrClosed = errors.New("lumen: engine closed")

// System runs once per frame before the pipeline renders.
type System func(e *Engine)

// Engine is the explicit context object of a running application. It owns
// the window, the render context, the scene world and the pipeline.
type Engine struct {
	config    config.Config
	resources map[reflect.Type]any
	systems   []System

	window   Window
	backend  gfx.Backend
	ctx      *gfx.RenderContext
	scene    *scene.SceneWorld
	target   *gfx.RenderTarget
	pipeline *render.Pipeline

	frames uint64
	closed bool
}

func (e *Engine) Config() config.Config             { return e.config }
func (e *Engine) Window() Window                    { return e.window }
func (e *Engine) RenderContext() *gfx.RenderContext { return e.ctx }
func (e *Engine) SceneWorld() *scene.SceneWorld     { return e.scene }
func (e *Engine) SceneTarget() *gfx.RenderTarget    { return e.target }
func (e *Engine) Pipeline() *render.Pipeline        { return e.pipeline }
func (e *Engine) Frames() uint64                    { return e.frames }

// AddResources stores engine-wide singletons keyed by their pointer type.
func (e *Engine) AddResources(resources ...any) *Engine {
	for _, resource := range resources {
		t := reflect.TypeOf(resource)
		if t == nil || t.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("resource %v must be a pointer", t))
		}
		if _, ok := e.resources[t.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", t))
		}
		e.resources[t.Elem()] = resource
	}
	return e
}

// Resource returns the resource of type *T, or nil.
func Resource[T any](e *Engine) *T {
	r, ok := e.resources[reflect.TypeFor[T]()]
	if !ok {
		return nil
	}
	return r.(*T)
}

func (e *Engine) UseSystem(systems ...System) *Engine {
	e.systems = append(e.systems, systems...)
	return e
}

// Logger returns the installed logger if present, otherwise a no-op logger.
// Safe to call at any time; never returns nil.
func (e *Engine) Logger() logging.Logger {
	if e == nil {
		return logging.NewNopLogger()
	}
	if r := Resource[LoggerResource](e); r != nil {
		return logging.OrNop(r.Logger)
	}
	return logging.NewNopLogger()
}

func (e *Engine) frameTime() float32 {
	if c := Resource[FrameClock](e); c != nil {
		return float32(c.Delta.Seconds())
	}
	return fixedFrameTime
}

// RunFrame polls the window, runs the systems, follows window resizes and
// renders one frame. A minimized window skips rendering.
func (e *Engine) RunFrame() error {
	if e.closed {
		return ErrClosed
	}
	e.window.PollEvents()
	for _, system := range e.systems {
		system(e)
	}

	width, height := e.window.Size()
	if width <= 0 || height <= 0 {
		return nil
	}
	if err := e.followWindowSize(width, height); err != nil {
		return err
	}

	e.pipeline.Update(e.frameTime())
	e.ctx.Frame()
	e.frames++
	return nil
}

func (e *Engine) closeBackend() {
	if c, ok := e.backend.(gfx.Closer); ok {
		c.Close()
	}
}

func (e *Engine) followWindowSize(width, height int) error {
	w, h := e.ctx.BackBufferSize()
	if int(w) == width && int(h) == height {
		return nil
	}
	if width > 0xffff || height > 0xffff {
		return fmt.Errorf("lumen: window size %dx%d exceeds 65535", width, height)
	}
	e.Logger().Debugf("resize %dx%d -> %dx%d", w, h, width, height)
	if err := e.pipeline.Resize(uint16(width), uint16(height)); err != nil {
		return fmt.Errorf("lumen: resize %dx%d: %w", width, height, err)
	}
	return nil
}

// Run renders frames until the window asks to close or ctx is cancelled.
// It does not close the engine.
func (e *Engine) Run(ctx context.Context) error {
	e.Logger().Infof("running %s pipeline", Resource[SelectedPipeline](e).Preset)
	for !e.window.ShouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := e.RunFrame(); err != nil {
			return err
		}
	}
	return nil
}

// Close tears down the pipeline, then the scene world, then every GPU
// resource still alive, then the backend device, and finally the window.
// Later calls do nothing.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true

	e.pipeline.Close()
	e.scene.Destroy()
	e.ctx.Shutdown()
	e.closeBackend()
	e.window.Close()
	e.Logger().Infof("engine closed after %d frames", e.frames)
}
