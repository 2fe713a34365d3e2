package lumen

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/gekko3d/lumen/config"
	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/render"
	"github.com/gekko3d/lumen/resource"
	"github.com/gekko3d/lumen/scene"
)

var ErrNoWindow = errors.New("lumen: no window; set one with WithWindow or enable headless mode")

type Module interface {
	Install(e *Engine)
}

type EngineBuilder struct {
	config  config.Config
	window  Window
	backend gfx.Backend
	loader  resource.Loader
	modules []Module
}

func NewEngineBuilder() *EngineBuilder {
	return &EngineBuilder{config: config.Default()}
}

func (b *EngineBuilder) WithConfig(cfg config.Config) *EngineBuilder {
	b.config = cfg
	return b
}

func (b *EngineBuilder) WithWindow(w Window) *EngineBuilder {
	b.window = w
	return b
}

func (b *EngineBuilder) WithBackend(backend gfx.Backend) *EngineBuilder {
	b.backend = backend
	return b
}

func (b *EngineBuilder) WithLoader(loader resource.Loader) *EngineBuilder {
	b.loader = loader
	return b
}

func (b *EngineBuilder) UseModule(modules ...Module) *EngineBuilder {
	b.modules = append(b.modules, modules...)
	return b
}

// UsePipeline selects the pipeline preset, overriding the configured one.
func (b *EngineBuilder) UsePipeline(preset string) *EngineBuilder {
	return b.UseModule(PipelineModule{Preset: preset})
}

// Build installs the modules and brings up the render context, the scene
// world and the pipeline. Without a LoggingModule the configured logger is
// installed; without a PipelineModule the configured preset is used.
func (b *EngineBuilder) Build() (*Engine, error) {
	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		config:    cfg,
		resources: make(map[reflect.Type]any),
	}
	for _, module := range b.modules {
		module.Install(e)
	}
	if Resource[LoggerResource](e) == nil {
		LoggingModule{Prefix: cfg.Logging.Prefix, Debug: cfg.Logging.Debug}.Install(e)
	}
	if Resource[SelectedPipeline](e) == nil {
		PipelineModule{Preset: cfg.Renderer.Pipeline}.Install(e)
	}
	logger := e.Logger()

	e.window = b.window
	if e.window == nil {
		if !cfg.Window.Headless {
			return nil, ErrNoWindow
		}
		e.window = NewHeadlessWindow(cfg.Window.Width, cfg.Window.Height)
	}
	width, height := e.window.Size()
	if width <= 0 || height <= 0 || width > 0xffff || height > 0xffff {
		return nil, fmt.Errorf("lumen: window size %dx%d: %w", width, height, config.ErrInvalid)
	}

	backend := b.backend
	if backend == nil {
		logger.Infof("No backend set, recording the command stream")
		backend = gfx.NewRecordingBackend(gfx.Caps{
			HomogeneousDepth: cfg.Renderer.HomogeneousDepth,
			Compute:          true,
		})
	}
	e.backend = backend
	loader := b.loader
	if loader == nil {
		loader = resource.NewFileLoader(cfg.Resources.Root, logger)
	}

	e.ctx = gfx.NewRenderContext(backend, loader, gfx.Options{
		Logger:    logger,
		ShaderDir: cfg.Resources.ShaderDir,
		Width:     uint16(width),
		Height:    uint16(height),
	})
	e.scene = scene.NewSceneWorld(logger)
	configureCamera(e.scene.GetMainCamera(), e.ctx.Caps(), cfg.Renderer.Bloom)

	target, err := render.CreateSceneTarget(e.ctx)
	if err != nil {
		e.ctx.Shutdown()
		e.closeBackend()
		return nil, fmt.Errorf("lumen: scene target: %w", err)
	}
	e.target = target

	sel := Resource[SelectedPipeline](e)
	e.pipeline = render.NewPipeline(e.ctx, e.scene)
	for _, r := range presetPasses(e, sel.Preset) {
		e.pipeline.Add(r)
	}
	e.pipeline.Init()
	logger.Infof("Pipeline %s initialized with %d passes", sel.Preset, len(e.pipeline.Renderers()))
	return e, nil
}

func configureCamera(camera *scene.CameraComponent, caps gfx.Caps, bloom config.BloomConfig) {
	camera.SetNDCDepth(scene.NDCDepthFromHomogeneous(caps.HomogeneousDepth))
	camera.Bloom.Enable = bloom.Enable
	camera.Bloom.DownSampleTimes = bloom.DownSampleTimes
	camera.Bloom.BlurEnable = bloom.Blur
	camera.Bloom.BlurTimes = bloom.BlurTimes
	camera.Bloom.LuminanceThreshold = bloom.LuminanceThreshold
	camera.Bloom.Intensity = bloom.Intensity
}
