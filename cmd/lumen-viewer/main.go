// Command lumen-viewer loads an engine config and a scene description and
// renders the scene until the window closes.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/gekko3d/lumen"
	"github.com/gekko3d/lumen/config"
	"github.com/gekko3d/lumen/gfx/wgpu"
	"github.com/gekko3d/lumen/logging"
	"github.com/gekko3d/lumen/platform"
)

func main() {
	var (
		configPath = flag.String("config", "", "engine config file (YAML)")
		scenePath  = flag.String("scene", "", "scene description file (YAML)")
		pipeline   = flag.String("pipeline", "", "pipeline preset, overrides the config")
		headless   = flag.Bool("headless", false, "run without a window")
		frames     = flag.Int("frames", 0, "stop after this many frames in headless mode (0 = until interrupted)")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *headless {
		cfg.Window.Headless = true
	}
	if *debug {
		cfg.Logging.Debug = true
	}
	logger := logging.NewDefaultLogger(cfg.Logging.Prefix, cfg.Logging.Debug)

	builder := lumen.NewEngineBuilder().
		WithConfig(cfg).
		UseModule(lumen.LoggingModule{Logger: logger}, lumen.TimeModule{})
	if *pipeline != "" {
		builder.UsePipeline(*pipeline)
	}

	if cfg.Window.Headless {
		window := lumen.NewHeadlessWindow(cfg.Window.Width, cfg.Window.Height)
		window.MaxFrames = *frames
		builder.WithWindow(window)
	} else {
		window, err := platform.NewGlfwWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, logger)
		if err != nil {
			log.Fatalf("Failed to open window: %v", err)
		}
		window.Center()
		backend, err := wgpu.NewBackend(window.Handle(), logger)
		if err != nil {
			window.Close()
			log.Fatalf("Failed to create WebGPU backend: %v", err)
		}
		builder.WithWindow(window).WithBackend(backend)
	}

	engine, err := builder.Build()
	if err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}
	defer engine.Close()

	if *scenePath != "" {
		def, err := lumen.LoadSceneFile(*scenePath)
		if err != nil {
			logger.Errorf("Failed to load scene: %v", err)
			return
		}
		if _, err := engine.SpawnScene(def); err != nil {
			logger.Errorf("Failed to spawn scene: %v", err)
			return
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Errorf("Frame loop stopped: %v", err)
		return
	}
	logger.Infof("Rendered %d frames", engine.Frames())
}
