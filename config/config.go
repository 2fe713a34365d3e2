// Package config holds the engine settings read from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Pipeline presets understood by the engine.
const (
	PipelineStandard   = "standard"
	PipelineWhiteModel = "whitemodel"
	PipelineCelluloid  = "celluloid"
)

var pipelines = []string{PipelineStandard, PipelineWhiteModel, PipelineCelluloid}

type Config struct {
	Window    WindowConfig   `yaml:"window"`
	Logging   LoggingConfig  `yaml:"logging"`
	Resources ResourceConfig `yaml:"resources"`
	Renderer  RendererConfig `yaml:"renderer"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`

	// Headless runs without a window on the recording backend.
	Headless bool `yaml:"headless"`
}

type LoggingConfig struct {
	Prefix string `yaml:"prefix"`
	Debug  bool   `yaml:"debug"`
}

type ResourceConfig struct {
	Root      string `yaml:"root"`
	ShaderDir string `yaml:"shader_dir"`
}

type RendererConfig struct {
	Pipeline         string      `yaml:"pipeline"`
	ShadowMapSize    int         `yaml:"shadow_map_size"`
	HomogeneousDepth bool        `yaml:"homogeneous_depth"`
	ClearColor       uint32      `yaml:"clear_color"`
	Bloom            BloomConfig `yaml:"bloom"`
}

type BloomConfig struct {
	Enable             bool    `yaml:"enable"`
	DownSampleTimes    int     `yaml:"downsample_times"`
	Blur               bool    `yaml:"blur"`
	BlurTimes          int     `yaml:"blur_times"`
	LuminanceThreshold float32 `yaml:"luminance_threshold"`
	Intensity          float32 `yaml:"intensity"`
}

func Default() Config {
	return Config{
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "Lumen",
		},
		Logging: LoggingConfig{
			Prefix: "lumen",
		},
		Resources: ResourceConfig{
			Root:      "resources",
			ShaderDir: "Shaders/spirv",
		},
		Renderer: RendererConfig{
			Pipeline:         PipelineStandard,
			ShadowMapSize:    1024,
			HomogeneousDepth: false,
			ClearColor:       0x303030ff,
			Bloom: BloomConfig{
				Enable:             true,
				DownSampleTimes:    4,
				BlurTimes:          2,
				LuminanceThreshold: 1,
				Intensity:          1,
			},
		},
	}
}

// Parse overlays data on top of the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

var ErrInvalid = errors.New("invalid config")

func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Window.Width > 0xffff || c.Window.Height > 0xffff {
		errs = append(errs, fmt.Errorf("window size %dx%d exceeds 65535", c.Window.Width, c.Window.Height))
	}
	if c.Renderer.ShadowMapSize <= 0 || c.Renderer.ShadowMapSize > 0xffff {
		errs = append(errs, fmt.Errorf("shadow map size %d", c.Renderer.ShadowMapSize))
	}
	if !slices.Contains(pipelines, c.Renderer.Pipeline) {
		errs = append(errs, fmt.Errorf("unknown pipeline %q, want one of %v", c.Renderer.Pipeline, pipelines))
	}
	if c.Renderer.Bloom.DownSampleTimes < 0 || c.Renderer.Bloom.BlurTimes < 0 {
		errs = append(errs, fmt.Errorf("negative bloom pass count"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
