package lumen

import (
	"fmt"

	"github.com/gekko3d/lumen/config"
	"github.com/gekko3d/lumen/render"
)

// SelectedPipeline records the preset the engine renders with.
type SelectedPipeline struct {
	Preset string
}

// PipelineModule selects the pass layout of the engine pipeline.
// Installing two different presets panics.
type PipelineModule struct {
	Preset string
}

func (m PipelineModule) Install(e *Engine) {
	switch m.Preset {
	case config.PipelineStandard, config.PipelineWhiteModel, config.PipelineCelluloid:
	default:
		panic(fmt.Sprintf("unknown pipeline preset %q", m.Preset))
	}
	if sel := Resource[SelectedPipeline](e); sel != nil {
		if sel.Preset == m.Preset {
			return
		}
		msg := fmt.Sprintf("Multiple pipelines installed: %s and %s", sel.Preset, m.Preset)
		e.Logger().Errorf("%s", msg)
		panic(msg)
	}
	e.AddResources(&SelectedPipeline{Preset: m.Preset})
	e.Logger().Infof("Pipeline selected: %s", m.Preset)
}

// presetPasses builds the passes of a preset in frame order. Every preset
// starts with the shadow maps and the sky and ends on the present pass.
func presetPasses(e *Engine, preset string) []render.Renderer {
	ctx, sw, target := e.ctx, e.scene, e.target

	sky := render.NewSkyboxRenderer(ctx, sw, target)
	sky.ClearColor = e.config.Renderer.ClearColor

	passes := []render.Renderer{render.NewShadowMapRenderer(ctx, sw), sky}
	switch preset {
	case config.PipelineWhiteModel:
		passes = append(passes,
			render.NewWhiteModelRenderer(ctx, sw, target),
			render.NewAABBRenderer(ctx, sw, target, render.AABBSelected),
		)
	case config.PipelineCelluloid:
		passes = append(passes,
			render.NewBlendShapeRenderer(ctx, sw, target),
			render.NewCelluloidRenderer(ctx, sw, target),
			render.NewAnimationRenderer(ctx, sw, target),
			render.NewAABBRenderer(ctx, sw, target, render.AABBSelected),
			render.NewBloomRenderer(ctx, sw, target),
		)
	default:
		passes = append(passes,
			render.NewBlendShapeRenderer(ctx, sw, target),
			render.NewWorldRenderer(ctx, sw, target),
			render.NewTerrainRenderer(ctx, sw, target),
			render.NewCelluloidRenderer(ctx, sw, target),
			render.NewDDGIRenderer(ctx, sw, target),
			render.NewAnimationRenderer(ctx, sw, target),
			render.NewAABBRenderer(ctx, sw, target, render.AABBSelected),
			render.NewVolumeLightRenderer(ctx, sw, target),
			render.NewBloomRenderer(ctx, sw, target),
		)
	}
	return append(passes, render.NewPresentRenderer(ctx, sw, target))
}
