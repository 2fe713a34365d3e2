package render

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gekko3d/lumen/ecs"
	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/scene"
)

const (
	uVolumeOrigin       = "u_volumeOrigin"
	uVolumeProbeSpacing = "u_volumeProbeSpacing"
	uVolumeProbeCounts  = "u_volumeProbeCounts"
	uVolumeBias         = "u_ambientNormalViewBias"

	stageDDGI uint8 = 8
)

type ddgiTextureInfo struct {
	sampler       string
	grid          uint32
	format        gputypes.TextureFormat
	bytesPerTexel uint32
}

var ddgiTextures = [scene.DDGITextureCount]ddgiTextureInfo{
	scene.DDGIClassification: {"s_texClassification", 1, gputypes.TextureFormatR8Unorm, 1},
	scene.DDGIDistance:       {"s_texDistance", 16, gputypes.TextureFormatRG32Float, 8},
	scene.DDGIIrradiance:     {"s_texIrradiance", 8, gputypes.TextureFormatRGBA16Float, 8},
	scene.DDGIRelocation:     {"s_texRelocation", 1, gputypes.TextureFormatRGBA16Float, 8},
}

// DDGITextureSize is the size of a probe texture: probes of one Y-Z plane
// side by side, one row of planes per X, each probe a grid of texels.
// Grids whose texture would exceed 65535 texels on a side are rejected.
func DDGITextureSize(kind scene.DDGITexture, counts [3]uint32) (uint16, uint16, error) {
	grid := uint64(ddgiTextures[kind].grid)
	w := uint64(counts[1]) * uint64(counts[2]) * grid
	h := uint64(counts[0]) * grid
	if w > math.MaxUint16 || h > math.MaxUint16 {
		return 0, 0, fmt.Errorf("probe grid %v needs a %dx%d texture, at most %d per side", counts, w, h, math.MaxUint16)
	}
	return uint16(w), uint16(h), nil
}

// DDGIRenderer draws DDGI materials lit by the probe volume of the scene's
// DDGI entity. It stays idle until the scene has one.
type DDGIRenderer struct {
	rendererBase
}

func NewDDGIRenderer(ctx *gfx.RenderContext, sw *scene.SceneWorld, target *gfx.RenderTarget) *DDGIRenderer {
	return &DDGIRenderer{rendererBase: newRendererBase("DDGIRenderer", ctx, sw, target)}
}

func (r *DDGIRenderer) Init() {
	r.rendererBase.Init()
	r.registerMaterialProgram(r.scene.DDGIMaterialType())
	r.declareMaterialUniforms()
	createLightUniforms(&r.rendererBase)
	for _, info := range ddgiTextures {
		r.declareUniform(info.sampler, gfx.UniformSampler, 1)
	}
	for _, name := range []string{uVolumeOrigin, uVolumeProbeSpacing, uVolumeProbeCounts, uVolumeBias} {
		r.declareUniform(name, gfx.UniformVec4, 1)
	}
}

func (r *DDGIRenderer) volume() *scene.DDGIComponent {
	e := r.scene.GetDDGIEntity()
	if e == ecs.InvalidEntity {
		return nil
	}
	return r.scene.GetDDGIComponent(e)
}

func (r *DDGIRenderer) CheckResources() bool {
	return r.volume() != nil && r.rendererBase.CheckResources()
}

func (r *DDGIRenderer) Warmup() error {
	if err := r.rendererBase.Warmup(); err != nil {
		return err
	}
	if d := r.volume(); d != nil {
		r.loadProbeTextures(d)
	}
	return nil
}

// loadProbeTextures uploads the raw probe data. Missing or short data is
// reported and the texture left unbound.
func (r *DDGIRenderer) loadProbeTextures(d *scene.DDGIComponent) {
	for i, info := range ddgiTextures {
		kind := scene.DDGITexture(i)
		if r.ctx.IsTextureValid(d.Textures[kind]) {
			continue
		}
		path := d.DataPaths[kind]
		w, h, err := DDGITextureSize(kind, d.ProbeCount)
		if err != nil {
			r.warnOnce(path, "probe texture %s: %v", path, err)
			continue
		}
		want := int(w) * int(h) * int(info.bytesPerTexel)

		data := r.ctx.Loader().Load(path)
		if len(data) != want {
			r.warnOnce(path, "probe data %q has %d bytes, want %d", path, len(data), want)
			continue
		}
		tex, err := r.ctx.CreateTexture(path, gfx.TextureDesc{
			Width:   w,
			Height:  h,
			Format:  info.format,
			Usage:   gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
			Sampler: gfx.SamplerClamp | gfx.SamplerPoint,
		}, data)
		if err != nil {
			r.warnOnce(path, "%v", fmt.Errorf("probe texture %s: %w", path, err))
			continue
		}
		d.Textures[kind] = tex
	}
}

func (r *DDGIRenderer) Render(dt float32) {
	d := r.volume()
	if d == nil {
		return
	}
	mt := r.scene.DDGIMaterialType()

	accept := func(_ ecs.Entity, m *scene.MaterialComponent) bool { return m.MaterialType() == mt }
	r.forEachDrawable(accept, func(e ecs.Entity, m *scene.MaterialComponent) {
		combine := m.FeaturesCombine()
		program := r.ctx.GetShaderProgram(mt.ProgramName(), combine)
		if !program.IsValid() {
			r.warnOnce(combine, "no program variant %q", combine)
			return
		}
		r.bindMaterial(m)
		fillLightUniforms(r.ctx, r.scene)
		r.bindVolume(d)
		r.ctx.SetState(materialState(m))
		r.ctx.Submit(r.view, program)
	})
}

func (r *DDGIRenderer) bindVolume(d *scene.DDGIComponent) {
	for i, info := range ddgiTextures {
		if tex := d.Textures[i]; r.ctx.IsTextureValid(tex) {
			r.ctx.SetTexture(stageDDGI+uint8(i), info.sampler, tex, gfx.SamplerClamp|gfx.SamplerPoint)
		}
	}
	counts := d.ProbeCount
	r.ctx.FillVec4(uVolumeOrigin, d.VolumeOrigin.Vec4(0))
	r.ctx.FillVec4(uVolumeProbeSpacing, d.ProbeSpacing.Vec4(0))
	r.ctx.FillVec4(uVolumeProbeCounts, mgl32.Vec4{float32(counts[0]), float32(counts[1]), float32(counts[2]), 0})
	r.ctx.FillVec4(uVolumeBias, mgl32.Vec4{d.AmbientMultiplier, d.NormalBias, d.ViewBias, 0})
}
