package render

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/scene"
)

const (
	// BloomChainLength is the number of frame buffers in the mip chain.
	BloomChainLength = 9

	bloomFormat = gputypes.TextureFormatRGBA16Float

	sTexture            = "s_texture"
	sBloom              = "s_bloom"
	sLightingColor      = "s_lightingColor"
	uTextureSize        = "u_textureSize"
	uBloomIntensity     = "u_bloomIntensity"
	uLuminanceThreshold = "u_luminanceThreshold"
)

// BloomViews is the fixed view layout of the bloom pass, reserved in Init.
type BloomViews struct {
	Capture    gfx.ViewID
	Downsample gfx.ViewID
	Blur       gfx.ViewID
	BlurCount  int
	Upsample   gfx.ViewID
	Combine    gfx.ViewID
	Blit       gfx.ViewID
}

// BloomRenderer extracts the emissive attachment of the scene target into
// a mip chain, blurs it down and up the chain and composites the result back
// onto the scene color attachment.
type BloomRenderer struct {
	rendererBase
	views BloomViews

	chain   [BloomChainLength]gfx.FrameBufferHandle
	blur    [2]gfx.FrameBufferHandle
	combine gfx.FrameBufferHandle
	width   uint16
	height  uint16
	quad    screenQuad
}

// NewBloomRenderer reads color from attachment 0 and emissive from
// attachment 1 of target.
func NewBloomRenderer(ctx *gfx.RenderContext, sw *scene.SceneWorld, target *gfx.RenderTarget) *BloomRenderer {
	r := &BloomRenderer{rendererBase: newRendererBase("BloomRenderer", ctx, sw, target)}
	for i := range r.chain {
		r.chain[i] = gfx.InvalidFrameBuffer
	}
	r.blur = [2]gfx.FrameBufferHandle{gfx.InvalidFrameBuffer, gfx.InvalidFrameBuffer}
	r.combine = gfx.InvalidFrameBuffer
	return r
}

func (r *BloomRenderer) Init() {
	r.rendererBase.Init()
	blurPasses := 2 * max(r.camera().Bloom.BlurMaxTimes, 1)
	r.views = BloomViews{
		Capture:    r.view,
		Downsample: r.ctx.CreateViews("BloomDownsample", BloomChainLength-1),
		Blur:       r.ctx.CreateViews("BloomBlur", blurPasses),
		BlurCount:  blurPasses,
		Upsample:   r.ctx.CreateViews("BloomUpsample", BloomChainLength-1),
		Combine:    r.ctx.CreateView("BloomCombine"),
		Blit:       r.ctx.CreateView("BloomBlit"),
	}

	r.registerProgram("CaptureBrightnessProgram", "vs_fullscreen", "fs_captureBrightness")
	r.registerProgram("DownSampleProgram", "vs_fullscreen", "fs_downsample")
	r.registerProgram("KawaseBlurProgram", "vs_fullscreen", "fs_kawaseblur")
	r.registerProgram("UpSampleProgram", "vs_fullscreen", "fs_upsample")
	r.registerProgram("BloomCombineProgram", "vs_fullscreen", "fs_bloom")

	r.declareUniform(sTexture, gfx.UniformSampler, 1)
	r.declareUniform(sBloom, gfx.UniformSampler, 1)
	r.declareUniform(sLightingColor, gfx.UniformSampler, 1)
	r.declareUniform(uTextureSize, gfx.UniformVec4, 1)
	r.declareUniform(uBloomIntensity, gfx.UniformVec4, 1)
	r.declareUniform(uLuminanceThreshold, gfx.UniformVec4, 1)
}

func (r *BloomRenderer) Views() BloomViews { return r.views }

// IsEnabled follows the camera's bloom switch.
func (r *BloomRenderer) IsEnabled() bool         { return r.camera().Bloom.Enable }
func (r *BloomRenderer) SetEnabled(enabled bool) { r.camera().Bloom.Enable = enabled }

func (r *BloomRenderer) CheckResources() bool {
	return r.target != nil && r.rendererBase.CheckResources()
}

func (r *BloomRenderer) Warmup() error {
	if err := r.rendererBase.Warmup(); err != nil {
		return err
	}
	return r.quad.create(r.ctx)
}

// UpdateView rebuilds the chain when the target size changed.
func (r *BloomRenderer) UpdateView(view, proj mgl32.Mat4) {
	w, h := r.targetSize()
	if w == r.width && h == r.height && r.ctx.IsFrameBufferValid(r.chain[0]) {
		return
	}
	r.rebuildChain(w, h)
}

func (r *BloomRenderer) rebuildChain(w, h uint16) {
	r.destroyFrameBuffers()
	r.width, r.height = w, h

	bloom := &r.camera().Bloom
	maxTimes := BloomChainLength - 1
	for i := range r.chain {
		cw, ch := w>>i, h>>i
		if cw < 2 || ch < 2 {
			maxTimes = max(i-1, 0)
			break
		}
		fb, err := r.ctx.CreateFrameBuffer(cw, ch, bloomFormat)
		if err != nil {
			r.logger.Errorf("%s: chain %d: %v", r.name, i, err)
			maxTimes = max(i-1, 0)
			break
		}
		r.chain[i] = fb
	}
	bloom.DownSampleMaxTimes = maxTimes

	fb, err := r.ctx.CreateFrameBuffer(w, h, bloomFormat)
	if err != nil {
		r.logger.Errorf("%s: combine: %v", r.name, err)
		return
	}
	r.combine = fb
}

func (r *BloomRenderer) destroyFrameBuffers() {
	fbs := append(r.chain[:], r.blur[0], r.blur[1], r.combine)
	for _, fb := range fbs {
		if r.ctx.IsFrameBufferValid(fb) {
			r.ctx.DestroyFrameBuffer(fb)
		}
	}
	for i := range r.chain {
		r.chain[i] = gfx.InvalidFrameBuffer
	}
	r.blur = [2]gfx.FrameBufferHandle{gfx.InvalidFrameBuffer, gfx.InvalidFrameBuffer}
	r.combine = gfx.InvalidFrameBuffer
}

func (r *BloomRenderer) beginPass(view gfx.ViewID, fb gfx.FrameBufferHandle, clear bool) {
	w, h := r.ctx.FrameBufferSize(fb)
	r.ctx.SetViewFrameBuffer(view, fb)
	r.ctx.SetViewRect(view, 0, 0, w, h)
	if clear {
		r.ctx.SetViewClear(view, gfx.ClearColor, 0x000000ff, 1)
	}
	r.ctx.SetViewTransform(view, mgl32.Ident4(), screenProjection(r.camera().NDCDepth()))
	r.quad.bind(r.ctx)
}

func (r *BloomRenderer) sample(stage uint8, sampler string, tex gfx.TextureHandle) {
	r.ctx.SetTexture(stage, sampler, tex, gfx.SamplerClamp)
}

func (r *BloomRenderer) fillTextureSize(fb gfx.FrameBufferHandle, extra float32) {
	w, h := r.ctx.FrameBufferSize(fb)
	r.ctx.FillVec4(uTextureSize, mgl32.Vec4{float32(w), float32(h), extra, 0})
}

func (r *BloomRenderer) Render(dt float32) {
	if !r.ctx.IsFrameBufferValid(r.chain[0]) || !r.ctx.IsFrameBufferValid(r.combine) {
		return
	}
	color, emissive := r.target.Texture(0), r.target.Texture(1)
	if !r.ctx.IsTextureValid(color) || !r.ctx.IsTextureValid(emissive) {
		r.warnOnce("attachments", "target %s needs color and emissive attachments", r.target.Name())
		return
	}
	bloom := &r.camera().Bloom
	chainTex := func(i int) gfx.TextureHandle { return r.ctx.GetFrameBufferTexture(r.chain[i], 0) }
	writeRGBA := gfx.StateWriteRGB | gfx.StateWriteA

	r.beginPass(r.views.Capture, r.chain[0], true)
	r.ctx.FillVec4(uLuminanceThreshold, mgl32.Vec4{bloom.LuminanceThreshold, 0, 0, 0})
	r.sample(0, sTexture, emissive)
	r.ctx.SetState(writeRGBA)
	r.ctx.Submit(r.views.Capture, r.program("CaptureBrightnessProgram"))

	times := min(bloom.DownSampleTimes, bloom.DownSampleMaxTimes)
	for i := 0; i < times; i++ {
		view := r.views.Downsample + gfx.ViewID(i)
		r.beginPass(view, r.chain[i+1], true)
		r.fillTextureSize(r.chain[i], 0)
		r.sample(0, sTexture, chainTex(i))
		r.ctx.SetState(writeRGBA)
		r.ctx.Submit(view, r.program("DownSampleProgram"))
	}

	top := chainTex(times)
	if bloom.BlurEnable && bloom.BlurTimes > 0 {
		top = r.renderBlur(times, bloom)
	}

	for i := times; i > 0; i-- {
		view := r.views.Upsample + gfx.ViewID(times-i)
		src := chainTex(i)
		if i == times {
			src = top
		}
		r.beginPass(view, r.chain[i-1], false)
		r.fillTextureSize(r.chain[i], 0)
		r.sample(0, sTexture, src)
		r.ctx.SetState(writeRGBA | gfx.StateBlendAdd)
		r.ctx.Submit(view, r.program("UpSampleProgram"))
	}

	r.beginPass(r.views.Combine, r.combine, true)
	r.ctx.FillVec4(uBloomIntensity, mgl32.Vec4{bloom.Intensity, 0, 0, 0})
	r.sample(0, sLightingColor, color)
	r.sample(1, sBloom, chainTex(0))
	r.ctx.SetState(writeRGBA)
	r.ctx.Submit(r.views.Combine, r.program("BloomCombineProgram"))

	r.ctx.Blit(r.views.Blit, color, r.ctx.GetFrameBufferTexture(r.combine, 0))
}

// renderBlur ping-pongs a Kawase blur over the level-th chain texture and
// returns the blurred texture.
func (r *BloomRenderer) renderBlur(level int, bloom *scene.BloomSettings) gfx.TextureHandle {
	w, h := r.ctx.FrameBufferSize(r.chain[level])
	scaling := uint16(max(bloom.BlurScaling, 1))
	w, h = max(w/scaling, 1), max(h/scaling, 1)
	for i, fb := range r.blur {
		if r.ctx.IsFrameBufferValid(fb) {
			if fw, fh := r.ctx.FrameBufferSize(fb); fw == w && fh == h {
				continue
			}
			r.ctx.DestroyFrameBuffer(fb)
		}
		created, err := r.ctx.CreateFrameBuffer(w, h, bloomFormat)
		if err != nil {
			r.logger.Errorf("%s: blur: %v", r.name, err)
			return r.ctx.GetFrameBufferTexture(r.chain[level], 0)
		}
		r.blur[i] = created
	}

	src := r.ctx.GetFrameBufferTexture(r.chain[level], 0)
	passes := min(bloom.BlurTimes, bloom.BlurMaxTimes, r.views.BlurCount/2)
	for i := 0; i < 2*passes; i++ {
		view := r.views.Blur + gfx.ViewID(i)
		dst := r.blur[i%2]
		r.beginPass(view, dst, true)
		r.fillTextureSize(dst, float32(i/2)+bloom.BlurSize)
		r.sample(0, sTexture, src)
		r.ctx.SetState(gfx.StateWriteRGB | gfx.StateWriteA)
		r.ctx.Submit(view, r.program("KawaseBlurProgram"))
		src = r.ctx.GetFrameBufferTexture(dst, 0)
	}
	return src
}

func (r *BloomRenderer) Close() {
	r.destroyFrameBuffers()
	r.quad.destroy(r.ctx)
}
