package wgpu

import (
	"fmt"
	"maps"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"

	"github.com/gekko3d/lumen/gfx"
)

// Frame encodes every view touched since the last frame in id order and
// presents the surface. A minimized window skips presentation but still
// advances the frame number.
func (b *Backend) Frame() uint32 {
	if b.followFramebufferSize() {
		if err := b.encodeFrame(); err != nil {
			b.logger.Warnf("frame %d: %v", b.frame, err)
		}
	}
	if b.submits > 0 {
		b.warnOnce("submits", "draw submission is not encoded, %d submits dropped in frame %d", b.submits, b.frame)
	}
	b.submits = 0
	for _, v := range b.views {
		v.touched = false
		v.blits = v.blits[:0]
	}
	b.frame++
	return b.frame
}

// followFramebufferSize reconfigures the surface after a resize and reports
// whether there is anything to present to.
func (b *Backend) followFramebufferSize() bool {
	width, height := b.window.GetFramebufferSize()
	if width <= 0 || height <= 0 {
		return false
	}
	if uint32(width) != b.config.Width || uint32(height) != b.config.Height {
		b.config.Width, b.config.Height = uint32(width), uint32(height)
		b.surface.Configure(b.adapter, b.device, b.config)
		b.logger.Debugf("surface reconfigured to %dx%d", width, height)
	}
	return true
}

func (b *Backend) touchedViews() []gfx.ViewID {
	ids := slices.Sorted(maps.Keys(b.views))
	return slices.DeleteFunc(ids, func(id gfx.ViewID) bool { return !b.views[id].touched })
}

func (b *Backend) encodeFrame() error {
	next, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("acquire surface texture: %w", err)
	}
	defer next.Release()
	backBuffer, err := next.CreateView(nil)
	if err != nil {
		return fmt.Errorf("surface view: %w", err)
	}
	defer backBuffer.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("command encoder: %w", err)
	}
	defer encoder.Release()

	for _, id := range b.touchedViews() {
		v := b.views[id]
		for _, bl := range v.blits {
			b.encodeBlit(encoder, bl)
		}
		if err := b.encodeViewPass(encoder, v, backBuffer); err != nil {
			return fmt.Errorf("view %d %s: %w", id, v.name, err)
		}
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish: %w", err)
	}
	defer cmd.Release()
	b.queue.Submit(cmd)
	b.surface.Present()
	return nil
}

// blitExtent is the region both textures cover. Blits between formats are
// not copyable and report ok=false.
func blitExtent(dst, src *texture) (wgpu.Extent3D, bool) {
	if dst.desc.Format != src.desc.Format {
		return wgpu.Extent3D{}, false
	}
	return wgpu.Extent3D{
		Width:              min(dst.width, src.width),
		Height:             min(dst.height, src.height),
		DepthOrArrayLayers: 1,
	}, true
}

func (b *Backend) encodeBlit(encoder *wgpu.CommandEncoder, bl blit) {
	dst, src := b.textures[bl.dst], b.textures[bl.src]
	if dst == nil || src == nil {
		return
	}
	extent, ok := blitExtent(dst, src)
	if !ok {
		b.warnOnce("blit-format", "blit %s -> %s between different formats skipped", bl.src, bl.dst)
		return
	}
	encoder.CopyTextureToTexture(
		&wgpu.ImageCopyTexture{Texture: src.texture, Aspect: wgpu.TextureAspectAll},
		&wgpu.ImageCopyTexture{Texture: dst.texture, Aspect: wgpu.TextureAspectAll},
		&extent,
	)
}

// splitAttachments separates color targets from the depth target. Only the
// last depth attachment is used.
func splitAttachments(attachments []*texture) (colors []*texture, depth *texture) {
	for _, t := range attachments {
		if isDepthFormat(t.desc.Format) {
			depth = t
			continue
		}
		colors = append(colors, t)
	}
	return colors, depth
}

func (b *Backend) attachments(fb gfx.FrameBufferHandle) []*texture {
	var out []*texture
	for _, h := range b.frameBuffers[fb] {
		if t := b.textures[h]; t != nil {
			out = append(out, t)
		}
	}
	return out
}

func (b *Backend) encodeViewPass(encoder *wgpu.CommandEncoder, v *viewState, backBuffer *wgpu.TextureView) error {
	desc := passDescriptor(v, b.attachments(v.frameBuffer), backBuffer)
	if desc == nil {
		return nil
	}
	pass := encoder.BeginRenderPass(desc)
	defer pass.Release()
	return pass.End()
}

// passDescriptor builds the load/clear setup of a view. An invalid frame
// buffer renders to the back buffer. A view whose frame buffer has no live
// attachments yields nil.
func passDescriptor(v *viewState, attachments []*texture, backBuffer *wgpu.TextureView) *wgpu.RenderPassDescriptor {
	colorViews := []*wgpu.TextureView{backBuffer}
	var depth *texture
	if v.frameBuffer.IsValid() {
		var colors []*texture
		colors, depth = splitAttachments(attachments)
		colorViews = colorViews[:0]
		for _, c := range colors {
			colorViews = append(colorViews, c.view)
		}
	}
	if len(colorViews) == 0 && depth == nil {
		return nil
	}

	desc := &wgpu.RenderPassDescriptor{}
	for _, view := range colorViews {
		desc.ColorAttachments = append(desc.ColorAttachments, wgpu.RenderPassColorAttachment{
			View:       view,
			LoadOp:     loadOp(v.clear, gfx.ClearColor),
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: clearColor(v.rgba),
		})
	}
	if depth != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            depth.view,
			DepthLoadOp:     loadOp(v.clear, gfx.ClearDepth),
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: v.depth,
		}
		if depth.desc.Format == gputypes.TextureFormatDepth24PlusStencil8 {
			desc.DepthStencilAttachment.StencilLoadOp = loadOp(v.clear, gfx.ClearStencil)
			desc.DepthStencilAttachment.StencilStoreOp = wgpu.StoreOpStore
			desc.DepthStencilAttachment.StencilClearValue = uint32(v.stencil)
		}
	}
	return desc
}
