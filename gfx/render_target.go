package gfx

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// RenderTarget is a named frame buffer that passes share, e.g. the scene
// color/emissive/depth target. Targets created without a size follow the
// back buffer and are rebuilt by Resize.
type RenderTarget struct {
	ctx              *RenderContext
	name             string
	formats          []gputypes.TextureFormat
	width            uint16
	height           uint16
	followBackBuffer bool
	frameBuffer      FrameBufferHandle
}

func (t *RenderTarget) Name() string                   { return t.name }
func (t *RenderTarget) Width() uint16                  { return t.width }
func (t *RenderTarget) Height() uint16                 { return t.height }
func (t *RenderTarget) FrameBuffer() FrameBufferHandle { return t.frameBuffer }

func (t *RenderTarget) Texture(attachment int) TextureHandle {
	return t.ctx.GetFrameBufferTexture(t.frameBuffer, attachment)
}

// CreateRenderTarget creates a named target. A zero width or height sizes it
// to the back buffer. Creating an existing name returns that target.
func (c *RenderContext) CreateRenderTarget(name string, width, height uint16, formats ...gputypes.TextureFormat) (*RenderTarget, error) {
	if rt, ok := c.renderTargets[name]; ok {
		return rt, nil
	}

	rt := &RenderTarget{ctx: c, name: name, formats: formats}
	if width == 0 || height == 0 {
		rt.followBackBuffer = true
		width, height = c.width, c.height
	}
	if err := rt.rebuild(width, height); err != nil {
		return nil, fmt.Errorf("render target %s: %w", name, err)
	}
	c.renderTargets[name] = rt
	c.targetOrder = append(c.targetOrder, name)
	return rt, nil
}

func (c *RenderContext) GetRenderTarget(name string) *RenderTarget {
	return c.renderTargets[name]
}

func (t *RenderTarget) rebuild(width, height uint16) error {
	if t.frameBuffer.IsValid() {
		if err := t.ctx.DestroyFrameBuffer(t.frameBuffer); err != nil {
			return err
		}
		t.frameBuffer = InvalidFrameBuffer
	}
	fb, err := t.ctx.CreateFrameBuffer(width, height, t.formats...)
	if err != nil {
		return err
	}
	t.frameBuffer = fb
	t.width, t.height = width, height
	return nil
}

// Resize records the new back buffer size and rebuilds every target that
// follows it. Textures taken from those targets before the call are stale.
func (c *RenderContext) Resize(width, height uint16) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("resize to %dx%d", width, height)
	}
	if width == c.width && height == c.height {
		return nil
	}
	c.width, c.height = width, height

	for _, name := range c.targetOrder {
		rt := c.renderTargets[name]
		if !rt.followBackBuffer {
			continue
		}
		if err := rt.rebuild(width, height); err != nil {
			return fmt.Errorf("render target %s: %w", name, err)
		}
	}
	c.logger.Debugf("render context resized to %dx%d", width, height)
	return nil
}
