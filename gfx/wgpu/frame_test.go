package wgpu

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/logging"
	"github.com/gekko3d/lumen/resource"
)

func attachment(format gputypes.TextureFormat, width, height uint32) *texture {
	return &texture{
		desc:   gfx.TextureDesc{Format: format},
		width:  width,
		height: height,
		view:   &wgpu.TextureView{},
	}
}

func validFrameBuffer(t *testing.T) gfx.FrameBufferHandle {
	t.Helper()
	ctx := gfx.NewRenderContext(gfx.NewRecordingBackend(gfx.Caps{}), resource.NewMemoryLoader(), gfx.Options{
		Logger: logging.NewNopLogger(),
		Width:  16,
		Height: 16,
	})
	fb, err := ctx.CreateFrameBuffer(16, 16, gputypes.TextureFormatRGBA8Unorm)
	require.NoError(t, err)
	return fb
}

func TestSplitAttachments(t *testing.T) {
	color := attachment(gputypes.TextureFormatRGBA16Float, 4, 4)
	normal := attachment(gputypes.TextureFormatRGBA8Unorm, 4, 4)
	depth := attachment(gputypes.TextureFormatDepth24PlusStencil8, 4, 4)

	colors, d := splitAttachments([]*texture{color, depth, normal})
	assert.Equal(t, []*texture{color, normal}, colors)
	assert.Same(t, depth, d)

	colors, d = splitAttachments([]*texture{attachment(gputypes.TextureFormatDepth32Float, 4, 4)})
	assert.Empty(t, colors)
	assert.NotNil(t, d)
}

func TestPassDescriptor_BackBuffer(t *testing.T) {
	backBuffer := &wgpu.TextureView{}
	v := &viewState{frameBuffer: gfx.InvalidFrameBuffer, clear: gfx.ClearColor | gfx.ClearDepth, rgba: 0x000000ff, depth: 1}

	desc := passDescriptor(v, nil, backBuffer)
	require.NotNil(t, desc)
	require.Len(t, desc.ColorAttachments, 1)
	assert.Same(t, backBuffer, desc.ColorAttachments[0].View)
	assert.Equal(t, wgpu.LoadOpClear, desc.ColorAttachments[0].LoadOp)
	assert.InDelta(t, 1.0, desc.ColorAttachments[0].ClearValue.A, 1e-9)
	assert.Nil(t, desc.DepthStencilAttachment)
}

func TestPassDescriptor_FrameBuffer(t *testing.T) {
	color := attachment(gputypes.TextureFormatRGBA16Float, 8, 8)
	depth := attachment(gputypes.TextureFormatDepth24PlusStencil8, 8, 8)
	v := &viewState{frameBuffer: validFrameBuffer(t), clear: gfx.ClearDepth, depth: 0.5, stencil: 3}

	desc := passDescriptor(v, []*texture{color, depth}, &wgpu.TextureView{})
	require.NotNil(t, desc)
	require.Len(t, desc.ColorAttachments, 1)
	assert.Same(t, color.view, desc.ColorAttachments[0].View)
	assert.Equal(t, wgpu.LoadOpLoad, desc.ColorAttachments[0].LoadOp)

	ds := desc.DepthStencilAttachment
	require.NotNil(t, ds)
	assert.Same(t, depth.view, ds.View)
	assert.Equal(t, wgpu.LoadOpClear, ds.DepthLoadOp)
	assert.Equal(t, float32(0.5), ds.DepthClearValue)
	assert.Equal(t, wgpu.LoadOpLoad, ds.StencilLoadOp)
	assert.Equal(t, uint32(3), ds.StencilClearValue)
}

func TestPassDescriptor_DepthOnlyShadowMap(t *testing.T) {
	depth := attachment(gputypes.TextureFormatDepth32Float, 8, 8)
	v := &viewState{frameBuffer: validFrameBuffer(t), clear: gfx.ClearDepth, depth: 1}

	desc := passDescriptor(v, []*texture{depth}, &wgpu.TextureView{})
	require.NotNil(t, desc)
	assert.Empty(t, desc.ColorAttachments)
	require.NotNil(t, desc.DepthStencilAttachment)
	assert.Zero(t, desc.DepthStencilAttachment.StencilStoreOp)
}

func TestPassDescriptor_DestroyedAttachments(t *testing.T) {
	v := &viewState{frameBuffer: validFrameBuffer(t)}
	assert.Nil(t, passDescriptor(v, nil, &wgpu.TextureView{}))
}

func TestBlitExtent(t *testing.T) {
	dst := attachment(gputypes.TextureFormatRGBA8Unorm, 64, 16)
	src := attachment(gputypes.TextureFormatRGBA8Unorm, 32, 32)
	extent, ok := blitExtent(dst, src)
	require.True(t, ok)
	assert.Equal(t, wgpu.Extent3D{Width: 32, Height: 16, DepthOrArrayLayers: 1}, extent)

	_, ok = blitExtent(dst, attachment(gputypes.TextureFormatR32Float, 32, 32))
	assert.False(t, ok)
}
