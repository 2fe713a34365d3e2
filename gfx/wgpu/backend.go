// Package wgpu executes the gfx command stream on a WebGPU device bound to
// a GLFW window surface.
//
// Resources, view clears, framebuffer passes and blits are encoded. Draw and
// dispatch submissions are counted and dropped until programs are turned
// into render pipelines.
package wgpu

import (
	"fmt"
	"unicode/utf8"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/logging"
)

type texture struct {
	desc    gfx.TextureDesc
	width   uint32
	height  uint32
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

type buffer struct {
	size   uint64
	buffer *wgpu.Buffer
}

type blit struct {
	dst, src gfx.TextureHandle
}

type viewState struct {
	name        string
	clear       gfx.ClearFlags
	rgba        uint32
	depth       float32
	stencil     uint8
	frameBuffer gfx.FrameBufferHandle
	blits       []blit
	touched     bool
}

// Backend implements gfx.Backend and gfx.Closer.
type Backend struct {
	logger logging.Logger
	window *glfw.Window

	surface *wgpu.Surface
	adapter *wgpu.Adapter
	device  *wgpu.Device
	queue   *wgpu.Queue
	config  *wgpu.SurfaceConfiguration

	shaders      map[gfx.ShaderHandle]*wgpu.ShaderModule
	textures     map[gfx.TextureHandle]*texture
	buffers      map[gfx.BufferHandle]*buffer
	frameBuffers map[gfx.FrameBufferHandle][]gfx.TextureHandle
	views        map[gfx.ViewID]*viewState

	frame   uint32
	submits int
	warned  map[string]bool
}

var (
	_ gfx.Backend = (*Backend)(nil)
	_ gfx.Closer  = (*Backend)(nil)
)

// NewBackend creates the device and configures the window surface for
// presentation with vsync.
func NewBackend(window *glfw.Window, logger logging.Logger) (*Backend, error) {
	logger = logging.OrNop(logger)

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		surface.Release()
		return nil, fmt.Errorf("wgpu: request adapter: %w", err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Lumen Device",
	})
	if err != nil {
		adapter.Release()
		surface.Release()
		return nil, fmt.Errorf("wgpu: request device: %w", err)
	}

	caps := surface.GetCapabilities(adapter)
	width, height := window.GetFramebufferSize()
	config := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(max(width, 0)),
		Height:      uint32(max(height, 0)),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	if config.Width > 0 && config.Height > 0 {
		surface.Configure(adapter, device, config)
	}
	logger.Infof("WebGPU device ready, surface %dx%d %v", config.Width, config.Height, config.Format)

	return &Backend{
		logger:       logger,
		window:       window,
		surface:      surface,
		adapter:      adapter,
		device:       device,
		queue:        device.GetQueue(),
		config:       config,
		shaders:      make(map[gfx.ShaderHandle]*wgpu.ShaderModule),
		textures:     make(map[gfx.TextureHandle]*texture),
		buffers:      make(map[gfx.BufferHandle]*buffer),
		frameBuffers: make(map[gfx.FrameBufferHandle][]gfx.TextureHandle),
		views:        make(map[gfx.ViewID]*viewState),
		warned:       make(map[string]bool),
	}, nil
}

func (b *Backend) Caps() gfx.Caps {
	return gfx.Caps{Compute: true, MaxViews: gfx.MaxViewCount}
}

func (b *Backend) warnOnce(key, format string, args ...any) {
	if b.warned[key] {
		return
	}
	b.warned[key] = true
	b.logger.Warnf(format, args...)
}

// Shaders are WGSL source. Anything else is kept as a missing module so
// programs still link.
func (b *Backend) CreateShader(h gfx.ShaderHandle, name string, code []byte) error {
	if !utf8.Valid(code) {
		b.warnOnce("shader:"+name, "shader %s is not WGSL source, skipped", name)
		b.shaders[h] = nil
		return nil
	}
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: string(code)},
	})
	if err != nil {
		return fmt.Errorf("wgpu: shader %s: %w", name, err)
	}
	b.shaders[h] = module
	return nil
}

func (b *Backend) DestroyShader(h gfx.ShaderHandle) {
	if module := b.shaders[h]; module != nil {
		module.Release()
	}
	delete(b.shaders, h)
}

func (b *Backend) CreateProgram(h gfx.ProgramHandle, vs, fs gfx.ShaderHandle) error { return nil }
func (b *Backend) DestroyProgram(h gfx.ProgramHandle)                               {}

func (b *Backend) CreateUniform(h gfx.UniformHandle, name string, typ gfx.UniformType, num uint16) error {
	return nil
}
func (b *Backend) DestroyUniform(h gfx.UniformHandle) {}

func (b *Backend) CreateTexture(h gfx.TextureHandle, desc gfx.TextureDesc, data []byte) error {
	format, err := textureFormat(desc.Format)
	if err != nil {
		return fmt.Errorf("wgpu: texture %s: %w", h, err)
	}
	width, height := uint32(max(desc.Width, 1)), uint32(max(desc.Height, 1))
	layers := uint32(max(desc.Layers, 1))
	if desc.CubeMap {
		layers *= 6
	}
	mips := uint32(1)
	if desc.Mips {
		mips = mipLevels(width, height)
	}
	if desc.Container && data != nil {
		b.warnOnce("container", "encoded texture containers are not decoded, texture %s stays blank", h)
		data = nil
	}

	extent := wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: layers}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         h.String(),
		Size:          extent,
		MipLevelCount: mips,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         textureUsage(desc.Usage),
	})
	if err != nil {
		return fmt.Errorf("wgpu: texture %s: %w", h, err)
	}
	view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           h.String(),
		Format:          format,
		Dimension:       wgpu.TextureViewDimension2D,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
	})
	if err != nil {
		tex.Release()
		return fmt.Errorf("wgpu: texture view %s: %w", h, err)
	}

	if bpp := bytesPerPixel(desc.Format); data != nil && bpp > 0 {
		want := int(width * height * bpp * layers)
		if len(data) < want {
			b.logger.Warnf("texture %s: %d bytes for %dx%dx%d, upload skipped", h, len(data), width, height, layers)
		} else {
			err = b.queue.WriteTexture(tex.AsImageCopy(), data[:want], &wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  width * bpp,
				RowsPerImage: height,
			}, &extent)
			if err != nil {
				view.Release()
				tex.Release()
				return fmt.Errorf("wgpu: upload texture %s: %w", h, err)
			}
		}
	}

	b.textures[h] = &texture{desc: desc, width: width, height: height, texture: tex, view: view}
	return nil
}

func (b *Backend) DestroyTexture(h gfx.TextureHandle) {
	if t, ok := b.textures[h]; ok {
		t.view.Release()
		t.texture.Release()
		delete(b.textures, h)
	}
}

func (b *Backend) CreateFrameBuffer(h gfx.FrameBufferHandle, attachments []gfx.TextureHandle) error {
	for _, a := range attachments {
		if _, ok := b.textures[a]; !ok {
			return fmt.Errorf("wgpu: frame buffer %s: attachment %s: %w", h, a, gfx.ErrResourceMissing)
		}
	}
	b.frameBuffers[h] = append([]gfx.TextureHandle(nil), attachments...)
	return nil
}

func (b *Backend) DestroyFrameBuffer(h gfx.FrameBufferHandle) {
	delete(b.frameBuffers, h)
}

func (b *Backend) CreateBuffer(h gfx.BufferHandle, desc gfx.BufferDesc, data []byte) error {
	size := align4(uint64(max(desc.Size, 4)))
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: h.String(),
		Size:  size,
		Usage: bufferUsage(desc.Usage),
	})
	if err != nil {
		return fmt.Errorf("wgpu: buffer %s: %w", h, err)
	}
	b.buffers[h] = &buffer{size: size, buffer: buf}
	if len(data) > 0 {
		b.UpdateBuffer(h, 0, data)
	}
	return nil
}

// UpdateBuffer pads data to the 4 byte copy alignment. Offsets must be
// aligned already.
func (b *Backend) UpdateBuffer(h gfx.BufferHandle, offset uint32, data []byte) {
	buf, ok := b.buffers[h]
	if !ok || len(data) == 0 {
		return
	}
	if offset%4 != 0 {
		b.logger.Warnf("buffer %s: unaligned update at offset %d skipped", h, offset)
		return
	}
	if n := align4(uint64(len(data))); n != uint64(len(data)) {
		padded := make([]byte, n)
		copy(padded, data)
		data = padded
	}
	if uint64(offset)+uint64(len(data)) > buf.size {
		b.logger.Warnf("buffer %s: update of %d bytes at offset %d exceeds %d bytes", h, len(data), offset, buf.size)
		return
	}
	if err := b.queue.WriteBuffer(buf.buffer, uint64(offset), data); err != nil {
		b.logger.Warnf("buffer %s: %v", h, err)
	}
}

func (b *Backend) DestroyBuffer(h gfx.BufferHandle) {
	if buf, ok := b.buffers[h]; ok {
		buf.buffer.Release()
		delete(b.buffers, h)
	}
}

func (b *Backend) view(id gfx.ViewID) *viewState {
	v, ok := b.views[id]
	if !ok {
		v = &viewState{frameBuffer: gfx.InvalidFrameBuffer, depth: 1}
		b.views[id] = v
	}
	return v
}

func (b *Backend) SetViewName(view gfx.ViewID, name string) { b.view(view).name = name }

func (b *Backend) SetViewRect(view gfx.ViewID, x, y, width, height uint16) {}

func (b *Backend) SetViewClear(view gfx.ViewID, flags gfx.ClearFlags, rgba uint32, depth float32, stencil uint8) {
	v := b.view(view)
	v.clear, v.rgba, v.depth, v.stencil = flags, rgba, depth, stencil
}

func (b *Backend) SetViewFrameBuffer(view gfx.ViewID, fb gfx.FrameBufferHandle) {
	b.view(view).frameBuffer = fb
}

func (b *Backend) SetViewTransform(view gfx.ViewID, viewMatrix, projMatrix mgl32.Mat4) {}

// Per-draw state only matters once submissions are encoded.

func (b *Backend) SetScissor(x, y, width, height uint16)                          {}
func (b *Backend) SetTransform(model mgl32.Mat4)                                  {}
func (b *Backend) SetState(state gfx.RenderState)                                 {}
func (b *Backend) SetVertexBuffer(stream uint8, h gfx.BufferHandle)               {}
func (b *Backend) SetIndexBuffer(h gfx.BufferHandle)                              {}
func (b *Backend) SetImage(stage uint8, t gfx.TextureHandle, a gfx.Access)        {}
func (b *Backend) SetComputeBuffer(stage uint8, h gfx.BufferHandle, a gfx.Access) {}
func (b *Backend) SetUniform(h gfx.UniformHandle, data []float32, num uint16)     {}

func (b *Backend) SetTexture(stage uint8, sampler gfx.UniformHandle, t gfx.TextureHandle, flags gfx.SamplerFlags) {
}

func (b *Backend) Submit(view gfx.ViewID, program gfx.ProgramHandle) {
	b.view(view).touched = true
	b.submits++
}

func (b *Backend) Dispatch(view gfx.ViewID, program gfx.ProgramHandle, x, y, z uint32) {
	b.view(view).touched = true
	b.submits++
}

func (b *Backend) Blit(view gfx.ViewID, dst, src gfx.TextureHandle) {
	v := b.view(view)
	v.touched = true
	v.blits = append(v.blits, blit{dst: dst, src: src})
}

// Close releases every native object still alive and the device.
func (b *Backend) Close() {
	for h := range b.textures {
		b.DestroyTexture(h)
	}
	for h := range b.buffers {
		b.DestroyBuffer(h)
	}
	for h := range b.shaders {
		b.DestroyShader(h)
	}
	clear(b.frameBuffers)
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
	b.logger.Infof("WebGPU device released after %d frames", b.frame)
}
