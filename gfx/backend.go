package gfx

import "github.com/go-gl/mathgl/mgl32"

// Backend executes the command stream a frame produces. Handles are
// allocated by RenderContext and passed in already validated; the backend
// maps them to native objects.
type Backend interface {
	Caps() Caps

	CreateShader(h ShaderHandle, name string, code []byte) error
	DestroyShader(h ShaderHandle)
	// CreateProgram links a vertex/fragment pair. A compute program passes
	// the compute shader as vs and InvalidShader as fs.
	CreateProgram(h ProgramHandle, vs, fs ShaderHandle) error
	DestroyProgram(h ProgramHandle)
	CreateUniform(h UniformHandle, name string, typ UniformType, num uint16) error
	DestroyUniform(h UniformHandle)
	CreateTexture(h TextureHandle, desc TextureDesc, data []byte) error
	DestroyTexture(h TextureHandle)
	CreateFrameBuffer(h FrameBufferHandle, attachments []TextureHandle) error
	DestroyFrameBuffer(h FrameBufferHandle)
	CreateBuffer(h BufferHandle, desc BufferDesc, data []byte) error
	UpdateBuffer(h BufferHandle, offset uint32, data []byte)
	DestroyBuffer(h BufferHandle)

	SetViewName(view ViewID, name string)
	SetViewRect(view ViewID, x, y, width, height uint16)
	SetViewClear(view ViewID, flags ClearFlags, rgba uint32, depth float32, stencil uint8)
	SetViewFrameBuffer(view ViewID, fb FrameBufferHandle)
	SetViewTransform(view ViewID, viewMatrix, projMatrix mgl32.Mat4)

	SetScissor(x, y, width, height uint16)
	SetTransform(model mgl32.Mat4)
	SetState(state RenderState)
	SetVertexBuffer(stream uint8, h BufferHandle)
	SetIndexBuffer(h BufferHandle)
	SetTexture(stage uint8, sampler UniformHandle, texture TextureHandle, flags SamplerFlags)
	SetImage(stage uint8, texture TextureHandle, access Access)
	SetComputeBuffer(stage uint8, h BufferHandle, access Access)
	SetUniform(h UniformHandle, data []float32, num uint16)

	Submit(view ViewID, program ProgramHandle)
	Dispatch(view ViewID, program ProgramHandle, x, y, z uint32)
	Blit(view ViewID, dst, src TextureHandle)
	Frame() uint32
}

// Closer is implemented by backends that own a native device. The engine
// closes the backend after the render context has shut down.
type Closer interface {
	Close()
}
