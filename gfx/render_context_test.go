package gfx

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/lumen/resource"
)

func newTestContext(t *testing.T) (*RenderContext, *RecordingBackend, *resource.MemoryLoader) {
	t.Helper()
	backend := NewRecordingBackend(Caps{HomogeneousDepth: true, Compute: true})
	loader := resource.NewMemoryLoader()
	rc := NewRenderContext(backend, loader, Options{Width: 64, Height: 32})
	return rc, backend, loader
}

func TestRenderContext_CreateViewSequential(t *testing.T) {
	rc, backend, _ := newTestContext(t)

	assert.Equal(t, ViewID(0), rc.CreateView("Skybox"))
	assert.Equal(t, ViewID(1), rc.CreateViews("Bloom", 3))
	assert.Equal(t, ViewID(4), rc.CreateView("Blit"))
	assert.Equal(t, uint16(5), rc.ViewCount())
	assert.Equal(t, "Bloom_2", rc.ViewName(3))
	assert.Equal(t, 5, backend.Count(CmdSetViewName))
}

func TestRenderContext_CreateViewExhaustedPanics(t *testing.T) {
	backend := NewRecordingBackend(Caps{MaxViews: 2})
	rc := NewRenderContext(backend, resource.NewMemoryLoader(), Options{})
	rc.CreateView("a")
	rc.CreateView("b")

	assert.Panics(t, func() { rc.CreateView("c") })
}

func TestRenderContext_ShaderProgramLifecycle(t *testing.T) {
	rc, backend, loader := newTestContext(t)
	rc.RegisterShaderProgram("SkyboxProgram", "vs_skybox", "fs_skybox")

	assert.False(t, rc.CheckShaderProgram("SkyboxProgram"))
	assert.False(t, rc.CheckShaderProgram("Unregistered"))
	err := rc.UploadShaderProgram("SkyboxProgram")
	assert.ErrorIs(t, err, ErrResourceMissing)

	loader.Add("Shaders/vs_skybox.bin", []byte("vs"))
	loader.Add("Shaders/fs_skybox.bin", []byte("fs"))
	require.True(t, rc.CheckShaderProgram("SkyboxProgram"))
	require.NoError(t, rc.UploadShaderProgram("SkyboxProgram"))
	require.NoError(t, rc.UploadShaderProgram("SkyboxProgram"))

	assert.True(t, rc.GetShaderProgram("SkyboxProgram", "").IsValid())
	assert.False(t, rc.GetShaderProgram("SkyboxProgram", "IBL;").IsValid())
	assert.Equal(t, 1, backend.Count(CmdCreateProgram))
	assert.Equal(t, 2, backend.Count(CmdCreateShader))
}

func TestRenderContext_UberShaderVariants(t *testing.T) {
	rc, backend, loader := newTestContext(t)
	rc.RegisterUberShaderProgram("WorldProgram", []string{"vs_PBR", "fs_PBR"}, []string{"IBL;"})

	for _, combine := range []string{"", "IBL;"} {
		loader.Add(rc.ShaderPath("vs_PBR", combine), []byte("vs"))
		loader.Add(rc.ShaderPath("fs_PBR", combine), []byte("fs"))
	}
	assert.NotEqual(t, rc.ShaderPath("vs_PBR", ""), rc.ShaderPath("vs_PBR", "IBL;"))

	require.True(t, rc.CheckShaderProgram("WorldProgram"))
	require.NoError(t, rc.UploadShaderProgram("WorldProgram"))

	a := rc.GetShaderProgram("WorldProgram", "")
	b := rc.GetShaderProgram("WorldProgram", "IBL;")
	assert.True(t, a.IsValid())
	assert.True(t, b.IsValid())
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, backend.Count(CmdCreateProgram))
}

func TestRenderContext_UniformCache(t *testing.T) {
	rc, backend, _ := newTestContext(t)

	a, err := rc.CreateUniform("u_cameraPos", UniformVec4, 1)
	require.NoError(t, err)
	b, err := rc.CreateUniform("u_cameraPos", UniformVec4, 1)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, backend.Count(CmdCreateUniform))

	rc.FillVec4("u_cameraPos", mgl32.Vec4{1, 2, 3, 4})
	set := backend.Filter(CmdSetUniform)
	require.Len(t, set, 1)
	assert.Equal(t, []float32{1, 2, 3, 4}, set[0].Data)
	assert.Equal(t, 1, set[0].Size)

	assert.PanicsWithValue(t, "uniform u_missing is not created", func() {
		rc.FillUniform("u_missing", []float32{1})
	})
	assert.Panics(t, func() {
		rc.FillUniform("u_cameraPos", make([]float32, 8))
	})
}

func TestRenderContext_TextureFromFileCachedByPath(t *testing.T) {
	rc, backend, loader := newTestContext(t)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 2))))
	loader.Add("Textures/albedo.png", buf.Bytes())
	loader.Add("Textures/sky.dds", []byte("DDS container"))

	a, err := rc.CreateTextureFromFile("Textures/albedo.png", SamplerDefault)
	require.NoError(t, err)
	b, err := rc.CreateTextureFromFile("Textures/albedo.png", SamplerDefault)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = rc.CreateTextureFromFile("Textures/sky.dds", SamplerDefault)
	require.NoError(t, err)

	created := backend.Filter(CmdCreateTexture)
	require.Len(t, created, 2)
	assert.Equal(t, [4]uint16{0, 0, 4, 2}, created[0].Rect)
	assert.Equal(t, 4*2*4, created[0].Size)

	missing, err := rc.CreateTextureFromFile("Textures/none.png", SamplerDefault)
	assert.ErrorIs(t, err, ErrResourceMissing)
	assert.False(t, missing.IsValid())
}

func TestRenderContext_FrameBufferOwnsAttachments(t *testing.T) {
	rc, backend, _ := newTestContext(t)

	fb, err := rc.CreateFrameBuffer(16, 16, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatDepth24PlusStencil8)
	require.NoError(t, err)
	tex := rc.GetFrameBufferTexture(fb, 0)
	assert.True(t, rc.IsTextureValid(tex))
	assert.False(t, rc.GetFrameBufferTexture(fb, 2).IsValid())

	require.NoError(t, rc.DestroyFrameBuffer(fb))
	assert.False(t, rc.IsTextureValid(tex))
	assert.ErrorIs(t, rc.DestroyFrameBuffer(fb), ErrStaleHandle)
	assert.Equal(t, 0, backend.LiveTotal())
}

func TestRenderContext_FrameBufferCreationFailureRollsBack(t *testing.T) {
	rc, backend, _ := newTestContext(t)
	backend.FailCreate = func(kind CommandKind, name string) error {
		if kind == CmdCreateFrameBuffer {
			return errors.New("device lost")
		}
		return nil
	}

	fb, err := rc.CreateFrameBuffer(8, 8, gputypes.TextureFormatRGBA8Unorm)
	assert.ErrorIs(t, err, ErrResourceCreation)
	assert.False(t, fb.IsValid())
	assert.Equal(t, 0, backend.LiveTotal())
	assert.Equal(t, 0, rc.LiveResources())
}

func TestRenderContext_StaleHandleUsePanics(t *testing.T) {
	rc, _, _ := newTestContext(t)
	_, err := rc.CreateUniform("s_tex", UniformSampler, 1)
	require.NoError(t, err)

	tex, err := rc.CreateTexture("t", TextureDesc{Width: 1, Height: 1}, []byte{0, 0, 0, 0})
	require.NoError(t, err)
	require.NoError(t, rc.DestroyTexture(tex))

	assert.Panics(t, func() { rc.SetTexture(0, "s_tex", tex, SamplerDefault) })
	assert.Panics(t, func() { rc.Submit(0, InvalidProgram) })
}

func TestRenderContext_RenderTargetFollowsResize(t *testing.T) {
	rc, _, _ := newTestContext(t)

	scene, err := rc.CreateRenderTarget("SceneRenderTarget", 0, 0, gputypes.TextureFormatRGBA8Unorm)
	require.NoError(t, err)
	fixed, err := rc.CreateRenderTarget("Fixed", 8, 8, gputypes.TextureFormatRGBA8Unorm)
	require.NoError(t, err)

	again, err := rc.CreateRenderTarget("SceneRenderTarget", 0, 0)
	require.NoError(t, err)
	assert.Same(t, scene, again)

	oldTex := scene.Texture(0)
	require.NoError(t, rc.Resize(128, 96))
	assert.Equal(t, uint16(128), scene.Width())
	assert.Equal(t, uint16(96), scene.Height())
	assert.False(t, rc.IsTextureValid(oldTex))
	assert.True(t, rc.IsTextureValid(scene.Texture(0)))
	assert.Equal(t, uint16(8), fixed.Width())

	assert.Error(t, rc.Resize(0, 10))
}

func TestRenderContext_ShutdownDestroysOnce(t *testing.T) {
	rc, backend, loader := newTestContext(t)
	loader.Add("Shaders/cs_blend.bin", []byte("cs"))
	rc.RegisterShaderProgram("Blend", "cs_blend")
	require.NoError(t, rc.UploadShaderProgram("Blend"))
	_, err := rc.CreateUniform("u_a", UniformVec4, 1)
	require.NoError(t, err)
	_, err = rc.CreateRenderTarget("rt", 0, 0, gputypes.TextureFormatRGBA8Unorm)
	require.NoError(t, err)
	_, err = rc.CreateDynamicBuffer(64, nil)
	require.NoError(t, err)

	require.Greater(t, backend.LiveTotal(), 0)
	rc.Shutdown()
	assert.Equal(t, 0, backend.LiveTotal())
	assert.Equal(t, 0, rc.LiveResources())

	destroys := len(backend.Commands())
	rc.Shutdown()
	assert.Equal(t, destroys, len(backend.Commands()))
}

func TestRenderContext_UpdateDynamicBufferBounds(t *testing.T) {
	rc, backend, _ := newTestContext(t)
	h, err := rc.CreateDynamicBuffer(32, nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() { rc.UpdateDynamicBuffer(h, 0, make([]byte, 32)) })
	assert.NotPanics(t, func() { rc.UpdateDynamicBuffer(h, 16, make([]byte, 16)) })
	assert.Panics(t, func() { rc.UpdateDynamicBuffer(h, 0, make([]byte, 48)) })
	assert.Panics(t, func() { rc.UpdateDynamicBuffer(h, 24, make([]byte, 16)) })
	assert.Equal(t, 2, backend.Count(CmdUpdateBuffer))

	static, err := rc.CreateVertexBuffer(make([]byte, 16), VertexLayout{Stride: 16})
	require.NoError(t, err)
	assert.Panics(t, func() { rc.UpdateDynamicBuffer(static, 0, make([]byte, 4)) })

	require.NoError(t, rc.DestroyBuffer(h))
	assert.Panics(t, func() { rc.UpdateDynamicBuffer(h, 0, nil) })

	_, err = rc.CreateDynamicBuffer(8, make([]byte, 16))
	assert.Error(t, err)
}
