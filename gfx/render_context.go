package gfx

import (
	"fmt"
	"hash/fnv"
	"path"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gekko3d/lumen/logging"
	"github.com/gekko3d/lumen/resource"
	"github.com/gekko3d/lumen/shader"
)

type textureEntry struct {
	name string
	desc TextureDesc
}

type frameBufferEntry struct {
	width       uint16
	height      uint16
	attachments []TextureHandle
}

type uniformEntry struct {
	name string
	typ  UniformType
	num  uint16
}

type programKey struct {
	name    string
	combine string
}

type programEntry struct {
	key     programKey
	shaders []ShaderHandle
}

type Options struct {
	Logger    logging.Logger
	ShaderDir string
	Width     uint16
	Height    uint16
}

// RenderContext owns every GPU resource of the engine. Everything else holds
// plain handles; a handle is valid until the context destroys it.
type RenderContext struct {
	backend  Backend
	loader   resource.Loader
	logger   logging.Logger
	caps     Caps
	variants *shader.ShaderVariantCollections

	shaderDir string
	width     uint16
	height    uint16

	viewCount uint16
	viewNames []string

	textures     SlotMap[textureKind, textureEntry]
	frameBuffers SlotMap[frameBufferKind, frameBufferEntry]
	uniforms     SlotMap[uniformKind, uniformEntry]
	shaders      SlotMap[shaderKind, string]
	programs     SlotMap[programKind, programEntry]
	buffers      SlotMap[bufferKind, BufferDesc]

	textureCache  map[string]TextureHandle
	uniformCache  map[string]UniformHandle
	shaderCache   map[string]ShaderHandle
	programCache  map[programKey]ProgramHandle
	renderTargets map[string]*RenderTarget
	targetOrder   []string

	shutdown bool
}

func NewRenderContext(backend Backend, loader resource.Loader, opts Options) *RenderContext {
	logger := logging.OrNop(opts.Logger)
	if opts.ShaderDir == "" {
		opts.ShaderDir = "Shaders"
	}
	if opts.Width == 0 {
		opts.Width = 1280
	}
	if opts.Height == 0 {
		opts.Height = 720
	}
	return &RenderContext{
		backend:       backend,
		loader:        loader,
		logger:        logger,
		caps:          backend.Caps(),
		variants:      shader.NewShaderVariantCollections(logger),
		shaderDir:     opts.ShaderDir,
		width:         opts.Width,
		height:        opts.Height,
		textureCache:  make(map[string]TextureHandle),
		uniformCache:  make(map[string]UniformHandle),
		shaderCache:   make(map[string]ShaderHandle),
		programCache:  make(map[programKey]ProgramHandle),
		renderTargets: make(map[string]*RenderTarget),
	}
}

func (c *RenderContext) Caps() Caps {
	return c.caps
}

func (c *RenderContext) Loader() resource.Loader {
	return c.loader
}

func (c *RenderContext) Logger() logging.Logger {
	return c.logger
}

func (c *RenderContext) ShaderVariants() *shader.ShaderVariantCollections {
	return c.variants
}

func (c *RenderContext) BackBufferSize() (uint16, uint16) {
	return c.width, c.height
}

// CreateView hands out the next free view id. Running out of ids panics.
func (c *RenderContext) CreateView(name string) ViewID {
	limit := uint16(MaxViewCount)
	if c.caps.MaxViews != 0 && c.caps.MaxViews < limit {
		limit = c.caps.MaxViews
	}
	if c.viewCount >= limit {
		panic(fmt.Sprintf("view ids exhausted (%d) while creating %s", limit, name))
	}
	view := ViewID(c.viewCount)
	c.viewCount++
	c.viewNames = append(c.viewNames, name)
	c.backend.SetViewName(view, name)
	return view
}

// CreateViews reserves count consecutive view ids and returns the first.
func (c *RenderContext) CreateViews(name string, count int) ViewID {
	first := InvalidView
	for i := 0; i < count; i++ {
		view := c.CreateView(fmt.Sprintf("%s_%d", name, i))
		if i == 0 {
			first = view
		}
	}
	return first
}

func (c *RenderContext) ViewCount() uint16 {
	return c.viewCount
}

func (c *RenderContext) ViewName(view ViewID) string {
	if int(view) < len(c.viewNames) {
		return c.viewNames[view]
	}
	return ""
}

// Shaders

// ShaderPath is the loader path of a compiled shader binary. Uber variants
// carry a hash of their combine in the file name.
func (c *RenderContext) ShaderPath(shaderName string, combine string) string {
	if combine == "" {
		return path.Join(c.shaderDir, shaderName+".bin")
	}
	h := fnv.New32a()
	h.Write([]byte(combine))
	return path.Join(c.shaderDir, fmt.Sprintf("%s_%08x.bin", shaderName, h.Sum32()))
}

func (c *RenderContext) RegisterShaderProgram(program string, shaders ...string) {
	c.variants.RegisterNonUberShader(program, shaders)
}

func (c *RenderContext) RegisterUberShaderProgram(program string, shaders []string, combines []string) {
	c.variants.RegisterUberShader(program, shaders, combines)
}

// CheckShaderProgram reports whether every binary of every variant of
// program is available from the loader.
func (c *RenderContext) CheckShaderProgram(program string) bool {
	if !c.variants.IsRegistered(program) {
		return false
	}
	for _, combine := range c.variants.GetFeatureCombines(program) {
		for _, name := range c.variants.GetShaders(program) {
			if !c.loader.Exists(c.ShaderPath(name, combine)) {
				return false
			}
		}
	}
	return true
}

// UploadShaderProgram creates every variant of program that is not created yet.
func (c *RenderContext) UploadShaderProgram(program string) error {
	if !c.variants.IsRegistered(program) {
		return fmt.Errorf("upload %s: program not registered: %w", program, ErrResourceMissing)
	}
	for _, combine := range c.variants.GetFeatureCombines(program) {
		if _, err := c.uploadVariant(program, combine); err != nil {
			return err
		}
	}
	return nil
}

func (c *RenderContext) uploadVariant(program string, combine string) (ProgramHandle, error) {
	key := programKey{name: program, combine: combine}
	if h, ok := c.programCache[key]; ok {
		return h, nil
	}

	names := c.variants.GetShaders(program)
	if len(names) == 0 || len(names) > 2 {
		return InvalidProgram, fmt.Errorf("upload %s: expected 1 or 2 shaders, got %d", program, len(names))
	}

	handles := make([]ShaderHandle, 0, len(names))
	for _, name := range names {
		sh, err := c.loadShader(c.ShaderPath(name, combine))
		if err != nil {
			return InvalidProgram, fmt.Errorf("upload %s[%s]: %w", program, combine, err)
		}
		handles = append(handles, sh)
	}

	h, err := c.programs.Insert(programEntry{key: key, shaders: handles})
	if err != nil {
		return InvalidProgram, err
	}
	fs := InvalidShader
	if len(handles) == 2 {
		fs = handles[1]
	}
	if err := c.backend.CreateProgram(h, handles[0], fs); err != nil {
		c.programs.Remove(h)
		return InvalidProgram, fmt.Errorf("create program %s[%s]: %w: %v", program, combine, ErrResourceCreation, err)
	}
	c.programCache[key] = h
	c.logger.Debugf("program %s[%s] created as %s", program, combine, h)
	return h, nil
}

func (c *RenderContext) loadShader(file string) (ShaderHandle, error) {
	if h, ok := c.shaderCache[file]; ok {
		return h, nil
	}
	code := c.loader.Load(file)
	if len(code) == 0 {
		return InvalidShader, fmt.Errorf("shader %s: %w", file, ErrResourceMissing)
	}
	h, err := c.shaders.Insert(file)
	if err != nil {
		return InvalidShader, err
	}
	if err := c.backend.CreateShader(h, file, code); err != nil {
		c.shaders.Remove(h)
		return InvalidShader, fmt.Errorf("create shader %s: %w: %v", file, ErrResourceCreation, err)
	}
	c.shaderCache[file] = h
	return h, nil
}

// GetShaderProgram returns InvalidProgram for variants never uploaded.
func (c *RenderContext) GetShaderProgram(program string, combine string) ProgramHandle {
	if h, ok := c.programCache[programKey{name: program, combine: combine}]; ok {
		return h
	}
	return InvalidProgram
}

// Uniforms

// CreateUniform returns the existing handle when name is already created.
func (c *RenderContext) CreateUniform(name string, typ UniformType, num uint16) (UniformHandle, error) {
	if h, ok := c.uniformCache[name]; ok {
		return h, nil
	}
	if num == 0 {
		num = 1
	}
	h, err := c.uniforms.Insert(uniformEntry{name: name, typ: typ, num: num})
	if err != nil {
		return InvalidUniform, err
	}
	if err := c.backend.CreateUniform(h, name, typ, num); err != nil {
		c.uniforms.Remove(h)
		return InvalidUniform, fmt.Errorf("create uniform %s: %w: %v", name, ErrResourceCreation, err)
	}
	c.uniformCache[name] = h
	return h, nil
}

func (c *RenderContext) GetUniform(name string) UniformHandle {
	if h, ok := c.uniformCache[name]; ok {
		return h
	}
	return InvalidUniform
}

// FillUniform uploads data to a created uniform. The element count is
// derived from the uniform type. Unknown names panic.
func (c *RenderContext) FillUniform(name string, data []float32) {
	h, ok := c.uniformCache[name]
	if !ok {
		panic(fmt.Sprintf("uniform %s is not created", name))
	}
	entry, _ := c.uniforms.Get(h)
	per := entry.typ.FloatsPerElement()
	num := uint16((len(data) + per - 1) / per)
	if num > entry.num {
		panic(fmt.Sprintf("uniform %s holds %d elements, got %d", name, entry.num, num))
	}
	c.backend.SetUniform(h, data, num)
}

func (c *RenderContext) FillVec4(name string, v mgl32.Vec4) {
	c.FillUniform(name, v[:])
}

func (c *RenderContext) FillMat4(name string, m mgl32.Mat4) {
	c.FillUniform(name, m[:])
}

// Textures

// CreateTextureFromFile uploads the texture at path once; later calls with
// the same path return the cached handle without touching the backend.
func (c *RenderContext) CreateTextureFromFile(file string, flags SamplerFlags) (TextureHandle, error) {
	if h, ok := c.textureCache[file]; ok {
		return h, nil
	}

	data := c.loader.Load(file)
	if len(data) == 0 {
		return InvalidTexture, fmt.Errorf("texture %s: %w", file, ErrResourceMissing)
	}

	desc := TextureDesc{
		Format:  gputypes.TextureFormatRGBA8Unorm,
		Usage:   gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
		Sampler: flags,
	}
	if resource.IsContainerFormat(file) {
		desc.Container = true
	} else {
		img, err := resource.DecodeTexture(data)
		if err != nil {
			return InvalidTexture, fmt.Errorf("texture %s: %w", file, err)
		}
		desc.Width = uint16(img.Width)
		desc.Height = uint16(img.Height)
		data = img.Pixels
	}
	return c.CreateTexture(file, desc, data)
}

// CreateTexture creates a texture, or returns the cached one when name was
// used before. An empty name is never cached.
func (c *RenderContext) CreateTexture(name string, desc TextureDesc, data []byte) (TextureHandle, error) {
	if name != "" {
		if h, ok := c.textureCache[name]; ok {
			return h, nil
		}
	}
	h, err := c.textures.Insert(textureEntry{name: name, desc: desc})
	if err != nil {
		return InvalidTexture, err
	}
	if err := c.backend.CreateTexture(h, desc, data); err != nil {
		c.textures.Remove(h)
		return InvalidTexture, fmt.Errorf("create texture %s: %w: %v", name, ErrResourceCreation, err)
	}
	if name != "" {
		c.textureCache[name] = h
	}
	return h, nil
}

func (c *RenderContext) GetTexture(name string) TextureHandle {
	if h, ok := c.textureCache[name]; ok {
		return h
	}
	return InvalidTexture
}

func (c *RenderContext) IsTextureValid(h TextureHandle) bool {
	return c.textures.Contains(h)
}

func (c *RenderContext) DestroyTexture(h TextureHandle) error {
	entry, err := c.textures.Remove(h)
	if err != nil {
		return fmt.Errorf("destroy texture: %w", err)
	}
	if entry.name != "" && c.textureCache[entry.name] == h {
		delete(c.textureCache, entry.name)
	}
	c.backend.DestroyTexture(h)
	return nil
}

// Frame buffers

// CreateFrameBuffer creates one attachment texture per format and a frame
// buffer over them. The attachments are destroyed with the frame buffer.
func (c *RenderContext) CreateFrameBuffer(width, height uint16, formats ...gputypes.TextureFormat) (FrameBufferHandle, error) {
	if len(formats) == 0 {
		return InvalidFrameBuffer, fmt.Errorf("create frame buffer: no attachments")
	}

	attachments := make([]TextureHandle, 0, len(formats))
	rollback := func() {
		for _, t := range attachments {
			c.DestroyTexture(t)
		}
	}
	for _, format := range formats {
		t, err := c.CreateTexture("", TextureDesc{
			Width:   width,
			Height:  height,
			Format:  format,
			Usage:   gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
			Sampler: SamplerClamp,
		}, nil)
		if err != nil {
			rollback()
			return InvalidFrameBuffer, err
		}
		attachments = append(attachments, t)
	}

	h, err := c.frameBuffers.Insert(frameBufferEntry{width: width, height: height, attachments: attachments})
	if err != nil {
		rollback()
		return InvalidFrameBuffer, err
	}
	if err := c.backend.CreateFrameBuffer(h, attachments); err != nil {
		c.frameBuffers.Remove(h)
		rollback()
		return InvalidFrameBuffer, fmt.Errorf("create frame buffer %dx%d: %w: %v", width, height, ErrResourceCreation, err)
	}
	return h, nil
}

func (c *RenderContext) IsFrameBufferValid(h FrameBufferHandle) bool {
	return c.frameBuffers.Contains(h)
}

func (c *RenderContext) DestroyFrameBuffer(h FrameBufferHandle) error {
	entry, err := c.frameBuffers.Remove(h)
	if err != nil {
		return fmt.Errorf("destroy frame buffer: %w", err)
	}
	c.backend.DestroyFrameBuffer(h)
	for _, t := range entry.attachments {
		c.DestroyTexture(t)
	}
	return nil
}

// GetFrameBufferTexture returns InvalidTexture for a stale frame buffer or
// an attachment index out of range.
func (c *RenderContext) GetFrameBufferTexture(h FrameBufferHandle, attachment int) TextureHandle {
	entry, ok := c.frameBuffers.Get(h)
	if !ok || attachment < 0 || attachment >= len(entry.attachments) {
		return InvalidTexture
	}
	return entry.attachments[attachment]
}

func (c *RenderContext) FrameBufferSize(h FrameBufferHandle) (uint16, uint16) {
	entry, _ := c.frameBuffers.Get(h)
	return entry.width, entry.height
}

// Buffers

func (c *RenderContext) createBuffer(desc BufferDesc, data []byte) (BufferHandle, error) {
	if desc.Size == 0 {
		desc.Size = uint32(len(data))
	}
	if uint64(len(data)) > uint64(desc.Size) {
		return InvalidBuffer, fmt.Errorf("create buffer: %d bytes of data for %d-byte buffer", len(data), desc.Size)
	}
	h, err := c.buffers.Insert(desc)
	if err != nil {
		return InvalidBuffer, err
	}
	if err := c.backend.CreateBuffer(h, desc, data); err != nil {
		c.buffers.Remove(h)
		return InvalidBuffer, fmt.Errorf("create buffer: %w: %v", ErrResourceCreation, err)
	}
	return h, nil
}

func (c *RenderContext) CreateVertexBuffer(data []byte, layout VertexLayout) (BufferHandle, error) {
	return c.createBuffer(BufferDesc{Usage: gputypes.BufferUsageVertex, Layout: layout}, data)
}

func (c *RenderContext) CreateIndexBuffer(data []byte, index32 bool) (BufferHandle, error) {
	return c.createBuffer(BufferDesc{Usage: gputypes.BufferUsageIndex, Index32: index32}, data)
}

// CreateDynamicBuffer creates a storage buffer compute passes read and write.
func (c *RenderContext) CreateDynamicBuffer(size uint32, data []byte) (BufferHandle, error) {
	return c.createBuffer(BufferDesc{
		Size:    size,
		Usage:   gputypes.BufferUsageStorage | gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
		Dynamic: true,
	}, data)
}

// UpdateDynamicBuffer writes data at offset. A stale handle, a static buffer
// or a write past the end of the buffer panics.
func (c *RenderContext) UpdateDynamicBuffer(h BufferHandle, offset uint32, data []byte) {
	desc, ok := c.buffers.Get(h)
	if !ok {
		panic(fmt.Sprintf("buffer handle %s is stale", h))
	}
	if !desc.Dynamic {
		panic(fmt.Sprintf("buffer %s is not dynamic", h))
	}
	if end := uint64(offset) + uint64(len(data)); end > uint64(desc.Size) {
		panic(fmt.Sprintf("buffer %s: update of %d bytes at offset %d exceeds its %d bytes", h, len(data), offset, desc.Size))
	}
	c.backend.UpdateBuffer(h, offset, data)
}

func (c *RenderContext) IsBufferValid(h BufferHandle) bool {
	return c.buffers.Contains(h)
}

func (c *RenderContext) DestroyBuffer(h BufferHandle) error {
	if _, err := c.buffers.Remove(h); err != nil {
		return fmt.Errorf("destroy buffer: %w", err)
	}
	c.backend.DestroyBuffer(h)
	return nil
}

// Command encoding

func (c *RenderContext) SetViewRect(view ViewID, x, y, width, height uint16) {
	c.backend.SetViewRect(view, x, y, width, height)
}

func (c *RenderContext) SetViewClear(view ViewID, flags ClearFlags, rgba uint32, depth float32) {
	c.backend.SetViewClear(view, flags, rgba, depth, 0)
}

// SetViewFrameBuffer binds fb to view. InvalidFrameBuffer targets the back buffer.
func (c *RenderContext) SetViewFrameBuffer(view ViewID, fb FrameBufferHandle) {
	if fb.IsValid() && !c.frameBuffers.Contains(fb) {
		panic(fmt.Sprintf("frame buffer handle %s is stale", fb))
	}
	c.backend.SetViewFrameBuffer(view, fb)
}

func (c *RenderContext) SetViewTransform(view ViewID, viewMatrix, projMatrix mgl32.Mat4) {
	c.backend.SetViewTransform(view, viewMatrix, projMatrix)
}

func (c *RenderContext) SetScissor(x, y, width, height uint16) {
	c.backend.SetScissor(x, y, width, height)
}

func (c *RenderContext) SetTransform(model mgl32.Mat4) {
	c.backend.SetTransform(model)
}

func (c *RenderContext) SetState(state RenderState) {
	c.backend.SetState(state)
}

func (c *RenderContext) SetVertexBuffer(stream uint8, h BufferHandle) {
	if !c.buffers.Contains(h) {
		panic(fmt.Sprintf("vertex buffer handle %s is stale", h))
	}
	c.backend.SetVertexBuffer(stream, h)
}

func (c *RenderContext) SetIndexBuffer(h BufferHandle) {
	if !c.buffers.Contains(h) {
		panic(fmt.Sprintf("index buffer handle %s is stale", h))
	}
	c.backend.SetIndexBuffer(h)
}

// SetTexture binds texture to stage through the sampler uniform named sampler.
func (c *RenderContext) SetTexture(stage uint8, sampler string, texture TextureHandle, flags SamplerFlags) {
	u, ok := c.uniformCache[sampler]
	if !ok {
		panic(fmt.Sprintf("sampler %s is not created", sampler))
	}
	if !c.textures.Contains(texture) {
		panic(fmt.Sprintf("texture handle %s bound to %s is stale", texture, sampler))
	}
	c.backend.SetTexture(stage, u, texture, flags)
}

func (c *RenderContext) SetImage(stage uint8, texture TextureHandle, access Access) {
	if !c.textures.Contains(texture) {
		panic(fmt.Sprintf("image handle %s is stale", texture))
	}
	c.backend.SetImage(stage, texture, access)
}

func (c *RenderContext) SetComputeBuffer(stage uint8, h BufferHandle, access Access) {
	if !c.buffers.Contains(h) {
		panic(fmt.Sprintf("compute buffer handle %s is stale", h))
	}
	c.backend.SetComputeBuffer(stage, h, access)
}

func (c *RenderContext) Submit(view ViewID, program ProgramHandle) {
	if !c.programs.Contains(program) {
		panic(fmt.Sprintf("program handle %s is stale", program))
	}
	c.backend.Submit(view, program)
}

func (c *RenderContext) Dispatch(view ViewID, program ProgramHandle, x, y, z uint32) {
	if !c.programs.Contains(program) {
		panic(fmt.Sprintf("program handle %s is stale", program))
	}
	c.backend.Dispatch(view, program, x, y, z)
}

func (c *RenderContext) Blit(view ViewID, dst, src TextureHandle) {
	if !c.textures.Contains(dst) || !c.textures.Contains(src) {
		panic(fmt.Sprintf("blit %s <- %s uses a stale texture", dst, src))
	}
	c.backend.Blit(view, dst, src)
}

func (c *RenderContext) Frame() uint32 {
	return c.backend.Frame()
}

// LiveResources counts handles the context still owns.
func (c *RenderContext) LiveResources() int {
	return c.textures.Len() + c.frameBuffers.Len() + c.uniforms.Len() +
		c.shaders.Len() + c.programs.Len() + c.buffers.Len()
}

// Shutdown destroys every live resource exactly once. Later calls do nothing.
func (c *RenderContext) Shutdown() {
	if c.shutdown {
		return
	}
	c.shutdown = true

	for _, h := range c.frameBuffers.Handles() {
		c.DestroyFrameBuffer(h)
	}
	for _, h := range c.textures.Handles() {
		c.DestroyTexture(h)
	}
	for _, h := range c.buffers.Handles() {
		c.DestroyBuffer(h)
	}
	for _, h := range c.uniforms.Handles() {
		c.uniforms.Remove(h)
		c.backend.DestroyUniform(h)
	}
	for _, h := range c.programs.Handles() {
		c.programs.Remove(h)
		c.backend.DestroyProgram(h)
	}
	for _, h := range c.shaders.Handles() {
		c.shaders.Remove(h)
		c.backend.DestroyShader(h)
	}

	clear(c.textureCache)
	clear(c.uniformCache)
	clear(c.shaderCache)
	clear(c.programCache)
	clear(c.renderTargets)
	c.targetOrder = nil
	c.logger.Debugf("render context shut down")
}
