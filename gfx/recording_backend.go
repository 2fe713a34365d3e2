package gfx

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

type CommandKind uint8

const (
	CmdCreateShader CommandKind = iota
	CmdDestroyShader
	CmdCreateProgram
	CmdDestroyProgram
	CmdCreateUniform
	CmdDestroyUniform
	CmdCreateTexture
	CmdDestroyTexture
	CmdCreateFrameBuffer
	CmdDestroyFrameBuffer
	CmdCreateBuffer
	CmdUpdateBuffer
	CmdDestroyBuffer
	CmdSetViewName
	CmdSetViewRect
	CmdSetViewClear
	CmdSetViewFrameBuffer
	CmdSetViewTransform
	CmdSetScissor
	CmdSetTransform
	CmdSetState
	CmdSetVertexBuffer
	CmdSetIndexBuffer
	CmdSetTexture
	CmdSetImage
	CmdSetComputeBuffer
	CmdSetUniform
	CmdSubmit
	CmdDispatch
	CmdBlit
	CmdFrame

	cmdCount
)

var commandNames = [cmdCount]string{
	"CreateShader", "DestroyShader", "CreateProgram", "DestroyProgram",
	"CreateUniform", "DestroyUniform", "CreateTexture", "DestroyTexture",
	"CreateFrameBuffer", "DestroyFrameBuffer", "CreateBuffer", "UpdateBuffer", "DestroyBuffer",
	"SetViewName", "SetViewRect", "SetViewClear", "SetViewFrameBuffer", "SetViewTransform",
	"SetScissor", "SetTransform", "SetState", "SetVertexBuffer", "SetIndexBuffer",
	"SetTexture", "SetImage", "SetComputeBuffer", "SetUniform",
	"Submit", "Dispatch", "Blit", "Frame",
}

func (k CommandKind) String() string {
	if k >= cmdCount {
		return fmt.Sprintf("CommandKind(%d)", k)
	}
	return commandNames[k]
}

// Command is one recorded backend call. Only the fields relevant to Kind are set.
type Command struct {
	Kind        CommandKind
	View        ViewID
	Name        string
	Program     ProgramHandle
	Shader      ShaderHandle
	Texture     TextureHandle
	FrameBuffer FrameBufferHandle
	Uniform     UniformHandle
	Buffer      BufferHandle
	State       RenderState
	Clear       ClearFlags
	Access      Access
	Stage       uint8
	Rect        [4]uint16
	Groups      [3]uint32
	Matrix      mgl32.Mat4
	Proj        mgl32.Mat4
	Data        []float32
	Size        int
}

// RecordingBackend keeps the command stream in memory instead of driving a
// device. It backs headless runs and lets tests assert on pass output.
type RecordingBackend struct {
	caps     Caps
	commands []Command
	frame    uint32
	live     map[CommandKind]int

	// FailCreate, when set, is asked before every create call and may veto it.
	FailCreate func(kind CommandKind, name string) error
}

func NewRecordingBackend(caps Caps) *RecordingBackend {
	if caps.MaxViews == 0 {
		caps.MaxViews = MaxViewCount
	}
	return &RecordingBackend{caps: caps, live: make(map[CommandKind]int)}
}

func (b *RecordingBackend) Caps() Caps {
	return b.caps
}

func (b *RecordingBackend) record(c Command) {
	b.commands = append(b.commands, c)
}

func (b *RecordingBackend) create(c Command) error {
	if b.FailCreate != nil {
		if err := b.FailCreate(c.Kind, c.Name); err != nil {
			return err
		}
	}
	b.record(c)
	b.live[c.Kind]++
	return nil
}

func (b *RecordingBackend) destroy(c Command, createKind CommandKind) {
	b.record(c)
	b.live[createKind]--
}

func (b *RecordingBackend) CreateShader(h ShaderHandle, name string, code []byte) error {
	return b.create(Command{Kind: CmdCreateShader, Shader: h, Name: name, Size: len(code)})
}

func (b *RecordingBackend) DestroyShader(h ShaderHandle) {
	b.destroy(Command{Kind: CmdDestroyShader, Shader: h}, CmdCreateShader)
}

func (b *RecordingBackend) CreateProgram(h ProgramHandle, vs, fs ShaderHandle) error {
	return b.create(Command{Kind: CmdCreateProgram, Program: h, Shader: vs})
}

func (b *RecordingBackend) DestroyProgram(h ProgramHandle) {
	b.destroy(Command{Kind: CmdDestroyProgram, Program: h}, CmdCreateProgram)
}

func (b *RecordingBackend) CreateUniform(h UniformHandle, name string, typ UniformType, num uint16) error {
	return b.create(Command{Kind: CmdCreateUniform, Uniform: h, Name: name, Size: int(num)})
}

func (b *RecordingBackend) DestroyUniform(h UniformHandle) {
	b.destroy(Command{Kind: CmdDestroyUniform, Uniform: h}, CmdCreateUniform)
}

func (b *RecordingBackend) CreateTexture(h TextureHandle, desc TextureDesc, data []byte) error {
	return b.create(Command{
		Kind:    CmdCreateTexture,
		Texture: h,
		Rect:    [4]uint16{0, 0, desc.Width, desc.Height},
		Size:    len(data),
	})
}

func (b *RecordingBackend) DestroyTexture(h TextureHandle) {
	b.destroy(Command{Kind: CmdDestroyTexture, Texture: h}, CmdCreateTexture)
}

func (b *RecordingBackend) CreateFrameBuffer(h FrameBufferHandle, attachments []TextureHandle) error {
	return b.create(Command{Kind: CmdCreateFrameBuffer, FrameBuffer: h, Size: len(attachments)})
}

func (b *RecordingBackend) DestroyFrameBuffer(h FrameBufferHandle) {
	b.destroy(Command{Kind: CmdDestroyFrameBuffer, FrameBuffer: h}, CmdCreateFrameBuffer)
}

func (b *RecordingBackend) CreateBuffer(h BufferHandle, desc BufferDesc, data []byte) error {
	return b.create(Command{Kind: CmdCreateBuffer, Buffer: h, Size: int(desc.Size)})
}

func (b *RecordingBackend) UpdateBuffer(h BufferHandle, offset uint32, data []byte) {
	b.record(Command{Kind: CmdUpdateBuffer, Buffer: h, Size: len(data)})
}

func (b *RecordingBackend) DestroyBuffer(h BufferHandle) {
	b.destroy(Command{Kind: CmdDestroyBuffer, Buffer: h}, CmdCreateBuffer)
}

func (b *RecordingBackend) SetViewName(view ViewID, name string) {
	b.record(Command{Kind: CmdSetViewName, View: view, Name: name})
}

func (b *RecordingBackend) SetViewRect(view ViewID, x, y, width, height uint16) {
	b.record(Command{Kind: CmdSetViewRect, View: view, Rect: [4]uint16{x, y, width, height}})
}

func (b *RecordingBackend) SetViewClear(view ViewID, flags ClearFlags, rgba uint32, depth float32, stencil uint8) {
	b.record(Command{Kind: CmdSetViewClear, View: view, Clear: flags})
}

func (b *RecordingBackend) SetViewFrameBuffer(view ViewID, fb FrameBufferHandle) {
	b.record(Command{Kind: CmdSetViewFrameBuffer, View: view, FrameBuffer: fb})
}

func (b *RecordingBackend) SetViewTransform(view ViewID, viewMatrix, projMatrix mgl32.Mat4) {
	b.record(Command{Kind: CmdSetViewTransform, View: view, Matrix: viewMatrix, Proj: projMatrix})
}

func (b *RecordingBackend) SetScissor(x, y, width, height uint16) {
	b.record(Command{Kind: CmdSetScissor, Rect: [4]uint16{x, y, width, height}})
}

func (b *RecordingBackend) SetTransform(model mgl32.Mat4) {
	b.record(Command{Kind: CmdSetTransform, Matrix: model})
}

func (b *RecordingBackend) SetState(state RenderState) {
	b.record(Command{Kind: CmdSetState, State: state})
}

func (b *RecordingBackend) SetVertexBuffer(stream uint8, h BufferHandle) {
	b.record(Command{Kind: CmdSetVertexBuffer, Stage: stream, Buffer: h})
}

func (b *RecordingBackend) SetIndexBuffer(h BufferHandle) {
	b.record(Command{Kind: CmdSetIndexBuffer, Buffer: h})
}

func (b *RecordingBackend) SetTexture(stage uint8, sampler UniformHandle, texture TextureHandle, flags SamplerFlags) {
	b.record(Command{Kind: CmdSetTexture, Stage: stage, Uniform: sampler, Texture: texture})
}

func (b *RecordingBackend) SetImage(stage uint8, texture TextureHandle, access Access) {
	b.record(Command{Kind: CmdSetImage, Stage: stage, Texture: texture, Access: access})
}

func (b *RecordingBackend) SetComputeBuffer(stage uint8, h BufferHandle, access Access) {
	b.record(Command{Kind: CmdSetComputeBuffer, Stage: stage, Buffer: h, Access: access})
}

func (b *RecordingBackend) SetUniform(h UniformHandle, data []float32, num uint16) {
	b.record(Command{Kind: CmdSetUniform, Uniform: h, Data: slices.Clone(data), Size: int(num)})
}

func (b *RecordingBackend) Submit(view ViewID, program ProgramHandle) {
	b.record(Command{Kind: CmdSubmit, View: view, Program: program})
}

func (b *RecordingBackend) Dispatch(view ViewID, program ProgramHandle, x, y, z uint32) {
	b.record(Command{Kind: CmdDispatch, View: view, Program: program, Groups: [3]uint32{x, y, z}})
}

func (b *RecordingBackend) Blit(view ViewID, dst, src TextureHandle) {
	b.record(Command{Kind: CmdBlit, View: view, Texture: dst})
}

func (b *RecordingBackend) Frame() uint32 {
	b.record(Command{Kind: CmdFrame})
	b.frame++
	return b.frame
}

func (b *RecordingBackend) Commands() []Command {
	return b.commands
}

// Filter returns the recorded commands of the given kinds, in order.
func (b *RecordingBackend) Filter(kinds ...CommandKind) []Command {
	var out []Command
	for _, c := range b.commands {
		if slices.Contains(kinds, c.Kind) {
			out = append(out, c)
		}
	}
	return out
}

func (b *RecordingBackend) Count(kind CommandKind) int {
	n := 0
	for _, c := range b.commands {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Live returns how many resources created with kind are still alive.
func (b *RecordingBackend) Live(kind CommandKind) int {
	return b.live[kind]
}

func (b *RecordingBackend) LiveTotal() int {
	n := 0
	for _, v := range b.live {
		n += v
	}
	return n
}

// Reset drops recorded commands but keeps live resource counts.
func (b *RecordingBackend) Reset() {
	b.commands = b.commands[:0]
}

func (b *RecordingBackend) FrameNumber() uint32 {
	return b.frame
}
