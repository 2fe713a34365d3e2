package gfx

import (
	"math"

	"github.com/gogpu/gputypes"
)

// ViewID is a logical render-pass slot. Commands submitted to lower ids
// execute first.
type ViewID uint16

const (
	MaxViewCount            = 255
	InvalidView      ViewID = math.MaxUint16
	defaultClearRGBA        = 0x303030ff
)

type RenderState uint64

const (
	StateWriteR RenderState = 1 << iota
	StateWriteG
	StateWriteB
	StateWriteA
	StateWriteZ
	StateDepthTestLess
	StateDepthTestLEqual
	StateDepthTestAlways
	StateCullCW
	StateCullCCW
	StateBlendAdd
	StateBlendAlpha
	StatePrimitiveLines
	StatePrimitiveLineStrip
	StateMSAA

	StateWriteRGB = StateWriteR | StateWriteG | StateWriteB
	StateDefault  = StateWriteRGB | StateWriteA | StateWriteZ | StateDepthTestLess | StateCullCCW | StateMSAA
)

type ClearFlags uint8

const (
	ClearNone  ClearFlags = 0
	ClearColor ClearFlags = 1 << iota
	ClearDepth
	ClearStencil
)

type UniformType uint8

const (
	UniformSampler UniformType = iota
	UniformVec4
	UniformMat3
	UniformMat4
)

// FloatsPerElement is the number of float32 values one array element takes.
func (t UniformType) FloatsPerElement() int {
	switch t {
	case UniformVec4:
		return 4
	case UniformMat3:
		return 12
	case UniformMat4:
		return 16
	}
	return 1
}

type SamplerFlags uint32

const (
	SamplerDefault SamplerFlags = 0
	SamplerUClamp  SamplerFlags = 1 << iota
	SamplerVClamp
	SamplerWClamp
	SamplerPoint
	SamplerCompareLEqual

	SamplerClamp = SamplerUClamp | SamplerVClamp | SamplerWClamp
)

type Access uint8

const (
	AccessRead Access = iota
	AccessWrite
	AccessReadWrite
)

type TextureDesc struct {
	Width   uint16
	Height  uint16
	Layers  uint16
	CubeMap bool
	Mips    bool
	Format  gputypes.TextureFormat
	Usage   gputypes.TextureUsage
	Sampler SamplerFlags
	// Container marks data as an encoded GPU container (dds/ktx) the backend parses itself.
	Container bool
}

type VertexAttribute struct {
	Name   string
	Format gputypes.VertexFormat
	Offset uint32
}

type VertexLayout struct {
	Stride     uint32
	Attributes []VertexAttribute
}

type BufferDesc struct {
	Size    uint32
	Usage   gputypes.BufferUsage
	Layout  VertexLayout
	Index32 bool
	Dynamic bool
}

// Caps describes backend conventions the renderer has to follow.
type Caps struct {
	// HomogeneousDepth is true for a -1..1 clip-space depth range.
	HomogeneousDepth bool
	OriginBottomLeft bool
	Compute          bool
	MaxViews         uint16
}
