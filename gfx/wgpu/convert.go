package wgpu

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"

	"github.com/gekko3d/lumen/gfx"
)

var ErrUnsupportedFormat = errors.New("unsupported texture format")

func textureFormat(f gputypes.TextureFormat) (wgpu.TextureFormat, error) {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm, nil
	case gputypes.TextureFormatR8Unorm:
		return wgpu.TextureFormatR8Unorm, nil
	case gputypes.TextureFormatR32Float:
		return wgpu.TextureFormatR32Float, nil
	case gputypes.TextureFormatRG32Float:
		return wgpu.TextureFormatRG32Float, nil
	case gputypes.TextureFormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float, nil
	case gputypes.TextureFormatDepth32Float:
		return wgpu.TextureFormatDepth32Float, nil
	case gputypes.TextureFormatDepth24PlusStencil8:
		return wgpu.TextureFormatDepth24PlusStencil8, nil
	}
	return 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
}

func isDepthFormat(f gputypes.TextureFormat) bool {
	return f == gputypes.TextureFormatDepth32Float || f == gputypes.TextureFormatDepth24PlusStencil8
}

// bytesPerPixel is zero for formats that cannot be uploaded from the CPU.
func bytesPerPixel(f gputypes.TextureFormat) uint32 {
	switch f {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatR32Float:
		return 4
	case gputypes.TextureFormatRG32Float, gputypes.TextureFormatRGBA16Float:
		return 8
	}
	return 0
}

// textureUsage always allows copies so views can be blitted and re-uploaded.
func textureUsage(u gputypes.TextureUsage) wgpu.TextureUsage {
	usage := wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst
	if u&gputypes.TextureUsageTextureBinding != 0 {
		usage |= wgpu.TextureUsageTextureBinding
	}
	if u&gputypes.TextureUsageRenderAttachment != 0 {
		usage |= wgpu.TextureUsageRenderAttachment
	}
	return usage
}

func bufferUsage(u gputypes.BufferUsage) wgpu.BufferUsage {
	usage := wgpu.BufferUsageCopyDst
	if u&gputypes.BufferUsageVertex != 0 {
		usage |= wgpu.BufferUsageVertex
	}
	if u&gputypes.BufferUsageIndex != 0 {
		usage |= wgpu.BufferUsageIndex
	}
	if u&gputypes.BufferUsageStorage != 0 {
		usage |= wgpu.BufferUsageStorage
	}
	return usage
}

// align4 rounds n up to the copy alignment WriteBuffer requires.
func align4(n uint64) uint64 {
	return (n + 3) &^ 3
}

func mipLevels(width, height uint32) uint32 {
	return uint32(bits.Len32(max(width, height, 1)))
}

// clearColor unpacks 0xRRGGBBAA.
func clearColor(rgba uint32) wgpu.Color {
	return wgpu.Color{
		R: float64(rgba>>24&0xff) / 255,
		G: float64(rgba>>16&0xff) / 255,
		B: float64(rgba>>8&0xff) / 255,
		A: float64(rgba&0xff) / 255,
	}
}

func loadOp(flags, clear gfx.ClearFlags) wgpu.LoadOp {
	if flags&clear != 0 {
		return wgpu.LoadOpClear
	}
	return wgpu.LoadOpLoad
}
