package resource

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TextureData is a decoded image in tightly packed RGBA8.
type TextureData struct {
	Width  int
	Height int
	Pixels []byte
}

// IsContainerFormat reports whether path names a GPU texture container
// (dds, ktx) that is uploaded as-is instead of decoded.
func IsContainerFormat(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dds", ".ktx", ".ktx2":
		return true
	}
	return false
}

func DecodeTexture(data []byte) (TextureData, error) {
	if len(data) == 0 {
		return TextureData{}, fmt.Errorf("decode texture: empty data")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return TextureData{}, fmt.Errorf("decode texture: %w", err)
	}

	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*bounds.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	if rgba.Bounds().Empty() {
		return TextureData{}, fmt.Errorf("decode texture: empty %s image", format)
	}

	return TextureData{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: rgba.Pix,
	}, nil
}
