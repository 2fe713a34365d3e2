package resource

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestFileLoader_MissingFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.bin"), []byte{1, 2, 3}, 0o644))

	l := NewFileLoader(dir, nil)
	assert.Equal(t, []byte{1, 2, 3}, l.Load("a.bin"))
	assert.True(t, l.Exists("a.bin"))

	assert.Empty(t, l.Load("missing.bin"))
	assert.False(t, l.Exists("missing.bin"))
	assert.False(t, l.Exists("."))
}

func TestMemoryLoader(t *testing.T) {
	l := NewMemoryLoader()
	l.Add("Shaders/vs_skybox.bin", []byte("vs"))

	assert.True(t, l.Exists("Shaders/vs_skybox.bin"))
	assert.Equal(t, []byte("vs"), l.Load("Shaders/vs_skybox.bin"))

	l.Remove("Shaders/vs_skybox.bin")
	assert.Nil(t, l.Load("Shaders/vs_skybox.bin"))
}

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 3))
	img.Set(1, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	return img
}

func TestDecodeTexture(t *testing.T) {
	tests := []struct {
		name   string
		encode func(*bytes.Buffer) error
	}{
		{"png", func(b *bytes.Buffer) error { return png.Encode(b, testImage()) }},
		{"bmp", func(b *bytes.Buffer) error { return bmp.Encode(b, testImage()) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.encode(&buf))

			tex, err := DecodeTexture(buf.Bytes())
			require.NoError(t, err)
			assert.Equal(t, 2, tex.Width)
			assert.Equal(t, 3, tex.Height)
			require.Len(t, tex.Pixels, 2*3*4)

			last := tex.Pixels[len(tex.Pixels)-4:]
			assert.Equal(t, []byte{10, 20, 30, 255}, last)
		})
	}
}

func TestDecodeTexture_Errors(t *testing.T) {
	_, err := DecodeTexture(nil)
	assert.Error(t, err)

	_, err = DecodeTexture([]byte("not an image"))
	assert.Error(t, err)
}

func TestIsContainerFormat(t *testing.T) {
	assert.True(t, IsContainerFormat("Textures/skybox/defaultSkybox_irr.dds"))
	assert.True(t, IsContainerFormat("a.KTX"))
	assert.False(t, IsContainerFormat("a.png"))
}
