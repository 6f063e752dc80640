package screen

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func TestEncodePNGRoundTrips(t *testing.T) {
	src := gradientImage(32, 16)
	data, err := EncodePNG(src)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), decoded.Bounds())
}

func TestDownscalePreservesAspectRatio(t *testing.T) {
	src := gradientImage(400, 300)
	out := Downscale(src, 200)
	assert.Equal(t, 200, out.Bounds().Dx())
	assert.Equal(t, 150, out.Bounds().Dy())
}

func TestDownscaleLeavesSmallImagesAlone(t *testing.T) {
	src := gradientImage(100, 80)
	assert.Same(t, image.Image(src), Downscale(src, 200))
	assert.Same(t, image.Image(src), Downscale(src, 100))
	assert.Same(t, image.Image(src), Downscale(src, 0), "a zero limit disables downscaling")
}

func TestSaveTimestamped(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveTimestamped(dir, gradientImage(8, 8))
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.Contains(t, path, "screenshot_")
}
