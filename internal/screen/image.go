package screen

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/nfnt/resize"
	"github.com/vcaesar/imgo"
)

// EncodePNG renders an image to PNG bytes for API transmission.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Downscale shrinks an image to at most maxWidth pixels wide, preserving
// aspect ratio. Images at or below the limit are returned unchanged. Uploads
// are capped this way to keep vision-API payloads small.
func Downscale(img image.Image, maxWidth int) image.Image {
	if maxWidth <= 0 || img.Bounds().Dx() <= maxWidth {
		return img
	}
	return resize.Resize(uint(maxWidth), 0, img, resize.Lanczos3)
}

// SaveTimestamped writes a debug copy of a capture under dir with a
// timestamped filename and returns the path.
func SaveTimestamped(dir string, img image.Image) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102-150405")))
	if err := imgo.Save(path, img); err != nil {
		return "", fmt.Errorf("failed to save screenshot: %w", err)
	}
	return path, nil
}
