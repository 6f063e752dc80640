package screen

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// Capturer produces snapshots of the desktop.
type Capturer interface {
	Capture() (*image.RGBA, error)
	CaptureRegion(r image.Rectangle) (*image.RGBA, error)
}

// DisplayCapturer captures the primary display.
type DisplayCapturer struct{}

// NewDisplayCapturer returns the production capturer, failing when no display
// is reachable (headless session or missing capture permission).
func NewDisplayCapturer() (*DisplayCapturer, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("no active display found: screen capture unavailable")
	}
	return &DisplayCapturer{}, nil
}

// Capture grabs the full primary display.
func (c *DisplayCapturer) Capture() (*image.RGBA, error) {
	bounds := screenshot.GetDisplayBounds(0)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("screen capture failed: %w", err)
	}
	return img, nil
}

// CaptureRegion grabs a sub-rectangle of the primary display.
func (c *DisplayCapturer) CaptureRegion(r image.Rectangle) (*image.RGBA, error) {
	img, err := screenshot.CaptureRect(r)
	if err != nil {
		return nil, fmt.Errorf("region capture failed: %w", err)
	}
	return img, nil
}
