package capture

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// ScreenSource captures a region of the local display.
type ScreenSource struct {
	display int
}

// NewScreen creates a display source and verifies up front that roi
// lies inside the display bounds. A region hanging off the screen can
// never produce a usable signal, so it is rejected before the loop
// starts rather than discovered mid-drive.
func NewScreen(display int, roi image.Rectangle) (*ScreenSource, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays")
	}
	if display < 0 || display >= n {
		return nil, fmt.Errorf("display %d out of range (%d active)", display, n)
	}

	bounds := screenshot.GetDisplayBounds(display)
	if !roi.In(bounds) {
		return nil, fmt.Errorf("ROI %v outside display %d bounds %v", roi, display, bounds)
	}
	return &ScreenSource{display: display}, nil
}

// Capture grabs the region in display coordinates. The returned buffer
// has bounds starting at (0,0).
func (s *ScreenSource) Capture(roi image.Rectangle) (*image.RGBA, error) {
	img, err := screenshot.CaptureRect(roi)
	if err != nil {
		return nil, fmt.Errorf("capture %v: %w", roi, err)
	}
	if img == nil || img.Bounds().Dx() != roi.Dx() || img.Bounds().Dy() != roi.Dy() {
		return nil, fmt.Errorf("capture returned wrong dimensions for %v", roi)
	}
	return img, nil
}

// Close is a no-op for the display source.
func (s *ScreenSource) Close() error { return nil }
