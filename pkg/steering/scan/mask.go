package scan

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MaskScanner uses OpenCV range masking to match pixels. It produces the
// same columns as PixelScanner; it exists for setups that already carry
// OpenCV and want to widen the signature into HSV-style tolerances later
// without touching the pipeline.
type MaskScanner struct {
	mu sync.Mutex // gocv Mats are not safe for concurrent reuse
}

// NewMaskScanner returns the OpenCV-backed scanner.
func NewMaskScanner() *MaskScanner {
	return &MaskScanner{}
}

// ScanRow builds a 1xW four-channel Mat over row y and applies an
// inclusive InRange mask with the signature's bounds.
func (s *MaskScanner) ScanRow(frame *image.RGBA, y int, sig Signature) ([]int, error) {
	if frame == nil {
		return nil, fmt.Errorf("nil frame")
	}
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty frame %dx%d", w, h)
	}
	if y < 0 || y >= h {
		return nil, fmt.Errorf("row %d outside frame height %d", y, h)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	off := frame.PixOffset(b.Min.X, b.Min.Y+y)
	row := frame.Pix[off : off+w*4]

	mat, err := gocv.NewMatFromBytes(1, w, gocv.MatTypeCV8UC4, row)
	if err != nil {
		return nil, fmt.Errorf("wrap row: %w", err)
	}
	defer mat.Close()

	// Mat channels follow the RGBA buffer order, so the scalars are
	// (R, G, B, A). Alpha is ignored by accepting its full range.
	lower := gocv.NewScalar(float64(sig.RMin), float64(sig.GMin), float64(sig.BMin), 0)
	upper := gocv.NewScalar(float64(sig.RMax), float64(sig.GMax), float64(sig.BMax), 255)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(mat, lower, upper, &mask)

	var cols []int
	for x := 0; x < w; x++ {
		if mask.GetUCharAt(0, x) != 0 {
			cols = append(cols, x)
		}
	}
	return cols, nil
}

// Close releases scanner resources.
func (s *MaskScanner) Close() error { return nil }
