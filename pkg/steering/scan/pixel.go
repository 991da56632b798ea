package scan

import (
	"fmt"
	"image"
)

// PixelScanner walks the RGBA buffer directly. No dependencies, no
// allocation beyond the result slice; fast enough for the narrow strips
// this tool captures.
type PixelScanner struct{}

// NewPixelScanner returns the plain in-process scanner.
func NewPixelScanner() *PixelScanner {
	return &PixelScanner{}
}

// ScanRow returns the matching columns of row y in ascending order.
func (s *PixelScanner) ScanRow(frame *image.RGBA, y int, sig Signature) ([]int, error) {
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

	var cols []int
	off := frame.PixOffset(b.Min.X, b.Min.Y+y)
	row := frame.Pix[off : off+w*4]
	for x := 0; x < w; x++ {
		i := x * 4
		if sig.Matches(row[i], row[i+1], row[i+2]) {
			cols = append(cols, x)
		}
	}
	return cols, nil
}

// Close is a no-op for the pixel scanner.
func (s *PixelScanner) Close() error { return nil }
