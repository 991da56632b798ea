package capture

import (
	"fmt"
	"image"
	"io"
	"os"
	"sync"
)

// bytesPerPixel is the RGBA frame layout used by replay files: raw
// frames of width*height*4 bytes, back to back, no header.
const bytesPerPixel = 4

// ReplaySource reads recorded raw-RGBA frames from a file, one frame
// per capture. Useful for tuning the signature and gains against a
// recorded drive without the game running.
type ReplaySource struct {
	mu     sync.Mutex
	f      *os.File
	width  int
	height int
	loop   bool
}

// NewReplay opens a raw frame recording with the given frame
// dimensions. When loop is set, capture wraps around at end of file;
// otherwise it returns io.EOF-wrapped errors once exhausted.
func NewReplay(path string, width, height int, loop bool) (*ReplaySource, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid replay dimensions %dx%d", width, height)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}

	frameSize := int64(width * height * bytesPerPixel)
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat replay: %w", err)
	}
	if info.Size() == 0 || info.Size()%frameSize != 0 {
		f.Close()
		return nil, fmt.Errorf("replay size %d is not a multiple of frame size %d", info.Size(), frameSize)
	}

	return &ReplaySource{f: f, width: width, height: height, loop: loop}, nil
}

// Capture returns the next recorded frame. roi must match the recorded
// dimensions; the recording has no display context, so the offset part
// of the ROI is ignored.
func (r *ReplaySource) Capture(roi image.Rectangle) (*image.RGBA, error) {
	if roi.Dx() != r.width || roi.Dy() != r.height {
		return nil, fmt.Errorf("ROI %dx%d does not match recording %dx%d",
			roi.Dx(), roi.Dy(), r.width, r.height)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	buf := make([]byte, r.width*r.height*bytesPerPixel)
	if _, err := io.ReadFull(r.f, buf); err != nil {
		if (err == io.EOF || err == io.ErrUnexpectedEOF) && r.loop {
			if _, err := r.f.Seek(0, io.SeekStart); err != nil {
				return nil, fmt.Errorf("rewind replay: %w", err)
			}
			if _, err := io.ReadFull(r.f, buf); err != nil {
				return nil, fmt.Errorf("read replay after rewind: %w", err)
			}
		} else {
			return nil, fmt.Errorf("read replay: %w", err)
		}
	}

	return &image.RGBA{
		Pix:    buf,
		Stride: r.width * bytesPerPixel,
		Rect:   image.Rect(0, 0, r.width, r.height),
	}, nil
}

// Close closes the recording.
func (r *ReplaySource) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.f.Close()
}

// WriteFrame appends one frame to a replay recording. The frame must be
// tightly packed; captures from the other sources in this package are.
func WriteFrame(w io.Writer, img *image.RGBA) error {
	if img == nil {
		return fmt.Errorf("nil frame")
	}
	b := img.Bounds()
	if img.Stride != b.Dx()*bytesPerPixel {
		return fmt.Errorf("frame not tightly packed: stride %d, width %d", img.Stride, b.Dx())
	}
	_, err := w.Write(img.Pix)
	return err
}
