// Package capture provides frame sources for the steering loop: the
// local display, a recorded replay file, and a remote websocket
// publisher. All backends return tightly packed RGBA buffers whose
// bounds start at (0,0).
package capture

import (
	"image"
	"time"
)

// Frame is one captured buffer with its capture time.
type Frame struct {
	Image     *image.RGBA
	Timestamp time.Time
}

// Source delivers a pixel buffer for a rectangular screen region.
// Errors are transient: the caller treats a failed capture as one
// cycle's no-signal and moves on.
type Source interface {
	Capture(roi image.Rectangle) (*image.RGBA, error)
	Close() error
}
