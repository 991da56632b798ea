package capture

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/steerline/go-steerline/internal/log"
)

// remoteMaxAge is how stale a pushed frame may be before captures fail.
// Steering on an old frame is worse than one no-signal cycle.
const remoteMaxAge = 500 * time.Millisecond

// RemoteSource receives raw-RGBA frames pushed over a websocket by a
// capture agent on another machine (the game box), letting the steering
// loop run elsewhere. Each binary message is one width*height*4 frame.
type RemoteSource struct {
	url    string
	width  int
	height int

	ws *websocket.Conn

	mu       sync.RWMutex
	latest   *image.RGBA
	received time.Time
	closed   bool
}

// NewRemote connects to a frame publisher at url (ws://host:port/path)
// streaming frames of the given dimensions.
func NewRemote(url string, width, height int) (*RemoteSource, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid remote dimensions %dx%d", width, height)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("connect frame publisher: %w", err)
	}

	r := &RemoteSource{url: url, width: width, height: height, ws: ws}
	go r.readLoop()
	return r, nil
}

// readLoop keeps only the newest frame; the loop always steers on the
// freshest buffer available.
func (r *RemoteSource) readLoop() {
	frameSize := r.width * r.height * bytesPerPixel
	for {
		msgType, data, err := r.ws.ReadMessage()
		if err != nil {
			r.mu.Lock()
			closed := r.closed
			r.mu.Unlock()
			if !closed {
				log.Warn("frame publisher connection lost", "url", r.url, "err", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		if len(data) != frameSize {
			log.Debug("dropping malformed frame", "got", len(data), "want", frameSize)
			continue
		}

		img := &image.RGBA{
			Pix:    data,
			Stride: r.width * bytesPerPixel,
			Rect:   image.Rect(0, 0, r.width, r.height),
		}

		r.mu.Lock()
		r.latest = img
		r.received = time.Now()
		r.mu.Unlock()
	}
}

// Capture returns the most recently pushed frame. Fails when nothing
// has arrived yet or the newest frame is older than remoteMaxAge.
func (r *RemoteSource) Capture(roi image.Rectangle) (*image.RGBA, error) {
	if roi.Dx() != r.width || roi.Dy() != r.height {
		return nil, fmt.Errorf("ROI %dx%d does not match stream %dx%d",
			roi.Dx(), roi.Dy(), r.width, r.height)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil {
		return nil, fmt.Errorf("no frame received yet from %s", r.url)
	}
	if age := time.Since(r.received); age > remoteMaxAge {
		return nil, fmt.Errorf("newest frame is %v old", age.Round(time.Millisecond))
	}
	return r.latest, nil
}

// Close shuts the websocket connection down.
func (r *RemoteSource) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return r.ws.Close()
}
