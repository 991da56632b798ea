package input

import (
	"context"

	hook "github.com/robotn/gohook"

	"github.com/steerline/go-steerline/internal/log"
)

// ListenToggle blocks on a global keyboard hook and invokes onToggle on
// every press of the given key chord (gohook syntax, e.g. ["f8"] or
// ["ctrl", "shift", "s"]). It returns when ctx is cancelled. gohook
// delivers one KeyDown per physical press, so no extra debouncing.
func ListenToggle(ctx context.Context, chord []string, onToggle func()) {
	hook.Register(hook.KeyDown, chord, func(e hook.Event) {
		onToggle()
	})

	events := hook.Start()
	defer hook.End()

	go func() {
		<-ctx.Done()
		hook.End()
	}()

	log.Info("toggle hotkey armed", "chord", chord)
	<-hook.Process(events)
}
