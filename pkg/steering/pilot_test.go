package steering

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/steerline/go-steerline/pkg/steering/scan"
)

// mockSource serves a fixed frame, or an error, per capture.
type mockSource struct {
	mu    sync.Mutex
	frame *image.RGBA
	err   error
}

func (m *mockSource) Capture(roi image.Rectangle) (*image.RGBA, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.frame, nil
}

func (m *mockSource) set(frame *image.RGBA, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frame, m.err = frame, err
}

// mockActuator records steering deltas and neutralize calls.
type mockActuator struct {
	mu          sync.Mutex
	deltas      []float64
	neutralized int
}

func (m *mockActuator) Steer(dx float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deltas = append(m.deltas, dx)
	return nil
}

func (m *mockActuator) Neutralize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.neutralized++
	return nil
}

func (m *mockActuator) lastDelta() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.deltas) == 0 {
		return 0
	}
	return m.deltas[len(m.deltas)-1]
}

func (m *mockActuator) neutralizeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.neutralized
}

func pilotConfig() Config {
	cfg := testConfig()
	cfg.Kp = 0.5
	cfg.Kd = 0
	cfg.SmoothingAlpha = 1
	cfg.DeadZone = 0
	cfg.MaxCommand = 100
	cfg.TickInterval = time.Millisecond
	return cfg
}

func newTestPilot(t *testing.T, cfg Config, src FrameSource, act Actuator) *Pilot {
	t.Helper()
	p, err := New(cfg, src, act, scan.NewPixelScanner())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestPilot_SignEndToEnd(t *testing.T) {
	src := &mockSource{}
	act := &mockActuator{}
	p := newTestPilot(t, pilotConfig(), src, act)

	// Line entirely right of center column 100.
	src.set(paint(200, 100, map[int][]int{50: {140, 141, 142}}), nil)

	p.Engage()
	p.Step()

	if got := act.lastDelta(); got != 20.5 {
		t.Errorf("steer delta = %v, want +20.5 (rightward correction)", got)
	}

	st := p.Status()
	if st.LateralError != 41 {
		t.Errorf("status error = %v, want +41", st.LateralError)
	}
	if st.NoSignal {
		t.Error("status reports no-signal for a clean detection")
	}
	if st.RunID == "" {
		t.Error("engagement should have assigned a run id")
	}
}

func TestPilot_IdleDoesNotSteer(t *testing.T) {
	src := &mockSource{}
	act := &mockActuator{}
	p := newTestPilot(t, pilotConfig(), src, act)

	src.set(paint(200, 100, map[int][]int{50: {140, 141, 142}}), nil)

	p.Step()
	p.Step()

	if len(act.deltas) != 0 {
		t.Errorf("idle pilot steered: %v", act.deltas)
	}
}

func TestPilot_NoSignalDecays(t *testing.T) {
	src := &mockSource{}
	act := &mockActuator{}
	p := newTestPilot(t, pilotConfig(), src, act)

	src.set(paint(200, 100, map[int][]int{50: {140, 141, 142}}), nil)
	p.Engage()
	p.Step()
	first := act.lastDelta()

	// Line vanishes: command must shrink, not hold, not grow.
	src.set(paint(200, 100, nil), nil)
	p.Step()
	second := act.lastDelta()

	if math.Abs(second) >= math.Abs(first) {
		t.Errorf("no-signal delta %v did not decay from %v", second, first)
	}
	if !p.Status().NoSignal {
		t.Error("status should report no-signal")
	}
}

func TestPilot_CaptureFailureIsNoSignal(t *testing.T) {
	src := &mockSource{}
	act := &mockActuator{}
	p := newTestPilot(t, pilotConfig(), src, act)

	src.set(paint(200, 100, map[int][]int{50: {140, 141, 142}}), nil)
	p.Engage()
	p.Step()
	first := act.lastDelta()

	src.set(nil, fmt.Errorf("capture backend busy"))
	p.Step()
	second := act.lastDelta()

	if math.Abs(second) >= math.Abs(first) {
		t.Errorf("capture failure delta %v did not decay from %v", second, first)
	}

	// The loop keeps going: a later good frame steers again.
	src.set(paint(200, 100, map[int][]int{50: {140, 141, 142}}), nil)
	p.Step()
	if act.lastDelta() == second {
		t.Error("loop did not recover after a capture failure")
	}
}

func TestPilot_DisengageResetsAndNeutralizes(t *testing.T) {
	src := &mockSource{}
	act := &mockActuator{}
	p := newTestPilot(t, pilotConfig(), src, act)

	src.set(paint(200, 100, map[int][]int{50: {140, 141, 142}}), nil)
	p.Engage()
	p.Step()

	p.Disengage()
	p.Step()

	if act.neutralizeCount() != 1 {
		t.Errorf("neutralize called %d times, want 1", act.neutralizeCount())
	}
	if got := p.Status().Command; got != 0 {
		t.Errorf("idle status command = %v, want 0", got)
	}

	// Further idle ticks are quiet.
	steers := len(act.deltas)
	p.Step()
	p.Step()
	if len(act.deltas) != steers {
		t.Error("idle ticks kept steering")
	}
	if act.neutralizeCount() != 1 {
		t.Error("neutralize repeated on every idle tick")
	}
}

func TestPilot_ReengagementForgetsPreIdleError(t *testing.T) {
	cfg := pilotConfig()
	cfg.Kd = 100 // a stale derivative would be unmissable
	src := &mockSource{}
	act := &mockActuator{}
	p := newTestPilot(t, cfg, src, act)

	src.set(paint(200, 100, map[int][]int{50: {180, 181, 182}}), nil)
	p.Engage()
	p.Step()

	p.Disengage()
	p.Step()

	// Re-engage on a different line position: the first cycle must be
	// purely proportional, never differencing against the pre-idle
	// error.
	src.set(paint(200, 100, map[int][]int{50: {119, 120, 121}}), nil)
	p.Engage()
	p.Step()

	if got := act.lastDelta(); got != 10 {
		t.Errorf("first post-idle delta = %v, want pure proportional 10", got)
	}
}

func TestPilot_ToggleFlipsState(t *testing.T) {
	p := newTestPilot(t, pilotConfig(), &mockSource{}, &mockActuator{})

	if p.Engaged() {
		t.Fatal("pilot should start idle")
	}
	if !p.Toggle() {
		t.Error("first toggle should engage")
	}
	if p.Toggle() {
		t.Error("second toggle should disengage")
	}
}

func TestPilot_RunNeutralizesOnCancel(t *testing.T) {
	src := &mockSource{}
	act := &mockActuator{}
	p := newTestPilot(t, pilotConfig(), src, act)

	src.set(paint(200, 100, map[int][]int{50: {140, 141, 142}}), nil)
	p.Engage()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	// Let a few cycles through, then stop.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	if act.neutralizeCount() == 0 {
		t.Error("shutdown left the actuator without a neutralize")
	}
	if len(act.deltas) == 0 {
		t.Error("loop never steered before shutdown")
	}
}

func TestPilot_InvalidConfigRejected(t *testing.T) {
	cfg := pilotConfig()
	cfg.MaxCommand = 0
	if _, err := New(cfg, &mockSource{}, &mockActuator{}, scan.NewPixelScanner()); err == nil {
		t.Error("invalid config must fail before the loop starts")
	}
}

func TestPilot_TuningRoundTrip(t *testing.T) {
	p := newTestPilot(t, pilotConfig(), &mockSource{}, &mockActuator{})

	p.SetTuningParams(TuningParams{Kp: 0.8, MaxCommand: 12})
	got := p.GetTuningParams()
	if got.Kp != 0.8 {
		t.Errorf("Kp = %v, want 0.8", got.Kp)
	}
	if got.MaxCommand != 12 {
		t.Errorf("MaxCommand = %v, want 12", got.MaxCommand)
	}

	// Zero and non-finite values are ignored.
	p.SetTuningParams(TuningParams{Kp: 0, Kd: math.NaN()})
	got = p.GetTuningParams()
	if got.Kp != 0.8 {
		t.Errorf("zero Kp overwrote the gain: %v", got.Kp)
	}
	if math.IsNaN(got.Kd) {
		t.Error("NaN Kd was applied")
	}
}
