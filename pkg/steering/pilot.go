package steering

import (
	"context"
	"image"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/steerline/go-steerline/internal/log"
	"github.com/steerline/go-steerline/pkg/steering/scan"
)

// FrameSource delivers a pixel buffer for the configured screen region.
// A capture error is "no signal" for that cycle, never fatal.
type FrameSource interface {
	Capture(roi image.Rectangle) (*image.RGBA, error)
}

// Actuator applies the steering command as a relative pointer movement.
type Actuator interface {
	// Steer moves the pointer horizontally by dx counts.
	Steer(dx float64) error

	// Neutralize returns the device to a no-op state. Called on
	// disengagement and shutdown so no steering input is left stuck.
	Neutralize() error
}

// StateUpdater receives per-cycle state for the dashboard.
type StateUpdater interface {
	UpdateCycle(s Status)
	AddLog(logType, message string)
}

// Status is a snapshot of the loop for external observers.
type Status struct {
	RunID         string  `json:"run_id"` // uuid of the current engagement
	Engaged       bool    `json:"engaged"`
	NoSignal      bool    `json:"no_signal"`
	LateralError  float64 `json:"lateral_error"`
	Command       float64 `json:"command"`
	MatchedPixels int     `json:"matched_pixels"`
	Cycles        uint64  `json:"cycles"`
}

// Pilot runs the perception-to-control pipeline on a fixed cadence,
// gated by an externally toggled engage flag.
//
// Two states: Engaged and Idle. While Idle the controller state is
// reset so re-engagement starts from neutral. Ticks are never queued;
// an overrunning cycle just catches the next tick, because steering
// must act on the freshest frame, never a stale one.
type Pilot struct {
	config   Config
	source   FrameSource
	actuator Actuator
	state    StateUpdater // optional

	perception *Perception
	estimator  *Estimator
	controller *Controller

	engaged atomic.Bool

	// mu guards controller state and the status snapshot against the
	// tuning and dashboard goroutines. The pipeline itself runs on a
	// single goroutine.
	mu      sync.Mutex
	status  Status
	hint    float64
	hasHint bool
	wasIdle bool
}

// New creates a pilot. The configuration is validated here; an invalid
// configuration cannot be recovered mid-drive, so it fails before the
// loop ever starts.
func New(cfg Config, source FrameSource, actuator Actuator, scanner scan.Scanner) (*Pilot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pilot{
		config:     cfg,
		source:     source,
		actuator:   actuator,
		perception: NewPerception(cfg, scanner),
		estimator:  NewEstimator(cfg),
		controller: NewController(cfg),
		wasIdle:    true,
	}, nil
}

// SetStateUpdater attaches the dashboard state sink.
func (p *Pilot) SetStateUpdater(state StateUpdater) {
	p.state = state
}

// Engaged reports whether the loop is currently steering.
func (p *Pilot) Engaged() bool { return p.engaged.Load() }

// Engage switches the loop into the Engaged state.
func (p *Pilot) Engage() { p.engaged.Store(true) }

// Disengage switches the loop into the Idle state. The reset and
// neutralize happen on the loop goroutine at the next tick.
func (p *Pilot) Disengage() { p.engaged.Store(false) }

// Toggle flips the engage flag and returns the new state. Wired to the
// external keyboard listener.
func (p *Pilot) Toggle() bool {
	for {
		old := p.engaged.Load()
		if p.engaged.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Status returns a snapshot of the current loop state.
func (p *Pilot) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.status
	s.Engaged = p.engaged.Load()
	return s
}

// Run drives Step at the configured cadence until ctx is cancelled.
// On exit the actuator is neutralized so shutdown never leaves a
// steering input mid-command.
func (p *Pilot) Run(ctx context.Context) {
	ticker := time.NewTicker(p.config.TickInterval)
	defer ticker.Stop()

	log.Info("steering loop started",
		"tick", p.config.TickInterval,
		"roi", p.config.ROI.String(),
		"rows", len(p.config.Rows),
		"kp", p.config.Kp,
		"kd", p.config.Kd,
	)

	for {
		select {
		case <-ctx.Done():
			p.neutralize()
			log.Info("steering loop stopped")
			return
		case <-ticker.C:
			p.Step()
		}
	}
}

// Step processes one cycle: capture, extract, estimate, control,
// actuate. Gated by the engage flag; while Idle it only performs the
// one-time transition back to neutral.
func (p *Pilot) Step() {
	if !p.engaged.Load() {
		p.mu.Lock()
		firstIdle := !p.wasIdle
		p.wasIdle = true
		if firstIdle {
			p.controller.Reset()
			p.hasHint = false
			p.status.NoSignal = false
			p.status.Command = 0
			p.status.LateralError = 0
		}
		p.mu.Unlock()
		if firstIdle {
			p.neutralize()
			p.addLog("state", "disengaged, controller reset")
			log.Info("disengaged")
		}
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.wasIdle {
		p.wasIdle = false
		p.status.RunID = uuid.NewString()
		p.status.Cycles = 0
		log.Info("engaged", "run_id", p.status.RunID)
		p.addLog("state", "engaged")
	}

	command, lateral, matched, noSignal := p.cycle()

	p.status.Cycles++
	p.status.NoSignal = noSignal
	p.status.LateralError = lateral
	p.status.Command = command
	p.status.MatchedPixels = matched

	if err := p.actuator.Steer(command); err != nil {
		// Losing one cycle's correction is safer than crashing
		// mid-steering.
		log.Warn("actuation failed", "err", err)
	}

	if p.state != nil {
		s := p.status
		s.Engaged = true
		p.state.UpdateCycle(s)
	}

	if math.Abs(command) > p.config.LogThreshold {
		log.Debug("steer", "command", command, "error", lateral, "pixels", matched)
	}
}

// cycle runs the pipeline once and returns (command, lateralError,
// matchedPixels, noSignal). Caller holds p.mu.
func (p *Pilot) cycle() (float64, float64, int, bool) {
	frame, err := p.source.Capture(p.config.ROI)
	if err != nil {
		// Transient capture failure: recover locally as no-signal.
		log.Debug("capture failed", "err", err)
		return p.noSignalLocked(), 0, 0, true
	}

	res, err := p.perception.Extract(frame, p.hint, p.hasHint)
	if err != nil {
		log.Debug("extract failed", "err", err)
		return p.noSignalLocked(), 0, 0, true
	}

	lateral, ok := p.estimator.Estimate(res)
	if !ok {
		return p.noSignalLocked(), 0, res.Total, true
	}

	// Remember where the line was for next cycle's cluster choice.
	p.hint = lateral*ErrorSign + p.estimator.center
	p.hasHint = true

	return p.controller.Update(lateral), lateral, res.Total, false
}

// noSignalLocked decays the command toward neutral and drops the
// continuity hint. Caller holds p.mu.
func (p *Pilot) noSignalLocked() float64 {
	p.hasHint = false
	return p.controller.Decay()
}

func (p *Pilot) neutralize() {
	if err := p.actuator.Neutralize(); err != nil {
		log.Warn("neutralize failed", "err", err)
	}
}

// addLog forwards an event to the dashboard. May run with p.mu held;
// the state updater must not call back into the pilot.
func (p *Pilot) addLog(logType, msg string) {
	if p.state != nil {
		p.state.AddLog(logType, msg)
	}
}
