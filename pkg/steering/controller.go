package steering

import (
	"math"
)

// decayFloor snaps a decaying command to zero once it is too small to
// move the pointer anyway.
const decayFloor = 1e-3

// Controller implements proportional-derivative control with output
// low-pass smoothing and a per-cycle clamp. It is the only component
// with memory across cycles, and that memory is touched exactly once
// per cycle by the loop goroutine.
//
// Sign convention matches ErrorSign: a positive lateral error produces
// a positive (rightward) steering command.
type Controller struct {
	// Gains
	Kp float64 // proportional gain
	Kd float64 // derivative gain, dampens oscillation

	// Shaping
	SmoothingAlpha float64 // weight of the fresh command in the low-pass; 1 = off
	DecayFactor    float64 // per-cycle shrink on no-signal
	MaxCommand     float64 // clamp on command magnitude
	DeadZone       float64 // errors below this decay instead of steering

	// State
	lastError    float64
	hasLastError bool
	lastCommand  float64
}

// NewController creates a controller in the neutral state.
func NewController(cfg Config) *Controller {
	return &Controller{
		Kp:             cfg.Kp,
		Kd:             cfg.Kd,
		SmoothingAlpha: cfg.SmoothingAlpha,
		DecayFactor:    cfg.DecayFactor,
		MaxCommand:     cfg.MaxCommand,
		DeadZone:       cfg.DeadZone,
	}
}

// Update maps a valid lateral error to a steering command and records
// state for the next cycle. The derivative term is suppressed on the
// first cycle after a reset or a signal gap, so stale history never
// shapes a fresh correction.
func (c *Controller) Update(lateralError float64) float64 {
	if math.Abs(lateralError) < c.DeadZone {
		// Close enough to center: settle instead of chasing noise.
		out := c.decayStep()
		c.lastError = lateralError
		c.hasLastError = true
		c.lastCommand = out
		return out
	}

	out := c.Kp * lateralError
	if c.hasLastError {
		out += c.Kd * (lateralError - c.lastError)
	}

	if c.SmoothingAlpha < 1 {
		out = c.SmoothingAlpha*out + (1-c.SmoothingAlpha)*c.lastCommand
	}

	// Clamp after the full computation so runaway gains or a transient
	// detection spike can never produce a violent input.
	out = clamp(out, -c.MaxCommand, c.MaxCommand)

	c.lastError = lateralError
	c.hasLastError = true
	c.lastCommand = out
	return out
}

// Decay handles a no-signal cycle: shrink the previous command toward
// neutral rather than holding or extrapolating it. The visual signal is
// known to drop out during route crossings, so sustaining the last
// correction would steer hard in a possibly false direction.
func (c *Controller) Decay() float64 {
	out := c.decayStep()
	c.hasLastError = false
	c.lastCommand = out
	return out
}

func (c *Controller) decayStep() float64 {
	out := c.lastCommand * c.DecayFactor
	if math.Abs(out) < decayFloor {
		out = 0
	}
	return out
}

// Reset returns the controller to neutral. Called on disengagement so
// re-engagement never resumes with smoothing or derivative memory from
// a now-irrelevant frame.
func (c *Controller) Reset() {
	c.lastError = 0
	c.hasLastError = false
	c.lastCommand = 0
}

// LastCommand returns the command produced by the most recent cycle.
func (c *Controller) LastCommand() float64 {
	return c.lastCommand
}

// clamp limits a value to a range.
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
