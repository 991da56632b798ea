package steering

// TuningParams holds the controller parameters adjustable at runtime
// through the dashboard API, so gains can be dialed in mid-drive
// without restarting.
type TuningParams struct {
	Kp             float64 `json:"kp"`              // proportional gain
	Kd             float64 `json:"kd"`              // derivative gain
	SmoothingAlpha float64 `json:"smoothing_alpha"` // output low-pass (0-1]
	DecayFactor    float64 `json:"decay_factor"`    // no-signal decay (0-1)
	MaxCommand     float64 `json:"max_command"`     // per-cycle clamp
	DeadZone       float64 `json:"dead_zone"`       // settle band in pixels
}

// GetTuningParams returns the controller's current parameters.
func (p *Pilot) GetTuningParams() TuningParams {
	p.mu.Lock()
	defer p.mu.Unlock()

	return TuningParams{
		Kp:             p.controller.Kp,
		Kd:             p.controller.Kd,
		SmoothingAlpha: p.controller.SmoothingAlpha,
		DecayFactor:    p.controller.DecayFactor,
		MaxCommand:     p.controller.MaxCommand,
		DeadZone:       p.controller.DeadZone,
	}
}

// SetTuningParams updates controller parameters at runtime. Only
// positive values are applied; out-of-range shaping values are clamped
// to their safe intervals.
func (p *Pilot) SetTuningParams(params TuningParams) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if params.Kp > 0 && isFinite(params.Kp) {
		p.controller.Kp = params.Kp
	}
	if params.Kd > 0 && isFinite(params.Kd) {
		p.controller.Kd = params.Kd
	}
	if params.SmoothingAlpha > 0 && isFinite(params.SmoothingAlpha) {
		p.controller.SmoothingAlpha = clamp(params.SmoothingAlpha, 0.05, 1)
	}
	if params.DecayFactor > 0 && isFinite(params.DecayFactor) {
		p.controller.DecayFactor = clamp(params.DecayFactor, 0.05, 0.95)
	}
	if params.MaxCommand > 0 && isFinite(params.MaxCommand) {
		p.controller.MaxCommand = params.MaxCommand
	}
	if params.DeadZone > 0 && isFinite(params.DeadZone) {
		p.controller.DeadZone = params.DeadZone
	}
}
