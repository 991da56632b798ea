package steering

import (
	"math"
	"testing"
)

// rawConfig disables smoothing and the dead zone so tests can reason
// about the bare control law.
func rawConfig() Config {
	cfg := testConfig()
	cfg.Kp = 0.5
	cfg.Kd = 0
	cfg.SmoothingAlpha = 1
	cfg.DeadZone = 0
	cfg.MaxCommand = 100
	return cfg
}

func TestController_ProportionalScenario(t *testing.T) {
	// Gain 0.5, no prior state, error +41: command is clamp(+20.5, max).
	c := NewController(rawConfig())

	if got := c.Update(41); got != 20.5 {
		t.Errorf("Update(41) = %v, want 20.5", got)
	}
}

func TestController_ClampEnforcedPostComputation(t *testing.T) {
	cfg := rawConfig()
	cfg.Kp = 1000
	cfg.Kd = 1000
	cfg.MaxCommand = 40
	c := NewController(cfg)

	for _, err := range []float64{-80, -40, -1, 1, 40, 80} {
		if got := c.Update(err); math.Abs(got) > cfg.MaxCommand {
			t.Errorf("Update(%v) = %v exceeds clamp %v", err, got, cfg.MaxCommand)
		}
	}
}

func TestController_DerivativeDampens(t *testing.T) {
	cfg := rawConfig()
	cfg.Kd = 2
	c := NewController(cfg)

	c.Update(40)
	// Error shrinking: derivative term opposes the proportional one.
	got := c.Update(30)
	want := 0.5*30 + 2*(30-40)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Update(30) = %v, want %v", got, want)
	}
}

func TestController_NoDerivativeOnFirstCycle(t *testing.T) {
	cfg := rawConfig()
	cfg.Kd = 100
	c := NewController(cfg)

	// A huge Kd must not matter when there is no previous error.
	if got := c.Update(10); got != 5 {
		t.Errorf("first Update(10) = %v, want pure proportional 5", got)
	}
}

func TestController_DecayStrictlyShrinks(t *testing.T) {
	c := NewController(rawConfig())

	prev := c.Update(40) // 20
	if prev == 0 {
		t.Fatal("setup produced a zero command")
	}

	// Consecutive no-signal cycles: magnitude strictly decreases toward
	// zero, never holds, never grows.
	for i := 0; i < 20; i++ {
		cur := c.Decay()
		if math.Abs(cur) >= math.Abs(prev) && prev != 0 {
			t.Fatalf("cycle %d: decay %v did not shrink from %v", i, cur, prev)
		}
		prev = cur
		if cur == 0 {
			break
		}
	}
	if prev != 0 {
		t.Errorf("command never settled at zero, ended at %v", prev)
	}

	// Once neutral, stays neutral.
	if got := c.Decay(); got != 0 {
		t.Errorf("decay from neutral = %v, want 0", got)
	}
}

func TestController_DecayAfterErrorScenario(t *testing.T) {
	// First cycle error +40, second cycle no signal: second command is
	// strictly smaller in magnitude, not equal, not larger.
	c := NewController(rawConfig())

	first := c.Update(40)
	second := c.Decay()

	if math.Abs(second) >= math.Abs(first) {
		t.Errorf("no-signal command %v did not decay from %v", second, first)
	}
	if second == 0 {
		t.Errorf("decay jumped straight to zero from %v", first)
	}
	if (second > 0) != (first > 0) {
		t.Errorf("decay flipped sign: %v -> %v", first, second)
	}
}

func TestController_SignalGapSuppressesDerivative(t *testing.T) {
	cfg := rawConfig()
	cfg.Kd = 100
	c := NewController(cfg)

	c.Update(40)
	c.Decay() // signal gap invalidates the stored error

	// The next valid cycle must not difference against the pre-gap
	// error; smoothing is off so the output is exactly proportional.
	if got := c.Update(10); got != 5 {
		t.Errorf("post-gap Update(10) = %v, want 5", got)
	}
}

func TestController_ResetClearsState(t *testing.T) {
	cfg := rawConfig()
	cfg.Kd = 100
	c := NewController(cfg)

	c.Update(40)
	c.Reset()

	if c.LastCommand() != 0 {
		t.Errorf("LastCommand after reset = %v, want 0", c.LastCommand())
	}
	// Derivative must not reference the pre-reset error.
	if got := c.Update(10); got != 5 {
		t.Errorf("post-reset Update(10) = %v, want 5", got)
	}
}

func TestController_SmoothingLowPass(t *testing.T) {
	cfg := rawConfig()
	cfg.SmoothingAlpha = 0.5
	c := NewController(cfg)

	// First command: 0.5 * (0.5*40) + 0.5 * 0 = 10
	if got := c.Update(40); got != 10 {
		t.Errorf("smoothed Update(40) = %v, want 10", got)
	}
	// Second identical error leans on the previous output:
	// 0.5*20 + 0.5*10 = 15
	if got := c.Update(40); got != 15 {
		t.Errorf("second smoothed Update(40) = %v, want 15", got)
	}
}

func TestController_DeadZoneSettles(t *testing.T) {
	cfg := rawConfig()
	cfg.DeadZone = 2
	c := NewController(cfg)

	c.Update(40)
	// An error inside the dead zone decays rather than chasing noise.
	got := c.Update(1)
	if math.Abs(got) >= 20 {
		t.Errorf("dead-zone Update(1) = %v, expected decay below previous 20", got)
	}
}
