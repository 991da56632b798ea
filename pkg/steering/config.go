package steering

import (
	"fmt"
	"image"
	"math"
	"time"

	"github.com/steerline/go-steerline/pkg/steering/scan"
)

// ErrorSign documents the sign convention carried end to end: a route
// line detected RIGHT of the center column yields a POSITIVE lateral
// error, and the controller answers with a POSITIVE (rightward) pointer
// delta. Both the estimator and the controller consume this constant so
// the convention cannot silently diverge.
const ErrorSign = +1.0

// ScanRow is one fixed look-ahead row inside the region of interest.
type ScanRow struct {
	Y      int     // row offset within the ROI, 0 = top
	Weight float64 // contribution to the combined error
}

// Config holds all tunable parameters for the steering loop.
// Everything here is fixed at startup; a handful of controller fields
// can additionally be adjusted at runtime through the tuning API.
type Config struct {
	// Capture
	ROI  image.Rectangle // absolute display coordinates of the sampled strip
	Rows []ScanRow       // look-ahead rows; nearer rows should carry more weight

	// Signal
	Signature    scan.Signature
	CenterColumn float64 // reference column within the ROI; < 0 means width/2 - 0.5
	ClusterGap   int     // max column gap bridged inside one cluster
	MinPixels    int     // matched pixels (all rows) required for a valid error

	// Control law
	Kp             float64 // proportional gain, pointer counts per pixel of error
	Kd             float64 // derivative gain, dampens oscillation in turns
	SmoothingAlpha float64 // low-pass on the output command; 1 = off
	DecayFactor    float64 // per-cycle shrink of the command on no-signal, in (0,1)
	MaxCommand     float64 // clamp on the per-cycle pointer delta
	DeadZone       float64 // errors below this decay instead of steering

	// Cadence
	TickInterval time.Duration

	// Logging
	LogThreshold float64 // only log commands larger than this
}

// DefaultConfig returns the tuning that tracks the game's route advisor
// in fullscreen at 1080p. The strip sits under the blue position marker;
// half the width plus the left offset should be the marker's center.
func DefaultConfig() Config {
	return Config{
		ROI: image.Rect(1584, 848, 1584+210, 848+40),
		Rows: []ScanRow{
			{Y: 30, Weight: 0.7}, // near row: immediate correction
			{Y: 10, Weight: 0.3}, // far row: anticipate the turn ahead
		},

		Signature:    scan.DefaultSignature(),
		CenterColumn: -1, // width/2 - 0.5
		ClusterGap:   4,
		MinPixels:    2,

		Kp:             0.25,
		Kd:             15,
		SmoothingAlpha: 0.7,
		DecayFactor:    0.5,
		MaxCommand:     40,
		DeadZone:       0.5,

		TickInterval: 20 * time.Millisecond, // 50 cycles per second

		LogThreshold: 2,
	}
}

// GentleConfig returns a tuning for winding roads at low speed: softer
// gains, heavier smoothing.
func GentleConfig() Config {
	cfg := DefaultConfig()
	cfg.Kp = 0.15
	cfg.Kd = 10
	cfg.SmoothingAlpha = 0.5
	cfg.MaxCommand = 25
	return cfg
}

// AggressiveConfig returns a tuning for highway speeds: faster cadence,
// stronger proportional response, less smoothing.
func AggressiveConfig() Config {
	cfg := DefaultConfig()
	cfg.Kp = 0.35
	cfg.Kd = 20
	cfg.SmoothingAlpha = 0.85
	cfg.TickInterval = 10 * time.Millisecond
	return cfg
}

// Center resolves the reference center column for the configured ROI.
func (c Config) Center() float64 {
	if c.CenterColumn >= 0 {
		return c.CenterColumn
	}
	return float64(c.ROI.Dx())/2 - 0.5
}

// Validate checks the configuration. Any failure here is fatal at
// startup: a bad ROI or a non-finite gain cannot be recovered mid-drive.
func (c Config) Validate() error {
	if c.ROI.Dx() <= 0 || c.ROI.Dy() <= 0 {
		return fmt.Errorf("ROI %v is empty", c.ROI)
	}
	if len(c.Rows) == 0 {
		return fmt.Errorf("no scan rows configured")
	}
	totalWeight := 0.0
	for i, row := range c.Rows {
		if row.Y < 0 || row.Y >= c.ROI.Dy() {
			return fmt.Errorf("scan row %d: y=%d outside ROI height %d", i, row.Y, c.ROI.Dy())
		}
		if row.Weight <= 0 || !isFinite(row.Weight) {
			return fmt.Errorf("scan row %d: weight %v must be positive and finite", i, row.Weight)
		}
		totalWeight += row.Weight
	}
	if totalWeight <= 0 {
		return fmt.Errorf("scan row weights sum to %v", totalWeight)
	}
	if err := c.Signature.Validate(); err != nil {
		return fmt.Errorf("color signature: %w", err)
	}
	if c.CenterColumn >= float64(c.ROI.Dx()) {
		return fmt.Errorf("center column %v outside ROI width %d", c.CenterColumn, c.ROI.Dx())
	}
	if c.MinPixels < 1 {
		return fmt.Errorf("min pixels %d must be at least 1", c.MinPixels)
	}
	if c.ClusterGap < 1 {
		return fmt.Errorf("cluster gap %d must be at least 1", c.ClusterGap)
	}

	for name, v := range map[string]float64{
		"kp":              c.Kp,
		"kd":              c.Kd,
		"smoothing alpha": c.SmoothingAlpha,
		"decay factor":    c.DecayFactor,
		"max command":     c.MaxCommand,
		"dead zone":       c.DeadZone,
	} {
		if !isFinite(v) {
			return fmt.Errorf("%s is not finite", name)
		}
	}
	if c.Kp < 0 || c.Kd < 0 {
		return fmt.Errorf("gains must not be negative (kp=%v kd=%v)", c.Kp, c.Kd)
	}
	if c.SmoothingAlpha <= 0 || c.SmoothingAlpha > 1 {
		return fmt.Errorf("smoothing alpha %v outside (0, 1]", c.SmoothingAlpha)
	}
	if c.DecayFactor <= 0 || c.DecayFactor >= 1 {
		return fmt.Errorf("decay factor %v outside (0, 1)", c.DecayFactor)
	}
	if c.MaxCommand <= 0 {
		return fmt.Errorf("max command %v must be positive", c.MaxCommand)
	}
	if c.DeadZone < 0 {
		return fmt.Errorf("dead zone %v must not be negative", c.DeadZone)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval %v must be positive", c.TickInterval)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
