// Package input bridges the steering loop to the OS input layer: a
// relative mouse actuator and the keyboard toggle listener.
package input

import (
	"math"

	"github.com/go-vgo/robotgo"
)

// Mouse applies steering commands as relative pointer movement. The
// game maps horizontal pointer deltas to steering, so only the x
// component is ever driven.
type Mouse struct {
	// carry accumulates the sub-pixel remainder so a stream of small
	// commands still adds up instead of rounding away.
	carry float64
}

// NewMouse returns the pointer actuator.
func NewMouse() *Mouse {
	return &Mouse{}
}

// Steer moves the pointer horizontally by dx counts.
func (m *Mouse) Steer(dx float64) error {
	whole := math.Round(dx + m.carry)
	m.carry = dx + m.carry - whole
	if whole == 0 {
		return nil
	}
	robotgo.MoveRelative(int(whole), 0)
	return nil
}

// Neutralize clears the pending remainder. Relative deltas leave no
// held input behind, so there is nothing to undo at the device.
func (m *Mouse) Neutralize() error {
	m.carry = 0
	return nil
}
