// Package gpioline implements the open-drain line interface on plain GPIO
// pins, for running the controller against real pads without a dedicated
// I2C block. Driving low configures the pin as a low output; releasing
// reconfigures it as an input and lets the external pull-up take over, so
// the line can never be driven high.
package gpioline

import (
	"fmt"

	"github.com/platinasystems/gpio"

	"github.com/litex-hub/litei2c/i2cbus"
)

const modeMask = gpio.IsInput | gpio.IsOutputLo | gpio.IsOutputHi

// Line is one open-drain line on a GPIO pin.
//
// The Line interface carries no error returns, so the first pin-access
// failure is latched and readable through Err; a failed sample reads as
// high, which a caller observes as a NACK rather than silent data
// corruption.
type Line struct {
	pin gpio.Pin
	err error
}

var _ i2cbus.Line = (*Line)(nil)

// New wraps a pin as an open-drain line and releases it.
func New(pin gpio.Pin) *Line {
	l := &Line{pin: pin}
	l.Release()
	return l
}

// Err returns the first pin-access error encountered, if any.
func (l *Line) Err() error { return l.err }

func (l *Line) setMode(mode gpio.Pin) {
	p := (l.pin &^ modeMask) | mode
	if err := p.SetDirection(); err != nil && l.err == nil {
		l.err = fmt.Errorf("gpioline: set direction: %w", err)
	}
}

// DriveLow implements i2cbus.Line.
func (l *Line) DriveLow() { l.setMode(gpio.IsOutputLo) }

// Release implements i2cbus.Line.
func (l *Line) Release() { l.setMode(gpio.IsInput) }

// Sample implements i2cbus.Line.
func (l *Line) Sample() bool {
	v, err := l.pin.Value()
	if err != nil {
		if l.err == nil {
			l.err = fmt.Errorf("gpioline: read pin: %w", err)
		}
		return true
	}
	return v
}
