// Package simbus provides a simulated I2C bus: open-drain nets with any
// number of attached drivers and edge-triggered slave models. It exists so
// the controller can be exercised and demonstrated without hardware, one
// system-clock tick at a time.
package simbus

import (
	"github.com/litex-hub/litei2c/i2cbus"
)

// Net is one open-drain line. The resolved level is high unless at least
// one attached driver pulls it low; there is no way for a driver to force
// it high.
type Net struct {
	drivers []*netLine
}

// NewNet creates a released (high) net.
func NewNet() *Net { return &Net{} }

// Line attaches a new driver to the net and returns its handle.
func (n *Net) Line() i2cbus.Line {
	l := &netLine{net: n}
	n.drivers = append(n.drivers, l)
	return l
}

// Level returns the resolved line level; true is high.
func (n *Net) Level() bool {
	for _, d := range n.drivers {
		if d.low {
			return false
		}
	}
	return true
}

type netLine struct {
	net *Net
	low bool
}

func (l *netLine) DriveLow()    { l.low = true }
func (l *netLine) Release()     { l.low = false }
func (l *netLine) Sample() bool { return l.net.Level() }
