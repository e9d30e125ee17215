// Package clkgen generates the divided I2C bus clock. Each bit cell is
// split into four quarter phases; the transmit strobe fires at the end of
// quarter 1 (SCL low, outputs may change) and the receive strobe at the end
// of quarter 3 (SCL high, inputs are stable to sample).
package clkgen

import (
	"github.com/litex-hub/litei2c/i2cbus"
)

// ClockGen drives the SCL line of one bus instance. It is stepped once per
// system-clock cycle by its owner and, like every line user, only ever
// pulls SCL low or releases it.
type ClockGen struct {
	scl  i2cbus.Line
	div  [i2cbus.NumSpeedModes]uint32
	mode i2cbus.SpeedMode

	cnt uint32
	sub uint8
	clk bool
}

// New creates a clock generator for the given SCL line, precomputing the
// divisor of every speed mode from the system clock frequency. The clock
// register resets high (bus idle).
func New(scl i2cbus.Line, sysClkFreq uint32, mode i2cbus.SpeedMode) *ClockGen {
	g := &ClockGen{scl: scl, mode: mode, clk: true}
	for m := i2cbus.SpeedMode(0); m < i2cbus.NumSpeedModes; m++ {
		g.div[m] = i2cbus.Divisor(sysClkFreq, m.Frequency())
	}
	return g
}

// Mode returns the active speed mode.
func (g *ClockGen) Mode() i2cbus.SpeedMode { return g.mode }

// SetMode switches the active speed mode. Callers must only switch while
// the bus is idle; the controller defers requested changes accordingly.
func (g *ClockGen) SetMode(m i2cbus.SpeedMode) {
	if m < i2cbus.NumSpeedModes {
		g.mode = m
	}
}

// Div returns the divisor of the active speed mode.
func (g *ClockGen) Div() uint32 { return g.div[g.mode] }

// SCL returns the current clock register level. The pad follows this level
// unless suppressed: low drives the line, high releases it.
func (g *ClockGen) SCL() bool { return g.clk }

// Strobes returns the transmit and receive phase strobes for the current
// cycle, given the enable input of the current cycle. Both are
// combinational on the internal counters and fire at most one cycle per
// quarter phase.
func (g *ClockGen) Strobes(en bool) (tx, rx bool) {
	hit := en && g.cnt == g.div[g.mode]
	tx = hit && g.sub == 1
	rx = hit && g.sub == 3
	return tx, rx
}

// Tick advances the generator by one system-clock cycle and updates the
// SCL pad.
//
// While enabled, the sub-cycle counter runs to the divisor and the quarter
// counter cycles 0 to 3; the clock register follows bit 1 of the quarter
// counter, giving the 25% low / rise / high / fall bit-cell shape. While
// disabled, the counters reset and the clock register is held high, or low
// when keepLow is set (stretching the bus between command chunks).
// suppress releases the pad regardless of the clock register, used to wait
// out the bus-free time without touching the line.
func (g *ClockGen) Tick(en, keepLow, suppress bool) {
	if en {
		if g.cnt < g.div[g.mode] {
			g.cnt++
		} else {
			g.cnt = 0
			g.clk = g.sub&0b10 != 0
			if g.sub < 3 {
				g.sub++
			} else {
				g.sub = 0
			}
		}
	} else {
		g.clk = !keepLow
		g.cnt = 0
		g.sub = 0
	}
	if !g.clk && !suppress {
		g.scl.DriveLow()
	} else {
		g.scl.Release()
	}
}
