// Package litei2c implements a shared I2C bus controller: a cycle-stepped
// protocol engine driving one open-drain clock/data line pair, a crossbar
// arbitrating the engine among several independent logical users, and an
// optional register-style front end.
//
// The controller is fully synchronous: one call to Tick advances every
// component by one system-clock cycle. Logical users attach to crossbar
// ports and exchange command/response records; a round-robin arbiter
// guarantees that exactly one user's streams reach the engine at any time.
// When the users live in a different logical clock domain than the bus, a
// bounded ordered bridge carries the streams across the boundary.
package litei2c

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/litex-hub/litei2c/clkgen"
	"github.com/litex-hub/litei2c/engine"
	"github.com/litex-hub/litei2c/i2cbus"
	"github.com/litex-hub/litei2c/master"
	"github.com/litex-hub/litei2c/xbar"
)

// ErrNoLines is returned by New when the SCL or SDA line is missing.
var ErrNoLines = errors.New("litei2c: scl and sda lines are required")

// Config holds the construction-time parameters of a controller.
type Config struct {
	// SysClkFreq is the system clock frequency in Hz, used to derive the
	// bus clock divisors.
	SysClkFreq uint32

	// SCL and SDA are the bus lines. The controller only ever pulls them
	// low or releases them.
	SCL i2cbus.Line
	SDA i2cbus.Line

	// Speed is the initial bus speed mode.
	Speed i2cbus.SpeedMode

	// Master configures the register front end on the first crossbar
	// port; nil builds a controller without one, for users that attach
	// their own producers and consumers.
	Master *master.Config

	// BridgeDepth, when positive, places the crossbar and its ports in a
	// separate logical clock domain connected to the engine through a
	// bounded ordered bridge of this depth per direction. Zero keeps
	// everything in one domain.
	BridgeDepth int
}

// Validate returns an error if the configuration is unusable.
func (c Config) Validate() error {
	if c.SysClkFreq == 0 {
		return errors.New("litei2c: system clock frequency is required")
	}
	if c.SCL == nil || c.SDA == nil {
		return ErrNoLines
	}
	if c.Speed >= i2cbus.NumSpeedModes {
		return fmt.Errorf("litei2c: invalid speed mode %d", c.Speed)
	}
	if c.Master != nil {
		return c.Master.Validate()
	}
	return nil
}

// Controller is one shared bus instance.
type Controller struct {
	clk *clkgen.ClockGen
	eng *engine.Engine
	xb  *xbar.Crossbar
	br  *xbar.Bridge
	mst *master.Master

	// pendingSpeed holds a requested speed mode plus a dirty flag in bit
	// 8 so SetSpeed is safe from the user domain.
	pendingSpeed atomic.Uint32
}

// New builds and wires a controller.
func New(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clk := clkgen.New(cfg.SCL, cfg.SysClkFreq, cfg.Speed)
	eng := engine.New(cfg.SDA, clk)

	c := &Controller{clk: clk, eng: eng}

	if cfg.BridgeDepth > 0 {
		c.br = xbar.NewBridge(cfg.BridgeDepth)
		c.xb = xbar.New(&c.br.UserCmd, &c.br.UserResp, c.br.Free)
		eng.SetActiveFunc(c.br.Active)
	} else {
		c.xb = xbar.New(&eng.Cmd, &eng.Resp, eng.Idle)
		eng.SetActiveFunc(c.xb.Active)
	}

	if cfg.Master != nil {
		m, err := master.New(*cfg.Master)
		if err != nil {
			return nil, err
		}
		m.Bind(c.xb.AddPort(m.Enabled, nil))
		c.mst = m
	}

	return c, nil
}

// Master returns the register front end, or nil when the controller was
// built without one.
func (c *Controller) Master() *master.Master { return c.mst }

// AddPort registers a further logical user. The activation function tells
// the engine the user wants its transactions run; it also drives
// arbitration requests.
func (c *Controller) AddPort(active func() bool) *xbar.Port {
	return c.xb.AddPort(active, nil)
}

// AddPortWithRequest registers a logical user with a request signal
// distinct from its activation.
func (c *Controller) AddPortWithRequest(active, request func() bool) *xbar.Port {
	return c.xb.AddPort(active, request)
}

// Grant returns the index of the port currently owning the engine.
func (c *Controller) Grant() int { return c.xb.Grant() }

// Speed returns the active speed mode.
func (c *Controller) Speed() i2cbus.SpeedMode { return c.clk.Mode() }

// SetSpeed requests a new speed mode. The change is applied once the
// engine is idle, never in the middle of a transaction.
func (c *Controller) SetSpeed(m i2cbus.SpeedMode) {
	if m < i2cbus.NumSpeedModes {
		c.pendingSpeed.Store(uint32(m) | 1<<8)
	}
}

// Idle reports whether the engine is between transactions.
func (c *Controller) Idle() bool { return c.eng.Idle() }

// Tick advances the whole controller by one system-clock cycle. With a
// bridge configured it steps the user domain and then the bus domain,
// which keeps single-threaded use working; split-domain users call
// TickUser and TickBus from their own loops instead.
func (c *Controller) Tick() {
	if c.br != nil {
		c.TickUser()
		c.TickBus()
		return
	}
	if c.mst != nil {
		c.mst.Tick()
	}
	c.xb.Tick()
	c.applySpeed()
	c.eng.Tick()
}

// TickUser advances the user-domain side by one cycle: the front end, the
// crossbar and the user side of the bridge. Only meaningful with a
// bridge.
func (c *Controller) TickUser() {
	if c.mst != nil {
		c.mst.Tick()
	}
	c.xb.Tick()
	if c.br != nil {
		c.br.TickUser(c.xb.Active())
	}
}

// TickBus advances the bus-domain side by one cycle: the bus side of the
// bridge and the engine. Only meaningful with a bridge.
func (c *Controller) TickBus() {
	if c.br != nil {
		c.br.TickBus(&c.eng.Cmd, &c.eng.Resp, c.eng.Idle())
	}
	c.applySpeed()
	c.eng.Tick()
}

func (c *Controller) applySpeed() {
	v := c.pendingSpeed.Load()
	if v&(1<<8) == 0 || !c.eng.Idle() {
		return
	}
	if c.pendingSpeed.CompareAndSwap(v, 0) {
		c.clk.SetMode(i2cbus.SpeedMode(v & 0xff))
	}
}
