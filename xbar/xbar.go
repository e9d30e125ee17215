// Package xbar multiplexes several logical command/response streams onto
// one bus engine. Each registered port is a command-in / response-out /
// activation triple; a round-robin arbiter decides which port currently
// owns the engine. An optional bridge carries the streams across a
// logical clock-domain boundary through bounded ordered queues.
package xbar

import (
	"github.com/litex-hub/litei2c/i2cbus"
)

// Port is one logical user's attachment point. The user pushes commands
// into Cmd and pops responses from Resp; both are routed to the engine
// only while the port holds the grant.
//
// Ports are registered once at construction time and never removed; the
// registration order fixes the round-robin slot order.
type Port struct {
	index   int
	active  func() bool
	request func() bool

	// Cmd carries the user's commands toward the bus.
	Cmd i2cbus.CommandStream

	// Resp carries the bus responses back to the user.
	Resp i2cbus.ResponseStream
}

// Index returns the port's round-robin slot, assigned at registration.
func (p *Port) Index() int { return p.index }

// Crossbar arbitrates a set of ports over a single engine-side stream
// pair. At most one port holds the grant at any time, so the engine
// observes exactly one command stream.
type Crossbar struct {
	ports []*Port
	grant int

	// EngCmd and EngResp are the engine-side streams: the engine consumes
	// EngCmd and produces into EngResp. With a bridge in between, these
	// are the bridge's user-domain streams instead.
	EngCmd  *i2cbus.CommandStream
	EngResp *i2cbus.ResponseStream

	// busFree reports that the engine is idle and the path to it has
	// drained, so the grant may move.
	busFree func() bool
}

// New creates an empty crossbar. The engine-side streams and the bus-free
// input are wired by the controller before the first tick.
func New(engCmd *i2cbus.CommandStream, engResp *i2cbus.ResponseStream, busFree func() bool) *Crossbar {
	return &Crossbar{
		EngCmd:  engCmd,
		EngResp: engResp,
		busFree: busFree,
	}
}

// AddPort registers a new port with the next sequential slot index. The
// activation function is forwarded to the engine while the port holds the
// grant; the request function drives arbitration and defaults to the
// activation when nil, meaning the user wants the bus whenever enabled.
func (x *Crossbar) AddPort(active, request func() bool) *Port {
	if request == nil {
		request = active
	}
	p := &Port{index: len(x.ports), active: active, request: request}
	x.ports = append(x.ports, p)
	return p
}

// Ports returns the number of registered ports.
func (x *Crossbar) Ports() int { return len(x.ports) }

// Grant returns the index of the port currently holding the grant.
func (x *Crossbar) Grant() int { return x.grant }

// Active returns the granted port's activation value; this is the
// engine's activation input.
func (x *Crossbar) Active() bool {
	if len(x.ports) == 0 {
		return false
	}
	p := x.ports[x.grant]
	return p.active != nil && p.active()
}

// NextGrant returns the slot the grant moves to: the first requesting
// index after last, wrapping around, skipping non-requesters without
// consuming a turn. When nobody requests, the grant stays where it is.
func NextGrant(last int, requests []bool) int {
	n := len(requests)
	for i := 1; i <= n; i++ {
		s := (last + i) % n
		if requests[s] {
			return s
		}
	}
	return last
}

// Tick routes streams for one cycle and re-evaluates the grant.
//
// The grant may only move while the bus is free and both engine-side
// stream slots are empty; a transaction in flight, including the wait
// states of a continuation sequence, therefore pins the grant to the port
// that started it.
func (x *Crossbar) Tick() {
	if len(x.ports) == 0 {
		return
	}
	p := x.ports[x.grant]

	// Response path first so a same-tick rotation can never strand or
	// misroute a pending response.
	if r, ok := x.EngResp.Peek(); ok {
		if p.Resp.Push(r) {
			x.EngResp.Pop()
		}
	}

	if x.busFree() && !x.EngCmd.Valid() && !x.EngResp.Valid() {
		reqs := make([]bool, len(x.ports))
		for i, u := range x.ports {
			reqs[i] = u.request != nil && u.request()
		}
		x.grant = NextGrant(x.grant, reqs)
		p = x.ports[x.grant]
	}

	// Commands advance only while the port is active: the engine cannot
	// start for an inactive port, and an undeliverable command parked on
	// the engine-side slot would pin the grant.
	if c, ok := p.Cmd.Peek(); ok && p.active != nil && p.active() {
		if x.EngCmd.Push(c) {
			p.Cmd.Pop()
		}
	}
}
