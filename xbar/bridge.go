package xbar

import (
	"sync/atomic"

	"github.com/litex-hub/litei2c/i2cbus"
)

// DefaultBridgeDepth is the per-direction queue depth used when none is
// given.
const DefaultBridgeDepth = 32

// Bridge carries the command and response streams across a logical
// clock-domain boundary. Each direction is an independent bounded ordered
// queue: messages cross in submission order and a full queue stalls the
// producer side until the consumer drains it; nothing is dropped or
// reordered.
//
// The crossbar attaches to UserCmd/UserResp and is ticked in the user
// domain with TickUser; the engine side is ticked in the bus domain with
// TickBus. The two sides may run in different goroutines; all shared state
// crosses through the channels and one published idle flag.
type Bridge struct {
	cmd  chan i2cbus.Command
	resp chan i2cbus.Response

	// UserCmd and UserResp are the user-domain stream pair the crossbar
	// drives in place of the engine's own streams.
	UserCmd  i2cbus.CommandStream
	UserResp i2cbus.ResponseStream

	// inflight counts commands sent whose response has not yet been
	// collected. It is only touched from the user domain.
	inflight int

	// idle is the bus domain's view of "engine idle and bus-side path
	// drained", published every bus tick.
	idle atomic.Bool

	// active carries the granted port's activation into the bus domain,
	// published every user tick.
	active atomic.Bool
}

// NewBridge creates a bridge with the given per-direction queue depth;
// depth values below one select DefaultBridgeDepth.
func NewBridge(depth int) *Bridge {
	if depth < 1 {
		depth = DefaultBridgeDepth
	}
	b := &Bridge{
		cmd:  make(chan i2cbus.Command, depth),
		resp: make(chan i2cbus.Response, depth),
	}
	b.idle.Store(true)
	return b
}

// Active returns the bus-domain view of the granted port's activation;
// it is the engine's activation input when a bridge is in place.
func (b *Bridge) Active() bool { return b.active.Load() }

// TickUser runs the user-domain side for one cycle: pending commands move
// into the command queue unless it is full, arrived responses move into
// the user-side response stream, and the granted port's activation is
// published for the bus domain.
func (b *Bridge) TickUser(active bool) {
	b.active.Store(active)
	if c, ok := b.UserCmd.Peek(); ok {
		select {
		case b.cmd <- c:
			b.UserCmd.Pop()
			b.inflight++
		default:
			// Full queue: stall, retry next tick.
		}
	}
	if b.UserResp.Ready() {
		select {
		case r := <-b.resp:
			b.UserResp.Push(r)
			b.inflight--
		default:
		}
	}
}

// TickBus runs the bus-domain side for one cycle against the engine's
// stream pair, then publishes whether the bus side is fully drained and
// idle.
func (b *Bridge) TickBus(engCmd *i2cbus.CommandStream, engResp *i2cbus.ResponseStream, engineIdle bool) {
	if engCmd.Ready() {
		select {
		case c := <-b.cmd:
			engCmd.Push(c)
		default:
		}
	}
	if r, ok := engResp.Peek(); ok {
		select {
		case b.resp <- r:
			engResp.Pop()
		default:
			// Full queue: the engine keeps holding the response.
		}
	}
	b.idle.Store(engineIdle && !engCmd.Valid() && !engResp.Valid())
}

// Free reports from the user domain whether the whole path is drained and
// the engine idle, so the arbiter may move the grant. While any command
// has an outstanding response the grant stays put, which keeps
// continuation sequences on their originating port.
func (b *Bridge) Free() bool {
	return b.inflight == 0 && b.idle.Load()
}
