package xbar

import (
	"testing"

	"github.com/litex-hub/litei2c/i2cbus"
)

func TestNextGrant(t *testing.T) {
	cases := []struct {
		last     int
		requests []bool
		want     int
	}{
		{0, []bool{true, false, false}, 0},
		{0, []bool{false, true, false}, 1},
		{0, []bool{false, false, true}, 2},
		{0, []bool{true, true, true}, 1},
		{1, []bool{true, true, true}, 2},
		{2, []bool{true, true, true}, 0},
		{1, []bool{true, false, true}, 2},
		{2, []bool{true, false, true}, 0},
		{0, []bool{false, false, false}, 0},
		{2, []bool{false, false, false}, 2},
		{0, []bool{true}, 0},
	}
	for _, c := range cases {
		if got := NextGrant(c.last, c.requests); got != c.want {
			t.Errorf("NextGrant(%d, %v) = %d, want %d", c.last, c.requests, got, c.want)
		}
	}
}

// harness drives a crossbar against hand-operated engine-side streams,
// playing the engine's role directly.
type harness struct {
	engCmd  i2cbus.CommandStream
	engResp i2cbus.ResponseStream
	free    bool
	xb      *Crossbar
}

func newHarness() *harness {
	h := &harness{free: true}
	h.xb = New(&h.engCmd, &h.engResp, func() bool { return h.free })
	return h
}

func alwaysOn() bool { return true }

func TestCommandRouting(t *testing.T) {
	h := newHarness()
	p0 := h.xb.AddPort(alwaysOn, nil)
	p1 := h.xb.AddPort(alwaysOn, nil)

	p0.Cmd.Push(i2cbus.Command{Addr: 0x10})
	p1.Cmd.Push(i2cbus.Command{Addr: 0x20})

	// Both ports request, so the grant rotates between them and commands
	// reach the engine strictly alternately.
	var seen []uint8
	for i := 0; i < 8 && len(seen) < 2; i++ {
		h.xb.Tick()
		c, ok := h.engCmd.Pop()
		if !ok {
			continue
		}
		seen = append(seen, c.Addr)
		granted := h.xb.ports[h.xb.Grant()]
		h.engResp.Push(i2cbus.Response{})
		h.xb.Tick()
		if _, ok := granted.Resp.Pop(); !ok {
			t.Fatal("response not routed back to granted port")
		}
	}
	if len(seen) != 2 || seen[0] == seen[1] {
		t.Fatalf("engine saw commands from addrs %#x, want one from each port", seen)
	}
}

func TestRoundRobinAlternates(t *testing.T) {
	h := newHarness()
	h.xb.AddPort(alwaysOn, nil)
	h.xb.AddPort(alwaysOn, nil)
	h.xb.AddPort(alwaysOn, func() bool { return false })

	var grants []int
	for i := 0; i < 6; i++ {
		h.xb.Tick()
		grants = append(grants, h.xb.Grant())
	}
	// Port 2 never requests, so the grant alternates 1,0,1,0,... and
	// slot 2 is skipped without consuming a turn.
	for i, g := range grants {
		want := (i + 1) % 2
		if g != want {
			t.Fatalf("grant sequence %v, want alternation of 0 and 1", grants)
		}
	}
}

func TestGrantPinnedWhileBusy(t *testing.T) {
	h := newHarness()
	req1 := false
	p0 := h.xb.AddPort(alwaysOn, nil)
	h.xb.AddPort(alwaysOn, func() bool { return req1 })

	p0.Cmd.Push(i2cbus.Command{Addr: 0x10, LenTx: 6})
	h.xb.Tick()
	if !h.engCmd.Valid() {
		t.Fatal("command not forwarded")
	}
	if h.xb.Grant() != 0 {
		t.Fatalf("grant = %d, want 0", h.xb.Grant())
	}

	// Transaction in flight: the engine is busy, so the grant must not
	// move even though another port now requests.
	h.free = false
	h.engCmd.Pop()
	req1 = true
	for i := 0; i < 5; i++ {
		h.xb.Tick()
		if h.xb.Grant() != 0 {
			t.Fatalf("grant moved to %d while bus busy", h.xb.Grant())
		}
	}

	h.free = true
	h.xb.Tick()
	if h.xb.Grant() != 1 {
		t.Fatal("grant did not rotate after bus went free")
	}
}

// A pending engine-side command or response also pins the grant, even
// when the bus-free input is already asserted.
func TestGrantPinnedByPendingStreams(t *testing.T) {
	h := newHarness()
	req1 := false
	p0 := h.xb.AddPort(alwaysOn, nil)
	h.xb.AddPort(alwaysOn, func() bool { return req1 })

	p0.Cmd.Push(i2cbus.Command{Addr: 0x10})
	h.xb.Tick()
	if !h.engCmd.Valid() {
		t.Fatal("command not forwarded")
	}

	// Command parked on the engine-side slot.
	req1 = true
	h.xb.Tick()
	if h.xb.Grant() != 0 {
		t.Fatal("grant moved with a command still on the engine-side slot")
	}

	h.engCmd.Pop()
	h.engResp.Push(i2cbus.Response{})
	// Fill the user-side slot so the engine-side response cannot drain.
	p0.Resp.Push(i2cbus.Response{})
	h.xb.Tick()
	if h.xb.Grant() != 0 {
		t.Fatal("grant moved with a response still on the engine-side slot")
	}

	// Once the user slot drains, the parked response is delivered and the
	// grant may rotate on the same tick.
	p0.Resp.Pop()
	h.xb.Tick()
	if !p0.Resp.Valid() {
		t.Fatal("response not delivered to its port")
	}
	if h.xb.Grant() != 1 {
		t.Fatal("grant did not rotate after the path drained")
	}
}

func TestInactivePortHoldsCommand(t *testing.T) {
	h := newHarness()
	on := false
	p := h.xb.AddPort(func() bool { return on }, alwaysOn)

	p.Cmd.Push(i2cbus.Command{Addr: 0x10})
	for i := 0; i < 3; i++ {
		h.xb.Tick()
		if h.engCmd.Valid() {
			t.Fatal("command forwarded for inactive port")
		}
	}

	on = true
	h.xb.Tick()
	if !h.engCmd.Valid() {
		t.Fatal("command not forwarded after activation")
	}
}

func TestActiveFollowsGrant(t *testing.T) {
	h := newHarness()
	on0, on1 := true, false
	h.xb.AddPort(func() bool { return on0 }, alwaysOn)
	h.xb.AddPort(func() bool { return on1 }, alwaysOn)

	for i := 0; i < 4; i++ {
		h.xb.Tick()
		want := h.xb.Grant() == 0 && on0 || h.xb.Grant() == 1 && on1
		if h.xb.Active() != want {
			t.Fatalf("Active() = %v with grant %d", h.xb.Active(), h.xb.Grant())
		}
	}
}

func TestEmptyCrossbar(t *testing.T) {
	h := newHarness()
	h.xb.Tick()
	if h.xb.Active() {
		t.Fatal("empty crossbar reports active")
	}
}
