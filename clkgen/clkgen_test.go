package clkgen

import (
	"testing"

	"github.com/litex-hub/litei2c/i2cbus"
	"github.com/litex-hub/litei2c/simbus"
)

const sysFreq = 4_000_000

func TestDivisorTable(t *testing.T) {
	net := simbus.NewNet()
	g := New(net.Line(), sysFreq, i2cbus.Standard)

	want := map[i2cbus.SpeedMode]uint32{
		i2cbus.Standard: 9, // ceil(4e6 / 4e5) - 1
		i2cbus.Fast:     2, // ceil(4e6 / 1.6e6) - 1
		i2cbus.FastPlus: 0,
	}
	for mode, d := range want {
		g.SetMode(mode)
		if got := g.Div(); got != d {
			t.Errorf("div(%v) = %d, want %d", mode, got, d)
		}
	}
}

// The generated clock spends two quarter phases low and two high, so each
// level lasts 2*(div+1) system ticks.
func TestWaveform(t *testing.T) {
	net := simbus.NewNet()
	g := New(net.Line(), sysFreq, i2cbus.Standard)
	quarter := int(g.Div() + 1)

	levels := make([]bool, 0, 400)
	for i := 0; i < 400; i++ {
		g.Tick(true, false, false)
		levels = append(levels, net.Level())
	}

	// Measure complete runs, skipping the partial first and last ones.
	var runs []int
	n := 1
	for i := 1; i < len(levels); i++ {
		if levels[i] == levels[i-1] {
			n++
		} else {
			runs = append(runs, n)
			n = 1
		}
	}
	if len(runs) < 4 {
		t.Fatalf("only %d level runs in %d ticks", len(runs), len(levels))
	}
	for _, r := range runs[1:] {
		if r != 2*quarter {
			t.Fatalf("level run of %d ticks, want %d (runs %v)", r, 2*quarter, runs)
		}
	}
}

func TestStrobesOncePerPeriod(t *testing.T) {
	net := simbus.NewNet()
	g := New(net.Line(), sysFreq, i2cbus.Standard)
	period := 4 * int(g.Div()+1)

	var txs, rxs int
	for i := 0; i < period; i++ {
		tx, rx := g.Strobes(true)
		if tx {
			txs++
		}
		if rx {
			rxs++
		}
		if tx && rx {
			t.Fatal("tx and rx strobes fired on the same tick")
		}
		g.Tick(true, false, false)
	}
	if txs != 1 || rxs != 1 {
		t.Fatalf("got %d tx, %d rx strobes per period, want 1 each", txs, rxs)
	}
}

func TestStrobesGatedByEnable(t *testing.T) {
	net := simbus.NewNet()
	g := New(net.Line(), sysFreq, i2cbus.FastPlus)
	for i := 0; i < 20; i++ {
		if tx, rx := g.Strobes(false); tx || rx {
			t.Fatal("strobe fired while disabled")
		}
		g.Tick(true, false, false)
	}
}

func TestDisableLevels(t *testing.T) {
	net := simbus.NewNet()
	g := New(net.Line(), sysFreq, i2cbus.Standard)

	g.Tick(false, false, false)
	if !net.Level() {
		t.Fatal("disabled clock should release the line")
	}

	g.Tick(false, true, false)
	if net.Level() {
		t.Fatal("disabled clock with keepLow should hold the line low")
	}

	// Re-enabling must restart from a reset phase.
	g.Tick(true, false, false)
	if tx, rx := g.Strobes(true); tx || rx {
		t.Fatal("strobe immediately after re-enable")
	}
}

func TestSuppressReleasesLine(t *testing.T) {
	net := simbus.NewNet()
	g := New(net.Line(), sysFreq, i2cbus.FastPlus)

	// Run until the clock is in its low phase.
	low := false
	for i := 0; i < 16 && !low; i++ {
		g.Tick(true, false, false)
		low = !net.Level()
	}
	if !low {
		t.Fatal("clock never went low")
	}

	g.Tick(true, false, true)
	if !net.Level() {
		t.Fatal("suppressed clock should release the line")
	}
}
