package i2cbus

import "testing"

func TestDivisor(t *testing.T) {
	cases := []struct {
		sys, bus uint32
		want     uint32
	}{
		{100_000_000, 100_000, 249},
		{100_000_000, 400_000, 62},  // ceil(62.5) - 1
		{100_000_000, 1_000_000, 24},
		{50_000_000, 400_000, 31},   // ceil(31.25) - 1
		{66_000_000, 1_000_000, 16}, // ceil(16.5) - 1
		{4_000_000, 1_000_000, 0},
	}
	for _, c := range cases {
		if got := Divisor(c.sys, c.bus); got != c.want {
			t.Errorf("Divisor(%d, %d) = %d, want %d", c.sys, c.bus, got, c.want)
		}
	}
}

func TestSpeedModeFrequency(t *testing.T) {
	if f := Standard.Frequency(); f != 100_000 {
		t.Errorf("standard frequency = %d", f)
	}
	if f := Fast.Frequency(); f != 400_000 {
		t.Errorf("fast frequency = %d", f)
	}
	if f := FastPlus.Frequency(); f != 1_000_000 {
		t.Errorf("fast-plus frequency = %d", f)
	}
}

func TestCapLen(t *testing.T) {
	for n := uint8(0); n <= MaxLen; n++ {
		want := n
		if want > ChunkBytes {
			want = ChunkBytes
		}
		if got := CapLen(n); got != want {
			t.Errorf("CapLen(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestCommandStreamHandshake(t *testing.T) {
	var s CommandStream
	if s.Valid() || !s.Ready() {
		t.Fatal("new stream should be empty")
	}
	if _, ok := s.Pop(); ok {
		t.Fatal("pop on empty stream succeeded")
	}

	c1 := Command{Data: 0x11, Addr: 0x2a, LenTx: 1}
	if !s.Push(c1) {
		t.Fatal("push into empty stream failed")
	}
	if s.Push(Command{Data: 0x22}) {
		t.Fatal("push into full stream succeeded; expected backpressure")
	}

	// Peek must not consume.
	for i := 0; i < 3; i++ {
		got, ok := s.Peek()
		if !ok || got != c1 {
			t.Fatalf("peek %d = %+v, %v", i, got, ok)
		}
	}

	got, ok := s.Pop()
	if !ok || got != c1 {
		t.Fatalf("pop = %+v, %v", got, ok)
	}
	if s.Valid() {
		t.Fatal("stream still valid after pop")
	}
}

func TestResponseStreamHandshake(t *testing.T) {
	var s ResponseStream
	r := Response{Data: 0xa1b2, NACK: true}
	if !s.Push(r) {
		t.Fatal("push into empty stream failed")
	}
	if s.Push(Response{}) {
		t.Fatal("push into full stream succeeded; expected backpressure")
	}
	got, ok := s.Pop()
	if !ok || got != r {
		t.Fatalf("pop = %+v, %v", got, ok)
	}
}
