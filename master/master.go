// Package master provides the register-style front end of the controller:
// a minimal enable/settings/address/data/status surface that turns
// discrete register accesses into queued commands on one crossbar port.
// It is the intended consumer-facing API for simple use; other logical
// users may attach to further crossbar ports with their own command and
// response producers.
package master

import (
	"fmt"

	"github.com/litex-hub/litei2c/i2cbus"
	"github.com/litex-hub/litei2c/xbar"
)

// Config holds the construction-time parameters of a front end.
type Config struct {
	// TxFIFODepth and RxFIFODepth size the command and response queues.
	// Zero selects the default depth of one, i.e. at most one in-flight
	// unacknowledged command.
	TxFIFODepth int
	RxFIFODepth int
}

// Validate returns an error if the configuration is unusable.
func (c Config) Validate() error {
	if c.TxFIFODepth < 0 {
		return fmt.Errorf("master: negative tx fifo depth %d", c.TxFIFODepth)
	}
	if c.RxFIFODepth < 0 {
		return fmt.Errorf("master: negative rx fifo depth %d", c.RxFIFODepth)
	}
	return nil
}

// Master is one register-operated bus user.
type Master struct {
	port *xbar.Port

	enable   bool
	settings Settings
	addr     uint8

	txq []i2cbus.Command
	rxq []i2cbus.Response
}

// New creates a front end with the given configuration. The returned
// master must be bound to a crossbar port before its first tick.
func New(cfg Config) (*Master, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	txd, rxd := cfg.TxFIFODepth, cfg.RxFIFODepth
	if txd == 0 {
		txd = 1
	}
	if rxd == 0 {
		rxd = 1
	}
	return &Master{
		txq: make([]i2cbus.Command, 0, txd),
		rxq: make([]i2cbus.Response, 0, rxd),
	}, nil
}

// Bind attaches the master to its crossbar port. The port's activation
// must be the master's Enabled method.
func (m *Master) Bind(p *xbar.Port) { m.port = p }

// SetEnable sets the enable register. The enable value doubles as the
// port activation, so a disabled master never receives the bus grant's
// attention.
func (m *Master) SetEnable(v bool) { m.enable = v }

// Enabled returns the enable register.
func (m *Master) Enabled() bool { return m.enable }

// WriteSettings stores the transfer settings applied to subsequently
// queued commands.
func (m *Master) WriteSettings(s Settings) { m.settings = s }

// ReadSettings returns the stored transfer settings.
func (m *Master) ReadSettings() Settings { return m.settings }

// WriteAddress stores the 7-bit target address applied to subsequently
// queued commands.
func (m *Master) WriteAddress(a uint8) { m.addr = a & 0x7f }

// ReadAddress returns the stored target address.
func (m *Master) ReadAddress() uint8 { return m.addr }

// WriteData enqueues one command carrying v as payload, tagged with the
// currently held settings and address. It returns false when the TX queue
// is full, in which case nothing is queued; check TxReady in the status
// word first.
func (m *Master) WriteData(v uint32) bool {
	if len(m.txq) == cap(m.txq) {
		return false
	}
	m.txq = append(m.txq, i2cbus.Command{
		Data:    v,
		Addr:    m.addr,
		LenTx:   m.settings.LenTx(),
		LenRx:   m.settings.LenRx(),
		Recover: m.settings.Recover(),
	})
	return true
}

// ReadData dequeues one response and returns its payload. It returns
// false when the RX queue is empty; check RxReady in the status word
// first.
func (m *Master) ReadData() (uint32, bool) {
	if len(m.rxq) == 0 {
		return 0, false
	}
	r := m.rxq[0]
	copy(m.rxq, m.rxq[1:])
	m.rxq = m.rxq[:len(m.rxq)-1]
	return r.Data, true
}

// ReadStatus returns the status word. The error and continuation flags
// reflect the response at the head of the RX queue; they are cleared once
// that response is dequeued.
func (m *Master) ReadStatus() Status {
	var s Status
	s.SetTxReady(len(m.txq) < cap(m.txq))
	s.SetRxReady(len(m.rxq) > 0)
	if len(m.rxq) > 0 {
		head := m.rxq[0]
		s.SetNACK(head.NACK)
		s.SetTxUnfinished(head.UnfinishedTx)
		s.SetRxUnfinished(head.UnfinishedRx)
	}
	return s
}

// Tick moves the TX queue head onto the port's command stream and drains
// the port's response stream into the RX queue, one transfer each per
// cycle.
func (m *Master) Tick() {
	if len(m.txq) > 0 {
		if m.port.Cmd.Push(m.txq[0]) {
			copy(m.txq, m.txq[1:])
			m.txq = m.txq[:len(m.txq)-1]
		}
	}
	if len(m.rxq) < cap(m.rxq) {
		if r, ok := m.port.Resp.Pop(); ok {
			m.rxq = append(m.rxq, r)
		}
	}
}
