package simbus

import (
	"github.com/litex-hub/litei2c/i2cbus"
)

type slaveState uint8

const (
	slaveIdle slaveState = iota
	slaveAddr
	slaveAckWait // wait for the falling edge that starts the ack cell
	slaveAck     // driving ACK, until the falling edge that ends the cell
	slaveWrite
	slaveRead
	slaveReadAck
)

// Slave is an edge-triggered model of an addressed I2C target. It is
// stepped once per system tick after the controller, samples its lines on
// SCL rising edges and updates its SDA drive on falling edges, which is
// the discipline a real device follows.
//
// Written bytes are appended to Writes; read transfers are served from
// ReadData in order, then 0xFF once exhausted. The model also counts the
// START and STOP conditions it observes, so tests can assert the exact
// wire-level shape of a transaction.
type Slave struct {
	// Addr is the 7-bit address the slave answers to.
	Addr uint8

	// NAKAddr makes the slave ignore its address, so the address phase
	// sees no acknowledgment.
	NAKAddr bool

	// ReadData is the stream of bytes served on read transfers.
	ReadData []byte

	// Writes accumulates every byte received on write transfers.
	Writes []byte

	// Starts and Stops count observed START and STOP conditions; a
	// repeated start counts as a START.
	Starts int
	Stops  int

	scl, sda i2cbus.Line

	prevSCL, prevSDA bool

	st      slaveState
	sr      uint8
	bits    uint8
	reading bool
	ackOK   bool
	readPos int
	cur     uint8
}

// NewSlave attaches a slave model to the given nets.
func NewSlave(sclNet, sdaNet *Net, addr uint8) *Slave {
	return &Slave{
		Addr:    addr,
		scl:     sclNet.Line(),
		sda:     sdaNet.Line(),
		prevSCL: true,
		prevSDA: true,
	}
}

func (s *Slave) nextReadByte() uint8 {
	if s.readPos < len(s.ReadData) {
		b := s.ReadData[s.readPos]
		s.readPos++
		return b
	}
	return 0xff
}

// outputBit drives the current data bit, MSB first.
func (s *Slave) outputBit() {
	if s.cur&0x80 == 0 {
		s.sda.DriveLow()
	} else {
		s.sda.Release()
	}
	s.cur <<= 1
	s.bits++
}

// Step advances the model by one system tick.
func (s *Slave) Step() {
	scl := s.scl.Sample()
	sda := s.sda.Sample()
	rising := scl && !s.prevSCL
	falling := !scl && s.prevSCL

	// SDA transitions while SCL is high are bus conditions.
	if scl && s.prevSCL && sda != s.prevSDA {
		if !sda {
			s.Starts++
			s.st = slaveAddr
			s.sr = 0
			s.bits = 0
			s.sda.Release()
		} else {
			s.Stops++
			s.st = slaveIdle
			s.sda.Release()
		}
	}

	switch s.st {
	case slaveAddr:
		if rising {
			s.sr = s.sr<<1 | b2u(sda)
			s.bits++
			if s.bits == 8 {
				if s.sr>>1 == s.Addr&0x7f && !s.NAKAddr {
					s.reading = s.sr&1 != 0
					s.st = slaveAckWait
				} else {
					s.st = slaveIdle
				}
			}
		}

	case slaveAckWait:
		if falling {
			s.sda.DriveLow()
			s.st = slaveAck
		}

	case slaveAck:
		if falling {
			s.sda.Release()
			if s.reading {
				s.cur = s.nextReadByte()
				s.bits = 0
				s.outputBit()
				s.st = slaveRead
			} else {
				s.sr = 0
				s.bits = 0
				s.st = slaveWrite
			}
		}

	case slaveWrite:
		if rising {
			s.sr = s.sr<<1 | b2u(sda)
			s.bits++
			if s.bits == 8 {
				s.Writes = append(s.Writes, s.sr)
				s.st = slaveAckWait
				s.reading = false
			}
		}

	case slaveRead:
		if falling {
			if s.bits < 8 {
				s.outputBit()
			} else {
				// Ack cell: the master drives it.
				s.sda.Release()
				s.ackOK = false
				s.st = slaveReadAck
			}
		}

	case slaveReadAck:
		if rising {
			s.ackOK = !sda
		}
		if falling {
			if s.ackOK {
				s.cur = s.nextReadByte()
				s.bits = 0
				s.outputBit()
				s.st = slaveRead
			} else {
				// Master NACK: transfer over, wait for STOP.
				s.sda.Release()
				s.st = slaveIdle
			}
		}
	}

	s.prevSCL = scl
	s.prevSDA = sda
}

// StuckSlave models a device holding SDA low, the situation the bus
// recovery sequence exists for. It releases the line once it has seen
// the configured number of SCL rising edges.
type StuckSlave struct {
	// Need is how many clock pulses free the device.
	Need int

	// Pulses counts observed SCL rising edges.
	Pulses int

	scl, sda i2cbus.Line
	prevSCL  bool
	released bool
}

// NewStuckSlave attaches a stuck device to the given nets.
func NewStuckSlave(sclNet, sdaNet *Net, need int) *StuckSlave {
	s := &StuckSlave{
		Need:    need,
		scl:     sclNet.Line(),
		sda:     sdaNet.Line(),
		prevSCL: true,
	}
	s.sda.DriveLow()
	return s
}

// Released reports whether the device has let go of SDA.
func (s *StuckSlave) Released() bool { return s.released }

// Step advances the model by one system tick.
func (s *StuckSlave) Step() {
	scl := s.scl.Sample()
	if scl && !s.prevSCL {
		s.Pulses++
		if !s.released && s.Pulses >= s.Need {
			s.released = true
			s.sda.Release()
		}
	}
	s.prevSCL = scl
}

func b2u(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}
