// Package engine implements the I2C bus protocol state machine. The engine
// consumes one command stream, drives the SCL/SDA lines through the clock
// generator and the open-drain line interface, and produces one response
// stream. It is stepped once per system-clock cycle; all outputs are
// recomputed from the current state and inputs on every tick and next-state
// updates apply at the tick boundary.
package engine

import (
	"github.com/litex-hub/litei2c/clkgen"
	"github.com/litex-hub/litei2c/i2cbus"
)

type state uint8

const (
	stateWaitData state = iota
	stateStart
	stateAddr
	stateAddrRW
	stateAddrAck
	statePreTx
	stateTx
	stateTxAck
	stateTxBeforeNext
	stateTxPreWait
	stateTxWaitSendStatus
	stateTxWait
	stateNackError
	stateRepStart1
	stateRepStart2
	statePreRx
	stateRx
	stateRxPreAck
	stateRxAck
	stateRxNack
	stateRxWaitSendStatus
	stateRxWait
	stateStopPre
	stateStop
	stateXferEnd
	stateSendStatus
	stateBusFree
	stateRecover1
	stateRecover2
)

// Engine is the bus protocol state machine for one physical bus.
//
// A transaction starts when the activation input is asserted and a command
// is pending on Cmd. The engine then owns the bus until it returns to the
// idle state: it never reorders bytes within a transaction and stalls in
// place whenever it needs a command that has not arrived or needs to emit
// a response the consumer has not collected. There is no timeout on either
// handshake; a stalled peer stalls the engine indefinitely.
//
// All internal shift registers and counters are owned by the state machine
// alone; external code interacts only through Cmd, Resp and the activation
// input.
type Engine struct {
	sda    i2cbus.Line
	clk    *clkgen.ClockGen
	active func() bool

	// Cmd carries commands into the engine; Resp carries exactly one
	// response out per accepted command.
	Cmd  i2cbus.CommandStream
	Resp i2cbus.ResponseStream

	st     state
	nack   bool
	txDone bool

	srAddr    uint8
	srCnt     uint8
	bytesSent uint8
	bytesRecv uint8
	srOut     uint32
	srIn      uint32
}

// New creates an engine for the given SDA line and clock generator. The
// clock generator is ticked by the engine and must not be ticked by anyone
// else.
func New(sda i2cbus.Line, clk *clkgen.ClockGen) *Engine {
	return &Engine{sda: sda, clk: clk}
}

// SetActiveFunc installs the activation input, typically the crossbar's
// granted-port activation. A nil function means always active.
func (e *Engine) SetActiveFunc(active func() bool) { e.active = active }

// Clock returns the engine's clock generator.
func (e *Engine) Clock() *clkgen.ClockGen { return e.clk }

// Idle reports whether the engine is between transactions. The arbiter may
// only move the grant while the engine is idle.
func (e *Engine) Idle() bool { return e.st == stateWaitData }

// Tick advances the engine by one system-clock cycle.
func (e *Engine) Tick() {
	cmd, cmdValid := e.Cmd.Peek()
	active := e.active == nil || e.active()
	sdaIn := e.sda.Sample()
	tx, rx := e.clk.Strobes(true)

	var clkEn, keepLow, suppress bool
	var sdaOE, sdaO bool

	next := e.st

	switch e.st {
	case stateWaitData:
		e.nack = false
		e.txDone = false
		if active && cmdValid {
			next = stateStart
		}

	case stateStart:
		// SDA falls while SCL is high.
		clkEn = true
		sdaOE = true
		e.srAddr = cmd.Addr & 0x7f
		e.srCnt = 0
		if tx {
			if cmd.Recover {
				next = stateRecover1
			} else {
				next = stateAddr
			}
		}

	case stateAddr:
		clkEn = true
		sdaOE = true
		sdaO = e.srAddr&0x40 != 0
		if tx {
			if e.srCnt == 6 {
				next = stateAddrRW
			} else {
				e.srAddr <<= 1
				e.srCnt++
			}
		}

	case stateAddrRW:
		// The R/W bit is derived, not stored: write while a tx portion
		// remains, read when only an rx portion remains, write for a
		// zero-length probe.
		clkEn = true
		sdaOE = true
		switch {
		case cmd.LenTx > 0 && !e.txDone:
			sdaO = false
		case cmd.LenRx > 0:
			sdaO = true
		default:
			sdaO = false
		}
		if tx {
			next = stateAddrAck
		}

	case stateAddrAck:
		clkEn = true
		if rx {
			switch {
			case sdaIn:
				next = stateNackError
			case cmd.LenTx > 0 && !e.txDone:
				next = statePreTx
			case cmd.LenRx > 0:
				next = statePreRx
			default:
				next = stateStopPre
			}
		}

	case statePreTx:
		clkEn = true
		e.srCnt = 0
		e.bytesSent = 0
		e.srOut = cmd.Data << (32 - uint32(i2cbus.CapLen(cmd.LenTx))*8)
		if tx {
			next = stateTx
		}

	case stateTx:
		clkEn = true
		sdaOE = true
		sdaO = e.srOut&(1<<31) != 0
		if tx {
			if e.srCnt == 7 {
				e.srCnt = 0
				e.bytesSent++
				next = stateTxAck
			} else {
				e.srCnt++
				e.srOut <<= 1
			}
		}

	case stateTxAck:
		clkEn = true
		if rx {
			switch {
			case sdaIn:
				next = stateNackError
			case e.bytesSent == i2cbus.ChunkBytes && cmd.LenTx > i2cbus.ChunkBytes:
				next = stateTxPreWait
			case e.bytesSent < cmd.LenTx:
				next = stateTxBeforeNext
			default:
				e.txDone = true
				if cmd.LenRx > 0 {
					next = stateRepStart1
				} else {
					next = stateStopPre
				}
			}
		}

	case stateTxBeforeNext:
		clkEn = true
		if tx {
			e.srOut <<= 1
			next = stateTx
		}

	case stateTxPreWait:
		// The chunk's command is consumed here; the continuation arrives
		// as a fresh command on the same stream.
		clkEn = true
		e.Cmd.Pop()
		if tx {
			next = stateTxWaitSendStatus
		}

	case stateTxWaitSendStatus:
		keepLow = true
		if e.Resp.Push(i2cbus.Response{UnfinishedTx: true}) {
			next = stateTxWait
		}

	case stateTxWait:
		// Bus stretched low until the continuation command shows up.
		keepLow = true
		e.txDone = false
		if active && cmdValid {
			next = statePreTx
		}

	case stateNackError:
		clkEn = true
		e.nack = true
		if tx {
			next = stateStop
		}

	case stateRepStart1:
		clkEn = true
		if tx {
			next = stateRepStart2
		}

	case stateRepStart2:
		// SDA released while SCL rises, so the following START state can
		// pull it low again without an intervening STOP.
		clkEn = true
		sdaOE = true
		sdaO = true
		if rx {
			next = stateStart
		}

	case statePreRx:
		clkEn = true
		e.srCnt = 0
		e.bytesRecv = 0
		e.srIn = 0
		if tx {
			next = stateRx
		}

	case stateRx:
		clkEn = true
		if rx {
			e.srIn <<= 1
			if sdaIn {
				e.srIn |= 1
			}
			if e.srCnt == 7 {
				e.srCnt = 0
				e.bytesRecv++
				next = stateRxPreAck
			} else {
				e.srCnt++
			}
		}

	case stateRxPreAck:
		clkEn = true
		if tx {
			if e.bytesRecv < cmd.LenRx {
				next = stateRxAck
			} else {
				next = stateRxNack
			}
		}

	case stateRxAck:
		clkEn = true
		sdaOE = true
		if tx {
			e.srCnt = 0
			if e.bytesRecv == i2cbus.ChunkBytes {
				e.Cmd.Pop()
				next = stateRxWaitSendStatus
			} else {
				next = stateRx
			}
		}

	case stateRxNack:
		// Master NACK after the final byte of a read.
		clkEn = true
		sdaOE = true
		sdaO = true
		if tx {
			next = stateStop
		}

	case stateRxWaitSendStatus:
		keepLow = true
		if e.Resp.Push(i2cbus.Response{Data: e.srIn, UnfinishedRx: true}) {
			next = stateRxWait
		}

	case stateRxWait:
		keepLow = true
		if active && cmdValid {
			next = statePreRx
		}

	case stateStopPre:
		clkEn = true
		if tx {
			next = stateStop
		}

	case stateStop:
		// SDA held low, then released while SCL is high.
		clkEn = true
		sdaOE = true
		if rx {
			sdaO = true
			next = stateXferEnd
		}

	case stateXferEnd:
		sdaOE = true
		sdaO = true
		e.Cmd.Pop()
		next = stateSendStatus

	case stateSendStatus:
		sdaOE = true
		sdaO = true
		if e.Resp.Push(i2cbus.Response{Data: e.srIn, NACK: e.nack}) {
			next = stateBusFree
		}

	case stateBusFree:
		// Minimum bus-free time: run the clock one period with the pad
		// suppressed before accepting the next command.
		clkEn = true
		suppress = true
		if rx {
			next = stateWaitData
		}

	case stateRecover1:
		// Nine clock pulses with SDA released.
		clkEn = true
		sdaOE = true
		sdaO = true
		if e.srCnt < 9 {
			if tx {
				e.srCnt++
			}
		} else if rx {
			next = stateRecover2
		}

	case stateRecover2:
		clkEn = true
		sdaOE = true
		if tx {
			next = stateStop
		}
	}

	// The pad is driven low only when output is enabled with a low value;
	// everything else releases the line.
	if sdaOE && !sdaO {
		e.sda.DriveLow()
	} else {
		e.sda.Release()
	}

	e.clk.Tick(clkEn, keepLow, suppress)
	e.st = next
}
