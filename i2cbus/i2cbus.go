// Package i2cbus defines the shared data model for the LiteI2C controller:
// the command and response records exchanged between logical users and the
// bus engine, bus speed modes, the open-drain line capability interface and
// the ready/valid streams used at every component boundary.
package i2cbus

// ChunkBytes is the most bytes a single command moves per direction. A
// declared length above ChunkBytes announces that the transfer continues
// with follow-up commands; it is not a literal per-command byte count.
const ChunkBytes = 4

// MaxLen is the largest encodable transfer length declaration.
const MaxLen = 7

// Command is one transfer request, produced by a logical user and consumed
// by the bus engine. Commands are single use: produced, handed over and
// never mutated afterwards.
type Command struct {
	// Data holds up to ChunkBytes payload bytes to transmit, packed
	// MSB-first: the first byte on the wire is the most significant byte
	// covered by LenTx.
	Data uint32

	// Addr is the 7-bit slave address.
	Addr uint8

	// LenTx is the number of bytes to transmit, 0 to MaxLen. Values above
	// ChunkBytes declare that more data follows in continuation commands.
	LenTx uint8

	// LenRx is the number of bytes to receive, with the same continuation
	// declaration semantics as LenTx.
	LenRx uint8

	// Recover requests the bus recovery sequence instead of an addressed
	// transfer: SDA released, nine clock pulses, then STOP.
	Recover bool
}

// CapLen limits a declared transfer length to the per-command datapath
// capacity.
func CapLen(n uint8) uint8 {
	if n > ChunkBytes {
		return ChunkBytes
	}
	return n
}

// Response is the engine's report for one command. Exactly one response is
// produced per accepted command.
type Response struct {
	// Data holds the bytes received by the last chunk, packed MSB-first:
	// the last byte received occupies the least significant byte.
	Data uint32

	// NACK is set when the slave failed to acknowledge the address or a
	// data byte. The transaction was terminated with STOP and no
	// continuation is possible.
	NACK bool

	// UnfinishedTx is set when the transmit side of the transfer has not
	// completed and the engine is holding the bus waiting for a
	// continuation command.
	UnfinishedTx bool

	// UnfinishedRx is the receive-side equivalent of UnfinishedTx.
	UnfinishedRx bool
}

// SpeedMode selects the bus clock frequency.
type SpeedMode uint8

// Supported speed modes.
const (
	Standard SpeedMode = iota // 100 kHz
	Fast                      // 400 kHz
	FastPlus                  // 1000 kHz

	NumSpeedModes = 3
)

// Frequency returns the target bus frequency of the mode in Hz.
func (m SpeedMode) Frequency() uint32 {
	switch m {
	case Fast:
		return 400_000
	case FastPlus:
		return 1_000_000
	default:
		return 100_000
	}
}

func (m SpeedMode) String() string {
	switch m {
	case Standard:
		return "standard"
	case Fast:
		return "fast"
	case FastPlus:
		return "fast-plus"
	default:
		return "INVALID"
	}
}

// Divisor returns the clock generator divisor for a target bus frequency:
// the system clock is divided into four quarter phases per bit cell, each
// divisor+1 system cycles long.
func Divisor(sysClkFreq, busFreq uint32) uint32 {
	return (sysClkFreq+4*busFreq-1)/(4*busFreq) - 1
}

// Line is an open-drain bus line. Implementations may only ever pull the
// line low or let it float; there is no way to drive it high, which keeps
// the open-drain discipline a type-level contract. Sampling is always
// available regardless of the current drive state.
type Line interface {
	// DriveLow requests the pad to pull the line low.
	DriveLow()

	// Release lets the line float so the external pull-up can return it
	// high.
	Release()

	// Sample reads the current line level; true is high.
	Sample() bool
}

// LineFunc is an adapter to allow the use of plain functions as a Line,
// for pads that natively expose output/enable and input signals.
type LineFunc struct {
	DriveLowFunc func()
	ReleaseFunc  func()
	SampleFunc   func() bool
}

// DriveLow implements Line.
func (l LineFunc) DriveLow() { l.DriveLowFunc() }

// Release implements Line.
func (l LineFunc) Release() { l.ReleaseFunc() }

// Sample implements Line.
func (l LineFunc) Sample() bool { return l.SampleFunc() }
