package master

// Settings is the transfer-settings register word. Bit layout:
//
//	bits 0-2   len_tx  transmit length; above 4 announces more data follows
//	bits 8-10  len_rx  receive length, same announcement semantics
//	bit 16     recover run the bus recovery sequence instead of a transfer
type Settings uint32

// LenTx returns the transmit length field.
func (s Settings) LenTx() uint8 {
	return uint8(s & 0b111)
}

// SetLenTx sets the transmit length field.
func (s *Settings) SetLenTx(n uint8) {
	*s = (*s & ^Settings(0b111)) | Settings(n&0b111)
}

// LenRx returns the receive length field.
func (s Settings) LenRx() uint8 {
	return uint8((s >> 8) & 0b111)
}

// SetLenRx sets the receive length field.
func (s *Settings) SetLenRx(n uint8) {
	*s = (*s & ^(Settings(0b111) << 8)) | (Settings(n&0b111) << 8)
}

// Recover returns the recover flag.
func (s Settings) Recover() bool {
	return s&(1<<16) != 0
}

// SetRecover sets the recover flag.
func (s *Settings) SetRecover(v bool) {
	var b Settings
	if v {
		b = 1 << 16
	}
	*s = (*s & ^(Settings(1) << 16)) | b
}

// Status is the read-only status register word. Bit layout:
//
//	bit 0   tx_ready      TX queue is not full
//	bit 1   rx_ready      RX queue is not empty
//	bit 8   nack          error on transfer
//	bit 16  tx_unfinished another tx transfer is expected
//	bit 17  rx_unfinished another rx transfer is expected
type Status uint32

// TxReady returns the tx_ready flag.
func (s Status) TxReady() bool { return s&1 != 0 }

// SetTxReady sets the tx_ready flag.
func (s *Status) SetTxReady(v bool) { s.set(0, v) }

// RxReady returns the rx_ready flag.
func (s Status) RxReady() bool { return s&(1<<1) != 0 }

// SetRxReady sets the rx_ready flag.
func (s *Status) SetRxReady(v bool) { s.set(1, v) }

// NACK returns the nack flag.
func (s Status) NACK() bool { return s&(1<<8) != 0 }

// SetNACK sets the nack flag.
func (s *Status) SetNACK(v bool) { s.set(8, v) }

// TxUnfinished returns the tx_unfinished flag.
func (s Status) TxUnfinished() bool { return s&(1<<16) != 0 }

// SetTxUnfinished sets the tx_unfinished flag.
func (s *Status) SetTxUnfinished(v bool) { s.set(16, v) }

// RxUnfinished returns the rx_unfinished flag.
func (s Status) RxUnfinished() bool { return s&(1<<17) != 0 }

// SetRxUnfinished sets the rx_unfinished flag.
func (s *Status) SetRxUnfinished(v bool) { s.set(17, v) }

func (s *Status) set(bit uint, v bool) {
	if v {
		*s |= 1 << bit
	} else {
		*s &= ^(Status(1) << bit)
	}
}
