package i2cbus

// CommandStream is a single-slot ready/valid register carrying commands
// from a producer to a consumer. The producer pushes when the slot is
// free; the consumer peeks at the pending command for as long as it needs
// and pops it exactly once, which completes the handshake. A full slot
// back-pressures the producer: Push fails and must be retried on a later
// tick. Transfers are strictly FIFO and never reordered.
//
// A stream must only be used by one producer and one consumer.
type CommandStream struct {
	cmd   Command
	valid bool
}

// Push offers a command to the stream. It returns false without side
// effects when the slot is still occupied.
func (s *CommandStream) Push(c Command) bool {
	if s.valid {
		return false
	}
	s.cmd = c
	s.valid = true
	return true
}

// Peek returns the pending command without consuming it.
func (s *CommandStream) Peek() (Command, bool) {
	return s.cmd, s.valid
}

// Pop consumes the pending command.
func (s *CommandStream) Pop() (Command, bool) {
	c, ok := s.cmd, s.valid
	s.valid = false
	return c, ok
}

// Valid reports whether a command is pending.
func (s *CommandStream) Valid() bool { return s.valid }

// Ready reports whether the slot can accept a push.
func (s *CommandStream) Ready() bool { return !s.valid }

// ResponseStream is the response-direction counterpart of CommandStream.
type ResponseStream struct {
	resp  Response
	valid bool
}

// Push offers a response to the stream. It returns false without side
// effects when the slot is still occupied.
func (s *ResponseStream) Push(r Response) bool {
	if s.valid {
		return false
	}
	s.resp = r
	s.valid = true
	return true
}

// Peek returns the pending response without consuming it.
func (s *ResponseStream) Peek() (Response, bool) {
	return s.resp, s.valid
}

// Pop consumes the pending response.
func (s *ResponseStream) Pop() (Response, bool) {
	r, ok := s.resp, s.valid
	s.valid = false
	return r, ok
}

// Valid reports whether a response is pending.
func (s *ResponseStream) Valid() bool { return s.valid }

// Ready reports whether the slot can accept a push.
func (s *ResponseStream) Ready() bool { return !s.valid }
