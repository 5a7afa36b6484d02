package sfl

// Parser assembles frames from received bytes.
type Parser struct {
	state   parseState
	frame   *Frame
	recvLen int
	crc     uint16
}

// ParseResult indicates the result after one parsing step. At most one of
// Frame and Nak is set.
type ParseResult struct {
	// Frame is a complete frame whose checksum matched.
	Frame *Frame
	// Nak is the reply for a rejected frame, 0 if none.
	Nak byte
	// Err describes the rejection.
	Err error
}

type parseState int

const (
	stateCmd     parseState = iota // waiting for command byte
	stateLen                       // waiting for payload length
	statePayload                   // receiving payload
	stateCRCHigh                   // waiting for CRC high byte
	stateCRCLow                    // waiting for CRC low byte
)

// InFrame reports whether a frame is partially received.
func (p *Parser) InFrame() bool {
	return p.state != stateCmd
}

// Reset drops any partially received frame.
func (p *Parser) Reset() {
	p.state, p.frame, p.recvLen, p.crc = stateCmd, nil, 0, 0
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	switch p.state {
	case stateCmd:
		p.frame = &Frame{Cmd: Command(b)}
		p.state = stateLen
	case stateLen:
		if b == 0 {
			p.state = stateCRCHigh
			break
		}
		p.frame.Payload, p.recvLen = make([]byte, b), 0
		p.state = statePayload
	case statePayload:
		p.frame.Payload[p.recvLen] = b
		p.recvLen++
		if p.recvLen >= len(p.frame.Payload) {
			p.state = stateCRCHigh
		}
	case stateCRCHigh:
		p.crc = uint16(b) << 8
		p.state = stateCRCLow
	case stateCRCLow:
		p.crc |= uint16(b)
		return p.frameReady()
	}
	return
}

// Timeout notifies the parser the byte timeout expired. A partially
// received frame is dropped and rejected; an idle parser stays silent.
func (p *Parser) Timeout() (pr ParseResult) {
	if p.InFrame() {
		p.Reset()
		pr.Nak, pr.Err = NakTimeout, ErrIncomplete
	}
	return
}

func (p *Parser) frameReady() (pr ParseResult) {
	frame, crc := p.frame, p.crc
	p.Reset()
	if frame.Checksum() != crc {
		pr.Nak, pr.Err = NakChecksum, ErrChecksum
		return
	}
	if !frame.Cmd.IsValid() {
		pr.Nak, pr.Err = NakUnknown, ErrUnknownCommand
		return
	}
	pr.Frame = frame
	return
}
