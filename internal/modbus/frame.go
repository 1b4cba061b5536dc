// internal/modbus/frame.go
package modbus

// Serial ADU limits. Replies from the DTSU-666 top out at 165 bytes;
// the buffer allows the protocol maximum.
const (
	MaxFrame = 256
	MinFrame = 4 // id + fc + crc
)

// Function codes this proxy classifies. Anything else is passed through
// as Unknown.
const (
	FcReadHolding    uint8 = 0x03
	FcReadInput      uint8 = 0x04
	FcWriteSingle    uint8 = 0x06
	FcWriteMultiple  uint8 = 0x10
	ExceptionFlag    uint8 = 0x80
)

// Kind classifies a frame by shape.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindRequest
	KindReply
	KindException
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindReply:
		return "reply"
	case KindException:
		return "exception"
	}
	return "unknown"
}

// Message is one parsed serial frame. Raw aliases the receive buffer it
// was parsed from and is only good for the current transaction; copy it
// before retaining.
type Message struct {
	SlaveID  uint8
	Function uint8
	Kind     Kind
	Length   int

	// Read request fields (fc 0x03/0x04, len 8)
	StartAddr uint16
	Quantity  uint16

	// Read reply field (fc 0x03/0x04, len byteCount+5)
	ByteCount uint8

	// Write fields (fc 0x06 / 0x10)
	WriteAddr      uint16
	WriteValue     uint16
	WriteQuantity  uint16
	WriteByteCount uint8

	// Exception field
	ExceptionCode uint8

	Raw []byte
}

// Payload returns the bytes between the function code and the CRC.
func (m *Message) Payload() []byte {
	return m.Raw[2 : m.Length-2]
}

// Parse validates and classifies one frame. It returns false when the
// frame is too short or the CRC does not match; such frames are dropped
// by the caller. A valid frame with an unrecognized function code still
// parses, with Kind KindUnknown.
//
// An 8-byte fc 0x06 frame is request-shaped and reply-shaped at once;
// it is tagged KindRequest and the link direction decides which it is.
func Parse(frame []byte) (Message, bool) {
	var m Message
	n := len(frame)
	if n < MinFrame || !ValidCRC(frame) {
		return m, false
	}

	m.SlaveID = frame[0]
	m.Function = frame[1]
	m.Length = n
	m.Raw = frame

	if m.Function&ExceptionFlag != 0 && n >= 5 {
		m.Kind = KindException
		m.Function &^= ExceptionFlag
		m.ExceptionCode = frame[2]
		return m, true
	}

	switch m.Function {
	case FcReadHolding, FcReadInput:
		if n == 8 {
			m.Kind = KindRequest
			m.StartAddr = Uint16At(frame, 2)
			m.Quantity = Uint16At(frame, 4)
		} else if bc := frame[2]; n == int(bc)+5 {
			m.Kind = KindReply
			m.ByteCount = bc
		} else {
			m.Kind = KindUnknown
		}

	case FcWriteSingle:
		if n == 8 {
			m.Kind = KindRequest
			m.WriteAddr = Uint16At(frame, 2)
			m.WriteValue = Uint16At(frame, 4)
		} else {
			m.Kind = KindUnknown
		}

	case FcWriteMultiple:
		if n == 8 {
			m.Kind = KindReply
			m.WriteAddr = Uint16At(frame, 2)
			m.WriteQuantity = Uint16At(frame, 4)
		} else if n >= 9 {
			if bc := frame[6]; n == int(bc)+9 {
				m.Kind = KindRequest
				m.WriteAddr = Uint16At(frame, 2)
				m.WriteQuantity = Uint16At(frame, 4)
				m.WriteByteCount = bc
			} else {
				m.Kind = KindUnknown
			}
		} else {
			m.Kind = KindUnknown
		}

	default:
		m.Kind = KindUnknown
	}

	return m, true
}
