// internal/dtsu/reading.go
package dtsu

import (
	"errors"

	"github.com/SensorsIot/Modbus-Proxy/internal/modbus"
)

// DTSU-666 full-data reply geometry: registers 2102..2181 read as 80
// holding registers, 40 float32 values, wrapped as
// [id][fc][byteCount][160 bytes][crc16].
const (
	ReplyLen    = 165
	PayloadLen  = 160
	ByteCount   = 160
	RegCount    = 80
	StartReg    = 2102
	payloadOff  = 3
)

// The meter reports power flowing toward the grid as positive.
// Application-side the convention is positive = consumption, so the
// active-power and demand groups are inverted on decode and encode.
const powerSign float32 = -1.0

var ErrFrameTooShort = errors.New("dtsu: frame shorter than full reply")

// Reading is one decoded full-data reply.
type Reading struct {
	CurrentL1, CurrentL2, CurrentL3 float32

	VoltageLNAvg, VoltageL1N, VoltageL2N, VoltageL3N     float32
	VoltageLLAvg, VoltageL1L2, VoltageL2L3, VoltageL3L1  float32
	Frequency                                            float32

	PowerTotal, PowerL1, PowerL2, PowerL3                 float32
	ReactiveTotal, ReactiveL1, ReactiveL2, ReactiveL3     float32
	ApparentTotal, ApparentL1, ApparentL2, ApparentL3     float32
	PFTotal, PFL1, PFL2, PFL3                             float32
	DemandTotal, DemandL1, DemandL2, DemandL3             float32
	ImportTotal, ImportL1, ImportL2, ImportL3             float32
	ExportTotal, ExportL1, ExportL2, ExportL3             float32
}

type cursor struct {
	b     []byte
	off   int
	order modbus.WordOrder
}

func (c *cursor) get(sign float32) float32 {
	v := c.order.Float32At(c.b, c.off) * sign
	c.off += 4
	return v
}

func (c *cursor) put(v, sign float32) {
	c.order.PutFloat32At(c.b, c.off, v*sign)
	c.off += 4
}

// Decode maps a full-data reply frame to a Reading. Only the length is
// checked here; function code and byte count are the orchestrator's
// business.
func Decode(frame []byte, order modbus.WordOrder) (Reading, error) {
	var r Reading
	if len(frame) < ReplyLen {
		return r, ErrFrameTooShort
	}
	c := cursor{b: frame[payloadOff:], order: order}

	r.CurrentL1 = c.get(1)
	r.CurrentL2 = c.get(1)
	r.CurrentL3 = c.get(1)

	r.VoltageLNAvg = c.get(1)
	r.VoltageL1N = c.get(1)
	r.VoltageL2N = c.get(1)
	r.VoltageL3N = c.get(1)
	r.VoltageLLAvg = c.get(1)
	r.VoltageL1L2 = c.get(1)
	r.VoltageL2L3 = c.get(1)
	r.VoltageL3L1 = c.get(1)
	r.Frequency = c.get(1)

	r.PowerTotal = c.get(powerSign)
	r.PowerL1 = c.get(powerSign)
	r.PowerL2 = c.get(powerSign)
	r.PowerL3 = c.get(powerSign)

	r.ReactiveTotal = c.get(1)
	r.ReactiveL1 = c.get(1)
	r.ReactiveL2 = c.get(1)
	r.ReactiveL3 = c.get(1)

	r.ApparentTotal = c.get(1)
	r.ApparentL1 = c.get(1)
	r.ApparentL2 = c.get(1)
	r.ApparentL3 = c.get(1)

	r.PFTotal = c.get(1)
	r.PFL1 = c.get(1)
	r.PFL2 = c.get(1)
	r.PFL3 = c.get(1)

	r.DemandTotal = c.get(powerSign)
	r.DemandL1 = c.get(powerSign)
	r.DemandL2 = c.get(powerSign)
	r.DemandL3 = c.get(powerSign)

	r.ImportTotal = c.get(1)
	r.ImportL1 = c.get(1)
	r.ImportL2 = c.get(1)
	r.ImportL3 = c.get(1)

	r.ExportTotal = c.get(1)
	r.ExportL1 = c.get(1)
	r.ExportL2 = c.get(1)
	r.ExportL3 = c.get(1)

	return r, nil
}

// Encode builds a complete, CRC-terminated full-data reply frame for
// the reading. Exact inverse of Decode: the sign flip is re-applied on
// the way out and no scaling happens, so Decode(Encode(r)) == r.
func Encode(r Reading, slaveID uint8, order modbus.WordOrder) []byte {
	frame := make([]byte, ReplyLen)
	frame[0] = slaveID
	frame[1] = modbus.FcReadHolding
	frame[2] = ByteCount

	c := cursor{b: frame[payloadOff:], order: order}

	c.put(r.CurrentL1, 1)
	c.put(r.CurrentL2, 1)
	c.put(r.CurrentL3, 1)

	c.put(r.VoltageLNAvg, 1)
	c.put(r.VoltageL1N, 1)
	c.put(r.VoltageL2N, 1)
	c.put(r.VoltageL3N, 1)
	c.put(r.VoltageLLAvg, 1)
	c.put(r.VoltageL1L2, 1)
	c.put(r.VoltageL2L3, 1)
	c.put(r.VoltageL3L1, 1)
	c.put(r.Frequency, 1)

	c.put(r.PowerTotal, powerSign)
	c.put(r.PowerL1, powerSign)
	c.put(r.PowerL2, powerSign)
	c.put(r.PowerL3, powerSign)

	c.put(r.ReactiveTotal, 1)
	c.put(r.ReactiveL1, 1)
	c.put(r.ReactiveL2, 1)
	c.put(r.ReactiveL3, 1)

	c.put(r.ApparentTotal, 1)
	c.put(r.ApparentL1, 1)
	c.put(r.ApparentL2, 1)
	c.put(r.ApparentL3, 1)

	c.put(r.PFTotal, 1)
	c.put(r.PFL1, 1)
	c.put(r.PFL2, 1)
	c.put(r.PFL3, 1)

	c.put(r.DemandTotal, powerSign)
	c.put(r.DemandL1, powerSign)
	c.put(r.DemandL2, powerSign)
	c.put(r.DemandL3, powerSign)

	c.put(r.ImportTotal, 1)
	c.put(r.ImportL1, 1)
	c.put(r.ImportL2, 1)
	c.put(r.ImportL3, 1)

	c.put(r.ExportTotal, 1)
	c.put(r.ExportL1, 1)
	c.put(r.ExportL2, 1)
	c.put(r.ExportL3, 1)

	modbus.PutCRC(frame)
	return frame
}

// IsFullReply reports whether the message has the shape of a DTSU-666
// full-data reply worth decoding.
func IsFullReply(m *modbus.Message) bool {
	return m.Kind == modbus.KindReply &&
		m.Function == modbus.FcReadHolding &&
		m.Length >= ReplyLen &&
		m.ByteCount == ByteCount
}
