// internal/dtsu/correction.go
package dtsu

import "github.com/SensorsIot/Modbus-Proxy/internal/modbus"

// Payload offsets of the in-place corrected fields (payload = frame[3:]).
const (
	offPowerTotal  = 48
	offPowerL1     = 52
	offPowerL2     = 56
	offPowerL3     = 60
	offDemandTotal = 112
	offDemandL1    = 116
	offDemandL2    = 120
	offDemandL3    = 124
)

// ApplyCorrection rewrites the active-power and demand quadruples of a
// full-data reply in place: watts is added to both totals and watts/3
// to each phase, then the CRC trailer is recomputed. watts is expressed
// in the application sign convention (positive = consumption); the wire
// stores these fields inverted, so the wire delta is negated.
//
// Returns false, leaving the buffer untouched, when the frame is
// shorter than a full reply. Arithmetic never fails: float32 headroom
// at these magnitudes is far beyond any real load.
func ApplyCorrection(frame []byte, watts float32, order modbus.WordOrder) bool {
	if len(frame) < ReplyLen {
		return false
	}

	payload := frame[payloadOff:]
	perPhase := watts / 3

	add := func(off int, w float32) {
		v := order.Float32At(payload, off)
		order.PutFloat32At(payload, off, v+powerSign*w)
	}

	add(offPowerL1, perPhase)
	add(offPowerL2, perPhase)
	add(offPowerL3, perPhase)
	add(offPowerTotal, watts)

	add(offDemandL1, perPhase)
	add(offDemandL2, perPhase)
	add(offDemandL3, perPhase)
	add(offDemandTotal, watts)

	modbus.PutCRC(frame[:ReplyLen])
	return true
}
