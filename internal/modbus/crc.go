// internal/modbus/crc.go
package modbus

import "github.com/sigurn/crc16"

// MODBUS CRC16: polynomial 0xA001 (reflected 0x8005), init 0xFFFF,
// appended low byte first.
var crcTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// CRC computes the MODBUS CRC16 over b.
func CRC(b []byte) uint16 {
	return crc16.Checksum(b, crcTable)
}

// ValidCRC reports whether the trailing two bytes of frame hold the
// correct CRC over all preceding bytes. Frames shorter than the CRC
// itself are never valid. It is a predicate, not an error source:
// callers drop bad frames silently.
func ValidCRC(frame []byte) bool {
	if len(frame) < 2 {
		return false
	}
	given := uint16(frame[len(frame)-2]) | uint16(frame[len(frame)-1])<<8
	return given == CRC(frame[:len(frame)-2])
}

// AppendCRC appends the CRC16 over b to b, low byte first, and returns
// the extended slice.
func AppendCRC(b []byte) []byte {
	crc := CRC(b)
	return append(b, byte(crc), byte(crc>>8))
}

// PutCRC recomputes the CRC over frame[:len-2] and rewrites the trailer
// in place.
func PutCRC(frame []byte) {
	crc := CRC(frame[:len(frame)-2])
	frame[len(frame)-2] = byte(crc)
	frame[len(frame)-1] = byte(crc >> 8)
}
