// internal/dtsu/reading_test.go
package dtsu

import (
	"testing"

	"github.com/SensorsIot/Modbus-Proxy/internal/modbus"
)

const meterID = 11

func sampleReading() Reading {
	return Reading{
		CurrentL1: 10.5, CurrentL2: 11.0, CurrentL3: 9.8,
		VoltageLNAvg: 230.1, VoltageL1N: 229.9, VoltageL2N: 230.4, VoltageL3N: 230.0,
		VoltageLLAvg: 398.5, VoltageL1L2: 398.0, VoltageL2L3: 399.2, VoltageL3L1: 398.3,
		Frequency:  50.02,
		PowerTotal: 5000.0, PowerL1: 1700.0, PowerL2: 1600.0, PowerL3: 1700.0,
		ReactiveTotal: 120.0, ReactiveL1: 40.0, ReactiveL2: 40.0, ReactiveL3: 40.0,
		ApparentTotal: 5010.0, ApparentL1: 1701.0, ApparentL2: 1601.0, ApparentL3: 1708.0,
		PFTotal: 0.99, PFL1: 0.99, PFL2: 0.98, PFL3: 0.99,
		DemandTotal: 4800.0, DemandL1: 1600.0, DemandL2: 1600.0, DemandL3: 1600.0,
		ImportTotal: 1234.5, ImportL1: 411.5, ImportL2: 411.5, ImportL3: 411.5,
		ExportTotal: 22.5, ExportL1: 7.5, ExportL2: 7.5, ExportL3: 7.5,
	}
}

func TestEncode_FrameShape(t *testing.T) {
	f := Encode(sampleReading(), meterID, modbus.OrderABCD)
	if len(f) != ReplyLen {
		t.Fatalf("len=%d, want %d", len(f), ReplyLen)
	}
	if f[0] != meterID || f[1] != modbus.FcReadHolding || f[2] != ByteCount {
		t.Fatalf("header=% 02X", f[:3])
	}
	if !modbus.ValidCRC(f) {
		t.Fatal("encoded frame has bad CRC")
	}
	m, ok := modbus.Parse(f)
	if !ok || !IsFullReply(&m) {
		t.Fatalf("encoded frame not recognized as full reply (ok=%v kind=%s)", ok, m.Kind)
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	want := sampleReading()
	f := Encode(want, meterID, modbus.OrderABCD)
	got, err := Decode(f, modbus.OrderABCD)
	if err != nil {
		t.Fatalf("Decode err=%v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch:\n got=%+v\nwant=%+v", got, want)
	}
}

func TestDecode_RoundTripAllOrders(t *testing.T) {
	want := sampleReading()
	for _, o := range []modbus.WordOrder{modbus.OrderABCD, modbus.OrderDCBA, modbus.OrderBADC, modbus.OrderCDAB} {
		got, err := Decode(Encode(want, meterID, o), o)
		if err != nil {
			t.Fatalf("%s: Decode err=%v", o, err)
		}
		if got != want {
			t.Fatalf("%s: round trip mismatch", o)
		}
	}
}

func TestDecode_PowerSignInverted(t *testing.T) {
	f := Encode(sampleReading(), meterID, modbus.OrderABCD)
	// The wire stores active power with the opposite sign of the
	// application value: 5000 W consumption encodes as -5000.
	wire := modbus.OrderABCD.Float32At(f[payloadOff:], offPowerTotal)
	if wire != -5000.0 {
		t.Fatalf("wire power total=%v, want -5000", wire)
	}
	wireDemand := modbus.OrderABCD.Float32At(f[payloadOff:], offDemandTotal)
	if wireDemand != -4800.0 {
		t.Fatalf("wire demand total=%v, want -4800", wireDemand)
	}
	// Non-power fields keep their sign.
	wireVolt := modbus.OrderABCD.Float32At(f[payloadOff:], 12)
	if wireVolt != 230.1 {
		t.Fatalf("wire voltage LN avg=%v, want 230.1", wireVolt)
	}
}

func TestDecode_TooShort(t *testing.T) {
	if _, err := Decode(make([]byte, ReplyLen-1), modbus.OrderABCD); err != ErrFrameTooShort {
		t.Fatalf("err=%v, want ErrFrameTooShort", err)
	}
}

func TestIsFullReply(t *testing.T) {
	f := Encode(sampleReading(), meterID, modbus.OrderABCD)
	m, _ := modbus.Parse(f)
	if !IsFullReply(&m) {
		t.Fatal("full reply not recognized")
	}

	req := modbus.AppendCRC([]byte{meterID, 0x03, 0x08, 0x36, 0x00, 0x50})
	mr, _ := modbus.Parse(req)
	if IsFullReply(&mr) {
		t.Fatal("read request misclassified as full reply")
	}

	exc := modbus.AppendCRC([]byte{meterID, 0x83, 0x02})
	me, _ := modbus.Parse(exc)
	if IsFullReply(&me) {
		t.Fatal("exception misclassified as full reply")
	}
}
