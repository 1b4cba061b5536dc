// internal/modbus/wordorder_test.go
package modbus

import (
	"math"
	"testing"
)

var orders = []WordOrder{OrderABCD, OrderDCBA, OrderBADC, OrderCDAB}

func TestFloat32At_ABCD(t *testing.T) {
	cases := []struct {
		b    []byte
		want float32
	}{
		{[]byte{0x00, 0x00, 0x00, 0x00}, 0.0},
		{[]byte{0x3F, 0x80, 0x00, 0x00}, 1.0},
		{[]byte{0xC2, 0xC8, 0x00, 0x00}, -100.0},
		{[]byte{0x45, 0xE7, 0x40, 0x00}, 7400.0},
	}
	for _, c := range cases {
		if got := OrderABCD.Float32At(c.b, 0); got != c.want {
			t.Fatalf("Float32At(% 02X)=%v, want %v", c.b, got, c.want)
		}
	}
}

func TestFloat32At_Orderings(t *testing.T) {
	// 1.0 = 0x3F800000, bytes A=3F B=80 C=00 D=00
	cases := []struct {
		order WordOrder
		b     []byte
	}{
		{OrderABCD, []byte{0x3F, 0x80, 0x00, 0x00}},
		{OrderDCBA, []byte{0x00, 0x00, 0x80, 0x3F}},
		{OrderBADC, []byte{0x80, 0x3F, 0x00, 0x00}},
		{OrderCDAB, []byte{0x00, 0x00, 0x3F, 0x80}},
	}
	for _, c := range cases {
		if got := c.order.Float32At(c.b, 0); got != 1.0 {
			t.Fatalf("%s: Float32At(% 02X)=%v, want 1.0", c.order, c.b, got)
		}
	}
}

func TestPutFloat32At_RoundTrip(t *testing.T) {
	vals := []float32{0, 1.0, -100.0, 3.14159265, 7400.0, 230.2, -0.001}
	buf := make([]byte, 8)
	for _, o := range orders {
		for _, v := range vals {
			o.PutFloat32At(buf, 2, v)
			if got := o.Float32At(buf, 2); got != v {
				t.Fatalf("%s: round trip of %v gave %v", o, v, got)
			}
		}
	}
}

func TestFloat32At_NaNInfPassThrough(t *testing.T) {
	nan := []byte{0x7F, 0xC0, 0x00, 0x00}
	if v := OrderABCD.Float32At(nan, 0); !math.IsNaN(float64(v)) {
		t.Fatalf("expected NaN, got %v", v)
	}
	posInf := []byte{0x7F, 0x80, 0x00, 0x00}
	if v := OrderABCD.Float32At(posInf, 0); !math.IsInf(float64(v), 1) {
		t.Fatalf("expected +Inf, got %v", v)
	}
	negInf := []byte{0xFF, 0x80, 0x00, 0x00}
	if v := OrderABCD.Float32At(negInf, 0); !math.IsInf(float64(v), -1) {
		t.Fatalf("expected -Inf, got %v", v)
	}
}

func TestParseWordOrder(t *testing.T) {
	for _, o := range orders {
		got, err := ParseWordOrder(o.String())
		if err != nil || got != o {
			t.Fatalf("ParseWordOrder(%q)=%v,%v", o.String(), got, err)
		}
	}
	if _, err := ParseWordOrder("abdc"); err == nil {
		t.Fatal("expected error for unknown order")
	}
}

func TestUint16At(t *testing.T) {
	b := []byte{0x08, 0x36, 0xFF, 0xFE}
	if got := Uint16At(b, 0); got != 0x0836 {
		t.Fatalf("Uint16At=0x%04X, want 0x0836", got)
	}
	if got := Int16At(b, 2); got != -2 {
		t.Fatalf("Int16At=%d, want -2", got)
	}
}
