// internal/dtsu/store_test.go
package dtsu

import (
	"testing"
	"time"

	"github.com/SensorsIot/Modbus-Proxy/internal/modbus"
)

func TestStore_UpdateAndSnapshot(t *testing.T) {
	s := NewStore(0)

	if _, ok := s.Snapshot(0); ok {
		t.Fatal("empty store returned a snapshot")
	}

	r := sampleReading()
	raw := Encode(r, meterID, modbus.OrderABCD)
	if !s.Update(raw, r) {
		t.Fatal("Update failed on uncontended store")
	}

	snap, ok := s.Snapshot(0)
	if !ok {
		t.Fatal("Snapshot failed after Update")
	}
	if snap.Reading != r {
		t.Fatal("snapshot reading mismatch")
	}
	if len(snap.Raw) != ReplyLen {
		t.Fatalf("snapshot raw len=%d, want %d", len(snap.Raw), ReplyLen)
	}
	if snap.Updates != 1 {
		t.Fatalf("Updates=%d, want 1", snap.Updates)
	}

	// The snapshot owns its bytes.
	snap.Raw[0] ^= 0xFF
	snap2, _ := s.Snapshot(0)
	if snap2.Raw[0] != raw[0] {
		t.Fatal("snapshot aliases store buffer")
	}
}

func TestStore_UpdateCounterMonotonic(t *testing.T) {
	s := NewStore(0)
	r := sampleReading()
	raw := Encode(r, meterID, modbus.OrderABCD)
	for i := 0; i < 5; i++ {
		s.Update(raw, r)
	}
	if got := s.UpdateCount(); got != 5 {
		t.Fatalf("UpdateCount=%d, want 5", got)
	}
}

func TestStore_FreshnessGate(t *testing.T) {
	s := NewStore(0)
	r := sampleReading()
	s.Update(Encode(r, meterID, modbus.OrderABCD), r)

	if _, ok := s.Snapshot(time.Second); !ok {
		t.Fatal("fresh data reported stale")
	}
	time.Sleep(15 * time.Millisecond)
	if _, ok := s.Snapshot(5 * time.Millisecond); ok {
		t.Fatal("stale data reported fresh")
	}
	// No gate: stale data still readable.
	if _, ok := s.Snapshot(0); !ok {
		t.Fatal("ungated snapshot failed")
	}
}

func TestStore_ContendedLockSkips(t *testing.T) {
	s := NewStore(5 * time.Millisecond)

	// Occupy the lock slot directly to simulate a stuck holder.
	s.lockc <- struct{}{}
	defer func() { <-s.lockc }()

	start := time.Now()
	r := sampleReading()
	if s.Update(Encode(r, meterID, modbus.OrderABCD), r) {
		t.Fatal("Update succeeded against a held lock")
	}
	if _, ok := s.Snapshot(0); ok {
		t.Fatal("Snapshot succeeded against a held lock")
	}
	if waited := time.Since(start); waited > 100*time.Millisecond {
		t.Fatalf("lock wait not bounded: %v", waited)
	}
}
