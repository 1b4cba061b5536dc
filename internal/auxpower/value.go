// internal/auxpower/value.go
package auxpower

import (
	"sync"
	"time"
)

// Source is the narrow contract the proxy consumes: the latest
// auxiliary load power in watts, and whether it is usable. A stale or
// never-seen value reports ok=false and the caller treats the power as
// zero.
type Source interface {
	Power() (watts float32, ok bool)
}

// Value is the freshness-gated shared auxiliary power value all
// providers feed. One provider writes, the proxy reads.
type Value struct {
	maxAge time.Duration

	mu      sync.Mutex
	watts   float32
	at      time.Time
	valid   bool
	updates uint64
	errors  uint64
}

// NewValue creates an empty value. maxAge <= 0 disables the freshness
// gate.
func NewValue(maxAge time.Duration) *Value {
	return &Value{maxAge: maxAge}
}

// Set records a fresh reading.
func (v *Value) Set(watts float32) {
	v.mu.Lock()
	v.watts = watts
	v.at = time.Now()
	v.valid = true
	v.updates++
	v.mu.Unlock()
}

// Fail records a provider failure. The previous value stays usable
// until it ages out.
func (v *Value) Fail() {
	v.mu.Lock()
	v.errors++
	v.mu.Unlock()
}

// Invalidate discards the current value immediately.
func (v *Value) Invalidate() {
	v.mu.Lock()
	v.valid = false
	v.mu.Unlock()
}

// Power implements Source.
func (v *Value) Power() (float32, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.valid {
		return 0, false
	}
	if v.maxAge > 0 && time.Since(v.at) > v.maxAge {
		return 0, false
	}
	return v.watts, true
}

// Stats returns the update and error counts for health reporting.
func (v *Value) Stats() (updates, errors uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.updates, v.errors
}
