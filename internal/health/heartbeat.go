// internal/health/heartbeat.go
package health

import (
	"sync"
	"time"
)

// Heartbeats records per-task liveness timestamps. Tasks call Beat at
// the top of their loop; the supervisor reads the ages.
type Heartbeats struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewHeartbeats() *Heartbeats {
	return &Heartbeats{seen: make(map[string]time.Time)}
}

// Beat marks the task alive now.
func (h *Heartbeats) Beat(task string) {
	h.mu.Lock()
	h.seen[task] = time.Now()
	h.mu.Unlock()
}

// Age returns how long ago the task last beat. A task that never beat
// reports ok=false and must not be treated as stalled until it has
// registered once.
func (h *Heartbeats) Age(task string) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.seen[task]
	if !ok {
		return 0, false
	}
	return time.Since(t), true
}

// Ages returns a copy of all heartbeat ages for reporting.
func (h *Heartbeats) Ages() map[string]time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]time.Duration, len(h.seen))
	for k, v := range h.seen {
		out[k] = time.Since(v)
	}
	return out
}
