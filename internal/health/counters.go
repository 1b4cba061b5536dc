// internal/health/counters.go
package health

import "sync"

// Counter names the monotonic event counters kept for the life of the
// process. Reset only by restart.
type Counter int

const (
	CntTransactions Counter = iota
	CntProxyErrors
	CntFrameDrops
	CntUpstreamTimeouts
	CntDownstreamTimeouts
	CntDownstreamExceptions
	CntStoreSkips
	CntAuxErrors
	CntReconnects

	cntNum = iota
)

var counterNames = [cntNum]string{
	"transactions",
	"proxy_errors",
	"frame_drops",
	"upstream_timeouts",
	"downstream_timeouts",
	"downstream_exceptions",
	"store_skips",
	"aux_errors",
	"reconnects",
}

func (c Counter) String() string {
	if int(c) < len(counterNames) {
		return counterNames[c]
	}
	return "unknown"
}

// Counters is a locked counter set shared by all tasks.
type Counters struct {
	mu sync.Mutex
	ca [cntNum]uint64
}

func NewCounters() *Counters { return &Counters{} }

func (c *Counters) Inc(cnt Counter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int(cnt) < len(c.ca) {
		c.ca[cnt]++
	}
}

func (c *Counters) Get(cnt Counter) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int(cnt) >= len(c.ca) {
		return 0
	}
	return c.ca[cnt]
}

// All returns a name -> value copy for reporting.
func (c *Counters) All() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint64, cntNum)
	for i, v := range c.ca {
		out[counterNames[i]] = v
	}
	return out
}
