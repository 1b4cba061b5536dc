// internal/dtsu/store.go
package dtsu

import "time"

// DefaultLockWait bounds lock acquisition on the store. A missed
// acquisition is "no data this cycle", never an error.
const DefaultLockWait = 10 * time.Millisecond

// Snapshot is a copy of the store contents, safe to hold after the
// lock is gone.
type Snapshot struct {
	Valid   bool
	At      time.Time
	Raw     []byte
	Reading Reading
	Updates uint64
}

// Store holds the latest known-good reply, shared between the
// orchestrator (writer) and telemetry consumers (readers). The lock is
// a one-slot channel so acquisition can be bounded: neither side may
// stall the proxy path waiting for the other.
type Store struct {
	lockc    chan struct{}
	lockWait time.Duration

	valid   bool
	at      time.Time
	raw     [ReplyLen]byte
	rawLen  int
	reading Reading
	updates uint64
}

// NewStore creates an empty store. lockWait <= 0 selects the default.
func NewStore(lockWait time.Duration) *Store {
	if lockWait <= 0 {
		lockWait = DefaultLockWait
	}
	return &Store{
		lockc:    make(chan struct{}, 1),
		lockWait: lockWait,
	}
}

func (s *Store) tryAcquire() bool {
	select {
	case s.lockc <- struct{}{}:
		return true
	default:
	}
	t := time.NewTimer(s.lockWait)
	defer t.Stop()
	select {
	case s.lockc <- struct{}{}:
		return true
	case <-t.C:
		return false
	}
}

func (s *Store) release() { <-s.lockc }

// Update stores a copy of raw plus its decoded reading. Returns false
// when the lock could not be acquired in time; the update for this
// cycle is simply dropped and the next transaction will refresh.
func (s *Store) Update(raw []byte, r Reading) bool {
	if !s.tryAcquire() {
		return false
	}
	defer s.release()

	n := copy(s.raw[:], raw)
	s.rawLen = n
	s.reading = r
	s.at = time.Now()
	s.valid = true
	s.updates++
	return true
}

// Snapshot copies the current contents. ok is false when the lock was
// contended, the store has never been written, or the data is older
// than maxAge (maxAge <= 0 disables the freshness gate).
func (s *Store) Snapshot(maxAge time.Duration) (Snapshot, bool) {
	if !s.tryAcquire() {
		return Snapshot{}, false
	}
	defer s.release()

	if !s.valid {
		return Snapshot{}, false
	}
	if maxAge > 0 && time.Since(s.at) > maxAge {
		return Snapshot{}, false
	}

	snap := Snapshot{
		Valid:   true,
		At:      s.at,
		Raw:     append([]byte(nil), s.raw[:s.rawLen]...),
		Reading: s.reading,
		Updates: s.updates,
	}
	return snap, true
}

// Updates returns the update counter without the freshness gate, for
// health reporting.
func (s *Store) UpdateCount() uint64 {
	if !s.tryAcquire() {
		return 0
	}
	defer s.release()
	return s.updates
}
