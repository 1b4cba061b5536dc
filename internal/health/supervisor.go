// internal/health/supervisor.go
package health

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

// Config holds the supervisor thresholds.
type Config struct {
	// Interval between health checks.
	Interval time.Duration
	// TaskTimeout is the maximum heartbeat age before a task counts as
	// stalled. Fatal.
	TaskTimeout time.Duration
	// MemWarnBytes: heap allocation above this logs a warning; above
	// twice this the process restarts.
	MemWarnBytes uint64
	// Grace is how long to wait after a fatal diagnostic so external
	// log sinks can flush before the restart.
	Grace time.Duration
}

// Supervisor periodically samples task heartbeats and memory headroom
// and forces a full process restart when a fatal threshold is crossed.
// Deliberately blunt: a wedged task is reset, not unwound.
type Supervisor struct {
	cfg     Config
	hb      *Heartbeats
	tasks   []string
	started time.Time
	restart func()
	log     zerolog.Logger
}

// New creates a supervisor watching the named tasks. restart may be nil,
// in which case the process exits non-zero and the OS supervisor brings
// it back.
func New(cfg Config, hb *Heartbeats, tasks []string, restart func(), log zerolog.Logger) *Supervisor {
	if restart == nil {
		restart = func() { os.Exit(1) }
	}
	return &Supervisor{
		cfg:     cfg,
		hb:      hb,
		tasks:   tasks,
		started: time.Now(),
		restart: restart,
		log:     log.With().Str("task", "supervisor").Logger(),
	}
}

// Uptime since the supervisor was built (process start, in practice).
func (s *Supervisor) Uptime() time.Duration { return time.Since(s.started) }

// check returns the fatal condition descriptions for one sample.
// Warnings are logged here but do not appear in the result.
func (s *Supervisor) check(heapAlloc uint64) []string {
	var fatal []string

	for _, task := range s.tasks {
		age, ok := s.hb.Age(task)
		if !ok {
			continue
		}
		if age > s.cfg.TaskTimeout {
			fatal = append(fatal, fmt.Sprintf("task %s stalled (last heartbeat %v ago)", task, age.Round(time.Millisecond)))
		}
	}

	if s.cfg.MemWarnBytes > 0 {
		if heapAlloc > 2*s.cfg.MemWarnBytes {
			fatal = append(fatal, fmt.Sprintf("heap critical: %d bytes allocated (warn threshold %d)", heapAlloc, s.cfg.MemWarnBytes))
		} else if heapAlloc > s.cfg.MemWarnBytes {
			s.log.Warn().Uint64("heap_alloc", heapAlloc).Uint64("threshold", s.cfg.MemWarnBytes).Msg("low memory headroom")
		}
	}

	return fatal
}

// Run loops until ctx is cancelled or a fatal condition triggers the
// restart action. The supervisor beats its own heartbeat each cycle as
// a liveness proof, kept separate from the tasks it watches.
func (s *Supervisor) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.hb.Beat("supervisor")

			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)

			fatal := s.check(ms.HeapAlloc)
			if len(fatal) == 0 {
				continue
			}
			for _, reason := range fatal {
				s.log.Error().Str("reason", reason).Msg("fatal health condition")
			}
			s.log.Error().Dur("grace", s.cfg.Grace).Msg("restarting")
			time.Sleep(s.cfg.Grace)
			s.restart()
			return
		}
	}
}
