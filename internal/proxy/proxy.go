// internal/proxy/proxy.go
package proxy

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/SensorsIot/Modbus-Proxy/internal/auxpower"
	"github.com/SensorsIot/Modbus-Proxy/internal/dtsu"
	"github.com/SensorsIot/Modbus-Proxy/internal/health"
	"github.com/SensorsIot/Modbus-Proxy/internal/link"
	"github.com/SensorsIot/Modbus-Proxy/internal/modbus"
)

// Link is the frame-level channel the orchestrator drives. Both links
// are owned exclusively by the orchestrator; nothing else touches them.
type Link interface {
	Read(timeout time.Duration) (modbus.Message, error)
	Write(frame []byte) error
}

// Config is the orchestrator's runtime configuration, resolved once at
// startup.
type Config struct {
	// MeterID is the slave id of the proxied meter. Requests for other
	// ids are discarded, not forwarded.
	MeterID uint8
	// UpstreamTimeout bounds the wait for the next upstream request.
	UpstreamTimeout time.Duration
	// DownstreamTimeout bounds the wait for the meter's reply.
	DownstreamTimeout time.Duration
	// Order is the meter's register byte order.
	Order modbus.WordOrder
	// ThresholdWatts activates correction when the auxiliary power
	// magnitude strictly exceeds it.
	ThresholdWatts float32
	// Sign is +1 to add the auxiliary power to the reported totals,
	// -1 to subtract (wiring-dependent, see config).
	Sign float32
}

// CorrectionState is the currently applied correction, exposed for
// telemetry.
type CorrectionState struct {
	Active    bool      `json:"active"`
	Watts     float32   `json:"watts"`
	AppliedAt time.Time `json:"applied_at,omitempty"`
}

// Proxy relays one request/reply transaction at a time between the
// upstream master and the downstream meter, correcting full-data
// replies in flight.
type Proxy struct {
	cfg      Config
	up, down Link
	aux      auxpower.Source
	store    *dtsu.Store
	counters *health.Counters
	hb       *health.Heartbeats
	log      zerolog.Logger

	mu   sync.Mutex
	corr CorrectionState
}

func New(cfg Config, up, down Link, aux auxpower.Source, store *dtsu.Store,
	counters *health.Counters, hb *health.Heartbeats, log zerolog.Logger) *Proxy {
	if cfg.Sign == 0 {
		cfg.Sign = 1
	}
	return &Proxy{
		cfg:      cfg,
		up:       up,
		down:     down,
		aux:      aux,
		store:    store,
		counters: counters,
		hb:       hb,
		log:      log.With().Str("task", "proxy").Logger(),
	}
}

// Correction returns the state set by the most recent transaction.
func (p *Proxy) Correction() CorrectionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.corr
}

func (p *Proxy) setCorrection(active bool, watts float32) {
	p.mu.Lock()
	p.corr.Active = active
	p.corr.Watts = watts
	if active {
		p.corr.AppliedAt = time.Now()
	}
	p.mu.Unlock()
}

// Run loops transactions until ctx is cancelled. Every failure mode is
// recoverable: the loop never exits on I/O errors. Only the health
// supervisor can take the process down.
func (p *Proxy) Run(ctx context.Context) {
	p.log.Info().
		Uint8("meter_id", p.cfg.MeterID).
		Float32("threshold_w", p.cfg.ThresholdWatts).
		Msg("proxy loop started")

	for {
		if ctx.Err() != nil {
			return
		}
		p.hb.Beat("proxy")
		p.transact()
	}
}

// transact runs at most one full request/reply exchange.
func (p *Proxy) transact() {
	req, err := p.up.Read(p.cfg.UpstreamTimeout)
	if err != nil {
		switch {
		case errors.Is(err, link.ErrTimeout):
			// Quiet bus. Counted but not logged; a rising rate means
			// the master stopped polling.
			p.counters.Inc(health.CntUpstreamTimeouts)
		case errors.Is(err, link.ErrBadFrame):
			p.counters.Inc(health.CntFrameDrops)
		default:
			p.counters.Inc(health.CntProxyErrors)
			p.log.Warn().Err(err).Msg("upstream read failed")
		}
		return
	}

	// Only requests addressed to our meter pass; the proxy sits on a
	// point-to-point link pair, so anything else is noise.
	if req.SlaveID != p.cfg.MeterID || req.Kind != modbus.KindRequest {
		return
	}

	if err := p.down.Write(req.Raw[:req.Length]); err != nil {
		p.counters.Inc(health.CntProxyErrors)
		p.log.Warn().Err(err).Msg("downstream write failed")
		return
	}

	reply, err := p.down.Read(p.cfg.DownstreamTimeout)
	if err != nil {
		p.counters.Inc(health.CntProxyErrors)
		if errors.Is(err, link.ErrTimeout) {
			p.counters.Inc(health.CntDownstreamTimeouts)
			p.log.Warn().Msg("downstream reply timeout")
		} else if errors.Is(err, link.ErrBadFrame) {
			p.counters.Inc(health.CntFrameDrops)
		} else {
			p.log.Warn().Err(err).Msg("downstream read failed")
		}
		// No reply is synthesized; the upstream master will retry.
		return
	}

	if reply.Kind == modbus.KindException {
		p.counters.Inc(health.CntDownstreamExceptions)
		p.log.Warn().
			Uint8("function", reply.Function).
			Uint8("code", reply.ExceptionCode).
			Msg("downstream exception passed through")
		p.forward(reply.Raw[:reply.Length])
		return
	}

	out := reply.Raw[:reply.Length]
	if dtsu.IsFullReply(&reply) {
		out = p.correct(out)
	}

	p.forward(out)
}

// correct evaluates the correction policy against the full-data reply
// and returns the frame to forward: a corrected copy when the policy is
// active, the original otherwise. The shared store is updated with
// whatever will be forwarded.
func (p *Proxy) correct(frame []byte) []byte {
	reading, err := dtsu.Decode(frame, p.cfg.Order)
	if err != nil {
		// Cannot happen for a frame IsFullReply accepted; treat as
		// pass-through all the same.
		return frame
	}

	watts, valid := p.aux.Power()
	active := valid && abs(watts) > p.cfg.ThresholdWatts
	if !active {
		p.setCorrection(false, 0)
		p.publish(frame, reading)
		return frame
	}

	correction := p.cfg.Sign * watts
	corrected := append([]byte(nil), frame...)
	if !dtsu.ApplyCorrection(corrected, correction, p.cfg.Order) {
		p.counters.Inc(health.CntProxyErrors)
		p.setCorrection(false, 0)
		p.publish(frame, reading)
		return frame
	}
	p.setCorrection(true, correction)

	final, err := dtsu.Decode(corrected, p.cfg.Order)
	if err != nil {
		final = reading
	}
	p.log.Debug().
		Float32("meter_w", reading.PowerTotal).
		Float32("correction_w", correction).
		Float32("reported_w", final.PowerTotal).
		Msg("correction applied")

	p.publish(corrected, final)
	return corrected
}

func (p *Proxy) publish(frame []byte, r dtsu.Reading) {
	if !p.store.Update(frame, r) {
		p.counters.Inc(health.CntStoreSkips)
	}
}

func (p *Proxy) forward(frame []byte) {
	if err := p.up.Write(frame); err != nil {
		p.counters.Inc(health.CntProxyErrors)
		p.log.Warn().Err(err).Msg("upstream write failed")
		return
	}
	p.counters.Inc(health.CntTransactions)
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
