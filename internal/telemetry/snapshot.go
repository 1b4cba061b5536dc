// internal/telemetry/snapshot.go
package telemetry

import (
	"time"

	"github.com/SensorsIot/Modbus-Proxy/internal/auxpower"
	"github.com/SensorsIot/Modbus-Proxy/internal/dtsu"
	"github.com/SensorsIot/Modbus-Proxy/internal/health"
	"github.com/SensorsIot/Modbus-Proxy/internal/proxy"
)

// CorrectionSource is the exact contract telemetry needs from the
// orchestrator: the current correction state, nothing else.
type CorrectionSource interface {
	Correction() proxy.CorrectionState
}

// PowerStatus is the compact payload published most often.
type PowerStatus struct {
	Valid            bool    `json:"valid"`
	PowerW           float32 `json:"power_w"`
	PowerL1W         float32 `json:"power_l1_w"`
	PowerL2W         float32 `json:"power_l2_w"`
	PowerL3W         float32 `json:"power_l3_w"`
	AuxW             float32 `json:"aux_w"`
	AuxValid         bool    `json:"aux_valid"`
	CorrectionActive bool    `json:"correction_active"`
	CorrectionW      float32 `json:"correction_w"`
	AgeMs            int64   `json:"age_ms"`
}

// MeterStatus is the full decoded meter image as forwarded upstream.
type MeterStatus struct {
	Valid   bool  `json:"valid"`
	AgeMs   int64 `json:"age_ms"`
	Updates uint64 `json:"updates"`

	CurrentL1 float32 `json:"current_l1_a"`
	CurrentL2 float32 `json:"current_l2_a"`
	CurrentL3 float32 `json:"current_l3_a"`

	VoltageLNAvg float32 `json:"voltage_ln_avg_v"`
	VoltageL1N   float32 `json:"voltage_l1n_v"`
	VoltageL2N   float32 `json:"voltage_l2n_v"`
	VoltageL3N   float32 `json:"voltage_l3n_v"`
	VoltageLLAvg float32 `json:"voltage_ll_avg_v"`
	Frequency    float32 `json:"frequency_hz"`

	PowerTotal float32 `json:"power_total_w"`
	PowerL1    float32 `json:"power_l1_w"`
	PowerL2    float32 `json:"power_l2_w"`
	PowerL3    float32 `json:"power_l3_w"`

	ReactiveTotal float32 `json:"reactive_total_var"`
	ApparentTotal float32 `json:"apparent_total_va"`
	PFTotal       float32 `json:"pf_total"`

	DemandTotal float32 `json:"demand_total_w"`
	DemandL1    float32 `json:"demand_l1_w"`
	DemandL2    float32 `json:"demand_l2_w"`
	DemandL3    float32 `json:"demand_l3_w"`

	ImportTotal float32 `json:"import_total_kwh"`
	ExportTotal float32 `json:"export_total_kwh"`
}

// HealthStatus is the process-level view for monitoring.
type HealthStatus struct {
	UptimeS      float64            `json:"uptime_s"`
	StoreValid   bool               `json:"store_valid"`
	StoreUpdates uint64             `json:"store_updates"`
	AuxUpdates   uint64             `json:"aux_updates"`
	AuxErrors    uint64             `json:"aux_errors"`
	Counters     map[string]uint64  `json:"counters"`
	TaskAgesMs   map[string]int64   `json:"task_ages_ms"`
}

// StatusDocument bundles everything for the HTTP status endpoint.
type StatusDocument struct {
	Power  PowerStatus  `json:"power"`
	Meter  MeterStatus  `json:"meter"`
	Health HealthStatus `json:"health"`
}

// Collector assembles payloads from the shared state. It holds no
// state of its own; every call reads the live sources.
type Collector struct {
	store    *dtsu.Store
	aux      *auxpower.Value
	corr     CorrectionSource
	counters *health.Counters
	hb       *health.Heartbeats
	maxAge   time.Duration
	started  time.Time
}

// NewCollector wires the shared pieces together. maxAge bounds how old
// store data may be before payloads mark it invalid; <= 0 disables.
func NewCollector(store *dtsu.Store, aux *auxpower.Value, corr CorrectionSource,
	counters *health.Counters, hb *health.Heartbeats, maxAge time.Duration) *Collector {
	return &Collector{
		store:    store,
		aux:      aux,
		corr:     corr,
		counters: counters,
		hb:       hb,
		maxAge:   maxAge,
		started:  time.Now(),
	}
}

func ageMs(at time.Time) int64 {
	if at.IsZero() {
		return -1
	}
	return time.Since(at).Milliseconds()
}

// Power builds the compact power payload.
func (c *Collector) Power() PowerStatus {
	var p PowerStatus

	snap, ok := c.store.Snapshot(c.maxAge)
	if ok {
		p.Valid = true
		p.PowerW = snap.Reading.PowerTotal
		p.PowerL1W = snap.Reading.PowerL1
		p.PowerL2W = snap.Reading.PowerL2
		p.PowerL3W = snap.Reading.PowerL3
		p.AgeMs = ageMs(snap.At)
	} else {
		p.AgeMs = -1
	}

	p.AuxW, p.AuxValid = c.aux.Power()

	cs := c.corr.Correction()
	p.CorrectionActive = cs.Active
	p.CorrectionW = cs.Watts
	return p
}

// Meter builds the full meter payload.
func (c *Collector) Meter() MeterStatus {
	snap, ok := c.store.Snapshot(c.maxAge)
	if !ok {
		return MeterStatus{AgeMs: -1}
	}
	r := snap.Reading
	return MeterStatus{
		Valid:   true,
		AgeMs:   ageMs(snap.At),
		Updates: snap.Updates,

		CurrentL1: r.CurrentL1,
		CurrentL2: r.CurrentL2,
		CurrentL3: r.CurrentL3,

		VoltageLNAvg: r.VoltageLNAvg,
		VoltageL1N:   r.VoltageL1N,
		VoltageL2N:   r.VoltageL2N,
		VoltageL3N:   r.VoltageL3N,
		VoltageLLAvg: r.VoltageLLAvg,
		Frequency:    r.Frequency,

		PowerTotal: r.PowerTotal,
		PowerL1:    r.PowerL1,
		PowerL2:    r.PowerL2,
		PowerL3:    r.PowerL3,

		ReactiveTotal: r.ReactiveTotal,
		ApparentTotal: r.ApparentTotal,
		PFTotal:       r.PFTotal,

		DemandTotal: r.DemandTotal,
		DemandL1:    r.DemandL1,
		DemandL2:    r.DemandL2,
		DemandL3:    r.DemandL3,

		ImportTotal: r.ImportTotal,
		ExportTotal: r.ExportTotal,
	}
}

// Health builds the process-level payload.
func (c *Collector) Health() HealthStatus {
	_, storeOK := c.store.Snapshot(c.maxAge)
	updates, errors := c.aux.Stats()

	ages := c.hb.Ages()
	agesMs := make(map[string]int64, len(ages))
	for task, age := range ages {
		agesMs[task] = age.Milliseconds()
	}

	return HealthStatus{
		UptimeS:      time.Since(c.started).Seconds(),
		StoreValid:   storeOK,
		StoreUpdates: c.store.UpdateCount(),
		AuxUpdates:   updates,
		AuxErrors:    errors,
		Counters:     c.counters.All(),
		TaskAgesMs:   agesMs,
	}
}

// Status bundles all three for the HTTP endpoint.
func (c *Collector) Status() StatusDocument {
	return StatusDocument{
		Power:  c.Power(),
		Meter:  c.Meter(),
		Health: c.Health(),
	}
}
