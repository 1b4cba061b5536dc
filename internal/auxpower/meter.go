// internal/auxpower/meter.go
package auxpower

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomodbus "github.com/goburrow/modbus"
	"github.com/rs/zerolog"

	pmodbus "github.com/SensorsIot/Modbus-Proxy/internal/modbus"
)

// MeterClient abstracts the Modbus read the meter poller needs, so
// tests run against a fake.
type MeterClient interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
}

// MeterPoller reads the charge power directly from a second meter (or
// the charger's own Modbus TCP interface). This is the two-meter
// correction variant: the auxiliary power comes from hardware instead
// of an API.
type MeterPoller struct {
	client   MeterClient
	register uint16
	order    pmodbus.WordOrder
	scale    float32
	interval time.Duration
	val      *Value
	log      zerolog.Logger
}

// MeterConfig is the transport and register geometry for the poller.
type MeterConfig struct {
	Endpoint string // host:port
	UnitID   uint8
	Timeout  time.Duration
	Register uint16
	Order    pmodbus.WordOrder
	Scale    float32 // e.g. 1000 when the register is in kW
	Interval time.Duration
}

// NewMeterPoller connects a Modbus TCP client and wraps it.
func NewMeterPoller(cfg MeterConfig, val *Value, log zerolog.Logger) (*MeterPoller, func() error, error) {
	if cfg.Endpoint == "" {
		return nil, nil, errors.New("auxpower: meter endpoint required")
	}

	handler := gomodbus.NewTCPClientHandler(cfg.Endpoint)
	handler.Timeout = cfg.Timeout
	handler.SlaveId = byte(cfg.UnitID)
	if err := handler.Connect(); err != nil {
		return nil, nil, err
	}

	scale := cfg.Scale
	if scale == 0 {
		scale = 1
	}
	p := &MeterPoller{
		client:   gomodbus.NewClient(handler),
		register: cfg.Register,
		order:    cfg.Order,
		scale:    scale,
		interval: cfg.Interval,
		val:      val,
		log:      log.With().Str("task", "aux-meter").Logger(),
	}
	return p, handler.Close, nil
}

// Run polls until ctx is cancelled.
func (p *MeterPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.pollOnce(); err != nil {
			p.val.Fail()
			p.log.Warn().Err(err).Msg("aux meter poll failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// pollOnce reads one float32 (two registers) and stores it.
func (p *MeterPoller) pollOnce() error {
	data, err := p.client.ReadHoldingRegisters(p.register, 2)
	if err != nil {
		return err
	}
	if len(data) < 4 {
		return fmt.Errorf("auxpower: short register read: %d bytes", len(data))
	}
	p.val.Set(p.order.Float32At(data, 0) * p.scale)
	return nil
}
