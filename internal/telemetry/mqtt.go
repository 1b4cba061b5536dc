// internal/telemetry/mqtt.go
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/SensorsIot/Modbus-Proxy/internal/health"
)

// pubClient is the exact contract the publisher uses.
// mqtt.Client satisfies it.
type pubClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTConfig holds broker and publishing settings.
type MQTTConfig struct {
	Broker    string
	ClientID  string
	Username  string
	Password  string
	RootTopic string
	Interval  time.Duration
	Retain    bool
}

const pubWait = 2 * time.Second

// Publisher pushes the power, meter and health payloads to the broker
// on a fixed interval. Publish failures are counted and logged, never
// fatal; the paho client reconnects on its own.
type Publisher struct {
	cfg      MQTTConfig
	cli      pubClient
	col      *Collector
	counters *health.Counters
	hb       *health.Heartbeats
	log      zerolog.Logger
}

func NewPublisher(cfg MQTTConfig, cli pubClient, col *Collector,
	counters *health.Counters, hb *health.Heartbeats, log zerolog.Logger) *Publisher {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	return &Publisher{
		cfg:      cfg,
		cli:      cli,
		col:      col,
		counters: counters,
		hb:       hb,
		log:      log.With().Str("task", "telemetry").Logger(),
	}
}

// Run publishes until the context is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	t := time.NewTicker(p.cfg.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.hb.Beat("telemetry")
			p.publishOnce()
		}
	}
}

func (p *Publisher) publishOnce() {
	p.publish("power", p.col.Power())
	p.publish("dtsu", p.col.Meter())
	p.publish("health", p.col.Health())
}

func (p *Publisher) publish(sub string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.log.Error().Err(err).Str("topic", sub).Msg("marshal failed")
		return
	}

	topic := p.cfg.RootTopic + "/" + sub
	tok := p.cli.Publish(topic, 0, p.cfg.Retain, body)
	if !tok.WaitTimeout(pubWait) {
		p.counters.Inc(health.CntReconnects)
		p.log.Warn().Str("topic", topic).Msg("publish timed out")
		return
	}
	if err := tok.Error(); err != nil {
		p.counters.Inc(health.CntReconnects)
		p.log.Warn().Err(err).Str("topic", topic).Msg("publish failed")
	}
}

// Connect dials the broker and returns the live client plus a closer.
// The client auto-reconnects; connection loss is logged, not fatal.
func Connect(cfg MQTTConfig, log zerolog.Logger) (mqtt.Client, func(), error) {
	l := log.With().Str("task", "mqtt").Logger()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(mqtt.Client) {
			l.Info().Str("broker", cfg.Broker).Msg("connected")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			l.Warn().Err(err).Msg("connection lost")
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	cli := mqtt.NewClient(opts)
	tok := cli.Connect()
	if !tok.WaitTimeout(10 * time.Second) {
		cli.Disconnect(0)
		return nil, nil, fmt.Errorf("mqtt: connect to %s timed out", cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		cli.Disconnect(0)
		return nil, nil, fmt.Errorf("mqtt: connect to %s: %w", cfg.Broker, err)
	}

	closer := func() { cli.Disconnect(250) }
	return cli, closer, nil
}
