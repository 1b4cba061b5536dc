// cmd/modbus-proxy/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/SensorsIot/Modbus-Proxy/internal/auxpower"
	"github.com/SensorsIot/Modbus-Proxy/internal/config"
	"github.com/SensorsIot/Modbus-Proxy/internal/dtsu"
	"github.com/SensorsIot/Modbus-Proxy/internal/health"
	"github.com/SensorsIot/Modbus-Proxy/internal/link"
	"github.com/SensorsIot/Modbus-Proxy/internal/modbus"
	"github.com/SensorsIot/Modbus-Proxy/internal/proxy"
	"github.com/SensorsIot/Modbus-Proxy/internal/telemetry"
)

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: modbus-proxy <config.yaml>")
		os.Exit(2)
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config validation failed: %v\n", err)
		os.Exit(1)
	}
	config.Normalize(cfg)

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Word order already validated.
	order, _ := modbus.ParseWordOrder(cfg.Proxy.WordOrder)

	// --------------------
	// Serial links
	// --------------------

	up, closeUp, err := link.Open("upstream", link.SerialConfig{
		Device: cfg.Proxy.Upstream.Device,
		Baud:   cfg.Proxy.Upstream.Baud,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("upstream link open failed")
	}
	defer closeUp()

	down, closeDown, err := link.Open("downstream", link.SerialConfig{
		Device: cfg.Proxy.Downstream.Device,
		Baud:   cfg.Proxy.Downstream.Baud,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("downstream link open failed")
	}
	defer closeDown()

	// --------------------
	// Shared state
	// --------------------

	counters := health.NewCounters()
	hb := health.NewHeartbeats()
	store := dtsu.NewStore(0)
	auxVal := auxpower.NewValue(ms(cfg.Correction.AuxMaxAgeMs))

	tasks := []string{"proxy"}

	// --------------------
	// MQTT (telemetry + aux subscriber)
	// --------------------

	var mqttCli mqtt.Client
	if cfg.MQTT.Broker != "" {
		cli, closeMQTT, err := telemetry.Connect(telemetry.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("mqtt connect failed")
		}
		defer closeMQTT()
		mqttCli = cli
	}

	// --------------------
	// Auxiliary power source
	// --------------------

	switch cfg.Aux.Source {
	case "http":
		p := auxpower.NewHTTPPoller(cfg.Aux.HTTP.URL, cfg.Aux.HTTP.Field,
			ms(cfg.Aux.HTTP.IntervalMs), auxVal, log)
		go p.Run(ctx)

	case "mqtt":
		if err := auxpower.SubscribeMQTT(mqttCli, cfg.Aux.MQTT.Topic,
			cfg.Aux.MQTT.Field, auxVal, log); err != nil {
			log.Fatal().Err(err).Msg("aux mqtt subscribe failed")
		}

	case "modbus":
		auxOrder, _ := modbus.ParseWordOrder(cfg.Aux.Modbus.WordOrder)
		p, closeMeter, err := auxpower.NewMeterPoller(auxpower.MeterConfig{
			Endpoint: cfg.Aux.Modbus.Endpoint,
			UnitID:   cfg.Aux.Modbus.UnitID,
			Timeout:  ms(cfg.Aux.Modbus.TimeoutMs),
			Register: cfg.Aux.Modbus.Register,
			Order:    auxOrder,
			Scale:    cfg.Aux.Modbus.Scale,
			Interval: ms(cfg.Aux.Modbus.IntervalMs),
		}, auxVal, log)
		if err != nil {
			log.Fatal().Err(err).Msg("aux meter connect failed")
		}
		defer closeMeter()
		go p.Run(ctx)
	}

	// --------------------
	// Proxy orchestrator
	// --------------------

	sign := float32(1)
	if cfg.Correction.Sign == "subtract" {
		sign = -1
	}

	prx := proxy.New(proxy.Config{
		MeterID:           cfg.Proxy.MeterID,
		UpstreamTimeout:   ms(cfg.Proxy.UpstreamTimeoutMs),
		DownstreamTimeout: ms(cfg.Proxy.DownstreamTimeoutMs),
		Order:             order,
		ThresholdWatts:    cfg.Correction.ThresholdW,
		Sign:              sign,
	}, up, down, auxVal, store, counters, hb, log)
	go prx.Run(ctx)

	// --------------------
	// Telemetry
	// --------------------

	col := telemetry.NewCollector(store, auxVal, prx, counters, hb,
		ms(cfg.Correction.AuxMaxAgeMs))

	if mqttCli != nil {
		pub := telemetry.NewPublisher(telemetry.MQTTConfig{
			RootTopic: cfg.MQTT.RootTopic,
			Interval:  ms(cfg.MQTT.IntervalMs),
			Retain:    cfg.MQTT.Retain,
		}, mqttCli, col, counters, hb, log)
		go pub.Run(ctx)
		tasks = append(tasks, "telemetry")
	}

	if cfg.HTTP.Listen != "" {
		srv := telemetry.NewServer(cfg.HTTP.Listen, col, log)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Error().Err(err).Msg("http server failed")
			}
		}()
	}

	// --------------------
	// Health supervision
	// --------------------

	sup := health.New(health.Config{
		Interval:     ms(cfg.Health.CheckIntervalMs),
		TaskTimeout:  ms(cfg.Health.TaskTimeoutMs),
		MemWarnBytes: cfg.Health.MemWarnBytes,
		Grace:        ms(cfg.Health.GraceMs),
	}, hb, tasks, nil, log)

	log.Info().
		Str("upstream", cfg.Proxy.Upstream.Device).
		Str("downstream", cfg.Proxy.Downstream.Device).
		Uint8("meter_id", cfg.Proxy.MeterID).
		Str("aux_source", cfg.Aux.Source).
		Msg("proxy running")

	sup.Run(ctx)
}
