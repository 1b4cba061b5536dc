// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"github.com/SensorsIot/Modbus-Proxy/internal/modbus"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {

	// ------------------------------------------------------------
	// SERIAL LINKS
	// ------------------------------------------------------------

	if cfg.Proxy.Upstream.Device == "" {
		return fmt.Errorf("proxy.upstream.device is required")
	}
	if cfg.Proxy.Downstream.Device == "" {
		return fmt.Errorf("proxy.downstream.device is required")
	}
	if cfg.Proxy.Upstream.Device == cfg.Proxy.Downstream.Device {
		return fmt.Errorf(
			"proxy.upstream.device and proxy.downstream.device must differ (both %q)",
			cfg.Proxy.Upstream.Device,
		)
	}
	if cfg.Proxy.Upstream.Baud < 0 || cfg.Proxy.Downstream.Baud < 0 {
		return fmt.Errorf("serial baud rates must not be negative")
	}

	if cfg.Proxy.MeterID > 247 {
		return fmt.Errorf("proxy.meter_id %d out of range (max 247; 0 selects the default)", cfg.Proxy.MeterID)
	}
	if cfg.Proxy.WordOrder != "" {
		if _, err := modbus.ParseWordOrder(cfg.Proxy.WordOrder); err != nil {
			return fmt.Errorf("proxy.word_order: %w", err)
		}
	}
	if cfg.Proxy.UpstreamTimeoutMs < 0 || cfg.Proxy.DownstreamTimeoutMs < 0 {
		return fmt.Errorf("proxy timeouts must not be negative")
	}

	// ------------------------------------------------------------
	// CORRECTION
	// ------------------------------------------------------------

	if cfg.Correction.ThresholdW < 0 {
		return fmt.Errorf("correction.threshold_w must not be negative")
	}
	switch cfg.Correction.Sign {
	case "", "add", "subtract":
	default:
		return fmt.Errorf("correction.sign %q invalid (add|subtract)", cfg.Correction.Sign)
	}
	if cfg.Correction.AuxMaxAgeMs < 0 {
		return fmt.Errorf("correction.aux_max_age_ms must not be negative")
	}

	// ------------------------------------------------------------
	// AUX POWER SOURCE
	// ------------------------------------------------------------

	switch cfg.Aux.Source {
	case "", "none":

	case "http":
		if cfg.Aux.HTTP.URL == "" {
			return fmt.Errorf("aux.http.url is required for aux.source=http")
		}
		if !strings.HasPrefix(cfg.Aux.HTTP.URL, "http://") &&
			!strings.HasPrefix(cfg.Aux.HTTP.URL, "https://") {
			return fmt.Errorf("aux.http.url %q must be http(s)", cfg.Aux.HTTP.URL)
		}
		if cfg.Aux.HTTP.IntervalMs < 0 {
			return fmt.Errorf("aux.http.interval_ms must not be negative")
		}

	case "mqtt":
		if cfg.Aux.MQTT.Topic == "" {
			return fmt.Errorf("aux.mqtt.topic is required for aux.source=mqtt")
		}
		if cfg.MQTT.Broker == "" {
			return fmt.Errorf("aux.source=mqtt requires mqtt.broker")
		}

	case "modbus":
		if cfg.Aux.Modbus.Endpoint == "" {
			return fmt.Errorf("aux.modbus.endpoint is required for aux.source=modbus")
		}
		if cfg.Aux.Modbus.WordOrder != "" {
			if _, err := modbus.ParseWordOrder(cfg.Aux.Modbus.WordOrder); err != nil {
				return fmt.Errorf("aux.modbus.word_order: %w", err)
			}
		}
		if cfg.Aux.Modbus.IntervalMs < 0 || cfg.Aux.Modbus.TimeoutMs < 0 {
			return fmt.Errorf("aux.modbus intervals must not be negative")
		}

	default:
		return fmt.Errorf("aux.source %q invalid (none|http|mqtt|modbus)", cfg.Aux.Source)
	}

	// ------------------------------------------------------------
	// TELEMETRY
	// ------------------------------------------------------------

	if cfg.MQTT.Broker != "" {
		if strings.HasSuffix(cfg.MQTT.RootTopic, "/") {
			return fmt.Errorf("mqtt.root_topic must not end with '/'")
		}
		if cfg.MQTT.IntervalMs < 0 {
			return fmt.Errorf("mqtt.interval_ms must not be negative")
		}
	}

	// ------------------------------------------------------------
	// HEALTH
	// ------------------------------------------------------------

	if cfg.Health.CheckIntervalMs < 0 || cfg.Health.TaskTimeoutMs < 0 || cfg.Health.GraceMs < 0 {
		return fmt.Errorf("health intervals must not be negative")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q invalid", cfg.Log.Level)
	}

	return nil
}
