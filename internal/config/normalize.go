// internal/config/normalize.go
package config

// Defaults applied by Normalize. The meter id and baud rate match the
// DTSU-666 as shipped; everything else mirrors the historical firmware
// settings.
const (
	DefaultBaud                = 9600
	DefaultMeterID             = 11
	DefaultWordOrder           = "abcd"
	DefaultUpstreamTimeoutMs   = 2000
	DefaultDownstreamTimeoutMs = 1000

	DefaultAuxMaxAgeMs   = 30000
	DefaultAuxIntervalMs = 1000
	DefaultAuxTimeoutMs  = 2000

	DefaultMQTTClientID   = "modbus-proxy"
	DefaultMQTTIntervalMs = 1000

	DefaultHealthCheckIntervalMs = 5000
	DefaultHealthTaskTimeoutMs   = 60000
	DefaultHealthGraceMs         = 2000

	DefaultLogLevel = "info"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ---- proxy ----

	if cfg.Proxy.Upstream.Baud == 0 {
		cfg.Proxy.Upstream.Baud = DefaultBaud
	}
	if cfg.Proxy.Downstream.Baud == 0 {
		cfg.Proxy.Downstream.Baud = DefaultBaud
	}
	if cfg.Proxy.MeterID == 0 {
		cfg.Proxy.MeterID = DefaultMeterID
	}
	if cfg.Proxy.WordOrder == "" {
		cfg.Proxy.WordOrder = DefaultWordOrder
	}
	if cfg.Proxy.UpstreamTimeoutMs == 0 {
		cfg.Proxy.UpstreamTimeoutMs = DefaultUpstreamTimeoutMs
	}
	if cfg.Proxy.DownstreamTimeoutMs == 0 {
		cfg.Proxy.DownstreamTimeoutMs = DefaultDownstreamTimeoutMs
	}

	// ---- correction ----

	if cfg.Correction.Sign == "" {
		cfg.Correction.Sign = "add"
	}
	if cfg.Correction.AuxMaxAgeMs == 0 {
		cfg.Correction.AuxMaxAgeMs = DefaultAuxMaxAgeMs
	}

	// ---- aux ----

	if cfg.Aux.Source == "" {
		cfg.Aux.Source = "none"
	}
	if cfg.Aux.HTTP.IntervalMs == 0 {
		cfg.Aux.HTTP.IntervalMs = DefaultAuxIntervalMs
	}
	if cfg.Aux.Modbus.IntervalMs == 0 {
		cfg.Aux.Modbus.IntervalMs = DefaultAuxIntervalMs
	}
	if cfg.Aux.Modbus.TimeoutMs == 0 {
		cfg.Aux.Modbus.TimeoutMs = DefaultAuxTimeoutMs
	}
	if cfg.Aux.Modbus.WordOrder == "" {
		cfg.Aux.Modbus.WordOrder = DefaultWordOrder
	}
	if cfg.Aux.Modbus.Scale == 0 {
		cfg.Aux.Modbus.Scale = 1
	}

	// ---- telemetry ----

	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.ClientID == "" {
			cfg.MQTT.ClientID = DefaultMQTTClientID
		}
		if cfg.MQTT.RootTopic == "" {
			cfg.MQTT.RootTopic = "dtsu666"
		}
		if cfg.MQTT.IntervalMs == 0 {
			cfg.MQTT.IntervalMs = DefaultMQTTIntervalMs
		}
	}

	// ---- health ----

	if cfg.Health.CheckIntervalMs == 0 {
		cfg.Health.CheckIntervalMs = DefaultHealthCheckIntervalMs
	}
	if cfg.Health.TaskTimeoutMs == 0 {
		cfg.Health.TaskTimeoutMs = DefaultHealthTaskTimeoutMs
	}
	if cfg.Health.GraceMs == 0 {
		cfg.Health.GraceMs = DefaultHealthGraceMs
	}

	// ---- log ----

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}
